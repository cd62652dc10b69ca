package libcache

import "testing"

func TestAcquireRelease_Refcounting(t *testing.T) {
	c := New()
	opens, closes := 0, 0
	open := func(path string) (uintptr, error) {
		opens++
		return 0x1234, nil
	}
	closeFn := func(uintptr) error {
		closes++
		return nil
	}

	h1, err := c.Acquire("/lib/visa.so", open, closeFn)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	h2, err := c.Acquire("/lib/visa.so", open, closeFn)
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if opens != 1 {
		t.Fatalf("expected exactly one real open, got %d", opens)
	}
	if c.RefCount("/lib/visa.so") != 2 {
		t.Fatalf("expected refcount 2, got %d", c.RefCount("/lib/visa.so"))
	}

	if err := h1.Release(); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if closes != 0 {
		t.Fatalf("library closed too early")
	}
	if err := h2.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
	if closes != 1 {
		t.Fatalf("expected exactly one close after last release, got %d", closes)
	}
	if c.RefCount("/lib/visa.so") != 0 {
		t.Fatalf("expected entry evicted after last release")
	}
}

func TestAcquire_DistinctPaths(t *testing.T) {
	c := New()
	open := func(path string) (uintptr, error) { return 1, nil }
	closeFn := func(uintptr) error { return nil }

	if _, err := c.Acquire("/lib/a.so", open, closeFn); err != nil {
		t.Fatalf("Acquire a failed: %v", err)
	}
	if _, err := c.Acquire("/lib/b.so", open, closeFn); err != nil {
		t.Fatalf("Acquire b failed: %v", err)
	}
	if c.RefCount("/lib/a.so") != 1 || c.RefCount("/lib/b.so") != 1 {
		t.Fatalf("expected independent refcounts for distinct paths")
	}
}
