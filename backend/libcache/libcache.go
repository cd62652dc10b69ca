// Package libcache keeps one open foreign-library handle per library path,
// refcounted across every ResourceManager that opens the same path
// (spec §9 "Global state": "the library-handle cache... is process-wide;
// initialization is lazy and thread-safe; teardown happens when the last
// ResourceManager referring to a library is closed"). It generalizes the
// teacher's single-process builder registry (services/hal/registry.go) from
// a one-shot init-time map to a refcounted, lazily-populated one.
package libcache

import (
	"fmt"
	"sync"
)

// OpenFunc performs the actual dlopen-equivalent; CloseFunc its inverse.
type OpenFunc func(path string) (uintptr, error)
type CloseFunc func(uintptr) error

type entry struct {
	handle uintptr
	refs   int
	close  CloseFunc
}

// Cache is safe for concurrent use; the zero value is not usable, use New.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New constructs an empty cache. Most callers use the package-level
// Default instance; a distinct Cache is useful in tests that must not
// share state with other packages' acquisitions of the same path.
func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Default is the process-wide cache backend/ivi uses.
var Default = New()

// Handle is a refcounted lease on an open library. Release must be called
// exactly once per successful Acquire.
type Handle struct {
	Path   string
	Raw    uintptr
	cache  *Cache
}

// Acquire opens path via open if it is not already cached, or bumps the
// refcount of the existing open handle. open runs without the cache lock
// held, so concurrent Acquire calls for one uncached path may each call
// open; the first result stored is kept, the others are closed with
// closeFn, and every caller gets a handle on the kept one.
func (c *Cache) Acquire(path string, open OpenFunc, closeFn CloseFunc) (*Handle, error) {
	c.mu.Lock()
	if e, ok := c.entries[path]; ok {
		e.refs++
		c.mu.Unlock()
		return &Handle{Path: path, Raw: e.handle, cache: c}, nil
	}
	c.mu.Unlock()

	raw, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("libcache: open %q: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		// Lost a race with another Acquire; keep theirs, close ours.
		e.refs++
		_ = closeFn(raw)
		return &Handle{Path: path, Raw: e.handle, cache: c}, nil
	}
	c.entries[path] = &entry{handle: raw, refs: 1, close: closeFn}
	return &Handle{Path: path, Raw: raw, cache: c}, nil
}

// Release decrements the refcount and closes the underlying library once
// it reaches zero. Calling Release more than once on the same Handle is a
// caller bug; it is not guarded against beyond what the map lookup
// naturally catches (a double-release on an already-evicted entry is a
// no-op).
func (h *Handle) Release() error {
	c := h.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[h.Path]
	if !ok {
		return nil
	}
	e.refs--
	if e.refs > 0 {
		return nil
	}
	delete(c.entries, h.Path)
	return e.close(e.handle)
}

// RefCount reports the current refcount for path, 0 if not cached. For
// tests and diagnostics only.
func (c *Cache) RefCount(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		return e.refs
	}
	return 0
}
