package event

import (
	"sync"
	"testing"
	"time"

	"govisa/attr"
	"govisa/backend"
	"govisa/visaerr"
)

// fakeBackend is a minimal in-package stand-in that only implements the
// event-related methods State actually calls; visa/probe is the
// full-surface fake used by the visa package's own tests, but this
// package tests the state machine in isolation.
type fakeBackend struct {
	backend.Backend
	mu      sync.Mutex
	waiting chan backend.WaitResult
	enables []attr.EventMechanism
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{waiting: make(chan backend.WaitResult, 8)}
}

func (f *fakeBackend) EnableEvent(session backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enables = append(f.enables, mechanism)
	return nil
}

func (f *fakeBackend) DisableEvent(session backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return nil
}

func (f *fakeBackend) DiscardEvents(session backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return nil
}

func (f *fakeBackend) WaitOnEvent(session backend.Session, eventType attr.EventType, timeoutMS int64) (backend.WaitResult, error) {
	select {
	case ev := <-f.waiting:
		return ev, nil
	case <-time.After(time.Duration(timeoutMS) * time.Millisecond):
		return backend.WaitResult{EventType: eventType, TimedOut: true}, nil
	}
}

func (f *fakeBackend) InstallHandler(session backend.Session, eventType attr.EventType, cb backend.EventCallback, userHandle uintptr) (backend.HandlerHandle, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "install_handler", ResourceKind: "fake"}
}

func (f *fakeBackend) UninstallHandler(session backend.Session, eventType attr.EventType, handle backend.HandlerHandle) error {
	return nil
}

func TestEnable_IsIdempotent(t *testing.T) {
	fb := newFakeBackend()
	s := NewState(fb, 1)
	if err := s.Enable(attr.EventServiceRequest, attr.MechanismQueue); err != nil {
		t.Fatalf("first Enable: %v", err)
	}
	if err := s.Enable(attr.EventServiceRequest, attr.MechanismQueue); err != nil {
		t.Fatalf("second Enable: %v", err)
	}
	fb.mu.Lock()
	n := len(fb.enables)
	fb.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected exactly one backend EnableEvent call, got %d", n)
	}
	s.CloseAll()
}

func TestWaitOnEvent_DeliversQueuedEvent(t *testing.T) {
	fb := newFakeBackend()
	s := NewState(fb, 1)
	if err := s.Enable(attr.EventServiceRequest, attr.MechanismQueue); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	fb.waiting <- backend.WaitResult{EventType: attr.EventServiceRequest, Context: 42}
	defer s.CloseAll()

	resp, err := s.WaitOnEvent(attr.EventServiceRequest, 1000)
	if err != nil {
		t.Fatalf("WaitOnEvent: %v", err)
	}
	if resp.TimedOut {
		t.Fatalf("expected a delivered event, got timeout")
	}
	if resp.Context != 42 {
		t.Fatalf("Context = %d, want 42", resp.Context)
	}
}

func TestWaitOnEvent_TimesOutWithoutEnable(t *testing.T) {
	fb := newFakeBackend()
	s := NewState(fb, 1)
	resp, err := s.WaitOnEvent(attr.EventServiceRequest, 30)
	if err != nil {
		t.Fatalf("WaitOnEvent returned an error instead of a timeout: %v", err)
	}
	if !resp.TimedOut {
		t.Fatalf("expected TimedOut=true on a silent instrument")
	}
}

func TestDisable_StopsPollingAndReenableWorks(t *testing.T) {
	fb := newFakeBackend()
	s := NewState(fb, 1)
	if err := s.Enable(attr.EventServiceRequest, attr.MechanismQueue); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := s.Disable(attr.EventServiceRequest, attr.MechanismQueue); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	s.mu.Lock()
	stillPolling := s.types[attr.EventServiceRequest].stopPoll != nil
	s.mu.Unlock()
	if stillPolling {
		t.Fatalf("Disable left the poll worker running")
	}
	if err := s.Enable(attr.EventServiceRequest, attr.MechanismQueue); err != nil {
		t.Fatalf("re-Enable: %v", err)
	}
	fb.mu.Lock()
	n := len(fb.enables)
	fb.mu.Unlock()
	if n != 2 {
		t.Fatalf("expected re-Enable to reach the backend again (2 EnableEvent calls), got %d", n)
	}
	s.CloseAll()
}

func TestInstallHandler_DuplicateInstallProducesDistinctHandles(t *testing.T) {
	fb := newFakeBackend()
	s := NewState(fb, 1)
	cb := func(attr.EventType, uintptr, uintptr) {}

	h1, err := s.InstallHandler(attr.EventServiceRequest, cb, 0)
	if err != nil {
		t.Fatalf("first InstallHandler: %v", err)
	}
	h2, err := s.InstallHandler(attr.EventServiceRequest, cb, 0)
	if err != nil {
		t.Fatalf("second InstallHandler: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected distinct handles for repeated installs of the same callable")
	}
	s.CloseAll()
}

func TestHandlerPanic_IsRecoveredNotPropagated(t *testing.T) {
	fb := newFakeBackend()
	s := NewState(fb, 1)
	panicked := make(chan struct{}, 1)
	cb := func(attr.EventType, uintptr, uintptr) {
		panicked <- struct{}{}
		panic("boom")
	}
	if _, err := s.InstallHandler(attr.EventServiceRequest, cb, 0); err != nil {
		t.Fatalf("InstallHandler: %v", err)
	}
	if err := s.Enable(attr.EventServiceRequest, attr.MechanismHandler); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer s.CloseAll()

	fb.waiting <- backend.WaitResult{EventType: attr.EventServiceRequest}
	select {
	case <-panicked:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
	// Reaching here without the test process crashing is the assertion:
	// safeInvoke must have recovered the panic.
}
