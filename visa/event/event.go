// Package event implements the VISA event subsystem (spec component H):
// enable/disable/discard, blocking wait, and handler install/uninstall,
// plus the per-(resource, event type) state machine spec §4.H describes.
//
// Event fan-out is adapted from the teacher's bus topic trie
// (services/bus): instead of MQTT-style wildcard topics keyed by a
// hierarchical path, a (session, event type) pair keys a small in-process
// table of subscribers — registered handlers and a buffered queue — with
// the trie's core idea (one publish, many subscribers) kept and its
// wildcard matching and retained messages dropped: no event is kept for
// later subscribers, and VISA event types have no wildcard analogue.
package event

import (
	"log/slog"
	"sync"
	"time"

	"govisa/attr"
	"govisa/backend"
	"govisa/visaerr"
)

// TimeoutInfinite mirrors the core-level sentinel for "wait forever"
// (spec §5); WaitOnEvent treats it as no deadline at all rather than a
// literal multi-millennium timer.
const TimeoutInfinite int64 = -1

func msToDuration(ms int64) time.Duration {
	if ms < 0 {
		return time.Duration(1<<63 - 1)
	}
	return time.Duration(ms) * time.Millisecond
}

// WaitResponse mirrors backend.WaitResult at the core level.
type WaitResponse struct {
	EventType attr.EventType
	Context   uintptr
	TimedOut  bool
}

// HandlerHandle is the opaque token InstallHandler returns; independent of
// whatever handle the backend itself allocates, so every backend --
// including ones that can't register native callbacks -- can still hand
// back a stable, distinct value per install (spec §4.H, §9 open question
// on duplicate installs: allowed, distinguished by handle).
type HandlerHandle uint64

// HandlerFunc is a core-level event callback already associated with its
// firing resource by the caller (visa.Resource wraps its own Handler type
// down to this shape before calling InstallHandler).
type HandlerFunc func(eventType attr.EventType, context uintptr, userHandle uintptr)

type queuedEvent struct {
	eventType attr.EventType
	context   uintptr
}

type registeredHandler struct {
	handle     HandlerHandle
	fn         HandlerFunc
	userHandle uintptr
	backendH   backend.HandlerHandle
	viaBackend bool
}

// perType tracks the enablement state machine for one event type: states
// {disabled, enabled_queue, enabled_handler, enabled_both} are represented
// as the (queueOn, handlerOn) pair. Discard empties the queue and changes
// neither flag.
type perType struct {
	queueOn   bool
	handlerOn bool

	queue chan queuedEvent

	handlers   map[HandlerHandle]*registeredHandler
	nextHandle HandlerHandle

	stopPoll func()
}

// State is the per-resource event subsystem instance; visa.Resource holds
// exactly one, created alongside the resource and torn down in Close.
type State struct {
	mu      sync.Mutex
	be      backend.Backend
	session backend.Session
	types   map[attr.EventType]*perType
}

func NewState(be backend.Backend, session backend.Session) *State {
	return &State{be: be, session: session, types: map[attr.EventType]*perType{}}
}

func (s *State) entry(t attr.EventType) *perType {
	pt, ok := s.types[t]
	if !ok {
		pt = &perType{handlers: map[HandlerHandle]*registeredHandler{}}
		s.types[t] = pt
	}
	return pt
}

// Enable is idempotent: enabling an already-enabled (type, mechanism) pair
// is a no-op (spec §4.H).
func (s *State) Enable(t attr.EventType, mechanism attr.EventMechanism) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pt := s.entry(t)

	wantQueue := mechanism == attr.MechanismQueue || mechanism == attr.MechanismAll
	wantHandler := mechanism == attr.MechanismHandler || mechanism == attr.MechanismAll

	if wantQueue && !pt.queueOn {
		if err := s.be.EnableEvent(s.session, t, attr.MechanismQueue); err != nil {
			return err
		}
		pt.queueOn = true
		pt.queue = make(chan queuedEvent, 64)
	}
	if wantHandler && !pt.handlerOn {
		if err := s.be.EnableEvent(s.session, t, attr.MechanismHandler); err != nil {
			return err
		}
		pt.handlerOn = true
	}
	s.ensurePoll(t, pt)
	return nil
}

// Disable clears the requested mechanism bits; the type returns to
// disabled once both are clear.
func (s *State) Disable(t attr.EventType, mechanism attr.EventMechanism) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pt, ok := s.types[t]
	if !ok {
		return nil
	}
	if mechanism == attr.MechanismQueue || mechanism == attr.MechanismAll {
		if pt.queueOn {
			if err := s.be.DisableEvent(s.session, t, attr.MechanismQueue); err != nil {
				return err
			}
			pt.queueOn = false
		}
	}
	if mechanism == attr.MechanismHandler || mechanism == attr.MechanismAll {
		if pt.handlerOn {
			if err := s.be.DisableEvent(s.session, t, attr.MechanismHandler); err != nil {
				return err
			}
			pt.handlerOn = false
		}
	}
	if !pt.queueOn && !pt.handlerOn && pt.stopPoll != nil {
		pt.stopPoll()
		pt.stopPoll = nil
	}
	return nil
}

// Discard empties the queued-event backlog without changing enablement
// (spec §8 law 6).
func (s *State) Discard(t attr.EventType, mechanism attr.EventMechanism) error {
	s.mu.Lock()
	pt, ok := s.types[t]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := s.be.DiscardEvents(s.session, t, mechanism); err != nil {
		return err
	}
	if pt.queue != nil {
		for {
			select {
			case <-pt.queue:
			default:
				return nil
			}
		}
	}
	return nil
}

// WaitOnEvent blocks for the next queued occurrence of t, or until
// timeoutMS elapses. If the queue mechanism has never been enabled for t,
// it falls back to a single direct backend.WaitOnEvent call, whether or
// not a handler-only poll worker is running.
func (s *State) WaitOnEvent(t attr.EventType, timeoutMS int64) (WaitResponse, error) {
	s.mu.Lock()
	pt, ok := s.types[t]
	var queue chan queuedEvent
	if ok {
		queue = pt.queue
	}
	s.mu.Unlock()

	if queue == nil {
		res, err := s.be.WaitOnEvent(s.session, t, timeoutMS)
		if err != nil {
			return WaitResponse{}, err
		}
		return WaitResponse{EventType: res.EventType, Context: res.Context, TimedOut: res.TimedOut}, nil
	}

	timer := time.NewTimer(msToDuration(timeoutMS))
	defer timer.Stop()
	select {
	case ev := <-queue:
		return WaitResponse{EventType: ev.eventType, Context: ev.context}, nil
	case <-timer.C:
		return WaitResponse{EventType: t, TimedOut: true}, nil
	}
}

// InstallHandler registers fn for t and returns a handle distinct from any
// previous install of the same callable (spec §9 open question, resolved
// permissively). It first tries the backend's native callback ABI; a
// backend that returns visaerr.UnsupportedOperation (e.g. the usbtmc and
// serialport example clients) still gets handler delivery through the
// poll worker started by Enable.
func (s *State) InstallHandler(t attr.EventType, fn HandlerFunc, userHandle uintptr) (HandlerHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pt := s.entry(t)
	pt.nextHandle++
	handle := pt.nextHandle
	rh := &registeredHandler{handle: handle, fn: fn, userHandle: userHandle}

	backendCB := func(_ backend.Session, eventType attr.EventType, context uintptr, uh uintptr) {
		safeInvoke(fn, eventType, context, uh)
	}
	if bh, err := s.be.InstallHandler(s.session, t, backendCB, userHandle); err == nil {
		rh.backendH = bh
		rh.viaBackend = true
	} else if visaerr.Of(err) != visaerr.CodeUnsupportedOperation {
		return 0, err
	}
	pt.handlers[handle] = rh
	s.ensurePoll(t, pt)
	return handle, nil
}

// UninstallHandler removes the handler registered under handle.
func (s *State) UninstallHandler(t attr.EventType, handle HandlerHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pt, ok := s.types[t]
	if !ok {
		return nil
	}
	rh, ok := pt.handlers[handle]
	if !ok {
		return nil
	}
	delete(pt.handlers, handle)
	if rh.viaBackend {
		return s.be.UninstallHandler(s.session, t, rh.backendH)
	}
	return nil
}

// CloseAll forces every event type back to disabled, matching spec §4.H
// "close() forces transition to disabled for all types".
func (s *State) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, pt := range s.types {
		if pt.stopPoll != nil {
			pt.stopPoll()
			pt.stopPoll = nil
		}
		if pt.queueOn {
			_ = s.be.DisableEvent(s.session, t, attr.MechanismQueue)
			pt.queueOn = false
		}
		if pt.handlerOn {
			_ = s.be.DisableEvent(s.session, t, attr.MechanismHandler)
			pt.handlerOn = false
		}
	}
}

// safeInvoke catches a panicking handler and turns it into a logged
// visaerr.HandlerError; handler failures must never propagate back into
// the backend (spec §4.H, §7).
func safeInvoke(fn HandlerFunc, eventType attr.EventType, context uintptr, userHandle uintptr) {
	defer func() {
		if r := recover(); r != nil {
			err := &visaerr.HandlerError{EventType: eventType.String(), Cause: panicToError(r)}
			slog.Error("visa: event handler panicked", "event_type", eventType, "error", err)
		}
	}()
	fn(eventType, context, userHandle)
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &visaerr.ProtocolError{Reason: "handler panic"}
}
