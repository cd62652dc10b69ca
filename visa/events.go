package visa

import (
	"govisa/attr"
	"govisa/visa/event"
)

// WaitResponse mirrors backend.WaitResult at the core level; on timeout
// TimedOut is true and no error is returned (spec §4.H, §8 scenario 6).
type WaitResponse = event.WaitResponse

// Handler is a user event callback, re-wrapped by the core so its
// signature carries the firing resource rather than a bare session handle
// (spec §4.H "the callable is wrapped so its signature is (resource,
// event, user_handle)").
type Handler func(res *Resource, eventType attr.EventType, context uintptr, userHandle uintptr)

// HandlerHandle is the opaque token returned by InstallHandler and
// required by UninstallHandler.
type HandlerHandle = event.HandlerHandle

// EnableEvent is idempotent: enabling the same (type, mechanism) twice is
// a no-op (spec §4.H).
func (r *Resource) EnableEvent(eventType attr.EventType, mechanism attr.EventMechanism) error {
	return r.withLock("enable_event", func() error {
		return r.events.Enable(eventType, mechanism)
	})
}

func (r *Resource) DisableEvent(eventType attr.EventType, mechanism attr.EventMechanism) error {
	return r.withLock("disable_event", func() error {
		return r.events.Disable(eventType, mechanism)
	})
}

func (r *Resource) DiscardEvents(eventType attr.EventType, mechanism attr.EventMechanism) error {
	return r.withLock("discard_events", func() error {
		return r.events.Discard(eventType, mechanism)
	})
}

// WaitOnEvent blocks until eventType fires or timeoutMS elapses. A timeout
// is reported in-band, never as an error. It holds r.mu for the wait's
// full duration like every other resource call, so a WaitOnEvent in
// flight serializes against other operations on the same resource — a
// long wait should use its own Resource (or be given a short timeout) if
// that resource needs to stay responsive to other calls meanwhile.
func (r *Resource) WaitOnEvent(eventType attr.EventType, timeoutMS int64) (resp WaitResponse, err error) {
	err = r.withLock("wait_on_event", func() error {
		var e error
		resp, e = r.events.WaitOnEvent(eventType, timeoutMS)
		return e
	})
	return
}

// InstallHandler wraps cb so it is invoked with this resource re-attached,
// and returns the opaque handle required by UninstallHandler. Installing
// the same callable multiple times produces distinct handles (spec §9
// open question, resolved permissively to match the source's behavior —
// see DESIGN.md).
func (r *Resource) InstallHandler(eventType attr.EventType, cb Handler, userHandle uintptr) (handle HandlerHandle, err error) {
	err = r.withLock("install_handler", func() error {
		wrapped := func(eventType attr.EventType, context uintptr, userHandle uintptr) {
			cb(r, eventType, context, userHandle)
		}
		var e error
		handle, e = r.events.InstallHandler(eventType, wrapped, userHandle)
		return e
	})
	return
}

// UninstallHandler removes a previously installed handler; handle must be
// the value InstallHandler returned.
func (r *Resource) UninstallHandler(eventType attr.EventType, handle HandlerHandle) error {
	return r.withLock("uninstall_handler", func() error {
		return r.events.UninstallHandler(eventType, handle)
	})
}
