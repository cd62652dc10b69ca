package ivi

import (
	"sync"

	"github.com/ebitengine/purego"

	"govisa/attr"
	"govisa/backend"
	"govisa/visaerr"
)

// dispatchThunk is the single C-callable trampoline every installed
// handler shares; VISA's ViHndlr ABI is (session, eventType, context,
// userHandle) -> ViStatus. The userHandle the foreign library hands back
// here is always one of our own HandlerHandle values, not the caller's —
// we box the caller's real user_handle inside registeredHandler and
// re-supply it on invocation, so the core-level callback always sees the
// caller's own value (spec §4.H "wrapped so its signature is (resource,
// event, user_handle)").
func dispatchThunk(vi viSession, eventType uint32, context uint32, handle uintptr) viStatus {
	globalBindingsMu.RLock()
	b, ok := globalBindings[handle]
	globalBindingsMu.RUnlock()
	if !ok {
		return 0
	}
	b.mu.Lock()
	rh, ok := b.handlers[backend.HandlerHandle(handle)]
	b.mu.Unlock()
	if !ok {
		return 0
	}
	rh.cb(backend.Session(vi), attr.EventType(eventType), uintptr(context), rh.userHandle)
	return 0
}

// globalBindings lets the single process-wide C callback recover which
// binding a firing handle belongs to; a purego callback is a bare function
// pointer with no room for a Go closure environment, so the handle itself
// has to carry enough information to look everything else up.
var (
	globalBindingsMu sync.RWMutex
	globalBindings   = map[uintptr]*binding{}
)

func (b *binding) registerGlobal(handle backend.HandlerHandle) {
	globalBindingsMu.Lock()
	globalBindings[uintptr(handle)] = b
	globalBindingsMu.Unlock()
}

func (b *binding) unregisterGlobal(handle backend.HandlerHandle) {
	globalBindingsMu.Lock()
	delete(globalBindings, uintptr(handle))
	globalBindingsMu.Unlock()
}

var dispatchThunkPtr uintptr

func init() {
	dispatchThunkPtr = purego.NewCallback(dispatchThunk)
}

func (b *binding) InstallHandler(session backend.Session, eventType attr.EventType, cb backend.EventCallback, userHandle uintptr) (backend.HandlerHandle, error) {
	b.mu.Lock()
	b.nextID++
	handle := b.nextID
	b.handlers[handle] = registeredHandler{session: session, eventType: eventType, cb: cb, userHandle: userHandle}
	b.mu.Unlock()
	b.registerGlobal(handle)

	s := b.fn.viInstallHandler(viSession(session), uint32(eventType), dispatchThunkPtr, uintptr(handle))
	if s < 0 {
		b.mu.Lock()
		delete(b.handlers, handle)
		b.mu.Unlock()
		b.unregisterGlobal(handle)
		return 0, &visaerr.HandlerError{EventType: "install", Cause: statusErr("install_handler", "", s)}
	}
	return handle, nil
}

func (b *binding) UninstallHandler(session backend.Session, eventType attr.EventType, handle backend.HandlerHandle) error {
	s := b.fn.viUninstallHandler(viSession(session), uint32(eventType), dispatchThunkPtr, uintptr(handle))
	b.mu.Lock()
	delete(b.handlers, handle)
	b.mu.Unlock()
	b.unregisterGlobal(handle)
	return statusErr("uninstall_handler", "", s)
}
