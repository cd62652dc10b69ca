// Package backend defines the minimum capability surface the visa core
// needs from a concrete VISA provider (spec component D / §4.D), plus a
// small process-wide registry so a resource name's trailing `@name`
// selector can pick a non-default implementation. The default binding,
// `backend/ivi`, talks to a real foreign VISA shared library; alternative
// backends (`backends/usbtmc`, `backends/serialport`) implement the same
// interface in pure Go and register themselves the same way.
package backend

import (
	"fmt"
	"strings"
	"sync"

	"govisa/attr"
)

// Session is the opaque per-resource handle a backend hands back. It is
// never interpreted by the core, only round-tripped, same as the VISA
// ViSession type it stands in for.
type Session uint64

// HandlerHandle is the opaque token InstallHandler returns; UninstallHandler
// must be called with the exact handle install produced (spec §4.H:
// "installing the same callable multiple times produces distinct opaque
// handles").
type HandlerHandle uint64

// Config carries the caller-supplied, already-decoded configuration a
// backend needs to start — no file parsing happens in core (Non-goals),
// mirroring the teacher's config.HALConfig being handed to builders
// pre-decoded rather than read from disk by the builder itself.
type Config struct {
	LibraryPath   string
	ExtraPaths    []string
	VICPInterface attr.InterfaceType // not read by any backend in this module; VICP resources report attr.VICP
}

// EventCallback is the core-side shape every installed handler is wrapped
// to: (session, event type, backend context, user handle). The backend is
// responsible for invoking it on its own event-delivery goroutine/thread
// and must not block indefinitely inside the callback.
type EventCallback func(session Session, eventType attr.EventType, context uintptr, userHandle uintptr)

// WaitResult is what WaitOnEvent returns on both success and timeout; a
// timeout is reported in-band (TimedOut=true), never as an error (spec
// §4.H, §8 scenario 6).
type WaitResult struct {
	EventType attr.EventType
	Context   uintptr
	TimedOut  bool
}

// Backend is the capability surface of spec §4.D.
type Backend interface {
	OpenDefaultRM() (Session, error)
	Open(rm Session, resourceName string, mode attr.AccessMode, openTimeoutMS int64) (Session, attr.Status, error)
	Close(session Session) error
	ListResources(rm Session, pattern string) ([]string, error)

	GetAttr(session Session, id attr.ID) (any, error)
	SetAttr(session Session, id attr.ID, value any) error

	Lock(session Session, kind attr.LockKind, timeoutMS int64, requestedKey string) (grantedKey string, err error)
	Unlock(session Session) error

	Read(session Session, count int) ([]byte, attr.Status, error)
	Write(session Session, data []byte) (int, attr.Status, error)

	EnableEvent(session Session, eventType attr.EventType, mechanism attr.EventMechanism) error
	DisableEvent(session Session, eventType attr.EventType, mechanism attr.EventMechanism) error
	DiscardEvents(session Session, eventType attr.EventType, mechanism attr.EventMechanism) error
	WaitOnEvent(session Session, eventType attr.EventType, timeoutMS int64) (WaitResult, error)
	InstallHandler(session Session, eventType attr.EventType, cb EventCallback, userHandle uintptr) (HandlerHandle, error)
	UninstallHandler(session Session, eventType attr.EventType, handle HandlerHandle) error

	// Bus-specific helpers. A backend/bus pairing that does not support one
	// of these legitimately returns visaerr.UnsupportedOperation.
	AssertTrigger(session Session, protocol int) error
	Clear(session Session) error
	ReadSTB(session Session) (byte, error)
	GPIBCommand(session Session, cmd []byte) (int, error)
	GPIBControlREN(session Session, mode int) error
	Flush(session Session, mask int) error
	USBControlIn(session Session, request, value, index, length int) ([]byte, error)
	USBControlOut(session Session, request, value, index int, data []byte) error
	Peek8(session Session, address uintptr) (uint8, error)
	Peek16(session Session, address uintptr) (uint16, error)
	Peek32(session Session, address uintptr) (uint32, error)
	Peek64(session Session, address uintptr) (uint64, error)
	Poke8(session Session, address uintptr, value uint8) error
	Poke16(session Session, address uintptr, value uint16) error
	Poke32(session Session, address uintptr, value uint32) error
	Poke64(session Session, address uintptr, value uint64) error
}

// OpenFunc constructs a Backend from its Config; every implementation
// registers one under a unique name at init() time (blank-import side
// effect), the same shape as the teacher's hal.RegisterBuilder.
type OpenFunc func(cfg Config) (Backend, error)

// DefaultName is the backend selected when a resource name carries no
// `@name` suffix.
const DefaultName = "ivi"

var (
	mu       sync.RWMutex
	registry = map[string]OpenFunc{}
)

// Register installs a named backend opener. It panics on duplicate
// registration, same as hal.RegisterBuilder: a second backend silently
// registering under a name already in use is a startup bug, not a runtime
// condition to recover from.
func Register(name string, open OpenFunc) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		panic("backend: empty backend name")
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("backend: backend already registered for name %q", name))
	}
	registry[name] = open
}

// Lookup finds a registered backend opener by name.
func Lookup(name string) (OpenFunc, bool) {
	mu.RLock()
	defer mu.RUnlock()
	open, ok := registry[name]
	return open, ok
}

// Open resolves name to a registered opener (DefaultName if name is empty)
// and constructs a Backend from cfg.
func Open(name string, cfg Config) (Backend, error) {
	if name == "" {
		name = DefaultName
	}
	open, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("backend: no backend registered for name %q", name)
	}
	return open(cfg)
}

// SplitSelector separates a resource name's trailing `@backend_name`
// selector (spec §6 "backend selector syntax") from the resource name
// itself. A resource name with no '@' returns (name, "").
func SplitSelector(resourceName string) (name, backendName string) {
	if i := strings.LastIndexByte(resourceName, '@'); i >= 0 {
		return resourceName[:i], resourceName[i+1:]
	}
	return resourceName, ""
}
