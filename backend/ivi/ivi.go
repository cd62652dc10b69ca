// Package ivi is the default Backend binding (spec §4.D): it dlopens a
// vendor-supplied VISA shared library with purego (no cgo) and invokes its
// C ABI directly. It registers itself under backend.DefaultName so any
// ResourceManager built without an explicit `@name` backend selector uses
// it automatically.
package ivi

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"

	"govisa/attr"
	"govisa/backend"
	"govisa/backend/libcache"
)

func init() {
	backend.Register(backend.DefaultName, Open)
}

// ViStatus, ViSession etc: the handful of VISA C ABI scalar types this
// binding marshals across. Status is signed (negative is error); every
// other handle is an unsigned 32-bit value on every VISA implementation we
// target.
type viStatus = int32
type viSession = uint32

// fnTable holds one typed Go function variable per VISA entry point,
// each bound to the loaded library by purego.RegisterLibFunc. Splitting
// this out of binding keeps the dlopen/registration code in one place and
// the Backend-interface method bodies (ops.go) free of ABI detail.
type fnTable struct {
	viOpenDefaultRM    func(out *viSession) viStatus
	viOpen             func(rm viSession, name string, mode uint16, timeoutMS uint32, out *viSession) viStatus
	viClose            func(vi viSession) viStatus
	viRead             func(vi viSession, buf []byte, count uint32, retCount *uint32) viStatus
	viWrite            func(vi viSession, buf []byte, count uint32, retCount *uint32) viStatus
	viGetAttribute     func(vi viSession, attrID uint32, out *uint64) viStatus
	viSetAttribute     func(vi viSession, attrID uint32, value uint64) viStatus
	// Bound to the same two C symbols as above with a different Go shape:
	// VISA's void* out-parameter is sized by the attribute's registered
	// kind, which attr.KindBytes needs as a char buffer rather than a
	// scalar. purego lets a symbol be registered more than once under
	// distinct Go function signatures.
	viGetAttributeBytes func(vi viSession, attrID uint32, out *[256]byte) viStatus
	viSetAttributeBytes func(vi viSession, attrID uint32, value string) viStatus
	viLock             func(vi viSession, lockType uint16, timeoutMS uint32, requestedKey string, outKey *byte) viStatus
	viUnlock           func(vi viSession) viStatus
	viEnableEvent      func(vi viSession, eventType uint32, mechanism uint16, context uint32) viStatus
	viDisableEvent     func(vi viSession, eventType uint32, mechanism uint16) viStatus
	viDiscardEvents    func(vi viSession, eventType uint32, mechanism uint16) viStatus
	viWaitOnEvent      func(vi viSession, inEventType uint32, timeoutMS uint32, outEventType *uint32, outContext *uint32) viStatus
	viInstallHandler   func(vi viSession, eventType uint32, handler uintptr, userHandle uintptr) viStatus
	viUninstallHandler func(vi viSession, eventType uint32, handler uintptr, userHandle uintptr) viStatus
	viFindRsrc         func(sesn viSession, expr string, findList *uint32, retCount *uint32, desc []byte) viStatus
	viFindNext         func(findList uint32, desc []byte) viStatus
	viClear            func(vi viSession) viStatus
	viReadSTB          func(vi viSession, out *uint16) viStatus
	viGpibCommand      func(vi viSession, cmd []byte, count uint32, retCount *uint32) viStatus
	viGpibControlREN   func(vi viSession, mode uint16) viStatus
	viFlush            func(vi viSession, mask uint16) viStatus
	viUsbControlIn     func(vi viSession, req int16, value, index, length uint16, buf []byte, retCount *uint16) viStatus
	viUsbControlOut    func(vi viSession, req int16, value, index, length uint16, buf []byte) viStatus
	viPeek8            func(vi viSession, addr uint64, out *uint8) viStatus
	viPeek16           func(vi viSession, addr uint64, out *uint16) viStatus
	viPeek32           func(vi viSession, addr uint64, out *uint32) viStatus
	viPeek64           func(vi viSession, addr uint64, out *uint64) viStatus
	viPoke8            func(vi viSession, addr uint64, value uint8) viStatus
	viPoke16           func(vi viSession, addr uint64, value uint16) viStatus
	viPoke32           func(vi viSession, addr uint64, value uint32) viStatus
	viPoke64           func(vi viSession, addr uint64, value uint64) viStatus
	viAssertTrigger    func(vi viSession, protocol uint16) viStatus
}

// binding is the concrete Backend implementation wrapping one open library.
type binding struct {
	lib *libcache.Handle
	fn  fnTable
	cfg backend.Config

	mu        sync.Mutex
	handlers  map[backend.HandlerHandle]registeredHandler
	nextID    backend.HandlerHandle
	rmSession backend.Session
	rmOpened  bool
	released  bool
}

type registeredHandler struct {
	session    backend.Session
	eventType  attr.EventType
	cb         backend.EventCallback
	userHandle uintptr
}

// Open dlopens cfg.LibraryPath (falling back to a platform-default name
// when empty — resolving the exact path is the caller's job per the
// Non-goal excluding "OS-specific shared-library path discovery
// heuristics"; cfg.ExtraPaths is not searched) and returns a Backend
// bound to it.
func Open(cfg backend.Config) (backend.Backend, error) {
	path := cfg.LibraryPath
	if path == "" {
		path = defaultLibraryName()
	}

	handle, err := libcache.Default.Acquire(path, dlopen, dlclose)
	if err != nil {
		return nil, fmt.Errorf("ivi: %w", err)
	}

	b := &binding{lib: handle, cfg: cfg, handlers: make(map[backend.HandlerHandle]registeredHandler)}
	if err := b.registerAll(); err != nil {
		_ = handle.Release()
		return nil, fmt.Errorf("ivi: resolving symbols in %q: %w", path, err)
	}
	return b, nil
}

func defaultLibraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "visa32.dll"
	case "darwin":
		return "/Library/Frameworks/VISA.framework/VISA"
	default:
		return "libvisa.so"
	}
}

func dlopen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func dlclose(handle uintptr) error {
	return purego.Dlclose(handle)
}

// registerAll binds every fnTable field to its named symbol. A real VISA
// library exports all of these; a symbol that's missing surfaces as a
// descriptive error at Open time rather than a panic on first use.
func (b *binding) registerAll() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("symbol registration panicked: %v", r)
		}
	}()
	h := b.lib.Raw
	purego.RegisterLibFunc(&b.fn.viOpenDefaultRM, h, "viOpenDefaultRM")
	purego.RegisterLibFunc(&b.fn.viOpen, h, "viOpen")
	purego.RegisterLibFunc(&b.fn.viClose, h, "viClose")
	purego.RegisterLibFunc(&b.fn.viRead, h, "viRead")
	purego.RegisterLibFunc(&b.fn.viWrite, h, "viWrite")
	purego.RegisterLibFunc(&b.fn.viGetAttribute, h, "viGetAttribute")
	purego.RegisterLibFunc(&b.fn.viSetAttribute, h, "viSetAttribute")
	purego.RegisterLibFunc(&b.fn.viGetAttributeBytes, h, "viGetAttribute")
	purego.RegisterLibFunc(&b.fn.viSetAttributeBytes, h, "viSetAttribute")
	purego.RegisterLibFunc(&b.fn.viLock, h, "viLock")
	purego.RegisterLibFunc(&b.fn.viUnlock, h, "viUnlock")
	purego.RegisterLibFunc(&b.fn.viEnableEvent, h, "viEnableEvent")
	purego.RegisterLibFunc(&b.fn.viDisableEvent, h, "viDisableEvent")
	purego.RegisterLibFunc(&b.fn.viDiscardEvents, h, "viDiscardEvents")
	purego.RegisterLibFunc(&b.fn.viWaitOnEvent, h, "viWaitOnEvent")
	purego.RegisterLibFunc(&b.fn.viInstallHandler, h, "viInstallHandler")
	purego.RegisterLibFunc(&b.fn.viUninstallHandler, h, "viUninstallHandler")
	purego.RegisterLibFunc(&b.fn.viFindRsrc, h, "viFindRsrc")
	purego.RegisterLibFunc(&b.fn.viFindNext, h, "viFindNext")
	purego.RegisterLibFunc(&b.fn.viClear, h, "viClear")
	purego.RegisterLibFunc(&b.fn.viReadSTB, h, "viReadSTB")
	purego.RegisterLibFunc(&b.fn.viGpibCommand, h, "viGpibCommand")
	purego.RegisterLibFunc(&b.fn.viGpibControlREN, h, "viGpibControlREN")
	purego.RegisterLibFunc(&b.fn.viFlush, h, "viFlush")
	purego.RegisterLibFunc(&b.fn.viUsbControlIn, h, "viUsbControlIn")
	purego.RegisterLibFunc(&b.fn.viUsbControlOut, h, "viUsbControlOut")
	purego.RegisterLibFunc(&b.fn.viPeek8, h, "viPeek8")
	purego.RegisterLibFunc(&b.fn.viPeek16, h, "viPeek16")
	purego.RegisterLibFunc(&b.fn.viPeek32, h, "viPeek32")
	purego.RegisterLibFunc(&b.fn.viPeek64, h, "viPeek64")
	purego.RegisterLibFunc(&b.fn.viPoke8, h, "viPoke8")
	purego.RegisterLibFunc(&b.fn.viPoke16, h, "viPoke16")
	purego.RegisterLibFunc(&b.fn.viPoke32, h, "viPoke32")
	purego.RegisterLibFunc(&b.fn.viPoke64, h, "viPoke64")
	purego.RegisterLibFunc(&b.fn.viAssertTrigger, h, "viAssertTrigger")
	return nil
}
