package ivi

import (
	"bytes"

	"govisa/attr"
	"govisa/backend"
	"govisa/visaerr"
)

func status(s viStatus) attr.Status { return attr.Status(s) }

func statusErr(op string, resource string, s viStatus) error {
	if s >= 0 {
		return nil
	}
	return &visaerr.IOError{Op: op, Resource: resource, Status: int32(s)}
}

func (b *binding) OpenDefaultRM() (backend.Session, error) {
	var rm viSession
	s := b.fn.viOpenDefaultRM(&rm)
	if s < 0 {
		return 0, &visaerr.IOError{Op: "open_default_rm", Status: int32(s)}
	}
	session := backend.Session(rm)
	b.mu.Lock()
	b.rmSession = session
	b.rmOpened = true
	b.mu.Unlock()
	return session, nil
}

func (b *binding) Open(rm backend.Session, resourceName string, mode attr.AccessMode, openTimeoutMS int64) (backend.Session, attr.Status, error) {
	var vi viSession
	s := b.fn.viOpen(viSession(rm), resourceName, accessModeBits(mode), uint32(openTimeoutMS), &vi)
	if s < 0 {
		return 0, status(s), &visaerr.IOError{Op: "open", Resource: resourceName, Status: int32(s)}
	}
	return backend.Session(vi), status(s), nil
}

func accessModeBits(mode attr.AccessMode) uint16 {
	switch mode {
	case attr.AccessExclusiveLock:
		return 1
	case attr.AccessSharedLock:
		return 3
	default:
		return 0
	}
}

// Close closes session's viSession. When session is this binding's default
// RM session — closed exactly once, by ResourceManager.Close tearing down
// the binding itself rather than by any individual resource's Close — it
// also releases this binding's library-handle reference, so the foreign
// library is dlclose'd once the last ResourceManager using it lets go.
func (b *binding) Close(session backend.Session) error {
	s := b.fn.viClose(viSession(session))
	err := statusErr("close", "", s)

	b.mu.Lock()
	releaseNow := b.rmOpened && session == b.rmSession && !b.released
	if releaseNow {
		b.released = true
	}
	b.mu.Unlock()

	if releaseNow {
		if relErr := b.lib.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}
	return err
}

func (b *binding) ListResources(rm backend.Session, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "?*::INSTR"
	}
	var findList, count uint32
	desc := make([]byte, 256)
	s := b.fn.viFindRsrc(viSession(rm), pattern, &findList, &count, desc)
	if s < 0 {
		return nil, &visaerr.ResourceNotFound{Pattern: pattern}
	}
	out := make([]string, 0, count)
	out = append(out, cString(desc))
	for i := uint32(1); i < count; i++ {
		desc = make([]byte, 256)
		if s := b.fn.viFindNext(findList, desc); s < 0 {
			break
		}
		out = append(out, cString(desc))
	}
	return out, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func (b *binding) GetAttr(session backend.Session, id attr.ID) (any, error) {
	desc, ok := attr.Lookup(id)
	if !ok {
		return nil, &visaerr.UnsupportedOperation{Op: "get_attr", ResourceKind: "unknown attribute id"}
	}
	vi := viSession(session)
	if desc.Kind == attr.KindBytes {
		var out [256]byte
		if s := b.fn.viGetAttributeBytes(vi, uint32(id), &out); s < 0 {
			return nil, statusErr("get_attr", desc.Name, s)
		}
		return cString(out[:]), nil
	}
	var out uint64
	if s := b.fn.viGetAttribute(vi, uint32(id), &out); s < 0 {
		return nil, statusErr("get_attr", desc.Name, s)
	}
	return out, nil
}

func (b *binding) SetAttr(session backend.Session, id attr.ID, value any) error {
	desc, ok := attr.Lookup(id)
	if !ok {
		return &visaerr.UnsupportedOperation{Op: "set_attr", ResourceKind: "unknown attribute id"}
	}
	vi := viSession(session)
	if desc.Kind == attr.KindBytes {
		str, _ := value.(string)
		return statusErr("set_attr", desc.Name, b.fn.viSetAttributeBytes(vi, uint32(id), str))
	}
	return statusErr("set_attr", desc.Name, b.fn.viSetAttribute(vi, uint32(id), toUint64(value)))
}

func toUint64(v any) uint64 {
	switch x := v.(type) {
	case uint64:
		return x
	case int64:
		return uint64(x)
	case int:
		return uint64(x)
	case uint32:
		return uint64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case byte:
		return uint64(x)
	default:
		return 0
	}
}

func (b *binding) Lock(session backend.Session, kind attr.LockKind, timeoutMS int64, requestedKey string) (string, error) {
	lockType := uint16(1)
	if kind == attr.LockShared {
		lockType = 3
	}
	outKey := make([]byte, 256)
	s := b.fn.viLock(viSession(session), lockType, uint32(timeoutMS), requestedKey, &outKey[0])
	if s < 0 {
		return "", &visaerr.ResourceBusy{}
	}
	return cString(outKey), nil
}

func (b *binding) Unlock(session backend.Session) error {
	return statusErr("unlock", "", b.fn.viUnlock(viSession(session)))
}

func (b *binding) Read(session backend.Session, count int) ([]byte, attr.Status, error) {
	buf := make([]byte, count)
	var n uint32
	s := b.fn.viRead(viSession(session), buf, uint32(count), &n)
	if s < 0 {
		return nil, status(s), &visaerr.IOError{Op: "read", Status: int32(s), Bytes: int(n)}
	}
	return buf[:n], status(s), nil
}

func (b *binding) Write(session backend.Session, data []byte) (int, attr.Status, error) {
	var n uint32
	s := b.fn.viWrite(viSession(session), data, uint32(len(data)), &n)
	if s < 0 {
		return int(n), status(s), &visaerr.IOError{Op: "write", Status: int32(s), Bytes: int(n)}
	}
	return int(n), status(s), nil
}

func (b *binding) EnableEvent(session backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return statusErr("enable_event", "", b.fn.viEnableEvent(viSession(session), uint32(eventType), uint16(mechanism), 0))
}

func (b *binding) DisableEvent(session backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return statusErr("disable_event", "", b.fn.viDisableEvent(viSession(session), uint32(eventType), uint16(mechanism)))
}

func (b *binding) DiscardEvents(session backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return statusErr("discard_events", "", b.fn.viDiscardEvents(viSession(session), uint32(eventType), uint16(mechanism)))
}

func (b *binding) WaitOnEvent(session backend.Session, eventType attr.EventType, timeoutMS int64) (backend.WaitResult, error) {
	var outType, outContext uint32
	s := b.fn.viWaitOnEvent(viSession(session), uint32(eventType), uint32(timeoutMS), &outType, &outContext)
	if s == int32(attr.StatusErrorTimeout) {
		return backend.WaitResult{EventType: eventType, TimedOut: true}, nil
	}
	if s < 0 {
		return backend.WaitResult{}, &visaerr.IOError{Op: "wait_on_event", Status: int32(s)}
	}
	return backend.WaitResult{EventType: attr.EventType(outType), Context: uintptr(outContext)}, nil
}

func (b *binding) AssertTrigger(session backend.Session, protocol int) error {
	return statusErr("assert_trigger", "", b.fn.viAssertTrigger(viSession(session), uint16(protocol)))
}

func (b *binding) Clear(session backend.Session) error {
	return statusErr("clear", "", b.fn.viClear(viSession(session)))
}

func (b *binding) ReadSTB(session backend.Session) (byte, error) {
	var out uint16
	if s := b.fn.viReadSTB(viSession(session), &out); s < 0 {
		return 0, statusErr("read_stb", "", s)
	}
	return byte(out), nil
}

func (b *binding) GPIBCommand(session backend.Session, cmd []byte) (int, error) {
	var n uint32
	s := b.fn.viGpibCommand(viSession(session), cmd, uint32(len(cmd)), &n)
	return int(n), statusErr("gpib_command", "", s)
}

func (b *binding) GPIBControlREN(session backend.Session, mode int) error {
	return statusErr("gpib_control_ren", "", b.fn.viGpibControlREN(viSession(session), uint16(mode)))
}

func (b *binding) Flush(session backend.Session, mask int) error {
	return statusErr("flush", "", b.fn.viFlush(viSession(session), uint16(mask)))
}

func (b *binding) USBControlIn(session backend.Session, request, value, index, length int) ([]byte, error) {
	buf := make([]byte, length)
	var n uint16
	s := b.fn.viUsbControlIn(viSession(session), int16(request), uint16(value), uint16(index), uint16(length), buf, &n)
	if s < 0 {
		return nil, statusErr("usb_control_in", "", s)
	}
	return buf[:n], nil
}

func (b *binding) USBControlOut(session backend.Session, request, value, index int, data []byte) error {
	return statusErr("usb_control_out", "", b.fn.viUsbControlOut(viSession(session), int16(request), uint16(value), uint16(index), uint16(len(data)), data))
}

func (b *binding) Peek8(session backend.Session, address uintptr) (uint8, error) {
	var out uint8
	s := b.fn.viPeek8(viSession(session), uint64(address), &out)
	return out, statusErr("peek8", "", s)
}

func (b *binding) Peek16(session backend.Session, address uintptr) (uint16, error) {
	var out uint16
	s := b.fn.viPeek16(viSession(session), uint64(address), &out)
	return out, statusErr("peek16", "", s)
}

func (b *binding) Peek32(session backend.Session, address uintptr) (uint32, error) {
	var out uint32
	s := b.fn.viPeek32(viSession(session), uint64(address), &out)
	return out, statusErr("peek32", "", s)
}

func (b *binding) Peek64(session backend.Session, address uintptr) (uint64, error) {
	var out uint64
	s := b.fn.viPeek64(viSession(session), uint64(address), &out)
	return out, statusErr("peek64", "", s)
}

func (b *binding) Poke8(session backend.Session, address uintptr, value uint8) error {
	return statusErr("poke8", "", b.fn.viPoke8(viSession(session), uint64(address), value))
}

func (b *binding) Poke16(session backend.Session, address uintptr, value uint16) error {
	return statusErr("poke16", "", b.fn.viPoke16(viSession(session), uint64(address), value))
}

func (b *binding) Poke32(session backend.Session, address uintptr, value uint32) error {
	return statusErr("poke32", "", b.fn.viPoke32(viSession(session), uint64(address), value))
}

func (b *binding) Poke64(session backend.Session, address uintptr, value uint64) error {
	return statusErr("poke64", "", b.fn.viPoke64(viSession(session), uint64(address), value))
}
