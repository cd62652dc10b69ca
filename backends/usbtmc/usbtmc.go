// Package usbtmc is an example alternative backend.Backend implementation
// (spec §1 Non-goals: "alternative pure-software backends are clients of
// backend.Backend, not part of the core"): it talks directly to a USB-TMC
// instrument over the karalabe/usb HID-style transport instead of a
// vendor VISA shared library, standing in for the USB-INSTR/USB-RAW
// resource classes (spec §6).
//
// It registers itself as backend "usbtmc"; a caller opts in with
// `USB0::0x1234::0x5678::SN123::INSTR@usbtmc`.
package usbtmc

import (
	"strconv"
	"sync"

	"github.com/karalabe/usb"

	"govisa/attr"
	"govisa/backend"
	"govisa/resourcename"
	"govisa/visaerr"
)

func init() {
	backend.Register("usbtmc", Open)
}

// Open constructs a usbtmc-backed Backend. cfg is accepted for interface
// symmetry with backend.OpenFunc; this backend needs no library path.
func Open(cfg backend.Config) (backend.Backend, error) {
	return &binding{sessions: make(map[backend.Session]*session)}, nil
}

type session struct {
	dev    usb.Device
	record *resourcename.Record
	rm     bool // true for the resource-manager pseudo-session
}

type binding struct {
	mu       sync.Mutex
	sessions map[backend.Session]*session
	nextID   backend.Session
}

func (b *binding) OpenDefaultRM() (backend.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.sessions[b.nextID] = &session{rm: true}
	return b.nextID, nil
}

func (b *binding) Open(rm backend.Session, resourceName string, mode attr.AccessMode, openTimeoutMS int64) (backend.Session, attr.Status, error) {
	trimmed, _ := backend.SplitSelector(resourceName)
	rec, err := resourcename.Parse(trimmed)
	if err != nil {
		return 0, attr.StatusErrorRsrcNFound, err
	}
	if rec.InterfaceType != attr.USB {
		return 0, attr.StatusErrorRsrcNFound, &visaerr.ResourceNotFound{Pattern: resourceName}
	}

	infos, err := usb.Enumerate(uint16(rec.ManufacturerID), uint16(rec.ModelCode))
	if err != nil {
		return 0, attr.StatusErrorRsrcNFound, &visaerr.IOError{Op: "open", Resource: resourceName, Status: int32(attr.StatusErrorRsrcNFound)}
	}
	var match *usb.DeviceInfo
	for i := range infos {
		if rec.SerialNumber == "" || infos[i].Serial == rec.SerialNumber {
			match = &infos[i]
			break
		}
	}
	if match == nil {
		return 0, attr.StatusErrorRsrcNFound, &visaerr.ResourceNotFound{Pattern: resourceName}
	}
	dev, err := match.Open()
	if err != nil {
		return 0, attr.StatusErrorIO, &visaerr.IOError{Op: "open", Resource: resourceName, Status: int32(attr.StatusErrorIO)}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.sessions[id] = &session{dev: dev, record: rec}
	return id, attr.StatusSuccess, nil
}

func (b *binding) getSession(s backend.Session) (*session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sess, ok := b.sessions[s]
	if !ok {
		return nil, &visaerr.InvalidSession{Session: uint64(s)}
	}
	return sess, nil
}

func (b *binding) Close(s backend.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sess, ok := b.sessions[s]
	if !ok {
		return nil // spec §8 law 4: double-close is a silent no-op
	}
	delete(b.sessions, s)
	if sess.dev != nil {
		return sess.dev.Close()
	}
	return nil
}

func (b *binding) ListResources(rm backend.Session, pattern string) ([]string, error) {
	infos, err := usb.Enumerate(0, 0)
	if err != nil {
		return nil, &visaerr.ResourceNotFound{Pattern: pattern}
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, "USB0::0x"+strconv.FormatUint(uint64(info.VendorID), 16)+
			"::0x"+strconv.FormatUint(uint64(info.ProductID), 16)+
			"::"+info.Serial+"::INSTR")
	}
	return out, nil
}

func (b *binding) Read(s backend.Session, count int) ([]byte, attr.Status, error) {
	sess, err := b.getSession(s)
	if err != nil {
		return nil, attr.StatusErrorInvObject, err
	}
	buf := make([]byte, count)
	n, err := sess.dev.Read(buf)
	if err != nil {
		return nil, attr.StatusErrorIO, &visaerr.IOError{Op: "read", Status: int32(attr.StatusErrorIO), Bytes: n}
	}
	return buf[:n], attr.StatusSuccess, nil
}

func (b *binding) Write(s backend.Session, data []byte) (int, attr.Status, error) {
	sess, err := b.getSession(s)
	if err != nil {
		return 0, attr.StatusErrorInvObject, err
	}
	n, err := sess.dev.Write(data)
	if err != nil {
		return n, attr.StatusErrorIO, &visaerr.IOError{Op: "write", Status: int32(attr.StatusErrorIO), Bytes: n}
	}
	return n, attr.StatusSuccess, nil
}

func (b *binding) GetAttr(s backend.Session, id attr.ID) (any, error) {
	sess, err := b.getSession(s)
	if err != nil {
		return nil, err
	}
	switch id {
	case attr.AttrUSBManufacturerID:
		return uint64(sess.record.ManufacturerID), nil
	case attr.AttrUSBModelCode:
		return uint64(sess.record.ModelCode), nil
	case attr.AttrUSBSerialNumber:
		return sess.record.SerialNumber, nil
	case attr.AttrResourceClass:
		return sess.record.ResourceClass.String(), nil
	default:
		return nil, &visaerr.UnsupportedOperation{Op: "get_attr", ResourceKind: "usbtmc"}
	}
}

func (b *binding) SetAttr(s backend.Session, id attr.ID, value any) error {
	return &visaerr.UnsupportedOperation{Op: "set_attr", ResourceKind: "usbtmc"}
}

func (b *binding) Lock(s backend.Session, kind attr.LockKind, timeoutMS int64, requestedKey string) (string, error) {
	return requestedKey, nil // single-process client: cooperative locking is a no-op
}

func (b *binding) Unlock(s backend.Session) error { return nil }

func (b *binding) EnableEvent(s backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return &visaerr.UnsupportedOperation{Op: "enable_event", ResourceKind: "usbtmc"}
}
func (b *binding) DisableEvent(s backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return &visaerr.UnsupportedOperation{Op: "disable_event", ResourceKind: "usbtmc"}
}
func (b *binding) DiscardEvents(s backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return &visaerr.UnsupportedOperation{Op: "discard_events", ResourceKind: "usbtmc"}
}
func (b *binding) WaitOnEvent(s backend.Session, eventType attr.EventType, timeoutMS int64) (backend.WaitResult, error) {
	return backend.WaitResult{EventType: eventType, TimedOut: true}, nil
}
func (b *binding) InstallHandler(s backend.Session, eventType attr.EventType, cb backend.EventCallback, userHandle uintptr) (backend.HandlerHandle, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "install_handler", ResourceKind: "usbtmc"}
}
func (b *binding) UninstallHandler(s backend.Session, eventType attr.EventType, handle backend.HandlerHandle) error {
	return &visaerr.UnsupportedOperation{Op: "uninstall_handler", ResourceKind: "usbtmc"}
}

func (b *binding) AssertTrigger(s backend.Session, protocol int) error {
	return &visaerr.UnsupportedOperation{Op: "assert_trigger", ResourceKind: "usbtmc"}
}
func (b *binding) Clear(s backend.Session) error {
	sess, err := b.getSession(s)
	if err != nil {
		return err
	}
	// USBTMC INITIATE_CLEAR is request type 0xA1, bRequest 5 per the
	// USBTMC 1.0 spec; expressed here via the generic control transfer.
	_, err = b.USBControlIn(s, 5, 0, 0, 1)
	_ = sess
	return err
}
func (b *binding) ReadSTB(s backend.Session) (byte, error) {
	buf, err := b.USBControlIn(s, 0x128, 0, 0, 3)
	if err != nil || len(buf) < 2 {
		return 0, err
	}
	return buf[1], nil
}
func (b *binding) GPIBCommand(s backend.Session, cmd []byte) (int, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "gpib_command", ResourceKind: "usbtmc"}
}
func (b *binding) GPIBControlREN(s backend.Session, mode int) error {
	return &visaerr.UnsupportedOperation{Op: "gpib_control_ren", ResourceKind: "usbtmc"}
}
func (b *binding) Flush(s backend.Session, mask int) error { return nil }

func (b *binding) USBControlIn(s backend.Session, request, value, index, length int) ([]byte, error) {
	sess, err := b.getSession(s)
	if err != nil {
		return nil, err
	}
	if ctrl, ok := sess.dev.(interface {
		ControlIn(request, value, index, length int) ([]byte, error)
	}); ok {
		return ctrl.ControlIn(request, value, index, length)
	}
	return nil, &visaerr.UnsupportedOperation{Op: "usb_control_in", ResourceKind: "usbtmc device without control transport"}
}

func (b *binding) USBControlOut(s backend.Session, request, value, index int, data []byte) error {
	sess, err := b.getSession(s)
	if err != nil {
		return err
	}
	if ctrl, ok := sess.dev.(interface {
		ControlOut(request, value, index int, data []byte) error
	}); ok {
		return ctrl.ControlOut(request, value, index, data)
	}
	return &visaerr.UnsupportedOperation{Op: "usb_control_out", ResourceKind: "usbtmc device without control transport"}
}

func (b *binding) Peek8(s backend.Session, address uintptr) (uint8, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "peek8", ResourceKind: "usbtmc"}
}
func (b *binding) Peek16(s backend.Session, address uintptr) (uint16, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "peek16", ResourceKind: "usbtmc"}
}
func (b *binding) Peek32(s backend.Session, address uintptr) (uint32, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "peek32", ResourceKind: "usbtmc"}
}
func (b *binding) Peek64(s backend.Session, address uintptr) (uint64, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "peek64", ResourceKind: "usbtmc"}
}
func (b *binding) Poke8(s backend.Session, address uintptr, value uint8) error {
	return &visaerr.UnsupportedOperation{Op: "poke8", ResourceKind: "usbtmc"}
}
func (b *binding) Poke16(s backend.Session, address uintptr, value uint16) error {
	return &visaerr.UnsupportedOperation{Op: "poke16", ResourceKind: "usbtmc"}
}
func (b *binding) Poke32(s backend.Session, address uintptr, value uint32) error {
	return &visaerr.UnsupportedOperation{Op: "poke32", ResourceKind: "usbtmc"}
}
func (b *binding) Poke64(s backend.Session, address uintptr, value uint64) error {
	return &visaerr.UnsupportedOperation{Op: "poke64", ResourceKind: "usbtmc"}
}
