// Package serialport is an example alternative backend.Backend
// implementation (spec §1 Non-goals: "alternative pure-software backends
// are clients of backend.Backend, not part of the core"): it talks to a
// raw OS serial device through termios ioctls instead of a vendor VISA
// shared library, standing in for the ASRL/INSTR resource class (spec §6)
// on a machine with no VISA runtime installed at all.
//
// Line discipline setup is grounded on the teacher pack's
// Daedaluz-goserial Port type (port_linux.go): open with O_NOCTTY, put the
// fd in raw mode, then drive baud/data-bits/parity/stop-bits/flow-control
// through golang.org/x/sys/unix's Termios ioctls rather than a bespoke
// cgo wrapper.
//
// It registers itself as backend "serialport"; a caller opts in with
// `ASRL0::INSTR@serialport` (board number N opens /dev/ttyS<N>; there is
// no configurable board-to-device table) or the device-path alias form
// `/dev/ttyUSB0::INSTR@serialport`.
package serialport

import (
	"sync"

	"golang.org/x/sys/unix"

	"govisa/attr"
	"govisa/backend"
	"govisa/resourcename"
	"govisa/visaerr"
)

func init() {
	backend.Register("serialport", Open)
}

// Open constructs a serialport-backed Backend. cfg is accepted for
// interface symmetry with backend.OpenFunc; this backend needs no
// library path.
func Open(cfg backend.Config) (backend.Backend, error) {
	return &binding{sessions: make(map[backend.Session]*session)}, nil
}

type session struct {
	fd     int
	record *resourcename.Record
	path   string
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

// devicePath resolves an ASRL board number or alias to an OS device path.
// Board 0 conventionally maps to /dev/ttyS0 on Linux; an alias (COM3,
// /dev/tty0, ...) from resourcename.Record.BoardAlias is used verbatim,
// matching the teacher's ASRLAliasPreserved handling in the resource-name
// grammar.
func devicePath(rec *resourcename.Record) string {
	if rec.BoardIsAlias {
		return rec.BoardAlias
	}
	return "/dev/ttyS" + itoa(rec.Board)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (b *binding) Open(rm backend.Session, resourceName string, mode attr.AccessMode, openTimeoutMS int64) (backend.Session, attr.Status, error) {
	trimmed, _ := backend.SplitSelector(resourceName)
	rec, err := resourcename.Parse(trimmed)
	if err != nil {
		return 0, attr.StatusErrorRsrcNFound, err
	}
	if rec.InterfaceType != attr.ASRL {
		return 0, attr.StatusErrorRsrcNFound, &visaerr.ResourceNotFound{Pattern: resourceName}
	}

	path := devicePath(rec)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return 0, attr.StatusErrorRsrcNFound, &visaerr.ResourceNotFound{Pattern: resourceName}
	}
	if err := makeRaw(fd); err != nil {
		unix.Close(fd)
		return 0, attr.StatusErrorIO, &visaerr.IOError{Op: "open", Resource: resourceName, Status: int32(attr.StatusErrorIO)}
	}
	if err := applyDefaults(fd); err != nil {
		unix.Close(fd)
		return 0, attr.StatusErrorIO, &visaerr.IOError{Op: "open", Resource: resourceName, Status: int32(attr.StatusErrorIO)}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.sessions[id] = &session{fd: fd, record: rec, path: path}
	return id, attr.StatusSuccess, nil
}

// makeRaw clears the cooked-mode input/output/local-mode bits the same
// way Daedaluz-goserial's Termios.MakeRaw does, so reads return exactly
// the bytes the instrument sent rather than a line-buffered, echo- and
// signal-processed stream.
func makeRaw(fd int) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	// Non-canonical read: return as soon as at least one byte is
	// available rather than blocking for a full line.
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

func applyDefaults(fd int) error {
	return setAttrs(fd, 9600, 8, attr.StopBitsOne, attr.ParityNone, attr.FlowNone)
}

// baudConstant maps a caller-requested bit rate to the termios CBAUD
// encoding. Only the common lab-instrument rates are enumerated; an
// unrecognized rate falls back to B9600 rather than attempting the
// Linux-specific BOTHER/custom-divisor path, which is out of scope here.
func baudConstant(baud uint64) uint32 {
	switch baud {
	case 1200:
		return unix.B1200
	case 2400:
		return unix.B2400
	case 4800:
		return unix.B4800
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	case 230400:
		return unix.B230400
	default:
		return unix.B9600
	}
}

func dataBitsConstant(bits uint64) uint32 {
	switch bits {
	case 5:
		return unix.CS5
	case 6:
		return unix.CS6
	case 7:
		return unix.CS7
	default:
		return unix.CS8
	}
}

func setAttrs(fd int, baud uint64, dataBits uint64, stop attr.StopBits, parity attr.Parity, flow attr.FlowControl) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	t.Cflag &^= unix.CBAUD
	t.Cflag |= baudConstant(baud)

	t.Cflag &^= unix.CSIZE
	t.Cflag |= dataBitsConstant(dataBits)

	if stop == attr.StopBitsTwo || stop == attr.StopBitsOneAndHalf {
		t.Cflag |= unix.CSTOPB
	} else {
		t.Cflag &^= unix.CSTOPB
	}

	switch parity {
	case attr.ParityNone:
		t.Cflag &^= unix.PARENB | unix.PARODD | unix.CMSPAR
	case attr.ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
		t.Cflag &^= unix.CMSPAR
	case attr.ParityEven:
		t.Cflag |= unix.PARENB
		t.Cflag &^= unix.PARODD | unix.CMSPAR
	case attr.ParityMark:
		t.Cflag |= unix.PARENB | unix.PARODD | unix.CMSPAR
	case attr.ParitySpace:
		t.Cflag |= unix.PARENB | unix.CMSPAR
		t.Cflag &^= unix.PARODD
	}

	if flow&attr.FlowRTSCTS != 0 {
		t.Cflag |= unix.CRTSCTS
	} else {
		t.Cflag &^= unix.CRTSCTS
	}
	if flow&attr.FlowXonXoff != 0 {
		t.Iflag |= unix.IXON | unix.IXOFF
	} else {
		t.Iflag &^= unix.IXON | unix.IXOFF
	}

	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
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
	if sess.fd != 0 {
		return unix.Close(sess.fd)
	}
	return nil
}

func (b *binding) ListResources(rm backend.Session, pattern string) ([]string, error) {
	// Enumerating every plausible tty device is out of scope: the
	// standard ASRL boards (0-3) are reported unconditionally and the
	// caller's existing-file check on Open filters the rest.
	return []string{"ASRL0::INSTR", "ASRL1::INSTR", "ASRL2::INSTR", "ASRL3::INSTR"}, nil
}

func (b *binding) Read(s backend.Session, count int) ([]byte, attr.Status, error) {
	sess, err := b.getSession(s)
	if err != nil {
		return nil, attr.StatusErrorInvObject, err
	}
	buf := make([]byte, count)
	n, err := unix.Read(sess.fd, buf)
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
	n, err := unix.Write(sess.fd, data)
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
	t, err := unix.IoctlGetTermios(sess.fd, unix.TCGETS)
	if err != nil {
		return nil, &visaerr.IOError{Op: "get_attr", Status: int32(attr.StatusErrorIO)}
	}
	switch id {
	case attr.AttrASRLDataBits:
		switch t.Cflag & unix.CSIZE {
		case unix.CS5:
			return uint64(5), nil
		case unix.CS6:
			return uint64(6), nil
		case unix.CS7:
			return uint64(7), nil
		default:
			return uint64(8), nil
		}
	case attr.AttrASRLStopBits:
		if t.Cflag&unix.CSTOPB != 0 {
			return uint64(attr.StopBitsTwo), nil
		}
		return uint64(attr.StopBitsOne), nil
	case attr.AttrASRLParity:
		if t.Cflag&unix.PARENB == 0 {
			return uint64(attr.ParityNone), nil
		}
		if t.Cflag&unix.PARODD != 0 {
			return uint64(attr.ParityOdd), nil
		}
		return uint64(attr.ParityEven), nil
	case attr.AttrASRLFlowControl:
		var flow attr.FlowControl
		if t.Cflag&unix.CRTSCTS != 0 {
			flow |= attr.FlowRTSCTS
		}
		if t.Iflag&unix.IXON != 0 {
			flow |= attr.FlowXonXoff
		}
		return uint64(flow), nil
	case attr.AttrResourceClass:
		return sess.record.ResourceClass.String(), nil
	default:
		return nil, &visaerr.UnsupportedOperation{Op: "get_attr", ResourceKind: "serialport"}
	}
}

func (b *binding) SetAttr(s backend.Session, id attr.ID, value any) error {
	sess, err := b.getSession(s)
	if err != nil {
		return err
	}
	t, err := unix.IoctlGetTermios(sess.fd, unix.TCGETS)
	if err != nil {
		return &visaerr.IOError{Op: "set_attr", Status: int32(attr.StatusErrorIO)}
	}
	switch id {
	case attr.AttrASRLBaud:
		t.Cflag &^= unix.CBAUD
		t.Cflag |= baudConstant(toUint64(value))
	case attr.AttrASRLDataBits:
		t.Cflag &^= unix.CSIZE
		t.Cflag |= dataBitsConstant(toUint64(value))
	case attr.AttrASRLStopBits:
		if attr.StopBits(toUint64(value)) == attr.StopBitsTwo || attr.StopBits(toUint64(value)) == attr.StopBitsOneAndHalf {
			t.Cflag |= unix.CSTOPB
		} else {
			t.Cflag &^= unix.CSTOPB
		}
	case attr.AttrASRLParity:
		switch attr.Parity(toUint64(value)) {
		case attr.ParityNone:
			t.Cflag &^= unix.PARENB | unix.PARODD
		case attr.ParityOdd:
			t.Cflag |= unix.PARENB | unix.PARODD
		case attr.ParityEven:
			t.Cflag |= unix.PARENB
			t.Cflag &^= unix.PARODD
		default:
			return &visaerr.UnsupportedOperation{Op: "set_attr", ResourceKind: "serialport mark/space parity"}
		}
	case attr.AttrASRLFlowControl:
		flow := attr.FlowControl(toUint64(value))
		if flow&attr.FlowRTSCTS != 0 {
			t.Cflag |= unix.CRTSCTS
		} else {
			t.Cflag &^= unix.CRTSCTS
		}
		if flow&attr.FlowXonXoff != 0 {
			t.Iflag |= unix.IXON | unix.IXOFF
		} else {
			t.Iflag &^= unix.IXON | unix.IXOFF
		}
	default:
		return &visaerr.UnsupportedOperation{Op: "set_attr", ResourceKind: "serialport"}
	}
	return unix.IoctlSetTermios(sess.fd, unix.TCSETS, t)
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
	default:
		return 0
	}
}

func (b *binding) Lock(s backend.Session, kind attr.LockKind, timeoutMS int64, requestedKey string) (string, error) {
	return requestedKey, nil // single-process client: cooperative locking is a no-op
}

func (b *binding) Unlock(s backend.Session) error { return nil }

func (b *binding) EnableEvent(s backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return &visaerr.UnsupportedOperation{Op: "enable_event", ResourceKind: "serialport"}
}
func (b *binding) DisableEvent(s backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return &visaerr.UnsupportedOperation{Op: "disable_event", ResourceKind: "serialport"}
}
func (b *binding) DiscardEvents(s backend.Session, eventType attr.EventType, mechanism attr.EventMechanism) error {
	return &visaerr.UnsupportedOperation{Op: "discard_events", ResourceKind: "serialport"}
}
func (b *binding) WaitOnEvent(s backend.Session, eventType attr.EventType, timeoutMS int64) (backend.WaitResult, error) {
	return backend.WaitResult{EventType: eventType, TimedOut: true}, nil
}
func (b *binding) InstallHandler(s backend.Session, eventType attr.EventType, cb backend.EventCallback, userHandle uintptr) (backend.HandlerHandle, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "install_handler", ResourceKind: "serialport"}
}
func (b *binding) UninstallHandler(s backend.Session, eventType attr.EventType, handle backend.HandlerHandle) error {
	return &visaerr.UnsupportedOperation{Op: "uninstall_handler", ResourceKind: "serialport"}
}

func (b *binding) AssertTrigger(s backend.Session, protocol int) error {
	return &visaerr.UnsupportedOperation{Op: "assert_trigger", ResourceKind: "serialport"}
}

func (b *binding) Clear(s backend.Session) error {
	sess, err := b.getSession(s)
	if err != nil {
		return err
	}
	return unix.IoctlSetInt(sess.fd, unix.TCFLSH, unix.TCIOFLUSH)
}

func (b *binding) ReadSTB(s backend.Session) (byte, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "read_stb", ResourceKind: "serialport"}
}
func (b *binding) GPIBCommand(s backend.Session, cmd []byte) (int, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "gpib_command", ResourceKind: "serialport"}
}
func (b *binding) GPIBControlREN(s backend.Session, mode int) error {
	return &visaerr.UnsupportedOperation{Op: "gpib_control_ren", ResourceKind: "serialport"}
}

func (b *binding) Flush(s backend.Session, mask int) error {
	sess, err := b.getSession(s)
	if err != nil {
		return err
	}
	return unix.IoctlSetInt(sess.fd, unix.TCFLSH, unix.TCIOFLUSH)
}

func (b *binding) USBControlIn(s backend.Session, request, value, index, length int) ([]byte, error) {
	return nil, &visaerr.UnsupportedOperation{Op: "usb_control_in", ResourceKind: "serialport"}
}
func (b *binding) USBControlOut(s backend.Session, request, value, index int, data []byte) error {
	return &visaerr.UnsupportedOperation{Op: "usb_control_out", ResourceKind: "serialport"}
}

func (b *binding) Peek8(s backend.Session, address uintptr) (uint8, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "peek8", ResourceKind: "serialport"}
}
func (b *binding) Peek16(s backend.Session, address uintptr) (uint16, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "peek16", ResourceKind: "serialport"}
}
func (b *binding) Peek32(s backend.Session, address uintptr) (uint32, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "peek32", ResourceKind: "serialport"}
}
func (b *binding) Peek64(s backend.Session, address uintptr) (uint64, error) {
	return 0, &visaerr.UnsupportedOperation{Op: "peek64", ResourceKind: "serialport"}
}
func (b *binding) Poke8(s backend.Session, address uintptr, value uint8) error {
	return &visaerr.UnsupportedOperation{Op: "poke8", ResourceKind: "serialport"}
}
func (b *binding) Poke16(s backend.Session, address uintptr, value uint16) error {
	return &visaerr.UnsupportedOperation{Op: "poke16", ResourceKind: "serialport"}
}
func (b *binding) Poke32(s backend.Session, address uintptr, value uint32) error {
	return &visaerr.UnsupportedOperation{Op: "poke32", ResourceKind: "serialport"}
}
func (b *binding) Poke64(s backend.Session, address uintptr, value uint64) error {
	return &visaerr.UnsupportedOperation{Op: "poke64", ResourceKind: "serialport"}
}
