// Package attr holds the process-wide, immutable constant enumerations and
// VISA attribute descriptors that the rest of govisa is built on (spec
// component A). Nothing in this package is resource-specific: it is pure
// data, looked up by the higher layers via compile-time-known ids.
package attr

// InterfaceType identifies the bus family a resource belongs to.
type InterfaceType int

const (
	GPIB InterfaceType = iota + 1
	ASRL
	TCPIP
	USB
	VXI
	PXI
	// VICP's canonical VISA interface-type numeric value was undocumented
	// in the source this spec was distilled from (see spec.md §9 Open
	// Questions). We pick the next free slot in our own enumeration.
	// backend.Config carries a VICPInterface field for a vendor-specific
	// value, but no backend in this module reads it: VICP resources always
	// report this constant.
	VICP
	Firewire
)

func (t InterfaceType) String() string {
	switch t {
	case GPIB:
		return "GPIB"
	case ASRL:
		return "ASRL"
	case TCPIP:
		return "TCPIP"
	case USB:
		return "USB"
	case VXI:
		return "VXI"
	case PXI:
		return "PXI"
	case VICP:
		return "VICP"
	case Firewire:
		return "FIREWIRE"
	default:
		return "UNKNOWN"
	}
}

// ParseInterfaceType is case-insensitive by construction: callers upper-case
// the token before calling this (resourcename does so once for the whole
// string), matching the grammar's case-insensitivity rule.
func ParseInterfaceType(s string) (InterfaceType, bool) {
	switch s {
	case "GPIB":
		return GPIB, true
	case "ASRL":
		return ASRL, true
	case "TCPIP":
		return TCPIP, true
	case "USB":
		return USB, true
	case "VXI":
		return VXI, true
	case "PXI":
		return PXI, true
	case "VICP":
		return VICP, true
	case "FIREWIRE":
		return Firewire, true
	default:
		return 0, false
	}
}

// ResourceClass is the kind suffix of a resource name (spec §6).
type ResourceClass int

const (
	ClassInstr ResourceClass = iota + 1
	ClassIntfc
	ClassBackplane
	ClassMemacc
	ClassServant
	ClassSocket
	ClassRaw
)

func (c ResourceClass) String() string {
	switch c {
	case ClassInstr:
		return "INSTR"
	case ClassIntfc:
		return "INTFC"
	case ClassBackplane:
		return "BACKPLANE"
	case ClassMemacc:
		return "MEMACC"
	case ClassServant:
		return "SERVANT"
	case ClassSocket:
		return "SOCKET"
	case ClassRaw:
		return "RAW"
	default:
		return "UNKNOWN"
	}
}

func ParseResourceClass(s string) (ResourceClass, bool) {
	switch s {
	case "INSTR":
		return ClassInstr, true
	case "INTFC":
		return ClassIntfc, true
	case "BACKPLANE":
		return ClassBackplane, true
	case "MEMACC":
		return ClassMemacc, true
	case "SERVANT":
		return ClassServant, true
	case "SOCKET":
		return ClassSocket, true
	case "RAW":
		return ClassRaw, true
	default:
		return 0, false
	}
}

// Parity mirrors the serial-line parity settings of SerialInstrument.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// StopBits enumerates the legal stop-bit counts; 1.5 is represented as its
// own value since Go has no fractional enum member.
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsOneAndHalf
	StopBitsTwo
)

// FlowControl is a bit-flag set; more than one bit may be set at once.
type FlowControl uint32

const (
	FlowNone    FlowControl = 0
	FlowXonXoff FlowControl = 1 << 0
	FlowRTSCTS  FlowControl = 1 << 1
	FlowDTRDSR  FlowControl = 1 << 2
)

// EndInput selects how a SerialInstrument decides an inbound message ended.
type EndInput int

const (
	EndInputTermChar EndInput = iota
	EndInputLastBit
)

// AccessMode mirrors VISA's open() access modes.
type AccessMode int

const (
	AccessNoLock AccessMode = iota
	AccessExclusiveLock
	AccessSharedLock
)

// LockKind is the kind of cooperative lock a resource can hold.
type LockKind int

const (
	LockExclusive LockKind = iota
	LockShared
)

// EventType enumerates the VISA event types the event subsystem supports.
type EventType int

const (
	EventServiceRequest EventType = iota + 1
	EventIOCompletion
	EventTrigger
	EventException
	EventClear
	EventGPIBCICProtocolError
	EventUnknown
)

func (t EventType) String() string {
	switch t {
	case EventServiceRequest:
		return "service_request"
	case EventIOCompletion:
		return "io_completion"
	case EventTrigger:
		return "trigger"
	case EventException:
		return "exception"
	case EventClear:
		return "clear"
	case EventGPIBCICProtocolError:
		return "gpib_cic_protocol_error"
	default:
		return "unknown"
	}
}

// EventMechanism selects how an enabled event is delivered.
type EventMechanism int

const (
	MechanismQueue EventMechanism = iota
	MechanismHandler
	MechanismAll
)

// Status is the VISA status-code space (spec §6): non-negative is success
// or a warning, negative is an error. We keep the handful the core actually
// produces or interprets; unknown codes still round-trip through the
// backend unchanged.
type Status int32

const (
	StatusSuccess            Status = 0
	StatusSuccessMaxCount     Status = 0x3FFF0006
	StatusSuccessEventDisabled Status = 0x3FFF0036
	StatusSuccessTermChar     Status = 0x3FFF0005
	StatusSuccessSyncNotDone  Status = 0x3FFF0020

	StatusErrorTimeout       Status = -1073807339 // VI_ERROR_TMO
	StatusErrorInvObject     Status = -1073807346 // VI_ERROR_INV_OBJECT
	StatusErrorRsrcNFound    Status = -1073807343 // VI_ERROR_RSRC_NFOUND
	StatusErrorRsrcBusy      Status = -1073807345 // VI_ERROR_RSRC_BUSY
	StatusErrorAccessDenied  Status = -1073807342 // VI_ERROR_RSRC_LOCKED
	StatusErrorIO            Status = -1073807298 // VI_ERROR_IO
	StatusErrorInvSetup      Status = -1073807326 // VI_ERROR_INV_SETUP
)

// IsWarning reports whether a status is the non-fatal "noteworthy" class:
// non-negative but not exactly success.
func (s Status) IsWarning() bool { return s > StatusSuccess }

// IsError reports whether a status represents a true failure.
func (s Status) IsError() bool { return s < StatusSuccess }
