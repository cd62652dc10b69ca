package attr

// AttrKind tags the shape of an attribute's value.
type AttrKind int

const (
	KindScalar AttrKind = iota
	KindEnum
	KindFlags
	KindBytes
)

// ID is a VISA attribute identifier. Real VISA attribute ids are large
// (0x3FFF0000-ish) sentinel-style constants; we keep a compact, stable
// numbering here and let the default binding (backend/ivi) translate to the
// vendor library's native ids at the FFI boundary.
type ID uint32

// Descriptor is process-wide immutable metadata about one attribute.
// Resource properties are thin get_attr/set_attr wrappers against these
// ids (spec §4.F, §9 "attribute surface is data, not types").
type Descriptor struct {
	ID       ID
	Name     string
	Readable bool
	Writable bool
	Kind     AttrKind
	Default  any
}

// Well-known attribute ids, named the way pyvisa/VISA name them.
const (
	AttrTimeoutValue ID = iota + 1
	AttrResourceClass
	AttrResourceManufacturerName
	AttrResourceName
	AttrInterfaceType
	AttrInterfaceNumber
	AttrSpecVersion
	AttrImplementationVersion
	AttrIOProtocol
	AttrSendEndEnabled
	AttrTermCharEnabled
	AttrTermChar
	AttrReadBufferSize
	AttrWriteBufferSize
	AttrSuppressEndEnabled

	AttrASRLBaud
	AttrASRLDataBits
	AttrASRLStopBits
	AttrASRLParity
	AttrASRLFlowControl
	AttrASRLEndIn
	AttrASRLBreakLen
	AttrASRLBreakState
	AttrASRLXOnChar
	AttrASRLXOffChar

	AttrGPIBPrimaryAddress
	AttrGPIBSecondaryAddress
	AttrGPIBRENState
	AttrGPIBUnaddressing
	AttrGPIBReadAddr

	AttrUSBInterfaceNumber
	AttrUSBManufacturerID
	AttrUSBModelCode
	AttrUSBSerialNumber

	AttrTCPIPAddress
	AttrTCPIPPort
	AttrTCPIPDeviceName
	AttrTCPIPKeepalive
	AttrTCPIPNoDelay

	AttrMaxID
)

var registry = map[ID]Descriptor{}

func define(d Descriptor) {
	if _, dup := registry[d.ID]; dup {
		panic("attr: duplicate attribute id registered: " + d.Name)
	}
	registry[d.ID] = d
}

func init() {
	define(Descriptor{ID: AttrTimeoutValue, Name: "VI_ATTR_TMO_VALUE", Readable: true, Writable: true, Kind: KindScalar, Default: 2000})
	define(Descriptor{ID: AttrResourceClass, Name: "VI_ATTR_RSRC_CLASS", Readable: true, Kind: KindEnum})
	define(Descriptor{ID: AttrResourceManufacturerName, Name: "VI_ATTR_RSRC_MANF_NAME", Readable: true, Kind: KindBytes})
	define(Descriptor{ID: AttrResourceName, Name: "VI_ATTR_RSRC_NAME", Readable: true, Kind: KindBytes})
	define(Descriptor{ID: AttrInterfaceType, Name: "VI_ATTR_INTF_TYPE", Readable: true, Kind: KindEnum})
	define(Descriptor{ID: AttrInterfaceNumber, Name: "VI_ATTR_INTF_NUM", Readable: true, Kind: KindScalar})
	define(Descriptor{ID: AttrSpecVersion, Name: "VI_ATTR_SPEC_VERSION", Readable: true, Kind: KindScalar})
	define(Descriptor{ID: AttrImplementationVersion, Name: "VI_ATTR_IMPL_VERSION", Readable: true, Kind: KindScalar})
	define(Descriptor{ID: AttrIOProtocol, Name: "VI_ATTR_IO_PROT", Readable: true, Writable: true, Kind: KindEnum, Default: 1})
	define(Descriptor{ID: AttrSendEndEnabled, Name: "VI_ATTR_SEND_END_EN", Readable: true, Writable: true, Kind: KindScalar, Default: true})
	define(Descriptor{ID: AttrTermCharEnabled, Name: "VI_ATTR_TERMCHAR_EN", Readable: true, Writable: true, Kind: KindScalar, Default: false})
	define(Descriptor{ID: AttrTermChar, Name: "VI_ATTR_TERMCHAR", Readable: true, Writable: true, Kind: KindScalar, Default: byte('\n')})
	define(Descriptor{ID: AttrReadBufferSize, Name: "VI_ATTR_RD_BUF_SIZE", Readable: true, Writable: true, Kind: KindScalar, Default: 20480})
	define(Descriptor{ID: AttrWriteBufferSize, Name: "VI_ATTR_WR_BUF_SIZE", Readable: true, Writable: true, Kind: KindScalar, Default: 20480})
	define(Descriptor{ID: AttrSuppressEndEnabled, Name: "VI_ATTR_SUPPRESS_END_EN", Readable: true, Writable: true, Kind: KindScalar, Default: false})

	define(Descriptor{ID: AttrASRLBaud, Name: "VI_ATTR_ASRL_BAUD", Readable: true, Writable: true, Kind: KindScalar, Default: 9600})
	define(Descriptor{ID: AttrASRLDataBits, Name: "VI_ATTR_ASRL_DATA_BITS", Readable: true, Writable: true, Kind: KindScalar, Default: 8})
	define(Descriptor{ID: AttrASRLStopBits, Name: "VI_ATTR_ASRL_STOP_BITS", Readable: true, Writable: true, Kind: KindEnum, Default: StopBitsOne})
	define(Descriptor{ID: AttrASRLParity, Name: "VI_ATTR_ASRL_PARITY", Readable: true, Writable: true, Kind: KindEnum, Default: ParityNone})
	define(Descriptor{ID: AttrASRLFlowControl, Name: "VI_ATTR_ASRL_FLOW_CNTRL", Readable: true, Writable: true, Kind: KindFlags, Default: FlowNone})
	define(Descriptor{ID: AttrASRLEndIn, Name: "VI_ATTR_ASRL_END_IN", Readable: true, Writable: true, Kind: KindEnum, Default: EndInputTermChar})
	define(Descriptor{ID: AttrASRLBreakLen, Name: "VI_ATTR_ASRL_BREAK_LEN", Readable: true, Writable: true, Kind: KindScalar, Default: 250})
	define(Descriptor{ID: AttrASRLBreakState, Name: "VI_ATTR_ASRL_BREAK_STATE", Readable: true, Writable: true, Kind: KindScalar, Default: false})
	define(Descriptor{ID: AttrASRLXOnChar, Name: "VI_ATTR_ASRL_XON_CHAR", Readable: true, Writable: true, Kind: KindScalar, Default: byte(0x11)})
	define(Descriptor{ID: AttrASRLXOffChar, Name: "VI_ATTR_ASRL_XOFF_CHAR", Readable: true, Writable: true, Kind: KindScalar, Default: byte(0x13)})

	define(Descriptor{ID: AttrGPIBPrimaryAddress, Name: "VI_ATTR_GPIB_PRIMARY_ADDR", Readable: true, Kind: KindScalar})
	define(Descriptor{ID: AttrGPIBSecondaryAddress, Name: "VI_ATTR_GPIB_SECONDARY_ADDR", Readable: true, Kind: KindScalar, Default: -1})
	define(Descriptor{ID: AttrGPIBRENState, Name: "VI_ATTR_GPIB_REN_STATE", Readable: true, Writable: true, Kind: KindEnum})
	define(Descriptor{ID: AttrGPIBUnaddressing, Name: "VI_ATTR_GPIB_UNADDR_EN", Readable: true, Writable: true, Kind: KindScalar, Default: false})
	define(Descriptor{ID: AttrGPIBReadAddr, Name: "VI_ATTR_GPIB_READDR_EN", Readable: true, Writable: true, Kind: KindScalar, Default: true})

	define(Descriptor{ID: AttrUSBInterfaceNumber, Name: "VI_ATTR_USB_INTFC_NUM", Readable: true, Kind: KindScalar})
	define(Descriptor{ID: AttrUSBManufacturerID, Name: "VI_ATTR_MANF_ID", Readable: true, Kind: KindScalar})
	define(Descriptor{ID: AttrUSBModelCode, Name: "VI_ATTR_MODEL_CODE", Readable: true, Kind: KindScalar})
	define(Descriptor{ID: AttrUSBSerialNumber, Name: "VI_ATTR_USB_SERIAL_NUM", Readable: true, Kind: KindBytes})

	define(Descriptor{ID: AttrTCPIPAddress, Name: "VI_ATTR_TCPIP_ADDR", Readable: true, Kind: KindBytes})
	define(Descriptor{ID: AttrTCPIPPort, Name: "VI_ATTR_TCPIP_PORT", Readable: true, Kind: KindScalar})
	define(Descriptor{ID: AttrTCPIPDeviceName, Name: "VI_ATTR_TCPIP_DEVICE_NAME", Readable: true, Kind: KindBytes, Default: "inst0"})
	define(Descriptor{ID: AttrTCPIPKeepalive, Name: "VI_ATTR_TCPIP_KEEPALIVE", Readable: true, Writable: true, Kind: KindScalar, Default: false})
	define(Descriptor{ID: AttrTCPIPNoDelay, Name: "VI_ATTR_TCPIP_NODELAY", Readable: true, Writable: true, Kind: KindScalar, Default: true})
}

// Lookup returns the descriptor for id, matching the teacher's findBuilder
// shape (a plain map lookup guarded by registration at init time rather
// than runtime introspection).
func Lookup(id ID) (Descriptor, bool) {
	d, ok := registry[id]
	return d, ok
}

// MustLookup panics if id is unknown; used internally where the id is a
// compile-time constant and a miss indicates a programming error.
func MustLookup(id ID) Descriptor {
	d, ok := registry[id]
	if !ok {
		panic("attr: unknown attribute id")
	}
	return d
}

// TimeoutImmediate and TimeoutInfinite are the reserved timeout_ms
// sentinels (spec §3 "Attribute", §5).
const (
	TimeoutImmediate int64 = 0
	TimeoutInfinite  int64 = -1
)
