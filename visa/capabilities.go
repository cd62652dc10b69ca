package visa

import (
	"govisa/attr"
	"govisa/block"
)

// The capability interfaces below name the bus-specific operation sets
// spec §4.F describes. A single concrete Resource implements every one of
// them; a capability call made against a resource kind that does not
// support it returns visaerr.UnsupportedOperation at call time rather than
// the capability being absent at compile time — see DESIGN.md for why one
// concrete struct backs every interface instead of a struct per bus
// family. The interfaces exist so callers and tests can depend on the
// narrower capability they actually need.

// MessageBased is the parent of every message-oriented resource kind
// (GPIB-INSTR, USB-INSTR, USB-RAW, TCPIP-INSTR, TCPIP-SOCKET, ASRL-INSTR,
// VXI-INSTR, PXI-INSTR, Firewire-INSTR, VICP-INSTR).
type MessageBased interface {
	Read() (string, error)
	ReadRaw() ([]byte, error)
	ReadBytes(count int, chunkSize int, breakOnTermchar bool, monitor Monitor) ([]byte, error)
	Write(message string) (int, error)
	WriteRaw(data []byte) (int, error)
	Query(command string) (string, error)
	ReadAsciiValues(sep string) ([]float64, error)
	WriteAsciiValues(values []float64, sep string, format byte, precision int) (int, error)
	QueryAsciiValues(command, sep string) ([]float64, error)
	ReadBinaryValues(dt block.DataType, bigEndian bool, headerFmt block.HeaderFormat, expectTermination bool, dataPoints int) ([]float64, error)
	ReadBinaryValuesRaw(dt block.DataType, headerFmt block.HeaderFormat, expectTermination bool, dataPoints int) ([]byte, error)
	WriteBinaryValues(dt block.DataType, bigEndian bool, headerFmt block.HeaderFormat, values []float64) (int, error)
	WriteBinaryValuesRaw(dt block.DataType, headerFmt block.HeaderFormat, payload []byte) (int, error)
	QueryBinaryValues(command string, dt block.DataType, bigEndian bool, headerFmt block.HeaderFormat, expectTermination bool, dataPoints int) ([]float64, error)
	ChunkSize() int
	SetChunkSize(int)
	SendEnd() bool
	SetSendEnd(bool)
	QueryDelay() float64
	SetQueryDelay(float64)
	Encoding() string
	SetEncoding(string)
	ReadTermination() string
	SetReadTermination(string)
	WriteTermination() string
	SetWriteTermination(string)
	Clear() error
	Flush(mask int) error
	ReadSTB() (byte, error)
}

// GPIBInstrument is a GPIB/INSTR resource's capability set.
type GPIBInstrument interface {
	WaitForSRQ(timeoutMS int64) (WaitResponse, error)
	SendCommand(cmd []byte) (int, error)
	Trigger(protocol int) error
	ReadSTBv2() (byte, error)
}

// GPIBInterface is a GPIB/INTFC (controller-in-charge) resource's
// capability set.
type GPIBInterface interface {
	SendIFC() error
	SendCommand(cmd []byte) (int, error)
	SendList(line string) (int, error)
	EnableRemote() error
	DisableRemote() error
	PassControl(primaryAddr, secondaryAddr int) error
	GroupExecuteTrigger(addrs []int) error
}

// SerialInstrument is an ASRL/INSTR resource's capability set.
type SerialInstrument interface {
	Baud() (int, error)
	SetBaud(int) error
	DataBits() (int, error)
	SetDataBits(int) error
	StopBits() (attr.StopBits, error)
	SetStopBits(attr.StopBits) error
	Parity() (attr.Parity, error)
	SetParity(attr.Parity) error
	FlowControl() (attr.FlowControl, error)
	SetFlowControl(attr.FlowControl) error
	EndInput() (attr.EndInput, error)
	SetEndInput(attr.EndInput) error
	SetBreak(durationMS int, assert bool) error
	XonChar() (byte, error)
	SetXonChar(byte) error
	XoffChar() (byte, error)
	SetXoffChar(byte) error
}

// USBInstrument is a USB/INSTR or USB/RAW resource's capability set.
type USBInstrument interface {
	ControlIn(request, value, index, length int) ([]byte, error)
	ControlOut(request, value, index int, data []byte) error
}

// RegisterBased is the PXI/VXI memory-access capability set, the parent
// of VXIBackplane and VXIMemory.
type RegisterBased interface {
	ReadMemory8(address uintptr) (uint8, error)
	ReadMemory16(address uintptr) (uint16, error)
	ReadMemory32(address uintptr) (uint32, error)
	ReadMemory64(address uintptr) (uint64, error)
	WriteMemory8(address uintptr, value uint8) error
	WriteMemory16(address uintptr, value uint16) error
	WriteMemory32(address uintptr, value uint32) error
	WriteMemory64(address uintptr, value uint64) error
	MoveIn(address uintptr, count int) ([]uint32, error)
	MoveOut(address uintptr, values []uint32) error
}

// VXIBackplane adds trigger control to RegisterBased for a VXI backplane
// resource.
type VXIBackplane interface {
	RegisterBased
	AssertTrigger(protocol int) error
}

// VXIMemory is the memory-access-only VXI/MEMACC resource.
type VXIMemory interface {
	RegisterBased
}

var (
	_ MessageBased     = (*Resource)(nil)
	_ GPIBInstrument   = (*Resource)(nil)
	_ GPIBInterface    = (*Resource)(nil)
	_ SerialInstrument = (*Resource)(nil)
	_ USBInstrument    = (*Resource)(nil)
	_ RegisterBased    = (*Resource)(nil)
	_ VXIBackplane     = (*Resource)(nil)
	_ VXIMemory        = (*Resource)(nil)
)
