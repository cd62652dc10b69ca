// Package resourcename implements the VISA resource-name grammar (spec
// component B / §6): parsing a case-insensitive string into a structured
// Record, and rendering a Record back to its canonical string form.
package resourcename

import "govisa/attr"

// Sentinel values for optional numeric fields that are absent.
const (
	NoAddress = -1 // absent GPIB secondary address, absent USB interface number
)

// Record is a tagged union of every resource-name shape in spec §6,
// flattened into one struct (the common Go rendering of a small closed set
// of variants, alongside the InterfaceType/ResourceClass discriminant —
// see DESIGN.md for why a struct-of-optional-fields was chosen over one
// interface type per kind).
type Record struct {
	InterfaceType attr.InterfaceType
	ResourceClass attr.ResourceClass
	Board         int
	// BoardAlias holds an opaque original board token when Board could not
	// be parsed as an integer (e.g. ASRL on an OS device path such as
	// /dev/tty0, or a COM/LPT alias). BoardIsAlias is true in that case and
	// Board is meaningless.
	BoardAlias   string
	BoardIsAlias bool

	// GPIB/INSTR, GPIB/INTFC
	PrimaryAddress   int
	SecondaryAddress int // NoAddress sentinel when absent

	// TCPIP/INSTR, TCPIP/SOCKET, VICP/INSTR
	Host      string
	LANDevice string // default "inst0"
	Port      int

	// USB/INSTR, USB/RAW
	ManufacturerID int // hex-parsed
	ModelCode      int
	SerialNumber   string
	USBInterface   int // NoAddress sentinel when absent

	// PXI family
	PXIBus      int
	PXIDevice   int
	PXIFunction int
	PXIChassis  int
	PXISlot     int
	PXIHasSlot  bool

	// VXI family
	LogicalAddress int
	HasLogicalAddr bool

	// visa://host[:port]/remote_resource — recursion one level deep.
	RemoteHost string
	RemotePort int
	HasPort    bool
	Remote     *Record

	// raw preserves the exact input for alias forms (COM2, LPT1, a device
	// path board) so re-emission can reproduce them verbatim.
	raw string
}

// Equal reports field-wise equality, used by the round-trip invariant
// (spec §8 law 1): to_canonical_string(parse(s)) re-parses to an equal
// record.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	switch {
	case r.InterfaceType != o.InterfaceType,
		r.ResourceClass != o.ResourceClass,
		r.Board != o.Board,
		r.BoardAlias != o.BoardAlias,
		r.BoardIsAlias != o.BoardIsAlias,
		r.PrimaryAddress != o.PrimaryAddress,
		r.SecondaryAddress != o.SecondaryAddress,
		r.Host != o.Host,
		r.LANDevice != o.LANDevice,
		r.Port != o.Port,
		r.ManufacturerID != o.ManufacturerID,
		r.ModelCode != o.ModelCode,
		r.SerialNumber != o.SerialNumber,
		r.USBInterface != o.USBInterface,
		r.PXIBus != o.PXIBus,
		r.PXIDevice != o.PXIDevice,
		r.PXIFunction != o.PXIFunction,
		r.PXIChassis != o.PXIChassis,
		r.PXISlot != o.PXISlot,
		r.PXIHasSlot != o.PXIHasSlot,
		r.LogicalAddress != o.LogicalAddress,
		r.HasLogicalAddr != o.HasLogicalAddr,
		r.RemoteHost != o.RemoteHost,
		r.RemotePort != o.RemotePort,
		r.HasPort != o.HasPort:
		return false
	}
	if (r.Remote == nil) != (o.Remote == nil) {
		return false
	}
	if r.Remote != nil && !r.Remote.Equal(o.Remote) {
		return false
	}
	return true
}
