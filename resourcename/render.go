package resourcename

import (
	"strconv"
	"strings"

	"govisa/attr"
)

// String renders the canonical form of a Record (spec §4.B
// to_canonical_string): upper-cased interface type and board, numeric
// fields materialized, defaults omitted only where the grammar marks the
// field optional. Re-parsing the result yields an equal Record (spec §8
// law 1).
func (r *Record) String() string {
	if r.Remote != nil {
		host := r.RemoteHost
		if r.HasPort {
			host += ":" + strconv.Itoa(r.RemotePort)
		}
		return "visa://" + host + "/" + r.Remote.String()
	}

	if r.BoardIsAlias && r.InterfaceType == attr.ASRL && r.Board == 0 && r.BoardAlias != "" && !strings.Contains(r.raw, "ASRL") {
		return r.BoardAlias
	}

	var b strings.Builder
	b.WriteString(r.InterfaceType.String())
	if r.BoardIsAlias {
		b.WriteString(r.BoardAlias)
	} else {
		// Board 0 is rendered explicitly, matching spec §8 scenario 2
		// (TCPIP0 renders board 0 rather than omitting it).
		b.WriteString(strconv.Itoa(r.Board))
	}

	switch r.InterfaceType {
	case attr.GPIB:
		renderGPIB(&b, r)
	case attr.ASRL:
		b.WriteString("::INSTR")
	case attr.TCPIP:
		renderTCPIP(&b, r)
	case attr.VICP:
		b.WriteString("::")
		b.WriteString(r.Host)
		b.WriteString("::INSTR")
	case attr.USB:
		renderUSB(&b, r)
	case attr.PXI:
		renderPXI(&b, r)
	case attr.VXI:
		renderVXI(&b, r)
	}
	return b.String()
}

func renderGPIB(b *strings.Builder, r *Record) {
	if r.ResourceClass == attr.ClassIntfc {
		b.WriteString("::INTFC")
		return
	}
	b.WriteString("::")
	b.WriteString(strconv.Itoa(r.PrimaryAddress))
	if r.SecondaryAddress != NoAddress {
		b.WriteString("::")
		b.WriteString(strconv.Itoa(r.SecondaryAddress))
	}
	b.WriteString("::INSTR")
}

func renderTCPIP(b *strings.Builder, r *Record) {
	b.WriteString("::")
	b.WriteString(r.Host)
	if r.ResourceClass == attr.ClassSocket {
		b.WriteString("::")
		b.WriteString(strconv.Itoa(r.Port))
		b.WriteString("::SOCKET")
		return
	}
	if r.LANDevice != "" && r.LANDevice != "inst0" {
		b.WriteString("::")
		b.WriteString(r.LANDevice)
	}
	b.WriteString("::INSTR")
}

func renderUSB(b *strings.Builder, r *Record) {
	b.WriteString("::")
	b.WriteString(strconv.Itoa(r.ManufacturerID))
	b.WriteString("::")
	b.WriteString(strconv.Itoa(r.ModelCode))
	b.WriteString("::")
	b.WriteString(r.SerialNumber)
	if r.USBInterface != NoAddress {
		b.WriteString("::")
		b.WriteString(strconv.Itoa(r.USBInterface))
	}
	b.WriteString("::")
	if r.ResourceClass == attr.ClassRaw {
		b.WriteString("RAW")
	} else {
		b.WriteString("INSTR")
	}
}

func renderPXI(b *strings.Builder, r *Record) {
	switch r.ResourceClass {
	case attr.ClassMemacc:
		b.WriteString("::MEMACC")
	case attr.ClassBackplane:
		b.WriteString("::")
		b.WriteString(strconv.Itoa(r.PXIChassis))
		b.WriteString("::BACKPLANE")
	default:
		if r.PXIHasSlot {
			b.WriteString("::CHASSIS")
			b.WriteString(strconv.Itoa(r.PXIChassis))
			b.WriteString("::SLOT")
			b.WriteString(strconv.Itoa(r.PXISlot))
			if r.PXIFunction != 0 {
				b.WriteString("::FUNC")
				b.WriteString(strconv.Itoa(r.PXIFunction))
			}
		} else {
			b.WriteString("::")
			b.WriteString(strconv.Itoa(r.PXIBus))
			b.WriteString("::")
			b.WriteString(strconv.Itoa(r.PXIDevice))
			if r.PXIFunction != 0 {
				b.WriteString("::")
				b.WriteString(strconv.Itoa(r.PXIFunction))
			}
		}
		b.WriteString("::INSTR")
	}
}

func renderVXI(b *strings.Builder, r *Record) {
	switch r.ResourceClass {
	case attr.ClassMemacc:
		b.WriteString("::MEMACC")
	case attr.ClassServant:
		b.WriteString("::SERVANT")
	case attr.ClassBackplane:
		if r.HasLogicalAddr {
			b.WriteString("::")
			b.WriteString(strconv.Itoa(r.LogicalAddress))
		}
		b.WriteString("::BACKPLANE")
	default:
		b.WriteString("::")
		b.WriteString(strconv.Itoa(r.LogicalAddress))
		b.WriteString("::INSTR")
	}
}
