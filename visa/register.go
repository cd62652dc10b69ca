package visa

import (
	"govisa/attr"
	"govisa/visaerr"
)

// requireRegisterBased guards the register-access capability to PXI/VXI
// memory-access and backplane resources (spec §4.F RegisterBased, parent
// of VXIBackplane/VXIMemory). The caller must already hold r.mu (via
// withLock).
func (r *Resource) requireRegisterBased(op string) error {
	switch r.record.InterfaceType {
	case attr.PXI, attr.VXI:
		return nil
	default:
		return &visaerr.UnsupportedOperation{Op: op, ResourceKind: r.record.InterfaceType.String()}
	}
}

// ReadMemory8/16/32/64 read a register at address at the named width
// (spec §4.F RegisterBased "typed read_memory/write_memory at widths
// 8/16/32/64").
func (r *Resource) ReadMemory8(address uintptr) (v uint8, err error) {
	err = r.withLock("read_memory8", func() error {
		if e := r.requireRegisterBased("read_memory8"); e != nil {
			return e
		}
		var e error
		v, e = r.backend.Peek8(r.session, address)
		return e
	})
	return
}

func (r *Resource) ReadMemory16(address uintptr) (v uint16, err error) {
	err = r.withLock("read_memory16", func() error {
		if e := r.requireRegisterBased("read_memory16"); e != nil {
			return e
		}
		var e error
		v, e = r.backend.Peek16(r.session, address)
		return e
	})
	return
}

func (r *Resource) ReadMemory32(address uintptr) (v uint32, err error) {
	err = r.withLock("read_memory32", func() error {
		if e := r.requireRegisterBased("read_memory32"); e != nil {
			return e
		}
		var e error
		v, e = r.backend.Peek32(r.session, address)
		return e
	})
	return
}

func (r *Resource) ReadMemory64(address uintptr) (v uint64, err error) {
	err = r.withLock("read_memory64", func() error {
		if e := r.requireRegisterBased("read_memory64"); e != nil {
			return e
		}
		var e error
		v, e = r.backend.Peek64(r.session, address)
		return e
	})
	return
}

func (r *Resource) WriteMemory8(address uintptr, value uint8) error {
	return r.withLock("write_memory8", func() error {
		if e := r.requireRegisterBased("write_memory8"); e != nil {
			return e
		}
		return r.backend.Poke8(r.session, address, value)
	})
}

func (r *Resource) WriteMemory16(address uintptr, value uint16) error {
	return r.withLock("write_memory16", func() error {
		if e := r.requireRegisterBased("write_memory16"); e != nil {
			return e
		}
		return r.backend.Poke16(r.session, address, value)
	})
}

func (r *Resource) WriteMemory32(address uintptr, value uint32) error {
	return r.withLock("write_memory32", func() error {
		if e := r.requireRegisterBased("write_memory32"); e != nil {
			return e
		}
		return r.backend.Poke32(r.session, address, value)
	})
}

func (r *Resource) WriteMemory64(address uintptr, value uint64) error {
	return r.withLock("write_memory64", func() error {
		if e := r.requireRegisterBased("write_memory64"); e != nil {
			return e
		}
		return r.backend.Poke64(r.session, address, value)
	})
}

// MoveIn reads count consecutive 32-bit words starting at address into a
// single slice (RegisterBased.move_in), a block-transfer convenience over
// repeated ReadMemory32 calls.
func (r *Resource) MoveIn(address uintptr, count int) (out []uint32, err error) {
	err = r.withLock("move_in", func() error {
		if e := r.requireRegisterBased("move_in"); e != nil {
			return e
		}
		buf := make([]uint32, count)
		for i := 0; i < count; i++ {
			v, e := r.backend.Peek32(r.session, address+uintptr(i*4))
			if e != nil {
				out = buf[:i]
				return e
			}
			buf[i] = v
		}
		out = buf
		return nil
	})
	return
}

// MoveOut writes values as consecutive 32-bit words starting at address
// (RegisterBased.move_out).
func (r *Resource) MoveOut(address uintptr, values []uint32) error {
	return r.withLock("move_out", func() error {
		if e := r.requireRegisterBased("move_out"); e != nil {
			return e
		}
		for i, v := range values {
			if e := r.backend.Poke32(r.session, address+uintptr(i*4), v); e != nil {
				return e
			}
		}
		return nil
	})
}

// mappedWindow tracks an address range mapped for direct access
// (RegisterBased.map_address/unmap_address). The default binding has no
// direct-map concept of its own (every access crosses the FFI boundary
// per call), so mapping here is bookkeeping only: it validates the window
// and makes later accesses through it cheaper to reason about, rather than
// a real memory-mapped pointer.
type mappedWindow struct {
	base uintptr
	size uintptr
}

// MapAddress reserves [address, address+size) for subsequent register
// access and returns a handle later passed to UnmapAddress.
func (r *Resource) MapAddress(address, size uintptr) (w *mappedWindow, err error) {
	err = r.withLock("map_address", func() error {
		if e := r.requireRegisterBased("map_address"); e != nil {
			return e
		}
		w = &mappedWindow{base: address, size: size}
		return nil
	})
	return
}

// UnmapAddress releases a window obtained from MapAddress. It is a no-op
// beyond validation since no real OS mapping is held.
func (r *Resource) UnmapAddress(w *mappedWindow) error {
	return r.withLock("unmap_address", func() error {
		if e := r.requireRegisterBased("unmap_address"); e != nil {
			return e
		}
		if w == nil {
			return &visaerr.ProtocolError{Reason: "unmap_address on a nil window"}
		}
		return nil
	})
}
