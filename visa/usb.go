package visa

import (
	"govisa/attr"
	"govisa/visaerr"
)

// requireUSB checks the resource is a USB-family resource; the caller must
// already hold r.mu (via withLock).
func (r *Resource) requireUSB(op string) error {
	if r.record.InterfaceType != attr.USB {
		return &visaerr.UnsupportedOperation{Op: op, ResourceKind: r.record.InterfaceType.String()}
	}
	return nil
}

// ControlIn issues a USB control transfer read (spec §4.F USBInstrument.control_in).
func (r *Resource) ControlIn(request, value, index, length int) (out []byte, err error) {
	err = r.withLock("control_in", func() error {
		if e := r.requireUSB("control_in"); e != nil {
			return e
		}
		var e error
		out, e = r.backend.USBControlIn(r.session, request, value, index, length)
		return e
	})
	return
}

// ControlOut issues a USB control transfer write (spec §4.F USBInstrument.control_out).
func (r *Resource) ControlOut(request, value, index int, data []byte) error {
	return r.withLock("control_out", func() error {
		if e := r.requireUSB("control_out"); e != nil {
			return e
		}
		return r.backend.USBControlOut(r.session, request, value, index, data)
	})
}
