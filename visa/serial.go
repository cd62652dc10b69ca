package visa

import (
	"govisa/attr"
	"govisa/visaerr"
)

// requireASRL checks the resource is an ASRL-family resource; the caller
// must already hold r.mu (via withLock).
func (r *Resource) requireASRL(op string) error {
	if r.record.InterfaceType != attr.ASRL {
		return &visaerr.UnsupportedOperation{Op: op, ResourceKind: r.record.InterfaceType.String()}
	}
	return nil
}

// Baud reads/writes VI_ATTR_ASRL_BAUD (spec §4.F SerialInstrument).
func (r *Resource) Baud() (baud int, err error) {
	err = r.withLock("baud", func() error {
		if e := r.requireASRL("baud"); e != nil {
			return e
		}
		v, e := r.backend.GetAttr(r.session, attr.AttrASRLBaud)
		baud = asInt(v)
		return e
	})
	return
}

func (r *Resource) SetBaud(baud int) error {
	return r.withLock("set_baud", func() error {
		if e := r.requireASRL("set_baud"); e != nil {
			return e
		}
		return r.backend.SetAttr(r.session, attr.AttrASRLBaud, baud)
	})
}

// DataBits reads/writes VI_ATTR_ASRL_DATA_BITS (5-8).
func (r *Resource) DataBits() (bits int, err error) {
	err = r.withLock("data_bits", func() error {
		if e := r.requireASRL("data_bits"); e != nil {
			return e
		}
		v, e := r.backend.GetAttr(r.session, attr.AttrASRLDataBits)
		bits = asInt(v)
		return e
	})
	return
}

func (r *Resource) SetDataBits(bits int) error {
	return r.withLock("set_data_bits", func() error {
		if e := r.requireASRL("set_data_bits"); e != nil {
			return e
		}
		return r.backend.SetAttr(r.session, attr.AttrASRLDataBits, bits)
	})
}

// StopBits reads/writes VI_ATTR_ASRL_STOP_BITS.
func (r *Resource) StopBits() (sb attr.StopBits, err error) {
	err = r.withLock("stop_bits", func() error {
		if e := r.requireASRL("stop_bits"); e != nil {
			return e
		}
		v, e := r.backend.GetAttr(r.session, attr.AttrASRLStopBits)
		sb = attr.StopBits(asInt(v))
		return e
	})
	return
}

func (r *Resource) SetStopBits(sb attr.StopBits) error {
	return r.withLock("set_stop_bits", func() error {
		if e := r.requireASRL("set_stop_bits"); e != nil {
			return e
		}
		return r.backend.SetAttr(r.session, attr.AttrASRLStopBits, int(sb))
	})
}

// Parity reads/writes VI_ATTR_ASRL_PARITY.
func (r *Resource) Parity() (p attr.Parity, err error) {
	err = r.withLock("parity", func() error {
		if e := r.requireASRL("parity"); e != nil {
			return e
		}
		v, e := r.backend.GetAttr(r.session, attr.AttrASRLParity)
		p = attr.Parity(asInt(v))
		return e
	})
	return
}

func (r *Resource) SetParity(p attr.Parity) error {
	return r.withLock("set_parity", func() error {
		if e := r.requireASRL("set_parity"); e != nil {
			return e
		}
		return r.backend.SetAttr(r.session, attr.AttrASRLParity, int(p))
	})
}

// FlowControl reads/writes VI_ATTR_ASRL_FLOW_CNTRL (a bit-flag set).
func (r *Resource) FlowControl() (fc attr.FlowControl, err error) {
	err = r.withLock("flow_control", func() error {
		if e := r.requireASRL("flow_control"); e != nil {
			return e
		}
		v, e := r.backend.GetAttr(r.session, attr.AttrASRLFlowControl)
		fc = attr.FlowControl(asInt(v))
		return e
	})
	return
}

func (r *Resource) SetFlowControl(fc attr.FlowControl) error {
	return r.withLock("set_flow_control", func() error {
		if e := r.requireASRL("set_flow_control"); e != nil {
			return e
		}
		return r.backend.SetAttr(r.session, attr.AttrASRLFlowControl, uint32(fc))
	})
}

// EndInput reads/writes VI_ATTR_ASRL_END_IN: whether an inbound message is
// considered complete on the last significant bit or on a termination
// character (spec §4.F SerialInstrument "end_input policy").
func (r *Resource) EndInput() (e2 attr.EndInput, err error) {
	err = r.withLock("end_input", func() error {
		if e := r.requireASRL("end_input"); e != nil {
			return e
		}
		v, e := r.backend.GetAttr(r.session, attr.AttrASRLEndIn)
		e2 = attr.EndInput(asInt(v))
		return e
	})
	return
}

func (r *Resource) SetEndInput(e attr.EndInput) error {
	return r.withLock("set_end_input", func() error {
		if er := r.requireASRL("set_end_input"); er != nil {
			return er
		}
		return r.backend.SetAttr(r.session, attr.AttrASRLEndIn, int(e))
	})
}

// SetBreak asserts or clears a line break for durationMS (spec
// break_length/break_state pair, exposed here as one call since the two
// attributes are always set together in practice).
func (r *Resource) SetBreak(durationMS int, assert bool) error {
	return r.withLock("set_break", func() error {
		if e := r.requireASRL("set_break"); e != nil {
			return e
		}
		if e := r.backend.SetAttr(r.session, attr.AttrASRLBreakLen, durationMS); e != nil {
			return e
		}
		return r.backend.SetAttr(r.session, attr.AttrASRLBreakState, assert)
	})
}

// XonChar/XoffChar read/write the software flow-control bytes.
func (r *Resource) XonChar() (c byte, err error) {
	err = r.withLock("xon_char", func() error {
		if e := r.requireASRL("xon_char"); e != nil {
			return e
		}
		v, e := r.backend.GetAttr(r.session, attr.AttrASRLXOnChar)
		c = asByte(v)
		return e
	})
	return
}

func (r *Resource) SetXonChar(c byte) error {
	return r.withLock("set_xon_char", func() error {
		if e := r.requireASRL("set_xon_char"); e != nil {
			return e
		}
		return r.backend.SetAttr(r.session, attr.AttrASRLXOnChar, c)
	})
}

func (r *Resource) XoffChar() (c byte, err error) {
	err = r.withLock("xoff_char", func() error {
		if e := r.requireASRL("xoff_char"); e != nil {
			return e
		}
		v, e := r.backend.GetAttr(r.session, attr.AttrASRLXOffChar)
		c = asByte(v)
		return e
	})
	return
}

func (r *Resource) SetXoffChar(c byte) error {
	return r.withLock("set_xoff_char", func() error {
		if e := r.requireASRL("set_xoff_char"); e != nil {
			return e
		}
		return r.backend.SetAttr(r.session, attr.AttrASRLXOffChar, c)
	})
}

func asInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case uint64:
		return int(x)
	case uint32:
		return int(x)
	default:
		return 0
	}
}

func asByte(v any) byte {
	switch x := v.(type) {
	case byte:
		return x
	case int:
		return byte(x)
	default:
		return 0
	}
}
