package visa

import (
	"github.com/google/shlex"

	"govisa/attr"
	"govisa/visaerr"
)

// GPIB REN (remote-enable) control modes passed to backend.GPIBControlREN.
const (
	renDeassert = 0
	renAssert   = 1
)

// requireGPIB checks the resource is a GPIB-family resource; the caller
// must already hold r.mu (via withLock), which is what guarantees the
// closed check it relies on.
func (r *Resource) requireGPIB(op string) error {
	if r.record.InterfaceType != attr.GPIB {
		return &visaerr.UnsupportedOperation{Op: op, ResourceKind: r.record.InterfaceType.String()}
	}
	return nil
}

// SendCommand writes raw command bytes onto the GPIB bus as command
// (ATN-asserted) bytes rather than device data (spec §4.F GPIBInstrument
// and GPIBInterface both expose send_command).
func (r *Resource) SendCommand(cmd []byte) (n int, err error) {
	err = r.withLock("send_command", func() error {
		if e := r.requireGPIB("send_command"); e != nil {
			return e
		}
		var e error
		n, e = r.backend.GPIBCommand(r.session, cmd)
		return e
	})
	return
}

// SendList tokenizes line the same way a shell would (quoting and
// escaping honored) and sends each token as a separate GPIB command byte
// sequence, generalizing GPIBInterface.send_list's "one or more commands"
// shape into a single human-typed string instead of a pre-split slice.
func (r *Resource) SendList(line string) (total int, err error) {
	err = r.withLock("send_list", func() error {
		if e := r.requireGPIB("send_list"); e != nil {
			return e
		}
		tokens, e := shlex.Split(line)
		if e != nil {
			return &visaerr.ProtocolError{Reason: "malformed GPIB command list: " + e.Error()}
		}
		for _, tok := range tokens {
			n, e := r.backend.GPIBCommand(r.session, []byte(tok))
			total += n
			if e != nil {
				return e
			}
		}
		return nil
	})
	return
}

// SendIFC asserts the GPIB interface-clear line (GPIBInterface.send_ifc).
func (r *Resource) SendIFC() error {
	return r.withLock("send_ifc", func() error {
		if e := r.requireGPIB("send_ifc"); e != nil {
			return e
		}
		return r.backend.GPIBControlREN(r.session, renDeassert)
	})
}

// EnableRemote asserts REN so addressed instruments enter remote mode
// (GPIBInterface.enable_remote).
func (r *Resource) EnableRemote() error {
	return r.withLock("enable_remote", func() error {
		if e := r.requireGPIB("enable_remote"); e != nil {
			return e
		}
		return r.backend.GPIBControlREN(r.session, renAssert)
	})
}

// DisableRemote deasserts REN, returning instruments to local control
// (GPIBInterface.disable_remote).
func (r *Resource) DisableRemote() error {
	return r.withLock("disable_remote", func() error {
		if e := r.requireGPIB("disable_remote"); e != nil {
			return e
		}
		return r.backend.GPIBControlREN(r.session, renDeassert)
	})
}

// PassControl hands GPIB active-controller status to the device at
// primaryAddr/secondaryAddr (GPIBInterface.pass_control). The default
// binding encodes the transfer as a GPIB take-control command sequence;
// backends that cannot perform it return UnsupportedOperation.
func (r *Resource) PassControl(primaryAddr, secondaryAddr int) error {
	return r.withLock("pass_control", func() error {
		if e := r.requireGPIB("pass_control"); e != nil {
			return e
		}
		cmd := []byte{byte(0x40 | (primaryAddr & 0x1F))} // talk address
		if secondaryAddr >= 0 {
			cmd = append(cmd, byte(0x60|(secondaryAddr&0x1F)))
		}
		cmd = append(cmd, 0x09) // take-control token (TCT)
		_, e := r.backend.GPIBCommand(r.session, cmd)
		return e
	})
}

// GroupExecuteTrigger sends the GPIB Group Execute Trigger command to every
// address in addrs in one command sequence (GPIBInterface.group_execute_trigger).
func (r *Resource) GroupExecuteTrigger(addrs []int) error {
	return r.withLock("group_execute_trigger", func() error {
		if e := r.requireGPIB("group_execute_trigger"); e != nil {
			return e
		}
		const groupExecuteTrigger = 0x08
		cmd := make([]byte, 0, len(addrs)+1)
		for _, a := range addrs {
			cmd = append(cmd, byte(0x20|(a&0x1F))) // listen address
		}
		cmd = append(cmd, groupExecuteTrigger)
		_, e := r.backend.GPIBCommand(r.session, cmd)
		return e
	})
}

// Trigger issues a device trigger (GPIBInstrument.trigger), the GPIB-scoped
// counterpart of the generic AssertTrigger.
func (r *Resource) Trigger(protocol int) error {
	return r.withLock("trigger", func() error {
		if e := r.requireGPIB("trigger"); e != nil {
			return e
		}
		return r.backend.AssertTrigger(r.session, protocol)
	})
}

// ReadSTBv2 is GPIBInstrument.read_stb_v2: the GPIB-scoped status-byte read,
// distinguished from the generic MessageBased.ReadSTB only by the
// interface-type guard.
func (r *Resource) ReadSTBv2() (stb byte, err error) {
	err = r.withLock("read_stb_v2", func() error {
		if e := r.requireGPIB("read_stb_v2"); e != nil {
			return e
		}
		var e error
		stb, e = r.backend.ReadSTB(r.session)
		return e
	})
	return
}
