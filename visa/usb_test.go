package visa_test

import (
	"testing"

	"govisa/attr"
	"govisa/visa/probe"
	"govisa/visaerr"
)

func TestControlInOut_RoundTrip(t *testing.T) {
	const name = "USB0::0x1234::0x5678::SN1::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if err := res.ControlOut(1, 2, 3, []byte{0xAA}); err != nil {
		t.Fatalf("ControlOut: %v", err)
	}
	b, err := res.ControlIn(1, 2, 3, 4)
	if err != nil {
		t.Fatalf("ControlIn: %v", err)
	}
	if len(b) != 4 {
		t.Fatalf("ControlIn returned %d bytes, want 4", len(b))
	}
}

func TestUSBOperations_RejectNonUSBResources(t *testing.T) {
	const name = "GPIB0::26::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if _, err := res.ControlIn(0, 0, 0, 1); visaerr.Of(err) != visaerr.CodeUnsupportedOperation {
		t.Fatalf("expected CodeUnsupportedOperation, got %v", err)
	}
}
