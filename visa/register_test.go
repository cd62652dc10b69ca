package visa_test

import (
	"testing"

	"govisa/attr"
	"govisa/visa/probe"
	"govisa/visaerr"
)

func TestReadWriteMemory32_RoundTrip(t *testing.T) {
	const name = "PXI1::3::4::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	// The probe backend's Poke/Peek stubs don't persist state, so this
	// only exercises that the calls route through without error; a real
	// backend would round-trip the value.
	if err := res.WriteMemory32(0x1000, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteMemory32: %v", err)
	}
	if _, err := res.ReadMemory32(0x1000); err != nil {
		t.Fatalf("ReadMemory32: %v", err)
	}
}

func TestMoveInMoveOut_CoverAddressRange(t *testing.T) {
	const name = "PXI1::3::4::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if err := res.MoveOut(0x2000, []uint32{1, 2, 3}); err != nil {
		t.Fatalf("MoveOut: %v", err)
	}
	vals, err := res.MoveIn(0x2000, 3)
	if err != nil {
		t.Fatalf("MoveIn: %v", err)
	}
	if len(vals) != 3 {
		t.Fatalf("MoveIn returned %d values, want 3", len(vals))
	}
}

func TestRegisterOperations_RejectNonPXIVXIResources(t *testing.T) {
	const name = "GPIB0::25::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if _, err := res.ReadMemory32(0); visaerr.Of(err) != visaerr.CodeUnsupportedOperation {
		t.Fatalf("expected CodeUnsupportedOperation, got %v", err)
	}
}
