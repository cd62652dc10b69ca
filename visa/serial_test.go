package visa_test

import (
	"testing"

	"govisa/attr"
	"govisa/visa/probe"
	"govisa/visaerr"
)

func TestBaud_ReadWriteRoundTrip(t *testing.T) {
	const name = "ASRL2::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if err := res.SetBaud(115200); err != nil {
		t.Fatalf("SetBaud: %v", err)
	}
	got, err := res.Baud()
	if err != nil {
		t.Fatalf("Baud: %v", err)
	}
	if got != 115200 {
		t.Fatalf("Baud() = %d, want 115200", got)
	}
}

func TestParityAndStopBits_RoundTrip(t *testing.T) {
	const name = "ASRL3::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if err := res.SetParity(attr.ParityEven); err != nil {
		t.Fatalf("SetParity: %v", err)
	}
	if p, err := res.Parity(); err != nil || p != attr.ParityEven {
		t.Fatalf("Parity() = %v, %v, want ParityEven", p, err)
	}

	if err := res.SetStopBits(attr.StopBitsTwo); err != nil {
		t.Fatalf("SetStopBits: %v", err)
	}
	if sb, err := res.StopBits(); err != nil || sb != attr.StopBitsTwo {
		t.Fatalf("StopBits() = %v, %v, want StopBitsTwo", sb, err)
	}
}

func TestSerialOperations_RejectNonASRLResources(t *testing.T) {
	const name = "GPIB0::24::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if _, err := res.Baud(); visaerr.Of(err) != visaerr.CodeUnsupportedOperation {
		t.Fatalf("expected CodeUnsupportedOperation, got %v", err)
	}
}
