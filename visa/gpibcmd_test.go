package visa_test

import (
	"testing"

	"govisa/attr"
	"govisa/visa/probe"
	"govisa/visaerr"
)

func TestSendList_TokenizesQuotedCommands(t *testing.T) {
	const name = "GPIB0::30::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	n, err := res.SendList(`RST "hello world" CLR`)
	if err != nil {
		t.Fatalf("SendList: %v", err)
	}
	// three tokens: "RST" (3) + "hello world" (11) + "CLR" (3) = 17 bytes
	// echoed back by the probe backend's GPIBCommand stub.
	if n != 17 {
		t.Fatalf("SendList wrote %d bytes, want 17", n)
	}
}

func TestGPIBOperations_RejectNonGPIBResources(t *testing.T) {
	const name = "ASRL1::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	_, err = res.SendCommand([]byte{0x01})
	if err == nil {
		t.Fatalf("expected UnsupportedOperation for a GPIB call on an ASRL resource")
	}
	if visaerr.Of(err) != visaerr.CodeUnsupportedOperation {
		t.Fatalf("expected CodeUnsupportedOperation, got %v", err)
	}
}

func TestEnableDisableRemote_AssertAndDeassertREN(t *testing.T) {
	const name = "GPIB0::23::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if err := res.EnableRemote(); err != nil {
		t.Fatalf("EnableRemote: %v", err)
	}
	if err := res.DisableRemote(); err != nil {
		t.Fatalf("DisableRemote: %v", err)
	}
}
