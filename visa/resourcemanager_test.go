package visa_test

import (
	"testing"

	"govisa/attr"
	"govisa/backend"
	"govisa/visa"
	"govisa/visa/probe"
	"govisa/visaerr"
)

func TestOpenResource_OnClosedManagerFails(t *testing.T) {
	rm := newProbeRM(t)
	if err := rm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := rm.OpenResource("GPIB0::9::INSTR@probe", attr.AccessNoLock, 2000)
	if err == nil {
		t.Fatalf("expected an error opening through a closed manager")
	}
	if visaerr.Of(err) != visaerr.CodeInvalidSession {
		t.Fatalf("expected InvalidSession, got %v", err)
	}
}

func TestClose_IsIdempotentOnManager(t *testing.T) {
	rm := newProbeRM(t)
	if err := rm.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := rm.Close(); err != nil {
		t.Fatalf("second Close should be a silent no-op, got: %v", err)
	}
}

func TestClose_ClosesLiveResources(t *testing.T) {
	const name = "GPIB0::10::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)

	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	if got := len(rm.ListOpenedResources()); got != 1 {
		t.Fatalf("ListOpenedResources before Close = %d, want 1", got)
	}

	if err := rm.Close(); err != nil {
		t.Fatalf("rm.Close: %v", err)
	}
	if got := len(rm.ListOpenedResources()); got != 0 {
		t.Fatalf("ListOpenedResources after Close = %d, want 0", got)
	}
	if _, err := res.Query("*IDN?"); err == nil {
		t.Fatalf("expected the resource to be invalid after manager Close")
	}
}

func TestOpenResource_MalformedNameRejected(t *testing.T) {
	rm := newProbeRM(t)
	defer rm.Close()
	_, err := rm.OpenResource("not a valid resource name@probe", attr.AccessNoLock, 2000)
	if err == nil {
		t.Fatalf("expected a parse error for a malformed resource name")
	}
}

func TestOpenResource_DefaultBackendSelectorIsIVI(t *testing.T) {
	// With no @selector, bindingFor falls back to backend.DefaultName
	// ("ivi"); since no real VISA library is present in this test
	// environment, dispatch should fail cleanly rather than hang or panic.
	rm, err := visa.OpenDefaultRM(backend.Config{})
	if err != nil {
		t.Fatalf("OpenDefaultRM: %v", err)
	}
	defer rm.Close()
	if _, err := rm.OpenResource("GPIB0::11::INSTR", attr.AccessNoLock, 2000); err == nil {
		t.Fatalf("expected dispatch to the default ivi backend to fail without a real library")
	}
}
