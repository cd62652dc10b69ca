package visa_test

import (
	"errors"
	"testing"
	"time"

	"govisa/attr"
	"govisa/backend"
	"govisa/visa"
	"govisa/visa/probe"
	"govisa/visaerr"
)

func newProbeRM(t *testing.T) *visa.ResourceManager {
	t.Helper()
	rm, err := visa.OpenDefaultRM(backend.Config{})
	if err != nil {
		t.Fatalf("OpenDefaultRM: %v", err)
	}
	return rm
}

func TestOpenResource_QueryRoundTrip(t *testing.T) {
	const name = "GPIB0::1::INSTR"
	script := probe.NewScript().OnWrite("*IDN?\n", "ACME,Model1,SN1,1.0\n")
	probe.Register(name, script)

	rm := newProbeRM(t)
	defer rm.Close()

	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	got, err := res.Query("*IDN?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got != "ACME,Model1,SN1,1.0" {
		t.Fatalf("Query() = %q", got)
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	const name = "GPIB0::2::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()

	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("second Close should be a silent no-op, got: %v", err)
	}
	if _, err := res.Query("*IDN?"); err == nil {
		t.Fatalf("expected InvalidSession after close")
	} else if visaerr.Of(err) != visaerr.CodeInvalidSession {
		t.Fatalf("expected InvalidSession, got %v", err)
	}
}

func TestLockContext_ReleasesOnPanic(t *testing.T) {
	const name = "GPIB0::3::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()

	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	func() {
		defer func() { recover() }()
		_ = res.LockContext(attr.LockExclusive, 1000, "", func(key string) error {
			panic("boom")
		})
	}()

	// A second LockContext succeeding proves the first one's Unlock ran
	// despite the panic unwinding through fn.
	if err := res.LockContext(attr.LockExclusive, 1000, "", func(key string) error { return nil }); err != nil {
		t.Fatalf("lock was not released after panic: %v", err)
	}
}

func TestWaitOnEvent_TimeoutOnSilentInstrument(t *testing.T) {
	const name = "GPIB0::4::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()

	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	start := time.Now()
	resp, err := res.WaitOnEvent(attr.EventServiceRequest, 50)
	if err != nil {
		t.Fatalf("WaitOnEvent returned an error instead of a timeout: %v", err)
	}
	if !resp.TimedOut {
		t.Fatalf("expected TimedOut=true")
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("returned suspiciously fast (%v), did it actually wait?", elapsed)
	}
}

func TestWaitOnEvent_DeliversEnabledEvent(t *testing.T) {
	const name = "GPIB0::5::INSTR"
	script := probe.NewScript().QueueEvent(backend.WaitResult{EventType: attr.EventServiceRequest, Context: 7})
	probe.Register(name, script)

	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if err := res.EnableEvent(attr.EventServiceRequest, attr.MechanismQueue); err != nil {
		t.Fatalf("EnableEvent: %v", err)
	}
	resp, err := res.WaitOnEvent(attr.EventServiceRequest, 1000)
	if err != nil {
		t.Fatalf("WaitOnEvent: %v", err)
	}
	if resp.TimedOut || resp.Context != 7 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWrite_RejectsDoubleTermination(t *testing.T) {
	const name = "GPIB0::6::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	_, err = res.Write("*RST\n")
	var protoErr *visaerr.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError for a pre-terminated message, got %v", err)
	}
}
