package attr

import "testing"

func TestLookup_KnownAndUnknown(t *testing.T) {
	d, ok := Lookup(AttrTimeoutValue)
	if !ok {
		t.Fatalf("Lookup(AttrTimeoutValue) not found")
	}
	if d.Name != "VI_ATTR_TMO_VALUE" {
		t.Fatalf("Name=%q", d.Name)
	}
	if !d.Readable || !d.Writable {
		t.Fatalf("timeout attribute should be read/write")
	}

	if _, ok := Lookup(ID(999999)); ok {
		t.Fatalf("unknown id should not be found")
	}
}

func TestParseInterfaceType_CaseAlreadyUpper(t *testing.T) {
	if _, ok := ParseInterfaceType("gpib"); ok {
		t.Fatalf("ParseInterfaceType expects pre-uppercased input")
	}
	it, ok := ParseInterfaceType("GPIB")
	if !ok || it != GPIB {
		t.Fatalf("ParseInterfaceType(GPIB)=%v,%v", it, ok)
	}
}

func TestStatus_WarningVsError(t *testing.T) {
	if !StatusSuccessMaxCount.IsWarning() {
		t.Fatalf("expected warning class")
	}
	if StatusSuccess.IsWarning() {
		t.Fatalf("success is not a warning")
	}
	if !StatusErrorTimeout.IsError() {
		t.Fatalf("expected error class")
	}
}
