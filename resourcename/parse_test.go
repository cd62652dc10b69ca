package resourcename

import (
	"testing"

	"govisa/attr"
)

func mustParse(t *testing.T, s string) *Record {
	t.Helper()
	r, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", s, err)
	}
	return r
}

func TestParse_GPIBWithSecondary(t *testing.T) {
	r := mustParse(t, "gpib1::3::5::instr")
	if r.InterfaceType != attr.GPIB || r.Board != 1 || r.PrimaryAddress != 3 || r.SecondaryAddress != 5 {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.ResourceClass != attr.ClassInstr {
		t.Fatalf("expected INSTR class, got %v", r.ResourceClass)
	}
	if got := r.String(); got != "GPIB1::3::5::INSTR" {
		t.Fatalf("canonical = %q", got)
	}
}

func TestParse_TCPIPSocket(t *testing.T) {
	r := mustParse(t, "TCPIP0::1.2.3.4::999::SOCKET")
	if r.InterfaceType != attr.TCPIP || r.Board != 0 || r.Host != "1.2.3.4" || r.Port != 999 {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.ResourceClass != attr.ClassSocket {
		t.Fatalf("expected SOCKET class, got %v", r.ResourceClass)
	}
	if got := r.String(); got != "TCPIP0::1.2.3.4::999::SOCKET" {
		t.Fatalf("canonical = %q", got)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"GPIB0::3::INSTR",
		"GPIB1::3::5::INSTR",
		"GPIB2::INTFC",
		"ASRL0::INSTR",
		"TCPIP0::myhost::INSTR",
		"TCPIP0::myhost::gpib0,2::INSTR",
		"TCPIP0::1.2.3.4::5025::SOCKET",
		"VICP0::myhost::INSTR",
		"USB0::0x1234::0x5678::SN123::INSTR",
		"USB0::0x1234::0x5678::SN123::0::RAW",
		"PXI0::5::BACKPLANE",
		"PXI1::3::4::INSTR",
		"PXI1::3-4.2::INSTR",
		"PXI0::CHASSIS1::SLOT3::FUNC2::INSTR",
		"PXI0::MEMACC",
		"VXI0::8::INSTR",
		"VXI0::8::BACKPLANE",
		"VXI0::MEMACC",
		"VXI0::SERVANT",
	}
	for _, in := range inputs {
		r1 := mustParse(t, in)
		canon := r1.String()
		r2 := mustParse(t, canon)
		if !r1.Equal(r2) {
			t.Errorf("round trip mismatch for %q: canonical=%q, r1=%+v r2=%+v", in, canon, r1, r2)
		}
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	r1 := mustParse(t, "GPIB1::3::5::INSTR")
	r2 := mustParse(t, "gpib1::3::5::instr")
	if !r1.Equal(r2) {
		t.Fatalf("case-insensitive parse mismatch: %+v vs %+v", r1, r2)
	}
}

func TestParse_GPIBPrimaryBoundaries(t *testing.T) {
	if _, err := Parse("GPIB0::0::INSTR"); err != nil {
		t.Fatalf("primary 0 should parse: %v", err)
	}
	if _, err := Parse("GPIB0::30::INSTR"); err != nil {
		t.Fatalf("primary 30 should parse: %v", err)
	}
	if _, err := Parse("GPIB0::31::INSTR"); err == nil {
		t.Fatalf("primary 31 should fail")
	}
}

func TestParse_USBRawVsInstr(t *testing.T) {
	instr := mustParse(t, "USB0::0x1234::0x5678::SN1::INSTR")
	if instr.ResourceClass != attr.ClassInstr {
		t.Fatalf("expected INSTR, got %v", instr.ResourceClass)
	}
	raw := mustParse(t, "USB0::0x1234::0x5678::SN1::RAW")
	if raw.ResourceClass != attr.ClassRaw {
		t.Fatalf("expected RAW, got %v", raw.ResourceClass)
	}
}

func TestParse_RemoteResource(t *testing.T) {
	r := mustParse(t, "visa://remotehost:7000/GPIB0::3::INSTR")
	if r.RemoteHost != "remotehost" || r.RemotePort != 7000 || !r.HasPort {
		t.Fatalf("unexpected remote: %+v", r)
	}
	if r.Remote == nil || r.Remote.PrimaryAddress != 3 {
		t.Fatalf("unexpected inner record: %+v", r.Remote)
	}
	if _, err := Parse("visa://host/visa://host2/GPIB0::3::INSTR"); err == nil {
		t.Fatalf("nested visa:// should fail")
	}
}

func TestParse_UnknownInterfaceType(t *testing.T) {
	if _, err := Parse("FOO0::INSTR"); err == nil {
		t.Fatalf("expected error for unknown interface type")
	}
}

func TestParse_TrailingTokensRejected(t *testing.T) {
	if _, err := Parse("GPIB0::3::INSTR::EXTRA"); err == nil {
		t.Fatalf("expected error for trailing tokens")
	}
}

func TestParse_ASRLAliasPreserved(t *testing.T) {
	r := mustParse(t, "COM3")
	if !r.BoardIsAlias || r.BoardAlias != "COM3" {
		t.Fatalf("unexpected alias record: %+v", r)
	}
	if got := r.String(); got != "COM3" {
		t.Fatalf("alias should re-render verbatim, got %q", got)
	}

	devPath := mustParse(t, "/dev/tty0")
	if !devPath.BoardIsAlias || devPath.BoardAlias != "/dev/tty0" {
		t.Fatalf("unexpected device path record: %+v", devPath)
	}
}
