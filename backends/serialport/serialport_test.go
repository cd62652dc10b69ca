package serialport

import (
	"testing"

	"govisa/resourcename"
)

func TestBaudConstant_UnknownFallsBackToDefault(t *testing.T) {
	if baudConstant(9600) == 0 {
		t.Fatalf("expected a nonzero CBAUD encoding for 9600")
	}
	if baudConstant(1234567) != baudConstant(9600) {
		t.Fatalf("unknown rate should fall back to the 9600 encoding")
	}
}

func TestDataBitsConstant_DefaultsToEight(t *testing.T) {
	if dataBitsConstant(3) != dataBitsConstant(8) {
		t.Fatalf("unrecognized data-bit count should fall back to CS8")
	}
}

func TestDevicePath_AliasPreserved(t *testing.T) {
	rec := &resourcename.Record{BoardIsAlias: true, BoardAlias: "/dev/ttyUSB3"}
	if got := devicePath(rec); got != "/dev/ttyUSB3" {
		t.Fatalf("devicePath() = %q, want alias preserved", got)
	}
}

func TestDevicePath_NumericBoard(t *testing.T) {
	rec := &resourcename.Record{Board: 2}
	if got := devicePath(rec); got != "/dev/ttyS2" {
		t.Fatalf("devicePath() = %q, want /dev/ttyS2", got)
	}
}

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", 42: "42", -3: "-3"}
	for n, want := range cases {
		if got := itoa(n); got != want {
			t.Fatalf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}
