package visa_test

import (
	"testing"

	"govisa/attr"
	"govisa/block"
	"govisa/visa/probe"
)

func TestQueryBinaryValues_IEEEDefiniteBlock(t *testing.T) {
	const name = "GPIB0::20::INSTR"
	payload := []byte{0x00, 0x01, 0x02, 0x03}
	response := "#14" + string(payload) + "\n"
	probe.Register(name, probe.NewScript().OnWrite("CURV?\n", response))

	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	values, err := res.QueryBinaryValues("CURV?", block.Uint8, false, block.IEEE, true, 0)
	if err != nil {
		t.Fatalf("QueryBinaryValues: %v", err)
	}
	want := []float64{0, 1, 2, 3}
	if len(values) != len(want) {
		t.Fatalf("got %v, want %v", values, want)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("got %v, want %v", values, want)
		}
	}
}

func TestWriteBinaryValues_RoundTripsThroughEmptyHeader(t *testing.T) {
	const name = "GPIB0::21::INSTR"
	probe.Register(name, probe.NewScript())
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	n, err := res.WriteBinaryValues(block.Uint8, false, block.Empty, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("WriteBinaryValues: %v", err)
	}
	// Empty-header framing is just the raw payload, so 3 bytes plus the
	// one-byte write termination.
	if n != 4 {
		t.Fatalf("wrote %d bytes, want 4", n)
	}
}

func TestQueryAsciiValues_ParsesDelimitedFloats(t *testing.T) {
	const name = "GPIB0::22::INSTR"
	probe.Register(name, probe.NewScript().OnWrite("MEAS?\n", "1.5,2.5,3.5\n"))
	rm := newProbeRM(t)
	defer rm.Close()
	res, err := rm.OpenResource(name+"@probe", attr.AccessNoLock, 2000)
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	values, err := res.QueryAsciiValues("MEAS?", ",")
	if err != nil {
		t.Fatalf("QueryAsciiValues: %v", err)
	}
	want := []float64{1.5, 2.5, 3.5}
	if len(values) != len(want) {
		t.Fatalf("got %v, want %v", values, want)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("got %v, want %v", values, want)
		}
	}
}
