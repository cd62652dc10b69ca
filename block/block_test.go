package block

import (
	"bytes"
	"testing"
)

func TestScanForSentinel_Boundaries(t *testing.T) {
	atZero := append([]byte("#18"), bytes.Repeat([]byte{'x'}, 5)...)
	if pos, err := ScanForSentinel(atZero, DefaultScanWindow); err != nil || pos != 0 {
		t.Fatalf("expected sentinel at 0, got pos=%d err=%v", pos, err)
	}

	padded := append(bytes.Repeat([]byte{'x'}, 24), '#')
	if pos, err := ScanForSentinel(padded, DefaultScanWindow); err != nil || pos != 24 {
		t.Fatalf("expected sentinel at 24, got pos=%d err=%v", pos, err)
	}

	tooFar := append(bytes.Repeat([]byte{'x'}, 25), '#')
	if _, err := ScanForSentinel(tooFar, DefaultScanWindow); err == nil {
		t.Fatalf("expected scan window failure at position 25")
	}
}

func TestDecodeBlock_IEEEDefinite(t *testing.T) {
	stream := []byte("#18ABCDEFGH\n")
	payload, length, consumed, err := DecodeBlock(stream, IEEE, DefaultScanWindow, true, '\n')
	if err != nil {
		t.Fatalf("DecodeBlock failed: %v", err)
	}
	if string(payload) != "ABCDEFGH" {
		t.Fatalf("payload = %q", payload)
	}
	if length != 8 {
		t.Fatalf("data_length = %d, want 8", length)
	}
	if consumed != len(stream) {
		t.Fatalf("consumed = %d, want %d (terminator consumed)", consumed, len(stream))
	}
}

func TestDecodeBlock_IEEEIndefinite(t *testing.T) {
	stream := []byte("#0payload\n")
	payload, length, _, err := DecodeBlock(stream, IEEE, DefaultScanWindow, true, '\n')
	if err != nil {
		t.Fatalf("DecodeBlock failed: %v", err)
	}
	if string(payload) != "payload" {
		t.Fatalf("payload = %q", payload)
	}
	if length != -1 {
		t.Fatalf("data_length = %d, want -1", length)
	}
}

func TestDecodeBlock_ZeroLength(t *testing.T) {
	stream := []byte("#10\n")
	payload, length, _, err := DecodeBlock(stream, IEEE, DefaultScanWindow, true, '\n')
	if err != nil {
		t.Fatalf("DecodeBlock failed: %v", err)
	}
	if len(payload) != 0 || length != 0 {
		t.Fatalf("expected empty payload, got %q length=%d", payload, length)
	}
}

func TestEncodeDecodeBlock_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 1000)
	encoded, err := EncodeBlock(IEEE, payload)
	if err != nil {
		t.Fatalf("EncodeBlock failed: %v", err)
	}
	stream := append(encoded, '\n')
	decoded, length, _, err := DecodeBlock(stream, IEEE, DefaultScanWindow, true, '\n')
	if err != nil {
		t.Fatalf("DecodeBlock failed: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatalf("round trip payload mismatch")
	}
	if length != int64(len(payload)) {
		t.Fatalf("data_length = %d, want %d", length, len(payload))
	}
}

func TestEncodeHeader_LargeLength(t *testing.T) {
	// IEEE-488.2 headers cap d at a single digit (1-9), so the largest
	// declarable length is 999,999,999 bytes -- just under 1 GB. We verify
	// the header for a length "at the order of 1 GB" encodes and
	// round-trips without materializing a payload of that size.
	const nearGB = 999_999_999
	var buf bytes.Buffer
	if err := EncodeHeader(&buf, IEEE, nearGB); err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}
	hdr, headerLen, err := DecodeHeader(buf.Bytes(), DefaultScanWindow)
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if hdr.Length != nearGB {
		t.Fatalf("decoded length = %d, want %d", hdr.Length, nearGB)
	}
	if headerLen != buf.Len() {
		t.Fatalf("headerLen = %d, want %d", headerLen, buf.Len())
	}

	if err := EncodeHeader(&bytes.Buffer{}, IEEE, 10_000_000_000); err == nil {
		t.Fatalf("expected encode failure for a length wider than 9 digits")
	}
}

func TestDecodeBlock_HP(t *testing.T) {
	payload := []byte("hello")
	encoded, err := EncodeBlock(HP, payload)
	if err != nil {
		t.Fatalf("EncodeBlock failed: %v", err)
	}
	decoded, length, _, err := DecodeBlock(encoded, HP, DefaultScanWindow, false, 0)
	if err != nil {
		t.Fatalf("DecodeBlock failed: %v", err)
	}
	if !bytes.Equal(decoded, payload) || length != int64(len(payload)) {
		t.Fatalf("HP round trip mismatch: payload=%q length=%d", decoded, length)
	}
}

func TestDecodeBlock_Empty(t *testing.T) {
	payload, length, _, err := DecodeBlock([]byte("raw stream\n"), Empty, DefaultScanWindow, true, '\n')
	if err != nil {
		t.Fatalf("DecodeBlock failed: %v", err)
	}
	if string(payload) != "raw stream" || length != int64(len("raw stream")) {
		t.Fatalf("unexpected empty-format decode: %q len=%d", payload, length)
	}
}

func TestValues_RoundTrip(t *testing.T) {
	values := []int16{-32768, -1, 0, 1, 32767}
	encoded := EncodeValues(values, false)
	decoded, err := DecodeValues[int16](encoded, false)
	if err != nil {
		t.Fatalf("DecodeValues failed: %v", err)
	}
	if len(decoded) != len(values) {
		t.Fatalf("length mismatch: got %d want %d", len(decoded), len(values))
	}
	for i := range values {
		if decoded[i] != values[i] {
			t.Fatalf("value[%d] = %d, want %d", i, decoded[i], values[i])
		}
	}
}

func TestValues_Float64BigEndian(t *testing.T) {
	values := []float64{-4e-4, 0, 3.14159, 1e300}
	encoded := EncodeValues(values, true)
	decoded, err := DecodeValues[float64](encoded, true)
	if err != nil {
		t.Fatalf("DecodeValues failed: %v", err)
	}
	for i := range values {
		if decoded[i] != values[i] {
			t.Fatalf("value[%d] = %v, want %v", i, decoded[i], values[i])
		}
	}
}

func TestValues_TruncatedPayloadRejected(t *testing.T) {
	if _, err := DecodeValues[int32]([]byte{1, 2, 3}, false); err == nil {
		t.Fatalf("expected error decoding a payload that is not a multiple of the element width")
	}
}

func TestASCIIValues_RoundTrip(t *testing.T) {
	const resp = "-000.0004E+0,-000.0005E+0,-000.0004E+0"
	values, err := ParseASCIIFloatValues(resp, ",")
	if err != nil {
		t.Fatalf("ParseASCIIFloatValues failed: %v", err)
	}
	want := []float64{-4e-4, -5e-4, -4e-4}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("value[%d] = %v, want %v", i, values[i], want[i])
		}
	}

	encoded := FormatASCIIValues(want, ",", 'e', -1)
	reparsed, err := ParseASCIIFloatValues(encoded, ",")
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	for i := range want {
		if reparsed[i] != want[i] {
			t.Fatalf("reparsed[%d] = %v, want %v", i, reparsed[i], want[i])
		}
	}
}

func TestASCIIValues_TrailingSeparatorTolerated(t *testing.T) {
	values, err := ParseASCIIFloatValues("1,2,3,", ",")
	if err != nil {
		t.Fatalf("ParseASCIIFloatValues failed: %v", err)
	}
	if len(values) != 3 || values[2] != 3 {
		t.Fatalf("unexpected values: %v", values)
	}
}
