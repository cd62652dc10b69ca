package block

import (
	"bufio"
	"bytes"
	"io"

	"govisa/visaerr"
)

// DecodeBlock decodes a fully-buffered header+payload stream in one shot —
// the shape scenarios 3/4 of spec §8 describe, and the shape a caller
// already holding the whole response uses. scanWindow bounds the leading
// search for '#' (block.DefaultScanWindow unless overridden). terminator is
// the single byte expected immediately after the payload when
// expectTermination is true (the resource's read_termination byte).
//
// Format Empty treats the entire input as payload; dataLength is
// len(data) in that case, since there is no header to declare one.
func DecodeBlock(data []byte, format HeaderFormat, scanWindow int, expectTermination bool, terminator byte) (payload []byte, dataLength int64, consumed int, err error) {
	if format == Empty {
		payload = data
		if expectTermination && len(payload) > 0 && payload[len(payload)-1] == terminator {
			payload = payload[:len(payload)-1]
		}
		return payload, int64(len(payload)), len(data), nil
	}

	hdr, headerLen, err := DecodeHeader(data, scanWindow)
	if err != nil {
		return nil, 0, 0, err
	}
	if hdr.Format != format {
		return nil, 0, 0, &visaerr.ProtocolError{Reason: "decoded header format does not match requested format"}
	}

	if hdr.Length < 0 {
		// Indefinite-length IEEE block: payload runs to the terminator, or
		// to end-of-stream if none is expected.
		rest := data[headerLen:]
		if !expectTermination {
			return rest, -1, len(data), nil
		}
		idx := bytes.IndexByte(rest, terminator)
		if idx < 0 {
			return nil, 0, 0, &visaerr.ProtocolError{Reason: "indefinite block missing expected terminator"}
		}
		return rest[:idx], -1, headerLen + idx + 1, nil
	}

	need := int(hdr.Length)
	if expectTermination {
		need++
	}
	if headerLen+need > len(data) {
		return nil, 0, 0, &visaerr.ProtocolError{Reason: "declared block length exceeds available data"}
	}
	payload = data[headerLen : headerLen+int(hdr.Length)]
	consumed = headerLen + int(hdr.Length)
	if expectTermination {
		if data[consumed] != terminator {
			return nil, 0, 0, &visaerr.ProtocolError{Reason: "payload not followed by expected terminator"}
		}
		consumed++
	}
	return payload, hdr.Length, consumed, nil
}

// EncodeBlock renders a header (per format) followed by payload. It never
// appends a terminator — callers add the resource's write_termination
// exactly once, same as every other outbound message (spec §4.D "write").
func EncodeBlock(format HeaderFormat, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeHeader(&buf, format, int64(len(payload))); err != nil {
		return nil, err
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

// ReadPayload reads exactly the declared payload off a live stream: used by
// the message-based I/O engine once DecodeHeaderFrom has classified the
// header, so a multi-gigabyte definite block is read with io.ReadFull
// straight into the caller-sized buffer rather than being buffered twice.
//
// dataPoints/elemSize let an indefinite or empty-header block with a known
// element count skip terminator scanning entirely (spec §4.G
// read_binary_values: "uses data_points*sizeof(datatype) when known").
func ReadPayload(r *bufio.Reader, hdr Header, expectTermination bool, terminator byte, dataPoints, elemSize int) ([]byte, error) {
	switch {
	case hdr.Length >= 0:
		buf := make([]byte, hdr.Length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, &visaerr.ProtocolError{Reason: "short read while collecting declared block payload: " + err.Error()}
		}
		if expectTermination {
			term, err := r.ReadByte()
			if err != nil {
				return nil, &visaerr.ProtocolError{Reason: "short read while collecting block terminator: " + err.Error()}
			}
			if term != terminator {
				return nil, &visaerr.ProtocolError{Reason: "payload not followed by expected terminator"}
			}
		}
		return buf, nil
	case dataPoints > 0:
		buf := make([]byte, dataPoints*elemSize)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, &visaerr.ProtocolError{Reason: "short read while collecting fixed-count payload: " + err.Error()}
		}
		if expectTermination {
			if _, err := r.ReadByte(); err != nil {
				return nil, &visaerr.ProtocolError{Reason: "short read while collecting terminator: " + err.Error()}
			}
		}
		return buf, nil
	default:
		// Indefinite length, element count unknown: read until the
		// terminator or a backend short-read (spec §4.G).
		if !expectTermination {
			return io.ReadAll(r)
		}
		payload, err := r.ReadBytes(terminator)
		if err != nil {
			return nil, &visaerr.ProtocolError{Reason: "stream ended before terminator: " + err.Error()}
		}
		return payload[:len(payload)-1], nil
	}
}
