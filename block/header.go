// Package block implements the binary-block and ASCII value-stream codec
// (spec component C): IEEE-488.2 and HP header framing, a generic
// fixed-width numeric element codec, and a delimited ASCII value codec.
package block

import (
	"bufio"
	"io"
	"strconv"

	"govisa/visaerr"
)

// HeaderFormat selects which of the three header styles §4.C supports.
type HeaderFormat int

const (
	IEEE HeaderFormat = iota
	HP
	Empty
)

func (f HeaderFormat) String() string {
	switch f {
	case IEEE:
		return "ieee"
	case HP:
		return "hp"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// DefaultScanWindow is the number of leading bytes the decoder tolerates
// before the '#' sentinel before giving up (spec §4.C, configurable).
const DefaultScanWindow = 25

// Header is the decoded framing preamble. Length is -1 for an IEEE
// indefinite-length block (`#0`); any other format always reports a
// concrete Length.
type Header struct {
	Format HeaderFormat
	Length int64
}

// ScanForSentinel returns the index of the first '#' within data, searched
// only over the first window bytes (data[window:] is never examined). It
// is the primitive the boundary-behavior tests exercise directly: a
// sentinel at window-1 is found, one at window is not (spec §8).
func ScanForSentinel(data []byte, window int) (int, error) {
	limit := window
	if limit > len(data) {
		limit = len(data)
	}
	for i := 0; i < limit; i++ {
		if data[i] == '#' {
			return i, nil
		}
	}
	return -1, &visaerr.ProtocolError{Reason: "header sentinel '#' not found within scan window"}
}

// DecodeHeader parses a header out of a fully buffered byte slice and
// returns the number of bytes the header itself occupied (sentinel
// through the last length byte); data[headerLen:] is the remainder of the
// stream, starting at the first payload byte.
func DecodeHeader(data []byte, scanWindow int) (hdr Header, headerLen int, err error) {
	pos, err := ScanForSentinel(data, scanWindow)
	if err != nil {
		return Header{}, 0, err
	}
	if pos+1 >= len(data) {
		return Header{}, 0, &visaerr.ProtocolError{Reason: "truncated header: missing length marker"}
	}
	marker := data[pos+1]
	switch {
	case marker == '0':
		return Header{Format: IEEE, Length: -1}, pos + 2, nil
	case marker >= '1' && marker <= '9':
		d := int(marker - '0')
		if pos+2+d > len(data) {
			return Header{}, 0, &visaerr.ProtocolError{Reason: "truncated header: missing length digits"}
		}
		lenStr := string(data[pos+2 : pos+2+d])
		l, perr := strconv.ParseInt(lenStr, 10, 64)
		if perr != nil {
			return Header{}, 0, &visaerr.ProtocolError{Reason: "invalid IEEE block length digits: " + lenStr}
		}
		return Header{Format: IEEE, Length: l}, pos + 2 + d, nil
	case marker == 'A' || marker == 'a':
		if pos+4 > len(data) {
			return Header{}, 0, &visaerr.ProtocolError{Reason: "truncated HP header: missing length bytes"}
		}
		lo, hi := data[pos+2], data[pos+3]
		l := int64(lo) | int64(hi)<<8
		return Header{Format: HP, Length: l}, pos + 4, nil
	default:
		return Header{}, 0, &visaerr.ProtocolError{Reason: "unrecognized header marker after '#'"}
	}
}

// DecodeHeaderFrom parses a header directly off a buffered reader, the
// shape the message-based I/O engine uses when chunk-reading from a live
// backend: it never needs the whole (possibly multi-gigabyte) block
// in memory to learn the declared length. br must have been constructed
// with a buffer size of at least scanWindow+10 so Peek can see the whole
// header in one shot.
func DecodeHeaderFrom(br *bufio.Reader, scanWindow int) (Header, error) {
	peekLen := scanWindow + 1 + 9 // marker + up to 9 decimal digits
	peeked, _ := br.Peek(peekLen)
	if len(peeked) == 0 {
		return Header{}, &visaerr.ProtocolError{Reason: "empty stream while scanning for header"}
	}
	hdr, headerLen, err := DecodeHeader(peeked, scanWindow)
	if err != nil {
		if headerLen == 0 && len(peeked) < peekLen {
			// Could not resolve the header within the bytes currently
			// available; ask the caller to supply more and retry rather
			// than treating this as a hard protocol error.
			return Header{}, io.ErrShortBuffer
		}
		return Header{}, err
	}
	if _, err := br.Discard(headerLen); err != nil {
		return Header{}, err
	}
	return hdr, nil
}

// EncodeHeader writes the header bytes for format/length to w. Empty
// writes nothing, matching the "whole stream is payload" rule.
func EncodeHeader(w io.Writer, format HeaderFormat, length int64) error {
	switch format {
	case Empty:
		return nil
	case IEEE:
		if length < 0 {
			_, err := w.Write([]byte("#0"))
			return err
		}
		lenStr := strconv.FormatInt(length, 10)
		if len(lenStr) > 9 {
			return &visaerr.ProtocolError{Reason: "IEEE definite length digit count exceeds single-digit width (d must be 1-9): " + lenStr}
		}
		_, err := w.Write([]byte("#" + strconv.Itoa(len(lenStr)) + lenStr))
		return err
	case HP:
		if length < 0 || length > 0xFFFF {
			return &visaerr.ProtocolError{Reason: "HP block length out of range for a 16-bit little-endian header"}
		}
		_, err := w.Write([]byte{'#', 'A', byte(length & 0xFF), byte((length >> 8) & 0xFF)})
		return err
	default:
		return &visaerr.ProtocolError{Reason: "unknown header format"}
	}
}
