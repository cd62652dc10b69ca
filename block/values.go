package block

import (
	"encoding/binary"
	"math"

	"golang.org/x/exp/constraints"

	"govisa/visaerr"
)

// DataType enumerates the fixed-width element types the codec supports
// (spec §4.C): signed/unsigned 8/16/32/64, float32/float64, and the two
// byte-opaque shapes "s" (raw bytes) and "p" (length-prefixed bytes).
type DataType int

const (
	Int8 DataType = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	Bytes            // "s"
	LengthPrefixedBytes // "p"
)

// Sizeof returns the on-wire width of a fixed-width element type; it is
// meaningless for the two byte-opaque shapes, which have no fixed width.
func Sizeof(dt DataType) int {
	switch dt {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

func byteOrder(bigEndian bool) binary.ByteOrder {
	if bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DecodeValues unpacks data as a sequence of fixed-width elements of type T
// (an integer or floating-point type whose size must match sizeof(T)),
// in the requested endianness. It never silently truncates: a data length
// that is not a whole multiple of sizeof(T) is a decode error (spec §4.C
// "the decoder... never silently truncates").
func DecodeValues[T constraints.Integer | constraints.Float](data []byte, bigEndian bool) ([]T, error) {
	var zero T
	size := sizeofGo(zero)
	if size == 0 {
		return nil, &visaerr.ProtocolError{Reason: "unsupported element type for binary decode"}
	}
	if len(data)%size != 0 {
		return nil, &visaerr.ProtocolError{Reason: "binary payload length is not a whole multiple of the element width"}
	}
	order := byteOrder(bigEndian)
	n := len(data) / size
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = decodeOne[T](order, data[i*size:(i+1)*size])
	}
	return out, nil
}

// EncodeValues is the symmetric encoder for DecodeValues.
func EncodeValues[T constraints.Integer | constraints.Float](values []T, bigEndian bool) []byte {
	var zero T
	size := sizeofGo(zero)
	order := byteOrder(bigEndian)
	out := make([]byte, len(values)*size)
	for i, v := range values {
		encodeOne(order, out[i*size:(i+1)*size], v)
	}
	return out
}

func sizeofGo(v any) int {
	switch v.(type) {
	case int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, int, uint, float64:
		return 8
	default:
		return 0
	}
}

func decodeOne[T constraints.Integer | constraints.Float](order binary.ByteOrder, b []byte) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(math.Float32frombits(order.Uint32(b))).(T)
	case float64:
		return any(math.Float64frombits(order.Uint64(b))).(T)
	default:
		switch len(b) {
		case 1:
			return T(b[0])
		case 2:
			return T(order.Uint16(b))
		case 4:
			return T(order.Uint32(b))
		case 8:
			return T(order.Uint64(b))
		}
	}
	return zero
}

func encodeOne[T constraints.Integer | constraints.Float](order binary.ByteOrder, b []byte, v T) {
	switch x := any(v).(type) {
	case float32:
		order.PutUint32(b, math.Float32bits(x))
	case float64:
		order.PutUint64(b, math.Float64bits(x))
	default:
		switch len(b) {
		case 1:
			b[0] = byte(anyToUint64(v))
		case 2:
			order.PutUint16(b, uint16(anyToUint64(v)))
		case 4:
			order.PutUint32(b, uint32(anyToUint64(v)))
		case 8:
			order.PutUint64(b, anyToUint64(v))
		}
	}
}

// anyToUint64 reinterprets an integer-kinded T as its raw bit pattern,
// sign included, the same way encoding/binary's fixed-size Put* helpers do.
func anyToUint64[T constraints.Integer | constraints.Float](v T) uint64 {
	switch x := any(v).(type) {
	case int8:
		return uint64(uint8(x))
	case uint8:
		return uint64(x)
	case int16:
		return uint64(uint16(x))
	case uint16:
		return uint64(x)
	case int32:
		return uint64(uint32(x))
	case uint32:
		return uint64(x)
	case int64:
		return uint64(x)
	case uint64:
		return x
	case int:
		return uint64(x)
	case uint:
		return uint64(x)
	}
	return 0
}
