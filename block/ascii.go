package block

import (
	"strconv"
	"strings"

	"govisa/visaerr"
)

// ParseASCIIValues splits s on sep and converts each field with convert
// (spec §4.C "a per-element converter"). A trailing separator is tolerated
// (spec §8 invariant 3): "1,2,3," parses the same as "1,2,3". Empty fields
// in the interior of the stream are still an error.
func ParseASCIIValues(s, sep string, convert func(string) (float64, error)) ([]float64, error) {
	if sep == "" {
		sep = ","
	}
	trimmed := strings.TrimSuffix(s, sep)
	if trimmed == "" {
		return nil, nil
	}
	fields := strings.Split(trimmed, sep)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := convert(strings.TrimSpace(f))
		if err != nil {
			return nil, &visaerr.EncodingError{Encoding: "ascii", Offset: i}
		}
		out[i] = v
	}
	return out, nil
}

// ParseASCIIFloatValues is ParseASCIIValues with strconv.ParseFloat as the
// converter, the common case (spec §8 scenario 5).
func ParseASCIIFloatValues(s, sep string) ([]float64, error) {
	return ParseASCIIValues(s, sep, func(f string) (float64, error) {
		return strconv.ParseFloat(f, 64)
	})
}

// FormatASCIIValues is the symmetric encoder: each value is rendered with
// format (one of 'e', 'f', 'g', matching strconv.FormatFloat) and joined
// with sep. precision is passed through to strconv.FormatFloat (-1 means
// "smallest number of digits necessary to round-trip").
func FormatASCIIValues(values []float64, sep string, format byte, precision int) string {
	if sep == "" {
		sep = ","
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, format, precision, 64)
	}
	return strings.Join(parts, sep)
}
