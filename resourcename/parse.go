package resourcename

import (
	"strconv"
	"strings"

	"govisa/attr"
	"govisa/visaerr"
)

// Parse maps a human-readable resource name to a structured Record (spec
// §4.B). Parsing is case-insensitive on every keyword/family/class token;
// free-form tokens (host, serial number, LAN device name, device-path
// aliases) are kept as given.
func Parse(name string) (*Record, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return nil, &visaerr.ParseError{Input: name, Pos: 0, Reason: "empty resource name"}
	}

	if rest, ok := stripFold(s, "visa://"); ok {
		return parseRemote(name, rest)
	}

	if rec, ok := tryASRLAlias(s); ok {
		return rec, nil
	}

	tokens := strings.Split(s, "::")
	family, boardTok := splitFamilyToken(tokens[0])
	it, ok := attr.ParseInterfaceType(strings.ToUpper(family))
	if !ok {
		return nil, &visaerr.ParseError{Input: name, Pos: 0, Reason: "unknown interface type " + family}
	}

	board, boardAlias, isAlias, err := parseBoard(it, boardTok)
	if err != nil {
		return nil, &visaerr.ParseError{Input: name, Pos: 0, Reason: err.Error()}
	}

	rec := &Record{
		InterfaceType: it,
		Board:         board,
		BoardAlias:    boardAlias,
		BoardIsAlias:  isAlias,
		raw:           s,
		SecondaryAddress: NoAddress,
		USBInterface:     NoAddress,
	}

	rest := tokens[1:]
	switch it {
	case attr.GPIB:
		err = parseGPIB(rec, rest)
	case attr.ASRL:
		err = parseASRL(rec, rest)
	case attr.TCPIP:
		err = parseTCPIP(rec, rest)
	case attr.VICP:
		err = parseVICP(rec, rest)
	case attr.USB:
		err = parseUSB(rec, rest)
	case attr.PXI:
		err = parsePXI(rec, rest)
	case attr.VXI:
		err = parseVXI(rec, rest)
	default:
		err = &visaerr.ParseError{Input: name, Reason: "interface type not supported by grammar: " + it.String()}
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ResourceClassOf is a thin convenience wrapper for callers (e.g. the
// Resource Manager) that only need the class, not the full record.
func ResourceClassOf(name string) (attr.ResourceClass, error) {
	r, err := Parse(name)
	if err != nil {
		return 0, err
	}
	return r.ResourceClass, nil
}

// --- helpers -----------------------------------------------------------

// stripFold strips a case-insensitive prefix.
func stripFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) {
		return "", false
	}
	if !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// splitFamilyToken splits "GPIB1" into ("GPIB", "1"), "TCPIP" into
// ("TCPIP", ""), and "ASRL" into ("ASRL", "").
func splitFamilyToken(tok string) (family, boardPart string) {
	i := 0
	for i < len(tok) && !isDigit(tok[i]) {
		i++
	}
	return tok[:i], tok[i:]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseBoard(it attr.InterfaceType, boardTok string) (board int, alias string, isAlias bool, err error) {
	if boardTok == "" {
		return 0, "", false, nil
	}
	n, perr := parseNumber(boardTok)
	if perr != nil {
		if it == attr.ASRL {
			return 0, boardTok, true, nil
		}
		return 0, "", false, &invalidBoard{boardTok}
	}
	return n, "", false, nil
}

type invalidBoard struct{ tok string }

func (e *invalidBoard) Error() string { return "invalid board token " + e.tok }

// parseNumber accepts decimal, or hex when prefixed with 0x/0X.
func parseNumber(s string) (int, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 64)
		return int(v), err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	return int(v), err
}

func eqFold(a, b string) bool { return strings.EqualFold(a, b) }

func tryASRLAlias(s string) (*Record, bool) {
	// A bare backend-native serial alias: COM<n>, LPT<n>, or an OS device
	// path. Accepted as an ASRL/INSTR record with the original string
	// preserved for re-emission (spec §4.B "tie-breaks").
	upper := strings.ToUpper(s)
	isComLpt := (strings.HasPrefix(upper, "COM") || strings.HasPrefix(upper, "LPT")) &&
		len(upper) > 3 && allDigits(upper[3:])
	isDevicePath := strings.HasPrefix(s, "/") || strings.HasPrefix(s, `\\`)
	if !isComLpt && !isDevicePath {
		return nil, false
	}
	return &Record{
		InterfaceType:    attr.ASRL,
		ResourceClass:    attr.ClassInstr,
		BoardAlias:       s,
		BoardIsAlias:     true,
		SecondaryAddress: NoAddress,
		USBInterface:     NoAddress,
		raw:              s,
	}, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func noTrailing(tokens []string) error {
	if len(tokens) > 0 {
		return &visaerr.ParseError{Reason: "trailing tokens after longest valid match: " + strings.Join(tokens, "::")}
	}
	return nil
}
