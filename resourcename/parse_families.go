package resourcename

import (
	"strconv"
	"strings"

	"govisa/attr"
	"govisa/visaerr"
)

func parseGPIB(rec *Record, tokens []string) error {
	if len(tokens) == 0 {
		return &visaerr.ParseError{Reason: "GPIB resource requires a primary address or INTFC"}
	}
	if eqFold(tokens[0], "INTFC") {
		rec.ResourceClass = attr.ClassIntfc
		return noTrailing(tokens[1:])
	}
	primary, err := parseNumber(tokens[0])
	if err != nil || primary < 0 || primary > 30 {
		return &visaerr.ParseError{Reason: "GPIB primary address out of range [0,30]: " + tokens[0]}
	}
	rec.PrimaryAddress = primary
	rec.ResourceClass = attr.ClassInstr
	rest := tokens[1:]
	if len(rest) == 0 {
		return nil
	}
	if eqFold(rest[0], "INSTR") {
		return noTrailing(rest[1:])
	}
	secondary, err := parseNumber(rest[0])
	if err != nil || secondary < 0 || secondary > 30 {
		return &visaerr.ParseError{Reason: "GPIB secondary address out of range [0,30]: " + rest[0]}
	}
	rec.SecondaryAddress = secondary
	rest = rest[1:]
	if len(rest) == 0 {
		return nil
	}
	if eqFold(rest[0], "INSTR") {
		return noTrailing(rest[1:])
	}
	return &visaerr.ParseError{Reason: "unexpected token after GPIB secondary address: " + rest[0]}
}

func parseASRL(rec *Record, tokens []string) error {
	rec.ResourceClass = attr.ClassInstr
	if len(tokens) == 0 {
		return nil
	}
	if eqFold(tokens[0], "INSTR") {
		return noTrailing(tokens[1:])
	}
	return &visaerr.ParseError{Reason: "unexpected token after ASRL board: " + tokens[0]}
}

func parseTCPIP(rec *Record, tokens []string) error {
	if len(tokens) == 0 {
		return &visaerr.ParseError{Reason: "TCPIP resource requires a host address"}
	}
	rec.Host = tokens[0]
	rest := tokens[1:]
	rec.LANDevice = "inst0"
	rec.ResourceClass = attr.ClassInstr
	if len(rest) == 0 {
		return nil
	}
	if eqFold(rest[0], "INSTR") {
		return noTrailing(rest[1:])
	}
	if port, err := parseNumber(rest[0]); err == nil {
		if len(rest) >= 2 && eqFold(rest[1], "SOCKET") {
			if port < 1 || port > 65535 {
				return &visaerr.ParseError{Reason: "TCPIP port out of range [1,65535]: " + rest[0]}
			}
			rec.ResourceClass = attr.ClassSocket
			rec.Port = port
			rec.LANDevice = ""
			return noTrailing(rest[2:])
		}
	}
	// Otherwise this token is the LAN device name.
	rec.LANDevice = rest[0]
	rest = rest[1:]
	if len(rest) == 0 {
		return nil
	}
	if eqFold(rest[0], "INSTR") {
		return noTrailing(rest[1:])
	}
	return &visaerr.ParseError{Reason: "unexpected token after TCPIP LAN device name: " + rest[0]}
}

func parseVICP(rec *Record, tokens []string) error {
	if len(tokens) == 0 {
		return &visaerr.ParseError{Reason: "VICP resource requires a host address"}
	}
	rec.Host = tokens[0]
	rec.ResourceClass = attr.ClassInstr
	rest := tokens[1:]
	if len(rest) == 0 {
		return nil
	}
	if eqFold(rest[0], "INSTR") {
		return noTrailing(rest[1:])
	}
	return &visaerr.ParseError{Reason: "unexpected token after VICP host: " + rest[0]}
}

func parseUSB(rec *Record, tokens []string) error {
	if len(tokens) < 3 {
		return &visaerr.ParseError{Reason: "USB resource requires mfg_id::model_code::serial"}
	}
	mfg, err := parseNumber(tokens[0])
	if err != nil {
		return &visaerr.ParseError{Reason: "invalid USB manufacturer id: " + tokens[0]}
	}
	model, err := parseNumber(tokens[1])
	if err != nil {
		return &visaerr.ParseError{Reason: "invalid USB model code: " + tokens[1]}
	}
	rec.ManufacturerID = mfg
	rec.ModelCode = model
	rec.SerialNumber = tokens[2]
	rec.ResourceClass = attr.ClassInstr
	rest := tokens[3:]
	if len(rest) == 0 {
		return nil
	}
	if eqFold(rest[0], "INSTR") {
		return noTrailing(rest[1:])
	}
	if eqFold(rest[0], "RAW") {
		rec.ResourceClass = attr.ClassRaw
		return noTrailing(rest[1:])
	}
	iface, err := parseNumber(rest[0])
	if err != nil {
		return &visaerr.ParseError{Reason: "unexpected token after USB serial number: " + rest[0]}
	}
	rec.USBInterface = iface
	rest = rest[1:]
	if len(rest) == 0 {
		return nil
	}
	if eqFold(rest[0], "INSTR") {
		return noTrailing(rest[1:])
	}
	if eqFold(rest[0], "RAW") {
		rec.ResourceClass = attr.ClassRaw
		return noTrailing(rest[1:])
	}
	return &visaerr.ParseError{Reason: "unexpected token after USB interface number: " + rest[0]}
}

func parsePXI(rec *Record, tokens []string) error {
	rec.PXIFunction = 0
	if len(tokens) == 0 {
		return &visaerr.ParseError{Reason: "PXI resource requires at least one segment"}
	}
	if eqFold(tokens[0], "MEMACC") {
		rec.ResourceClass = attr.ClassMemacc
		return noTrailing(tokens[1:])
	}
	if bus, dev, fn, ok := parsePXICompact(tokens[0]); ok {
		rec.PXIBus, rec.PXIDevice, rec.PXIFunction = bus, dev, fn
		rec.ResourceClass = attr.ClassInstr
		rest := tokens[1:]
		if len(rest) == 0 {
			return nil
		}
		if eqFold(rest[0], "INSTR") {
			return noTrailing(rest[1:])
		}
		return &visaerr.ParseError{Reason: "unexpected token after PXI bus-device.function: " + rest[0]}
	}
	if strings.HasPrefix(strings.ToUpper(tokens[0]), "CHASSIS") {
		chassis, err := parseNumber(tokens[0][len("CHASSIS"):])
		if err != nil {
			return &visaerr.ParseError{Reason: "invalid PXI chassis: " + tokens[0]}
		}
		rest := tokens[1:]
		if len(rest) == 0 || !strings.HasPrefix(strings.ToUpper(rest[0]), "SLOT") {
			return &visaerr.ParseError{Reason: "PXI CHASSIS segment requires a SLOT segment"}
		}
		slot, err := parseNumber(rest[0][len("SLOT"):])
		if err != nil {
			return &visaerr.ParseError{Reason: "invalid PXI slot: " + rest[0]}
		}
		rec.PXIChassis = chassis
		rec.PXISlot = slot
		rec.PXIHasSlot = true
		rec.ResourceClass = attr.ClassInstr
		rest = rest[1:]
		if len(rest) > 0 && strings.HasPrefix(strings.ToUpper(rest[0]), "FUNC") {
			fn, err := parseNumber(rest[0][len("FUNC"):])
			if err != nil {
				return &visaerr.ParseError{Reason: "invalid PXI function: " + rest[0]}
			}
			rec.PXIFunction = fn
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return nil
		}
		if eqFold(rest[0], "INSTR") {
			return noTrailing(rest[1:])
		}
		return &visaerr.ParseError{Reason: "unexpected token after PXI slot/function: " + rest[0]}
	}
	n, err := parseNumber(tokens[0])
	if err != nil {
		return &visaerr.ParseError{Reason: "invalid PXI segment: " + tokens[0]}
	}
	rest := tokens[1:]
	if len(rest) > 0 && eqFold(rest[0], "BACKPLANE") {
		rec.PXIChassis = n
		rec.ResourceClass = attr.ClassBackplane
		return noTrailing(rest[1:])
	}
	if len(rest) == 0 {
		return &visaerr.ParseError{Reason: "PXI bus segment requires a device segment"}
	}
	device, err := parseNumber(rest[0])
	if err != nil {
		return &visaerr.ParseError{Reason: "invalid PXI device: " + rest[0]}
	}
	rec.PXIBus = n
	rec.PXIDevice = device
	rec.ResourceClass = attr.ClassInstr
	rest = rest[1:]
	if len(rest) == 0 {
		return nil
	}
	if fn, err := parseNumber(rest[0]); err == nil {
		rec.PXIFunction = fn
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return nil
	}
	if eqFold(rest[0], "INSTR") {
		return noTrailing(rest[1:])
	}
	return &visaerr.ParseError{Reason: "unexpected token after PXI device/function: " + rest[0]}
}

// parsePXICompact matches the "<bus>-<device>[.<function>]" compact form.
func parsePXICompact(tok string) (bus, device, fn int, ok bool) {
	dash := strings.IndexByte(tok, '-')
	if dash < 0 {
		return 0, 0, 0, false
	}
	busPart, rest := tok[:dash], tok[dash+1:]
	b, err := strconv.Atoi(busPart)
	if err != nil {
		return 0, 0, 0, false
	}
	devicePart := rest
	fnPart := ""
	if dot := strings.IndexByte(rest, '.'); dot >= 0 {
		devicePart, fnPart = rest[:dot], rest[dot+1:]
	}
	d, err := strconv.Atoi(devicePart)
	if err != nil {
		return 0, 0, 0, false
	}
	f := 0
	if fnPart != "" {
		f, err = strconv.Atoi(fnPart)
		if err != nil {
			return 0, 0, 0, false
		}
	}
	return b, d, f, true
}

func parseVXI(rec *Record, tokens []string) error {
	if len(tokens) == 0 {
		return &visaerr.ParseError{Reason: "VXI resource requires a resource class or logical address"}
	}
	switch {
	case eqFold(tokens[0], "MEMACC"):
		rec.ResourceClass = attr.ClassMemacc
		return noTrailing(tokens[1:])
	case eqFold(tokens[0], "SERVANT"):
		rec.ResourceClass = attr.ClassServant
		return noTrailing(tokens[1:])
	case eqFold(tokens[0], "BACKPLANE"):
		rec.ResourceClass = attr.ClassBackplane
		return noTrailing(tokens[1:])
	}
	addr, err := parseNumber(tokens[0])
	if err != nil {
		return &visaerr.ParseError{Reason: "invalid VXI logical address: " + tokens[0]}
	}
	rec.LogicalAddress = addr
	rec.HasLogicalAddr = true
	rest := tokens[1:]
	if len(rest) == 0 {
		rec.ResourceClass = attr.ClassInstr
		return nil
	}
	if eqFold(rest[0], "BACKPLANE") {
		rec.ResourceClass = attr.ClassBackplane
		return noTrailing(rest[1:])
	}
	if eqFold(rest[0], "INSTR") {
		rec.ResourceClass = attr.ClassInstr
		return noTrailing(rest[1:])
	}
	return &visaerr.ParseError{Reason: "unexpected token after VXI logical address: " + rest[0]}
}

func parseRemote(original, rest string) (*Record, error) {
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return nil, &visaerr.ParseError{Input: original, Reason: "visa:// resource missing /remote_resource"}
	}
	hostPort, inner := rest[:slash], rest[slash+1:]
	host := hostPort
	port := 0
	hasPort := false
	if c := strings.IndexByte(hostPort, ':'); c >= 0 {
		host = hostPort[:c]
		p, err := strconv.Atoi(hostPort[c+1:])
		if err != nil || p < 1 || p > 65535 {
			return nil, &visaerr.ParseError{Input: original, Reason: "invalid visa:// server port"}
		}
		port = p
		hasPort = true
	}
	if _, isNested := stripFold(inner, "visa://"); isNested {
		return nil, &visaerr.ParseError{Input: original, Reason: "visa:// resources do not nest"}
	}
	innerRec, err := Parse(inner)
	if err != nil {
		return nil, err
	}
	return &Record{
		InterfaceType:    innerRec.InterfaceType,
		ResourceClass:    innerRec.ResourceClass,
		RemoteHost:       host,
		RemotePort:       port,
		HasPort:          hasPort,
		Remote:           innerRec,
		SecondaryAddress: NoAddress,
		USBInterface:     NoAddress,
		raw:              original,
	}, nil
}
