package wire

import "strings"

// Parse decodes a single QR payload string into a Packet. It never
// returns an error; malformed or unrecognized input is reported as a
// Packet with Kind == KindUnknown and a human-readable Reason.
func Parse(s string) Packet {
	fields := strings.Split(s, ":")
	if len(fields) == 0 {
		return Unknown("empty packet")
	}

	switch fields[0] {
	case "M":
		return parseMetadata(fields)
	case "D":
		return parseData(fields)
	default:
		return Unknown("unrecognized prefix")
	}
}
