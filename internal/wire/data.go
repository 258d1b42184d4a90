package wire

import (
	"encoding/base64"
	"strconv"
	"strings"
)

func isHex8(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// parseData parses the fields of a "D"-prefixed packet. fields[0] is
// the literal "D" and has already been consumed by the caller.
//
// Two wire shapes share this prefix: file-scoped (carries an 8-hex-char
// file_id before packet_id) and legacy (omits it). The shapes are
// disambiguated structurally: file-scoped requires at least 8 total
// fields with fields[1] matching an 8-hex-char id; otherwise the
// legacy shape is assumed.
func parseData(fields []string) Packet {
	var fileID string
	var rest []string

	if len(fields) >= 8 && isHex8(fields[1]) {
		fileID = strings.ToLower(fields[1])
		rest = fields[2:]
	} else if len(fields) >= 7 {
		rest = fields[1:]
	} else {
		return Unknown("data packet has too few fields")
	}

	// rest: packet_id, seed, seed_base, num_chunks, chunk_count, body...
	packetID, err := strconv.ParseUint(rest[0], 10, 64)
	if err != nil {
		return Unknown("data packet_id is not an integer")
	}
	seed, err := strconv.ParseUint(rest[1], 10, 64)
	if err != nil {
		return Unknown("data seed is not an integer")
	}
	seedBase, err := strconv.ParseUint(rest[2], 10, 64)
	if err != nil {
		return Unknown("data seed_base is not an integer")
	}
	numChunks, err := strconv.Atoi(rest[3])
	if err != nil {
		return Unknown("data num_chunks is not an integer")
	}
	if numChunks <= 0 {
		return Unknown("data num_chunks must be positive")
	}
	chunkCount, err := strconv.Atoi(rest[4])
	if err != nil {
		return Unknown("data chunk_count is not an integer")
	}

	body := strings.Join(rest[5:], ":")

	d := &DataPacket{
		FileID:     fileID,
		PacketID:   packetID,
		Seed:       seed,
		SeedBase:   seedBase,
		NumChunks:  numChunks,
		ChunkCount: chunkCount,
	}

	switch {
	case strings.Contains(body, "|"):
		return parseSystematicMulti(d, body)
	case isCodedBody(body):
		return parseCoded(d, body)
	default:
		return parseSystematicSingle(d, body)
	}
}

// isCodedBody reports whether body's source-index segment (everything
// before the final ':') contains a comma, the coded-packet marker.
func isCodedBody(body string) bool {
	idx := strings.LastIndex(body, ":")
	if idx < 0 {
		return false
	}
	return strings.Contains(body[:idx], ",")
}

func parseSystematicMulti(d *DataPacket, body string) Packet {
	parts := strings.Split(body, "|")
	records := make([]ChunkRecord, 0, len(parts))
	for _, part := range parts {
		fields := strings.SplitN(part, ":", 2)
		if len(fields) != 2 {
			return Unknown("systematic record missing ':' separator")
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return Unknown("systematic record chunk_index is not an integer")
		}
		if idx < 0 || idx >= d.NumChunks {
			return Unknown("systematic record chunk_index out of range")
		}
		bytes, err := base64.StdEncoding.DecodeString(fields[1])
		if err != nil {
			return Unknown("systematic record payload is not valid base64")
		}
		records = append(records, ChunkRecord{Index: idx, Bytes: bytes})
	}
	if d.ChunkCount != len(records) {
		return Unknown("chunk_count does not match number of systematic records")
	}
	d.Kind = DataSystematic
	d.Records = records
	return Packet{Kind: KindData, Data: d}
}

func parseCoded(d *DataPacket, body string) Packet {
	fields := strings.SplitN(body, ":", 2)
	if len(fields) != 2 {
		return Unknown("coded packet missing ':' separator")
	}
	indexStrs := strings.Split(fields[0], ",")
	indices := make([]int, 0, len(indexStrs))
	for _, s := range indexStrs {
		idx, err := strconv.Atoi(s)
		if err != nil {
			return Unknown("coded source_index is not an integer")
		}
		if idx < 0 || idx >= d.NumChunks {
			return Unknown("coded source_index out of range")
		}
		indices = append(indices, idx)
	}
	payload, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return Unknown("coded payload is not valid base64")
	}
	d.Kind = DataCoded
	d.SourceIndices = indices
	d.Payload = payload
	return Packet{Kind: KindData, Data: d}
}

func parseSystematicSingle(d *DataPacket, body string) Packet {
	payload := body
	if idx := strings.LastIndex(body, ":"); idx >= 0 {
		payload = body[idx+1:]
	}
	bytes, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Unknown("systematic single-chunk payload is not valid base64")
	}
	idx := int(d.PacketID % uint64(d.NumChunks))
	d.Kind = DataSystematic
	d.Records = []ChunkRecord{{Index: idx, Bytes: bytes}}
	return Packet{Kind: KindData, Data: d}
}
