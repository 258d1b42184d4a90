package wire

import (
	"net/url"
	"strconv"
	"strings"
)

// parseMetadata parses the fields of an "M"-prefixed packet. fields[0]
// is the literal "M" and has already been consumed by the caller.
func parseMetadata(fields []string) Packet {
	// fields[0] == "M"; a metadata packet needs at least 10 total
	// ':'-separated fields (through fps).
	if len(fields) < 10 {
		return Unknown("metadata packet has too few fields")
	}

	fileName, err := url.QueryUnescape(fields[2])
	if err != nil {
		return Unknown("metadata file_name is not valid percent-encoding")
	}
	fileType, err := url.QueryUnescape(fields[3])
	if err != nil {
		return Unknown("metadata file_type is not valid percent-encoding")
	}

	fileSize, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		fileSize = -1
	}

	numChunks, err := strconv.Atoi(fields[5])
	if err != nil {
		return Unknown("metadata num_chunks is not an integer")
	}

	m := &FileMetadata{
		Version:        fields[1],
		FileName:       fileName,
		FileType:       fileType,
		FileSize:       fileSize,
		NumChunks:      numChunks,
		PacketCount:    0,
		MaxDegree:      1,
		Density:        1.0,
		FPS:            "30",
		ChunkSize:      1024,
		Redundancy:     0,
		ECL:            "L",
		MetaChecksum:   "",
		FileChecksum:   "",
		EncoderVersion: "3.0",
		LTParams:       "",
	}

	if len(fields) > 6 {
		if v, err := strconv.Atoi(fields[6]); err == nil {
			m.PacketCount = v
		}
	}
	if len(fields) > 7 {
		if v, err := strconv.Atoi(fields[7]); err == nil {
			m.MaxDegree = v
		}
	}
	if len(fields) > 8 {
		if v, err := strconv.ParseFloat(fields[8], 64); err == nil {
			m.Density = v
		}
	}
	if len(fields) > 9 {
		m.FPS = fields[9]
	}
	if len(fields) > 10 {
		if v, err := strconv.Atoi(fields[10]); err == nil {
			m.ChunkSize = v
		}
	}
	if len(fields) > 11 {
		if v, err := strconv.Atoi(fields[11]); err == nil {
			m.Redundancy = v
		}
	}
	if len(fields) > 12 {
		m.ECL = fields[12]
	}
	if len(fields) > 13 {
		m.MetaChecksum = fields[13]
	}
	if len(fields) > 14 {
		m.FileChecksum = fields[14]
	}
	if len(fields) > 15 {
		m.EncoderVersion = fields[15]
	}
	if len(fields) > 16 {
		m.LTParams = strings.Join(fields[16:], ":")
	}

	return Packet{Kind: KindMetadata, Metadata: m}
}
