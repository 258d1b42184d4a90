package router

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/five82/qrdecode/internal/wire"
)

// ComputeFileID derives the eight-lowercase-hex-character file id for
// a file's metadata: the first 8 chars of file_checksum if present,
// else the first 8 chars of MD5(file_name).
func ComputeFileID(m *wire.FileMetadata) string {
	if m.FileChecksum != "" {
		return firstEight(strings.ToLower(m.FileChecksum))
	}
	sum := md5.Sum([]byte(m.FileName))
	return firstEight(hex.EncodeToString(sum[:]))
}

func firstEight(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}
