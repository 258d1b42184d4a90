// Package router maintains the per-session router table: one
// fountain.Decoder per logical file, selected for each incoming
// wire.Packet by file-id, by chunk-count fallback, or parked in an
// orphan bucket when no file claims it yet.
package router

import (
	"time"

	"github.com/five82/qrdecode/internal/fountain"
	"github.com/five82/qrdecode/internal/wire"
)

// FileState is the per-file mutable record the router and pipeline
// operate on.
type FileState struct {
	FileName string
	FileID   string
	Metadata *wire.FileMetadata
	Decoder  *fountain.Decoder

	seenPacketIDs map[uint64]bool

	FirstSeenTS time.Time
	LastSeenTS  time.Time

	Completed bool
	Saved     bool

	// Classification records the sink's verification outcome
	// ("verified", "corrupt", "unverified") once a save has been
	// attempted; empty until then.
	Classification string

	DuplicateCount int
	InvalidCount   int

	// Orphan is true for a FileState synthesized from a data packet
	// whose num_chunks matched no known file; it is never reparented
	// by later metadata.
	Orphan bool
}

func newFileState(name string, md *wire.FileMetadata, fileID string, orphan bool, now time.Time) *FileState {
	return &FileState{
		FileName:      name,
		FileID:        fileID,
		Metadata:      md,
		Decoder:       fountain.NewDecoder(md.NumChunks),
		seenPacketIDs: make(map[uint64]bool),
		FirstSeenTS:   now,
		LastSeenTS:    now,
		Orphan:        orphan,
	}
}

// SeenPacket records packet_id and reports whether it had already been
// seen (a duplicate). Duplicate packets should be dropped before
// reaching the decoder and counted in DuplicateCount.
func (f *FileState) SeenPacket(packetID uint64) (duplicate bool) {
	if f.seenPacketIDs[packetID] {
		f.DuplicateCount++
		return true
	}
	f.seenPacketIDs[packetID] = true
	return false
}

// Touch refreshes LastSeenTS and, if the decoder has reached
// completion since the last check, marks the file completed.
func (f *FileState) Touch(now time.Time) {
	f.LastSeenTS = now
	if f.Decoder.Complete() {
		f.Completed = true
	}
}
