package router

import (
	"fmt"
	"time"

	"github.com/five82/qrdecode/internal/wire"
)

// Router maintains the process-wide file_name -> FileState table, a
// file_id -> file_name secondary index, and the orphan bucket for data
// packets that arrive before their metadata.
type Router struct {
	byName   map[string]*FileState
	byFileID map[string]string
	now      func() time.Time
}

// New creates an empty router. now defaults to time.Now when nil; it
// exists as a seam for deterministic tests.
func New(now func() time.Time) *Router {
	if now == nil {
		now = time.Now
	}
	return &Router{
		byName:   make(map[string]*FileState),
		byFileID: make(map[string]string),
		now:      now,
	}
}

// RouteMetadata applies a metadata packet: creates a new FileState on
// first sighting of file_name, or refreshes last_seen_ts on a known
// one (metadata is otherwise immutable per file).
func (r *Router) RouteMetadata(m *wire.FileMetadata) *FileState {
	if fs, ok := r.byName[m.FileName]; ok {
		fs.LastSeenTS = r.now()
		return fs
	}
	fileID := ComputeFileID(m)
	fs := newFileState(m.FileName, m, fileID, false, r.now())
	r.byName[m.FileName] = fs
	r.byFileID[fileID] = m.FileName
	return fs
}

// RouteData selects the target FileState(s) for a data packet by the
// three-tier rule (direct file-id match, chunk-count fan-out, orphan
// bucket), applies the payload to each target's decoder unless the
// packet_id has already been seen by that target, and returns the
// FileStates the packet actually reached the decoder for (duplicates
// excluded).
func (r *Router) RouteData(d *wire.DataPacket) []*FileState {
	targets := r.selectTargets(d)
	touched := make([]*FileState, 0, len(targets))
	for _, fs := range targets {
		if fs.SeenPacket(d.PacketID) {
			continue
		}
		applyData(fs, d)
		fs.Touch(r.now())
		touched = append(touched, fs)
	}
	return touched
}

func (r *Router) selectTargets(d *wire.DataPacket) []*FileState {
	// Rule 1: direct file-id match.
	if d.FileID != "" {
		if name, ok := r.byFileID[d.FileID]; ok {
			if fs, ok := r.byName[name]; ok {
				return []*FileState{fs}
			}
		}
	}

	// Rule 2: chunk-count fan-out across every open FileState (including
	// a previously synthesized orphan for the same num_chunks).
	var matched []*FileState
	for _, fs := range r.byName {
		if fs.Completed {
			continue
		}
		if fs.Metadata != nil && fs.Metadata.NumChunks == d.NumChunks {
			matched = append(matched, fs)
		}
	}
	if len(matched) > 0 {
		return matched
	}

	// Rule 3: orphan bucket. Once created it is found again via rule 2
	// on subsequent packets; it is never reparented by later metadata.
	orphanName := orphanFileName(d.NumChunks)
	md := &wire.FileMetadata{FileName: orphanName, NumChunks: d.NumChunks, FileSize: 0}
	fs := newFileState(orphanName, md, "", true, r.now())
	r.byName[orphanName] = fs
	return []*FileState{fs}
}

func orphanFileName(numChunks int) string {
	return fmt.Sprintf("unknown_%dchunks", numChunks)
}

func applyData(fs *FileState, d *wire.DataPacket) {
	switch d.Kind {
	case wire.DataSystematic:
		for _, rec := range d.Records {
			fs.Decoder.AddDirectChunk(rec.Index, rec.Bytes)
		}
	case wire.DataCoded:
		fs.Decoder.AddCodedPacket(d.SourceIndices, d.Payload)
	}
}

// Files returns every FileState currently in the table, in no
// particular order.
func (r *Router) Files() []*FileState {
	out := make([]*FileState, 0, len(r.byName))
	for _, fs := range r.byName {
		out = append(out, fs)
	}
	return out
}

// Get looks up a FileState by file_name.
func (r *Router) Get(name string) (*FileState, bool) {
	fs, ok := r.byName[name]
	return fs, ok
}
