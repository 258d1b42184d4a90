// Package sink persists reconstructed files to the output directory:
// atomic writes for completed files, JSON descriptors for incomplete
// ones, and an idempotent record of what has already been saved.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/five82/qrdecode/internal/integrity"
	"github.com/five82/qrdecode/internal/router"
	"github.com/five82/qrdecode/internal/util"
)

// SaveOutcome describes the result of a completed-file save.
type SaveOutcome struct {
	Classification integrity.Classification
	Path           string
	Bytes          int64
	AlreadySaved   bool
}

// PartialDescriptor mirrors the <name>.partial.json persistence
// layout for an incomplete file.
type PartialDescriptor struct {
	FileName            string `json:"file_name"`
	FileSize            int64  `json:"file_size"`
	NumChunks           int    `json:"num_chunks"`
	RecoveredChunks     int    `json:"recovered_chunks"`
	Percentage          int    `json:"percentage"`
	MissingChunks       []int  `json:"missing_chunks"`
	PendingCodedPackets int    `json:"pending_coded_packets"`
}

// Sink writes reconstructed files under outputDir. It owns the
// "already saved" set and is safe for concurrent use, though the
// coordinator is expected to drive it from a single task.
type Sink struct {
	outputDir string

	mu    sync.Mutex
	saved map[string]bool
}

// New creates a Sink writing under outputDir.
func New(outputDir string) *Sink {
	return &Sink{
		outputDir: outputDir,
		saved:     make(map[string]bool),
	}
}

// Save assembles, verifies, and atomically writes fs's reconstructed
// file. Calling Save twice for the same file name after a successful
// save is a no-op. A corrupt outcome does not mark the file as saved:
// the caller may retry once later packets supersede the bad recovery.
func (s *Sink) Save(fs *router.FileState) (SaveOutcome, error) {
	s.mu.Lock()
	if s.saved[fs.FileName] {
		s.mu.Unlock()
		return SaveOutcome{AlreadySaved: true}, nil
	}
	s.mu.Unlock()

	var fileSize int64 = -1
	if fs.Metadata != nil {
		fileSize = fs.Metadata.FileSize
	}

	data, err := fs.Decoder.Finalize(fileSize)
	if err != nil {
		return SaveOutcome{}, fmt.Errorf("sink: finalize %s: %w", fs.FileName, err)
	}

	checksum := ""
	if fs.Metadata != nil {
		checksum = fs.Metadata.FileChecksum
	}
	result := integrity.Verify(checksum, data)

	if result.Classification == integrity.Corrupt {
		failedPath := util.ResolveSinkPath(s.outputDir, fs.FileName+".failed")
		if err := writeAtomic(failedPath, data); err != nil {
			return SaveOutcome{}, fmt.Errorf("sink: writing quarantined %s: %w", fs.FileName, err)
		}
		return SaveOutcome{Classification: result.Classification, Path: failedPath, Bytes: int64(len(data))}, nil
	}

	path := util.ResolveSinkPath(s.outputDir, fs.FileName)
	if err := writeAtomic(path, data); err != nil {
		return SaveOutcome{}, fmt.Errorf("sink: writing %s: %w", fs.FileName, err)
	}

	s.mu.Lock()
	s.saved[fs.FileName] = true
	s.mu.Unlock()
	fs.Saved = true

	return SaveOutcome{Classification: result.Classification, Path: path, Bytes: int64(len(data))}, nil
}

// SavePartial writes a JSON descriptor for a file that has not
// completed, for future resumption.
func (s *Sink) SavePartial(fs *router.FileState) error {
	recovered, total := fs.Decoder.Progress()
	percentage := 0
	if total > 0 {
		percentage = recovered * 100 / total
	}

	var fileSize int64 = -1
	if fs.Metadata != nil {
		fileSize = fs.Metadata.FileSize
	}

	descriptor := PartialDescriptor{
		FileName:            fs.FileName,
		FileSize:            fileSize,
		NumChunks:           total,
		RecoveredChunks:     recovered,
		Percentage:          percentage,
		MissingChunks:       fs.Decoder.MissingChunks(),
		PendingCodedPackets: fs.Decoder.PendingCodedCount(),
	}

	data, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return fmt.Errorf("sink: marshal partial descriptor for %s: %w", fs.FileName, err)
	}

	path := util.ResolveSinkPath(s.outputDir, fs.FileName+".partial.json")
	return writeAtomic(path, data)
}

// writeAtomic writes data to path via a sibling <path>.tmp file,
// fsync, then rename, so a crash mid-write never leaves a partially
// written file at path.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsync %s: %w", tmpPath, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s to %s: %w", tmpPath, path, err)
	}

	return nil
}
