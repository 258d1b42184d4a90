package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON decode events, one per line.
type JSONReporter struct {
	writer   io.Writer
	mu       sync.Mutex
	lastPct  map[string]int
	lastTime map[string]time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{
		writer:   os.Stdout,
		lastPct:  make(map[string]int),
		lastTime: make(map[string]time.Time),
	}
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:   w,
		lastPct:  make(map[string]int),
		lastTime: make(map[string]time.Time),
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) Hardware(summary HardwareSummary) {
	r.write(map[string]interface{}{
		"type":      "hardware",
		"hostname":  summary.Hostname,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) SessionStarted(info SessionStartInfo) {
	r.write(map[string]interface{}{
		"type":        "session_started",
		"input":       info.Input,
		"is_camera":   info.IsCamera,
		"output_dir":  info.OutputDir,
		"sample_rate": info.SampleRate,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) FileDiscovered(file FileDiscovered) {
	r.write(map[string]interface{}{
		"type":       "file_discovered",
		"file_name":  file.FileName,
		"file_id":    file.FileID,
		"file_size":  file.FileSize,
		"num_chunks": file.NumChunks,
		"timestamp":  r.timestamp(),
	})
}

// PacketProgress is rate-limited per file: at most one event per
// percentage point, or every 5 seconds of silence, or on completion.
func (r *JSONReporter) PacketProgress(progress PacketProgress) {
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent)
	now := time.Now()

	r.mu.Lock()
	last, seen := r.lastPct[progress.FileName]
	lastAt := r.lastTime[progress.FileName]
	intervalElapsed := lastAt.IsZero() || now.Sub(lastAt) >= minInterval
	shouldEmit := !seen || bucket > last || intervalElapsed || progress.Percent >= 100.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if !seen || bucket > last {
		r.lastPct[progress.FileName] = bucket
	}
	r.lastTime[progress.FileName] = now
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":            "packet_progress",
		"file_name":       progress.FileName,
		"chunks_received": progress.ChunksReceived,
		"chunks_total":    progress.ChunksTotal,
		"percent":         progress.Percent,
		"duplicate":       progress.Duplicate,
		"timestamp":       r.timestamp(),
	})
}

func (r *JSONReporter) VerificationResult(result VerificationResult) {
	r.write(map[string]interface{}{
		"type":           "verification_result",
		"file_name":      result.FileName,
		"classification": result.Classification,
		"algorithm":      result.Algorithm,
		"timestamp":      r.timestamp(),
	})
}

func (r *JSONReporter) FileSaved(saved FileSaved) {
	r.write(map[string]interface{}{
		"type":        "file_saved",
		"file_name":   saved.FileName,
		"output_path": saved.OutputPath,
		"bytes":       saved.Bytes,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]interface{}{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Verbose(message string) {
	r.write(map[string]interface{}{
		"type":      "verbose",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) SessionSummary(summary SessionSummary) {
	files := make([]map[string]interface{}, len(summary.Files))
	for i, f := range summary.Files {
		files[i] = map[string]interface{}{
			"file_name":       f.FileName,
			"classification":  f.Classification,
			"chunks_received": f.ChunksReceived,
			"chunks_total":    f.ChunksTotal,
		}
	}

	r.write(map[string]interface{}{
		"type":            "session_summary",
		"total_files":     summary.TotalFiles,
		"completed_files": summary.CompletedFiles,
		"failed_files":    summary.FailedFiles,
		"duration_seconds": int64(summary.Duration.Seconds()),
		"files":           files,
		"timestamp":       r.timestamp(),
	})
}
