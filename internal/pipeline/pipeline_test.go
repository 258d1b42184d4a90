package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/five82/qrdecode/internal/frame"
	"github.com/five82/qrdecode/internal/qrscan"
	"github.com/five82/qrdecode/internal/reporter"
	"github.com/five82/qrdecode/internal/router"
	"github.com/five82/qrdecode/internal/sink"
)

// scriptedDecoder maps a frame's first pixel byte (used as a stand-in
// for frame index in these tests) to a fixed set of detections.
type scriptedDecoder struct {
	byFrame map[byte][]qrscan.RawDetection
}

func (s *scriptedDecoder) Decode(pixels []byte, width, height int) []qrscan.RawDetection {
	if len(pixels) == 0 {
		return nil
	}
	return s.byFrame[pixels[0]]
}

func frameWithPayload(index int) frame.Frame {
	return frame.Frame{Index: index, Width: 1, Height: 1, Pixels: []byte{byte(index)}}
}

func TestRunReconstructsAndSavesSingleChunkFile(t *testing.T) {
	dir := t.TempDir()

	script := &scriptedDecoder{byFrame: map[byte][]qrscan.RawDetection{
		0: {{Payload: "M:1:hello.txt:text/plain:5:1:0:1:1.0:30"}},
		1: {{Payload: "D:0:0:0:1:1:aGVsbG8="}},
	}}

	rtr := router.New(nil)
	snk := sink.New(dir)
	p := New(Config{Workers: 2, QueueDepth: 4, DedupWindow: 8},
		func() qrscan.RawDecoder { return script }, rtr, snk, reporter.NullReporter{})

	frames := make(chan frame.Frame, 2)
	frames <- frameWithPayload(0)
	frames <- frameWithPayload(1)
	close(frames)

	errc := make(chan error, 1)
	errc <- nil
	close(errc)

	if err := p.Run(context.Background(), frames, errc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	fs, ok := rtr.Get("hello.txt")
	if !ok {
		t.Fatal("expected hello.txt to be routed")
	}
	if !fs.Completed {
		t.Fatal("expected hello.txt to be complete")
	}

	got, err := os.ReadFile(filepath.Join(dir, "hello.txt"))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("saved content = %q, want %q", got, "hello")
	}
}

func TestRunWritesPartialDescriptorForIncompleteFile(t *testing.T) {
	dir := t.TempDir()

	// num_chunks=2 but only one chunk ever arrives.
	script := &scriptedDecoder{byFrame: map[byte][]qrscan.RawDetection{
		0: {{Payload: "M:1:partial.bin:application/octet-stream:10:2:0:1:1.0:30"}},
		1: {{Payload: "D:0:0:0:2:1:aGVsbG8="}},
	}}

	rtr := router.New(nil)
	snk := sink.New(dir)
	p := New(Config{Workers: 1, QueueDepth: 2, DedupWindow: 4},
		func() qrscan.RawDecoder { return script }, rtr, snk, reporter.NullReporter{})

	frames := make(chan frame.Frame, 2)
	frames <- frameWithPayload(0)
	frames <- frameWithPayload(1)
	close(frames)

	errc := make(chan error, 1)
	errc <- nil
	close(errc)

	if err := p.Run(context.Background(), frames, errc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "partial.bin.partial.json")); err != nil {
		t.Fatalf("expected partial descriptor: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "partial.bin")); !os.IsNotExist(err) {
		t.Fatal("an incomplete file should not be saved to its final path")
	}
}

func TestRunReportsNoFramesFound(t *testing.T) {
	dir := t.TempDir()
	rtr := router.New(nil)
	snk := sink.New(dir)
	p := New(Config{Workers: 1, QueueDepth: 1},
		func() qrscan.RawDecoder { return &scriptedDecoder{} }, rtr, snk, reporter.NullReporter{})

	frames := make(chan frame.Frame)
	close(frames)
	errc := make(chan error, 1)
	errc <- nil
	close(errc)

	if err := p.Run(context.Background(), frames, errc); err == nil {
		t.Fatal("expected an error when zero frames are processed")
	}
}

func TestSummarizeCountsCompletedAndIncompleteFiles(t *testing.T) {
	dir := t.TempDir()
	script := &scriptedDecoder{byFrame: map[byte][]qrscan.RawDetection{
		0: {{Payload: "M:1:done.txt:text/plain:5:1:0:1:1.0:30"}},
		1: {{Payload: "D:0:0:0:1:1:aGVsbG8="}},
		2: {{Payload: "M:1:stuck.bin:application/octet-stream:10:2:0:1:1.0:30"}},
	}}

	rtr := router.New(nil)
	snk := sink.New(dir)
	p := New(Config{Workers: 1, QueueDepth: 4, DedupWindow: 4},
		func() qrscan.RawDecoder { return script }, rtr, snk, reporter.NullReporter{})

	frames := make(chan frame.Frame, 3)
	frames <- frameWithPayload(0)
	frames <- frameWithPayload(1)
	frames <- frameWithPayload(2)
	close(frames)
	errc := make(chan error, 1)
	errc <- nil
	close(errc)

	if err := p.Run(context.Background(), frames, errc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	summary := Summarize(rtr, time.Now().Add(-time.Second))
	if summary.TotalFiles != 2 {
		t.Fatalf("TotalFiles = %d, want 2", summary.TotalFiles)
	}
	if summary.CompletedFiles != 1 || summary.FailedFiles != 1 {
		t.Fatalf("CompletedFiles=%d FailedFiles=%d, want 1/1", summary.CompletedFiles, summary.FailedFiles)
	}
}
