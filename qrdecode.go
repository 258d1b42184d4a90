// Package qrdecode provides a Go library for reconstructing files from
// a video recording (or live camera feed) of a fountain-coded QR
// sequence.
//
// qrdecode watches each frame for QR codes, feeds recognized payloads
// through a Luby-transform decoder per declared file, verifies the
// checksum once a file is complete, and writes the result to an output
// directory.
//
// Basic usage:
//
//	d, err := qrdecode.New(
//	    qrdecode.WithOutputDir("out/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := d.Decode(ctx, "capture.mp4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("recovered %d/%d files\n", summary.CompletedFiles, summary.TotalFiles)
package qrdecode

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/qrdecode/internal/config"
	"github.com/five82/qrdecode/internal/discovery"
	"github.com/five82/qrdecode/internal/frame"
	"github.com/five82/qrdecode/internal/pipeline"
	"github.com/five82/qrdecode/internal/qrscan"
	"github.com/five82/qrdecode/internal/reporter"
	"github.com/five82/qrdecode/internal/router"
	"github.com/five82/qrdecode/internal/sink"
	"github.com/five82/qrdecode/internal/util"
)

// Re-export the reporter types a caller needs to build its own Reporter.
type (
	Reporter           = reporter.Reporter
	SessionSummary     = reporter.SessionSummary
	FileSummary        = reporter.FileSummary
	HardwareSummary    = reporter.HardwareSummary
	SessionStartInfo   = reporter.SessionStartInfo
	FileDiscovered     = reporter.FileDiscovered
	PacketProgress     = reporter.PacketProgress
	VerificationResult = reporter.VerificationResult
	FileSaved          = reporter.FileSaved
	ReporterError      = reporter.ReporterError
)

// Decoder is the main entry point for decoding a fountain-coded QR
// capture.
type Decoder struct {
	config *config.Config
}

// Option configures the Decoder.
type Option func(*config.Config)

// New creates a new Decoder with the given options.
func New(opts ...Option) (*Decoder, error) {
	cfg := config.NewConfig(".", config.DefaultOutputDir)
	cfg.Workers = config.AutoWorkerCount(util.LogicalCores())

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Decoder{config: cfg}, nil
}

// WithOutputDir sets the session output directory.
func WithOutputDir(dir string) Option {
	return func(c *config.Config) { c.OutputDir = dir }
}

// WithCamera marks the input as a live camera device rather than a
// recorded file.
func WithCamera() Option {
	return func(c *config.Config) { c.IsCamera = true }
}

// WithSampleRate sets the frame sampling rate in frames per second.
func WithSampleRate(fps float64) Option {
	return func(c *config.Config) { c.SampleRateFPS = fps }
}

// WithStartOffset seeks into the input before sampling begins.
func WithStartOffset(secs float64) Option {
	return func(c *config.Config) { c.StartOffsetSecs = secs }
}

// WithMaxFrames bounds the number of frames sampled; 0 means unbounded.
func WithMaxFrames(n int) Option {
	return func(c *config.Config) { c.MaxFrames = n }
}

// WithSkip processes every Nth sampled frame.
func WithSkip(n int) Option {
	return func(c *config.Config) { c.Skip = n }
}

// WithThreads sets the QR-extraction worker pool size.
func WithThreads(n int) Option {
	return func(c *config.Config) { c.Workers = n }
}

// WithTimeout bounds total wall time for the decode session; 0 means
// no timeout.
func WithTimeout(secs uint64) Option {
	return func(c *config.Config) { c.TimeoutSecs = secs }
}

// WithVerbose enables verbose reporter events.
func WithVerbose() Option {
	return func(c *config.Config) { c.Verbose = true }
}

// Decode decodes input using a null reporter and returns the session
// summary once the input is exhausted, cancelled, or times out.
func (d *Decoder) Decode(ctx context.Context, input string) (SessionSummary, error) {
	return d.DecodeWithReporter(ctx, input, nil)
}

// DecodeWithReporter decodes input, emitting every pipeline event to
// rep. A nil Reporter discards events.
func (d *Decoder) DecodeWithReporter(ctx context.Context, input string, rep Reporter) (SessionSummary, error) {
	cfg := *d.config
	cfg.Input = input

	if err := util.EnsureDirectory(cfg.GetOutputDir()); err != nil {
		return SessionSummary{}, fmt.Errorf("qrdecode: create output directory: %w", err)
	}

	if rep == nil {
		rep = reporter.NullReporter{}
	}

	if cfg.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSecs)*time.Second)
		defer cancel()
	}

	started := time.Now()
	rep.Hardware(HardwareSummary{Hostname: util.GetSystemInfo().Hostname})
	rep.SessionStarted(SessionStartInfo{
		Input:      cfg.Input,
		IsCamera:   cfg.IsCamera,
		OutputDir:  cfg.GetOutputDir(),
		SampleRate: cfg.SampleRateFPS,
	})

	src := frame.New(frame.Config{
		Input:           cfg.Input,
		IsCamera:        cfg.IsCamera,
		StartOffsetSecs: cfg.StartOffsetSecs,
		MaxFrames:       cfg.MaxFrames,
		SampleRateFPS:   cfg.SampleRateFPS,
		Skip:            cfg.Skip,
		Rotation:        cfg.Rotation,
		DownscaleTo:     cfg.DownscaleTo,
		QueueDepth:      cfg.QueueDepth,
	})
	frames, frameErrc := src.Run(ctx)

	rtr := router.New(nil)
	snk := sink.New(cfg.GetOutputDir())
	p := pipeline.New(pipeline.Config{
		Workers:     cfg.Workers,
		QueueDepth:  cfg.QueueDepth,
		DedupWindow: cfg.DedupWindow,
	}, func() qrscan.RawDecoder { return qrscan.NewGozxingDecoder() }, rtr, snk, rep)

	runErr := p.Run(ctx, frames, frameErrc)

	summary := pipeline.Summarize(rtr, started)
	rep.SessionSummary(summary)
	rep.OperationComplete("decode")

	return summary, runErr
}

// ExitCode derives the process exit code for summary per the
// declared/incomplete/corrupt contract: 0 when every declared file
// verified, 2 when at least one is incomplete, 3 when at least one is
// corrupt (corrupt takes priority over incomplete).
func ExitCode(summary SessionSummary) int {
	incomplete := false
	for _, f := range summary.Files {
		switch f.Classification {
		case "corrupt":
			return 3
		case "incomplete":
			incomplete = true
		}
	}
	if incomplete {
		return 2
	}
	return 0
}

// FindVideos finds candidate recorded-video inputs in a directory, for
// a batch decode session.
func FindVideos(dir string) ([]string, error) {
	return discovery.FindVideoFiles(dir)
}

// DecodeBatch decodes each input in turn against the same Reporter,
// aggregating every file's outcome into one SessionSummary. A
// cancelled or timed-out context stops the batch before later inputs
// start; inputs already in flight still flush their partial state.
func (d *Decoder) DecodeBatch(ctx context.Context, inputs []string, rep Reporter) (SessionSummary, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	var combined SessionSummary
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return combined, err
		}

		summary, err := d.DecodeWithReporter(ctx, input, rep)
		combined.TotalFiles += summary.TotalFiles
		combined.CompletedFiles += summary.CompletedFiles
		combined.FailedFiles += summary.FailedFiles
		combined.Duration += summary.Duration
		combined.Files = append(combined.Files, summary.Files...)
		if err != nil {
			return combined, fmt.Errorf("qrdecode: decoding %s: %w", input, err)
		}
	}
	return combined, nil
}
