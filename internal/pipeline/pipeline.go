// Package pipeline wires the frame source, the QR-extraction worker
// pool, and the single-threaded router/decoder/sink chain together
// into one cancellable decode session.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/five82/qrdecode/internal/errors"
	"github.com/five82/qrdecode/internal/frame"
	"github.com/five82/qrdecode/internal/integrity"
	"github.com/five82/qrdecode/internal/qrscan"
	"github.com/five82/qrdecode/internal/reporter"
	"github.com/five82/qrdecode/internal/router"
	"github.com/five82/qrdecode/internal/sink"
	"github.com/five82/qrdecode/internal/wire"
	"github.com/five82/qrdecode/internal/worker"
)

// Config configures a Pipeline.
type Config struct {
	Workers     int
	QueueDepth  int
	DedupWindow int
}

// NewDecoderFunc creates a fresh QR raw-decoder instance. Each worker
// gets its own so extraction workers never share mutable state.
type NewDecoderFunc func() qrscan.RawDecoder

// Pipeline owns the router table and the sink across one decode
// session and drains a frame stream into reconstructed files.
type Pipeline struct {
	cfg        Config
	newDecoder NewDecoderFunc
	router     *router.Router
	sink       *sink.Sink
	reporter   reporter.Reporter
}

// New creates a Pipeline.
func New(cfg Config, newDecoder NewDecoderFunc, rtr *router.Router, snk *sink.Sink, rep reporter.Reporter) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = 1
	}
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &Pipeline{cfg: cfg, newDecoder: newDecoder, router: rtr, sink: snk, reporter: rep}
}

type workResult struct {
	frameIndex int
	detections []qrscan.Detection
}

// Run drains frames until the channel closes or ctx is cancelled,
// feeding every non-duplicate QR payload through the wire codec and
// the router, saving files as they complete, and finally flushing
// partial descriptors for whatever remains incomplete.
//
// It returns the first fatal error encountered (from the frame source
// or from ctx); parse/duplicate/orphan conditions are not fatal and
// are only reported through the Reporter.
func (p *Pipeline) Run(ctx context.Context, frames <-chan frame.Frame, frameErrc <-chan error) error {
	workChan := make(chan frame.Frame, p.cfg.QueueDepth)
	resultChan := make(chan workResult, p.cfg.QueueDepth)
	sem := worker.NewSemaphore(p.cfg.Workers + p.cfg.QueueDepth)

	var workersWg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		workersWg.Add(1)
		go func() {
			defer workersWg.Done()
			extractor := qrscan.NewExtractor(p.newDecoder(), p.cfg.DedupWindow)
			for f := range workChan {
				dets := extractor.Extract(f)
				sem.Release()
				select {
				case resultChan <- workResult{frameIndex: f.Index, detections: dets}:
				case <-ctx.Done():
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for f := range frames {
			select {
			case <-ctx.Done():
				return
			default:
			}
			sem.Acquire()
			select {
			case workChan <- f:
			case <-ctx.Done():
				sem.Release()
				return
			}
		}
	}()

	go func() {
		workersWg.Wait()
		close(resultChan)
	}()

	framesProcessed := 0
	pending := make(map[int]workResult)
	nextIndex := 0

	drain := func(r workResult) {
		pending[r.frameIndex] = r
		for {
			next, ok := pending[nextIndex]
			if !ok {
				return
			}
			delete(pending, nextIndex)
			nextIndex++
			framesProcessed++
			p.processFrame(next)
		}
	}

resultLoop:
	for {
		select {
		case r, ok := <-resultChan:
			if !ok {
				break resultLoop
			}
			drain(r)
		case <-ctx.Done():
			break resultLoop
		}
	}

	p.flushPartials()

	if err := ctx.Err(); err != nil {
		return errors.NewCancelledError()
	}
	if frameErrc != nil {
		if err := <-frameErrc; err != nil {
			return err
		}
	}
	if framesProcessed == 0 {
		return errors.NewNoFramesFoundError("")
	}
	return nil
}

func (p *Pipeline) processFrame(r workResult) {
	for _, det := range r.detections {
		if det.Duplicate {
			continue
		}
		pkt := wire.Parse(det.Payload)
		p.applyPacket(pkt)
	}
}

func (p *Pipeline) applyPacket(pkt wire.Packet) {
	switch pkt.Kind {
	case wire.KindMetadata:
		fs := p.router.RouteMetadata(pkt.Metadata)
		p.reporter.FileDiscovered(reporter.FileDiscovered{
			FileName:  fs.FileName,
			FileID:    fs.FileID,
			FileSize:  pkt.Metadata.FileSize,
			NumChunks: pkt.Metadata.NumChunks,
		})
	case wire.KindData:
		for _, fs := range p.router.RouteData(pkt.Data) {
			p.reportProgress(fs)
			if fs.Completed && !fs.Saved {
				p.saveCompleted(fs)
			}
		}
	case wire.KindUnknown:
		p.reporter.Verbose("dropped packet: " + pkt.Reason)
	}
}

func (p *Pipeline) reportProgress(fs *router.FileState) {
	recovered, total := fs.Decoder.Progress()
	percent := float32(0)
	if total > 0 {
		percent = float32(recovered) / float32(total) * 100
	}
	p.reporter.PacketProgress(reporter.PacketProgress{
		FileName:       fs.FileName,
		ChunksReceived: recovered,
		ChunksTotal:    total,
		Percent:        percent,
	})
}

func (p *Pipeline) saveCompleted(fs *router.FileState) {
	outcome, err := p.sink.Save(fs)
	if err != nil {
		p.reporter.Error(reporter.ReporterError{Title: "save failed", Message: err.Error()})
		return
	}
	if outcome.AlreadySaved {
		return
	}

	fs.Classification = outcome.Classification.String()
	p.reporter.VerificationResult(reporter.VerificationResult{
		FileName:       fs.FileName,
		Classification: fs.Classification,
	})

	if outcome.Classification != integrity.Corrupt {
		p.reporter.FileSaved(reporter.FileSaved{
			FileName:   fs.FileName,
			OutputPath: outcome.Path,
			Bytes:      outcome.Bytes,
		})
	}
}

// flushPartials saves a resumption descriptor for every file that
// never reached completion, per the cancellation/end-of-stream
// contract.
func (p *Pipeline) flushPartials() {
	for _, fs := range p.router.Files() {
		if fs.Completed {
			continue
		}
		if err := p.sink.SavePartial(fs); err != nil {
			p.reporter.Warning(err.Error())
		}
	}
}

// Summarize builds a SessionSummary from the router's current state,
// suitable for the session-level report and exit-code decision.
func Summarize(rtr *router.Router, started time.Time) reporter.SessionSummary {
	files := rtr.Files()
	summary := reporter.SessionSummary{
		TotalFiles: len(files),
		Duration:   time.Since(started),
	}
	for _, fs := range files {
		recovered, total := fs.Decoder.Progress()
		classification := "incomplete"
		if fs.Completed {
			classification = fs.Classification
			if classification == "" {
				classification = "unverified"
			}
		}
		if fs.Completed {
			summary.CompletedFiles++
		} else {
			summary.FailedFiles++
		}
		summary.Files = append(summary.Files, reporter.FileSummary{
			FileName:       fs.FileName,
			Classification: classification,
			ChunksReceived: recovered,
			ChunksTotal:    total,
		})
	}
	return summary
}
