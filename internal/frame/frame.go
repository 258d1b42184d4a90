// Package frame produces a bounded, backpressured sequence of decoded
// video frames from a recorded file or a live camera, driving ffmpeg
// as a subprocess.
package frame

import (
	"context"
	"fmt"
	"io"

	"github.com/five82/qrdecode/internal/ffmpeg"
)

// Frame is one decoded, fixed-size grayscale frame.
type Frame struct {
	Index      int
	TimestampS float64
	Width      int
	Height     int
	Pixels     []byte // gray8, len == Width*Height
}

// Config configures a Source.
type Config struct {
	Input           string
	IsCamera        bool
	StartOffsetSecs float64
	MaxFrames       int // 0 = unbounded
	SampleRateFPS   float64
	Skip            int // process every Nth sampled frame; < 1 treated as 1
	Rotation        int // 0, 90, 180, 270
	DownscaleTo     int // 0 disables
	QueueDepth      int // bounded channel size between Source and consumer
}

// defaultCameraWidth/Height are used when a camera's native resolution
// cannot be probed.
const (
	defaultCameraWidth  = 640
	defaultCameraHeight = 480
)

// Source decodes Config.Input into a channel of Frame, driving ffmpeg
// as a subprocess. The channel is finite for a file input and
// effectively infinite for a camera until ctx is cancelled.
type Source struct {
	cfg Config
}

// New creates a Source for cfg.
func New(cfg Config) *Source {
	if cfg.Skip < 1 {
		cfg.Skip = 1
	}
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = 1
	}
	return &Source{cfg: cfg}
}

// Run starts ffmpeg and returns a bounded frame channel and a
// single-value error channel. The frame channel is closed when the
// input is exhausted, ctx is cancelled, or a permanent error occurs;
// the error channel then receives at most one value (nil on clean
// exhaustion) and is closed.
func (s *Source) Run(ctx context.Context) (<-chan Frame, <-chan error) {
	frames := make(chan Frame, s.cfg.QueueDepth)
	errc := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errc)
		errc <- s.run(ctx, frames)
	}()

	return frames, errc
}

func (s *Source) run(ctx context.Context, out chan<- Frame) error {
	srcW, srcH, err := s.dimensions(ctx)
	if err != nil {
		return err
	}
	w, h := ffmpeg.ComputeOutputDimensions(srcW, srcH, s.cfg.Rotation, s.cfg.DownscaleTo)
	if w <= 0 || h <= 0 {
		return fmt.Errorf("frame: invalid computed dimensions %dx%d", w, h)
	}

	args := ffmpeg.BuildDemuxArgs(&ffmpeg.DemuxParams{
		Input:           s.cfg.Input,
		IsCamera:        s.cfg.IsCamera,
		StartOffsetSecs: s.cfg.StartOffsetSecs,
		SampleRateFPS:   s.cfg.SampleRateFPS,
		Rotation:        s.cfg.Rotation,
		DownscaleTo:     s.cfg.DownscaleTo,
	})

	proc, err := ffmpeg.RunDemux(ctx, args)
	if err != nil {
		return err
	}

	frameSize := w * h
	buf := make([]byte, frameSize)
	rawIndex := 0
	emitted := 0

	for {
		if s.cfg.MaxFrames > 0 && emitted >= s.cfg.MaxFrames {
			break
		}

		if _, readErr := io.ReadFull(proc.Stdout, buf); readErr != nil {
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				break
			}
			_ = proc.Wait()
			return fmt.Errorf("frame: reading decoded frame %d: %w", rawIndex, readErr)
		}

		timestamp := float64(rawIndex) / s.cfg.SampleRateFPS
		rawIndex++

		if (rawIndex-1)%s.cfg.Skip != 0 {
			continue
		}

		pixels := make([]byte, frameSize)
		copy(pixels, buf)

		f := Frame{
			Index:      emitted,
			TimestampS: timestamp,
			Width:      w,
			Height:     h,
			Pixels:     pixels,
		}
		emitted++

		select {
		case out <- f:
		case <-ctx.Done():
			_ = proc.Wait()
			return ctx.Err()
		}
	}

	return proc.Wait()
}

func (s *Source) dimensions(ctx context.Context) (int, int, error) {
	if s.cfg.IsCamera {
		w, h, err := ffmpeg.ProbeDimensions(ctx, s.cfg.Input)
		if err != nil {
			return defaultCameraWidth, defaultCameraHeight, nil
		}
		return w, h, nil
	}
	return ffmpeg.ProbeDimensions(ctx, s.cfg.Input)
}
