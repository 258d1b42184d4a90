package ffmpeg

import "fmt"

// DemuxParams configures the ffmpeg invocation that decodes an input
// (file or camera) into a raw grayscale frame stream.
type DemuxParams struct {
	Input           string
	IsCamera        bool
	StartOffsetSecs float64
	SampleRateFPS   float64
	Rotation        int // 0, 90, 180, 270
	DownscaleTo     int // target width, 0 disables
}

// BuildDemuxArgs builds the ffmpeg argument list that decodes p.Input
// into a gray8 rawvideo stream on stdout, applying the sample-rate,
// rotation and downscale filters requested.
func BuildDemuxArgs(p *DemuxParams) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}

	if p.IsCamera {
		args = append(args, "-f", "v4l2")
	}
	if p.StartOffsetSecs > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", p.StartOffsetSecs))
	}
	args = append(args, "-i", p.Input)

	chain := NewVideoFilterChain()
	chain.AddFPS(p.SampleRateFPS)
	chain.AddRotate(p.Rotation)
	chain.AddScale(p.DownscaleTo)
	if !chain.IsEmpty() {
		args = append(args, "-vf", chain.Build())
	}

	args = append(args, "-f", "rawvideo", "-pix_fmt", "gray8", "pipe:1")
	return args
}

// ComputeOutputDimensions predicts the pixel dimensions of frames
// produced by BuildDemuxArgs, mirroring the same rotate/scale filters
// applied to a source of size srcW x srcH.
func ComputeOutputDimensions(srcW, srcH, rotation, downscaleTo int) (w, h int) {
	w, h = srcW, srcH
	if rotation == 90 || rotation == 270 {
		w, h = h, w
	}
	if downscaleTo > 0 && downscaleTo < w {
		ratio := float64(downscaleTo) / float64(w)
		newH := int(float64(h) * ratio)
		if newH%2 != 0 {
			newH++
		}
		w, h = downscaleTo, newH
	}
	return w, h
}
