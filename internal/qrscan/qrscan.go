// Package qrscan extracts QR payload strings from decoded video
// frames and deduplicates adjacent identical detections.
package qrscan

import "github.com/five82/qrdecode/internal/frame"

// Rect is a detection's bounding box in frame pixel coordinates.
type Rect struct {
	X, Y, Width, Height int
}

// RawDetection is one QR symbol decoded from a frame, before
// duplicate-window classification.
type RawDetection struct {
	Payload string
	Bounds  Rect
}

// Detection is a decoded QR payload plus duplicate classification.
// Duplicate is cosmetic: the fountain decoder also suppresses
// duplicates by packet_id, so correctness never depends on it.
type Detection struct {
	Payload   string
	Bounds    Rect
	Duplicate bool
}

// RawDecoder is a pure QR decoding engine: given a grayscale frame
// buffer, return zero or more detections. Implementations may attempt
// multiple frame rotations before giving up.
type RawDecoder interface {
	Decode(pixels []byte, width, height int) []RawDetection
}

// Extractor wraps a RawDecoder with a sliding duplicate-detection
// window over recently seen payload prefixes.
type Extractor struct {
	raw    RawDecoder
	window *dedupWindow
}

// NewExtractor creates an Extractor. windowSize bounds how many
// distinct recent payload prefixes are remembered.
func NewExtractor(raw RawDecoder, windowSize int) *Extractor {
	return &Extractor{raw: raw, window: newDedupWindow(windowSize)}
}

// Extract decodes f and classifies each detection against the
// duplicate window.
func (e *Extractor) Extract(f frame.Frame) []Detection {
	raws := e.raw.Decode(f.Pixels, f.Width, f.Height)
	dets := make([]Detection, 0, len(raws))
	for _, r := range raws {
		dup := e.window.seen(r.Payload)
		dets = append(dets, Detection{Payload: r.Payload, Bounds: r.Bounds, Duplicate: dup})
	}
	return dets
}
