package qrscan

import (
	"testing"

	"github.com/five82/qrdecode/internal/frame"
)

type fakeDecoder struct {
	payloads []string
}

func (f *fakeDecoder) Decode(pixels []byte, width, height int) []RawDetection {
	dets := make([]RawDetection, 0, len(f.payloads))
	for _, p := range f.payloads {
		dets = append(dets, RawDetection{Payload: p})
	}
	return dets
}

func TestExtractMarksRepeatPayloadAsDuplicate(t *testing.T) {
	fake := &fakeDecoder{payloads: []string{"M:1:a.txt:text:100:4:0:1:1.0:30"}}
	e := NewExtractor(fake, 8)

	f := frame.Frame{Width: 1, Height: 1, Pixels: []byte{0}}

	first := e.Extract(f)
	if len(first) != 1 || first[0].Duplicate {
		t.Fatalf("first detection should not be marked duplicate: %+v", first)
	}

	second := e.Extract(f)
	if len(second) != 1 || !second[0].Duplicate {
		t.Fatalf("repeat detection should be marked duplicate: %+v", second)
	}
}

func TestExtractZeroDetectionsIsValid(t *testing.T) {
	fake := &fakeDecoder{}
	e := NewExtractor(fake, 8)

	dets := e.Extract(frame.Frame{Width: 1, Height: 1, Pixels: []byte{0}})
	if len(dets) != 0 {
		t.Fatalf("expected zero detections, got %d", len(dets))
	}
}

func TestDedupWindowEvictsOldestBeyondCapacity(t *testing.T) {
	w := newDedupWindow(2)

	if w.seen("aaa") {
		t.Fatal("aaa should be new")
	}
	if w.seen("bbb") {
		t.Fatal("bbb should be new")
	}
	if w.seen("ccc") {
		t.Fatal("ccc should be new")
	}

	// aaa was the least recently used and should have been evicted
	// when ccc was inserted past capacity 2.
	if w.seen("aaa") {
		t.Fatal("aaa should have been evicted and report as new again")
	}
}

func TestDedupWindowLongPayloadsCompareByPrefix(t *testing.T) {
	w := newDedupWindow(4)

	long := make([]byte, payloadPrefixLen*2)
	for i := range long {
		long[i] = 'x'
	}
	longStr := string(long)
	sameTail := string(long) + "DIFFERENT_TAIL"

	if w.seen(longStr) {
		t.Fatal("first long payload should be new")
	}
	if !w.seen(sameTail) {
		t.Fatal("payload sharing the same prefix should be classified as duplicate")
	}
}

func TestRotateGray8Dimensions(t *testing.T) {
	pixels := make([]byte, 6) // 3x2
	for i := range pixels {
		pixels[i] = byte(i)
	}

	rotated, w, h := rotateGray8(pixels, 3, 2, 90)
	if w != 2 || h != 3 {
		t.Fatalf("rotate 90: got %dx%d, want 2x3", w, h)
	}
	if len(rotated) != len(pixels) {
		t.Fatalf("rotate 90: got %d bytes, want %d", len(rotated), len(pixels))
	}

	rotated180, w180, h180 := rotateGray8(pixels, 3, 2, 180)
	if w180 != 3 || h180 != 2 {
		t.Fatalf("rotate 180: got %dx%d, want 3x2", w180, h180)
	}
	if rotated180[0] != pixels[len(pixels)-1] {
		t.Fatalf("rotate 180: first byte = %d, want %d", rotated180[0], pixels[len(pixels)-1])
	}

	same, wSame, hSame := rotateGray8(pixels, 3, 2, 0)
	if wSame != 3 || hSame != 2 {
		t.Fatalf("rotate 0: got %dx%d, want 3x2", wSame, hSame)
	}
	if &same[0] != &pixels[0] {
		t.Fatal("rotate 0 should return the same backing array")
	}
}
