package qrscan

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// rotations are the frame orientations tried in order before a frame
// is reported as carrying zero detections. Camera mounting, not QR
// symbol rotation, is what this compensates for: the reader already
// corrects for an in-plane-rotated symbol on its own.
var rotations = []int{0, 90, 180, 270}

// GozxingDecoder decodes QR symbols with gozxing, a pure-Go port of
// ZXing.
type GozxingDecoder struct {
	reader *qrcode.QRCodeReader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewGozxingDecoder creates a GozxingDecoder.
func NewGozxingDecoder() *GozxingDecoder {
	return &GozxingDecoder{
		reader: qrcode.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode implements RawDecoder. It tries each of rotations in turn and
// returns on the first orientation that yields a detection; zero
// detections is reported as a nil slice, never an error.
func (d *GozxingDecoder) Decode(pixels []byte, width, height int) []RawDetection {
	for _, deg := range rotations {
		rotated, w, h := rotateGray8(pixels, width, height, deg)
		det, ok := d.decodeOnce(rotated, w, h)
		if ok {
			return []RawDetection{det}
		}
	}
	return nil
}

func (d *GozxingDecoder) decodeOnce(pixels []byte, width, height int) (RawDetection, bool) {
	img := &image.Gray{
		Pix:    pixels,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}

	src, err := gozxing.NewLuminanceSourceFromImage(img)
	if err != nil {
		return RawDetection{}, false
	}

	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(src))
	if err != nil {
		return RawDetection{}, false
	}

	result, err := d.reader.Decode(bitmap, d.hints)
	if err != nil {
		return RawDetection{}, false
	}

	return RawDetection{
		Payload: result.GetText(),
		Bounds:  boundsFromPoints(result.GetResultPoints()),
	}, true
}

func boundsFromPoints(points []gozxing.ResultPoint) Rect {
	if len(points) == 0 {
		return Rect{}
	}

	minX, minY := points[0].GetX(), points[0].GetY()
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.GetX() < minX {
			minX = p.GetX()
		}
		if p.GetX() > maxX {
			maxX = p.GetX()
		}
		if p.GetY() < minY {
			minY = p.GetY()
		}
		if p.GetY() > maxY {
			maxY = p.GetY()
		}
	}

	return Rect{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}

// rotateGray8 rotates a gray8 buffer clockwise by deg degrees, one of
// 0, 90, 180, 270. Any other value is treated as 0.
func rotateGray8(pixels []byte, width, height, deg int) ([]byte, int, int) {
	switch deg {
	case 90:
		out := make([]byte, len(pixels))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				srcIdx := y*width + x
				dstX := height - 1 - y
				dstY := x
				out[dstY*height+dstX] = pixels[srcIdx]
			}
		}
		return out, height, width
	case 180:
		out := make([]byte, len(pixels))
		for i, v := range pixels {
			out[len(pixels)-1-i] = v
		}
		return out, width, height
	case 270:
		out := make([]byte, len(pixels))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				srcIdx := y*width + x
				dstX := y
				dstY := width - 1 - x
				out[dstY*height+dstX] = pixels[srcIdx]
			}
		}
		return out, height, width
	default:
		return pixels, width, height
	}
}
