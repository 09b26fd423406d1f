package output

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/camlink/camlink/internal/camera"
)

// testFrame builds a decoded frame the way the acquisition layer would.
func testFrame(t *testing.T, seq uint64, w, h int) *camera.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 120, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return &camera.Frame{
		Seq:       seq,
		JPEG:      buf.Bytes(),
		Image:     img,
		Width:     w,
		Height:    h,
		Timestamp: time.Now(),
	}
}
