package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			src.Set(x, y, color.RGBA{R: 10, G: 10, B: 10, A: 255})
		}
	}

	out := Stamp(src, []string{"FPS: 12.0", "streaming"})
	require.NotNil(t, out)
	assert.Equal(t, src.Bounds(), out.Bounds())

	// The stamp must actually change pixels in the text region.
	changed := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 160; x++ {
			if out.RGBAAt(x, y) != src.RGBAAt(x, y) {
				changed++
			}
		}
	}
	assert.Greater(t, changed, 0)

	// Source image is left untouched.
	assert.Equal(t, color.RGBA{R: 10, G: 10, B: 10, A: 255}, src.RGBAAt(12, 20))
}

func TestStampEmptyLines(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 32, 32))
	out := Stamp(src, nil)
	require.NotNil(t, out)
	assert.Equal(t, src.Bounds(), out.Bounds())
}
