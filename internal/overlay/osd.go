package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// On-screen display: status text stamped onto outgoing frames. Uses
// basicfont so no font assets need to ship with the binary.

var (
	textColor   = color.RGBA{255, 255, 255, 255}
	shadowColor = color.RGBA{0, 0, 0, 255}
)

const (
	marginX    = 10
	marginY    = 20
	lineHeight = 16
)

// Stamp draws the given lines onto a copy of img, top-left, one line
// per entry. The input image is never modified.
func Stamp(img image.Image, lines []string) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for i, line := range lines {
		if line == "" {
			continue
		}
		y := marginY + i*lineHeight
		// Shadow first so the text stays readable on bright frames.
		drawString(out, line, marginX+1, y+1, shadowColor)
		drawString(out, line, marginX, y, textColor)
	}
	return out
}

func drawString(dst *image.RGBA, s string, x, y int, col color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(dst.Bounds().Min.X+x, dst.Bounds().Min.Y+y),
	}
	d.DrawString(s)
}
