package camera

import (
	"image"
	"time"
)

// Frame is a single decoded image from the camera.
//
// Frames are immutable after creation: producers hand them off by pointer
// and consumers must not modify JPEG or Image. Seq is assigned by the
// Supervisor when the frame enters the unified feed, so numbering stays
// monotonic across an acquisition-strategy switch.
type Frame struct {
	// Seq is the position of this frame in the unified feed (1-based).
	Seq uint64

	// JPEG holds the frame exactly as the camera encoded it.
	JPEG []byte

	// Image is the decoded pixel buffer.
	Image image.Image

	Width  int
	Height int

	// Timestamp is the local capture time, not device time.
	Timestamp time.Time
}

// newFrame builds an unsequenced frame from decoded JPEG data.
func newFrame(jpegData []byte, img image.Image) *Frame {
	b := img.Bounds()
	return &Frame{
		JPEG:      jpegData,
		Image:     img,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Timestamp: time.Now(),
	}
}
