package output

import (
	"time"

	"github.com/camlink/camlink/internal/camera"
)

// Output defines the interface for frame sinks. Sinks own whatever
// resources they write to (HTTP clients, files, the video container);
// the supervisor never touches those directly.
type Output interface {
	// Start initializes the sink
	Start() error

	// Stop cleanly shuts down the sink and releases its resources
	Stop() error

	// WriteFrame sends one frame to the sink. Frames arrive in sequence
	// order and must not be modified.
	WriteFrame(frame *camera.Frame) error

	// Name returns a human-readable name for this sink type
	Name() string

	// IsRunning returns true if the sink is currently active
	IsRunning() bool
}

// timestamp builds the filename fragment used by all disk sinks.
// Second granularity is enough to avoid collisions for hand-triggered
// snapshots and recordings.
func timestamp() string {
	return time.Now().Format("20060102_150405")
}
