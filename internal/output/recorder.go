package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	avi "github.com/icza/mjpeg"

	"github.com/camlink/camlink/internal/camera"
	"github.com/camlink/camlink/internal/logger"
)

// Recorder muxes the camera's JPEG frames into a Motion-JPEG AVI file.
// The frames are written exactly as the device encoded them, so there
// is no transcode cost and no quality loss.
//
// The container is opened lazily on the first frame because the frame
// dimensions are not known until then. Frames whose dimensions differ
// from the first one (a remote resolution change mid-recording) are
// dropped rather than corrupting the file.
type Recorder struct {
	dir string
	fps int

	mu      sync.Mutex
	running bool
	writer  avi.AviWriter
	path    string
	width   int
	height  int
	frames  uint64
	skipped uint64
}

// NewRecorder creates a recorder writing into dir at the given playback
// frame rate.
func NewRecorder(dir string, fps int) *Recorder {
	if fps <= 0 {
		fps = 20
	}
	return &Recorder{dir: dir, fps: fps}
}

// Start arms the recorder. The output file appears when the first frame
// arrives.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("recorder: already recording to %s", r.path)
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("recorder: create output dir: %w", err)
	}

	r.running = true
	r.path = filepath.Join(r.dir, "rec_"+timestamp()+".avi")
	r.frames = 0
	r.skipped = 0

	logger.WithComponent("recorder").Info().Str("path", r.path).Msg("Recording armed")
	return nil
}

// Stop finalizes the container and disarms the recorder. Stopping a
// recorder that never saw a frame is fine; no file is produced.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}
	r.running = false

	if r.writer != nil {
		if err := r.writer.Close(); err != nil {
			r.writer = nil
			return fmt.Errorf("recorder: finalize %s: %w", r.path, err)
		}
		r.writer = nil
		logger.WithComponent("recorder").Info().
			Str("path", r.path).
			Uint64("frames", r.frames).
			Uint64("skipped", r.skipped).
			Msg("Recording stopped")
	}
	return nil
}

// WriteFrame appends one frame to the recording. A no-op while the
// recorder is not armed.
func (r *Recorder) WriteFrame(f *camera.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}

	if r.writer == nil {
		w, err := avi.New(r.path, int32(f.Width), int32(f.Height), int32(r.fps))
		if err != nil {
			return fmt.Errorf("recorder: open %s: %w", r.path, err)
		}
		r.writer = w
		r.width = f.Width
		r.height = f.Height
		logger.WithComponent("recorder").Info().
			Str("path", r.path).
			Int("width", f.Width).
			Int("height", f.Height).
			Int("fps", r.fps).
			Msg("Recording started")
	}

	if f.Width != r.width || f.Height != r.height {
		r.skipped++
		return nil
	}

	if err := r.writer.AddFrame(f.JPEG); err != nil {
		return fmt.Errorf("recorder: add frame: %w", err)
	}
	r.frames++
	return nil
}

// Name returns the sink type name.
func (r *Recorder) Name() string {
	return "MJPEG AVI Recorder"
}

// IsRunning returns true while the recorder is armed.
func (r *Recorder) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Path returns the current (or last) output file path.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// FrameCount returns the number of frames written so far.
func (r *Recorder) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
