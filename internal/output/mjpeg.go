package output

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"net/http"
	"sync"
	"time"

	"github.com/camlink/camlink/internal/camera"
	"github.com/camlink/camlink/internal/logger"
	"github.com/camlink/camlink/internal/overlay"
)

// MJPEGOutput re-publishes the supervised feed as a Motion JPEG HTTP
// stream, so the live view works in any browser tab. With OSD disabled
// the camera's JPEG bytes pass through untouched; with OSD enabled each
// frame is re-encoded with a status stamp.
type MJPEGOutput struct {
	osd bool

	mu        sync.RWMutex
	running   bool
	startTime time.Time

	// Connected clients
	clientsMu sync.RWMutex
	clients   map[chan []byte]struct{}

	// Stats and OSD content
	statsMu    sync.Mutex
	frameCount uint64
	fps        float64
	fpsCount   int
	fpsSince   time.Time
	statusLine string
}

// NewMJPEGOutput creates a re-stream output.
func NewMJPEGOutput(osd bool) *MJPEGOutput {
	return &MJPEGOutput{
		osd:     osd,
		clients: make(map[chan []byte]struct{}),
	}
}

// Start initializes the output. The HTTP handler is registered
// separately via GetHTTPHandler().
func (m *MJPEGOutput) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("MJPEG output already running")
	}
	m.running = true
	m.startTime = time.Now()

	m.statsMu.Lock()
	m.frameCount = 0
	m.fpsSince = time.Now()
	m.statsMu.Unlock()

	logger.WithComponent("mjpeg").Info().Bool("osd", m.osd).Msg("MJPEG re-stream started")
	return nil
}

// Stop disconnects all clients and shuts the output down.
func (m *MJPEGOutput) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false

	m.clientsMu.Lock()
	for ch := range m.clients {
		close(ch)
	}
	m.clients = make(map[chan []byte]struct{})
	m.clientsMu.Unlock()

	logger.WithComponent("mjpeg").Info().Msg("MJPEG re-stream stopped")
	return nil
}

// SetStatusLine updates the OSD status text (connection state).
func (m *MJPEGOutput) SetStatusLine(s string) {
	m.statsMu.Lock()
	m.statusLine = s
	m.statsMu.Unlock()
}

// WriteFrame broadcasts a frame to all connected clients.
func (m *MJPEGOutput) WriteFrame(frame *camera.Frame) error {
	if !m.IsRunning() {
		return fmt.Errorf("MJPEG output not running")
	}

	m.statsMu.Lock()
	m.frameCount++
	m.fpsCount++
	if d := time.Since(m.fpsSince); d >= time.Second {
		m.fps = float64(m.fpsCount) / d.Seconds()
		m.fpsCount = 0
		m.fpsSince = time.Now()
	}
	fps := m.fps
	status := m.statusLine
	m.statsMu.Unlock()

	data := frame.JPEG
	if m.osd {
		stamped := overlay.Stamp(frame.Image, []string{
			fmt.Sprintf("FPS: %4.1f", fps),
			status,
		})
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, stamped, &jpeg.Options{Quality: 80}); err != nil {
			return fmt.Errorf("failed to encode JPEG: %w", err)
		}
		data = buf.Bytes()
	}

	m.clientsMu.RLock()
	for ch := range m.clients {
		select {
		case ch <- data:
		default:
			// Client is slow, skip this frame
		}
	}
	m.clientsMu.RUnlock()

	return nil
}

// Name returns the sink type name.
func (m *MJPEGOutput) Name() string {
	return "MJPEG HTTP Re-stream"
}

// IsRunning returns true if the output is active.
func (m *MJPEGOutput) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// ClientCount returns the number of connected stream clients.
func (m *MJPEGOutput) ClientCount() int {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	return len(m.clients)
}

// FPS returns the measured output frame rate.
func (m *MJPEGOutput) FPS() float64 {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.fps
}

// GetHTTPHandler returns an http.Handler for the MJPEG stream, mounted
// at /stream.
func (m *MJPEGOutput) GetHTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		w.Header().Set("Connection", "close")

		frameChan := make(chan []byte, 2) // Buffer 2 frames

		m.clientsMu.Lock()
		m.clients[frameChan] = struct{}{}
		clientCount := len(m.clients)
		m.clientsMu.Unlock()

		logger.WithComponent("mjpeg").Info().Int("total", clientCount).Msg("Stream client connected")

		defer func() {
			m.clientsMu.Lock()
			delete(m.clients, frameChan)
			clientCount := len(m.clients)
			m.clientsMu.Unlock()
			logger.WithComponent("mjpeg").Info().Int("remaining", clientCount).Msg("Stream client disconnected")
		}()

		for jpegData := range frameChan {
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpegData)); err != nil {
				return
			}
			if _, err := w.Write(jpegData); err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
