package camera

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"io"
	"sync/atomic"
	"time"

	"github.com/camlink/camlink/internal/logger"
	"github.com/camlink/camlink/internal/metrics"
)

// StreamSource reads the camera's persistent MJPEG connection and emits
// decoded frames until the connection closes or stalls.
//
// One Run call is one connection attempt: the frame sequence it produces
// is lazy, unbounded and non-restartable. A malformed frame is counted
// and skipped; a connection-level failure terminates Run with a typed
// error. Retry policy lives in the Supervisor, never here.
type StreamSource struct {
	client *Client
	cfg    StreamConfig

	next       int // candidate URL rotation, advanced per attempt
	decodeErrs atomic.Uint64
}

// NewStreamSource creates a source for the given device client.
func NewStreamSource(client *Client, cfg StreamConfig) *StreamSource {
	return &StreamSource{client: client, cfg: cfg}
}

// DecodeErrors returns the number of malformed frames dropped so far.
func (s *StreamSource) DecodeErrors() uint64 {
	return s.decodeErrs.Load()
}

// nextURL rotates through the candidate stream endpoints so a camera
// serving on a non-default port is eventually found.
func (s *StreamSource) nextURL() string {
	candidates := s.cfg.StreamCandidates()
	u := candidates[s.next%len(candidates)]
	s.next++
	return u
}

// Run opens one stream connection and pushes frames onto out until the
// sequence terminates. The returned error is the terminal cause:
// *ConnectError, *StallError, or ctx.Err() on cancellation.
func (s *StreamSource) Run(ctx context.Context, out chan<- *Frame) error {
	log := logger.WithComponent("stream-source")
	streamURL := s.nextURL()

	// Connection-scoped context so the stall watchdog can abort a read.
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Debug().Str("url", streamURL).Msg("Opening MJPEG stream")
	conn, err := s.client.OpenStream(cctx, streamURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	// The watchdog fires when no complete part arrives within the stall
	// timeout. It cancels the connection, which surfaces as a read error
	// below; the stalled flag disambiguates it from a real disconnect.
	var stalled atomic.Bool
	watchdog := time.AfterFunc(s.cfg.StallTimeout, func() {
		stalled.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	terminal := func(err error) error {
		switch {
		case stalled.Load():
			metrics.StreamStalls.Inc()
			return &StallError{URL: streamURL, Timeout: s.cfg.StallTimeout.String()}
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, io.EOF):
			return &ConnectError{URL: streamURL, Err: errors.New("stream closed by device")}
		default:
			return &ConnectError{URL: streamURL, Err: err}
		}
	}

	for {
		part, err := conn.parts.NextPart()
		if err != nil {
			return terminal(err)
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return terminal(err)
		}
		watchdog.Reset(s.cfg.StallTimeout)

		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			// Frame dropped, sequence continues.
			s.decodeErrs.Add(1)
			metrics.DecodeErrors.Inc()
			derr := &DecodeError{Size: len(data), Err: err}
			log.Debug().Err(derr).Int("declared_length", partContentLength(part)).Msg("Dropping malformed frame")
			continue
		}

		select {
		case out <- newFrame(data, img):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
