package camera

import (
	"bytes"
	"context"
	"image/jpeg"
	"sync/atomic"
	"time"

	"github.com/camlink/camlink/internal/logger"
	"github.com/camlink/camlink/internal/metrics"
)

// Poller is the degraded-mode acquisition strategy: repeated single-image
// capture requests at a fixed interval (2-3 frames/second by default).
//
// A tick that errors or times out yields no frame but never terminates
// the loop; the poller runs until its context is cancelled. It is only
// driven while the Supervisor is in the Degraded state.
type Poller struct {
	client *Client
	cfg    StreamConfig

	decodeErrs atomic.Uint64
	failures   atomic.Uint64
}

// NewPoller creates a poller for the given device client.
func NewPoller(client *Client, cfg StreamConfig) *Poller {
	return &Poller{client: client, cfg: cfg}
}

// DecodeErrors returns the number of malformed captures dropped so far.
func (p *Poller) DecodeErrors() uint64 {
	return p.decodeErrs.Load()
}

// Failures returns the number of ticks that produced no frame.
func (p *Poller) Failures() uint64 {
	return p.failures.Load()
}

// Run issues capture requests on a timer and pushes decoded frames onto
// out until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, out chan<- *Frame) {
	log := logger.WithComponent("poller")
	log.Info().Dur("interval", p.cfg.PollInterval).Msg("Fallback polling active")

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Fallback polling stopped")
			return
		case <-ticker.C:
		}

		data, err := p.client.Capture(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.failures.Add(1)
			log.Debug().Err(err).Msg("Capture tick failed")
			continue
		}

		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			p.decodeErrs.Add(1)
			metrics.DecodeErrors.Inc()
			log.Debug().Err(&DecodeError{Size: len(data), Err: err}).Msg("Dropping malformed capture")
			continue
		}

		select {
		case out <- newFrame(data, img):
		case <-ctx.Done():
			return
		}
	}
}
