package camera

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/camlink/camlink/internal/logger"
	"github.com/camlink/camlink/internal/metrics"
)

// Supervisor owns the connection state machine. It decides which
// acquisition strategy is active, performs retry with backoff, and
// exposes a single unified frame feed (through the Hub) plus status
// events to observers.
//
// At most one strategy produces frames at any instant. The switch from
// polling back to streaming happens before the first stream frame is
// published, so consumers never see interleaved sources, and sequence
// numbers are assigned here so they stay strictly increasing across
// switches.
type Supervisor struct {
	cfg    StreamConfig
	client *Client
	hub    *Hub

	source *StreamSource
	poller *Poller

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	seq atomic.Uint64

	obsMu     sync.RWMutex
	observers map[chan StatusEvent]struct{}
}

// NewSupervisor wires a supervisor for one immutable StreamConfig.
// Changing the config means constructing a new Supervisor.
func NewSupervisor(cfg StreamConfig, client *Client, hub *Hub) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		client:    client,
		hub:       hub,
		source:    NewStreamSource(client, cfg),
		poller:    NewPoller(client, cfg),
		state:     StateIdle,
		observers: make(map[chan StatusEvent]struct{}),
	}
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FrameCount returns how many frames have entered the unified feed.
func (s *Supervisor) FrameCount() uint64 {
	return s.seq.Load()
}

// DecodeErrors returns the total number of silently dropped frames.
func (s *Supervisor) DecodeErrors() uint64 {
	return s.source.DecodeErrors() + s.poller.DecodeErrors()
}

// Client returns the underlying device client, for control pass-through
// calls the Supervisor does not intercept.
func (s *Supervisor) Client() *Client {
	return s.client
}

// Subscribe registers a status observer. The returned channel is
// buffered; an observer that stops draining loses events rather than
// blocking the state machine.
func (s *Supervisor) Subscribe() chan StatusEvent {
	ch := make(chan StatusEvent, 32)
	s.obsMu.Lock()
	s.observers[ch] = struct{}{}
	s.obsMu.Unlock()
	return ch
}

// Unsubscribe removes an observer and closes its channel.
func (s *Supervisor) Unsubscribe(ch chan StatusEvent) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	if _, ok := s.observers[ch]; ok {
		delete(s.observers, ch)
		close(ch)
	}
}

// Start moves Idle -> Connecting and launches the acquisition loop.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
	case StateFailed:
		return fmt.Errorf("camera: supervisor failed, reset before restarting")
	default:
		return fmt.Errorf("camera: supervisor already running (%s)", s.state)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.setStateLocked(StateConnecting, "start requested")

	go s.run(ctx)
	return nil
}

// Stop cancels any in-flight network operation, releases connections and
// returns the supervisor to Idle. Stopping while Idle is a no-op and
// emits no event.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateFailed {
		// Idle has nothing to stop; Failed is terminal until Reset.
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle && s.state != StateFailed {
		s.setStateLocked(StateIdle, "stop requested")
	}
	s.cancel = nil
	s.done = nil
}

// Reset acknowledges a terminal failure and returns to Idle so Start
// can be called again.
func (s *Supervisor) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFailed {
		return fmt.Errorf("camera: reset only valid in failed state (currently %s)", s.state)
	}
	s.setStateLocked(StateIdle, "failure acknowledged")
	s.cancel = nil
	s.done = nil
	return nil
}

// run is the acquisition loop. It owns all state transitions after
// Start and exits on cancellation or retry exhaustion.
func (s *Supervisor) run(ctx context.Context) {
	log := logger.WithComponent("supervisor")

	var ph *pollerHandle
	defer func() {
		ph.stop()
		close(s.doneRef())
	}()

	streamFrames := make(chan *Frame)
	pollFrames := make(chan *Frame)

	// Initial attempt; state is already Connecting.
	_, err := s.superviseAttempt(ctx, &ph, streamFrames, pollFrames)
	if ctx.Err() != nil {
		return
	}
	log.Warn().Err(err).Msg("Stream unavailable, entering degraded mode")
	s.enterDegraded(ctx, &ph, pollFrames, err)

	retries := 0
	delay := s.cfg.Backoff.Initial

	for {
		if retries >= s.cfg.MaxRetries {
			ph.stop()
			ph = nil
			log.Error().Int("attempts", retries).Msg("Reconnect attempts exhausted")
			s.transition(StateFailed, ErrRetryExhausted.Error())
			return
		}

		if s.pumpSleep(ctx, s.jitter(delay), pollFrames) != nil {
			return
		}
		delay *= 2
		if delay > s.cfg.Backoff.Max {
			delay = s.cfg.Backoff.Max
		}

		retries++
		metrics.Reconnects.Inc()
		s.transition(StateConnecting, fmt.Sprintf("reconnect attempt %d/%d", retries, s.cfg.MaxRetries))

		streamed, err := s.superviseAttempt(ctx, &ph, streamFrames, pollFrames)
		if ctx.Err() != nil {
			return
		}

		if streamed {
			// A full streaming session ran and then dropped: start the
			// count over and announce degradation again.
			retries = 0
			delay = s.cfg.Backoff.Initial
			log.Warn().Err(err).Msg("Stream lost, entering degraded mode")
			s.enterDegraded(ctx, &ph, pollFrames, err)
		} else {
			// Probe failed; still degraded, the poller never stopped.
			// Returning to Degraded after a failed probe is not a new
			// transition, so no event is emitted.
			log.Debug().Err(err).Int("attempt", retries).Msg("Reconnect attempt failed")
			s.setStateQuiet(StateDegraded)
		}
	}
}

// superviseAttempt runs one stream connection attempt and, on success,
// the whole streaming session. It pumps poller frames the entire time so
// consumers never see a gap while the stream is being established. The
// poller (if running) is stopped synchronously before the first stream
// frame is published.
//
// Returns streamed=true if the attempt reached Streaming. The error is
// the terminal cause of the attempt or session.
func (s *Supervisor) superviseAttempt(ctx context.Context, ph **pollerHandle, streamFrames, pollFrames chan *Frame) (bool, error) {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- s.source.Run(actx, streamFrames)
	}()

	connectTimer := time.NewTimer(s.cfg.ConnectTimeout)
	defer connectTimer.Stop()

	streamed := false
	for {
		select {
		case <-ctx.Done():
			cancel()
			<-errc
			return streamed, ctx.Err()

		case f := <-pollFrames:
			s.publish(f, "poll")

		case f := <-streamFrames:
			if !streamed {
				streamed = true
				connectTimer.Stop()
				(*ph).stop()
				*ph = nil
				s.transition(StateStreaming, "stream connected")
			}
			s.publish(f, "stream")

		case err := <-errc:
			return streamed, err

		case <-connectTimer.C:
			if !streamed {
				cancel()
				<-errc
				return false, &ConnectError{
					URL: s.cfg.StreamURL,
					Err: fmt.Errorf("no frame within %s connect timeout", s.cfg.ConnectTimeout),
				}
			}
		}
	}
}

// enterDegraded starts the fallback poller (if not already running) and
// announces the Degraded state.
func (s *Supervisor) enterDegraded(ctx context.Context, ph **pollerHandle, pollFrames chan *Frame, cause error) {
	if *ph == nil {
		pctx, pcancel := context.WithCancel(ctx)
		h := &pollerHandle{cancel: pcancel, done: make(chan struct{})}
		go func() {
			defer close(h.done)
			s.poller.Run(pctx, pollFrames)
		}()
		*ph = h
	}
	reason := "stream unavailable"
	if cause != nil {
		reason = cause.Error()
	}
	s.transition(StateDegraded, reason)
}

// pumpSleep waits for d while continuing to forward poller frames.
func (s *Supervisor) pumpSleep(ctx context.Context, d time.Duration, pollFrames chan *Frame) error {
	t := time.NewTimer(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-pollFrames:
			s.publish(f, "poll")
		case <-t.C:
			return nil
		}
	}
}

// publish assigns the next sequence number and fans the frame out.
func (s *Supervisor) publish(f *Frame, source string) {
	f.Seq = s.seq.Add(1)
	s.hub.Publish(f)
	metrics.FramesTotal.WithLabelValues(source).Inc()
}

// jitter spreads a backoff delay by the configured ± fraction.
func (s *Supervisor) jitter(d time.Duration) time.Duration {
	j := s.cfg.Backoff.Jitter
	if j <= 0 {
		return d
	}
	spread := 1 - j + 2*j*rand.Float64()
	return time.Duration(float64(d) * spread)
}

// transition changes state and emits a status event to all observers.
func (s *Supervisor) transition(state State, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStateLocked(state, reason)
}

// setStateQuiet records a state change that is not a new transition
// from the observers' point of view.
func (s *Supervisor) setStateQuiet(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	metrics.SetConnectionState(string(state))
}

func (s *Supervisor) setStateLocked(state State, reason string) {
	s.state = state
	metrics.SetConnectionState(string(state))

	ev := StatusEvent{State: state, Time: time.Now(), Reason: reason}
	logger.WithComponent("supervisor").Info().
		Str("state", string(state)).
		Str("reason", reason).
		Msg("State changed")

	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	for ch := range s.observers {
		select {
		case ch <- ev:
		default:
			// Observer stopped draining; losing an event beats blocking
			// the state machine.
		}
	}
}

// doneRef returns the done channel captured at Start.
func (s *Supervisor) doneRef() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// pollerHandle tracks one running poller goroutine.
type pollerHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// stop cancels the poller and waits for it to exit. Safe on nil.
func (h *pollerHandle) stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
