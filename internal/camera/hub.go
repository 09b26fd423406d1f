package camera

import (
	"sync"
	"sync/atomic"

	"github.com/camlink/camlink/internal/metrics"
)

// DeliveryPolicy selects how a subscription behaves when its consumer
// falls behind the frame rate.
type DeliveryPolicy int

const (
	// LatestWins keeps a single-slot mailbox: an unconsumed frame is
	// replaced by the newest one. Right for display paths where latency
	// beats completeness.
	LatestWins DeliveryPolicy = iota

	// Buffered keeps a queue for consumers that should see every frame,
	// such as the recorder. The queue is still bounded; overflow drops
	// the newest frame and counts it.
	Buffered
)

const bufferedQueueSize = 256

// Subscription is one consumer's view of the frame feed. Frames arrive
// in production order; sequence numbers are strictly increasing.
type Subscription struct {
	id     string
	policy DeliveryPolicy
	ch     chan *Frame
	drops  atomic.Uint64
}

// Frames returns the channel to consume from. It is closed when the
// subscription is removed or the hub shuts down.
func (s *Subscription) Frames() <-chan *Frame { return s.ch }

// Drops returns how many frames this subscriber missed.
func (s *Subscription) Drops() uint64 { return s.drops.Load() }

func (s *Subscription) dropped() {
	s.drops.Add(1)
	metrics.SinkDrops.WithLabelValues(s.id).Inc()
}

// Hub fans frames out from the Supervisor to sink adapters. Publishing
// never blocks: each subscription absorbs backpressure according to its
// policy.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool
}

// NewHub creates an empty frame hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscription)}
}

// Subscribe registers a consumer under id, replacing any previous
// subscription with the same id.
func (h *Hub) Subscribe(id string, policy DeliveryPolicy) *Subscription {
	size := 1
	if policy == Buffered {
		size = bufferedQueueSize
	}
	sub := &Subscription{id: id, policy: policy, ch: make(chan *Frame, size)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	if old, ok := h.subs[id]; ok {
		close(old.ch)
	}
	h.subs[id] = sub
	return sub
}

// Unsubscribe removes a consumer and closes its channel. Safe to call
// for ids that were never subscribed.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Publish delivers a frame to every subscription. Called from a single
// goroutine (the Supervisor), which preserves per-subscriber ordering.
func (h *Hub) Publish(f *Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		switch sub.policy {
		case LatestWins:
			select {
			case sub.ch <- f:
			default:
				// Mailbox full: evict the stale frame, then retry. The
				// consumer may have drained it in between, in which case
				// the send below succeeds without a drop.
				select {
				case <-sub.ch:
					sub.dropped()
				default:
				}
				select {
				case sub.ch <- f:
				default:
					sub.dropped()
				}
			}
		case Buffered:
			select {
			case sub.ch <- f:
			default:
				sub.dropped()
			}
		}
	}
}

// Close shuts the hub down and closes every subscription channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}
