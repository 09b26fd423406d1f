package camera

import (
	"fmt"
	"strings"
	"time"
)

// StreamConfig holds the connection parameters for one camera session.
//
// The value is immutable for the lifetime of a Supervisor; changing any
// field requires stopping the Supervisor and constructing a new one.
type StreamConfig struct {
	// BaseHost is the control/capture host, e.g. "http://192.168.4.1".
	BaseHost string

	// StreamURL is the MJPEG endpoint, e.g. "http://192.168.4.1:81/stream".
	StreamURL string

	// ConnectTimeout bounds the wait for the first frame of a new stream.
	ConnectTimeout time.Duration

	// StallTimeout closes a stream that is open but silent.
	StallTimeout time.Duration

	// PollInterval is the tick period of the degraded-mode poller.
	PollInterval time.Duration

	// MaxRetries is the number of reconnect attempts before Failed.
	MaxRetries int

	Backoff BackoffConfig
}

// BackoffConfig controls the delay between reconnect attempts.
type BackoffConfig struct {
	Initial time.Duration
	Max     time.Duration
	// Jitter is a ± fraction applied to each delay, e.g. 0.2 for ±20%.
	Jitter float64
}

// Defaults chosen to match the behavior of typical ESP32-CAM firmware:
// the device drops the stream on sensor reconfiguration and takes a few
// seconds to come back.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultStallTimeout   = 10 * time.Second
	DefaultPollInterval   = 400 * time.Millisecond
	DefaultMaxRetries     = 5
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 15 * time.Second
	DefaultBackoffJitter  = 0.2
)

// Validate checks the config and fills zero values with defaults.
func (c *StreamConfig) Validate() error {
	if c.BaseHost == "" {
		return fmt.Errorf("camera: base host is required")
	}
	if !strings.HasPrefix(c.BaseHost, "http://") && !strings.HasPrefix(c.BaseHost, "https://") {
		c.BaseHost = "http://" + c.BaseHost
	}
	c.BaseHost = strings.TrimRight(c.BaseHost, "/")
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = DefaultStallTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Backoff.Initial <= 0 {
		c.Backoff.Initial = DefaultBackoffInitial
	}
	if c.Backoff.Max <= 0 {
		c.Backoff.Max = DefaultBackoffMax
	}
	if c.Backoff.Jitter < 0 || c.Backoff.Jitter >= 1 {
		c.Backoff.Jitter = DefaultBackoffJitter
	}
	return nil
}

// StreamCandidates returns the stream URLs to try, in order. ESP32-CAM
// firmware serves the stream on :81 by default but some builds put it on
// the control port, so the configured URL is followed by the standard
// fallbacks derived from the base host.
func (c *StreamConfig) StreamCandidates() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	add(c.StreamURL)
	if host, ok := strings.CutPrefix(c.BaseHost, "http://"); ok {
		if h, _, found := strings.Cut(host, ":"); found {
			host = h
		}
		add("http://" + host + ":81/stream")
		add("http://" + host + "/stream")
	}
	return out
}
