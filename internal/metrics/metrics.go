package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesTotal counts frames entering the unified feed, by acquisition
	// strategy ("stream" or "poll").
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camlink_frames_total",
		Help: "Frames delivered to the unified feed by acquisition source",
	}, []string{"source"})

	// DecodeErrors counts malformed frames dropped without ending a session.
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camlink_decode_errors_total",
		Help: "Malformed frames dropped by the stream source or poller",
	})

	// StreamStalls counts stall-timeout terminations of the live stream.
	StreamStalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camlink_stream_stalls_total",
		Help: "Stream connections closed because no data arrived within the stall timeout",
	})

	// Reconnects counts reconnect attempts made from the degraded state.
	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camlink_reconnects_total",
		Help: "Stream reconnect attempts",
	})

	// SinkDrops counts frames a sink missed because it fell behind.
	SinkDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camlink_sink_dropped_frames_total",
		Help: "Frames dropped per sink due to backpressure",
	}, []string{"sink"})

	connectionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "camlink_connection_state",
		Help: "Current supervisor state (1 for the active state, 0 otherwise)",
	}, []string{"state"})
)

var knownStates = []string{"idle", "connecting", "streaming", "degraded", "failed"}

// SetConnectionState marks the given state active and all others inactive.
func SetConnectionState(state string) {
	for _, s := range knownStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		connectionState.WithLabelValues(s).Set(v)
	}
}
