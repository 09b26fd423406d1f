package camera

import "time"

// State is the Supervisor's connection state.
type State string

const (
	// StateIdle means no acquisition is running.
	StateIdle State = "idle"
	// StateConnecting means a stream connection attempt is in flight.
	StateConnecting State = "connecting"
	// StateStreaming means the live MJPEG stream is delivering frames.
	StateStreaming State = "streaming"
	// StateDegraded means the stream is down and the fallback poller is
	// supplying frames while reconnects are attempted.
	StateDegraded State = "degraded"
	// StateFailed means reconnect attempts were exhausted. Terminal
	// until an explicit Reset.
	StateFailed State = "failed"
)

// StatusEvent describes one state transition. Events are the only
// externally observable behavior of the Supervisor besides the frame
// feed itself.
type StatusEvent struct {
	State  State     `json:"state"`
	Time   time.Time `json:"time"`
	Reason string    `json:"reason"`
}
