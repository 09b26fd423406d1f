package camera

import (
	"errors"
	"fmt"
)

// ErrRetryExhausted is returned by the Supervisor when reconnect attempts
// exceed the configured maximum. It is the only error surfaced to the user;
// everything below it is recovered internally.
var ErrRetryExhausted = errors.New("camera: reconnect attempts exhausted")

// ConnectError indicates the stream or poll connection could not be
// established at all.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("camera: connect %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DecodeError indicates a single malformed frame. It is counted and the
// frame dropped; it never terminates a stream.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("camera: decode frame (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StallError indicates the connection was open but produced no data within
// the stall timeout. It terminates the stream sequence and triggers the
// Degraded transition.
type StallError struct {
	URL     string
	Timeout string
}

func (e *StallError) Error() string {
	return fmt.Sprintf("camera: stream %s stalled (no data within %s)", e.URL, e.Timeout)
}
