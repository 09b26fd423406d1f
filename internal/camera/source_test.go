package camera

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains up to n frames, returning early when the source exits.
func collect(t *testing.T, out <-chan *Frame, errc <-chan error, n int) ([]*Frame, error) {
	t.Helper()
	var frames []*Frame
	for {
		select {
		case f := <-out:
			frames = append(frames, f)
			if len(frames) == n {
				// Let the source run to its terminal error.
				for {
					select {
					case <-out:
					case err := <-errc:
						return frames, err
					case <-time.After(5 * time.Second):
						t.Fatal("source did not terminate")
					}
				}
			}
		case err := <-errc:
			return frames, err
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for frames")
		}
	}
}

func runSource(ctx context.Context, src *StreamSource, out chan *Frame) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- src.Run(ctx, out) }()
	return errc
}

func TestStreamSourceDeliversFrames(t *testing.T) {
	cam := newFakeCamera(t)
	jpg := testJPEG(t, 8, 6)
	cam.setStreamParts([][]byte{jpg, jpg, jpg})

	cfg := fastConfig(cam.baseHost(), cam.streamURL())
	src := NewStreamSource(NewClient(cfg), cfg)

	out := make(chan *Frame)
	frames, err := collect(t, out, runSource(context.Background(), src, out), 3)

	require.Len(t, frames, 3)
	for _, f := range frames {
		assert.Equal(t, 8, f.Width)
		assert.Equal(t, 6, f.Height)
		assert.Equal(t, jpg, f.JPEG)
		assert.NotNil(t, f.Image)
		assert.Zero(t, f.Seq, "sequence is assigned downstream")
	}

	// The device closed the connection after the last part.
	var cerr *ConnectError
	require.ErrorAs(t, err, &cerr)
}

func TestStreamSourceSkipsMalformedFrames(t *testing.T) {
	cam := newFakeCamera(t)
	good := testJPEG(t, 4, 4)
	cam.setStreamParts([][]byte{
		[]byte("not a jpeg"),
		good,
		[]byte{0xff, 0xd8, 0x00}, // truncated
		good,
	})

	cfg := fastConfig(cam.baseHost(), cam.streamURL())
	src := NewStreamSource(NewClient(cfg), cfg)

	out := make(chan *Frame)
	frames, _ := collect(t, out, runSource(context.Background(), src, out), 2)

	require.Len(t, frames, 2)
	assert.Equal(t, uint64(2), src.DecodeErrors())
}

func TestStreamSourceStall(t *testing.T) {
	cam := newFakeCamera(t)
	jpg := testJPEG(t, 4, 4)
	cam.setStreamParts([][]byte{jpg, nil}) // one frame, then silence

	cfg := fastConfig(cam.baseHost(), cam.streamURL())
	cfg.StallTimeout = 100 * time.Millisecond
	src := NewStreamSource(NewClient(cfg), cfg)

	out := make(chan *Frame)
	frames, err := collect(t, out, runSource(context.Background(), src, out), 1)

	require.Len(t, frames, 1)
	var serr *StallError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, cam.streamURL(), serr.URL)
}

func TestStreamSourceConnectFailure(t *testing.T) {
	cam := newFakeCamera(t)
	cam.streamFail.Store(true)

	cfg := fastConfig(cam.baseHost(), cam.streamURL())
	src := NewStreamSource(NewClient(cfg), cfg)

	out := make(chan *Frame)
	err := <-runSource(context.Background(), src, out)

	var cerr *ConnectError
	require.ErrorAs(t, err, &cerr)
}

func TestStreamSourceCancellation(t *testing.T) {
	cam := newFakeCamera(t)
	cam.setStreamParts([][]byte{nil}) // hang immediately

	cfg := fastConfig(cam.baseHost(), cam.streamURL())
	src := NewStreamSource(NewClient(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan *Frame)
	errc := runSource(ctx, src, out)

	cancel()
	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not honor cancellation")
	}
}

func TestStreamSourceRotatesCandidates(t *testing.T) {
	cfg := fastConfig("http://192.168.4.1", "http://192.168.4.1:81/stream")
	src := NewStreamSource(NewClient(cfg), cfg)

	candidates := cfg.StreamCandidates()
	require.Len(t, candidates, 2)

	assert.Equal(t, candidates[0], src.nextURL())
	assert.Equal(t, candidates[1], src.nextURL())
	assert.Equal(t, candidates[0], src.nextURL(), "rotation wraps")
}
