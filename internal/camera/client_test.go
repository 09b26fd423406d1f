package camera

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCapture(t *testing.T) {
	cam := newFakeCamera(t)
	client := NewClient(fastConfig(cam.baseHost(), cam.streamURL()))

	data, err := client.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cam.captureJPEG, data)
}

func TestClientCaptureErrorStatus(t *testing.T) {
	cam := newFakeCamera(t)
	cam.captureFail.Store(true)
	client := NewClient(fastConfig(cam.baseHost(), cam.streamURL()))

	_, err := client.Capture(context.Background())
	require.Error(t, err)
	var cerr *ConnectError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.URL, "/capture")
}

func TestClientSetControlQueryForm(t *testing.T) {
	cam := newFakeCamera(t)
	client := NewClient(fastConfig(cam.baseHost(), cam.streamURL()))

	require.NoError(t, client.SetControl(context.Background(), "vflip", 1))
	v, ok := cam.control("vflip")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	require.NoError(t, client.SetFramesize(context.Background(), FramesizeVGA))
	v, _ = cam.control("framesize")
	assert.Equal(t, FramesizeVGA, v)

	// Out-of-range quality is clamped before it reaches the device.
	require.NoError(t, client.SetQuality(context.Background(), 5))
	v, _ = cam.control("quality")
	assert.Equal(t, QualityMin, v)
}

func TestClientOpenStreamRejectsNonMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>camera index</html>"))
	}))
	defer srv.Close()

	client := NewClient(fastConfig(srv.URL, srv.URL+"/stream"))
	_, err := client.OpenStream(context.Background(), srv.URL)
	require.Error(t, err)
	var cerr *ConnectError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Error(), "not an MJPEG stream")
}

func TestClientOpenStreamReadsParts(t *testing.T) {
	cam := newFakeCamera(t)
	jpg := testJPEG(t, 4, 4)
	cam.setStreamParts([][]byte{jpg, jpg})

	client := NewClient(fastConfig(cam.baseHost(), cam.streamURL()))
	conn, err := client.OpenStream(context.Background(), cam.streamURL())
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		part, err := conn.parts.NextPart()
		require.NoError(t, err, "part %d", i)
		assert.Equal(t, len(jpg), partContentLength(part))
		part.Close()
	}
}
