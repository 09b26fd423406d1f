package camera

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client issues HTTP requests against an ESP32-CAM module: single-image
// captures, remote control commands, and the long-lived stream request.
//
// The control and capture calls are plain request/response exchanges that
// run independently of frame acquisition.
type Client struct {
	cfg StreamConfig

	// capture/control requests get a per-request deadline
	http *http.Client

	// the stream request must never time out as a whole; reads are
	// bounded by the source's stall watchdog instead
	stream *http.Client
}

// NewClient creates a device client for the given connection parameters.
func NewClient(cfg StreamConfig) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
		stream: &http.Client{},
	}
}

// Capture fetches a single JPEG from the capture endpoint.
func (c *Client) Capture(ctx context.Context) ([]byte, error) {
	captureURL := c.cfg.BaseHost + "/capture"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, captureURL, nil)
	if err != nil {
		return nil, &ConnectError{URL: captureURL, Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectError{URL: captureURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ConnectError{URL: captureURL, Err: fmt.Errorf("status %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectError{URL: captureURL, Err: err}
	}
	return data, nil
}

// SetControl sets a remote camera parameter via the control endpoint,
// e.g. SetControl(ctx, "framesize", 5). Fire-and-forget from the core's
// perspective; the Supervisor never intercepts these.
func (c *Client) SetControl(ctx context.Context, name string, value int) error {
	controlURL := fmt.Sprintf("%s/control?var=%s&val=%d", c.cfg.BaseHost, url.QueryEscape(name), value)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, controlURL, nil)
	if err != nil {
		return fmt.Errorf("camera: control request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("camera: control %s=%d: %w", name, value, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("camera: control %s=%d: status %s", name, value, resp.Status)
	}
	return nil
}

// SetFramesize sets the sensor resolution by framesize code.
func (c *Client) SetFramesize(ctx context.Context, code int) error {
	return c.SetControl(ctx, "framesize", code)
}

// SetQuality sets the JPEG quality (clamped to the sensor's range).
func (c *Client) SetQuality(ctx context.Context, quality int) error {
	return c.SetControl(ctx, "quality", ClampQuality(quality))
}

// streamConn is one open MJPEG connection.
type streamConn struct {
	url   string
	parts *multipart.Reader
	body  io.ReadCloser
}

func (sc *streamConn) Close() error { return sc.body.Close() }

// OpenStream opens the multipart stream at streamURL and validates the
// response headers. The returned connection delivers raw JPEG parts; the
// caller owns it and must Close it.
func (c *Client) OpenStream(ctx context.Context, streamURL string) (*streamConn, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, &ConnectError{URL: streamURL, Err: err}
	}
	req.Header.Set("Accept", "multipart/x-mixed-replace")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, &ConnectError{URL: streamURL, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &ConnectError{URL: streamURL, Err: fmt.Errorf("status %s", resp.Status)}
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return nil, &ConnectError{URL: streamURL, Err: fmt.Errorf("not an MJPEG stream (Content-Type %q)", resp.Header.Get("Content-Type"))}
	}

	return &streamConn{
		url:   streamURL,
		parts: multipart.NewReader(resp.Body, params["boundary"]),
		body:  resp.Body,
	}, nil
}

// partContentLength reads the advertised length of a stream part, if any.
// ESP32-CAM firmware sends Content-Length on every part; it is used only
// as a decode-error diagnostic.
func partContentLength(p *multipart.Part) int {
	n, err := strconv.Atoi(p.Header.Get("Content-Length"))
	if err != nil {
		return 0
	}
	return n
}
