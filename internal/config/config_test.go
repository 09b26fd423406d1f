package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camlink/camlink/internal/camera"
)

func TestManagerCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "config file is created on first run")

	cfg := mgr.Get()
	assert.Equal(t, "http://192.168.4.1", cfg.Camera.BaseHost)
	assert.Equal(t, "http://192.168.4.1:81/stream", cfg.Camera.StreamURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Output.OSD)
}

func TestManagerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(path)
	require.NoError(t, err)

	mgr.SetBaseHost("http://10.0.0.7")
	mgr.SetPort(9090)
	mgr.SetLogLevel("debug")
	require.NoError(t, mgr.Save())

	reloaded, err := NewManager(path)
	require.NoError(t, err)

	cfg := reloaded.Get()
	assert.Equal(t, "http://10.0.0.7", cfg.Camera.BaseHost)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestManagerPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0644))

	mgr, err := NewManager(path)
	require.NoError(t, err)

	cfg := mgr.Get()
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "http://192.168.4.1", cfg.Camera.BaseHost, "unset keys fall back to defaults")
}

func TestManagerRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

	_, err := NewManager(path)
	require.Error(t, err)
}

func TestStreamConfigConversion(t *testing.T) {
	cfg := Defaults()
	cfg.Camera.ConnectTimeoutMS = 3000
	cfg.Camera.PollIntervalMS = 250

	scfg := cfg.StreamConfig()
	assert.Equal(t, 3*time.Second, scfg.ConnectTimeout)
	assert.Equal(t, 250*time.Millisecond, scfg.PollInterval)
	assert.Equal(t, camera.DefaultStallTimeout, scfg.StallTimeout)
	assert.Equal(t, camera.DefaultMaxRetries, scfg.MaxRetries)
	assert.Equal(t, camera.DefaultBackoffJitter, scfg.Backoff.Jitter)
	require.NoError(t, scfg.Validate())
}
