package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamConfigValidateDefaults(t *testing.T) {
	cfg := StreamConfig{BaseHost: "192.168.4.1/"}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://192.168.4.1", cfg.BaseHost, "scheme added, trailing slash trimmed")
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, DefaultStallTimeout, cfg.StallTimeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultBackoffInitial, cfg.Backoff.Initial)
	assert.Equal(t, DefaultBackoffMax, cfg.Backoff.Max)
	assert.Equal(t, DefaultBackoffJitter, cfg.Backoff.Jitter)
}

func TestStreamConfigValidateRequiresHost(t *testing.T) {
	cfg := StreamConfig{}
	require.Error(t, cfg.Validate())
}

func TestStreamCandidates(t *testing.T) {
	tests := []struct {
		name string
		cfg  StreamConfig
		want []string
	}{
		{
			name: "configured url first, fallbacks deduped",
			cfg: StreamConfig{
				BaseHost:  "http://192.168.4.1",
				StreamURL: "http://192.168.4.1:81/stream",
			},
			want: []string{
				"http://192.168.4.1:81/stream",
				"http://192.168.4.1/stream",
			},
		},
		{
			name: "custom stream url kept ahead of standard ports",
			cfg: StreamConfig{
				BaseHost:  "http://10.0.0.7:8080",
				StreamURL: "http://10.0.0.7:8080/mjpeg",
			},
			want: []string{
				"http://10.0.0.7:8080/mjpeg",
				"http://10.0.0.7:81/stream",
				"http://10.0.0.7/stream",
			},
		},
		{
			name: "no stream url configured",
			cfg: StreamConfig{
				BaseHost: "http://192.168.4.1",
			},
			want: []string{
				"http://192.168.4.1:81/stream",
				"http://192.168.4.1/stream",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.StreamCandidates())
		})
	}
}
