package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFramesize(t *testing.T) {
	code, err := ParseFramesize("VGA")
	require.NoError(t, err)
	assert.Equal(t, FramesizeVGA, code)

	code, err = ParseFramesize("svga")
	require.NoError(t, err)
	assert.Equal(t, FramesizeSVGA, code)

	code, err = ParseFramesize("13")
	require.NoError(t, err)
	assert.Equal(t, 13, code)

	_, err = ParseFramesize("14")
	assert.Error(t, err, "codes above the sensor range are rejected")

	_, err = ParseFramesize("cinemascope")
	assert.Error(t, err)
}

func TestClampQuality(t *testing.T) {
	assert.Equal(t, QualityMin, ClampQuality(0))
	assert.Equal(t, QualityMax, ClampQuality(100))
	assert.Equal(t, 30, ClampQuality(30))
}
