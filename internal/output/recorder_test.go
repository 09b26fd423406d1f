package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderLifecycle(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, 20)

	assert.False(t, r.IsRunning())
	require.NoError(t, r.Stop(), "stopping an idle recorder is a no-op")

	// Frames before Start are ignored.
	require.NoError(t, r.WriteFrame(testFrame(t, 1, 16, 16)))
	assert.Zero(t, r.FrameCount())

	require.NoError(t, r.Start())
	assert.True(t, r.IsRunning())
	require.Error(t, r.Start(), "double start is rejected")

	for i := uint64(2); i <= 6; i++ {
		require.NoError(t, r.WriteFrame(testFrame(t, i, 16, 16)))
	}
	assert.Equal(t, uint64(5), r.FrameCount())

	path := r.Path()
	assert.Regexp(t, `^rec_\d{8}_\d{6}\.avi$`, filepath.Base(path))

	require.NoError(t, r.Stop())
	assert.False(t, r.IsRunning())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRecorderSkipsDimensionChanges(t *testing.T) {
	r := NewRecorder(t.TempDir(), 10)
	require.NoError(t, r.Start())

	require.NoError(t, r.WriteFrame(testFrame(t, 1, 32, 24)))
	// Resolution changed mid-recording; the frame is dropped, the file
	// stays consistent.
	require.NoError(t, r.WriteFrame(testFrame(t, 2, 16, 12)))
	require.NoError(t, r.WriteFrame(testFrame(t, 3, 32, 24)))

	assert.Equal(t, uint64(2), r.FrameCount())
	require.NoError(t, r.Stop())
}

func TestRecorderStopWithoutFrames(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, 20)

	require.NoError(t, r.Start())
	require.NoError(t, r.Stop())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file is produced without frames")
}
