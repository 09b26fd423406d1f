package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/camlink/camlink/internal/camera"
	"github.com/camlink/camlink/internal/logger"
)

// SnapshotWriter saves single JPEG frames under the output directory.
// The directory is created on first use.
type SnapshotWriter struct {
	dir string
}

// NewSnapshotWriter creates a snapshot writer rooted at dir.
func NewSnapshotWriter(dir string) *SnapshotWriter {
	return &SnapshotWriter{dir: dir}
}

// Save writes raw JPEG bytes to a timestamped file and returns its path.
func (w *SnapshotWriter) Save(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("snapshot: no image data")
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("snapshot: create output dir: %w", err)
	}

	path := filepath.Join(w.dir, "snap_"+timestamp()+".jpg")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("snapshot: write %s: %w", path, err)
	}

	logger.WithComponent("snapshot").Info().Str("path", path).Int("bytes", len(data)).Msg("Snapshot saved")
	return path, nil
}

// SaveFrame writes a supervised frame's JPEG data.
func (w *SnapshotWriter) SaveFrame(f *camera.Frame) (string, error) {
	if f == nil {
		return "", fmt.Errorf("snapshot: no frame available")
	}
	return w.Save(f.JPEG)
}
