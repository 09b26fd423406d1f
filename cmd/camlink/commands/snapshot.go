package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/camlink/camlink/internal/camera"
	"github.com/camlink/camlink/internal/output"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture a single still from the camera",
	Long: `Fetch one JPEG still over the camera's capture endpoint and save it
to the output directory. Works without a running serve session.`,
	Example: `  # Grab a still from the default camera
  camlink snapshot

  # From a specific host
  camlink snapshot --host http://10.0.0.7`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scfg := cfg.StreamConfig()
	if err := scfg.Validate(); err != nil {
		return err
	}

	client := camera.NewClient(scfg)
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	data, err := client.Capture(ctx)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}

	path, err := output.NewSnapshotWriter(cfg.Output.Dir).Save(data)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}
