package commands

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/camlink/camlink/internal/api"
	"github.com/camlink/camlink/internal/camera"
	"github.com/camlink/camlink/internal/logger"
	"github.com/camlink/camlink/internal/output"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the camera and serve the local feed",
	Long: `Start the camlink ground station: supervise the camera connection and
serve the live feed, status API and controls on the local HTTP port.`,
	Example: `  # Connect to the default AP-mode camera (http://192.168.4.1)
  camlink serve

  # Custom camera host and local port
  camlink serve --host http://10.0.0.7 --port 9090

  # Verbose supervision logging
  camlink serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithComponent("serve")

	scfg := cfg.StreamConfig()
	if err := scfg.Validate(); err != nil {
		return err
	}

	// Core: client, hub, supervisor.
	client := camera.NewClient(scfg)
	hub := camera.NewHub()
	supervisor := camera.NewSupervisor(scfg, client, hub)

	// Sinks.
	mjpegOut := output.NewMJPEGOutput(cfg.Output.OSD)
	if err := mjpegOut.Start(); err != nil {
		return fmt.Errorf("failed to start MJPEG output: %w", err)
	}
	defer mjpegOut.Stop()

	recorder := output.NewRecorder(cfg.Output.Dir, cfg.Output.RecordFPS)
	defer recorder.Stop()

	snapshots := output.NewSnapshotWriter(cfg.Output.Dir)

	// Display path: latest-frame-wins, also remembers the newest frame
	// as the snapshot fallback.
	var latest atomic.Pointer[camera.Frame]
	displaySub := hub.Subscribe("display", camera.LatestWins)
	go func() {
		for f := range displaySub.Frames() {
			latest.Store(f)
			if err := mjpegOut.WriteFrame(f); err != nil {
				log.Debug().Err(err).Msg("Display write failed")
			}
		}
	}()

	// Recording path: buffered so the recorder sees every frame.
	recordSub := hub.Subscribe("recorder", camera.Buffered)
	go func() {
		for f := range recordSub.Frames() {
			if err := recorder.WriteFrame(f); err != nil {
				log.Warn().Err(err).Msg("Recorder write failed")
			}
		}
	}()

	// Feed connection state into the OSD.
	events := supervisor.Subscribe()
	go func() {
		for ev := range events {
			mjpegOut.SetStatusLine(fmt.Sprintf("%s | %s", ev.State, ev.Reason))
		}
	}()

	if err := supervisor.Start(); err != nil {
		return fmt.Errorf("failed to start supervisor: %w", err)
	}

	server := api.NewServer(supervisor, configMgr, mjpegOut, recorder, snapshots, latest.Load)
	go func() {
		if err := server.Start(cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	log.Info().
		Str("camera", cfg.Camera.BaseHost).
		Str("viewer", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)).
		Str("output_dir", cfg.Output.Dir).
		Msg("camlink is running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down")
	supervisor.Stop()
	supervisor.Unsubscribe(events)
	hub.Close()
	return nil
}
