package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/camlink/camlink/internal/config"
	"github.com/camlink/camlink/internal/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "camlink",
		Short: "camlink - ESP32-CAM ground station",
		Long: `camlink connects to an ESP32-CAM module, keeps the MJPEG stream alive
across device hiccups, and makes the feed available locally.

Features:
  • Supervised MJPEG stream with automatic retry and backoff
  • Degraded polling mode when the stream is down (no frame gap)
  • Local MJPEG re-stream with a browser viewer and OSD
  • Snapshots and Motion-JPEG recordings on disk
  • Remote resolution/quality control
  • REST API + WebSocket status events for GUI integration`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/camlink/config.yaml)")
	rootCmd.PersistentFlags().String("host", "", "camera base host (default is http://192.168.4.1)")
	rootCmd.PersistentFlags().String("stream-url", "", "camera MJPEG stream URL (default is {host}:81/stream)")
	rootCmd.PersistentFlags().Int("port", 0, "local server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	// Bind flags to viper
	viper.BindPFlag("base_host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("stream_url", rootCmd.PersistentFlags().Lookup("stream-url"))
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig builds the config manager, applies flag overrides and
// initializes logging.
func loadConfig() (*config.Manager, config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("failed to initialize config manager: %w", err)
	}

	if viper.IsSet("base_host") {
		if host := viper.GetString("base_host"); host != "" {
			mgr.SetBaseHost(host)
		}
	}
	if viper.IsSet("stream_url") {
		if u := viper.GetString("stream_url"); u != "" {
			mgr.SetStreamURL(u)
		}
	}
	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			mgr.SetPort(port)
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			mgr.SetLogLevel(level)
		}
	}

	cfg := mgr.Get()
	logger.Init(cfg.LogLevel, true)
	return mgr, cfg, nil
}
