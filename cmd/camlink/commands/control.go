package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/camlink/camlink/internal/camera"
)

var controlCmd = &cobra.Command{
	Use:   "control VAR VALUE",
	Short: "Set a camera register",
	Long: `Send a raw control command to the camera's /control endpoint.
Any register the firmware understands can be set this way.`,
	Example: `  # Flip the image vertically
  camlink control vflip 1

  # Disable automatic white balance
  camlink control awb 0`,
	Args: cobra.ExactArgs(2),
	RunE: runControl,
}

var framesizeCmd = &cobra.Command{
	Use:   "framesize SIZE",
	Short: "Set the camera resolution",
	Long: `Set the camera resolution by preset name or numeric code.
Known presets: ` + strings.Join(camera.FramesizeNames(), ", ") + `.`,
	Example: `  # By name
  camlink framesize vga

  # By firmware code
  camlink framesize 10`,
	Args: cobra.ExactArgs(1),
	RunE: runFramesize,
}

var qualityCmd = &cobra.Command{
	Use:   "quality VALUE",
	Short: "Set the JPEG compression level",
	Long: `Set the camera's JPEG quality register. Lower values mean better
quality and larger frames; the firmware accepts 10 through 63.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuality,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	rootCmd.AddCommand(framesizeCmd)
	rootCmd.AddCommand(qualityCmd)
}

func controlClient() (*camera.Client, context.Context, context.CancelFunc, error) {
	_, cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	scfg := cfg.StreamConfig()
	if err := scfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	return camera.NewClient(scfg), ctx, cancel, nil
}

func runControl(cmd *cobra.Command, args []string) error {
	value, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid value: %s", args[1])
	}

	client, ctx, cancel, err := controlClient()
	if err != nil {
		return err
	}
	defer cancel()

	if err := client.SetControl(ctx, args[0], value); err != nil {
		return fmt.Errorf("control failed: %w", err)
	}
	fmt.Printf("%s = %d\n", args[0], value)
	return nil
}

func runFramesize(cmd *cobra.Command, args []string) error {
	code, err := camera.ParseFramesize(args[0])
	if err != nil {
		return err
	}

	client, ctx, cancel, cerr := controlClient()
	if cerr != nil {
		return cerr
	}
	defer cancel()

	if err := client.SetFramesize(ctx, code); err != nil {
		return fmt.Errorf("framesize change failed: %w", err)
	}
	fmt.Printf("framesize = %d\n", code)
	return nil
}

func runQuality(cmd *cobra.Command, args []string) error {
	value, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid quality: %s", args[0])
	}

	client, ctx, cancel, cerr := controlClient()
	if cerr != nil {
		return cerr
	}
	defer cancel()

	clamped := camera.ClampQuality(value)
	if err := client.SetQuality(ctx, clamped); err != nil {
		return fmt.Errorf("quality change failed: %w", err)
	}
	if clamped != value {
		fmt.Printf("quality = %d (clamped from %d)\n", clamped, value)
	} else {
		fmt.Printf("quality = %d\n", clamped)
	}
	return nil
}
