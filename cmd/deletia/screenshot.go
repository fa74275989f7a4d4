package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deletia/deletia/internal/archive"
	"github.com/deletia/deletia/internal/browser"
	"github.com/deletia/deletia/internal/log"
	"github.com/deletia/deletia/internal/model"
	"github.com/deletia/deletia/internal/pacing"
)

// NewScreenshotCmd creates the screenshot command.
func NewScreenshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screenshot <post-id-or-url>",
		Short: "Render archived captures of a post as screenshots",
		Long: `Screenshot looks up a post's captures in the archive index, renders
them in headless Chrome, and writes one PNG per capture.

Requires a Chrome or Chromium binary on the PATH.

Examples:
  # Screenshot every capture of a post
  deletia screenshot 1354852772606152705

  # Only the most recent capture, into a chosen directory
  deletia screenshot --latest -o ./evidence 1354852772606152705`,
		Args: cobra.ExactArgs(1),
		RunE: runScreenshotCmd,
	}

	cmd.Flags().BoolP("latest", "L", false,
		"Render only the most recent capture")
	cmd.Flags().StringP("output", "o", ".",
		"Directory for the PNG files")
	cmd.Flags().StringP("pacing", "p", string(pacing.ProfileDefault),
		"Pacing profile: conservative, default, or adaptive")

	return cmd
}

// runScreenshotCmd executes the screenshot command.
func runScreenshotCmd(cmd *cobra.Command, args []string) error {
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	outDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	profileName, err := cmd.Flags().GetString("pacing")
	if err != nil {
		return err
	}
	profile, err := pacing.ParseProfile(profileName)
	if err != nil {
		return err
	}

	post, err := model.NewPostID(args[0])
	if err != nil {
		return fmt.Errorf("invalid post identifier %q: %w", args[0], err)
	}

	logger := log.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cdx := archive.NewCDXClient(pacing.NewController(pacing.SurfaceIndex, profile))
	captures, err := cdx.Captures(ctx, post)
	if err != nil {
		return fmt.Errorf("index lookup failed: %w", err)
	}
	if len(captures) == 0 {
		return fmt.Errorf("no captures found for post %s", post.ID())
	}
	if latest {
		captures = captures[len(captures)-1:]
	}

	capturer := browser.NewCapturer(browser.Config{})
	defer capturer.Close()

	// Renders go through the content pacing controller like any other
	// archive traffic.
	controller := pacing.NewController(pacing.SurfaceContent, profile)
	for _, capture := range captures {
		if err := controller.Acquire(ctx); err != nil {
			return err
		}

		outPath := filepath.Join(outDir,
			fmt.Sprintf("%s-%s.png", post.ID(), capture.Timestamp))
		snapshotURL := browser.SnapshotURL(archive.DefaultBaseURL, capture)

		if err := capturer.Capture(ctx, snapshotURL, outPath); err != nil {
			logger.Warn("screenshot failed",
				"post", post.ID(),
				"timestamp", capture.Timestamp,
				"error", err,
			)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Captured %s\n", outPath)
	}
	return nil
}
