package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/deletia/deletia/internal/model"
)

// Config controls the behavior of the screenshot capturer.
type Config struct {
	// UserAgent overrides the browser's User-Agent header.
	UserAgent string

	// NavigationTimeout bounds one page render. Defaults to 45 seconds.
	NavigationTimeout time.Duration

	// Width and Height set the viewport. Defaults to 1280x1024.
	Width  int
	Height int
}

// Capturer renders archive snapshot pages and writes PNG screenshots.
// One Capturer owns one browser allocator; Close releases it.
type Capturer struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewCapturer creates a screenshot capturer backed by headless Chrome.
func NewCapturer(cfg Config) *Capturer {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 1024
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Capturer{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Close shuts down the browser allocator.
func (c *Capturer) Close() {
	c.allocCancel()
}

// SnapshotURL is the archive replay URL for a capture, with the toolbar
// suppressed ("if_" flag) so the screenshot shows only the archived page.
func SnapshotURL(baseURL string, capture model.Capture) string {
	return fmt.Sprintf("%s/web/%sif_/%s", baseURL, capture.Timestamp, capture.URL)
}

// Capture renders one snapshot and writes a PNG to outPath.
func (c *Capturer) Capture(ctx context.Context, snapshotURL, outPath string) error {
	taskCtx, taskCancel := chromedp.NewContext(c.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, c.cfg.NavigationTimeout)
	defer cancel()

	// Tie the browser task to the caller's lifetime.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-taskCtx.Done():
		}
	}()

	var png []byte
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if c.cfg.UserAgent != "" {
				if err := emulation.SetUserAgentOverride(c.cfg.UserAgent).Do(ctx); err != nil {
					return fmt.Errorf("set user-agent: %w", err)
				}
			}
			return emulation.SetDeviceMetricsOverride(
				int64(c.cfg.Width), int64(c.cfg.Height), 1, false,
			).Do(ctx)
		}),
		chromedp.Navigate(snapshotURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Archived pages load their assets from the archive too; give
		// them a moment to settle before capturing.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.CaptureScreenshot(&png),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return fmt.Errorf("chromedp run: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0750); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(outPath, png, 0600); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}
