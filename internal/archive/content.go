package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/deletia/deletia/internal/model"
	"github.com/deletia/deletia/internal/pacing"
	"github.com/deletia/deletia/internal/retry"
)

// DefaultMaxBodySize limits the archived bytes read for one capture.
// Archived post pages are small; the cap prevents memory exhaustion on
// unexpected payloads.
const DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

// ContentClient retrieves archived capture bytes from the archive's
// content surface. Every request goes through the content pacing
// controller and the retry wrapper.
type ContentClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	controller  *pacing.Controller
	retryCfg    retry.Config
	maxBodySize int64
}

// ContentOption configures a ContentClient.
type ContentOption func(*ContentClient)

// WithContentBaseURL overrides the archive host. Intended for tests.
func WithContentBaseURL(base string) ContentOption {
	return func(c *ContentClient) {
		c.baseURL = base
	}
}

// WithContentHTTPClient replaces the underlying HTTP client.
func WithContentHTTPClient(hc *http.Client) ContentOption {
	return func(c *ContentClient) {
		c.httpClient = hc
	}
}

// WithContentUserAgent sets the User-Agent header for content requests.
func WithContentUserAgent(ua string) ContentOption {
	return func(c *ContentClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithContentMaxBodySize caps the archived bytes read for one capture.
// Non-positive values keep the default.
func WithContentMaxBodySize(n int64) ContentOption {
	return func(c *ContentClient) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithContentRetryConfig overrides the retry schedule.
func WithContentRetryConfig(cfg retry.Config) ContentOption {
	return func(c *ContentClient) {
		c.retryCfg = cfg
	}
}

// NewContentClient creates a content client paced by controller.
func NewContentClient(controller *pacing.Controller, opts ...ContentOption) *ContentClient {
	c := &ContentClient{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		baseURL:     DefaultBaseURL,
		userAgent:   DefaultUserAgent,
		controller:  controller,
		retryCfg:    retry.DefaultConfig(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SnapshotURL returns the content endpoint URL for one capture. The "id_"
// flag asks the archive for the original bytes without its replay toolbar,
// so the digest of what we download matches the digest the index reports.
func (c *ContentClient) SnapshotURL(capture model.Capture) string {
	return fmt.Sprintf("%s/web/%sid_/%s", c.baseURL, capture.Timestamp, capture.URL)
}

// Fetch downloads the archived bytes of one capture.
func (c *ContentClient) Fetch(ctx context.Context, capture model.Capture) ([]byte, error) {
	snapshotURL := c.SnapshotURL(capture)

	return retry.Do(ctx, c.retryCfg, pacing.SurfaceContent, c.controller, Classify,
		func(ctx context.Context) ([]byte, error) {
			if err := c.controller.Acquire(ctx); err != nil {
				return nil, err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, snapshotURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", c.userAgent)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
				return nil, &StatusError{Code: resp.StatusCode, URL: snapshotURL}
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
			if err != nil {
				return nil, err
			}
			return body, nil
		})
}
