package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deletia/deletia/internal/model"
	"github.com/deletia/deletia/internal/pacing"
	"github.com/deletia/deletia/internal/retry"
)

// Archive endpoint defaults.
const (
	// DefaultBaseURL is the web archive's public host.
	DefaultBaseURL = "https://web.archive.org"

	// DefaultTimeout bounds a single archive request. The index endpoint
	// can take tens of seconds for posts with many captures.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies deletia in archive requests.
	DefaultUserAgent = "deletia/1.0 (+https://github.com/deletia/deletia)"

	// cdxPath is the CDX search endpoint path.
	cdxPath = "/cdx/search/cdx"

	// cdxFields selects the CDX columns we consume, in order.
	cdxFields = "original,timestamp,digest,mimetype,statuscode"
)

// CDXClient queries the archive's index surface for the captures of a
// post. Every request goes through the index pacing controller and the
// retry wrapper.
type CDXClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	controller *pacing.Controller
	retryCfg   retry.Config
}

// CDXOption configures a CDXClient.
type CDXOption func(*CDXClient)

// WithCDXBaseURL overrides the archive host. Intended for tests.
func WithCDXBaseURL(base string) CDXOption {
	return func(c *CDXClient) {
		c.baseURL = base
	}
}

// WithCDXHTTPClient replaces the underlying HTTP client.
func WithCDXHTTPClient(hc *http.Client) CDXOption {
	return func(c *CDXClient) {
		c.httpClient = hc
	}
}

// WithCDXUserAgent sets the User-Agent header for index requests.
func WithCDXUserAgent(ua string) CDXOption {
	return func(c *CDXClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithCDXRetryConfig overrides the retry schedule.
func WithCDXRetryConfig(cfg retry.Config) CDXOption {
	return func(c *CDXClient) {
		c.retryCfg = cfg
	}
}

// NewCDXClient creates a CDX index client paced by controller.
func NewCDXClient(controller *pacing.Controller, opts ...CDXOption) *CDXClient {
	c := &CDXClient{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		controller: controller,
		retryCfg:   retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// queryURL builds the CDX search URL for a post. The wildcard on the
// screen-name segment matches captures recorded under any handle the
// author has used.
func (c *CDXClient) queryURL(post model.PostID) string {
	params := url.Values{}
	params.Set("url", "twitter.com/*/status/"+post.ID())
	params.Set("output", "json")
	params.Set("fl", cdxFields)
	return c.baseURL + cdxPath + "?" + params.Encode()
}

// Captures queries the index for all archived snapshots of a post.
// An empty slice with a nil error means the archive has no captures,
// which is a normal answer, not a failure.
func (c *CDXClient) Captures(ctx context.Context, post model.PostID) ([]model.Capture, error) {
	queryURL := c.queryURL(post)

	return retry.Do(ctx, c.retryCfg, pacing.SurfaceIndex, c.controller, Classify,
		func(ctx context.Context) ([]model.Capture, error) {
			if err := c.controller.Acquire(ctx); err != nil {
				return nil, err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
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
				// Drain so the connection can be reused.
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
				return nil, &StatusError{Code: resp.StatusCode, URL: queryURL}
			}

			var rows [][]string
			if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
				return nil, &DecodeError{URL: queryURL, Err: err}
			}
			return decodeRows(post, rows)
		})
}

// decodeRows converts a CDX JSON result (header row first) into captures.
func decodeRows(post model.PostID, rows [][]string) ([]model.Capture, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	captures := make([]model.Capture, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 5 {
			return nil, &DecodeError{Err: fmt.Errorf("CDX row has %d fields, want 5", len(row))}
		}

		capturePost := post
		// The indexed URL carries the author's handle; keep it when it
		// parses, since the caller may only know the numeric ID.
		if parsed, err := model.NewPostID(row[0]); err == nil && parsed.ID() == post.ID() {
			capturePost = parsed
		}

		status := 0
		// The index records "-" when the capture has no status.
		if n, err := strconv.Atoi(row[4]); err == nil {
			status = n
		}

		captures = append(captures, model.Capture{
			Post:       capturePost,
			Timestamp:  row[1],
			URL:        row[0],
			Digest:     row[2],
			MimeType:   row[3],
			StatusCode: status,
		})
	}
	return captures, nil
}
