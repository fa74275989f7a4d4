package social

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deletia/deletia/internal/model"
)

// DefaultTimeout bounds one existence probe.
const DefaultTimeout = 15 * time.Second

// Client probes the platform for post existence. It satisfies
// workflow.ExistenceChecker.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	bearerToken string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithBearerToken attaches an API bearer token to probes. Optional; the
// anonymous web endpoint answers existence for most posts.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.bearerToken = token
	}
}

// NewClient creates a platform existence checker.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "deletia/1.0 (+https://github.com/deletia/deletia)",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exists probes the post's canonical URL and classifies the response.
//
// 404 and 410 mean the post is gone; 403 also maps to gone because the
// platform answers it for suspended and withheld accounts, whose posts
// are equally unreachable. Anything else unexpected is an error, not a
// verdict: a throttled or misbehaving platform must never be read as
// evidence of deletion.
func (c *Client) Exists(ctx context.Context, post model.PostID) (model.Existence, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, post.URL(), nil)
	if err != nil {
		return model.ExistenceUnchecked, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.ExistenceUnchecked, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch resp.StatusCode {
	case http.StatusOK:
		return model.ExistenceLive, nil
	case http.StatusNotFound, http.StatusGone, http.StatusForbidden:
		return model.ExistenceGone, nil
	default:
		return model.ExistenceUnchecked,
			fmt.Errorf("existence probe for %s returned status %d", post.ID(), resp.StatusCode)
	}
}
