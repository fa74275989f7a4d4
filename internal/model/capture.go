package model

import "time"

// captureTimestampLayout is the 14-digit timestamp format used by the
// archive's CDX index (yyyyMMddhhmmss, UTC).
const captureTimestampLayout = "20060102150405"

// Capture represents a single archived snapshot of a post, as indexed by
// the web archive. It is the unit of work for the download pipeline.
type Capture struct {
	// Post identifies the post this capture belongs to.
	Post PostID `json:"post"`

	// Timestamp is the archive's 14-digit capture timestamp (UTC).
	Timestamp string `json:"timestamp"`

	// URL is the original URL as recorded by the archive index.
	URL string `json:"url"`

	// Digest is the archive-reported content digest (SHA-1, base32).
	// Empty when the index did not report one.
	Digest string `json:"digest,omitempty"`

	// MimeType is the archived content type, when known.
	MimeType string `json:"mime_type,omitempty"`

	// StatusCode is the HTTP status recorded at capture time.
	// Zero when the index did not report one.
	StatusCode int `json:"status_code,omitempty"`
}

// Time parses the capture timestamp. Returns the zero time when the
// timestamp is absent or malformed.
func (c Capture) Time() time.Time {
	t, err := time.Parse(captureTimestampLayout, c.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Key returns the (post, timestamp) identity of the capture. Two captures
// with the same key are the same snapshot regardless of how they were
// discovered.
func (c Capture) Key() string {
	return c.Post.ID() + "@" + c.Timestamp
}
