package model

import (
	"errors"
	"net/url"
	"strings"
)

// PostID errors.
var (
	// ErrInvalidPostID is returned when the identifier format is invalid.
	ErrInvalidPostID = errors.New("invalid post identifier")
	// ErrEmptyPostID is returned when the identifier is empty.
	ErrEmptyPostID = errors.New("post identifier cannot be empty")
)

// statusPathMarker is the path segment that precedes the numeric status ID
// in a post URL (e.g. https://twitter.com/user/status/123456).
const statusPathMarker = "status"

// postHosts are the hostnames recognized as post URLs. The platform renamed
// itself, so both domains appear in archive indexes and user input.
var postHosts = map[string]bool{
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
	"x.com":              true,
	"www.x.com":          true,
}

// PostID is an immutable value object identifying a single social media post.
// It carries the platform-assigned numeric status ID and, when known, the
// screen name of the author at capture time.
type PostID struct {
	// id is the platform-assigned status identifier (decimal digits).
	id string
	// screenName is the author's handle, empty when unknown.
	screenName string
}

// NewPostID creates a PostID from a raw identifier or a post URL.
// Accepted forms:
//   - a bare numeric status ID ("1354852772606152705")
//   - a post URL ("https://twitter.com/user/status/1354852772606152705")
//
// Returns an error if the input matches neither form.
func NewPostID(raw string) (PostID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PostID{}, ErrEmptyPostID
	}

	if isAllDigits(trimmed) {
		return PostID{id: trimmed}, nil
	}

	return parsePostURL(trimmed)
}

// MustNewPostID creates a PostID or panics if invalid.
// Use only for known-valid identifiers in tests or initialization.
func MustNewPostID(raw string) PostID {
	p, err := NewPostID(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// ID returns the platform-assigned status identifier.
func (p PostID) ID() string {
	return p.id
}

// ScreenName returns the author's handle, or empty when unknown.
func (p PostID) ScreenName() string {
	return p.screenName
}

// String returns a human-readable representation of the PostID.
func (p PostID) String() string {
	if p.screenName == "" {
		return p.id
	}
	return p.screenName + "/" + p.id
}

// URL returns the canonical live URL for the post.
// When the screen name is unknown, the platform's wildcard redirect form
// ("i/web/status") is used, which resolves for any author.
func (p PostID) URL() string {
	if p.screenName == "" {
		return "https://twitter.com/i/web/status/" + p.id
	}
	return "https://twitter.com/" + p.screenName + "/status/" + p.id
}

// IsZero reports whether the PostID is the zero value.
func (p PostID) IsZero() bool {
	return p.id == ""
}

// parsePostURL extracts a PostID from a post URL.
func parsePostURL(raw string) (PostID, error) {
	// Archive indexes often record URLs without a scheme.
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return PostID{}, ErrInvalidPostID
	}
	if !postHosts[strings.ToLower(u.Hostname())] {
		return PostID{}, ErrInvalidPostID
	}

	// Expected path: /<screen_name>/status/<id>[/...]
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, segment := range segments {
		if segment != statusPathMarker && segment != "statuses" {
			continue
		}
		if i == 0 || i+1 >= len(segments) {
			break
		}
		id := segments[i+1]
		// Trailing junk like "123/photo/1" has the ID first.
		if !isAllDigits(id) {
			break
		}
		screenName := segments[i-1]
		// "i/web/status/123" carries no screen name.
		if screenName == "web" || screenName == "i" {
			screenName = ""
		}
		return PostID{id: id, screenName: screenName}, nil
	}

	return PostID{}, ErrInvalidPostID
}

// isAllDigits reports whether s is non-empty and consists only of ASCII digits.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
