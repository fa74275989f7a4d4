package model

// resolutionUnknownStr is the string representation for unknown resolutions.
const resolutionUnknownStr = "unknown"

// Resolution classifies the terminal state of one audited post.
type Resolution int

const (
	// ResolutionUnknown indicates the post has not been resolved yet.
	ResolutionUnknown Resolution = iota
	// ResolutionNoEvidence indicates the archive index returned no captures.
	// This is "nothing to report", not a failure.
	ResolutionNoEvidence
	// ResolutionDeletedWithEvidence indicates captures exist and the post is
	// no longer live.
	ResolutionDeletedWithEvidence
	// ResolutionExtantWithEvidence indicates captures exist and the post is
	// still live.
	ResolutionExtantWithEvidence
	// ResolutionCapturesFound indicates captures exist but live existence
	// was not checked.
	ResolutionCapturesFound
	// ResolutionFailed indicates the lookup could not be completed after
	// exhausting retries. Distinct from ResolutionNoEvidence so operators
	// can tell "nothing to report" from "lookup failed".
	ResolutionFailed
)

// String returns the string representation of the Resolution.
func (r Resolution) String() string {
	switch r {
	case ResolutionNoEvidence:
		return "no evidence"
	case ResolutionDeletedWithEvidence:
		return "deleted with evidence"
	case ResolutionExtantWithEvidence:
		return "extant with evidence"
	case ResolutionCapturesFound:
		return "captures found"
	case ResolutionFailed:
		return "failed"
	default:
		return resolutionUnknownStr
	}
}

// Existence reports the live status of a post as seen by the existence
// check collaborator.
type Existence int

const (
	// ExistenceUnchecked indicates the live status was not queried.
	ExistenceUnchecked Existence = iota
	// ExistenceLive indicates the post is currently reachable.
	ExistenceLive
	// ExistenceGone indicates the post is no longer reachable.
	ExistenceGone
)

// String returns the string representation of the Existence status.
func (e Existence) String() string {
	switch e {
	case ExistenceLive:
		return "live"
	case ExistenceGone:
		return "gone"
	default:
		return "unchecked"
	}
}

// PostResult is the terminal output unit of the deletion-detection workflow,
// produced exactly once per input identifier.
type PostResult struct {
	// Post identifies the audited post.
	Post PostID `json:"post"`

	// Captures holds the archived snapshots found for the post, in archive
	// index order. Empty when no captures exist.
	Captures []Capture `json:"captures,omitempty"`

	// Existence is the live-status check outcome, when performed.
	Existence Existence `json:"existence"`

	// Resolution is the terminal classification of the post.
	Resolution Resolution `json:"resolution"`

	// Err holds the failure description when Resolution is ResolutionFailed.
	Err string `json:"error,omitempty"`

	// EvidencePaths lists local store paths of downloaded capture contents,
	// populated when evidence retrieval ran for this post.
	EvidencePaths []string `json:"evidence_paths,omitempty"`

	// Author and Text hold the post substance extracted from the newest
	// stored capture. Best-effort; empty when no evidence was downloaded
	// or the page yielded nothing.
	Author string `json:"author,omitempty"`
	Text   string `json:"text,omitempty"`

	// FailedDownloads counts captures whose content download exhausted
	// retries. Evidence in EvidencePaths is still valid; this surfaces
	// how much of the record could not be secured.
	FailedDownloads int `json:"failed_downloads,omitempty"`
}

// Failed reports whether the post's resolution ended in a fatal error.
func (r PostResult) Failed() bool {
	return r.Resolution == ResolutionFailed
}

// HasEvidence reports whether any archived captures were found.
func (r PostResult) HasEvidence() bool {
	return len(r.Captures) > 0
}
