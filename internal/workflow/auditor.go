package workflow

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deletia/deletia/internal/archive"
	"github.com/deletia/deletia/internal/model"
	"github.com/deletia/deletia/internal/pipeline"
)

// DefaultIndexConcurrency bounds simultaneous CDX index lookups. The index
// surface is the more sensitive of the two; two in-flight queries keep it
// busy without tripping its limits.
const DefaultIndexConcurrency = 2

// Indexer lists the archived captures of a post. *archive.CDXClient
// satisfies it.
type Indexer interface {
	Captures(ctx context.Context, post model.PostID) ([]model.Capture, error)
}

// Evidencer downloads and stores capture contents. *pipeline.Downloader
// satisfies it.
type Evidencer interface {
	Run(ctx context.Context, captures []model.Capture) ([]pipeline.Result, error)
}

// ExistenceChecker reports whether a post is currently live on the
// platform. Implementations return ExistenceLive, ExistenceGone, or an
// error when the check itself could not be completed.
type ExistenceChecker interface {
	Exists(ctx context.Context, post model.PostID) (model.Existence, error)
}

// Summary aggregates an audit's terminal results for reporting and for
// the process exit status.
type Summary struct {
	// Total is the number of input identifiers.
	Total int
	// Deleted counts posts resolved as deleted with evidence.
	Deleted int
	// Extant counts posts resolved as still live with evidence.
	Extant int
	// CapturesFound counts posts with evidence but no existence check.
	CapturesFound int
	// NoEvidence counts posts with no archived captures.
	NoEvidence int
	// Failed counts posts whose lookup could not be completed.
	Failed int
}

// HasFailures reports whether any post failed to resolve. Used to drive a
// non-zero exit code: operators piping results into further tooling must
// be able to tell a clean empty audit from a broken one.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Auditor drives the deletion-detection workflow.
type Auditor struct {
	indexer          Indexer
	evidencer        Evidencer
	checker          ExistenceChecker
	indexConcurrency int
	logger           *slog.Logger
}

// AuditorOption configures an Auditor.
type AuditorOption func(*Auditor)

// WithIndexConcurrency bounds simultaneous index lookups. Values below
// one are ignored.
func WithIndexConcurrency(n int) AuditorOption {
	return func(a *Auditor) {
		if n > 0 {
			a.indexConcurrency = n
		}
	}
}

// WithExistenceChecker enables live-status checks using the given checker.
// Without one, posts with captures resolve as ResolutionCapturesFound.
func WithExistenceChecker(checker ExistenceChecker) AuditorOption {
	return func(a *Auditor) {
		a.checker = checker
	}
}

// WithEvidencer enables evidence download through the given pipeline.
// Without one, captures are reported from the index alone.
func WithEvidencer(evidencer Evidencer) AuditorOption {
	return func(a *Auditor) {
		a.evidencer = evidencer
	}
}

// WithAuditLogger sets a custom logger.
func WithAuditLogger(logger *slog.Logger) AuditorOption {
	return func(a *Auditor) {
		a.logger = logger
	}
}

// NewAuditor creates an Auditor over an index client.
func NewAuditor(indexer Indexer, opts ...AuditorOption) *Auditor {
	a := &Auditor{
		indexer:          indexer,
		indexConcurrency: DefaultIndexConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Audit resolves every input post and returns one result per input, in
// input order, plus a summary. The error return is non-nil only when the
// context was cancelled; per-post failures are carried in the results.
func (a *Auditor) Audit(ctx context.Context, posts []model.PostID) ([]model.PostResult, Summary, error) {
	a.logger.Info("starting audit",
		"posts", len(posts),
		"index_concurrency", a.indexConcurrency,
	)
	startTime := time.Now()

	results := make([]model.PostResult, len(posts))

	if err := a.indexPhase(ctx, posts, results); err != nil {
		return nil, Summary{}, err
	}
	if a.evidencer != nil {
		if err := a.evidencePhase(ctx, results); err != nil {
			return nil, Summary{}, err
		}
	}
	a.existencePhase(ctx, results)

	for i := range results {
		classify(&results[i], a.checker != nil)
	}

	summary := summarize(results)
	a.logger.Info("audit complete",
		"posts", summary.Total,
		"deleted", summary.Deleted,
		"extant", summary.Extant,
		"no_evidence", summary.NoEvidence,
		"failed", summary.Failed,
		"elapsed", time.Since(startTime),
	)
	return results, summary, nil
}

// indexPhase queries the CDX index for every post under the concurrency
// bound. Failures are recorded per post; only cancellation aborts.
func (a *Auditor) indexPhase(ctx context.Context, posts []model.PostID, results []model.PostResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.indexConcurrency)

	for i, post := range posts {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			captures, err := a.indexer.Captures(gctx, post)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				a.logger.Warn("index lookup failed",
					"post", post.ID(),
					"error", err,
				)
				results[i] = model.PostResult{
					Post:       post,
					Resolution: model.ResolutionFailed,
					Err:        err.Error(),
				}
				return nil
			}

			// The indexed URLs often carry the author's handle the
			// caller didn't know; keep the richest identity seen.
			enriched := post
			for _, capture := range captures {
				if enriched.ScreenName() == "" && capture.Post.ScreenName() != "" {
					enriched = capture.Post
				}
			}

			results[i] = model.PostResult{Post: enriched, Captures: captures}
			return nil
		})
	}
	return g.Wait()
}

// evidencePhase downloads capture contents for all indexed posts in one
// batch, so identical content shared between posts is fetched once, then
// maps stored paths back to each post.
func (a *Auditor) evidencePhase(ctx context.Context, results []model.PostResult) error {
	var batch []model.Capture
	for _, res := range results {
		if !res.Failed() {
			batch = append(batch, res.Captures...)
		}
	}
	if len(batch) == 0 {
		return nil
	}

	downloads, err := a.evidencer.Run(ctx, batch)
	if err != nil {
		return err
	}

	pathsByCapture := make(map[string]string, len(downloads))
	failedCaptures := make(map[string]struct{})
	for _, dl := range downloads {
		switch {
		case dl.Err != nil:
			failedCaptures[dl.Capture.Key()] = struct{}{}
		case dl.Path != "":
			pathsByCapture[dl.Capture.Key()] = dl.Path
		}
	}

	for i := range results {
		if results[i].Failed() {
			continue
		}
		seen := make(map[string]struct{})
		for _, capture := range results[i].Captures {
			if _, failed := failedCaptures[capture.Key()]; failed {
				results[i].FailedDownloads++
				continue
			}
			path, ok := pathsByCapture[capture.Key()]
			if !ok {
				continue
			}
			// Posts whose captures share content share a blob; list the
			// path once per post.
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			results[i].EvidencePaths = append(results[i].EvidencePaths, path)
		}
		a.extractContent(&results[i], pathsByCapture)
	}
	return nil
}

// extractContent pulls the post's author and text out of the newest stored
// capture, so the report can show what the post said. Best-effort: an
// unreadable or unparseable page just leaves the fields empty.
func (a *Auditor) extractContent(res *model.PostResult, pathsByCapture map[string]string) {
	for i := len(res.Captures) - 1; i >= 0; i-- {
		path, ok := pathsByCapture[res.Captures[i].Key()]
		if !ok {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			a.logger.Debug("evidence blob unreadable", "path", path, "error", err)
			continue
		}
		content, err := archive.ExtractPost(f)
		_ = f.Close()
		if err != nil {
			continue
		}
		if content.Text == "" && content.Author == "" {
			continue
		}
		res.Author = content.Author
		res.Text = content.Text
		return
	}
}

// existencePhase checks live status for posts that have evidence. A failed
// check degrades the post to "captures found" rather than failing the
// audit; the evidence is still valid even when the platform is unreadable.
func (a *Auditor) existencePhase(ctx context.Context, results []model.PostResult) {
	if a.checker == nil {
		return
	}
	for i := range results {
		if results[i].Failed() || !results[i].HasEvidence() {
			continue
		}
		existence, err := a.checker.Exists(ctx, results[i].Post)
		if err != nil {
			a.logger.Warn("existence check failed",
				"post", results[i].Post.ID(),
				"error", err,
			)
			continue
		}
		results[i].Existence = existence
	}
}

// classify assigns the terminal resolution from what the phases learned.
func classify(res *model.PostResult, checked bool) {
	if res.Resolution == model.ResolutionFailed {
		return
	}
	if !res.HasEvidence() {
		res.Resolution = model.ResolutionNoEvidence
		return
	}
	if !checked {
		res.Resolution = model.ResolutionCapturesFound
		return
	}
	switch res.Existence {
	case model.ExistenceGone:
		res.Resolution = model.ResolutionDeletedWithEvidence
	case model.ExistenceLive:
		res.Resolution = model.ResolutionExtantWithEvidence
	default:
		res.Resolution = model.ResolutionCapturesFound
	}
}

// summarize tallies terminal resolutions.
func summarize(results []model.PostResult) Summary {
	s := Summary{Total: len(results)}
	for _, res := range results {
		switch res.Resolution {
		case model.ResolutionDeletedWithEvidence:
			s.Deleted++
		case model.ResolutionExtantWithEvidence:
			s.Extant++
		case model.ResolutionCapturesFound:
			s.CapturesFound++
		case model.ResolutionNoEvidence:
			s.NoEvidence++
		case model.ResolutionFailed:
			s.Failed++
		}
	}
	return s
}
