package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deletia/deletia/internal/archive"
	"github.com/deletia/deletia/internal/model"
	"github.com/deletia/deletia/internal/store"
)

// DefaultConcurrency is the download worker count when none is configured.
// The archive tolerates little parallelism on its content surface, so the
// safe default is sequential; operators raise it deliberately.
const DefaultConcurrency = 1

// Result is the outcome of one capture's trip through the pipeline,
// produced exactly once per input capture, in input order.
type Result struct {
	// Capture is the input capture.
	Capture model.Capture

	// Digest is the locally computed digest of the stored bytes.
	// Empty when the download failed or was skipped without a stored copy.
	Digest string

	// Path is the local blob path of the stored content.
	Path string

	// Deduplicated reports that no download happened because the content
	// was already in the store.
	Deduplicated bool

	// Err holds the failure when this capture could not be downloaded.
	Err error
}

// Fetcher retrieves the archived bytes of one capture. *archive.ContentClient
// satisfies it; tests substitute their own.
type Fetcher interface {
	Fetch(ctx context.Context, capture model.Capture) ([]byte, error)
}

// Downloader runs capture downloads through a bounded worker pool backed
// by the store.
type Downloader struct {
	store       *store.Store
	fetcher     Fetcher
	concurrency int
	logger      *slog.Logger
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithConcurrency sets the maximum number of simultaneous downloads.
// Values below one are ignored.
func WithConcurrency(n int) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for pipeline progress.
func WithLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// NewDownloader creates a Downloader over a store and a content fetcher.
func NewDownloader(s *store.Store, fetcher Fetcher, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		store:       s,
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Run downloads the given captures and returns one Result per capture in
// input order. Individual failures land in the matching Result; the error
// return is non-nil only when the context was cancelled.
//
// Design decision: We use errgroup.SetLimit rather than a hand-rolled
// worker pool. Each capture gets its own goroutine but at most
// `concurrency` run at once, and results are written to pre-allocated
// slots so no ordering or locking is needed on the output.
func (d *Downloader) Run(ctx context.Context, captures []model.Capture) ([]Result, error) {
	d.logger.Info("starting download batch",
		"captures", len(captures),
		"concurrency", d.concurrency,
	)
	startTime := time.Now()

	known, err := d.store.KnownDigests(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(captures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, capture := range captures {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			results[i] = d.process(gctx, capture, known)
			if results[i].Err != nil {
				d.logger.Warn("capture download failed",
					"post", capture.Post.ID(),
					"timestamp", capture.Timestamp,
					"error", results[i].Err,
				)
			}
			return nil
		})
	}

	err = g.Wait()

	deduplicated, failed := 0, 0
	for _, r := range results {
		if r.Deduplicated {
			deduplicated++
		}
		if r.Err != nil {
			failed++
		}
	}
	d.logger.Info("download batch complete",
		"captures", len(captures),
		"deduplicated", deduplicated,
		"failed", failed,
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// process moves one capture through the skip/download/store sequence.
// The known set is read-only after Run builds it, so workers share it
// without locking; a miss there falls through to per-capture store
// lookups which the store serializes itself.
func (d *Downloader) process(ctx context.Context, capture model.Capture, known map[string]struct{}) Result {
	res := Result{Capture: capture}

	// The index reported a digest we already hold: link the capture to
	// the existing content and skip the network entirely.
	if capture.Digest != "" {
		if _, ok := known[capture.Digest]; ok {
			return d.link(ctx, res, capture.Digest)
		}
	}

	// The exact (post, timestamp) snapshot was stored by an earlier run,
	// possibly under a digest the index no longer reports.
	if digest, ok, err := d.store.LookupCapture(ctx, capture.Post, capture.Timestamp); err != nil {
		res.Err = err
		return res
	} else if ok {
		return d.link(ctx, res, digest)
	}

	body, err := d.fetcher.Fetch(ctx, capture)
	if err != nil {
		res.Err = err
		return res
	}

	// The locally computed digest is the storage key. The index's digest
	// is advisory; the archive has recomputed digests over the years and
	// only our own hash of the bytes we hold is trustworthy.
	digest := archive.DigestBytes(body)
	path, err := d.store.Put(ctx, digest, body, capture.Post)
	if err != nil {
		res.Err = err
		return res
	}
	if err := d.store.Record(ctx, capture, digest); err != nil {
		res.Err = err
		return res
	}

	res.Digest = digest
	res.Path = path
	return res
}

// link records the capture against already-stored content.
func (d *Downloader) link(ctx context.Context, res Result, digest string) Result {
	path, ok, err := d.store.ContentPath(ctx, digest)
	if err != nil {
		res.Err = err
		return res
	}
	if !ok {
		// The digest was known a moment ago; treat a vanished row as a
		// store error rather than silently re-downloading.
		res.Err = store.ErrUnknownDigest
		return res
	}
	if err := d.store.Record(ctx, res.Capture, digest); err != nil {
		res.Err = err
		return res
	}
	res.Digest = digest
	res.Path = path
	res.Deduplicated = true
	return res
}
