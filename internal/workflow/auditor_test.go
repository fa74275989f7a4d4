package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/deletia/deletia/internal/model"
	"github.com/deletia/deletia/internal/pipeline"
)

// fakeIndexer serves captures per post ID from memory.
type fakeIndexer struct {
	captures map[string][]model.Capture
	fail     map[string]error
}

func (f *fakeIndexer) Captures(_ context.Context, post model.PostID) ([]model.Capture, error) {
	if err, ok := f.fail[post.ID()]; ok {
		return nil, err
	}
	return f.captures[post.ID()], nil
}

// fakeEvidencer serves a stored path per capture key, or a download error
// for captures listed in fail.
type fakeEvidencer struct {
	pathFor map[string]string
	fail    map[string]error
}

func (f *fakeEvidencer) Run(_ context.Context, captures []model.Capture) ([]pipeline.Result, error) {
	results := make([]pipeline.Result, len(captures))
	for i, capture := range captures {
		if err, ok := f.fail[capture.Key()]; ok {
			results[i] = pipeline.Result{Capture: capture, Err: err}
			continue
		}
		results[i] = pipeline.Result{Capture: capture, Path: f.pathFor[capture.Key()]}
	}
	return results, nil
}

// fakeChecker answers existence per post ID.
type fakeChecker struct {
	existence map[string]model.Existence
	fail      map[string]error
}

func (f *fakeChecker) Exists(_ context.Context, post model.PostID) (model.Existence, error) {
	if err, ok := f.fail[post.ID()]; ok {
		return model.ExistenceUnchecked, err
	}
	return f.existence[post.ID()], nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func capturesFor(id string, timestamps ...string) []model.Capture {
	post := model.MustNewPostID(id)
	captures := make([]model.Capture, len(timestamps))
	for i, ts := range timestamps {
		captures[i] = model.Capture{Post: post, Timestamp: ts, URL: post.URL()}
	}
	return captures
}

func TestAuditClassification(t *testing.T) {
	t.Parallel()

	indexer := &fakeIndexer{
		captures: map[string][]model.Capture{
			"1": capturesFor("1", "20200101000000"),
			"2": capturesFor("2", "20200201000000"),
			"3": nil,
		},
		fail: map[string]error{"4": errors.New("index unavailable")},
	}
	checker := &fakeChecker{existence: map[string]model.Existence{
		"1": model.ExistenceGone,
		"2": model.ExistenceLive,
	}}

	auditor := NewAuditor(indexer,
		WithExistenceChecker(checker),
		WithAuditLogger(quietLogger()),
	)

	posts := []model.PostID{
		model.MustNewPostID("1"),
		model.MustNewPostID("2"),
		model.MustNewPostID("3"),
		model.MustNewPostID("4"),
	}
	results, summary, err := auditor.Audit(context.Background(), posts)
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}

	want := []model.Resolution{
		model.ResolutionDeletedWithEvidence,
		model.ResolutionExtantWithEvidence,
		model.ResolutionNoEvidence,
		model.ResolutionFailed,
	}
	for i, res := range results {
		if res.Post.ID() != posts[i].ID() {
			t.Errorf("results[%d] out of order: got post %s, want %s", i, res.Post.ID(), posts[i].ID())
		}
		if res.Resolution != want[i] {
			t.Errorf("results[%d].Resolution = %v, want %v", i, res.Resolution, want[i])
		}
	}
	if results[3].Err == "" {
		t.Error("failed result carries no error description")
	}

	if summary.Total != 4 || summary.Deleted != 1 || summary.Extant != 1 ||
		summary.NoEvidence != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if !summary.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
}

func TestAuditWithoutCheckerReportsCapturesFound(t *testing.T) {
	t.Parallel()

	indexer := &fakeIndexer{captures: map[string][]model.Capture{
		"10": capturesFor("10", "20200101000000"),
	}}
	auditor := NewAuditor(indexer, WithAuditLogger(quietLogger()))

	results, summary, err := auditor.Audit(context.Background(), []model.PostID{model.MustNewPostID("10")})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if results[0].Resolution != model.ResolutionCapturesFound {
		t.Errorf("Resolution = %v, want %v", results[0].Resolution, model.ResolutionCapturesFound)
	}
	if results[0].Existence != model.ExistenceUnchecked {
		t.Errorf("Existence = %v, want unchecked", results[0].Existence)
	}
	if summary.CapturesFound != 1 {
		t.Errorf("summary.CapturesFound = %d, want 1", summary.CapturesFound)
	}
	if summary.HasFailures() {
		t.Error("HasFailures() = true, want false")
	}
}

func TestAuditFailedExistenceCheckDegrades(t *testing.T) {
	t.Parallel()

	indexer := &fakeIndexer{captures: map[string][]model.Capture{
		"20": capturesFor("20", "20200101000000"),
	}}
	checker := &fakeChecker{fail: map[string]error{"20": errors.New("rate limited")}}
	auditor := NewAuditor(indexer,
		WithExistenceChecker(checker),
		WithAuditLogger(quietLogger()),
	)

	results, summary, err := auditor.Audit(context.Background(), []model.PostID{model.MustNewPostID("20")})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if results[0].Resolution != model.ResolutionCapturesFound {
		t.Errorf("Resolution = %v, want %v", results[0].Resolution, model.ResolutionCapturesFound)
	}
	if summary.HasFailures() {
		t.Error("a failed existence check must not count as an audit failure")
	}
}

func TestAuditCollectsEvidencePaths(t *testing.T) {
	t.Parallel()

	captures := capturesFor("30", "20200101000000", "20200201000000")
	indexer := &fakeIndexer{captures: map[string][]model.Capture{"30": captures}}
	// Both captures stored the same content, so both map to one blob.
	evidencer := &fakeEvidencer{pathFor: map[string]string{
		captures[0].Key(): "/data/blobs/AAAA",
		captures[1].Key(): "/data/blobs/AAAA",
	}}
	auditor := NewAuditor(indexer,
		WithEvidencer(evidencer),
		WithAuditLogger(quietLogger()),
	)

	results, _, err := auditor.Audit(context.Background(), []model.PostID{model.MustNewPostID("30")})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if len(results[0].EvidencePaths) != 1 {
		t.Fatalf("EvidencePaths = %v, want one deduplicated path", results[0].EvidencePaths)
	}
	if results[0].EvidencePaths[0] != "/data/blobs/AAAA" {
		t.Errorf("EvidencePaths[0] = %q", results[0].EvidencePaths[0])
	}
}

func TestAuditCountsFailedDownloads(t *testing.T) {
	t.Parallel()

	captures := capturesFor("32", "20200101000000", "20200201000000")
	indexer := &fakeIndexer{captures: map[string][]model.Capture{"32": captures}}
	evidencer := &fakeEvidencer{fail: map[string]error{
		captures[0].Key(): errors.New("content fetch failed"),
		captures[1].Key(): errors.New("content fetch failed"),
	}}
	auditor := NewAuditor(indexer,
		WithEvidencer(evidencer),
		WithAuditLogger(quietLogger()),
	)

	results, summary, err := auditor.Audit(context.Background(), []model.PostID{model.MustNewPostID("32")})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if results[0].FailedDownloads != 2 {
		t.Errorf("FailedDownloads = %d, want 2", results[0].FailedDownloads)
	}
	if len(results[0].EvidencePaths) != 0 {
		t.Errorf("EvidencePaths = %v, want none", results[0].EvidencePaths)
	}
	// Captures exist on the index even though no content was secured.
	if results[0].Resolution != model.ResolutionCapturesFound {
		t.Errorf("Resolution = %v, want %v", results[0].Resolution, model.ResolutionCapturesFound)
	}
	if summary.HasFailures() {
		t.Error("failed downloads must not fail the audit; the index evidence stands")
	}
}

func TestAuditExtractsPostText(t *testing.T) {
	t.Parallel()

	blob := filepath.Join(t.TempDir(), "AAAA")
	page := `<html><head>
<meta property="og:title" content="Carol on Twitter" />
<meta property="og:description" content="&#8220;the post body&#8221;" />
</head><body></body></html>`
	if err := os.WriteFile(blob, []byte(page), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	captures := capturesFor("35", "20200101000000")
	indexer := &fakeIndexer{captures: map[string][]model.Capture{"35": captures}}
	evidencer := &fakeEvidencer{pathFor: map[string]string{captures[0].Key(): blob}}
	auditor := NewAuditor(indexer,
		WithEvidencer(evidencer),
		WithAuditLogger(quietLogger()),
	)

	results, _, err := auditor.Audit(context.Background(), []model.PostID{model.MustNewPostID("35")})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if results[0].Text != "the post body" {
		t.Errorf("Text = %q, want %q", results[0].Text, "the post body")
	}
	if results[0].Author != "Carol" {
		t.Errorf("Author = %q, want %q", results[0].Author, "Carol")
	}
}

func TestAuditEnrichesScreenName(t *testing.T) {
	t.Parallel()

	post := model.MustNewPostID("https://twitter.com/carol/status/40")
	indexer := &fakeIndexer{captures: map[string][]model.Capture{
		"40": {{Post: post, Timestamp: "20200101000000", URL: "https://twitter.com/carol/status/40"}},
	}}
	auditor := NewAuditor(indexer, WithAuditLogger(quietLogger()))

	// Input is the bare numeric ID; the index knows the handle.
	results, _, err := auditor.Audit(context.Background(), []model.PostID{model.MustNewPostID("40")})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if got := results[0].Post.ScreenName(); got != "carol" {
		t.Errorf("ScreenName = %q, want %q", got, "carol")
	}
}

func TestAuditPreservesOrderUnderConcurrency(t *testing.T) {
	t.Parallel()

	indexer := &fakeIndexer{captures: map[string][]model.Capture{}}
	var posts []model.PostID
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("%d", 1000+i)
		posts = append(posts, model.MustNewPostID(id))
		indexer.captures[id] = capturesFor(id, "20200101000000")
	}

	auditor := NewAuditor(indexer,
		WithIndexConcurrency(8),
		WithAuditLogger(quietLogger()),
	)
	results, _, err := auditor.Audit(context.Background(), posts)
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	for i, res := range results {
		if res.Post.ID() != posts[i].ID() {
			t.Errorf("results[%d] = post %s, want %s", i, res.Post.ID(), posts[i].ID())
		}
	}
}

func TestAuditCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	indexer := &fakeIndexer{captures: map[string][]model.Capture{}}
	auditor := NewAuditor(indexer, WithAuditLogger(quietLogger()))

	_, _, err := auditor.Audit(ctx, []model.PostID{model.MustNewPostID("50")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Audit() error = %v, want context.Canceled", err)
	}
}
