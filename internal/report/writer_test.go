package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/deletia/deletia/internal/model"
	"github.com/deletia/deletia/internal/workflow"
)

func testAudit() *Audit {
	deleted := model.MustNewPostID("https://twitter.com/alice/status/1354852772606152705")
	return &Audit{
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Results: []model.PostResult{
			{
				Post: deleted,
				Captures: []model.Capture{
					{Post: deleted, Timestamp: "20210128160247", URL: "https://twitter.com/alice/status/1354852772606152705", Digest: "VL2MMHO4YXUKFWV63YHTWSBM3GXKSQ2N"},
					{Post: deleted, Timestamp: "20210302120000", URL: "https://twitter.com/alice/status/1354852772606152705", Digest: "VL2MMHO4YXUKFWV63YHTWSBM3GXKSQ2N"},
				},
				Existence:     model.ExistenceGone,
				Resolution:    model.ResolutionDeletedWithEvidence,
				EvidencePaths: []string{"/data/blobs/VL2MMHO4YXUKFWV63YHTWSBM3GXKSQ2N"},
				Author:          "Alice",
				Text:            "the archived post body",
				FailedDownloads: 1,
			},
			{
				Post:       model.MustNewPostID("222"),
				Resolution: model.ResolutionNoEvidence,
			},
			{
				Post:       model.MustNewPostID("333"),
				Resolution: model.ResolutionFailed,
				Err:        "index returned status 503",
			},
		},
		Summary: workflow.Summary{Total: 3, Deleted: 1, NoEvidence: 1, Failed: 1},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewSimpleWriter(&buf).Write(testAudit())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != buf.Len() {
		t.Errorf("Write() n = %d, buffer has %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"DELETIA AUDIT REPORT",
		"INCOMPLETE (1 lookups failed)",
		"DELETED WITH EVIDENCE:  1",
		"alice/1354852772606152705",
		"Deleted With Evidence",
		"Captures: 2 (2021-01-28 to 2021-03-02)",
		"/data/blobs/VL2MMHO4YXUKFWV63YHTWSBM3GXKSQ2N",
		"Author: Alice",
		"Text: the archived post body",
		"Download failures: 1 capture(s)",
		"index returned status 503",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("simple output missing %q", want)
		}
	}
}

func TestSimpleWriterVerboseListsCaptures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(testAudit()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "* 20210128160247") {
		t.Error("verbose output missing capture line")
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(testAudit()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Deletia Audit Report",
		"## Resolution Summary",
		"Deleted With Evidence",
		"### alice/1354852772606152705",
		"pie",
		"| Captured At | URL | Digest |",
		"2021-01-28 16:02:47",
		"> the archived post body",
		"Download Failures",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
	// A failed audit renders the caution alert.
	if !strings.Contains(out, "[!CAUTION]") {
		t.Error("markdown output missing caution alert for failed lookups")
	}
}

func TestMarkdownWriterNoDeletions(t *testing.T) {
	t.Parallel()

	audit := &Audit{
		GeneratedAt: time.Now(),
		Results: []model.PostResult{
			{Post: model.MustNewPostID("1"), Resolution: model.ResolutionNoEvidence},
		},
		Summary: workflow.Summary{Total: 1, NoEvidence: 1},
	}

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(audit); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "[!NOTE]") {
		t.Error("markdown output missing note alert for clean audit")
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf).Write(testAudit()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded Audit
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Summary.Total != 3 {
		t.Errorf("decoded Summary.Total = %d, want 3", decoded.Summary.Total)
	}
	if len(decoded.Results) != 3 {
		t.Errorf("decoded Results = %d, want 3", len(decoded.Results))
	}
	if decoded.Results[0].Resolution != model.ResolutionDeletedWithEvidence {
		t.Errorf("decoded Resolution = %v", decoded.Results[0].Resolution)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, md bytes.Buffer
	w := NewMultiWriter(NewSimpleWriter(&text), NewMarkdownWriter(&md))
	if _, err := w.Write(testAudit()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if text.Len() == 0 || md.Len() == 0 {
		t.Error("MultiWriter left a destination empty")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "shorter than max", input: "short", maxLen: 10, want: "short"},
		{name: "exactly max", input: "exact", maxLen: 5, want: "exact"},
		{name: "truncated", input: "a long string here", maxLen: 10, want: "a long ..."},
		{name: "tiny max", input: "abcdef", maxLen: 2, want: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
