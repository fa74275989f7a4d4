package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deletia/deletia/internal/model"
)

// titleLabel renders resolution labels for headings ("deleted with
// evidence" becomes "Deleted With Evidence"). A cases.Caser carries
// transform state and is not safe for concurrent use, so one is built
// per call rather than shared.
func titleLabel(s string) string {
	return cases.Title(language.English).String(s)
}

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to
// files and other tools.
type SimpleWriter struct {
	baseWriter

	// verbose enables per-capture detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output listing every capture.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the audit in human-readable format.
func (w *SimpleWriter) Write(audit *Audit) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, audit)
	w.writeSummary(&sb, audit)
	w.writeResults(&sb, audit)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with audit information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, audit *Audit) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         DELETIA AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Audit Date:     %s\n", audit.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Posts Audited:  %d\n", audit.Summary.Total))
	if audit.Summary.HasFailures() {
		sb.WriteString(fmt.Sprintf("Status:         INCOMPLETE (%d lookups failed)\n", audit.Summary.Failed))
	} else {
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

// writeSummary writes the resolution summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, audit *Audit) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESOLUTION SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	s := audit.Summary
	sb.WriteString(fmt.Sprintf("  DELETED WITH EVIDENCE:  %d\n", s.Deleted))
	sb.WriteString(fmt.Sprintf("  EXTANT WITH EVIDENCE:   %d\n", s.Extant))
	sb.WriteString(fmt.Sprintf("  CAPTURES FOUND:         %d\n", s.CapturesFound))
	sb.WriteString(fmt.Sprintf("  NO EVIDENCE:            %d\n", s.NoEvidence))
	sb.WriteString(fmt.Sprintf("  FAILED:                 %d\n", s.Failed))
	sb.WriteString("\n")
}

// writeResults writes the per-post sections.
func (w *SimpleWriter) writeResults(sb *strings.Builder, audit *Audit) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("POSTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, res := range audit.Results {
		w.writeResult(sb, res)
	}
}

// writeResult writes one post's section.
func (w *SimpleWriter) writeResult(sb *strings.Builder, res model.PostResult) {
	sb.WriteString(fmt.Sprintf("[%s] %s\n", resolutionIndicator(res.Resolution), res.Post.String()))
	sb.WriteString(fmt.Sprintf("  Resolution: %s\n", titleLabel(res.Resolution.String())))

	if res.Err != "" {
		sb.WriteString(fmt.Sprintf("  Error: %s\n", res.Err))
	}
	if res.Text != "" {
		if res.Author != "" {
			sb.WriteString(fmt.Sprintf("  Author: %s\n", res.Author))
		}
		sb.WriteString(fmt.Sprintf("  Text: %s\n", res.Text))
	}
	if res.HasEvidence() {
		first, last := captureRange(res.Captures)
		sb.WriteString(fmt.Sprintf("  Captures: %d (%s to %s)\n", len(res.Captures), first, last))
	}
	if len(res.EvidencePaths) > 0 {
		sb.WriteString(fmt.Sprintf("  Evidence: %d file(s)\n", len(res.EvidencePaths)))
		for _, path := range res.EvidencePaths {
			sb.WriteString(fmt.Sprintf("    %s\n", path))
		}
	}
	if res.FailedDownloads > 0 {
		sb.WriteString(fmt.Sprintf("  Download failures: %d capture(s) could not be retrieved\n", res.FailedDownloads))
	}
	if w.verbose {
		for _, capture := range res.Captures {
			sb.WriteString(fmt.Sprintf("    * %s %s\n", capture.Timestamp, capture.URL))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by deletia\n")
	sb.WriteString("https://github.com/deletia/deletia\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// resolutionIndicator returns a visual indicator for a resolution.
func resolutionIndicator(r model.Resolution) string {
	switch r {
	case model.ResolutionDeletedWithEvidence:
		return "DEL"
	case model.ResolutionExtantWithEvidence:
		return "EXT"
	case model.ResolutionCapturesFound:
		return "CAP"
	case model.ResolutionNoEvidence:
		return "---"
	case model.ResolutionFailed:
		return "ERR"
	default:
		return "???"
	}
}

// captureRange returns the first and last capture timestamps formatted as
// dates. Captures arrive in index order, which is chronological.
func captureRange(captures []model.Capture) (first, last string) {
	format := func(c model.Capture) string {
		t := c.Time()
		if t.IsZero() {
			return c.Timestamp
		}
		return t.Format("2006-01-02")
	}
	return format(captures[0]), format(captures[len(captures)-1])
}
