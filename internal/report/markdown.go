package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/deletia/deletia/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the audit in Markdown format.
func (w *MarkdownWriter) Write(audit *Audit) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, audit)
	w.writeSummary(md, audit)
	w.writeResults(md, audit)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with audit information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, audit *Audit) {
	md.H1("Deletia Audit Report")
	md.PlainText("")

	status := "✅ Complete"
	if audit.Summary.HasFailures() {
		status = "❌ Incomplete - " + strconv.Itoa(audit.Summary.Failed) + " lookup(s) failed"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Audit Date", audit.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Posts Audited", strconv.Itoa(audit.Summary.Total)},
			{"Status", status},
		},
	})
	md.PlainText("")
}

// writeSummary writes the resolution summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, audit *Audit) {
	md.H2("Resolution Summary")
	md.PlainText("")

	s := audit.Summary
	md.Table(markdown.TableSet{
		Header: []string{"Resolution", "Count"},
		Rows: [][]string{
			{"🗑️ Deleted With Evidence", strconv.Itoa(s.Deleted)},
			{"🟢 Extant With Evidence", strconv.Itoa(s.Extant)},
			{"📦 Captures Found", strconv.Itoa(s.CapturesFound)},
			{"⚪ No Evidence", strconv.Itoa(s.NoEvidence)},
			{"❌ Failed", strconv.Itoa(s.Failed)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**"},
		},
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, audit)
	}
	w.writeAlert(md, audit)
}

// writePieChart writes a mermaid pie chart for resolution distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, audit *Audit) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Resolution Distribution"),
		piechart.WithShowData(true),
	)

	s := audit.Summary
	if s.Deleted > 0 {
		chart.LabelAndIntValue("Deleted", uint64(s.Deleted))
	}
	if s.Extant > 0 {
		chart.LabelAndIntValue("Extant", uint64(s.Extant))
	}
	if s.CapturesFound > 0 {
		chart.LabelAndIntValue("Captures Found", uint64(s.CapturesFound))
	}
	if s.NoEvidence > 0 {
		chart.LabelAndIntValue("No Evidence", uint64(s.NoEvidence))
	}
	if s.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(s.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the audit outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, audit *Audit) {
	s := audit.Summary
	switch {
	case s.HasFailures():
		md.Cautionf(
			"%d post(s) could not be resolved. Re-run the audit to retry the failed lookups.",
			s.Failed,
		)
	case s.Deleted > 0:
		md.Warningf(
			"%d deleted post(s) documented with archived evidence.",
			s.Deleted,
		)
	case s.Total > 0:
		md.Note("No deleted posts detected in this audit.")
	default:
		md.Tip("Nothing audited.")
	}
	md.PlainText("")
}

// writeResults writes one section per audited post.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, audit *Audit) {
	md.H2("Posts")
	md.PlainText("")

	if len(audit.Results) == 0 {
		md.PlainText("No posts audited.")
		md.PlainText("")
		return
	}

	for _, res := range audit.Results {
		w.writeResult(md, res)
	}
}

// writeResult writes one post's section with its capture table.
func (w *MarkdownWriter) writeResult(md *markdown.Markdown, res model.PostResult) {
	md.H3(res.Post.String())
	md.PlainText("")

	rows := [][]string{
		{"Resolution", titleLabel(res.Resolution.String())},
		{"Live URL", res.Post.URL()},
	}
	if res.Author != "" {
		rows = append(rows, []string{"Author", res.Author})
	}
	if res.FailedDownloads > 0 {
		rows = append(rows, []string{"Download Failures", strconv.Itoa(res.FailedDownloads)})
	}
	if res.Err != "" {
		rows = append(rows, []string{"Error", res.Err})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if res.Text != "" {
		md.Blockquote(res.Text)
		md.PlainText("")
	}

	if res.HasEvidence() {
		w.writeCapturesTable(md, res.Captures)
	}
	if len(res.EvidencePaths) > 0 {
		md.PlainText("Evidence files:")
		md.PlainText("")
		md.BulletList(res.EvidencePaths...)
		md.PlainText("")
	}
}

// writeCapturesTable writes the capture list for one post.
func (w *MarkdownWriter) writeCapturesTable(md *markdown.Markdown, captures []model.Capture) {
	rows := make([][]string, len(captures))
	for i, capture := range captures {
		when := capture.Timestamp
		if t := capture.Time(); !t.IsZero() {
			when = t.Format("2006-01-02 15:04:05")
		}
		digest := capture.Digest
		if digest == "" {
			digest = "-"
		}
		rows[i] = []string{
			when,
			"`" + truncateString(capture.URL, 60) + "`",
			truncateString(digest, 12),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Captured At", "URL", "Digest"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [deletia](https://github.com/deletia/deletia)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
