package report

import (
	"io"
	"time"

	"github.com/deletia/deletia/internal/model"
	"github.com/deletia/deletia/internal/workflow"
)

// Audit is the rendered unit: the per-post results of one audit run plus
// its summary.
type Audit struct {
	// GeneratedAt is when the audit finished.
	GeneratedAt time.Time `json:"generated_at"`

	// Results holds one entry per input identifier, in input order.
	Results []model.PostResult `json:"results"`

	// Summary tallies the terminal resolutions.
	Summary workflow.Summary `json:"summary"`
}

// Writer defines the interface for report output.
// Implementations render an audit in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the audit to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(audit *Audit) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the audit to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(audit *Audit) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(audit)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
