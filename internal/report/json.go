package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for machine consumption and piping into
// further tooling.
type JSONWriter struct {
	baseWriter

	// pretty enables indented output.
	pretty bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPretty enables indented JSON output.
func WithPretty(pretty bool) JSONWriterOption {
	return func(w *JSONWriter) {
		w.pretty = pretty
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		pretty:     true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the audit as JSON.
func (w *JSONWriter) Write(audit *Audit) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.pretty {
		data, err = json.MarshalIndent(audit, "", "  ")
	} else {
		data, err = json.Marshal(audit)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
