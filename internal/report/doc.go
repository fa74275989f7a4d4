// Package report renders audit results for operators.
//
// Three formats are supported: a plain-text report for terminals, a
// Markdown report for documentation and sharing, and JSON for piping
// into further tooling. All formats render the same data through one
// Writer interface.
package report
