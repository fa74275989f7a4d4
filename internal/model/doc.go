// Package model defines the core data structures used throughout deletia.
//
// This package contains the following main types:
//   - PostID: Validated identifier of a social media post
//   - Capture: A single archived snapshot of a post
//   - PostResult: The terminal resolution of one audited post
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (archive, pipeline, workflow, report) need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
