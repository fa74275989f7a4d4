// Package workflow orchestrates the deletion-detection audit from input
// identifiers to terminal per-post results.
//
// An audit runs in phases: index every post against the archive's CDX
// surface under a bounded concurrency limit, download capture contents
// through the pipeline, optionally check whether each post is still live,
// then classify. Every input identifier produces exactly one PostResult,
// in input order, and a post whose index lookup failed is reported as
// failed rather than silently dropped or mistaken for "no captures".
package workflow
