// Package retry re-executes failed network operations with exponential
// backoff and bounded attempts.
//
// A Classifier decides whether a failure is worth retrying (connection
// failures, timeouts, throttling and server errors) or fatal (not found,
// authentication failures, malformed responses). Fatal failures and
// exhausted attempts surface the final error to the caller.
//
// Every attempt, successful or not, reports exactly one outcome event to
// the surface's pacing controller, so a throttling response influences
// future pacing even when the call is eventually retried to success.
package retry
