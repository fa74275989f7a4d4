// Package pacing spaces outbound requests to the web archive.
//
// The archive throttles its index (CDX) endpoint and its content endpoint
// independently, with escalating penalties for clients that keep pushing
// after a throttling response. Each endpoint is modeled as a Surface with
// its own Controller; controllers never share mutable state.
//
// A Controller exposes two operations:
//   - Acquire blocks until the caller may issue its next request
//   - Report feeds the outcome of a completed request back in
//
// The adaptive profile adjusts the inter-request interval with hysteresis:
// a throttling response (or a run of transient errors) doubles the interval
// immediately and opens a cooldown hold, while sustained success shrinks it
// by a small factor only after the trailing window has been quiet. Backing
// off faster than recovering keeps the controller from oscillating back
// into the archive's penalty box. The conservative and default profiles
// use a fixed interval and ignore outcomes entirely.
//
// The Scoreboard renders point-in-time snapshots of all controllers for
// operator diagnostics without pausing them.
package pacing
