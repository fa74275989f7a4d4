// Package pipeline downloads archived capture contents with bounded
// concurrency and stores them through the content-addressable store.
//
// The pipeline is the bridge between discovery (the CDX index told us
// which captures exist) and evidence (local files an operator can open).
// Workers share one pacing controller for the content surface, so raising
// the worker count raises parallelism but never the request rate. Each
// capture is processed in isolation: one failed download is recorded in
// that capture's result and the rest of the batch proceeds.
package pipeline
