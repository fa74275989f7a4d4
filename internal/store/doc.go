// Package store persists downloaded capture contents across runs.
//
// Contents are addressed by the archive's SHA-1/base32 digest: the bytes
// live as one file per digest under blobs/, and a SQLite database indexes
// them and links each (post, capture) pair to its digest. Two captures
// with byte-identical content share one stored file no matter which post
// discovered it first, and re-running an audit against the same store
// inserts no duplicate rows and downloads nothing it already holds.
//
// Writes are ordered so a crash never leaves a digest row without its
// backing bytes: the blob is renamed into place before its row commits.
package store
