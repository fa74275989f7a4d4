package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/deletia/deletia/internal/model"
)

// Store errors.
var (
	// ErrUnknownDigest is returned when a capture is linked to a digest
	// that has no stored content.
	ErrUnknownDigest = errors.New("digest has no stored content")
)

// Database and blob layout names.
const (
	dbFileName   = "deletia.db"
	blobsDirName = "blobs"
)

// Store is the content-addressable local cache backing the download
// pipeline. It manages a SQLite index plus a blob directory and is safe
// for concurrent use by multiple pipeline workers.
//
// Design decision: We keep the bytes on the filesystem and only the index
// in SQLite. Evidence files must be directly openable by operators and
// attachable to reports; stuffing multi-megabyte page bodies into table
// rows would buy nothing and bloat the database.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dir is the store's base directory.
	dir string

	// blobsDir is where content bytes live, one file per digest.
	blobsDir string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the store directory and database if absent.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store rooted at dir.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, dbFileName)
	blobsDir := filepath.Join(dir, blobsDirName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(blobsDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	} else {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("store not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check store path: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rwc allows creation,
	// mode=rw requires the file to exist.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	// SQLite supports only one writer; funneling everything through a
	// single connection also makes check-then-insert sequences atomic
	// with respect to other workers in this process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:       db,
		dir:      dir,
		blobsDir: blobsDir,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the store's base directory.
func (s *Store) Dir() string {
	return s.dir
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Stored contents, one row per unique digest.
	CREATE TABLE IF NOT EXISTS contents (
		digest TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		discovered_by TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Audited posts, one row per platform identifier.
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		platform_id TEXT NOT NULL UNIQUE,
		screen_name TEXT
	);

	-- Captures link posts to contents without duplicating bytes.
	CREATE TABLE IF NOT EXISTS captures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		digest TEXT NOT NULL,
		captured_at TEXT NOT NULL,
		url TEXT NOT NULL,
		UNIQUE(post_id, captured_at),
		FOREIGN KEY (post_id) REFERENCES posts(id),
		FOREIGN KEY (digest) REFERENCES contents(digest)
	);

	CREATE INDEX IF NOT EXISTS idx_captures_post ON captures(post_id);
	CREATE INDEX IF NOT EXISTS idx_captures_digest ON captures(digest);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Put stores content under its digest and returns the local path.
// When the digest is already present this is a no-op returning the
// existing path: identical content is stored once no matter how many
// distinct captures reference it.
//
// Write ordering is blob first, row second. A crash between the two
// leaves an orphan blob that the next Put of the same digest adopts;
// it can never leave a row pointing at missing bytes.
func (s *Store) Put(ctx context.Context, digest string, content []byte, discoveredBy model.PostID) (string, error) {
	var existing string
	err := s.db.QueryRowContext(ctx,
		"SELECT path FROM contents WHERE digest = ?", digest).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up digest: %w", err)
	}

	path := filepath.Join(s.blobsDir, digest)
	if err := writeBlobAtomic(s.blobsDir, path, content); err != nil {
		return "", err
	}

	// INSERT OR IGNORE resolves the race where two workers downloaded
	// the same content: the loser's insert is a no-op and both end up
	// with the same row.
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO contents (digest, path, size, discovered_by) VALUES (?, ?, ?, ?)",
		digest, path, len(content), discoveredBy.ID(),
	); err != nil {
		return "", fmt.Errorf("failed to insert content record: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT path FROM contents WHERE digest = ?", digest).Scan(&existing); err != nil {
		return "", fmt.Errorf("failed to read back content record: %w", err)
	}
	return existing, nil
}

// writeBlobAtomic writes content to path via a temp file and rename, so
// a concurrent reader never sees a partial blob.
func writeBlobAtomic(dir, path string, content []byte) error {
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to publish blob: %w", err)
	}
	return nil
}

// Record links a capture to its stored content without duplicating
// bytes. The content row must already exist (via Put). Re-recording the
// same (post, capture) pair is a no-op.
func (s *Store) Record(ctx context.Context, capture model.Capture, digest string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM contents WHERE digest = ?", digest).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrUnknownDigest, digest)
	}
	if err != nil {
		return fmt.Errorf("failed to check digest: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	// Upsert the post, keeping any previously learned screen name.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO posts (platform_id, screen_name) VALUES (?, NULLIF(?, ''))
		ON CONFLICT(platform_id) DO UPDATE SET
			screen_name = COALESCE(NULLIF(excluded.screen_name, ''), posts.screen_name)
	`, capture.Post.ID(), capture.Post.ScreenName()); err != nil {
		return fmt.Errorf("failed to upsert post: %w", err)
	}

	var postRowID int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM posts WHERE platform_id = ?", capture.Post.ID()).Scan(&postRowID); err != nil {
		return fmt.Errorf("failed to read post row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO captures (post_id, digest, captured_at, url)
		VALUES (?, ?, ?, ?)
	`, postRowID, digest, capture.Timestamp, capture.URL); err != nil {
		return fmt.Errorf("failed to insert capture: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit capture record: %w", err)
	}
	return nil
}

// LookupCapture returns the stored digest for a (post, capture timestamp)
// pair. The second return is false when the capture has not been stored.
func (s *Store) LookupCapture(ctx context.Context, post model.PostID, capturedAt string) (string, bool, error) {
	var digest string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.digest
		FROM captures c
		JOIN posts p ON p.id = c.post_id
		WHERE p.platform_id = ? AND c.captured_at = ?
	`, post.ID(), capturedAt).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up capture: %w", err)
	}
	return digest, true, nil
}

// ContentPath returns the local path of stored content by digest.
// The second return is false when the digest is unknown.
func (s *Store) ContentPath(ctx context.Context, digest string) (string, bool, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		"SELECT path FROM contents WHERE digest = ?", digest).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up content path: %w", err)
	}
	return path, true, nil
}

// KnownDigests returns the set of digests with stored content. Used to
// skip whole captures before any network I/O on repeated runs.
func (s *Store) KnownDigests(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT digest FROM contents")
	if err != nil {
		return nil, fmt.Errorf("failed to list digests: %w", err)
	}
	defer rows.Close()

	digests := make(map[string]struct{})
	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		digests[digest] = struct{}{}
	}
	return digests, rows.Err()
}

// CaptureRecord is one stored capture link, joined with its content path.
type CaptureRecord struct {
	// PostID is the platform identifier of the post.
	PostID string
	// ScreenName is the author's handle, when known.
	ScreenName string
	// CapturedAt is the archive capture timestamp.
	CapturedAt string
	// URL is the original URL as indexed by the archive.
	URL string
	// Digest identifies the stored content.
	Digest string
	// Path is the local blob path.
	Path string
}

// CapturesForPost lists the stored captures of one post, oldest first.
func (s *Store) CapturesForPost(ctx context.Context, post model.PostID) ([]CaptureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.platform_id, COALESCE(p.screen_name, ''), c.captured_at, c.url, c.digest, ct.path
		FROM captures c
		JOIN posts p ON p.id = c.post_id
		JOIN contents ct ON ct.digest = c.digest
		WHERE p.platform_id = ?
		ORDER BY c.captured_at
	`, post.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}
	defer rows.Close()

	var records []CaptureRecord
	for rows.Next() {
		var rec CaptureRecord
		if err := rows.Scan(&rec.PostID, &rec.ScreenName, &rec.CapturedAt, &rec.URL, &rec.Digest, &rec.Path); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
