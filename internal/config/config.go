package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/deletia/deletia/internal/pacing"
	"github.com/deletia/deletia/internal/pipeline"
	"github.com/deletia/deletia/internal/workflow"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "deletia"

	// DefaultTimeout bounds a single archive request. The index endpoint
	// can take tens of seconds for posts with many captures.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies deletia in HTTP requests.
	// A descriptive User-Agent lets the archive's operators identify
	// and contact us rather than block us.
	DefaultUserAgent = "deletia/1.0 (+https://github.com/deletia/deletia)"

	// DefaultMaxBodySize limits the archived bytes read per capture.
	// 5MB covers every post page variant while preventing memory
	// exhaustion from unexpected payloads.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for deletia.
// This struct is designed to be populated from CLI flags and the optional
// config file, then passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// Targets is the list of post identifiers or URLs to audit.
	// Must contain at least one entry.
	Targets []string

	// PacingProfile selects the archive pacing strategy:
	// "conservative", "default", or "adaptive".
	PacingProfile string

	// Concurrency is the number of simultaneous content downloads.
	// The shared pacing controller caps the request rate regardless,
	// so raising this raises parallelism, not politeness risk.
	Concurrency int

	// IndexConcurrency is the number of simultaneous CDX index lookups.
	IndexConcurrency int

	// CheckExistence enables the live-status probe against the platform.
	// Without it posts with captures resolve as "captures found".
	CheckExistence bool

	// SkipDownload disables evidence download; captures are reported
	// from the index alone.
	SkipDownload bool

	// ListOnly switches the output from a report to a plain capture
	// listing. Implies no downloads and no existence checks.
	ListOnly bool

	// BearerToken is an optional platform API token for existence probes.
	BearerToken string

	// DataDir is the directory for the content store (SQLite index plus
	// blob files). Defaults to the XDG data directory.
	DataDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .deletia in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Timeout is the per-request timeout for archive calls.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		PacingProfile:    string(pacing.ProfileDefault),
		Concurrency:      pipeline.DefaultConcurrency,
		IndexConcurrency: workflow.DefaultIndexConcurrency,
		DataDir:          XDGDataDir(),
		Timeout:          DefaultTimeout,
		UserAgent:        DefaultUserAgent,
		MaxBodySize:      DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for deletia.
// On Linux: ~/.local/share/deletia
// On macOS: ~/Library/Application Support/deletia
// On Windows: %LOCALAPPDATA%\deletia
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for deletia.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any auditing begins.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if _, err := pacing.ParseProfile(c.PacingProfile); err != nil {
		return err
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.IndexConcurrency <= 0 {
		return ErrInvalidIndexConcurrency
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.ListOnly && (c.JSONReport || c.MarkdownReport) {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
