package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deletia/deletia/internal/pacing"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	c := NewConfig()

	if c.PacingProfile != string(pacing.ProfileDefault) {
		t.Errorf("PacingProfile = %q, want %q", c.PacingProfile, pacing.ProfileDefault)
	}
	if c.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", c.Concurrency)
	}
	if c.IndexConcurrency != 2 {
		t.Errorf("IndexConcurrency = %d, want 2", c.IndexConcurrency)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
	if c.DataDir == "" {
		t.Error("DataDir is empty, want XDG data dir")
	}
	if c.MaxBodySize != DefaultMaxBodySize {
		t.Errorf("MaxBodySize = %d, want %d", c.MaxBodySize, DefaultMaxBodySize)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		c := NewConfig()
		c.Targets = []string{"1354852772606152705"}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no targets", mutate: func(c *Config) { c.Targets = nil }, wantErr: ErrNoTarget},
		{name: "unknown profile", mutate: func(c *Config) { c.PacingProfile = "turbo" }, wantErr: pacing.ErrUnknownProfile},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "zero index concurrency", mutate: func(c *Config) { c.IndexConcurrency = 0 }, wantErr: ErrInvalidIndexConcurrency},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: ErrInvalidTimeout},
		{name: "both report formats", mutate: func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, wantErr: ErrConflictingReportFormats},
		{name: "list with report format", mutate: func(c *Config) { c.ListOnly = true; c.JSONReport = true }, wantErr: ErrConflictingReportFormats},
		{name: "negative body size", mutate: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	content := `
pacing_profile: adaptive
data_dir: /var/lib/deletia
bearer_token: token-from-file
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if cf.PacingProfile != "adaptive" {
		t.Errorf("PacingProfile = %q, want %q", cf.PacingProfile, "adaptive")
	}
	if cf.DataDir != "/var/lib/deletia" {
		t.Errorf("DataDir = %q", cf.DataDir)
	}
	if cf.BearerToken != "token-from-file" {
		t.Errorf("BearerToken = %q", cf.BearerToken)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfigFile() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte("pacing_profile: [broken"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("LoadConfigFile() error = nil, want YAML error")
	}
}

func TestFileApplyFillsOnlyUnsetFields(t *testing.T) {
	t.Parallel()

	cf := &File{
		PacingProfile: "adaptive",
		DataDir:       "/from/file",
		BearerToken:   "file-token",
		UserAgent:     "file-agent",
		MaxBodySize:   2048,
	}

	c := &Config{PacingProfile: "conservative"}
	cf.Apply(c)

	if c.PacingProfile != "conservative" {
		t.Errorf("PacingProfile = %q, CLI value must win", c.PacingProfile)
	}
	if c.DataDir != "/from/file" {
		t.Errorf("DataDir = %q, want file value", c.DataDir)
	}
	if c.BearerToken != "file-token" {
		t.Errorf("BearerToken = %q, want file value", c.BearerToken)
	}
	if c.UserAgent != "file-agent" {
		t.Errorf("UserAgent = %q, want file value", c.UserAgent)
	}
	if c.MaxBodySize != 2048 {
		t.Errorf("MaxBodySize = %d, want file value", c.MaxBodySize)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if got := FindConfigFile(path); got != path {
		t.Errorf("FindConfigFile(explicit) = %q, want %q", got, path)
	}
	if got := FindConfigFile(filepath.Join(dir, "absent")); got != "" {
		t.Errorf("FindConfigFile(missing explicit) = %q, want empty", got)
	}
}
