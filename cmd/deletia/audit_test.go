package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deletia/deletia/internal/model"
)

func TestBuildConfigDefaults(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg, err := buildConfig(cmd, []string{"1354852772606152705"})
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}

	if cfg.PacingProfile != "default" {
		t.Errorf("PacingProfile = %q, want %q", cfg.PacingProfile, "default")
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if cfg.IndexConcurrency != 2 {
		t.Errorf("IndexConcurrency = %d, want 2", cfg.IndexConcurrency)
	}
	if cfg.CheckExistence {
		t.Error("CheckExistence = true, want false by default")
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0] != "1354852772606152705" {
		t.Errorf("Targets = %v", cfg.Targets)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestBuildConfigFlags(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()
	err := cmd.ParseFlags([]string{
		"--pacing", "adaptive",
		"--concurrency", "4",
		"--index-concurrency", "3",
		"--check-existence",
		"--skip-download",
		"--timeout", "30s",
		"--markdown",
		"--output", "report.md",
		"--data-dir", "/tmp/deletia-test",
		"--max-body-size", "1048576",
	})
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg, err := buildConfig(cmd, []string{"42"})
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}

	if cfg.PacingProfile != "adaptive" {
		t.Errorf("PacingProfile = %q", cfg.PacingProfile)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d", cfg.Concurrency)
	}
	if cfg.IndexConcurrency != 3 {
		t.Errorf("IndexConcurrency = %d", cfg.IndexConcurrency)
	}
	if !cfg.CheckExistence {
		t.Error("CheckExistence = false")
	}
	if !cfg.SkipDownload {
		t.Error("SkipDownload = false")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.MarkdownReport {
		t.Error("MarkdownReport = false")
	}
	if cfg.ReportFile != "report.md" {
		t.Errorf("ReportFile = %q", cfg.ReportFile)
	}
	if cfg.DataDir != "/tmp/deletia-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.MaxBodySize != 1048576 {
		t.Errorf("MaxBodySize = %d, want 1048576", cfg.MaxBodySize)
	}
}

func TestBuildConfigFilePrecedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".deletia")
	content := `
pacing_profile: adaptive
user_agent: agent-from-file
max_body_size: 2097152
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// File values fill fields no flag set.
	cmd := NewAuditCmd()
	if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	cfg, err := buildConfig(cmd, []string{"42"})
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.PacingProfile != "adaptive" {
		t.Errorf("PacingProfile = %q, want file value", cfg.PacingProfile)
	}
	if cfg.UserAgent != "agent-from-file" {
		t.Errorf("UserAgent = %q, want file value", cfg.UserAgent)
	}
	if cfg.MaxBodySize != 2097152 {
		t.Errorf("MaxBodySize = %d, want file value", cfg.MaxBodySize)
	}

	// A flag the user set wins over the file.
	cmd = NewAuditCmd()
	if err := cmd.ParseFlags([]string{"--config", path, "--pacing", "conservative", "--max-body-size", "4096"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	cfg, err = buildConfig(cmd, []string{"42"})
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.PacingProfile != "conservative" {
		t.Errorf("PacingProfile = %q, flag must win over file", cfg.PacingProfile)
	}
	if cfg.MaxBodySize != 4096 {
		t.Errorf("MaxBodySize = %d, flag must win over file", cfg.MaxBodySize)
	}
}

func TestBuildConfigMissingExplicitConfigFile(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if err := cmd.ParseFlags([]string{"--config", missing}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	if _, err := buildConfig(cmd, []string{"42"}); err == nil {
		t.Error("buildConfig() with missing explicit config should fail")
	}
}

func TestBuildConfigInputFile(t *testing.T) {
	t.Parallel()

	listPath := filepath.Join(t.TempDir(), "posts.txt")
	content := `# posts to audit
1354852772606152705

https://twitter.com/alice/status/42
`
	if err := os.WriteFile(listPath, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cmd := NewAuditCmd()
	if err := cmd.ParseFlags([]string{"--input", listPath}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg, err := buildConfig(cmd, []string{"7"})
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}

	want := []string{"7", "1354852772606152705", "https://twitter.com/alice/status/42"}
	if len(cfg.Targets) != len(want) {
		t.Fatalf("Targets = %v, want %v", cfg.Targets, want)
	}
	for i, target := range want {
		if cfg.Targets[i] != target {
			t.Errorf("Targets[%d] = %q, want %q", i, cfg.Targets[i], target)
		}
	}
}

func TestWriteCaptureList(t *testing.T) {
	t.Parallel()

	post := model.MustNewPostID("42")
	results := []model.PostResult{
		{
			Post: post,
			Captures: []model.Capture{
				{Post: post, Timestamp: "20210128160247", URL: "https://twitter.com/alice/status/42"},
				{Post: post, Timestamp: "20210302120000", URL: "https://twitter.com/alice/status/42"},
			},
		},
		{Post: model.MustNewPostID("7")},
	}

	var buf bytes.Buffer
	writeCaptureList(&buf, results)

	want := "42\t20210128160247\thttps://twitter.com/alice/status/42\n" +
		"42\t20210302120000\thttps://twitter.com/alice/status/42\n"
	if buf.String() != want {
		t.Errorf("writeCaptureList() = %q, want %q", buf.String(), want)
	}
}

func TestReadTargetListMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := readTargetList(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("readTargetList() on missing file should fail")
	}
}

func TestParseTargets(t *testing.T) {
	t.Parallel()

	posts, err := parseTargets([]string{
		"1354852772606152705",
		"https://twitter.com/alice/status/42",
	})
	if err != nil {
		t.Fatalf("parseTargets() error = %v", err)
	}
	if posts[0].ID() != "1354852772606152705" {
		t.Errorf("posts[0].ID() = %q", posts[0].ID())
	}
	if posts[1].ScreenName() != "alice" {
		t.Errorf("posts[1].ScreenName() = %q", posts[1].ScreenName())
	}

	_, err = parseTargets([]string{"not-a-post"})
	if !errors.Is(err, model.ErrInvalidPostID) {
		t.Errorf("parseTargets(invalid) error = %v, want ErrInvalidPostID", err)
	}
}
