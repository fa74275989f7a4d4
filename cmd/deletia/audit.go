package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deletia/deletia/internal/archive"
	"github.com/deletia/deletia/internal/config"
	"github.com/deletia/deletia/internal/log"
	"github.com/deletia/deletia/internal/model"
	"github.com/deletia/deletia/internal/pacing"
	"github.com/deletia/deletia/internal/pipeline"
	"github.com/deletia/deletia/internal/report"
	"github.com/deletia/deletia/internal/social"
	"github.com/deletia/deletia/internal/store"
	"github.com/deletia/deletia/internal/workflow"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [post-id-or-url]...",
		Short: "Audit posts for deletion with archived evidence",
		Long: `Audit queries the web archive for captures of each post, downloads and
stores the archived contents, and classifies every post:

- deleted with evidence: captures exist and the post is no longer live
- extant with evidence: captures exist and the post is still live
- captures found: captures exist, live status not checked
- no evidence: the archive has no captures of the post
- failed: the lookup could not be completed

Posts may be given as bare numeric IDs or full post URLs.

Examples:
  # Audit a single post
  deletia audit 1354852772606152705

  # Audit posts listed in a file, one per line
  deletia audit --input posts.txt

  # Check live status too, with adaptive pacing
  deletia audit --check-existence --pacing adaptive --input posts.txt

  # Just list the archived captures, no downloads or report
  deletia audit --list --input posts.txt

  # Markdown report to a file
  deletia audit --markdown -o report.md 1354852772606152705

While an audit runs, SIGUSR1 dumps the pacing scoreboard to stderr.`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Pacing and concurrency flags
	cmd.Flags().StringP("pacing", "p", string(pacing.ProfileDefault),
		"Pacing profile: conservative, default, or adaptive")
	cmd.Flags().IntP("concurrency", "n", pipeline.DefaultConcurrency,
		"Number of concurrent content downloads")
	cmd.Flags().Int("index-concurrency", workflow.DefaultIndexConcurrency,
		"Number of concurrent index lookups")

	// Audit behavior flags
	cmd.Flags().BoolP("check-existence", "e", false,
		"Probe the platform for each post's live status")
	cmd.Flags().Bool("skip-download", false,
		"Report captures from the index without downloading contents")
	cmd.Flags().StringP("input", "i", "",
		"File with post IDs or URLs, one per line")
	cmd.Flags().BoolP("list", "l", false,
		"List the indexed captures only; no downloads, checks, or report")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout for archive calls")
	cmd.Flags().String("data-dir", "",
		"Directory for the content store (default: XDG data directory)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum archived bytes to read per capture")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .deletia in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Cancel the audit on interrupt so partial results are still stored.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	// Precedence is flags over config file over built-in defaults. Fields
	// the file may set are cleared here unless their flag was given, then
	// restored after the merge.
	cfg.PacingProfile = ""
	cfg.DataDir = ""
	cfg.UserAgent = ""
	cfg.MaxBodySize = 0
	if cmd.Flags().Changed("pacing") {
		cfg.PacingProfile, err = cmd.Flags().GetString("pacing")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-body-size") {
		cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
		if err != nil {
			return nil, err
		}
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.IndexConcurrency, err = cmd.Flags().GetInt("index-concurrency")
	if err != nil {
		return nil, err
	}

	cfg.CheckExistence, err = cmd.Flags().GetBool("check-existence")
	if err != nil {
		return nil, err
	}

	cfg.SkipDownload, err = cmd.Flags().GetBool("skip-download")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load defaults from the config file. If the user explicitly named a
	// file, a missing file is an error; otherwise silently skip.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cfg.PacingProfile == "" {
		cfg.PacingProfile = string(pacing.ProfileDefault)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.XDGDataDir()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = config.DefaultMaxBodySize
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.ListOnly, err = cmd.Flags().GetBool("list")
	if err != nil {
		return nil, err
	}

	inputFile, err := cmd.Flags().GetString("input")
	if err != nil {
		return nil, err
	}
	cfg.Targets = args
	if inputFile != "" {
		fromFile, err := readTargetList(inputFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, fromFile...)
	}

	return cfg, nil
}

// readTargetList reads post identifiers from a file, one per line.
// Blank lines and lines starting with '#' are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open list file: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}
	return targets, nil
}

// parseTargets converts raw identifiers into PostIDs, rejecting the whole
// run on the first bad input so a typo doesn't silently shrink an audit.
func parseTargets(targets []string) ([]model.PostID, error) {
	posts := make([]model.PostID, 0, len(targets))
	for _, target := range targets {
		post, err := model.NewPostID(target)
		if err != nil {
			return nil, fmt.Errorf("invalid post identifier %q: %w", target, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// runAudit wires the audit together and executes it.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	posts, err := parseTargets(cfg.Targets)
	if err != nil {
		return err
	}

	profile, err := pacing.ParseProfile(cfg.PacingProfile)
	if err != nil {
		return err
	}
	pacingSet := pacing.NewSet(profile)

	// SIGUSR1 dumps pacing diagnostics without interrupting the audit.
	stopScoreboard := watchScoreboard(pacing.NewScoreboard(pacingSet), os.Stderr)
	defer stopScoreboard()

	logger.Info("starting audit",
		"posts", len(posts),
		"profile", profile,
		"concurrency", cfg.Concurrency,
		"check_existence", cfg.CheckExistence,
		"data_dir", cfg.DataDir,
	)

	httpClient := &http.Client{Timeout: cfg.Timeout}
	cdx := archive.NewCDXClient(
		pacingSet.Controller(pacing.SurfaceIndex),
		archive.WithCDXHTTPClient(httpClient),
		archive.WithCDXUserAgent(cfg.UserAgent),
	)

	auditorOpts := []workflow.AuditorOption{
		workflow.WithIndexConcurrency(cfg.IndexConcurrency),
		workflow.WithAuditLogger(logger),
	}

	// List mode touches only the index surface.
	if !cfg.SkipDownload && !cfg.ListOnly {
		st, err := store.Open(cfg.DataDir, store.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open content store: %w", err)
		}
		defer st.Close()
		logger.Info("content store opened", "dir", cfg.DataDir)

		content := archive.NewContentClient(
			pacingSet.Controller(pacing.SurfaceContent),
			archive.WithContentHTTPClient(httpClient),
			archive.WithContentUserAgent(cfg.UserAgent),
			archive.WithContentMaxBodySize(cfg.MaxBodySize),
		)
		downloader := pipeline.NewDownloader(st, content,
			pipeline.WithConcurrency(cfg.Concurrency),
			pipeline.WithLogger(logger),
		)
		auditorOpts = append(auditorOpts, workflow.WithEvidencer(downloader))
	}

	if cfg.CheckExistence && !cfg.ListOnly {
		socialOpts := []social.Option{
			social.WithHTTPClient(&http.Client{Timeout: social.DefaultTimeout}),
		}
		if cfg.BearerToken != "" {
			socialOpts = append(socialOpts, social.WithBearerToken(cfg.BearerToken))
		}
		if cfg.UserAgent != "" {
			socialOpts = append(socialOpts, social.WithUserAgent(cfg.UserAgent))
		}
		auditorOpts = append(auditorOpts,
			workflow.WithExistenceChecker(social.NewClient(socialOpts...)))
	}

	auditor := workflow.NewAuditor(cdx, auditorOpts...)
	results, summary, err := auditor.Audit(ctx, posts)
	if err != nil {
		return err
	}

	if cfg.ListOnly {
		writeCaptureList(os.Stdout, results)
	} else {
		audit := &report.Audit{
			GeneratedAt: time.Now(),
			Results:     results,
			Summary:     summary,
		}
		if err := outputReport(cfg, audit); err != nil {
			return err
		}
	}

	// A failed lookup is not "no evidence"; make the process exit
	// status say so for anything scripted around us.
	if summary.HasFailures() {
		return fmt.Errorf("audit incomplete: %d post(s) could not be resolved", summary.Failed)
	}
	return nil
}

// writeCaptureList prints one line per indexed capture, for piping into
// other tools.
func writeCaptureList(w io.Writer, results []model.PostResult) {
	for _, res := range results {
		for _, capture := range res.Captures {
			fmt.Fprintf(w, "%s\t%s\t%s\n", res.Post.ID(), capture.Timestamp, capture.URL)
		}
	}
}

// outputReport writes the audit report in the requested format.
func outputReport(cfg *config.Config, audit *report.Audit) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output)
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(audit)
	return err
}
