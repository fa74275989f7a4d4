package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for deletia.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deletia",
		Short: "Audit deleted social media posts against the web archive",
		Long: `Deletia audits social media posts against the web archive.

For each post it queries the archive's index for captures, downloads and
stores the archived contents locally, and reports whether the post has
been deleted while archived evidence of it survives.

Requests to the archive are paced adaptively so audits stay polite even
when run over thousands of posts.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewScreenshotCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
