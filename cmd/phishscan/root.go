// Package main provides the entry point for the phishscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for phishscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishscan",
		Short: "Phishing URL detection tool",
		Long: `phishscan classifies URLs as phishing or legitimate.

It extracts lexical, domain-trust, and page-content features from each URL,
scores them with a trained classifier, and reports a 0-100 risk score with
the features that contributed most to the verdict.

Network lookups (WHOIS, DNS, page fetch) are optional: lexical analysis
alone works fully offline.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewTrainCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
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
