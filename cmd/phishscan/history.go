package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phishscan/phishscan/internal/config"
	"github.com/phishscan/phishscan/internal/history"
	"github.com/phishscan/phishscan/internal/model"
	"github.com/phishscan/phishscan/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show past prediction results",
		Long: `History lists predictions recorded by previous scans.

Without arguments it shows the most recent predictions across all URLs.
With a URL argument it shows every recorded prediction for that URL,
newest first.

Examples:
  # Show the 20 most recent predictions
  phishscan history

  # Show the 50 most recent predictions as JSON
  phishscan history --limit 50 --json

  # Show every scan of one URL
  phishscan history https://suspicious-login.example`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of predictions to show")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON instead of human-readable text")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Require the database to exist: history must not silently create an
	// empty store and report "no predictions".
	store, err := history.Open(dbDir, history.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no prediction history found (run a scan first): %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	var records []history.Record
	if len(args) == 1 {
		records, err = store.GetByURL(ctx, args[0])
		if errors.Is(err, history.ErrNotFound) {
			fmt.Printf("No predictions recorded for %s\n", args[0])
			return nil
		}
	} else {
		records, err = store.ListRecent(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("history query failed: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No predictions recorded yet")
		return nil
	}

	results := make([]model.PredictionResult, len(records))
	for i, rec := range records {
		results[i] = rec.Result
	}

	var writer report.Writer
	if asJSON {
		writer = report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
	} else {
		writer = report.NewSimpleWriter(os.Stdout)
	}
	_, err = writer.WriteBatch(results)
	return err
}
