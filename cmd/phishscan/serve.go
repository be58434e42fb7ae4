package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/phishscan/phishscan/internal/config"
	"github.com/phishscan/phishscan/internal/history"
	"github.com/phishscan/phishscan/internal/log"
	"github.com/phishscan/phishscan/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction API over HTTP",
		Long: `Serve exposes the classifier as a small HTTP API:

  GET  /healthz                   liveness probe
  GET  /api/v1/predict?url=...    classify one URL
  POST /api/v1/predict            classify one URL (JSON body)
  GET  /api/v1/history?limit=N    recent predictions (when persistence is on)

Prediction failures (missing model, bad URL) are returned as structured
results with an error field, not as HTTP 5xx.

Examples:
  # Serve on the default address
  phishscan serve

  # Serve on a custom port without persistence
  phishscan serve --addr :9000 --no-save`,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultListenAddress,
		"Listen address for the HTTP API")
	cmd.Flags().String("model-dir", "",
		"Directory holding the model artifacts (default: XDG data directory)")
	cmd.Flags().Bool("no-save", false,
		"Do not record predictions in the history database")
	cmd.Flags().BoolP("fetch", "f", false,
		"Fetch live pages for content features on every request")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.ListenAddress, err = cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	if modelDir, err := cmd.Flags().GetString("model-dir"); err != nil {
		return err
	} else if modelDir != "" {
		cfg.ModelDir = modelDir
	}
	cfg.FetchContent, err = cmd.Flags().GetBool("fetch")
	if err != nil {
		return err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	if !noSave {
		cfg.DBDir = config.XDGDataDir()
		cfg.SaveToDB = true
	}
	config.LoadEnv(cfg)

	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	opts := []server.Option{server.WithLogger(logger)}
	if cfg.SaveToDB {
		store, err := history.Open(cfg.DBDir, history.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
		opts = append(opts, server.WithHistoryStore(store))
	}

	srv := server.New(newPredictor(cfg, logger), opts...)

	fmt.Printf("Serving prediction API on %s\n", cfg.ListenAddress)
	return srv.Run(ctx, cfg.ListenAddress)
}
