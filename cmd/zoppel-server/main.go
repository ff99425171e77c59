package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/pendergraft/zoppel/internal/config"
	"github.com/pendergraft/zoppel/internal/observability/metrics"
	"github.com/pendergraft/zoppel/internal/server"
	"github.com/pendergraft/zoppel/internal/storage"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "zoppel-server",
		Short:   "Zoppel server - event-sourced token runtime",
		Version: version,
	}

	// Default behavior (no subcommand) is to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe()
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newGenesisCmd())
	rootCmd.AddCommand(newKeysCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the chain state from the transaction log and print the head",
		Long: `Replay every committed transaction and print the resulting chain head.

An empty log is bootstrapped with the genesis deploys, exactly as serve does.
Use it to check that a database replays cleanly before starting the server.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd)
		},
	}
}

func newGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Print the development genesis as TOML",
		Long: `Print the genesis used when GENESIS_FILE is not set.

EXAMPLES:
  zoppel-server genesis > genesis.toml
  GENESIS_FILE=genesis.toml zoppel-server serve
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(config.DevGenesis(cfg.Chain.ID))
		},
	}
}

// loadGenesis reads GENESIS_FILE, or returns the development genesis.
func loadGenesis(cfg *config.Config) (*config.Genesis, error) {
	if cfg.Chain.GenesisFile == "" {
		return config.DevGenesis(cfg.Chain.ID), nil
	}
	return config.LoadGenesis(cfg.Chain.GenesisFile, cfg.Chain.ID)
}

// openStore opens and migrates the configured store.
func openStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, nil
}

func runReplay(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	genesis, err := loadGenesis(cfg)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(cfg, genesis, store, logger)
	start := time.Now()
	if err := srv.Start(context.Background()); err != nil {
		return err
	}

	head := srv.Runtime().Head()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "chain id:     %d\n", head.ChainID)
	fmt.Fprintf(out, "block:        %d\n", head.BlockNumber)
	fmt.Fprintf(out, "block time:   %s\n", head.BlockTime.Format(time.RFC3339))
	fmt.Fprintf(out, "transactions: %d\n", head.NextSeq)
	for name, addr := range head.Contracts {
		fmt.Fprintf(out, "  %-10s  %s\n", name, addr.Hex())
	}
	fmt.Fprintf(out, "replayed in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// Server command

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg)
	logger.Info("starting zoppel-server", "version", version)

	genesis, err := loadGenesis(cfg)
	if err != nil {
		return err
	}

	metrics.Init(cfg.Metrics.Enabled, "zoppel-server")

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(cfg, genesis, store, logger)
	if err := srv.Start(context.Background()); err != nil {
		return err
	}

	// Create HTTP server with configurable timeouts
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr, "chain_id", genesis.ChainID)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
