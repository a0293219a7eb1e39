package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tracker/internal/auth"
	"tracker/internal/config"
	"tracker/internal/server"
	"tracker/internal/storage/sqlite"
	"tracker/internal/tracker"
)

func serveCmd(load func() (config.Config, error)) *cobra.Command {
	var addr, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the tracker HTTP API.

Examples:
  tracker serve
  tracker serve --addr :9090 --db /var/lib/tracker/tracker.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address (TRACKER_ADDR)")
	cmd.Flags().StringVar(&dbPath, "db", "data/tracker.db", "path to sqlite database file (TRACKER_DB_PATH)")
	return cmd
}

func runServe(cfg config.Config) error {
	logger := newLogger(os.Stdout, cfg)
	logger.Info("tracker starting", slog.String("version", Version))

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer store.Close()

	authn, err := auth.New(cfg.JWTSecret)
	if err != nil {
		return err
	}

	srv := server.New(tracker.New(store, logger), authn, logger, cfg.AllowedOrigins)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}
