package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tracker/internal/config"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Multi-user project and task tracker",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file with TRACKER_* settings")

	load := func() (config.Config, error) {
		return config.Load(envFile)
	}
	rootCmd.AddCommand(serveCmd(load))
	rootCmd.AddCommand(tokenCmd(load))
	return rootCmd
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
