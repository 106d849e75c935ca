package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "analyzer",
		Short: "Whitepaper scam-risk analysis service",
		Long: `analyzer scores cryptocurrency whitepapers for scam risk using a generative
model. Run "serve" for the HTTP API or "analyze" for a one-shot local analysis.
Configuration comes from environment variables and an optional YAML file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	root.AddCommand(newServeCmd(&cfgFile))
	root.AddCommand(newAnalyzeCmd(&cfgFile))
	return root
}

func newLogger(w io.Writer, json, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
