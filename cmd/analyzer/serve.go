package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := loadViper(*cfgFile)
			if err != nil {
				return err
			}
			cfg, err := readConfig(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg config) error {
	logger := newLogger(os.Stderr, true, cfg.diagnostics)

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		return err
	}
	defer a.close()
	a.startJanitors(ctx)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// a escrita só acontece depois da chamada ao provedor
		WriteTimeout: cfg.providerTimeout + 15*time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("analyzer listening", "addr", cfg.listenAddr, "env", cfg.appEnv, "diagnostics", cfg.diagnostics)
	logger.Info("rate", "enabled", cfg.rateEnabled, "backend", cfg.rateBackend,
		"limit", cfg.rateLimit, "fetchLimit", cfg.fetchRateLimit, "window", cfg.rateWindow,
		"keyHeader", cfg.rateKeyHeader, "trustXFF", cfg.trustXFF)
	if cfg.trustXFF {
		logger.Warn("TRUST_XFF is on: clients are identified by X-Forwarded-For; only enable it behind a proxy that overwrites the header")
	}
	if cfg.fetchAllowPrivate {
		logger.Warn("FETCH_ALLOW_PRIVATE is on: /api/fetch can reach loopback and private networks")
	}
	logger.Info("rate-stats", "backend", cfg.statsBackend, "bucket", cfg.statsBucket,
		"ttl", cfg.statsTTL, "trackKeys", cfg.statsTrackKeys)
	logger.Info("concurrency", "max", cfg.concurrencyMax, "acquireTimeout", cfg.concurrencyTimeout)
	logger.Info("provider", "backend", cfg.providerBackend, "model", cfg.geminiModel,
		"timeout", cfg.providerTimeout, "rps", cfg.providerRPS, "burst", cfg.providerBurst,
		"rubric", cfg.rubricVersion)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		return err
	}
	return nil
}
