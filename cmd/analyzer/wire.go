package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"whitepaper-guard/analysis"
	"whitepaper-guard/analysis/application"
	"whitepaper-guard/analysis/domain"
	"whitepaper-guard/analysis/infra"
	"whitepaper-guard/middleware/ratelimit"
	rlapp "whitepaper-guard/middleware/ratelimit/application"
	rldomain "whitepaper-guard/middleware/ratelimit/domain"
	rlinfra "whitepaper-guard/middleware/ratelimit/infra"

	"github.com/redis/go-redis/v9"
)

// app é o grafo de dependências montado a partir da config.
type app struct {
	service  *application.Service
	server   *analysis.Server
	janitors []*rlinfra.MemoryWindowStore
	closers  []func() error
}

func (a *app) startJanitors(ctx context.Context) {
	for _, j := range a.janitors {
		j.StartJanitor(ctx)
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
}

func buildApp(ctx context.Context, cfg config, logger *slog.Logger) (*app, error) {
	a := &app{}

	var rdb *redis.Client
	if cfg.rateBackend == "redis" || cfg.statsBackend == "redis" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		a.closers = append(a.closers, rdb.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			a.close()
			return nil, fmt.Errorf("redis ping error: %w", err)
		}
	}

	var stats interface {
		rldomain.StatsStore
		analysis.StatsSource
	}
	switch cfg.statsBackend {
	case "memory":
		stats = rlinfra.NewMemoryStatsStore(rlinfra.WithTrackKeys(cfg.statsTrackKeys))
	case "redis":
		stats = rlinfra.NewRedisStatsStore(
			rdb,
			rlinfra.WithStatsPrefix(cfg.statsPrefix),
			rlinfra.WithStatsTTL(cfg.statsTTL),
			rlinfra.WithStatsBucket(cfg.statsBucket),
			rlinfra.WithStatsTrackKeys(cfg.statsTrackKeys),
		)
	}

	// analyze e fetch têm janelas independentes para o mesmo cliente
	newStore := func(name string) rldomain.WindowStore {
		if cfg.rateBackend == "redis" {
			return rlinfra.NewRedisWindowStore(rdb, rlinfra.WithWindowPrefix(cfg.ratePrefix+":"+name))
		}
		s := rlinfra.NewMemoryWindowStore(rlinfra.WithSweepEvery(cfg.rateSweepEvery))
		a.janitors = append(a.janitors, s)
		return s
	}

	provider, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	rubric, err := loadRubric(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	svc := &application.Service{
		Analyzer: &application.Orchestrator{
			Provider: provider,
			Rubric:   rubric,
			Tiers:    domain.DefaultTiers,
			MaxChars: cfg.maxAnalysisChars,
			Timeout:  cfg.providerTimeout,
			Logger:   logger,
		},
		Route:  "analyze",
		Logger: logger,
	}

	keyFn := ratelimit.DefaultKeyFunc(cfg.rateKeyHeader, cfg.trustXFF)
	srv := &analysis.Server{
		Analysis: svc,
		Fetcher: &infra.Fetcher{
			Timeout:           cfg.fetchTimeout,
			MaxChars:          cfg.fetchMaxChars,
			AllowPrivateHosts: cfg.fetchAllowPrivate,
		},
		KeyFn: keyFn,
		Concurrency: ratelimit.ConcurrencyOptions{
			Max:            cfg.concurrencyMax,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.concurrencyTimeout,
		},
		AllowedOrigins: cfg.allowedOrigins,
		Diagnostics:    cfg.diagnostics,
		Logger:         logger,
	}
	if stats != nil {
		srv.Stats = stats
	}

	if cfg.rateEnabled {
		svc.Admission = rlapp.Service{
			Store:  newStore("analyze"),
			Stats:  stats,
			Limit:  cfg.rateLimit,
			Window: cfg.rateWindow,
			Logger: logger,
		}
		srv.FetchLimit = ratelimit.Options{
			Store:  newStore("fetch"),
			Stats:  stats,
			Limit:  cfg.fetchRateLimit,
			Window: cfg.rateWindow,
			KeyFn:  keyFn,
			Route:  "fetch",
			Logger: logger,
		}
	}

	a.service = svc
	a.server = srv
	return a, nil
}

// buildProvider devolve nil sem chave: as análises respondem Internal
// ("not configured") em vez de derrubar o processo.
func buildProvider(ctx context.Context, cfg config, logger *slog.Logger) (domain.Provider, error) {
	if cfg.geminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; analysis requests will fail")
		return nil, nil
	}

	var p domain.Provider
	switch cfg.providerBackend {
	case "sdk":
		sdk, err := infra.NewSDKProvider(ctx, cfg.geminiAPIKey, cfg.geminiModel, cfg.geminiBaseURL)
		if err != nil {
			return nil, err
		}
		p = sdk
	default:
		p = &infra.RESTProvider{
			APIKey:  cfg.geminiAPIKey,
			ModelID: cfg.geminiModel,
			BaseURL: cfg.geminiBaseURL,
			Client:  &http.Client{},
		}
	}
	return infra.NewThrottledProvider(p, cfg.providerRPS, cfg.providerBurst), nil
}

func loadRubric(cfg config) (domain.Rubric, error) {
	set := domain.BuiltinRubrics
	if cfg.rubricFile != "" {
		loaded, err := infra.LoadRubricFile(cfg.rubricFile)
		if err != nil {
			return domain.Rubric{}, err
		}
		set = loaded
	}
	r, err := set.Get(cfg.rubricVersion)
	if err != nil {
		return domain.Rubric{}, err
	}
	if cfg.maxOutputTokens > 0 {
		r.MaxOutputTokens = cfg.maxOutputTokens
	}
	return r, nil
}
