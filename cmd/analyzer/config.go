package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type config struct {
	listenAddr  string
	appEnv      string
	diagnostics bool

	rateEnabled    bool
	rateLimit      int
	rateWindow     time.Duration
	rateSweepEvery time.Duration
	rateBackend    string
	redisAddr      string
	redisPassword  string
	redisDB        int
	ratePrefix     string
	rateKeyHeader  string
	trustXFF       bool

	fetchRateLimit int
	fetchTimeout   time.Duration
	fetchMaxChars  int
	// libera /api/fetch para loopback e redes privadas (só desenvolvimento)
	fetchAllowPrivate bool

	statsBackend   string
	statsPrefix    string
	statsTTL       time.Duration
	statsBucket    string
	statsTrackKeys bool

	concurrencyMax     int
	concurrencyTimeout time.Duration
	allowedOrigins     []string

	geminiAPIKey     string
	geminiModel      string
	geminiBaseURL    string
	providerBackend  string
	providerTimeout  time.Duration
	maxOutputTokens  int
	providerRPS      float64
	providerBurst    int
	rubricVersion    string
	rubricFile       string
	maxAnalysisChars int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("app_env", "production")
	v.SetDefault("diagnostics", false)

	v.SetDefault("rate_enabled", true)
	v.SetDefault("rate_limit", 10)
	v.SetDefault("rate_window", time.Minute)
	v.SetDefault("rate_sweep_every", time.Minute)
	v.SetDefault("rate_backend", "memory")
	v.SetDefault("rate_redis_addr", "")
	v.SetDefault("rate_redis_password", "")
	v.SetDefault("rate_redis_db", 0)
	v.SetDefault("rate_redis_prefix", "analyzer:rate")
	v.SetDefault("rate_key_header", "")
	// X-Forwarded-For só deve ser confiado atrás de um proxy que o sobrescreve
	v.SetDefault("trust_xff", false)

	v.SetDefault("fetch_rate_limit", 5)
	v.SetDefault("fetch_timeout", 30*time.Second)
	v.SetDefault("fetch_max_chars", 50_000)
	v.SetDefault("fetch_allow_private", false)

	v.SetDefault("rate_stats_backend", "none")
	v.SetDefault("rate_stats_prefix", "analyzer:stats")
	v.SetDefault("rate_stats_ttl", 24*time.Hour)
	v.SetDefault("rate_stats_bucket", "minute")
	v.SetDefault("rate_stats_track_keys", false)

	v.SetDefault("concurrency_max", 50)
	v.SetDefault("concurrency_timeout", time.Duration(0))
	v.SetDefault("allowed_origins", "")

	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("gemini_base_url", "")
	v.SetDefault("provider_backend", "rest")
	v.SetDefault("provider_timeout", 30*time.Second)
	v.SetDefault("provider_max_output_tokens", 2048)
	v.SetDefault("provider_rps", 2.0)
	v.SetDefault("provider_burst", 4)
	v.SetDefault("rubric_version", "v2")
	v.SetDefault("rubric_file", "")
	v.SetDefault("max_analysis_chars", 30_000)
}

// loadViper junta padrões, arquivo opcional (--config) e variáveis de
// ambiente; o ambiente sempre ganha.
func loadViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func readConfig(v *viper.Viper) (config, error) {
	cfg := config{}
	cfg.listenAddr = v.GetString("listen_addr")
	cfg.appEnv = strings.ToLower(v.GetString("app_env"))
	// development sempre liga o diagnóstico
	cfg.diagnostics = v.GetBool("diagnostics") || cfg.appEnv == "development"

	cfg.rateEnabled = v.GetBool("rate_enabled")
	cfg.rateLimit = v.GetInt("rate_limit")
	cfg.rateWindow = v.GetDuration("rate_window")
	cfg.rateSweepEvery = v.GetDuration("rate_sweep_every")
	cfg.rateBackend = strings.ToLower(v.GetString("rate_backend"))
	cfg.redisAddr = v.GetString("rate_redis_addr")
	cfg.redisPassword = v.GetString("rate_redis_password")
	cfg.redisDB = v.GetInt("rate_redis_db")
	cfg.ratePrefix = v.GetString("rate_redis_prefix")
	cfg.rateKeyHeader = v.GetString("rate_key_header")
	cfg.trustXFF = v.GetBool("trust_xff")

	cfg.fetchRateLimit = v.GetInt("fetch_rate_limit")
	cfg.fetchTimeout = v.GetDuration("fetch_timeout")
	cfg.fetchMaxChars = v.GetInt("fetch_max_chars")
	cfg.fetchAllowPrivate = v.GetBool("fetch_allow_private")

	cfg.statsBackend = strings.ToLower(v.GetString("rate_stats_backend"))
	cfg.statsPrefix = v.GetString("rate_stats_prefix")
	cfg.statsTTL = v.GetDuration("rate_stats_ttl")
	cfg.statsBucket = v.GetString("rate_stats_bucket")
	cfg.statsTrackKeys = v.GetBool("rate_stats_track_keys")

	cfg.concurrencyMax = v.GetInt("concurrency_max")
	cfg.concurrencyTimeout = v.GetDuration("concurrency_timeout")
	cfg.allowedOrigins = splitList(v.GetString("allowed_origins"))

	cfg.geminiAPIKey = v.GetString("gemini_api_key")
	cfg.geminiModel = v.GetString("gemini_model")
	cfg.geminiBaseURL = v.GetString("gemini_base_url")
	cfg.providerBackend = strings.ToLower(v.GetString("provider_backend"))
	cfg.providerTimeout = v.GetDuration("provider_timeout")
	cfg.maxOutputTokens = v.GetInt("provider_max_output_tokens")
	cfg.providerRPS = v.GetFloat64("provider_rps")
	cfg.providerBurst = v.GetInt("provider_burst")
	cfg.rubricVersion = v.GetString("rubric_version")
	cfg.rubricFile = v.GetString("rubric_file")
	cfg.maxAnalysisChars = v.GetInt("max_analysis_chars")

	if cfg.rateEnabled {
		if cfg.rateLimit <= 0 {
			return config{}, errors.New("RATE_LIMIT must be > 0")
		}
		if cfg.fetchRateLimit <= 0 {
			return config{}, errors.New("FETCH_RATE_LIMIT must be > 0")
		}
		if cfg.rateWindow <= 0 {
			return config{}, errors.New("RATE_WINDOW must be > 0")
		}
	}
	switch cfg.rateBackend {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.redisAddr) == "" {
			return config{}, errors.New("RATE_REDIS_ADDR is required when RATE_BACKEND=redis")
		}
	default:
		return config{}, fmt.Errorf("RATE_BACKEND must be memory or redis, got %q", cfg.rateBackend)
	}
	switch cfg.statsBackend {
	case "none", "memory":
	case "redis":
		if strings.TrimSpace(cfg.redisAddr) == "" {
			return config{}, errors.New("RATE_REDIS_ADDR is required when RATE_STATS_BACKEND=redis")
		}
	default:
		return config{}, fmt.Errorf("RATE_STATS_BACKEND must be none, memory or redis, got %q", cfg.statsBackend)
	}
	if cfg.statsBucket != "minute" && cfg.statsBucket != "none" {
		return config{}, errors.New("RATE_STATS_BUCKET must be minute or none")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.providerBackend != "rest" && cfg.providerBackend != "sdk" {
		return config{}, fmt.Errorf("PROVIDER_BACKEND must be rest or sdk, got %q", cfg.providerBackend)
	}
	if cfg.providerTimeout <= 0 {
		return config{}, errors.New("PROVIDER_TIMEOUT must be > 0")
	}
	if cfg.maxAnalysisChars <= 0 {
		return config{}, errors.New("MAX_ANALYSIS_CHARS must be > 0")
	}
	if cfg.providerRPS < 0 {
		return config{}, errors.New("PROVIDER_RPS must be >= 0")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
