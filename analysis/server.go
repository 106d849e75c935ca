package analysis

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"whitepaper-guard/analysis/application"
	"whitepaper-guard/analysis/infra"
	"whitepaper-guard/middleware/ratelimit"
	rldomain "whitepaper-guard/middleware/ratelimit/domain"
	rlinfra "whitepaper-guard/middleware/ratelimit/infra"

	"github.com/gorilla/mux"
)

// limite de leitura dos corpos JSON; cobre 100.000 caracteres escapados
const maxBodyBytes = 1 << 20

// Submitter é implementado por *application.Service.
type Submitter interface {
	Submit(ctx context.Context, identifier string, raw any) (application.Submission, error)
}

// DocumentFetcher é implementado por *infra.Fetcher.
type DocumentFetcher interface {
	Fetch(ctx context.Context, raw any) (infra.Document, error)
}

// StatsSource é implementado por *rlinfra.MemoryStatsStore e
// *rlinfra.RedisStatsStore.
type StatsSource interface {
	Snapshot(ctx context.Context) (rlinfra.StatsSnapshot, error)
}

type Server struct {
	Analysis Submitter
	Fetcher  DocumentFetcher
	// FetchLimit configura a admissão própria de /api/fetch; Store nil desliga.
	FetchLimit     ratelimit.Options
	Stats          StatsSource
	KeyFn          ratelimit.KeyFunc
	Concurrency    ratelimit.ConcurrencyOptions
	AllowedOrigins []string
	Diagnostics    bool
	Logger         *slog.Logger
	Now            func() time.Time
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) clientKey(r *http.Request) string {
	if s.KeyFn == nil {
		return ratelimit.DefaultKeyFunc("", false)(r)
	}
	return s.KeyFn(r)
}

// Handler monta o roteador e a cadeia de middlewares, de fora para dentro:
// request id, log, headers de segurança, CORS, limite de concorrência.
func (s *Server) Handler() http.Handler {
	if s.KeyFn == nil {
		s.KeyFn = ratelimit.DefaultKeyFunc("", false)
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// rotas direto no roteador raiz: subrouter responde 404 em vez de 405.
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/analyze", s.handleAnalyze).Methods(http.MethodPost)
	r.Handle("/api/fetch", s.fetchLimiter()(http.HandlerFunc(s.handleFetch))).Methods(http.MethodPost)
	r.HandleFunc("/api/ratelimit/stats", s.handleStats).Methods(http.MethodGet)

	conc := s.Concurrency
	if conc.OnReject == nil {
		conc.OnReject = func(w http.ResponseWriter, _ *http.Request, status int) {
			s.writeMessage(w, status, "the server is busy, please retry later")
		}
	}

	var h http.Handler = r
	h = ratelimit.ConcurrencyMiddleware(conc)(h)
	h = s.cors(h)
	h = securityHeaders(h)
	h = s.logRequests(h)
	h = withRequestID(h)
	return h
}

func (s *Server) fetchLimiter() func(http.Handler) http.Handler {
	opts := s.FetchLimit
	if opts.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.KeyFn == nil {
		opts.KeyFn = s.KeyFn
	}
	if opts.Route == "" {
		opts.Route = "fetch"
	}
	if opts.Logger == nil {
		opts.Logger = s.Logger
	}
	opts.AddRateLimitHeaders = true
	opts.OnReject = func(w http.ResponseWriter, r *http.Request, dec rldomain.Decision) {
		s.logger(r).Info("rate limit exceeded", "route", "fetch", "reset_at", dec.ResetAt)
		s.writeError(w, r, rateLimitedError(dec))
	}
	opts.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		s.writeError(w, r, admissionError(err))
	}
	return ratelimit.Middleware(opts)
}
