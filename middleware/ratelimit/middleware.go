package ratelimit

import (
	"log/slog"
	"net/http"
	"time"

	"whitepaper-guard/middleware/ratelimit/application"
	"whitepaper-guard/middleware/ratelimit/domain"
)

type Options struct {
	Store      domain.WindowStore
	Stats      domain.StatsStore
	Limit      int
	Window     time.Duration
	KeyFn      KeyFunc
	KeyHeader  string
	TrustProxy bool
	// Route identifica a rota nas estatísticas; vazio usa "METHOD path".
	Route               string
	RejectStatus        int
	AddRateLimitHeaders bool
	// OnReject escreve a resposta de bloqueio. nil usa http.Error.
	OnReject func(w http.ResponseWriter, r *http.Request, dec domain.Decision)
	// OnError escreve a resposta quando o store falha. nil responde 500.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
	Logger  *slog.Logger
}

// SetHeaders escreve X-RateLimit-Limit/Remaining/Reset e, se bloqueado, Retry-After.
func SetHeaders(h http.Header, dec domain.Decision) {
	h.Set("X-RateLimit-Limit", formatInt(dec.Limit))
	h.Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
	if !dec.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", formatUnixMillis(dec.ResetAt))
	}
	if !dec.Allowed {
		h.Set("Retry-After", formatInt(retryAfterSeconds(dec.RetryAfter)))
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustProxy)
	}
	if opts.OnReject == nil {
		opts.OnReject = func(w http.ResponseWriter, _ *http.Request, _ domain.Decision) {
			http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
		}
	}
	if opts.OnError == nil {
		opts.OnError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}

	svc := application.Service{
		Store:  opts.Store,
		Stats:  opts.Stats,
		Limit:  opts.Limit,
		Window: opts.Window,
		Logger: opts.Logger,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := opts.Route
			if route == "" {
				route = r.Method + " " + r.URL.Path
			}

			dec, err := svc.DecideRoute(r.Context(), domain.Key(opts.KeyFn(r)), route)
			if err != nil {
				opts.OnError(w, r, err)
				return
			}
			if opts.AddRateLimitHeaders || !dec.Allowed {
				SetHeaders(w.Header(), dec)
			}
			if !dec.Allowed {
				opts.OnReject(w, r, dec)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
