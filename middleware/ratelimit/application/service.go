package application

import (
	"context"
	"log/slog"
	"time"

	"whitepaper-guard/middleware/ratelimit/domain"
)

// Service concentra a regra de admissão por janela fixa.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Cada chamada de Decide conta como uma requisição (não existe "peek").
type Service struct {
	Store  domain.WindowStore
	Stats  domain.StatsStore
	Limit  int
	Window time.Duration
	// Now permite injetar o relógio nos testes.
	Now func() time.Time
	// Logger recebe as falhas de Stats; nil usa slog.Default().
	Logger *slog.Logger
}

// Decide aplica allowed = count <= Limit e remaining = max(0, Limit-count).
func (s Service) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	return s.DecideRoute(ctx, key, "")
}

// DecideRoute é igual a Decide, mas registra a rota no evento de estatística.
func (s Service) DecideRoute(ctx context.Context, key domain.Key, route string) (domain.Decision, error) {
	if s.Store == nil || s.Limit <= 0 {
		return domain.Decision{Allowed: true, Limit: s.Limit}, nil
	}
	if s.Window <= 0 {
		s.Window = time.Minute
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	win, err := s.Store.Hit(ctx, key, s.Window)
	if err != nil {
		return domain.Decision{}, err
	}

	dec := domain.Decision{
		Allowed:   win.Count <= s.Limit,
		Limit:     s.Limit,
		Remaining: max(0, s.Limit-win.Count),
		ResetAt:   win.ResetAt,
	}
	if !dec.Allowed {
		dec.RetryAfter = max(0, win.ResetAt.Sub(now()))
	}

	if s.Stats != nil {
		err := s.Stats.Record(ctx, domain.StatsEvent{
			Key:       key,
			Allowed:   dec.Allowed,
			Remaining: dec.Remaining,
			Route:     route,
			At:        now(),
		})
		// best-effort: a decisão não depende das estatísticas
		if err != nil {
			s.logger().Warn("admission stats not recorded", "route", route, "err", err)
		}
	}
	return dec, nil
}

func (s Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
