package application

import (
	"context"
	"fmt"
	"log/slog"

	"whitepaper-guard/analysis/domain"
	"whitepaper-guard/analysis/validate"
	rldomain "whitepaper-guard/middleware/ratelimit/domain"
)

// Admitter é o controle de admissão (ver ratelimit/application.Service).
type Admitter interface {
	DecideRoute(ctx context.Context, key rldomain.Key, route string) (rldomain.Decision, error)
}

// Analyzer é implementado por *Orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Analysis, error)
}

// Submission carrega a decisão de admissão mesmo quando a análise falha,
// para que a borda sempre devolva remaining/reset ao cliente.
type Submission struct {
	Admission rldomain.Decision
	Analysis  Analysis
}

// Service implementa submitForAnalysis: admissão → validação → análise.
// Todo erro devolvido é um *domain.ClassifiedError.
type Service struct {
	Admission Admitter
	Validator validate.Validator
	Analyzer  Analyzer
	// Route identifica a origem nas estatísticas de admissão.
	Route  string
	Logger *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Submit consome uma unidade de admissão de identifier antes de qualquer
// outra coisa; um retry do chamador passa de novo por aqui.
func (s *Service) Submit(ctx context.Context, identifier string, raw any) (Submission, error) {
	var sub Submission

	if s.Admission != nil {
		dec, err := s.Admission.DecideRoute(ctx, rldomain.Key(identifier), s.Route)
		if err != nil {
			return sub, domain.Internal(fmt.Errorf("admission: %w", err))
		}
		sub.Admission = dec
		if !dec.Allowed {
			s.logger().Info("rate limit exceeded", "client", identifier, "reset_at", dec.ResetAt)
			return sub, domain.RateLimited(dec.ResetAt)
		}
	}

	v := s.Validator
	if v.MaxChars == 0 {
		v = validate.New()
	}
	res := v.Validate(raw)
	if !res.Valid {
		s.logger().Info("validation failed", "client", identifier, "errors", res.Errors)
		return sub, domain.InvalidInput(res)
	}

	if s.Analyzer == nil {
		return sub, domain.Internal(domain.ErrProviderNotConfigured)
	}
	analysis, err := s.Analyzer.Analyze(ctx, raw.(string))
	if err != nil {
		return sub, domain.Classify(err)
	}
	sub.Analysis = analysis
	return sub, nil
}
