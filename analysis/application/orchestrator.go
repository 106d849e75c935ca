package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"whitepaper-guard/analysis/domain"
	"whitepaper-guard/analysis/normalize"
	"whitepaper-guard/analysis/parse"
)

const (
	DefaultMaxAnalysisChars = 30_000
	DefaultProviderTimeout  = 30 * time.Second
)

// Analysis é o resultado normalizado mais os metadados da chamada.
type Analysis struct {
	Result        domain.AnalysisResult
	RubricVersion string
	Model         string
	Truncated     bool
	// ReportedLevel é o riskLevel que o provedor declarou; só informativo.
	ReportedLevel string
}

// Orchestrator faz exatamente uma chamada ao provedor por Analyze, sem retry.
type Orchestrator struct {
	Provider domain.Provider
	Rubric   domain.Rubric
	Tiers    domain.TierTable
	MaxChars int
	Timeout  time.Duration
	Logger   *slog.Logger
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Analyze falha com ProviderUnavailable, ProviderMalformed ou Internal
// (provedor não configurado); nunca inventa um resultado.
func (o *Orchestrator) Analyze(ctx context.Context, text string) (Analysis, error) {
	if o.Provider == nil {
		return Analysis{}, domain.Internal(domain.ErrProviderNotConfigured)
	}
	rubric := o.Rubric
	if rubric.Version == "" {
		rubric = domain.BuiltinRubrics[domain.DefaultRubricVersion]
	}
	tiers := o.Tiers
	if tiers.Version == "" {
		tiers = domain.DefaultTiers
	}
	maxChars := o.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxAnalysisChars
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	doc, truncated := Truncate(strings.TrimSpace(text), maxChars)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	raw, err := o.Provider.Generate(callCtx, domain.GenerationRequest{
		Prompt:          BuildPrompt(doc, rubric),
		Temperature:     rubric.Temperature,
		MaxOutputTokens: rubric.MaxOutputTokens,
	})
	if err != nil {
		ce := classifyProviderError(callCtx, err)
		o.logger().Warn("provider call failed",
			"kind", ce.Kind, "timeout", ce.Timeout, "detail", ce.Detail,
			"model", o.Provider.Model(), "elapsed", time.Since(started))
		return Analysis{}, ce
	}

	obj, err := parse.Parse(raw)
	if err != nil {
		ce := domain.Classify(err)
		o.logger().Warn("provider response unreadable", "detail", ce.Detail, "model", o.Provider.Model())
		return Analysis{}, ce
	}

	res := normalize.NormalizeWith(obj, tiers)
	reported := normalize.ReportedLevel(obj)
	if reported != "" && reported != string(res.RiskLevel) {
		o.logger().Info("provider risk level overridden",
			"reported", reported, "computed", res.RiskLevel, "score", res.RiskScore)
	}

	return Analysis{
		Result:        res,
		RubricVersion: rubric.Version,
		Model:         o.Provider.Model(),
		Truncated:     truncated,
		ReportedLevel: reported,
	}, nil
}

func classifyProviderError(callCtx context.Context, err error) *domain.ClassifiedError {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ProviderTimeout(err)
	}
	var ce *domain.ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return domain.ProviderUnavailable("", err)
}
