package infra

import (
	"context"
	"fmt"

	"whitepaper-guard/analysis/domain"

	"golang.org/x/time/rate"
)

// ThrottledProvider limita o ritmo de chamadas de saída do processo inteiro,
// independente da admissão por cliente. A espera respeita o contexto da
// chamada, então nunca passa do timeout do provedor.
type ThrottledProvider struct {
	next    domain.Provider
	limiter *rate.Limiter
}

// NewThrottledProvider: rps <= 0 desliga o limite.
func NewThrottledProvider(next domain.Provider, rps float64, burst int) domain.Provider {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &ThrottledProvider{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (p *ThrottledProvider) Model() string { return p.next.Model() }

func (p *ThrottledProvider) Generate(ctx context.Context, req domain.GenerationRequest) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		// Wait falha antes do prazo quando a espera necessária já o ultrapassa;
		// para o chamador isso é o mesmo que estourar o timeout.
		if _, ok := ctx.Deadline(); ok || ctx.Err() != nil {
			return nil, domain.ProviderTimeout(fmt.Errorf("throttle: %w", err))
		}
		return nil, domain.ProviderUnavailable("outbound call budget exhausted", fmt.Errorf("throttle: %w", err))
	}
	return p.next.Generate(ctx, req)
}
