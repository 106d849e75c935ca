package application

import (
	"context"
	"encoding/json"
	"sync"

	"whitepaper-guard/analysis/domain"
)

type fakeProvider struct {
	mu    sync.Mutex
	reply string
	raw   []byte
	err   error
	block bool
	calls []domain.GenerationRequest
}

func (p *fakeProvider) Model() string { return "fake-model" }

func (p *fakeProvider) Generate(ctx context.Context, req domain.GenerationRequest) ([]byte, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()

	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.raw != nil {
		return p.raw, nil
	}
	return envelopeOf(p.reply), nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func envelopeOf(text string) []byte {
	raw, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return raw
}
