package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"whitepaper-guard/analysis/domain"

	"google.golang.org/genai"
)

// SDKProvider usa o cliente oficial. A resposta é serializada de volta para
// o formato de envelope, assim o parser é o mesmo dos dois backends.
type SDKProvider struct {
	client *genai.Client
	model  string
}

// NewSDKProvider cria o cliente para a Gemini API. baseURL vazio usa o padrão.
func NewSDKProvider(ctx context.Context, apiKey, model, baseURL string) (*SDKProvider, error) {
	if apiKey == "" {
		return nil, domain.ErrProviderNotConfigured
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &SDKProvider{client: client, model: model}, nil
}

func (p *SDKProvider) Model() string { return p.model }

func (p *SDKProvider) Generate(ctx context.Context, req domain.GenerationRequest) ([]byte, error) {
	content := genai.NewContentFromText(req.Prompt, genai.RoleUser)
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, []*genai.Content{content}, cfg)
	if err != nil {
		return nil, classifySDKError(ctx, err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("encode provider response: %w", err))
	}
	return raw, nil
}

func classifySDKError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ProviderTimeout(err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.ProviderUnavailable(apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return domain.ProviderUnavailable(apiErrPtr.Message, err)
	}
	return domain.ProviderUnavailable("", err)
}
