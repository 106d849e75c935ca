package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"whitepaper-guard/analysis/domain"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// limite de leitura do corpo da resposta do provedor
const maxProviderBody = 4 << 20

// RESTProvider chama o endpoint generateContent diretamente.
type RESTProvider struct {
	APIKey  string
	ModelID string
	BaseURL string
	Client  *http.Client
}

func (p *RESTProvider) Model() string { return p.ModelID }

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Parts []restPart `json:"parts"`
}

type restGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type restRequest struct {
	Contents         []restContent        `json:"contents"`
	GenerationConfig restGenerationConfig `json:"generationConfig"`
}

// Generate devolve o corpo bruto em caso de 2xx; o envelope é lido depois
// pelo parser. Qualquer outra coisa vira ProviderUnavailable.
func (p *RESTProvider) Generate(ctx context.Context, req domain.GenerationRequest) ([]byte, error) {
	if p.APIKey == "" {
		return nil, domain.Internal(domain.ErrProviderNotConfigured)
	}

	body, err := json.Marshal(restRequest{
		Contents: []restContent{{Parts: []restPart{{Text: req.Prompt}}}},
		GenerationConfig: restGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	})
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("encode provider request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("build provider request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.ProviderTimeout(err)
		}
		return nil, domain.ProviderUnavailable("", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.ProviderTimeout(err)
		}
		return nil, domain.ProviderUnavailable("", fmt.Errorf("read provider response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := providerErrorMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("provider returned HTTP %d", resp.StatusCode)
		}
		return nil, domain.ProviderUnavailable(msg, fmt.Errorf("provider status %d", resp.StatusCode))
	}
	return raw, nil
}

func (p *RESTProvider) endpoint() string {
	base := p.BaseURL
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(p.ModelID) + ":generateContent?key=" + url.QueryEscape(p.APIKey)
}

// providerErrorMessage lê {"error":{"message":...}} quando existe.
func providerErrorMessage(raw []byte) string {
	var body struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) != nil || body.Error == nil {
		return ""
	}
	return body.Error.Message
}
