package domain

import "context"

// GenerationRequest é uma única chamada ao provedor de texto generativo.
type GenerationRequest struct {
	Prompt          string
	Temperature     float32
	MaxOutputTokens int
}

// Provider é o provedor externo. Generate devolve o envelope bruto da
// resposta (não confiável) ou um erro; implementações devem devolver
// *ClassifiedError (ProviderUnavailable) para falhas de transporte ou
// respostas de erro do provedor.
//
// Cada chamada é exatamente uma requisição de saída: nada de retry aqui.
type Provider interface {
	Generate(ctx context.Context, req GenerationRequest) ([]byte, error)
	Model() string
}
