// Package parse extrai o objeto estruturado da resposta do provedor.
//
// São duas fases: abrir o envelope (candidates[0].content.parts[0].text) e,
// dentro do texto, pegar do primeiro '{' ao último '}' e decodificar só esse
// trecho. Não há recuperação parcial: qualquer nível faltando no envelope ou
// JSON inválido vira ProviderMalformed.
package parse

import (
	"encoding/json"
	"strings"

	"whitepaper-guard/analysis/domain"
)

// ExcerptChars limita quanto do texto ruim vai para o diagnóstico.
const ExcerptChars = 200

// Object é o objeto decodificado, sem nenhuma garantia de campos ou tipos.
type Object map[string]any

// envelope usa ponteiros para distinguir "ausente" de "vazio".
type envelope struct {
	Candidates []*struct {
		Content *struct {
			Parts []*struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Parse abre o envelope bruto e extrai o objeto embutido no texto gerado.
func Parse(raw []byte) (Object, error) {
	text, err := Unwrap(raw)
	if err != nil {
		return nil, err
	}
	return Extract(text)
}

// Unwrap devolve o texto do primeiro fragmento gerado.
func Unwrap(raw []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", domain.ProviderMalformed("invalid response envelope", domain.Excerpt(string(raw), ExcerptChars), err)
	}

	switch {
	case len(env.Candidates) == 0 || env.Candidates[0] == nil:
		return "", malformedEnvelope("missing candidates", raw)
	case env.Candidates[0].Content == nil:
		return "", malformedEnvelope("missing candidate content", raw)
	case len(env.Candidates[0].Content.Parts) == 0 || env.Candidates[0].Content.Parts[0] == nil:
		return "", malformedEnvelope("missing content parts", raw)
	case env.Candidates[0].Content.Parts[0].Text == nil:
		return "", malformedEnvelope("missing part text", raw)
	}
	return *env.Candidates[0].Content.Parts[0].Text, nil
}

func malformedEnvelope(reason string, raw []byte) error {
	return domain.ProviderMalformed(reason, domain.Excerpt(string(raw), ExcerptChars), nil)
}

// Extract procura o primeiro '{' e o último '}' e decodifica o que está entre
// eles. Prosa antes ou depois do objeto é tolerada.
func Extract(text string) (Object, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, domain.ProviderMalformed("no JSON object found in response", domain.Excerpt(text, ExcerptChars), nil)
	}

	candidate := text[start : end+1]
	var obj Object
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, domain.ProviderMalformed("invalid JSON object in response", domain.Excerpt(candidate, ExcerptChars), err)
	}
	return obj, nil
}
