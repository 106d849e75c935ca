// Package normalize transforma o objeto vindo do provedor no AnalysisResult
// final. É uma função pura: não falha e não guarda estado.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"whitepaper-guard/analysis/domain"
)

const (
	DefaultScore   = 50
	DefaultSummary = "Analysis completed."
)

// Normalize aplica os defaults campo a campo e recalcula o RiskLevel com a
// tabela DefaultTiers. O riskLevel informado pelo provedor é ignorado.
func Normalize(obj map[string]any) domain.AnalysisResult {
	return NormalizeWith(obj, domain.DefaultTiers)
}

func NormalizeWith(obj map[string]any, tiers domain.TierTable) domain.AnalysisResult {
	score := scoreOf(obj["riskScore"])
	return domain.AnalysisResult{
		RiskScore:       score,
		RiskLevel:       tiers.Level(score),
		RedFlags:        stringsOf(obj["redFlags"]),
		Warnings:        stringsOf(obj["warnings"]),
		PositivePoints:  stringsOf(obj["positivePoints"]),
		Summary:         summaryOf(obj["summary"]),
		Recommendations: stringsOf(obj["recommendations"]),
	}
}

// ReportedLevel devolve o riskLevel que o provedor declarou, só para log.
func ReportedLevel(obj map[string]any) string {
	s, _ := obj["riskLevel"].(string)
	return strings.ToLower(strings.TrimSpace(s))
}

// scoreOf aceita número JSON ou string numérica; arredonda e prende em [0,100].
func scoreOf(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return DefaultScore
		}
		f = parsed
	default:
		return DefaultScore
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultScore
	}
	return int(math.Round(min(100, max(0, f))))
}

// stringsOf mantém só os itens string não vazios; nunca devolve nil.
func stringsOf(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, it := range items {
		if s, ok := it.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func summaryOf(v any) string {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return DefaultSummary
}
