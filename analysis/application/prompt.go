package application

import (
	"strings"
	"unicode/utf8"

	"whitepaper-guard/analysis/domain"
)

// TruncationMarker é anexado quando o texto é cortado, para que o resultado
// não pareça cobrir conteúdo que o provedor não viu.
const TruncationMarker = "\n\n[The text was too long; the remainder was omitted from this analysis]"

// Truncate corta text em maxChars caracteres e anexa TruncationMarker.
func Truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	n := 0
	for pos := range text {
		if n == maxChars {
			return text[:pos] + TruncationMarker, true
		}
		n++
	}
	return text, false
}

const outputFormat = `{
  "riskScore": <integer 0-100>,
  "riskLevel": "high" | "medium" | "low",
  "redFlags": ["specific red flag 1", "specific red flag 2"],
  "warnings": ["point of caution 1", "point of caution 2"],
  "positivePoints": ["positive point 1", "positive point 2"],
  "summary": "overall summary of the analysis (about 200 characters)",
  "recommendations": ["recommended action 1", "recommended action 2"]
}`

// BuildPrompt monta o pedido: papel, documento, formato de saída e rubrica.
func BuildPrompt(document string, rubric domain.Rubric) string {
	var b strings.Builder
	b.WriteString("You are an expert in cryptocurrency fraud. Analyze the following whitepaper and assess the likelihood that it is a scam.\n\n")
	b.WriteString("[Whitepaper to analyze]\n")
	b.WriteString(document)
	b.WriteString("\n\n[Instructions]\n")
	b.WriteString("Respond with a single JSON object in exactly the following format and nothing else. No other explanation is needed.\n\n")
	b.WriteString(outputFormat)
	b.WriteString("\n\n[Evaluation criteria]\n")
	for _, c := range rubric.Criteria {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteByte('\n')
	}
	b.WriteString("\nScore consistently: the same document must receive the same riskScore.")
	return b.String()
}
