// Package validate faz as checagens estruturais e de segurança sobre o texto
// bruto antes de qualquer chamada ao provedor.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"whitepaper-guard/analysis/domain"
)

const (
	MsgRequired      = "text is required"
	MsgTooShort      = "text must be at least 10 characters"
	MsgTooLong       = "text is too long (maximum 100,000 characters)"
	MsgControlChars  = "text contains invalid control characters"
	MsgSuspicious    = "text contains a suspicious pattern"
	defaultMinChars  = 10
	defaultMaxChars  = 100_000
	defaultScanChars = 1_000
)

// verbo SQL destrutivo seguido, na mesma linha, de palavra de tabela/esquema.
var suspiciousPattern = regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE)\b.*\b(TABLE|FROM|INTO)\b`)

// Validator guarda os limites; o valor zero não é útil, use New.
type Validator struct {
	MinChars  int
	MaxChars  int
	ScanChars int
}

func New() Validator {
	return Validator{MinChars: defaultMinChars, MaxChars: defaultMaxChars, ScanChars: defaultScanChars}
}

// Oversized representa um corpo descartado por exceder o limite de leitura
// da borda; é sempre longo demais.
type Oversized struct{}

// Validate acumula todas as falhas. Só a checagem de presença/tipo encerra
// cedo, porque nada mais faz sentido sobre algo que não é string.
// Comprimentos são contados em caracteres (runas), não em bytes.
func (v Validator) Validate(input any) domain.ValidationResult {
	if _, big := input.(Oversized); big {
		return domain.ValidationResult{Valid: false, Errors: []string{MsgTooLong}}
	}
	text, ok := input.(string)
	if !ok || text == "" {
		return domain.ValidationResult{Valid: false, Errors: []string{MsgRequired}}
	}

	var errs []string
	if utf8.RuneCountInString(strings.TrimSpace(text)) < v.MinChars {
		errs = append(errs, MsgTooShort)
	}
	if utf8.RuneCountInString(text) > v.MaxChars {
		errs = append(errs, MsgTooLong)
	}
	if hasControlChars(text) {
		errs = append(errs, MsgControlChars)
	}
	if suspiciousPattern.MatchString(prefix(text, v.ScanChars)) {
		errs = append(errs, MsgSuspicious)
	}

	return domain.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// hasControlChars rejeita C0 e DEL, exceto tab, LF e CR.
func hasControlChars(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}

func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
