package domain

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Kind é a categoria externa de uma falha.
type Kind string

const (
	KindRateLimited         Kind = "RateLimited"
	KindInvalidInput        Kind = "InvalidInput"
	KindProviderUnavailable Kind = "ProviderUnavailable"
	KindProviderMalformed   Kind = "ProviderMalformed"
	// KindUpstreamFailed é a falha do servidor de onde um documento é baixado,
	// separada do provedor de análise.
	KindUpstreamFailed      Kind = "UpstreamFailed"
	KindInternal            Kind = "Internal"
)

// ErrProviderNotConfigured indica que não há credencial para o provedor.
var ErrProviderNotConfigured = errors.New("analysis provider is not configured")

// ClassifiedError é criado no ponto da falha e chega à borda sem alterações.
//
// Message é sempre seguro para o chamador. Detail e Details são diagnóstico
// e só devem sair da borda em modo não-produção.
type ClassifiedError struct {
	Kind    Kind
	Message string
	Detail  string
	Details []string
	// RetryAfter é o fim da janela de admissão (só para KindRateLimited).
	RetryAfter time.Time
	// Timeout marca um ProviderUnavailable ou UpstreamFailed causado por
	// prazo esgotado.
	Timeout bool
	Err     error
}

func (e *ClassifiedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return string(e.Kind) + ": " + e.Message + ": " + e.Detail
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *ClassifiedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func RateLimited(resetAt time.Time) *ClassifiedError {
	return &ClassifiedError{
		Kind:       KindRateLimited,
		Message:    "too many requests, please retry later",
		RetryAfter: resetAt,
	}
}

func InvalidInput(v ValidationResult) *ClassifiedError {
	msg := v.First()
	if msg == "" {
		msg = "invalid input"
	}
	return &ClassifiedError{
		Kind:    KindInvalidInput,
		Message: msg,
		Details: append([]string(nil), v.Errors...),
	}
}

// ProviderUnavailable carrega a mensagem reportada pelo provedor em Detail.
func ProviderUnavailable(providerMessage string, err error) *ClassifiedError {
	if providerMessage == "" && err != nil {
		providerMessage = err.Error()
	}
	return &ClassifiedError{
		Kind:    KindProviderUnavailable,
		Message: "failed to communicate with the analysis service",
		Detail:  providerMessage,
		Err:     err,
	}
}

func ProviderTimeout(err error) *ClassifiedError {
	e := ProviderUnavailable("", err)
	e.Message = "the analysis service did not respond in time"
	e.Timeout = true
	return e
}

// ProviderMalformed carrega em Detail só um trecho do texto recebido.
func ProviderMalformed(reason, excerpt string, err error) *ClassifiedError {
	detail := reason
	if excerpt != "" {
		detail += ": " + excerpt
	}
	return &ClassifiedError{
		Kind:    KindProviderMalformed,
		Message: "the analysis service returned an unreadable response",
		Detail:  detail,
		Err:     err,
	}
}

// UpstreamFailed descreve um documento remoto que não pôde ser baixado;
// status é o status HTTP devolvido pelo servidor remoto.
func UpstreamFailed(status, target string) *ClassifiedError {
	return &ClassifiedError{
		Kind:    KindUpstreamFailed,
		Message: "failed to fetch the document: " + status,
		Detail:  target,
	}
}

func UpstreamTimeout(err error) *ClassifiedError {
	e := &ClassifiedError{
		Kind:    KindUpstreamFailed,
		Message: "the document server did not respond in time",
		Timeout: true,
		Err:     err,
	}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

func Internal(err error) *ClassifiedError {
	e := &ClassifiedError{
		Kind:    KindInternal,
		Message: "an error occurred during analysis",
		Err:     err,
	}
	if err != nil {
		e.Detail = err.Error()
	}
	if errors.Is(err, ErrProviderNotConfigured) {
		e.Message = "the service is not configured correctly"
	}
	return e
}

// Classify mapeia qualquer erro para exatamente um ClassifiedError.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ProviderTimeout(err)
	}
	return Internal(err)
}

// KindOf devolve o Kind de err, ou "" para nil.
func KindOf(err error) Kind {
	if ce := Classify(err); ce != nil {
		return ce.Kind
	}
	return ""
}

func HTTPStatus(e *ClassifiedError) int {
	if e == nil {
		return http.StatusOK
	}
	switch e.Kind {
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindProviderUnavailable:
		if e.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	case KindProviderMalformed:
		return http.StatusBadGateway
	case KindUpstreamFailed:
		if e.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Excerpt devolve no máximo n runas de s, marcando o corte com "...".
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}
