package domain

// Camada de domínio do controle de admissão.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

type Key string

// Window é o estado de uma janela fixa para uma chave.
//
// Count só cresce dentro de [início, ResetAt); depois de ResetAt a próxima
// consulta substitui a janela por uma nova (Count = 0).
type Window struct {
	Count   int
	ResetAt time.Time
}

// Expired informa se a janela já passou do seu limite (now > ResetAt).
func (w Window) Expired(now time.Time) bool {
	return now.After(w.ResetAt)
}

// WindowStore mantém uma janela fixa por chave.
//
// Hit incrementa atomicamente o contador da chave (criando uma janela nova se
// não existir ou se estiver expirada) e devolve o estado após o incremento.
// Implementações podem ficar em memória (por processo) ou num contador
// compartilhado (ex: Redis).
type WindowStore interface {
	Hit(ctx context.Context, key Key, window time.Duration) (Window, error)
}

// Decision é o resultado de uma checagem de admissão.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
