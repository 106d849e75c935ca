package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão de admissão.
//
// Route é uma string genérica (ex.: "POST /api/analyze" ou "cli analyze"),
// assim o mesmo evento serve para HTTP e para a CLI.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key sem controle pode
// explodir o número de chaves no Redis).
type StatsEvent struct {
	Key       Key
	Allowed   bool
	Remaining int

	Route string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de admissão.
//
// Implementações podem armazenar em Redis, memória, etc.
// Quem chama deve tratar erro como best-effort (não derrubar request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
