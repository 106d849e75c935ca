// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryWindowStore: janela fixa por chave em memória, com janitor
//   - RedisWindowStore: janela fixa compartilhada entre instâncias (INCR + PEXPIRE)
//   - MemoryStatsStore / RedisStatsStore: estatísticas de admissão
//   - ChanPool: semáforo simples para limite de concorrência
package infra
