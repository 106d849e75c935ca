// Package ratelimit fornece adapters HTTP (net/http) para controle de admissão
// por janela fixa e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa em memória/Redis, semáforo, stats)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo:
//
//  1. Extrai o identificador do cliente (header/XFF/X-Real-IP/RemoteAddr)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 (admissão) ou 503 (concorrência)
//  4. Se permitido, chama o próximo handler
//
// O limite é por processo com MemoryWindowStore; com várias instâncias use
// RedisWindowStore para um contador compartilhado.
package ratelimit
