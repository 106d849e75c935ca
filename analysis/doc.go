// Package analysis expõe a análise por HTTP:
//
//   - POST /api/analyze: admissão, validação e análise de um whitepaper
//   - POST /api/fetch: busca e extração de texto de uma URL
//   - GET /api/ratelimit/stats: contadores de admissão (backend em memória)
//   - GET /healthz
//
// Toda falha sai como {error, timestamp, details?}; details só aparece em
// modo de diagnóstico.
package analysis
