// Package application orquestra a análise: admissão, validação, chamada ao
// provedor, extração e normalização. Não conhece net/http.
//
// Service.Submit é a porta de entrada (um identificador e o texto bruto);
// Orchestrator.Analyze é a parte que fala com o provedor.
package application
