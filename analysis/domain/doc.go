// Package domain define os tipos da análise de risco de documentos: o
// resultado normalizado, a tabela de faixas de risco, rubricas versionadas,
// o contrato com o provedor de texto generativo e a classificação de erros.
//
// Não depende de net/http nem de SDKs de provedor.
package domain
