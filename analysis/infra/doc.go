// Package infra contém os adaptadores externos da análise.
//
//   - RESTProvider / SDKProvider: provedor generativo (Gemini) via HTTP puro ou SDK
//   - ThrottledProvider: ritmo das chamadas de saída (token bucket)
//   - LoadRubricFile: rubricas versionadas em YAML
//   - Fetcher: busca e extração de texto de documentos (PDF, HTML, texto)
package infra
