package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"whitepaper-guard/analysis/domain"
	"whitepaper-guard/analysis/validate"
	"whitepaper-guard/middleware/ratelimit"
	rldomain "whitepaper-guard/middleware/ratelimit/domain"
)

type analyzeRequest struct {
	Text any `json:"text"`
}

type analyzeResponse struct {
	domain.AnalysisResult
	Timestamp     string `json:"timestamp"`
	RubricVersion string `json:"rubricVersion"`
	Model         string `json:"model"`
	Truncated     bool   `json:"truncated"`
}

type fetchRequest struct {
	URL any `json:"url"`
}

type fetchResponse struct {
	Success     bool   `json:"success"`
	Text        string `json:"text"`
	ContentType string `json:"contentType"`
	Length      int    `json:"length"`
}

// decodeField lê o corpo JSON e devolve o campo pedido sem checar o tipo;
// corpo ilegível vira nil e corpo grande demais vira validate.Oversized.
func decodeField[T any](w http.ResponseWriter, r *http.Request, pick func(T) any) any {
	var body T
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return validate.Oversized{}
		}
		return nil
	}
	return pick(body)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.Analysis == nil {
		s.writeError(w, r, domain.Internal(domain.ErrProviderNotConfigured))
		return
	}
	raw := decodeField(w, r, func(b analyzeRequest) any { return b.Text })

	sub, err := s.Analysis.Submit(r.Context(), s.clientKey(r), raw)
	if sub.Admission.Limit > 0 {
		ratelimit.SetHeaders(w.Header(), sub.Admission)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a := sub.Analysis
	s.logger(r).Info("analysis completed",
		"score", a.Result.RiskScore, "level", a.Result.RiskLevel,
		"rubric", a.RubricVersion, "truncated", a.Truncated)
	writeJSON(w, http.StatusOK, analyzeResponse{
		AnalysisResult: a.Result,
		Timestamp:      timestamp(s.now()),
		RubricVersion:  a.RubricVersion,
		Model:          a.Model,
		Truncated:      a.Truncated,
	})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if s.Fetcher == nil {
		s.writeMessage(w, http.StatusNotFound, "document fetching is not enabled")
		return
	}
	raw := decodeField(w, r, func(b fetchRequest) any { return b.URL })
	if u, ok := raw.(string); ok {
		s.logger(r).Info("fetching document", "url", u)
	}

	doc, err := s.Fetcher.Fetch(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fetchResponse{
		Success:     true,
		Text:        doc.Text,
		ContentType: doc.ContentType,
		Length:      doc.Length,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		s.writeMessage(w, http.StatusNotFound, "admission stats are not enabled")
		return
	}
	snap, err := s.Stats.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, domain.Internal(fmt.Errorf("read admission stats: %w", err)))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func rateLimitedError(dec rldomain.Decision) error {
	return domain.RateLimited(dec.ResetAt)
}

func admissionError(err error) error {
	return domain.Internal(fmt.Errorf("admission: %w", err))
}
