package analysis

import (
	"encoding/json"
	"net/http"
	"time"

	"whitepaper-guard/analysis/domain"
)

type errorBody struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
	Details   any    `json:"details,omitempty"`
	ResetTime string `json:"resetTime,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// writeError escreve o erro classificado. Message é sempre seguro; o resto
// só sai com diagnostics ligado.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ce := domain.Classify(err)
	status := domain.HTTPStatus(ce)

	body := errorBody{Error: ce.Message, Timestamp: timestamp(s.now())}
	if ce.Kind == domain.KindRateLimited && !ce.RetryAfter.IsZero() {
		body.ResetTime = timestamp(ce.RetryAfter)
	}
	if s.Diagnostics {
		switch {
		case len(ce.Details) > 0:
			body.Details = ce.Details
		case ce.Detail != "":
			body.Details = ce.Detail
		}
	}

	level := s.logger(r).Info
	if status >= http.StatusInternalServerError {
		level = s.logger(r).Error
	}
	level("request failed", "kind", ce.Kind, "status", status, "detail", ce.Detail)

	writeJSON(w, status, body)
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Timestamp: timestamp(s.now())})
}
