package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"whitepaper-guard/analysis/domain"
	"whitepaper-guard/analysis/normalize"
)

const goodReply = `Here is my analysis:
{"riskScore": 85, "riskLevel": "low", "redFlags": ["guaranteed 300% APY"], "summary": "High risk."}
Hope this helps.`

func TestOrchestrator_Analyze_NormalizesAndOverridesLevel(t *testing.T) {
	p := &fakeProvider{reply: goodReply}
	o := &Orchestrator{Provider: p}

	got, err := o.Analyze(context.Background(), "  a whitepaper promising returns  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Result.RiskScore != 85 || got.Result.RiskLevel != domain.RiskHigh {
		t.Fatalf("expected 85/high, got %d/%s", got.Result.RiskScore, got.Result.RiskLevel)
	}
	if got.ReportedLevel != "low" {
		t.Fatalf("expected reported level to be kept for logs, got %q", got.ReportedLevel)
	}
	if got.Result.Warnings == nil || len(got.Result.Warnings) != 0 {
		t.Fatalf("expected defaulted warnings, got %#v", got.Result.Warnings)
	}
	if got.RubricVersion != domain.DefaultRubricVersion || got.Model != "fake-model" {
		t.Fatalf("unexpected metadata %+v", got)
	}
	if got.Truncated {
		t.Fatalf("did not expect truncation")
	}
}

func TestOrchestrator_Analyze_OneCallWithRubricParams(t *testing.T) {
	p := &fakeProvider{reply: goodReply}
	rubric := domain.BuiltinRubrics["v1"]
	o := &Orchestrator{Provider: p, Rubric: rubric}

	if _, err := o.Analyze(context.Background(), "document body text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.callCount() != 1 {
		t.Fatalf("expected exactly one provider call, got %d", p.callCount())
	}
	req := p.calls[0]
	if req.Temperature != rubric.Temperature || req.MaxOutputTokens != rubric.MaxOutputTokens {
		t.Fatalf("expected rubric generation params, got %+v", req)
	}
	if !strings.Contains(req.Prompt, "document body text") {
		t.Fatalf("expected document verbatim in prompt")
	}
	for _, c := range rubric.Criteria {
		if !strings.Contains(req.Prompt, c) {
			t.Fatalf("expected criterion %q in prompt", c)
		}
	}
	if !strings.Contains(req.Prompt, `"recommendations"`) {
		t.Fatalf("expected output format in prompt")
	}
}

func TestOrchestrator_Analyze_TruncatesWithMarker(t *testing.T) {
	p := &fakeProvider{reply: goodReply}
	o := &Orchestrator{Provider: p, MaxChars: 20}

	text := strings.Repeat("a", 20) + "TAIL-NOT-SEEN"
	got, err := o.Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Truncated {
		t.Fatalf("expected truncated=true")
	}
	prompt := p.calls[0].Prompt
	if strings.Contains(prompt, "TAIL-NOT-SEEN") {
		t.Fatalf("expected tail to be cut from prompt")
	}
	if !strings.Contains(prompt, TruncationMarker) {
		t.Fatalf("expected truncation marker in prompt")
	}
}

func TestTruncate_CountsCharacters(t *testing.T) {
	out, cut := Truncate("詐欺詐欺", 4)
	if cut || out != "詐欺詐欺" {
		t.Fatalf("expected untouched text, got %q/%v", out, cut)
	}
	out, cut = Truncate("詐欺詐欺", 2)
	if !cut || out != "詐欺"+TruncationMarker {
		t.Fatalf("unexpected truncation %q/%v", out, cut)
	}
}

func TestOrchestrator_Analyze_ProviderErrorsAreUnavailable(t *testing.T) {
	p := &fakeProvider{err: errors.New("connection refused")}
	o := &Orchestrator{Provider: p}

	_, err := o.Analyze(context.Background(), "document body text")
	ce := domain.Classify(err)
	if ce.Kind != domain.KindProviderUnavailable || ce.Timeout {
		t.Fatalf("expected ProviderUnavailable, got %#v", ce)
	}
	if ce.Detail != "connection refused" {
		t.Fatalf("expected transport message in detail, got %q", ce.Detail)
	}
}

func TestOrchestrator_Analyze_KeepsProviderReportedMessage(t *testing.T) {
	p := &fakeProvider{err: domain.ProviderUnavailable("API key not valid", nil)}
	o := &Orchestrator{Provider: p}

	_, err := o.Analyze(context.Background(), "document body text")
	if ce := domain.Classify(err); ce.Detail != "API key not valid" {
		t.Fatalf("expected provider message, got %#v", ce)
	}
}

func TestOrchestrator_Analyze_TimeoutIsBounded(t *testing.T) {
	p := &fakeProvider{block: true}
	o := &Orchestrator{Provider: p, Timeout: 20 * time.Millisecond}

	started := time.Now()
	_, err := o.Analyze(context.Background(), "document body text")
	if time.Since(started) > time.Second {
		t.Fatalf("expected analyze to return promptly after timeout")
	}
	ce := domain.Classify(err)
	if ce.Kind != domain.KindProviderUnavailable || !ce.Timeout {
		t.Fatalf("expected timeout ProviderUnavailable, got %#v", ce)
	}
}

func TestOrchestrator_Analyze_MalformedNeverFabricatesResult(t *testing.T) {
	p := &fakeProvider{reply: "Sorry, I can't help with that."}
	o := &Orchestrator{Provider: p}

	got, err := o.Analyze(context.Background(), "document body text")
	if domain.KindOf(err) != domain.KindProviderMalformed {
		t.Fatalf("expected ProviderMalformed, got %v", err)
	}
	if got.Result.Summary != "" || got.Result.RiskLevel != "" {
		t.Fatalf("expected zero result on failure, got %+v", got.Result)
	}
}

func TestOrchestrator_Analyze_BrokenEnvelope(t *testing.T) {
	p := &fakeProvider{raw: []byte(`{"candidates":[{"content":{}}]}`)}
	o := &Orchestrator{Provider: p}

	_, err := o.Analyze(context.Background(), "document body text")
	if domain.KindOf(err) != domain.KindProviderMalformed {
		t.Fatalf("expected ProviderMalformed, got %v", err)
	}
}

func TestOrchestrator_Analyze_NoProviderIsInternal(t *testing.T) {
	_, err := (&Orchestrator{}).Analyze(context.Background(), "document body text")
	ce := domain.Classify(err)
	if ce.Kind != domain.KindInternal || !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Fatalf("expected not-configured Internal, got %#v", ce)
	}
}

func TestOrchestrator_Analyze_EmptyObjectGetsDefaults(t *testing.T) {
	p := &fakeProvider{reply: "{}"}
	got, err := (&Orchestrator{Provider: p}).Analyze(context.Background(), "document body text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Result.RiskScore != normalize.DefaultScore || got.Result.Summary != normalize.DefaultSummary {
		t.Fatalf("expected defaults, got %+v", got.Result)
	}
}
