package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"whitepaper-guard/analysis/domain"
	"whitepaper-guard/analysis/validate"
	rlapp "whitepaper-guard/middleware/ratelimit/application"
	rldomain "whitepaper-guard/middleware/ratelimit/domain"
	rlinfra "whitepaper-guard/middleware/ratelimit/infra"
)

type brokenAdmitter struct{}

func (brokenAdmitter) DecideRoute(context.Context, rldomain.Key, string) (rldomain.Decision, error) {
	return rldomain.Decision{}, errors.New("redis down")
}

func newService(p *fakeProvider, limit int) *Service {
	return &Service{
		Admission: rlapp.Service{Store: rlinfra.NewMemoryWindowStore(), Limit: limit, Window: time.Minute},
		Analyzer:  &Orchestrator{Provider: p},
		Route:     "analyze",
	}
}

func TestService_Submit_EleventhCallIsRateLimited(t *testing.T) {
	p := &fakeProvider{reply: goodReply}
	svc := newService(p, 10)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		sub, err := svc.Submit(ctx, "1.2.3.4", "a perfectly ordinary whitepaper")
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if sub.Admission.Remaining != 10-i {
			t.Fatalf("call %d: expected remaining %d, got %d", i, 10-i, sub.Admission.Remaining)
		}
	}

	now := time.Now()
	sub, err := svc.Submit(ctx, "1.2.3.4", "a perfectly ordinary whitepaper")
	ce := domain.Classify(err)
	if ce == nil || ce.Kind != domain.KindRateLimited {
		t.Fatalf("expected RateLimited on 11th call, got %v", err)
	}
	if sub.Admission.Allowed || sub.Admission.Remaining != 0 {
		t.Fatalf("expected allowed=false remaining=0, got %+v", sub.Admission)
	}
	if sub.Admission.ResetAt.Before(now) || !ce.RetryAfter.Equal(sub.Admission.ResetAt) {
		t.Fatalf("expected resetAt >= now carried in error, got %v / %v", sub.Admission.ResetAt, ce.RetryAfter)
	}
	if p.callCount() != 10 {
		t.Fatalf("expected the denied call to skip the provider, got %d calls", p.callCount())
	}
	if domain.HTTPStatus(ce) != 429 {
		t.Fatalf("expected 429, got %d", domain.HTTPStatus(ce))
	}
}

func TestService_Submit_IdentifiersAreIndependent(t *testing.T) {
	p := &fakeProvider{reply: goodReply}
	svc := newService(p, 1)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "1.2.3.4", "a perfectly ordinary whitepaper"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Submit(ctx, "1.2.3.4", "a perfectly ordinary whitepaper"); domain.KindOf(err) != domain.KindRateLimited {
		t.Fatalf("expected second call of same client to be limited, got %v", err)
	}
	if _, err := svc.Submit(ctx, "5.6.7.8", "a perfectly ordinary whitepaper"); err != nil {
		t.Fatalf("expected other client to be admitted, got %v", err)
	}
}

func TestService_Submit_InvalidInputConsumesAdmissionButNotProvider(t *testing.T) {
	p := &fakeProvider{reply: goodReply}
	svc := newService(p, 10)

	sub, err := svc.Submit(context.Background(), "1.2.3.4", "short")
	ce := domain.Classify(err)
	if ce.Kind != domain.KindInvalidInput || ce.Message != validate.MsgTooShort {
		t.Fatalf("expected too-short InvalidInput, got %#v", ce)
	}
	if sub.Admission.Remaining != 9 {
		t.Fatalf("expected admission to be consumed, got remaining %d", sub.Admission.Remaining)
	}
	if p.callCount() != 0 {
		t.Fatalf("expected no provider call")
	}
}

func TestService_Submit_NonStringInput(t *testing.T) {
	p := &fakeProvider{reply: goodReply}
	svc := newService(p, 10)

	for _, raw := range []any{nil, 42, map[string]any{"text": "x"}} {
		_, err := svc.Submit(context.Background(), "1.2.3.4", raw)
		ce := domain.Classify(err)
		if ce.Kind != domain.KindInvalidInput || ce.Message != validate.MsgRequired {
			t.Fatalf("input %#v: expected required error, got %#v", raw, ce)
		}
	}
}

func TestService_Submit_AccumulatesValidationDetails(t *testing.T) {
	svc := newService(&fakeProvider{reply: goodReply}, 10)

	_, err := svc.Submit(context.Background(), "1.2.3.4", "DROP TABLE\x00")
	ce := domain.Classify(err)
	if ce.Kind != domain.KindInvalidInput {
		t.Fatalf("expected InvalidInput, got %#v", ce)
	}
	if len(ce.Details) < 2 {
		t.Fatalf("expected every failed check in details, got %v", ce.Details)
	}
}

func TestService_Submit_AdmissionFailureIsInternal(t *testing.T) {
	svc := &Service{Admission: brokenAdmitter{}, Analyzer: &Orchestrator{Provider: &fakeProvider{reply: goodReply}}}

	_, err := svc.Submit(context.Background(), "1.2.3.4", "a perfectly ordinary whitepaper")
	if domain.KindOf(err) != domain.KindInternal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestService_Submit_NoAnalyzerIsInternal(t *testing.T) {
	svc := &Service{}
	_, err := svc.Submit(context.Background(), "1.2.3.4", "a perfectly ordinary whitepaper")
	if !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Fatalf("expected not-configured error, got %v", err)
	}
}

func TestService_Submit_ReturnsAnalysis(t *testing.T) {
	svc := newService(&fakeProvider{reply: goodReply}, 10)

	sub, err := svc.Submit(context.Background(), "1.2.3.4", "a perfectly ordinary whitepaper")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sub.Admission.Allowed || sub.Analysis.Result.RiskLevel != domain.RiskHigh {
		t.Fatalf("unexpected submission %+v", sub)
	}
}
