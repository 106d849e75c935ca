package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"whitepaper-guard/middleware/ratelimit/domain"
)

type countingStore struct {
	counts  map[domain.Key]int
	resetAt time.Time
}

func (s *countingStore) Hit(_ context.Context, key domain.Key, _ time.Duration) (domain.Window, error) {
	if s.counts == nil {
		s.counts = make(map[domain.Key]int)
	}
	s.counts[key]++
	return domain.Window{Count: s.counts[key], ResetAt: s.resetAt}, nil
}

type failingStore struct{}

func (failingStore) Hit(context.Context, domain.Key, time.Duration) (domain.Window, error) {
	return domain.Window{}, errors.New("store down")
}

type recordingStats struct {
	events []domain.StatsEvent
}

func (r *recordingStats) Record(_ context.Context, ev domain.StatsEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{Limit: 10}
	dec, err := svc.Decide(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_AllowsExactlyLimitThenDenies(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := &countingStore{resetAt: now.Add(time.Minute)}
	svc := Service{Store: store, Limit: 3, Window: time.Minute, Now: func() time.Time { return now }}

	wantRemaining := []int{2, 1, 0}
	for i, want := range wantRemaining {
		dec, err := svc.Decide(context.Background(), "1.2.3.4")
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
		if !dec.Allowed {
			t.Fatalf("call %d: expected allowed", i+1)
		}
		if dec.Remaining != want {
			t.Fatalf("call %d: expected remaining=%d, got %d", i+1, want, dec.Remaining)
		}
	}

	for i := 0; i < 2; i++ {
		dec, err := svc.Decide(context.Background(), "1.2.3.4")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dec.Allowed {
			t.Fatalf("expected denied after limit")
		}
		if dec.Remaining != 0 {
			t.Fatalf("expected remaining=0, got %d", dec.Remaining)
		}
		if dec.RetryAfter != time.Minute {
			t.Fatalf("expected RetryAfter=1m, got %s", dec.RetryAfter)
		}
	}
}

func TestService_Decide_PropagatesStoreError(t *testing.T) {
	svc := Service{Store: failingStore{}, Limit: 1}
	if _, err := svc.Decide(context.Background(), "k"); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestService_DecideRoute_RecordsStats(t *testing.T) {
	stats := &recordingStats{}
	store := &countingStore{resetAt: time.Now().Add(time.Minute)}
	svc := Service{Store: store, Stats: stats, Limit: 1, Window: time.Minute}

	_, _ = svc.DecideRoute(context.Background(), "k", "POST /api/analyze")
	_, _ = svc.DecideRoute(context.Background(), "k", "POST /api/analyze")

	if len(stats.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(stats.events))
	}
	if !stats.events[0].Allowed || stats.events[1].Allowed {
		t.Fatalf("expected allowed then denied, got %+v", stats.events)
	}
	if stats.events[0].Route != "POST /api/analyze" {
		t.Fatalf("unexpected route %q", stats.events[0].Route)
	}
}

type failingStats struct{}

func (failingStats) Record(context.Context, domain.StatsEvent) error {
	return errors.New("stats down")
}

func TestService_DecideRoute_LogsStatsFailure(t *testing.T) {
	var buf bytes.Buffer
	svc := Service{
		Store:  &countingStore{resetAt: time.Now().Add(time.Minute)},
		Stats:  failingStats{},
		Limit:  1,
		Window: time.Minute,
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
	}

	dec, err := svc.DecideRoute(context.Background(), "k", "analyze")
	if err != nil || !dec.Allowed {
		t.Fatalf("stats failure must not change the decision, got %+v %v", dec, err)
	}
	if !strings.Contains(buf.String(), "stats down") || !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("expected a warning with the stats error, got %q", buf.String())
	}
}
