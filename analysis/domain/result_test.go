package domain

import "testing"

func TestDefaultTiers_Boundaries(t *testing.T) {
	cases := map[int]RiskLevel{
		0:   RiskLow,
		30:  RiskLow,
		31:  RiskMedium,
		50:  RiskMedium,
		70:  RiskMedium,
		71:  RiskHigh,
		100: RiskHigh,
	}
	for score, want := range cases {
		if got := DefaultTiers.Level(score); got != want {
			t.Fatalf("score %d: expected %s, got %s", score, want, got)
		}
	}
}
