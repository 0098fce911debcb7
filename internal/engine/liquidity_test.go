package engine

import (
	"strings"
	"testing"

	"VolPulse/internal/domain/models"
)

func TestLiquidityFilter(t *testing.T) {
	f := NewLiquidityFilter()

	tests := []struct {
		name   string
		quote  models.Quote
		pass   bool
		reason string
	}{
		{
			name:  "liquid quote passes",
			quote: models.Quote{Volume: 1000, OpenInterest: 5000, Bid: 145, Ask: 155},
			pass:  true,
		},
		{
			name:   "volume below minimum",
			quote:  models.Quote{Volume: 100, OpenInterest: 5000, Bid: 145, Ask: 155},
			pass:   false,
			reason: "volume too low",
		},
		{
			name:   "open interest below minimum",
			quote:  models.Quote{Volume: 1000, OpenInterest: 500, Bid: 145, Ask: 155},
			pass:   false,
			reason: "open interest too low",
		},
		{
			name:   "spread too wide",
			quote:  models.Quote{Volume: 1000, OpenInterest: 5000, Bid: 100, Ask: 155},
			pass:   false,
			reason: "spread too wide",
		},
		{
			name:  "zero ask skips spread check",
			quote: models.Quote{Volume: 1000, OpenInterest: 5000, Bid: 0, Ask: 0},
			pass:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, reason := f.Check(tt.quote)
			if pass != tt.pass {
				t.Fatalf("pass = %v (%s), want %v", pass, reason, tt.pass)
			}
			if tt.reason != "" && !strings.Contains(reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", reason, tt.reason)
			}
		})
	}
}

func TestLiquidityFilterOptions(t *testing.T) {
	f := NewLiquidityFilter(WithMinVolume(10), WithMinOpenInterest(20), WithMaxSpreadPct(0.5))

	q := models.Quote{Volume: 15, OpenInterest: 25, Bid: 60, Ask: 100}
	if pass, reason := f.Check(q); !pass {
		t.Fatalf("relaxed thresholds should pass: %s", reason)
	}
}
