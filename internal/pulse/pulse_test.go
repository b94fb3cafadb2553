package pulse_test

import (
	"testing"
	"time"

	"pulso/internal/pulse"
)

var now = time.Date(2025, 6, 14, 23, 30, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func TestClassifyStaleOverridesScore(t *testing.T) {
	// 5 hours old: stale no matter how hot the raw numbers look.
	c := pulse.Classify(3, 3, ago(5*time.Hour), now)
	if !c.Stale {
		t.Fatalf("expected stale classification, got %+v", c)
	}
	if c.Tier != pulse.TierOld {
		t.Errorf("stale data must map to the old tier, got %s", c.Tier)
	}
}

func TestClassifyNoTimestamp(t *testing.T) {
	c := pulse.Classify(2, 2, nil, now)
	if !c.Stale || c.Tier != pulse.TierOld {
		t.Errorf("missing timestamp should classify stale/old, got %+v", c)
	}
	if c.Label == "" {
		t.Errorf("expected a no-data label")
	}
}

func TestClassifyTiers(t *testing.T) {
	tests := []struct {
		name       string
		crowd, vib float64
		want       pulse.Tier
	}{
		{"fresh and packed", 2.5, 2.5, pulse.TierPulsing}, // 0.6*2.5+0.4*2.5 = 2.5 > 2.3
		{"busy", 2.0, 1.5, pulse.TierBusy},                // 1.8
		{"calm", 1.0, 1.0, pulse.TierCalm},                // 1.0
		{"crowd carries score", 3.0, 2.0, pulse.TierPulsing}, // 2.6
		{"vibe alone is not enough", 1.5, 3.0, pulse.TierBusy}, // 2.1
		{"all zero is old", 0, 0, pulse.TierOld},
	}
	for _, tt := range tests {
		c := pulse.Classify(tt.crowd, tt.vib, ago(10*time.Minute), now)
		if c.Stale {
			t.Errorf("%s: 10-minute-old data must not be stale", tt.name)
		}
		if c.Tier != tt.want {
			t.Errorf("%s: expected tier %s, got %s", tt.name, tt.want, c.Tier)
		}
	}
}

func TestClassifyLabels(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "agora mesmo"},
		{45 * time.Minute, "atualizado há menos de 1h"},
		{2 * time.Hour, "atualizado há mais de 1h"},
	}
	for _, tt := range tests {
		c := pulse.Classify(1, 1, ago(tt.age), now)
		if c.Label != tt.want {
			t.Errorf("age %s: expected label %q, got %q", tt.age, tt.want, c.Label)
		}
	}
}
