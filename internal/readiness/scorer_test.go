package readiness

import (
	"testing"
	"time"

	"github.com/claude/vitalfusion/internal/fusionconfig"
)

func defaultReadinessConfig() fusionconfig.ReadinessConfig {
	return fusionconfig.ReadinessConfig{
		Enabled: true,
		Components: []fusionconfig.ReadinessComponent{
			{Name: ComponentHRVVsBaseline, Weight: 0.30},
			{Name: ComponentRHRVsBaseline, Weight: 0.20},
			{Name: ComponentSleepQuality, Weight: 0.25},
			{Name: ComponentSleepConsistency, Weight: 0.10},
			{Name: ComponentRecoveryTime, Weight: 0.15},
		},
		ThrivingThreshold: 80,
		WatchThreshold:    60,
	}
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

// TestSigmoidAtMeanYieldsHalf verifies testable property 9 (§8): input
// equal to baseline mean yields a score of exactly 0.5.
func TestSigmoidAtMeanYieldsHalf(t *testing.T) {
	baseline := []float64{50, 52, 48, 51, 49, 50, 50}
	mean, _ := meanAndStd(baseline)
	in := Inputs{TodayHRVMs: f64(mean), BaselineHRVMs: baseline}
	raw, available, _ := scoreHRVVsBaseline(in)
	if !available {
		t.Fatal("expected component to be available")
	}
	if raw != 0.5 {
		t.Errorf("raw = %v, want exactly 0.5", raw)
	}
}

// TestHRVBaselineBelowMinimumUnavailable verifies the boundary behavior:
// fewer than 7 baseline readings marks the component unavailable.
func TestHRVBaselineBelowMinimumUnavailable(t *testing.T) {
	in := Inputs{TodayHRVMs: f64(55), BaselineHRVMs: []float64{50, 51, 52}}
	_, available, _ := scoreHRVVsBaseline(in)
	if available {
		t.Error("expected component to be unavailable with < 7 baseline readings")
	}
}

// TestSleepConsistencyBelowMinimumUnavailable verifies the boundary
// behavior: 2 or fewer sleep starts marks the component unavailable.
func TestSleepConsistencyBelowMinimumUnavailable(t *testing.T) {
	in := Inputs{RecentSleepStarts: []time.Time{
		time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 23, 10, 0, 0, time.UTC),
	}}
	_, available, _ := scoreSleepConsistency(in)
	if available {
		t.Error("expected component to be unavailable with < 3 sleep starts")
	}
}

// TestRecoveryTimeDiscreteLookup verifies the discrete recovery-time table.
func TestRecoveryTimeDiscreteLookup(t *testing.T) {
	cases := map[int]float64{0: 0.3, 1: 0.5, 2: 0.75, 3: 0.9, 4: 1.0, 10: 1.0}
	for days, want := range cases {
		raw, available, _ := scoreRecoveryTime(Inputs{DaysSinceHardWorkout: intp(days)})
		if !available {
			t.Errorf("days=%d: expected available", days)
		}
		if raw != want {
			t.Errorf("days=%d: raw = %v, want %v", days, raw, want)
		}
	}
}

// TestRecoveryTimeNilInputUsesDefaultButUnavailable verifies the
// unavailable-but-loggable contract for missing workout data.
func TestRecoveryTimeNilInputUsesDefaultButUnavailable(t *testing.T) {
	raw, available, _ := scoreRecoveryTime(Inputs{})
	if available {
		t.Error("expected component to be marked unavailable")
	}
	if raw != 0.7 {
		t.Errorf("raw = %v, want 0.7", raw)
	}
}

// TestComputeScoreInRangeAndBand verifies invariant 8 (§8): the score is
// an integer in [0,100] and the band is exactly one of the three labels.
func TestComputeScoreInRangeAndBand(t *testing.T) {
	cfg := defaultReadinessConfig()
	in := Inputs{
		TodayHRVMs:           f64(58),
		BaselineHRVMs:        []float64{50, 51, 52, 53, 49, 50, 51},
		TodayRHRBPM:          f64(50),
		BaselineRHRBPM:       []float64{55, 56, 54, 55, 57, 55, 56},
		SleepTotalMinutes:    f64(440),
		SleepDeepMinutes:     f64(90),
		SleepEfficiencyPct:   f64(92),
		RecentSleepStarts: []time.Time{
			time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 2, 23, 5, 0, 0, time.UTC),
			time.Date(2026, 1, 3, 22, 58, 0, 0, time.UTC),
		},
		DaysSinceHardWorkout: intp(2),
	}
	score := Compute(cfg, "subject-1", time.Now(), in)
	if score.Score < 0 || score.Score > 100 {
		t.Errorf("score = %d, outside [0,100]", score.Score)
	}
	switch score.Band {
	case "thriving", "watch", "concern":
	default:
		t.Errorf("band = %q, not one of thriving/watch/concern", score.Band)
	}
}

// TestComputeAllUnavailableReturnsWatchFifty verifies the empty-availability
// fallback.
func TestComputeAllUnavailableReturnsWatchFifty(t *testing.T) {
	cfg := defaultReadinessConfig()
	score := Compute(cfg, "subject-1", time.Now(), Inputs{})
	if score.Score != 50 {
		t.Errorf("score = %d, want 50", score.Score)
	}
	if score.Band != "watch" {
		t.Errorf("band = %q, want watch", score.Band)
	}
	if score.Available {
		t.Error("expected available = false")
	}
}

// TestComputeZeroWeightComponentsStayAvailable verifies that components
// being available but all configured with weight 0 is distinct from no
// components being available at all: the former keeps available=true and
// falls back to a denominator of 1.0 rather than collapsing to the
// watch/50/unavailable result.
func TestComputeZeroWeightComponentsStayAvailable(t *testing.T) {
	cfg := fusionconfig.ReadinessConfig{
		Enabled: true,
		Components: []fusionconfig.ReadinessComponent{
			{Name: ComponentRecoveryTime, Weight: 0},
		},
		ThrivingThreshold: 80,
		WatchThreshold:    60,
	}
	in := Inputs{DaysSinceHardWorkout: intp(4)}
	score := Compute(cfg, "subject-1", time.Now(), in)
	if !score.Available {
		t.Error("expected available = true when a component is available despite zero weight")
	}
	if score.Score != 0 {
		t.Errorf("score = %d, want 0 (raw 1.0 * weight 0 / denominator 1.0)", score.Score)
	}
}

// TestComputeDisabledReturnsZeroConcern verifies the disabled-configuration
// contract.
func TestComputeDisabledReturnsZeroConcern(t *testing.T) {
	cfg := defaultReadinessConfig()
	cfg.Enabled = false
	score := Compute(cfg, "subject-1", time.Now(), Inputs{})
	if score.Score != 0 || score.Band != "concern" || score.Available {
		t.Errorf("got score=%d band=%q available=%v, want 0/concern/false", score.Score, score.Band, score.Available)
	}
}
