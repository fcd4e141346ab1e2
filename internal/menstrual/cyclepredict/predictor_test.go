package cyclepredict

import (
	"testing"
	"time"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func defaultCfg() fusionconfig.MenstrualConfig {
	return fusionconfig.MenstrualConfig{
		Enabled:                   true,
		PredictionModel:           fusionconfig.PredictionModelCalendarOnly,
		TempShiftThresholdC:       0.2,
		OvulationConfirmationDays: 3,
		FertileWindowDays:         6,
		RollingAverageCycles:      6,
		MinCycleDays:              21,
		MaxCycleDays:              35,
	}
}

func completeCycle(start time.Time, length int) canonical.CycleRecord {
	l := length
	return canonical.CycleRecord{PeriodStart: start, CycleLengthDays: &l, IsComplete: true}
}

// TestPredictSixRegularCycles verifies scenario 6 (§8): six complete 28-day
// cycles predict a 28-day next cycle, ovulation on day 14, and regularity.
func TestPredictSixRegularCycles(t *testing.T) {
	cfg := defaultCfg()
	var cycles []canonical.CycleRecord
	start := day(2026, 1, 1)
	for i := 0; i < 6; i++ {
		cycles = append(cycles, completeCycle(start, 28))
		start = start.AddDate(0, 0, 28)
	}
	currentStart := start
	pred := Predict(cfg, cycles, &currentStart, nil, currentStart)

	if pred.AvgCycleLength != 28.0 {
		t.Errorf("avg_cycle_length = %v, want 28.0", pred.AvgCycleLength)
	}
	if pred.IsIrregular {
		t.Error("expected is_irregular = false")
	}
	wantPeriod := currentStart.AddDate(0, 0, 28)
	if pred.PredictedPeriodStart == nil || !pred.PredictedPeriodStart.Equal(wantPeriod) {
		t.Errorf("predicted_period_start = %v, want %v", pred.PredictedPeriodStart, wantPeriod)
	}
	wantOv := wantPeriod.AddDate(0, 0, -14)
	if pred.PredictedOvulationDate == nil || !pred.PredictedOvulationDate.Equal(wantOv) {
		t.Errorf("predicted_ovulation_date = %v, want %v", pred.PredictedOvulationDate, wantOv)
	}
}

// TestPredictNoHistoryReturnsLowConfidenceWarning verifies the empty-cycle-
// history boundary: no complete cycles yields confidence <= 0.1 and an
// explanatory warning.
func TestPredictNoHistoryReturnsLowConfidenceWarning(t *testing.T) {
	cfg := defaultCfg()
	pred := Predict(cfg, nil, nil, nil, day(2026, 1, 1))
	if pred.Confidence > 0.1 {
		t.Errorf("confidence = %v, want <= 0.1", pred.Confidence)
	}
	found := false
	for _, w := range pred.Warnings {
		if w == "No complete cycles available for prediction" {
			found = true
		}
	}
	if !found {
		t.Error("expected the no-history warning")
	}
}

// TestPredictFlagsOnlyFirstShortAndLongCycle verifies at most one
// short-cycle and one long-cycle warning are emitted regardless of how many
// cycles violate the bounds.
func TestPredictFlagsOnlyFirstShortAndLongCycle(t *testing.T) {
	cfg := defaultCfg()
	cycles := []canonical.CycleRecord{
		completeCycle(day(2026, 1, 1), 18),
		completeCycle(day(2026, 1, 19), 19),
		completeCycle(day(2026, 2, 7), 40),
		completeCycle(day(2026, 3, 19), 41),
	}
	pred := Predict(cfg, cycles, nil, nil, day(2026, 5, 1))
	shortCount, longCount := 0, 0
	for _, w := range pred.Warnings {
		if w == shortCycleWarning(18, cfg.MinCycleDays) {
			shortCount++
		}
		if w == longCycleWarning(40, cfg.MaxCycleDays) {
			longCount++
		}
	}
	if shortCount != 1 {
		t.Errorf("short-cycle warning count = %d, want 1", shortCount)
	}
	if longCount != 1 {
		t.Errorf("long-cycle warning count = %d, want 1", longCount)
	}
}

// TestClassifyCycleBounds verifies the standalone classifier against the
// configured min/max bounds.
func TestClassifyCycleBounds(t *testing.T) {
	cfg := defaultCfg()
	cases := map[int]string{20: "short", 28: "normal", 36: "long"}
	for length, want := range cases {
		if got := ClassifyCycle(cfg, length); got != want {
			t.Errorf("ClassifyCycle(%d) = %q, want %q", length, got, want)
		}
	}
}

// TestComputeCycleLength verifies the day-difference helper.
func TestComputeCycleLength(t *testing.T) {
	got := ComputeCycleLength(day(2026, 1, 1), day(2026, 1, 29))
	if got != 28 {
		t.Errorf("ComputeCycleLength = %d, want 28", got)
	}
}
