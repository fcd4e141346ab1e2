package fusion

import (
	"testing"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
)

// TestFuseSleepPrimarySourceTiming verifies scenario 3 (§8): the primary
// source (Oura, highest sleep_duration weight) contributes the
// authoritative sleep_start.
func TestFuseSleepPrimarySourceTiming(t *testing.T) {
	cfg := &fusionconfig.Config{
		Version: "test",
		DeviceWeights: map[string]map[string]float64{
			"sleep_duration": {"oura": 0.9, "garmin": 0.6},
		},
	}
	date := sleepTime(t, "2026-01-02T00:00:00Z")
	ouraStart := sleepTime(t, "2026-01-01T23:00:00Z")
	garminStart := sleepTime(t, "2026-01-01T23:15:00Z")
	group := canonical.SleepMatchGroup{Records: []canonical.SleepRecord{
		{Source: "oura", SleepDate: date, SleepStart: &ouraStart, TotalSleepMinutes: f64(420)},
		{Source: "garmin", SleepDate: date, SleepStart: &garminStart, TotalSleepMinutes: f64(410)},
	}}

	fused, _, err := FuseSleep(cfg, "subject-1", date, group)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fused.SleepStart == nil || !fused.SleepStart.Equal(ouraStart) {
		t.Errorf("sleep_start = %v, want %v (Oura is primary)", fused.SleepStart, ouraStart)
	}
	if fused.Source != "fused" {
		t.Errorf("source = %q, want %q", fused.Source, "fused")
	}
}

// TestFuseSleepIntegerFieldsRoundToNearestInt verifies that
// total_sleep_minutes, the four stage-minute fields, and avg_hr_bpm round
// to the nearest whole number after averaging (§4.3, spec.md:108,
// spec.md:291) — the minute/bpm fields are domain-integer just like steps.
func TestFuseSleepIntegerFieldsRoundToNearestInt(t *testing.T) {
	cfg := &fusionconfig.Config{Version: "test"}
	date := sleepTime(t, "2026-01-02T00:00:00Z")
	group := canonical.SleepMatchGroup{Records: []canonical.SleepRecord{
		{Source: "oura", SleepDate: date,
			TotalSleepMinutes: f64(421), REMMinutes: f64(91), DeepMinutes: f64(71),
			LightMinutes: f64(211), AwakeMinutes: f64(31), AvgHRBPM: f64(51)},
		{Source: "garmin", SleepDate: date,
			TotalSleepMinutes: f64(420), REMMinutes: f64(90), DeepMinutes: f64(70),
			LightMinutes: f64(210), AwakeMinutes: f64(30), AvgHRBPM: f64(52)},
	}}

	fused, _, err := FuseSleep(cfg, "subject-1", date, group)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fused.TotalSleepMinutes == nil || *fused.TotalSleepMinutes != 421 {
		t.Errorf("total_sleep_minutes = %v, want 421 (rounded from 420.5)", fused.TotalSleepMinutes)
	}
	if fused.REMMinutes == nil || *fused.REMMinutes != 91 {
		t.Errorf("rem_minutes = %v, want 91 (rounded from 90.5)", fused.REMMinutes)
	}
	if fused.DeepMinutes == nil || *fused.DeepMinutes != 71 {
		t.Errorf("deep_minutes = %v, want 71 (rounded from 70.5)", fused.DeepMinutes)
	}
	if fused.LightMinutes == nil || *fused.LightMinutes != 211 {
		t.Errorf("light_minutes = %v, want 211 (rounded from 210.5)", fused.LightMinutes)
	}
	if fused.AwakeMinutes == nil || *fused.AwakeMinutes != 31 {
		t.Errorf("awake_minutes = %v, want 31 (rounded from 30.5)", fused.AwakeMinutes)
	}
	if fused.AvgHRBPM == nil || *fused.AvgHRBPM != 52 {
		t.Errorf("avg_hr_bpm = %v, want 52 (rounded from 51.5)", fused.AvgHRBPM)
	}
}

// TestFuseSleepEmptyGroupRejected verifies the InvalidArgument boundary
// for an empty sleep match group.
func TestFuseSleepEmptyGroupRejected(t *testing.T) {
	cfg := &fusionconfig.Config{Version: "test"}
	_, _, err := FuseSleep(cfg, "subject-1", sleepTime(t, "2026-01-02T00:00:00Z"), canonical.SleepMatchGroup{})
	if err == nil {
		t.Fatal("expected an error for an empty sleep match group")
	}
}
