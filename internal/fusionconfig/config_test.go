package fusionconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
version: "v1"
device_weights:
  hrv:
    oura: 0.95
    garmin: 0.65
tolerances:
  hrv_ms: 15
sleep_matching:
  min_overlap_pct: 50
  max_start_diff_minutes: 30
  sleep_day_cutoff_hour: 18
readiness_score:
  enabled: true
  components:
    - name: hrv_vs_baseline
      weight: 0.30
      description: HRV relative to personal baseline
    - name: rhr_vs_baseline
      weight: 0.20
      description: Resting HR relative to personal baseline
    - name: sleep_quality
      weight: 0.25
      description: Sleep quality composite
    - name: sleep_consistency
      weight: 0.10
      description: Sleep timing consistency
    - name: recovery_time
      weight: 0.15
      description: Recovery time since last hard workout
  thresholds:
    thriving: 80
    watch: 60
menstrual_cycle:
  enabled: true
  prediction_model: temperature_assisted
  temp_source_priority: ["oura", "garmin"]
  temp_shift_threshold_c: 0.2
  ovulation_confirmation_days: 3
  fertile_window:
    days: 6
  rolling_average_cycles: 6
  cycle_length:
    min_days: 21
    max_days: 45
backfill:
  max_lookback_days:
    oura: 90
  batch_size: 500
  rate_limit_pacing_seconds:
    oura: 1.0
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fusion.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML document loads with every
// section populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != "v1" {
		t.Errorf("version = %q, want %q", cfg.Version, "v1")
	}
	if w := cfg.Weight("hrv", "oura"); w != 0.95 {
		t.Errorf("Weight(hrv, oura) = %v, want 0.95", w)
	}
	if tol := cfg.Tolerance("hrv_ms"); tol != 15 {
		t.Errorf("Tolerance(hrv_ms) = %v, want 15", tol)
	}
	if !cfg.Readiness.Enabled {
		t.Error("readiness.enabled = false, want true")
	}
	if cfg.Menstrual.MinCycleDays != 21 || cfg.Menstrual.MaxCycleDays != 45 {
		t.Errorf("cycle_length = [%d,%d], want [21,45]", cfg.Menstrual.MinCycleDays, cfg.Menstrual.MaxCycleDays)
	}
}

// TestWeightAbsentSourceReturnsZero verifies the derived-accessor default
// of 0 on absence.
func TestWeightAbsentSourceReturnsZero(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w := cfg.Weight("hrv", "whoop"); w != 0 {
		t.Errorf("Weight(hrv, whoop) = %v, want 0", w)
	}
}

// TestToleranceAbsentReturnsInfinity verifies the derived-accessor default
// of +Inf on absence, meaning "no conflict detection."
func TestToleranceAbsentReturnsInfinity(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tol := cfg.Tolerance("steps_count")
	if tol <= 1e300 {
		t.Errorf("Tolerance(steps_count) = %v, want +Inf", tol)
	}
}

// TestSourcesForMetricOrdering verifies descending-weight ordering and that
// PrimarySource returns the first element.
func TestSourcesForMetricOrdering(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sources := cfg.SourcesForMetric("hrv")
	if len(sources) != 2 || sources[0] != "oura" || sources[1] != "garmin" {
		t.Fatalf("SourcesForMetric(hrv) = %v, want [oura garmin]", sources)
	}
	if p := cfg.PrimarySource("hrv"); p != "oura" {
		t.Errorf("PrimarySource(hrv) = %q, want %q", p, "oura")
	}
}

// TestValidationWeightOutOfRange verifies a device weight outside [0,1] is
// rejected with an enumerated error.
func TestValidationWeightOutOfRange(t *testing.T) {
	yaml := `
version: "v1"
device_weights:
  hrv:
    oura: 1.5
tolerances: {}
sleep_matching:
  min_overlap_pct: 50
  max_start_diff_minutes: 30
  sleep_day_cutoff_hour: 18
readiness_score:
  enabled: false
menstrual_cycle:
  enabled: false
backfill: {}
`
	_, err := Load(writeTemp(t, yaml))
	if err == nil {
		t.Fatal("expected validation error for weight out of range")
	}
}

// TestValidationReadinessThresholdOrdering verifies thriving must exceed
// watch.
func TestValidationReadinessThresholdOrdering(t *testing.T) {
	yaml := `
version: "v1"
device_weights: {}
tolerances: {}
sleep_matching:
  min_overlap_pct: 50
  max_start_diff_minutes: 30
  sleep_day_cutoff_hour: 18
readiness_score:
  enabled: true
  components:
    - name: hrv_vs_baseline
      weight: 1.0
      description: x
  thresholds:
    thriving: 50
    watch: 60
menstrual_cycle:
  enabled: false
backfill: {}
`
	_, err := Load(writeTemp(t, yaml))
	if err == nil {
		t.Fatal("expected validation error for thriving <= watch")
	}
}

// TestValidationCollectsMultipleErrors verifies InvalidConfiguration
// enumerates every violation rather than failing on the first.
func TestValidationCollectsMultipleErrors(t *testing.T) {
	yaml := `
version: "v1"
device_weights:
  hrv:
    oura: 2.0
tolerances:
  hrv_ms: -5
sleep_matching:
  min_overlap_pct: 150
  max_start_diff_minutes: -1
  sleep_day_cutoff_hour: 30
readiness_score:
  enabled: true
  components: []
  thresholds:
    thriving: 10
    watch: 20
menstrual_cycle:
  enabled: false
backfill: {}
`
	_, err := Load(writeTemp(t, yaml))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"weight", "tolerances", "min_overlap_pct", "max_start_diff_minutes", "sleep_day_cutoff_hour", "components"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got: %v", want, err)
		}
	}
}

// TestReadinessWeightSumWarningDoesNotFailConstruction verifies that
// component weights outside [0.95, 1.05] produce a warning, not a
// construction failure.
func TestReadinessWeightSumWarningDoesNotFailConstruction(t *testing.T) {
	yaml := `
version: "v1"
device_weights: {}
tolerances: {}
sleep_matching:
  min_overlap_pct: 50
  max_start_diff_minutes: 30
  sleep_day_cutoff_hour: 18
readiness_score:
  enabled: true
  components:
    - name: hrv_vs_baseline
      weight: 0.5
      description: x
  thresholds:
    thriving: 80
    watch: 60
menstrual_cycle:
  enabled: false
backfill: {}
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Warnings) == 0 {
		t.Error("expected a warning for component weights summing to 0.5")
	}
}

// TestLoadMissingFile verifies that a missing config file returns a clear
// error.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/fusion.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
