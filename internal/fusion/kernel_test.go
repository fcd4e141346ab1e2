package fusion

import (
	"math"
	"testing"

	"github.com/claude/vitalfusion/internal/fusionconfig"
)

func hrvConfig() *fusionconfig.Config {
	return &fusionconfig.Config{
		Version: "test",
		DeviceWeights: map[string]map[string]float64{
			"hrv": {"oura": 0.95, "garmin": 0.65},
		},
		Tolerances: map[string]float64{"hrv_ms": 15},
	}
}

// TestFuseMetricAgreement verifies scenario 1 (§8): agreeing HRV readings
// within tolerance fuse to their weighted mean with no conflict.
func TestFuseMetricAgreement(t *testing.T) {
	cfg := hrvConfig()
	result := fuseMetric(cfg, "hrv", map[string]float64{"oura": 58.0, "garmin": 55.0}, "hrv_ms")
	if result.HadConflict {
		t.Fatal("expected no conflict")
	}
	if result.FusedValue == nil {
		t.Fatal("expected a fused value")
	}
	if math.Abs(*result.FusedValue-56.78) > 0.01 {
		t.Errorf("fused value = %v, want ~56.78", *result.FusedValue)
	}
	if len(result.SourcesUsed) != 2 {
		t.Errorf("sources_used = %v, want both sources", result.SourcesUsed)
	}
}

// TestFuseMetricConflict verifies scenario 2 (§8): an HRV spread beyond
// tolerance is resolved to the primary source's value with a confidence
// penalty.
func TestFuseMetricConflict(t *testing.T) {
	cfg := hrvConfig()
	result := fuseMetric(cfg, "hrv", map[string]float64{"oura": 85.0, "garmin": 48.0}, "hrv_ms")
	if !result.HadConflict {
		t.Fatal("expected a conflict")
	}
	if result.FusedValue == nil || *result.FusedValue != 85.0 {
		t.Fatalf("fused value = %v, want 85.0", result.FusedValue)
	}
	if len(result.SourcesUsed) != 1 || result.SourcesUsed[0] != "oura" {
		t.Errorf("sources_used = %v, want [oura]", result.SourcesUsed)
	}
	if result.ConflictDetail == nil || result.ConflictDetail.PrimaryUsed != "oura" {
		t.Errorf("conflict_detail.primary_used = %v, want oura", result.ConflictDetail)
	}
	wantConfidence := 0.95 * 0.8
	if math.Abs(result.Confidence-wantConfidence) > 1e-9 {
		t.Errorf("confidence = %v, want %v", result.Confidence, wantConfidence)
	}
}

// TestFuseMetricSingleSource verifies invariant 3 (§8): a single
// contributing source passes through verbatim.
func TestFuseMetricSingleSource(t *testing.T) {
	cfg := hrvConfig()
	result := fuseMetric(cfg, "hrv", map[string]float64{"oura": 58.0}, "hrv_ms")
	if result.HadConflict {
		t.Fatal("expected no conflict with a single source")
	}
	if result.FusedValue == nil || *result.FusedValue != 58.0 {
		t.Fatalf("fused value = %v, want 58.0", result.FusedValue)
	}
	if len(result.SourcesUsed) != 1 || result.SourcesUsed[0] != "oura" {
		t.Errorf("sources_used = %v, want [oura]", result.SourcesUsed)
	}
	if result.NormalizedWeights["oura"] != 1.0 {
		t.Errorf("normalized_weights[oura] = %v, want 1.0", result.NormalizedWeights["oura"])
	}
	if result.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", result.Confidence)
	}
}

// TestFuseMetricAgreeingValuesExact verifies invariant 2 (§8): identical
// readings fuse to that exact common value with no conflict.
func TestFuseMetricAgreeingValuesExact(t *testing.T) {
	cfg := hrvConfig()
	result := fuseMetric(cfg, "hrv", map[string]float64{"oura": 60.0, "garmin": 60.0}, "hrv_ms")
	if result.HadConflict {
		t.Fatal("expected no conflict")
	}
	if result.FusedValue == nil || *result.FusedValue != 60.0 {
		t.Fatalf("fused value = %v, want exactly 60.0", result.FusedValue)
	}
}

// TestFuseMetricZeroWeightFallsBackToUniform verifies that a metric with
// no configured weights still yields a value via uniform-weight fallback.
func TestFuseMetricZeroWeightFallsBackToUniform(t *testing.T) {
	cfg := &fusionconfig.Config{Version: "test"}
	result := fuseMetric(cfg, "steps", map[string]float64{"oura": 8000, "garmin": 8200}, "")
	if result.FusedValue == nil {
		t.Fatal("expected a fused value even with no configured weights")
	}
	if math.Abs(*result.FusedValue-8100) > 0.01 {
		t.Errorf("fused value = %v, want 8100 (uniform average)", *result.FusedValue)
	}
}
