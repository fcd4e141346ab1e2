// Package fusion implements the Fusion Engine (§4.3): given a set of
// canonical records for one subject-date, it emits one fused canonical
// record plus a fusion-result provenance object, deterministically.
package fusion

import (
	"math"
	"sort"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
)

// fuseMetric is the per-metric fusion kernel (§4.3 "Per-metric fusion").
// readings holds one value per source that actually reported the metric.
// toleranceKey may be empty, meaning no conflict detection is configured
// for this metric.
func fuseMetric(cfg *fusionconfig.Config, metricName string, readings map[string]float64, toleranceKey string) canonical.MetricFusionResult {
	sources := sortedKeys(readings)

	rawWeight := make(map[string]float64, len(sources))
	for _, s := range sources {
		rawWeight[s] = cfg.Weight(metricName, s)
	}

	var active []string
	for _, s := range sources {
		if rawWeight[s] > 0 {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		// No source is configured with positive weight for this metric —
		// fall back to the full reading set with uniform weight so the
		// metric still yields a useful value instead of null.
		active = sources
		for _, s := range active {
			rawWeight[s] = 1
		}
	}

	if len(active) == 1 {
		s := active[0]
		v := round4(readings[s])
		return canonical.MetricFusionResult{
			MetricName:        metricName,
			FusedValue:        &v,
			SourcesUsed:       []string{s},
			NormalizedWeights: map[string]float64{s: 1},
			HadConflict:       false,
			Confidence:        clamp01(rawWeight[s]),
		}
	}

	if toleranceKey != "" {
		tolerance := cfg.Tolerance(toleranceKey)
		lo, hi := readings[active[0]], readings[active[0]]
		for _, s := range active[1:] {
			v := readings[s]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		spread := hi - lo
		if spread > tolerance {
			primary := primarySource(active, rawWeight)
			values := make(map[string]float64, len(active))
			for _, s := range active {
				values[s] = readings[s]
			}
			fv := round4(readings[primary])
			return canonical.MetricFusionResult{
				MetricName:        metricName,
				FusedValue:        &fv,
				SourcesUsed:       []string{primary},
				NormalizedWeights: map[string]float64{primary: 1},
				HadConflict:       true,
				ConflictDetail: &canonical.ConflictDetail{
					Values:      values,
					Diff:        spread,
					Tolerance:   tolerance,
					PrimaryUsed: primary,
				},
				Confidence: clamp01(rawWeight[primary] * 0.8),
			}
		}
	}

	var weightSum float64
	for _, s := range active {
		weightSum += rawWeight[s]
	}
	normWeights := make(map[string]float64, len(active))
	var fused, confidence float64
	for _, s := range active {
		nw := rawWeight[s] / weightSum
		normWeights[s] = nw
		fused += nw * readings[s]
		confidence += nw * rawWeight[s]
	}
	fv := round4(fused)
	return canonical.MetricFusionResult{
		MetricName:        metricName,
		FusedValue:        &fv,
		SourcesUsed:       append([]string(nil), active...),
		NormalizedWeights: normWeights,
		HadConflict:       false,
		Confidence:        clamp01(confidence),
	}
}

// primarySource returns the active source with maximum raw weight,
// breaking ties on source name for determinism.
func primarySource(active []string, rawWeight map[string]float64) string {
	best := active[0]
	for _, s := range active[1:] {
		if rawWeight[s] > rawWeight[best] || (rawWeight[s] == rawWeight[best] && s < best) {
			best = s
		}
	}
	return best
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
