package fusion

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
	"github.com/claude/vitalfusion/internal/sleepmatch"
)

// sleepField describes one mergeable field of the Canonical Sleep Record,
// per the table in §4.3 "Sleep fusion." The four stage-minute fields share
// the "sleep_stages" metric and "sleep_stage_minutes" tolerance key.
type sleepField struct {
	name         string
	metric       string
	toleranceKey string
	get          func(canonical.SleepRecord) (float64, bool)
	set          func(*canonical.SleepRecord, float64)
}

var sleepFields = []sleepField{
	{
		name: "total_sleep_minutes", metric: "sleep_duration", toleranceKey: "sleep_duration_minutes",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.TotalSleepMinutes == nil {
				return 0, false
			}
			return *r.TotalSleepMinutes, true
		},
		set: func(r *canonical.SleepRecord, v float64) {
			n := math.Round(v)
			r.TotalSleepMinutes = &n
		},
	},
	{
		name: "rem_minutes", metric: "sleep_stages", toleranceKey: "sleep_stage_minutes",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.REMMinutes == nil {
				return 0, false
			}
			return *r.REMMinutes, true
		},
		set: func(r *canonical.SleepRecord, v float64) {
			n := math.Round(v)
			r.REMMinutes = &n
		},
	},
	{
		name: "deep_minutes", metric: "sleep_stages", toleranceKey: "sleep_stage_minutes",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.DeepMinutes == nil {
				return 0, false
			}
			return *r.DeepMinutes, true
		},
		set: func(r *canonical.SleepRecord, v float64) {
			n := math.Round(v)
			r.DeepMinutes = &n
		},
	},
	{
		name: "light_minutes", metric: "sleep_stages", toleranceKey: "sleep_stage_minutes",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.LightMinutes == nil {
				return 0, false
			}
			return *r.LightMinutes, true
		},
		set: func(r *canonical.SleepRecord, v float64) {
			n := math.Round(v)
			r.LightMinutes = &n
		},
	},
	{
		name: "awake_minutes", metric: "sleep_stages", toleranceKey: "sleep_stage_minutes",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.AwakeMinutes == nil {
				return 0, false
			}
			return *r.AwakeMinutes, true
		},
		set: func(r *canonical.SleepRecord, v float64) {
			n := math.Round(v)
			r.AwakeMinutes = &n
		},
	},
	{
		name: "avg_hrv_ms", metric: "hrv", toleranceKey: "hrv_ms",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.AvgHRVRMSSDMs == nil {
				return 0, false
			}
			return *r.AvgHRVRMSSDMs, true
		},
		set: func(r *canonical.SleepRecord, v float64) { r.AvgHRVRMSSDMs = &v },
	},
	{
		name: "avg_hr_bpm", metric: "resting_heart_rate", toleranceKey: "resting_hr_bpm",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.AvgHRBPM == nil {
				return 0, false
			}
			return *r.AvgHRBPM, true
		},
		set: func(r *canonical.SleepRecord, v float64) {
			n := math.Round(v)
			r.AvgHRBPM = &n
		},
	},
	{
		name: "avg_spo2_pct", metric: "spo2", toleranceKey: "spo2_pct",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.AvgSpO2Pct == nil {
				return 0, false
			}
			return *r.AvgSpO2Pct, true
		},
		set: func(r *canonical.SleepRecord, v float64) { r.AvgSpO2Pct = &v },
	},
	{
		name: "avg_respiratory_rate", metric: "respiratory_rate", toleranceKey: "respiratory_rate_brpm",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.RespiratoryRateAvg == nil {
				return 0, false
			}
			return *r.RespiratoryRateAvg, true
		},
		set: func(r *canonical.SleepRecord, v float64) { r.RespiratoryRateAvg = &v },
	},
	{
		name: "avg_skin_temp_deviation_c", metric: "skin_temperature", toleranceKey: "skin_temp_celsius",
		get: func(r canonical.SleepRecord) (float64, bool) {
			if r.SkinTempDeviationC == nil {
				return 0, false
			}
			return *r.SkinTempDeviationC, true
		},
		set: func(r *canonical.SleepRecord, v float64) { r.SkinTempDeviationC = &v },
	},
}

// FuseSleep merges a sleep match group into one fused Canonical Sleep
// Record plus its provenance. The primary source (highest weight for
// "sleep_duration") contributes sleep_start, sleep_end, efficiency,
// sleep_score, and the hypnogram verbatim — weighted averaging would
// destroy their temporal and structural coherence.
func FuseSleep(cfg *fusionconfig.Config, owner string, date time.Time, group canonical.SleepMatchGroup) (canonical.SleepRecord, canonical.FusionResult, error) {
	records := group.Records
	if len(records) == 0 {
		return canonical.SleepRecord{}, canonical.FusionResult{}, fmt.Errorf("fuse sleep: empty record set: %w", canonical.ErrInvalidArgument)
	}

	primary := sleepmatch.SelectPrimary(group, func(source string) float64 {
		return cfg.Weight("sleep_duration", source)
	})

	fused := canonical.SleepRecord{
		Owner:             owner,
		SleepDate:         date,
		Source:            "fused",
		SleepStart:        primary.SleepStart,
		SleepEnd:          primary.SleepEnd,
		EfficiencyPct:     primary.EfficiencyPct,
		SleepScore:        primary.SleepScore,
		InterruptionCount: primary.InterruptionCount,
		Hypnogram:         primary.Hypnogram,
	}

	metrics := make(map[string]canonical.MetricFusionResult)
	conflicted := make(map[string]bool)
	sourceSet := make(map[string]bool)

	for _, spec := range sleepFields {
		readings := make(map[string]float64)
		for _, r := range records {
			if v, ok := spec.get(r); ok {
				readings[r.Source] = v
				sourceSet[r.Source] = true
			}
		}
		if len(readings) == 0 {
			continue
		}
		result := fuseMetric(cfg, spec.metric, readings, spec.toleranceKey)
		metrics[spec.name] = result
		if result.HadConflict {
			conflicted[spec.name] = true
		}
		if result.FusedValue != nil {
			spec.set(&fused, *result.FusedValue)
		}
	}

	sources := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	result := canonical.FusionResult{
		ID:               uuid.New().String(),
		Owner:            owner,
		Date:             date,
		MetricGroup:      canonical.GroupSleep,
		Metrics:          metrics,
		SourcesContrib:   sources,
		ConflictedFields: conflicted,
		ConfigVersion:    cfg.Version,
		ComputedAt:       time.Now().UTC(),
	}
	return fused, result, nil
}
