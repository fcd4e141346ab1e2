package fusion

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
)

// dailyField describes one mergeable field of the Canonical Daily Record,
// per the table in §4.3 "Daily fusion."
type dailyField struct {
	name         string
	metric       string
	toleranceKey string
	get          func(canonical.DailyRecord) (float64, bool)
	set          func(*canonical.DailyRecord, float64)
}

var dailyFields = []dailyField{
	{
		name: "resting_hr_bpm", metric: "resting_heart_rate", toleranceKey: "resting_hr_bpm",
		get: func(r canonical.DailyRecord) (float64, bool) {
			if r.RestingHRBPM == nil {
				return 0, false
			}
			return *r.RestingHRBPM, true
		},
		set: func(r *canonical.DailyRecord, v float64) {
			n := math.Round(v)
			r.RestingHRBPM = &n
		},
	},
	{
		name: "hrv_rmssd_ms", metric: "hrv", toleranceKey: "hrv_ms",
		get: func(r canonical.DailyRecord) (float64, bool) {
			if r.HRVRMSSDMs == nil {
				return 0, false
			}
			return *r.HRVRMSSDMs, true
		},
		set: func(r *canonical.DailyRecord, v float64) { r.HRVRMSSDMs = &v },
	},
	{
		name: "steps", metric: "steps", toleranceKey: "steps_count",
		get: func(r canonical.DailyRecord) (float64, bool) {
			if r.Steps == nil {
				return 0, false
			}
			return float64(*r.Steps), true
		},
		set: func(r *canonical.DailyRecord, v float64) {
			n := int(math.Round(v))
			r.Steps = &n
		},
	},
	{
		name: "active_calories_kcal", metric: "calories_burned", toleranceKey: "",
		get: func(r canonical.DailyRecord) (float64, bool) {
			if r.ActiveCaloriesKcal == nil {
				return 0, false
			}
			return *r.ActiveCaloriesKcal, true
		},
		set: func(r *canonical.DailyRecord, v float64) {
			n := math.Round(v)
			r.ActiveCaloriesKcal = &n
		},
	},
	{
		name: "total_calories_kcal", metric: "calories_burned", toleranceKey: "",
		get: func(r canonical.DailyRecord) (float64, bool) {
			if r.TotalCaloriesKcal == nil {
				return 0, false
			}
			return *r.TotalCaloriesKcal, true
		},
		set: func(r *canonical.DailyRecord, v float64) {
			n := math.Round(v)
			r.TotalCaloriesKcal = &n
		},
	},
	{
		name: "spo2_avg_pct", metric: "spo2", toleranceKey: "spo2_pct",
		get: func(r canonical.DailyRecord) (float64, bool) {
			if r.SpO2AvgPct == nil {
				return 0, false
			}
			return *r.SpO2AvgPct, true
		},
		set: func(r *canonical.DailyRecord, v float64) { r.SpO2AvgPct = &v },
	},
	{
		name: "respiratory_rate_avg", metric: "respiratory_rate", toleranceKey: "respiratory_rate_brpm",
		get: func(r canonical.DailyRecord) (float64, bool) {
			if r.RespiratoryRateAvg == nil {
				return 0, false
			}
			return *r.RespiratoryRateAvg, true
		},
		set: func(r *canonical.DailyRecord, v float64) { r.RespiratoryRateAvg = &v },
	},
	{
		name: "skin_temp_deviation_c", metric: "skin_temperature", toleranceKey: "skin_temp_celsius",
		get: func(r canonical.DailyRecord) (float64, bool) {
			if r.SkinTempDeviationC == nil {
				return 0, false
			}
			return *r.SkinTempDeviationC, true
		},
		set: func(r *canonical.DailyRecord, v float64) { r.SkinTempDeviationC = &v },
	},
}

// FuseDaily merges a set of per-sensor Canonical Daily Records for one
// subject-date into a single fused record plus its provenance. The input
// must be non-empty. Proprietary scores are always nil on the result, and
// Source is always "fused".
func FuseDaily(cfg *fusionconfig.Config, owner string, date time.Time, records []canonical.DailyRecord) (canonical.DailyRecord, canonical.FusionResult, error) {
	if len(records) == 0 {
		return canonical.DailyRecord{}, canonical.FusionResult{}, fmt.Errorf("fuse daily: empty record set: %w", canonical.ErrInvalidArgument)
	}

	fused := canonical.DailyRecord{Owner: owner, Date: date, Source: "fused"}
	metrics := make(map[string]canonical.MetricFusionResult)
	conflicted := make(map[string]bool)
	sourceSet := make(map[string]bool)

	for _, spec := range dailyFields {
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
		MetricGroup:      canonical.GroupDaily,
		Metrics:          metrics,
		SourcesContrib:   sources,
		ConflictedFields: conflicted,
		ConfigVersion:    cfg.Version,
		ComputedAt:       time.Now().UTC(),
	}
	return fused, result, nil
}
