// Package canonical defines the vendor-neutral record types shared by every
// fusion-core component: sleep and daily records, fusion provenance, sleep
// match groups, temperature readings, cycle records, symptom logs, and
// readiness scores. All types are immutable values — components return new
// records rather than mutating inputs.
package canonical

import "time"

// MetricGroup distinguishes the kind of canonical record a FusionResult
// was computed for.
type MetricGroup string

const (
	GroupDaily    MetricGroup = "daily"
	GroupSleep    MetricGroup = "sleep"
	GroupActivity MetricGroup = "activity"
)

// StageType is a sleep-hypnogram stage label.
type StageType string

const (
	StageDeep  StageType = "deep"
	StageLight StageType = "light"
	StageREM   StageType = "rem"
	StageAwake StageType = "awake"
)

// Phase is a menstrual-cycle phase label.
type Phase string

const (
	PhaseMenstrual  Phase = "menstrual"
	PhaseFollicular Phase = "follicular"
	PhaseOvulation  Phase = "ovulation"
	PhaseLuteal     Phase = "luteal"
	PhaseUnknown    Phase = "unknown"
)

// Band is the categorical label attached to a readiness score.
type Band string

const (
	BandThriving Band = "thriving"
	BandWatch    Band = "watch"
	BandConcern  Band = "concern"
)

// HypnogramPoint is one (epoch-seconds, stage) pair in a sleep record's
// ordered hypnogram.
type HypnogramPoint struct {
	EpochSeconds int64
	Stage        StageType
}

// SleepRecord is one sensor's account of one sleep period. SleepDate is the
// wake-morning local date. SleepStart/SleepEnd are UTC. Source must be
// non-empty. When both SleepStart and SleepEnd are present, SleepStart must
// not be after SleepEnd — the matcher and fusion engine accept violations of
// this (sensors disagree) rather than rejecting the record.
type SleepRecord struct {
	Owner      string
	SleepDate  time.Time
	Source     string
	SleepStart *time.Time
	SleepEnd   *time.Time

	TotalSleepMinutes *float64
	REMMinutes        *float64
	DeepMinutes       *float64
	LightMinutes      *float64
	AwakeMinutes      *float64

	LatencyMinutes    *float64
	EfficiencyPct     *float64
	SleepScore        *float64
	InterruptionCount *int

	AvgHRBPM           *float64
	MinHRBPM           *float64
	AvgHRVRMSSDMs      *float64
	RespiratoryRateAvg *float64
	AvgSpO2Pct         *float64
	SkinTempDeviationC *float64

	Hypnogram  []HypnogramPoint
	Provenance any
}

// DailyRecord is one sensor's account of one calendar date. Source
// "fused" is reserved for engine output; fused records always carry nil
// proprietary scores (ReadinessScoreProprietary, RecoveryScoreProprietary).
type DailyRecord struct {
	Owner  string
	Date   time.Time
	Source string

	RestingHRBPM       *float64
	MaxHRBPM           *float64
	HRVRMSSDMs         *float64
	Steps              *int
	ActiveCaloriesKcal *float64
	TotalCaloriesKcal  *float64
	ActiveMinutes      *float64
	DistanceMeters     *float64
	Floors             *int
	SpO2AvgPct         *float64
	RespiratoryRateAvg *float64
	StressIndex        *float64
	SkinTempDeviationC *float64
	VO2Max             *float64

	// ReadinessScoreProprietary and RecoveryScoreProprietary are the
	// sensor's own computed scores. Carried for display, never fused.
	ReadinessScoreProprietary *float64
	RecoveryScoreProprietary  *float64

	ExtendedMetrics map[string]float64
	Provenance      any
}

// ConflictDetail records every active source's raw value plus the spread,
// tolerance, and primary source used when a metric's fusion hit conflict.
type ConflictDetail struct {
	Values      map[string]float64
	Diff        float64
	Tolerance   float64
	PrimaryUsed string
}

// MetricFusionResult is the per-metric outcome of the fusion kernel.
type MetricFusionResult struct {
	MetricName        string
	FusedValue        *float64
	SourcesUsed       []string
	NormalizedWeights map[string]float64
	HadConflict       bool
	ConflictDetail    *ConflictDetail
	Confidence        float64
}

// FusionResult is the provenance record emitted alongside every fused
// canonical record.
type FusionResult struct {
	ID               string
	Owner            string
	Date             time.Time
	MetricGroup      MetricGroup
	Metrics          map[string]MetricFusionResult
	SourcesContrib   []string
	ConflictedFields map[string]bool
	ConfigVersion    string
	ComputedAt       time.Time
}

// SleepMatchGroup is a set of sleep records judged to describe the same
// sleep period. At most one record per source may appear in a group.
type SleepMatchGroup struct {
	Records       []SleepRecord
	MinOverlapPct float64
}

// Sources returns the distinct source tags contributing to the group.
func (g SleepMatchGroup) Sources() []string {
	seen := make(map[string]bool, len(g.Records))
	out := make([]string, 0, len(g.Records))
	for _, r := range g.Records {
		if !seen[r.Source] {
			seen[r.Source] = true
			out = append(out, r.Source)
		}
	}
	return out
}

// TemperatureReading is one dated temperature-deviation sample.
type TemperatureReading struct {
	Date       time.Time
	DeviationC float64
	Source     string
}

// CycleRecord describes one historical menstrual cycle. A cycle is
// complete iff CycleLengthDays is known.
type CycleRecord struct {
	ID              string
	PeriodStart     time.Time
	PeriodEnd       *time.Time
	CycleLengthDays *int
	OvulationDate   *time.Time
	Temperatures    []TemperatureReading
	IsComplete      bool
}

// SymptomValue is one logged symptom reading: Numeric is non-nil for
// numeric values; otherwise Raw holds a categorical string, which the
// symptom correlator maps through its lookup tables and skips when
// unrecognized.
type SymptomValue struct {
	Raw     string
	Numeric *float64
}

// SymptomLog is one day's self-reported symptoms plus same-day fused
// physiology, when available.
type SymptomLog struct {
	Date         time.Time
	CycleDay     int
	Phase        Phase
	Symptoms     map[string]SymptomValue
	HRVMs        *float64
	RHRBPM       *float64
	SleepMinutes *float64
}

// ReadinessComponentScore is one sub-score contributing to a ReadinessScore.
type ReadinessComponentScore struct {
	Name        string
	Weight      float64
	RawScore    float64
	Available   bool
	Explanation string
}

// Weighted returns the component's weighted contribution (0 when
// unavailable).
func (c ReadinessComponentScore) Weighted() float64 {
	if !c.Available {
		return 0
	}
	return c.RawScore * c.Weight
}

// ReadinessScore is the composed 0-100 readiness result for one subject-day.
type ReadinessScore struct {
	Owner      string
	Date       time.Time
	Score      int
	Band       Band
	Components []ReadinessComponentScore
	Available  bool
	ComputedAt time.Time
}
