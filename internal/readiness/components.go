package readiness

import (
	"fmt"
	"time"
)

// Component names match the default configuration document and are used
// to dispatch a configured component to its scoring function.
const (
	ComponentHRVVsBaseline    = "hrv_vs_baseline"
	ComponentRHRVsBaseline    = "rhr_vs_baseline"
	ComponentSleepQuality     = "sleep_quality"
	ComponentSleepConsistency = "sleep_consistency"
	ComponentRecoveryTime     = "recovery_time"
)

const minBaselineReadings = 7
const minSleepStarts = 3

const (
	optimalSleepMinutes = 450.0
	minSleepMinutes     = 300.0
	deepProportionTarget = 0.20
	minEfficiencyPct    = 70.0
	maxEfficiencyPct    = 100.0
)

// recoveryTimeTable is the discrete recovery-time lookup (§4.4 component 5).
var recoveryTimeTable = map[int]float64{0: 0.3, 1: 0.5, 2: 0.75, 3: 0.9}

const recoveryTimeUnavailableScore = 0.7
const recoveryTimeMaxScore = 1.0

// Inputs bundles every value the five scorers read.
type Inputs struct {
	TodayHRVMs     *float64
	BaselineHRVMs  []float64 // recent rolling baseline readings
	TodayRHRBPM    *float64
	BaselineRHRBPM []float64

	SleepTotalMinutes  *float64
	SleepDeepMinutes   *float64
	SleepEfficiencyPct *float64

	// RecentSleepStarts holds up to the last 7 sleep starts with known
	// clock time, most recent last.
	RecentSleepStarts []time.Time

	DaysSinceHardWorkout *int
}

func scoreHRVVsBaseline(in Inputs) (raw float64, available bool, explanation string) {
	if in.TodayHRVMs == nil || len(in.BaselineHRVMs) < minBaselineReadings {
		return 0, false, "insufficient HRV baseline data"
	}
	mean, std := meanAndStd(in.BaselineHRVMs)
	z := zScore(*in.TodayHRVMs, mean, std)
	score := sigmoidScore(z)
	pct := 0.0
	if mean != 0 {
		pct = (*in.TodayHRVMs - mean) / mean * 100
	}
	return score, true, fmt.Sprintf("HRV %.1fms vs %.1fms baseline (%+.1f%%)", *in.TodayHRVMs, mean, pct)
}

func scoreRHRVsBaseline(in Inputs) (raw float64, available bool, explanation string) {
	if in.TodayRHRBPM == nil || len(in.BaselineRHRBPM) < minBaselineReadings {
		return 0, false, "insufficient resting heart rate baseline data"
	}
	mean, std := meanAndStd(in.BaselineRHRBPM)
	// Inverted sign: a lower resting HR than baseline should score higher.
	z := zScore(mean, *in.TodayRHRBPM, std)
	score := sigmoidScore(z)
	pct := 0.0
	if mean != 0 {
		pct = (*in.TodayRHRBPM - mean) / mean * 100
	}
	return score, true, fmt.Sprintf("RHR %.1fbpm vs %.1fbpm baseline (%+.1f%%)", *in.TodayRHRBPM, mean, pct)
}

func scoreSleepQuality(in Inputs) (raw float64, available bool, explanation string) {
	if in.SleepTotalMinutes == nil {
		return 0, false, "no sleep duration recorded"
	}
	duration := clamp((*in.SleepTotalMinutes-minSleepMinutes)/(optimalSleepMinutes-minSleepMinutes), 0, 1)

	deep := 0.5
	if in.SleepDeepMinutes != nil && *in.SleepTotalMinutes > 0 {
		deep = clamp((*in.SleepDeepMinutes / *in.SleepTotalMinutes) / deepProportionTarget, 0, 1)
	}

	efficiency := 0.5
	if in.SleepEfficiencyPct != nil {
		efficiency = clamp((*in.SleepEfficiencyPct-minEfficiencyPct)/(maxEfficiencyPct-minEfficiencyPct), 0, 1)
	}

	composite := 0.5*duration + 0.3*deep + 0.2*efficiency
	return composite, true, fmt.Sprintf("sleep %.0fmin, duration=%.2f deep=%.2f efficiency=%.2f", *in.SleepTotalMinutes, duration, deep, efficiency)
}

func scoreSleepConsistency(in Inputs) (raw float64, available bool, explanation string) {
	if len(in.RecentSleepStarts) < minSleepStarts {
		return 0, false, "fewer than 3 sleep starts with known clock time"
	}
	minutesSinceMidnight := make([]float64, len(in.RecentSleepStarts))
	for i, s := range in.RecentSleepStarts {
		minutesSinceMidnight[i] = float64(s.Hour()*60 + s.Minute())
	}
	_, std := meanAndStd(minutesSinceMidnight)
	score := clamp(1-std/60, 0, 1)
	return score, true, fmt.Sprintf("sleep start std dev %.1f minutes", std)
}

func scoreRecoveryTime(in Inputs) (raw float64, available bool, explanation string) {
	if in.DaysSinceHardWorkout == nil {
		return recoveryTimeUnavailableScore, false, "no recent hard workout on record"
	}
	days := *in.DaysSinceHardWorkout
	if days >= 4 {
		return recoveryTimeMaxScore, true, fmt.Sprintf("%d days since last hard workout", days)
	}
	score, ok := recoveryTimeTable[days]
	if !ok {
		score = recoveryTimeMaxScore
	}
	return score, true, fmt.Sprintf("%d days since last hard workout", days)
}
