// Package cyclepredict implements the Cycle Predictor (§4.5.2): calendar
// averaging over historical cycle lengths, optionally refined by the
// Ovulation Detector when temperature data is available.
package cyclepredict

import (
	"fmt"
	"math"
	"time"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
	"github.com/claude/vitalfusion/internal/menstrual/ovulation"
)

const lutealLengthDays = 14

// Prediction is the outcome of a single prediction run.
type Prediction struct {
	PredictedPeriodStart      *time.Time
	PredictedPeriodStartEarly *time.Time
	PredictedPeriodStartLate  *time.Time
	PredictedOvulationDate    *time.Time
	FertileWindowStart        *time.Time
	FertileWindowEnd          *time.Time
	PredictedCycleLength      int
	AvgCycleLength            float64
	StdCycleLength            float64
	CyclesUsed                int
	Confidence                float64
	ModelUsed                 string
	CurrentPhase              canonical.Phase
	CurrentCycleDay           int
	IsIrregular               bool
	Warnings                  []string
}

// Predict generates a prediction from historical cycle data. cycles must be
// ordered oldest-first. currentCycleStart, when known, anchors the current
// cycle day and phase; currentTemps, when provided under a
// temperature_assisted configuration, refines ovulation via the Ovulation
// Detector.
func Predict(cfg fusionconfig.MenstrualConfig, cycles []canonical.CycleRecord, currentCycleStart *time.Time, currentTemps []canonical.TemperatureReading, asOf time.Time) Prediction {
	pred := Prediction{ModelUsed: fusionconfig.PredictionModelCalendarOnly}

	var complete []canonical.CycleRecord
	for _, c := range cycles {
		if c.IsComplete && c.CycleLengthDays != nil {
			complete = append(complete, c)
		}
	}

	n := cfg.RollingAverageCycles
	var recent []canonical.CycleRecord
	if len(complete) >= 1 {
		if n <= 0 || n > len(complete) {
			n = len(complete)
		}
		recent = complete[len(complete)-n:]
	}
	var lengths []int
	for _, c := range recent {
		lengths = append(lengths, *c.CycleLengthDays)
	}
	pred.CyclesUsed = len(lengths)

	if len(lengths) == 0 {
		if currentCycleStart != nil {
			pred.CurrentCycleDay = int(asOf.Sub(*currentCycleStart).Hours()/24) + 1
			pred.CurrentPhase = canonical.PhaseUnknown
		}
		pred.Confidence = 0.1
		pred.Warnings = append(pred.Warnings, "No complete cycles available for prediction")
		return pred
	}

	avgLength, stdLength := meanAndStd(lengths)
	pred.AvgCycleLength = round1(avgLength)
	pred.StdCycleLength = round1(stdLength)
	pred.PredictedCycleLength = int(math.Round(avgLength))
	pred.IsIrregular = stdLength > 7.0

	// At most one short-cycle and one long-cycle warning per call: each
	// loop stops at the first violation of its kind.
	for _, l := range lengths {
		if l < cfg.MinCycleDays {
			pred.Warnings = append(pred.Warnings, shortCycleWarning(l, cfg.MinCycleDays))
			break
		}
	}
	for _, l := range lengths {
		if l > cfg.MaxCycleDays {
			pred.Warnings = append(pred.Warnings, longCycleWarning(l, cfg.MaxCycleDays))
			break
		}
	}

	var anchor time.Time
	switch {
	case currentCycleStart != nil:
		anchor = *currentCycleStart
	case len(complete) > 0:
		anchor = complete[len(complete)-1].PeriodStart
	default:
		return pred
	}

	predictedStart := anchor.AddDate(0, 0, int(math.Round(avgLength)))
	early := anchor.AddDate(0, 0, int(math.Round(avgLength-stdLength)))
	late := anchor.AddDate(0, 0, int(math.Round(avgLength+stdLength)))
	pred.PredictedPeriodStart = &predictedStart
	pred.PredictedPeriodStartEarly = &early
	pred.PredictedPeriodStartLate = &late

	predictedOv := predictedStart.AddDate(0, 0, -lutealLengthDays)
	pred.PredictedOvulationDate = &predictedOv

	fertileStart := predictedOv.AddDate(0, 0, -(cfg.FertileWindowDays - 1))
	pred.FertileWindowStart = &fertileStart
	pred.FertileWindowEnd = &predictedOv

	confidenceSetByTempOverride := false

	if currentCycleStart != nil {
		cycleDay := int(asOf.Sub(*currentCycleStart).Hours()/24) + 1
		if cycleDay < 1 {
			cycleDay = 1
		}
		pred.CurrentCycleDay = cycleDay

		if len(currentTemps) > 0 && cfg.PredictionModel == fusionconfig.PredictionModelTemperatureAssisted {
			result := ovulation.Detect(currentTemps, currentCycleStart, cfg)
			if result.Detected && result.EstimatedOvulationDate != nil {
				actualOv := *result.EstimatedOvulationDate
				pred.PredictedOvulationDate = &actualOv
				fs := actualOv.AddDate(0, 0, -(cfg.FertileWindowDays - 1))
				pred.FertileWindowStart = &fs
				pred.FertileWindowEnd = &actualOv
				pred.ModelUsed = fusionconfig.PredictionModelTemperatureAssisted

				adjustedStart := actualOv.AddDate(0, 0, lutealLengthDays)
				pred.PredictedPeriodStart = &adjustedStart

				pred.Confidence = math.Min(0.9, 0.6+result.Confidence*0.3)
				confidenceSetByTempOverride = true
			}
		}

		switch {
		case cycleDay <= 5:
			pred.CurrentPhase = canonical.PhaseMenstrual
		case pred.PredictedOvulationDate != nil:
			daysToOv := int(math.Round(pred.PredictedOvulationDate.Sub(asOf).Hours() / 24))
			switch {
			case daysToOv > 1:
				pred.CurrentPhase = canonical.PhaseFollicular
			case daysToOv >= -1:
				pred.CurrentPhase = canonical.PhaseOvulation
			default:
				pred.CurrentPhase = canonical.PhaseLuteal
			}
		default:
			if cycleDay < 14 {
				pred.CurrentPhase = canonical.PhaseFollicular
			} else {
				pred.CurrentPhase = canonical.PhaseLuteal
			}
		}
	}

	// The calendar-only blend of sample size and regularity applies only
	// when the temperature override above did not already set confidence.
	if !confidenceSetByTempOverride {
		dataConfidence := math.Min(float64(len(lengths))/float64(cfg.RollingAverageCycles), 1.0)
		regularityConfidence := math.Max(0.2, 1.0-(stdLength/14.0))
		pred.Confidence = round2(dataConfidence*0.5 + regularityConfidence*0.5)
	}

	return pred
}

// ComputeCycleLength returns the number of days between two period starts.
func ComputeCycleLength(periodStart, nextPeriodStart time.Time) int {
	return int(math.Round(nextPeriodStart.Sub(periodStart).Hours() / 24))
}

// ClassifyCycle labels a cycle length as "short", "long", or "normal"
// against the configured bounds.
func ClassifyCycle(cfg fusionconfig.MenstrualConfig, cycleLengthDays int) string {
	switch {
	case cycleLengthDays < cfg.MinCycleDays:
		return "short"
	case cycleLengthDays > cfg.MaxCycleDays:
		return "long"
	default:
		return "normal"
	}
}

// CycleDayFromStart returns the 1-indexed cycle day for queryDate: 0 for the
// day before periodStart, negative for earlier dates.
func CycleDayFromStart(periodStart, queryDate time.Time) int {
	return int(math.Round(queryDate.Sub(periodStart).Hours()/24)) + 1
}

func shortCycleWarning(length, min int) string {
	return fmt.Sprintf("Short cycle detected: %d days (below %d day minimum)", length, min)
}

func longCycleWarning(length, max int) string {
	return fmt.Sprintf("Long cycle detected: %d days (above %d day maximum)", length, max)
}

func meanAndStd(values []int) (mean, std float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += float64(v)
	}
	mean /= n
	if n < 2 {
		return mean, 0
	}
	var sumSq float64
	for _, v := range values {
		d := float64(v) - mean
		sumSq += d * d
	}
	return mean, math.Sqrt(sumSq / (n - 1))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
