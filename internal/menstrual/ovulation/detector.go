// Package ovulation implements the temperature-based biphasic-shift
// Ovulation Detector (§4.5.1).
package ovulation

import (
	"math"
	"sort"
	"time"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
)

const (
	minBaselineReadings  = 3
	firstHalfMinBaseline = 5
	shiftMagnitudeCap    = 0.5
)

// Result is the outcome of a single detection run.
type Result struct {
	Detected               bool
	EstimatedOvulationDate *time.Time
	ShiftStartDate         *time.Time
	BaselineMean           float64
	BaselineStd            float64
	EffectiveThreshold     float64
	PostShiftMean          float64
	TempShift              float64
	FertileWindowStart     *time.Time
	FertileWindowEnd       *time.Time
	Confidence             float64
	StreakLength           int
	Note                   string
}

// Detect runs the biphasic-shift algorithm over a chronological sequence
// of temperature readings. cycleStart, when known, anchors the baseline
// window to the first 10 days of the cycle; otherwise the first half of
// the sequence is used, with a floor of 5 readings.
func Detect(readings []canonical.TemperatureReading, cycleStart *time.Time, cfg fusionconfig.MenstrualConfig) Result {
	ordered := make([]canonical.TemperatureReading, len(readings))
	copy(ordered, readings)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	baselineEnd := -1 // index (exclusive) separating baseline from post-baseline readings
	var baseline []canonical.TemperatureReading

	if cycleStart != nil {
		windowEnd := cycleStart.AddDate(0, 0, 10)
		for i, r := range ordered {
			if !r.Date.Before(*cycleStart) && r.Date.Before(windowEnd) {
				baseline = append(baseline, r)
				baselineEnd = i + 1
			}
		}
	} else {
		n := len(ordered) / 2
		if n < firstHalfMinBaseline {
			n = firstHalfMinBaseline
		}
		if n > len(ordered) {
			n = len(ordered)
		}
		baseline = ordered[:n]
		baselineEnd = n
	}

	if len(baseline) < minBaselineReadings {
		return Result{Note: "insufficient baseline temperature data"}
	}

	baselineValues := make([]float64, len(baseline))
	for i, r := range baseline {
		baselineValues[i] = r.DeviationC
	}
	mean, std := meanAndStd(baselineValues)
	threshold := math.Max(cfg.TempShiftThresholdC, 2*std)
	shiftTarget := mean + threshold

	post := ordered[baselineEnd:]

	streak := 0
	streakStartIdx := -1
	confirmedIdx := -1
	for i, r := range post {
		if r.DeviationC >= shiftTarget {
			if streak == 0 {
				streakStartIdx = i
			}
			streak++
			if streak >= cfg.OvulationConfirmationDays && confirmedIdx == -1 {
				confirmedIdx = streakStartIdx
			}
		} else {
			streak = 0
			streakStartIdx = -1
		}
	}

	if confirmedIdx == -1 {
		return Result{
			Detected:     false,
			BaselineMean: mean, BaselineStd: std, EffectiveThreshold: threshold,
			Note: "no sustained elevation confirming ovulation was found",
		}
	}

	shiftStart := post[confirmedIdx].Date
	ovulation := shiftStart.AddDate(0, 0, -1)

	var postShiftValues []float64
	for _, r := range post {
		if !r.Date.Before(shiftStart) {
			postShiftValues = append(postShiftValues, r.DeviationC)
		}
	}
	postMean, _ := meanAndStd(postShiftValues)
	tempShift := postMean - mean

	fertileStart := ovulation.AddDate(0, 0, -(cfg.FertileWindowDays - 1))

	finalStreak := 0
	for i := confirmedIdx; i < len(post) && post[i].DeviationC >= shiftTarget; i++ {
		finalStreak++
	}

	magnitudeScore := math.Min(tempShift/shiftMagnitudeCap, 1)
	if magnitudeScore < 0 {
		magnitudeScore = 0
	}
	durationScore := math.Min(float64(finalStreak)/float64(2*cfg.OvulationConfirmationDays), 1)
	confidence := 0.6*magnitudeScore + 0.4*durationScore

	return Result{
		Detected:               true,
		EstimatedOvulationDate: &ovulation,
		ShiftStartDate:         &shiftStart,
		BaselineMean:           mean,
		BaselineStd:            std,
		EffectiveThreshold:     threshold,
		PostShiftMean:          postMean,
		TempShift:              tempShift,
		FertileWindowStart:     &fertileStart,
		FertileWindowEnd:       &ovulation,
		Confidence:             confidence,
		StreakLength:           finalStreak,
	}
}

// FollicularLutealAverages averages temperatures strictly before
// ovulationDate (follicular) and on/after it (luteal). Either average is
// nil when fewer than 3 readings support it.
func FollicularLutealAverages(readings []canonical.TemperatureReading, ovulationDate time.Time) (follicular, luteal *float64) {
	var follicularValues, lutealValues []float64
	for _, r := range readings {
		if r.Date.Before(ovulationDate) {
			follicularValues = append(follicularValues, r.DeviationC)
		} else {
			lutealValues = append(lutealValues, r.DeviationC)
		}
	}
	if len(follicularValues) >= 3 {
		m, _ := meanAndStd(follicularValues)
		follicular = &m
	}
	if len(lutealValues) >= 3 {
		m, _ := meanAndStd(lutealValues)
		luteal = &m
	}
	return follicular, luteal
}

// PhaseForTemperature classifies the current phase given the cycle day and
// a known (or unknown) ovulation date — the standalone lookup the Python
// original exposes as get_current_phase_temp, useful to callers (for
// example a symptom-logging UI) that want "what phase is it" without
// running a full cycle prediction.
func PhaseForTemperature(today time.Time, cycleDay int, ovulationDate *time.Time) canonical.Phase {
	if cycleDay <= 5 {
		return canonical.PhaseMenstrual
	}
	if ovulationDate != nil {
		delta := int(math.Round(ovulationDate.Sub(today).Hours() / 24))
		switch {
		case delta > 1:
			return canonical.PhaseFollicular
		case delta >= -1:
			return canonical.PhaseOvulation
		default:
			return canonical.PhaseLuteal
		}
	}
	switch {
	case cycleDay <= 13:
		return canonical.PhaseFollicular
	case cycleDay <= 15:
		return canonical.PhaseOvulation
	default:
		return canonical.PhaseLuteal
	}
}

func meanAndStd(values []float64) (mean, std float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= n
	if n < 2 {
		return mean, 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	// Sample standard deviation (n-1 divisor), matching statistics.stdev.
	return mean, math.Sqrt(sumSq / (n - 1))
}
