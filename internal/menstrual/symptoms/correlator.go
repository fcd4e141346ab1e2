// Package symptoms implements the Symptom Correlator (§4.5.3): it surfaces
// phase-based symptom patterns and symptom/metric correlations from a
// history of daily symptom logs.
package symptoms

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/claude/vitalfusion/internal/canonical"
)

const (
	minDataPoints          = 7
	minPhaseSampleCount    = 3
	minCorrelationSamples  = 10
	minCorrelationStrength = 0.25
	minPhaseDiffScore      = 0.3
	minSleepDiffMinutes    = 15
)

var phaseOrder = []canonical.Phase{
	canonical.PhaseMenstrual, canonical.PhaseFollicular, canonical.PhaseOvulation, canonical.PhaseLuteal,
}

var severityMap = map[string]float64{"none": 0, "mild": 1, "moderate": 2, "severe": 3}
var flowMap = map[string]float64{"spotting": 0.5, "light": 1, "medium": 2, "heavy": 3}
var libidoMap = map[string]float64{"low": 0, "normal": 1, "high": 2}

// Insight is a single generated pattern surfaced from symptom history.
type Insight struct {
	ID          string
	Category    string
	Title       string
	Body        string
	MetricA     string
	MetricB     string
	Correlation *float64
	DataPoints  int
	Confidence  float64
}

type phaseProfile struct {
	phase       canonical.Phase
	avgSymptoms map[string]float64
	avgHRV      *float64
	avgRHR      *float64
	avgSleep    *float64
	sampleCount int
}

// symptomToNumeric converts a logged symptom value to a comparable score.
// Numeric readings pass through; recognized categorical strings map via
// their severity/flow/libido table; anything else is excluded.
func symptomToNumeric(name string, v canonical.SymptomValue) (float64, bool) {
	if v.Numeric != nil {
		return *v.Numeric, true
	}
	raw := strings.ToLower(v.Raw)
	switch name {
	case "flow":
		f, ok := flowMap[raw]
		return f, ok
	case "libido":
		f, ok := libidoMap[raw]
		return f, ok
	default:
		f, ok := severityMap[raw]
		return f, ok
	}
}

// GenerateInsights produces every available insight from a history of
// symptom logs, ordered by descending confidence. Fewer than 7 logs total
// yields no insights (§4.5.3's minimum-sample-threshold boundary).
func GenerateInsights(logs []canonical.SymptomLog) []Insight {
	if len(logs) < minDataPoints {
		return nil
	}

	profiles := buildPhaseProfiles(logs)

	var insights []Insight
	insights = append(insights, phaseSymptomInsights(profiles)...)
	insights = append(insights, symptomMetricCorrelations(logs, "hrv")...)
	insights = append(insights, phaseSleepInsights(profiles)...)

	sort.SliceStable(insights, func(i, j int) bool { return insights[i].Confidence > insights[j].Confidence })
	return insights
}

func buildPhaseProfiles(logs []canonical.SymptomLog) map[canonical.Phase]*phaseProfile {
	profiles := make(map[canonical.Phase]*phaseProfile, len(phaseOrder))
	byPhase := make(map[canonical.Phase][]canonical.SymptomLog, len(phaseOrder))
	for _, p := range phaseOrder {
		profiles[p] = &phaseProfile{phase: p, avgSymptoms: map[string]float64{}}
		byPhase[p] = nil
	}
	for _, log := range logs {
		if _, ok := byPhase[log.Phase]; ok {
			byPhase[log.Phase] = append(byPhase[log.Phase], log)
		}
	}

	for phase, phaseLogs := range byPhase {
		if len(phaseLogs) == 0 {
			continue
		}
		profile := profiles[phase]
		profile.sampleCount = len(phaseLogs)

		symptomValues := map[string][]float64{}
		for _, log := range phaseLogs {
			for name, v := range log.Symptoms {
				if num, ok := symptomToNumeric(name, v); ok {
					symptomValues[name] = append(symptomValues[name], num)
				}
			}
		}
		for name, values := range symptomValues {
			mean, _ := meanAndStd(values)
			profile.avgSymptoms[name] = round(mean, 2)
		}

		var hrv, rhr, sleep []float64
		for _, log := range phaseLogs {
			if log.HRVMs != nil {
				hrv = append(hrv, *log.HRVMs)
			}
			if log.RHRBPM != nil {
				rhr = append(rhr, *log.RHRBPM)
			}
			if log.SleepMinutes != nil {
				sleep = append(sleep, *log.SleepMinutes)
			}
		}
		profile.avgHRV = avgOrNil(hrv, 1)
		profile.avgRHR = avgOrNil(rhr, 1)
		profile.avgSleep = avgOrNil(sleep, 0)
	}
	return profiles
}

func phaseSymptomInsights(profiles map[canonical.Phase]*phaseProfile) []Insight {
	var insights []Insight

	allSymptoms := map[string]bool{}
	for _, p := range profiles {
		for name := range p.avgSymptoms {
			allSymptoms[name] = true
		}
	}

	totalSamples := 0
	for _, p := range profiles {
		totalSamples += p.sampleCount
	}

	for symptom := range allSymptoms {
		phaseScores := map[canonical.Phase]float64{}
		for phase, p := range profiles {
			if v, ok := p.avgSymptoms[symptom]; ok && p.sampleCount >= minPhaseSampleCount {
				phaseScores[phase] = v
			}
		}
		if len(phaseScores) < 2 {
			continue
		}

		peakPhase, lowPhase := canonical.Phase(""), canonical.Phase("")
		peakVal, lowVal := math.Inf(-1), math.Inf(1)
		for _, phase := range phaseOrder {
			v, ok := phaseScores[phase]
			if !ok {
				continue
			}
			if v > peakVal {
				peakVal, peakPhase = v, phase
			}
			if v < lowVal {
				lowVal, lowPhase = v, phase
			}
		}

		if peakVal <= 0 || (peakVal-lowVal) < minPhaseDiffScore {
			continue
		}

		denom := lowVal
		if denom < 0.1 {
			denom = 0.1
		}
		pctHigher := math.Round((peakVal - lowVal) / denom * 100)
		confidence := math.Min(0.5+math.Min(float64(totalSamples)/60, 0.4), 0.9)

		label := strings.ReplaceAll(symptom, "_", " ")
		insights = append(insights, Insight{
			ID:       "phase_" + symptom,
			Category: "phase_pattern",
			Title:    fmt.Sprintf("%s peaks in %s phase", titleCase(label), peakPhase),
			Body: fmt.Sprintf("Your %s is highest during the %s phase (%.0f%% higher than %s phase). "+
				"This pattern was detected over %d logged days.", label, peakPhase, pctHigher, lowPhase, totalSamples),
			MetricA:    symptom,
			MetricB:    string(peakPhase),
			DataPoints: totalSamples,
			Confidence: confidence,
		})
	}

	return insights
}

func symptomMetricCorrelations(logs []canonical.SymptomLog, metricName string) []Insight {
	var withMetric []canonical.SymptomLog
	for _, l := range logs {
		if l.HRVMs != nil {
			withMetric = append(withMetric, l)
		}
	}
	if len(withMetric) < minCorrelationSamples {
		return nil
	}

	allSymptoms := map[string]bool{}
	for _, l := range withMetric {
		for name := range l.Symptoms {
			allSymptoms[name] = true
		}
	}

	var insights []Insight
	for symptom := range allSymptoms {
		var symptomVals, pairedMetric []float64
		for _, l := range withMetric {
			v, ok := l.Symptoms[symptom]
			if !ok {
				continue
			}
			num, ok := symptomToNumeric(symptom, v)
			if !ok {
				continue
			}
			symptomVals = append(symptomVals, num)
			pairedMetric = append(pairedMetric, *l.HRVMs)
		}
		if len(symptomVals) < minCorrelationSamples {
			continue
		}

		r := PearsonR(symptomVals, pairedMetric)
		if r == nil || math.Abs(*r) < minCorrelationStrength {
			continue
		}

		direction := "positively"
		if *r < 0 {
			direction = "negatively"
		}
		label := strings.ReplaceAll(symptom, "_", " ")
		confidence := math.Min(math.Abs(*r)*0.8+float64(len(symptomVals))/100*0.2, 0.9)
		corr := round(*r, 3)

		insights = append(insights, Insight{
			ID:       "corr_" + symptom + "_" + metricName,
			Category: "metric_correlation",
			Title:    fmt.Sprintf("%s correlates with HRV", titleCase(label)),
			Body: fmt.Sprintf("Your %s is %s correlated with your HRV (r=%.2f). On days with %s HRV, your %s tends to be higher as well.",
				label, direction, *r, lowOrHigh(*r), label),
			MetricA:     symptom,
			MetricB:     metricName,
			Correlation: &corr,
			DataPoints:  len(symptomVals),
			Confidence:  round(confidence, 2),
		})
	}
	return insights
}

func lowOrHigh(r float64) string {
	if r < 0 {
		return "low"
	}
	return "high"
}

func phaseSleepInsights(profiles map[canonical.Phase]*phaseProfile) []Insight {
	sleepByPhase := map[canonical.Phase]float64{}
	for phase, p := range profiles {
		if p.avgSleep != nil && p.sampleCount >= minPhaseSampleCount {
			sleepByPhase[phase] = *p.avgSleep
		}
	}
	if len(sleepByPhase) < 2 {
		return nil
	}

	bestPhase, worstPhase := canonical.Phase(""), canonical.Phase("")
	bestVal, worstVal := math.Inf(-1), math.Inf(1)
	for _, phase := range phaseOrder {
		v, ok := sleepByPhase[phase]
		if !ok {
			continue
		}
		if v > bestVal {
			bestVal, bestPhase = v, phase
		}
		if v < worstVal {
			worstVal, worstPhase = v, phase
		}
	}

	diffMin := math.Round(bestVal - worstVal)
	if diffMin < minSleepDiffMinutes {
		return nil
	}

	totalSamples := 0
	for _, p := range profiles {
		totalSamples += p.sampleCount
	}

	return []Insight{{
		ID:       "sleep_phase_pattern",
		Category: "phase_pattern",
		Title:    "Sleep quality varies by cycle phase",
		Body: fmt.Sprintf("You sleep best in the %s phase (%.1fh avg) and least in the %s phase (%.1fh avg). "+
			"That's a %.0f-minute difference. Consider prioritizing sleep hygiene during %s phase.",
			bestPhase, round(bestVal/60, 1), worstPhase, round(worstVal/60, 1), diffMin, worstPhase),
		MetricA:    "sleep_minutes",
		MetricB:    "cycle_phase",
		DataPoints: totalSamples,
		Confidence: 0.7,
	}}
}

// PearsonR computes the Pearson correlation coefficient between two equal-
// length samples. It returns nil when fewer than 3 pairs are given or
// either series has zero variance (undefined correlation).
func PearsonR(x, y []float64) *float64 {
	if len(x) != len(y) || len(x) < 3 {
		return nil
	}
	n := float64(len(x))
	meanX, _ := meanAndStd(x)
	meanY, _ := meanAndStd(y)

	var cov, sumSqX, sumSqY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		sumSqX += dx * dx
		sumSqY += dy * dy
	}
	cov /= n
	stdX := math.Sqrt(sumSqX / n)
	stdY := math.Sqrt(sumSqY / n)
	if stdX == 0 || stdY == 0 {
		return nil
	}
	r := round(cov/(stdX*stdY), 4)
	return &r
}

func avgOrNil(values []float64, decimals int) *float64 {
	if len(values) == 0 {
		return nil
	}
	mean, _ := meanAndStd(values)
	v := round(mean, decimals)
	return &v
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
	return mean, math.Sqrt(sumSq / n)
}

func round(v float64, decimals int) float64 {
	mult := math.Pow(10, float64(decimals))
	return math.Round(v*mult) / mult
}

// titleCase capitalizes each space-separated word, avoiding the deprecated
// strings.Title.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
