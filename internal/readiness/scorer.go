package readiness

import (
	"math"
	"time"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
)

type scorerFunc func(Inputs) (raw float64, available bool, explanation string)

var scorers = map[string]scorerFunc{
	ComponentHRVVsBaseline:    scoreHRVVsBaseline,
	ComponentRHRVsBaseline:    scoreRHRVsBaseline,
	ComponentSleepQuality:     scoreSleepQuality,
	ComponentSleepConsistency: scoreSleepConsistency,
	ComponentRecoveryTime:     scoreRecoveryTime,
}

// Compute composes the 0-100 readiness score for one subject-date.
//
// When readiness is disabled, it returns (score=0, band=concern,
// available=false) per §4.4. When no configured component is available,
// it returns (score=50, band=watch, available=false).
func Compute(cfg fusionconfig.ReadinessConfig, owner string, date time.Time, in Inputs) canonical.ReadinessScore {
	now := time.Now().UTC()
	if !cfg.Enabled {
		return canonical.ReadinessScore{
			Owner: owner, Date: date, Score: 0, Band: canonical.BandConcern,
			Available: false, ComputedAt: now,
		}
	}

	components := make([]canonical.ReadinessComponentScore, 0, len(cfg.Components))
	var availableWeight float64
	var anyAvailable bool
	for _, c := range cfg.Components {
		scorer, ok := scorers[c.Name]
		if !ok {
			continue
		}
		raw, available, explanation := scorer(in)
		components = append(components, canonical.ReadinessComponentScore{
			Name: c.Name, Weight: c.Weight, RawScore: raw,
			Available: available, Explanation: explanation,
		})
		if available {
			anyAvailable = true
			availableWeight += c.Weight
		}
	}

	if !anyAvailable {
		return canonical.ReadinessScore{
			Owner: owner, Date: date, Score: 50, Band: canonical.BandWatch,
			Components: components, Available: false, ComputedAt: now,
		}
	}

	// Components can be available yet all weighted zero; the denominator
	// defaults to 1.0 in that case rather than collapsing to unavailable.
	denominator := availableWeight
	if denominator <= 0 {
		denominator = 1.0
	}

	// Sum weighted scores, then re-normalize by the weight actually
	// available. (An earlier, equivalent-looking double-normalized
	// expression is not used here — see DESIGN.md.)
	var rawTotal float64
	for _, c := range components {
		if c.Available {
			rawTotal += c.RawScore * c.Weight
		}
	}
	raw := rawTotal / denominator
	final := int(clamp(math.Round(raw*100), 0, 100))

	var band canonical.Band
	switch {
	case float64(final) >= cfg.ThrivingThreshold:
		band = canonical.BandThriving
	case float64(final) >= cfg.WatchThreshold:
		band = canonical.BandWatch
	default:
		band = canonical.BandConcern
	}

	return canonical.ReadinessScore{
		Owner: owner, Date: date, Score: final, Band: band,
		Components: components, Available: true, ComputedAt: now,
	}
}
