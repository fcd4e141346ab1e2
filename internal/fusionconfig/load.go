package fusionconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// document mirrors the external declarative schema named in §6: version,
// device_weights, tolerances, sleep_matching, readiness_score (enabled,
// components each with weight/description, thresholds), menstrual_cycle
// (nested fertile_window and cycle_length), backfill. Key names are
// preserved verbatim as the external contract requires.
type document struct {
	Version       string                         `yaml:"version"`
	DeviceWeights map[string]map[string]float64  `yaml:"device_weights"`
	Tolerances    map[string]float64             `yaml:"tolerances"`
	SleepMatching struct {
		MinOverlapPct       float64 `yaml:"min_overlap_pct"`
		MaxStartDiffMinutes float64 `yaml:"max_start_diff_minutes"`
		SleepDayCutoffHour  int     `yaml:"sleep_day_cutoff_hour"`
	} `yaml:"sleep_matching"`
	ReadinessScore struct {
		Enabled    bool `yaml:"enabled"`
		Components []struct {
			Name        string  `yaml:"name"`
			Weight      float64 `yaml:"weight"`
			Description string  `yaml:"description"`
		} `yaml:"components"`
		Thresholds struct {
			Thriving float64 `yaml:"thriving"`
			Watch    float64 `yaml:"watch"`
		} `yaml:"thresholds"`
	} `yaml:"readiness_score"`
	MenstrualCycle struct {
		Enabled                   bool     `yaml:"enabled"`
		PredictionModel           string   `yaml:"prediction_model"`
		TempSourcePriority        []string `yaml:"temp_source_priority"`
		TempShiftThresholdC       float64  `yaml:"temp_shift_threshold_c"`
		OvulationConfirmationDays int      `yaml:"ovulation_confirmation_days"`
		FertileWindow             struct {
			Days int `yaml:"days"`
		} `yaml:"fertile_window"`
		RollingAverageCycles int `yaml:"rolling_average_cycles"`
		CycleLength          struct {
			MinDays int `yaml:"min_days"`
			MaxDays int `yaml:"max_days"`
		} `yaml:"cycle_length"`
	} `yaml:"menstrual_cycle"`
	Backfill struct {
		MaxLookbackDays        map[string]int     `yaml:"max_lookback_days"`
		BatchSize              int                `yaml:"batch_size"`
		RateLimitPacingSeconds map[string]float64 `yaml:"rate_limit_pacing_seconds"`
	} `yaml:"backfill"`
}

// Load reads a YAML document from path, applies the FUSION_VERSION
// environment override (see applyEnvOverrides), and validates fully before
// returning. On any validation failure the returned
// error wraps canonical.ErrInvalidConfiguration and enumerates every
// violation found.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyEnvOverrides(&doc)
	return FromDocument(&doc)
}

// FromDocument validates a parsed document and builds the immutable
// Config value, or returns an error enumerating every violation.
func FromDocument(doc *document) (*Config, error) {
	var errs validationErrors

	for metric, sources := range doc.DeviceWeights {
		for source, w := range sources {
			if w < 0 || w > 1 {
				errs.add("device_weights.%s.%s: weight %v outside [0,1]", metric, source, w)
			}
		}
	}
	for key, tol := range doc.Tolerances {
		if tol < 0 {
			errs.add("tolerances.%s: %v must be non-negative", key, tol)
		}
	}

	sm := SleepMatchingConfig{
		MinOverlapPct:       doc.SleepMatching.MinOverlapPct,
		MaxStartDiffMinutes: doc.SleepMatching.MaxStartDiffMinutes,
		SleepDayCutoffHour:  doc.SleepMatching.SleepDayCutoffHour,
	}
	if sm.MinOverlapPct < 0 || sm.MinOverlapPct > 100 {
		errs.add("sleep_matching.min_overlap_pct: %v outside [0,100]", sm.MinOverlapPct)
	}
	if sm.MaxStartDiffMinutes < 0 {
		errs.add("sleep_matching.max_start_diff_minutes: must be non-negative")
	}
	if sm.SleepDayCutoffHour < 0 || sm.SleepDayCutoffHour > 23 {
		errs.add("sleep_matching.sleep_day_cutoff_hour: %d outside [0,23]", sm.SleepDayCutoffHour)
	}

	readiness := ReadinessConfig{
		Enabled:           doc.ReadinessScore.Enabled,
		ThrivingThreshold: doc.ReadinessScore.Thresholds.Thriving,
		WatchThreshold:    doc.ReadinessScore.Thresholds.Watch,
	}
	for _, c := range doc.ReadinessScore.Components {
		readiness.Components = append(readiness.Components, ReadinessComponent{
			Name: c.Name, Weight: c.Weight, Description: c.Description,
		})
	}
	if readiness.Enabled && len(readiness.Components) == 0 {
		errs.add("readiness_score.components: must be non-empty when readiness_score.enabled is true")
	}
	if readiness.Enabled && readiness.ThrivingThreshold <= readiness.WatchThreshold {
		errs.add("readiness_score.thresholds: thriving (%v) must exceed watch (%v)",
			readiness.ThrivingThreshold, readiness.WatchThreshold)
	}

	menstrual := MenstrualConfig{
		Enabled:                   doc.MenstrualCycle.Enabled,
		PredictionModel:           doc.MenstrualCycle.PredictionModel,
		TempSourcePriority:        doc.MenstrualCycle.TempSourcePriority,
		TempShiftThresholdC:       doc.MenstrualCycle.TempShiftThresholdC,
		OvulationConfirmationDays: doc.MenstrualCycle.OvulationConfirmationDays,
		FertileWindowDays:         doc.MenstrualCycle.FertileWindow.Days,
		RollingAverageCycles:      doc.MenstrualCycle.RollingAverageCycles,
		MinCycleDays:              doc.MenstrualCycle.CycleLength.MinDays,
		MaxCycleDays:              doc.MenstrualCycle.CycleLength.MaxDays,
	}
	if menstrual.Enabled {
		if menstrual.PredictionModel != PredictionModelCalendarOnly &&
			menstrual.PredictionModel != PredictionModelTemperatureAssisted {
			errs.add("menstrual_cycle.prediction_model: %q must be %q or %q",
				menstrual.PredictionModel, PredictionModelCalendarOnly, PredictionModelTemperatureAssisted)
		}
		if menstrual.TempShiftThresholdC < 0 {
			errs.add("menstrual_cycle.temp_shift_threshold_c: must be non-negative")
		}
		if menstrual.OvulationConfirmationDays < 1 {
			errs.add("menstrual_cycle.ovulation_confirmation_days: must be >= 1")
		}
		if menstrual.FertileWindowDays < 1 {
			errs.add("menstrual_cycle.fertile_window.days: must be >= 1")
		}
		if menstrual.RollingAverageCycles < 1 {
			errs.add("menstrual_cycle.rolling_average_cycles: must be >= 1")
		}
		if menstrual.MinCycleDays <= 0 || menstrual.MaxCycleDays <= 0 || menstrual.MinCycleDays >= menstrual.MaxCycleDays {
			errs.add("menstrual_cycle.cycle_length: min_days (%d) must be positive and less than max_days (%d)",
				menstrual.MinCycleDays, menstrual.MaxCycleDays)
		}
	}

	if err := errs.err(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Version:       doc.Version,
		DeviceWeights: doc.DeviceWeights,
		Tolerances:    doc.Tolerances,
		SleepMatching: sm,
		Readiness:     readiness,
		Menstrual:     menstrual,
		Backfill: BackfillConfig{
			MaxLookbackDays:        doc.Backfill.MaxLookbackDays,
			BatchSize:              doc.Backfill.BatchSize,
			RateLimitPacingSeconds: doc.Backfill.RateLimitPacingSeconds,
		},
	}

	if readiness.Enabled {
		total := readiness.TotalWeight()
		if total < 0.95 || total > 1.05 {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf(
				"readiness_score component weights sum to %.4f, outside [0.95, 1.05]; the scorer will re-normalize at runtime", total))
		}
	}

	return cfg, nil
}

// applyEnvOverrides mirrors the teacher's FREEREPS_-prefixed env override
// convention; this module recognizes FUSION_VERSION as its one override,
// kept deliberately small since the bulk of configuration is structural
// (maps, nested thresholds) and not suited to flat env-var overrides.
func applyEnvOverrides(doc *document) {
	if v := os.Getenv("FUSION_VERSION"); v != "" {
		doc.Version = v
	}
}
