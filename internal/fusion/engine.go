package fusion

import (
	"time"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
	"github.com/claude/vitalfusion/internal/sleepmatch"
)

// Engine orchestrates fusion against a live configuration snapshot.
type Engine struct {
	config *fusionconfig.Manager
}

// NewEngine builds an Engine over a configuration manager. The engine
// reads a fresh snapshot on every call, so a concurrent config hot-reload
// is always reflected in the next invocation, never mid-computation.
func NewEngine(config *fusionconfig.Manager) *Engine {
	return &Engine{config: config}
}

// RunDaily fuses one subject-date's raw per-sensor daily records.
func (e *Engine) RunDaily(owner string, date time.Time, records []canonical.DailyRecord) (canonical.DailyRecord, canonical.FusionResult, error) {
	return FuseDaily(e.config.Get(), owner, date, records)
}

// RunSleep matches raw per-sensor sleep records into sessions and fuses
// each session independently, so a night-plus-nap day yields two distinct
// fused sleep records.
func (e *Engine) RunSleep(owner string, date time.Time, sessions []canonical.SleepRecord) ([]canonical.SleepRecord, []canonical.FusionResult, error) {
	cfg := e.config.Get()
	groups := sleepmatch.MatchForDate(sessions, date, cfg.SleepMatching)

	fusedRecords := make([]canonical.SleepRecord, 0, len(groups))
	fusionResults := make([]canonical.FusionResult, 0, len(groups))
	for _, g := range groups {
		record, result, err := FuseSleep(cfg, owner, date, g)
		if err != nil {
			return nil, nil, err
		}
		fusedRecords = append(fusedRecords, record)
		fusionResults = append(fusionResults, result)
	}
	return fusedRecords, fusionResults, nil
}
