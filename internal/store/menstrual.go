package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/vitalfusion/internal/canonical"
)

// InsertCycleRecord records a historical (or in-progress) cycle.
func (db *DB) InsertCycleRecord(ctx context.Context, owner string, c canonical.CycleRecord) error {
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO cycle_records (id, owner, period_start, period_end, cycle_length_days, ovulation_date, is_complete)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		id, owner, c.PeriodStart, c.PeriodEnd, c.CycleLengthDays, c.OvulationDate, c.IsComplete)
	if err != nil {
		return fmt.Errorf("inserting cycle record: %w", err)
	}
	return nil
}

// QueryCycleHistory returns every recorded cycle for an owner, oldest
// first — the shape the Cycle Predictor expects as input.
func (db *DB) QueryCycleHistory(ctx context.Context, owner string) ([]canonical.CycleRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, period_start, period_end, cycle_length_days, ovulation_date, is_complete
		FROM cycle_records
		WHERE owner = $1
		ORDER BY period_start ASC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("querying cycle history: %w", err)
	}
	defer rows.Close()

	var out []canonical.CycleRecord
	for rows.Next() {
		var c canonical.CycleRecord
		if err := rows.Scan(&c.ID, &c.PeriodStart, &c.PeriodEnd, &c.CycleLengthDays, &c.OvulationDate, &c.IsComplete); err != nil {
			return nil, fmt.Errorf("scanning cycle record: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertSymptomLog stores one day's self-reported symptom log.
func (db *DB) UpsertSymptomLog(ctx context.Context, owner string, l canonical.SymptomLog) error {
	symptomsJSON, err := json.Marshal(l.Symptoms)
	if err != nil {
		return fmt.Errorf("marshaling symptoms: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO symptom_logs (owner, date, cycle_day, phase, symptoms, hrv_ms, rhr_bpm, sleep_minutes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (owner, date) DO UPDATE SET
			cycle_day = EXCLUDED.cycle_day,
			phase = EXCLUDED.phase,
			symptoms = EXCLUDED.symptoms,
			hrv_ms = EXCLUDED.hrv_ms,
			rhr_bpm = EXCLUDED.rhr_bpm,
			sleep_minutes = EXCLUDED.sleep_minutes`,
		owner, l.Date, l.CycleDay, l.Phase, symptomsJSON, l.HRVMs, l.RHRBPM, l.SleepMinutes)
	if err != nil {
		return fmt.Errorf("upserting symptom log: %w", err)
	}
	return nil
}

// QuerySymptomLogs returns every logged symptom entry for an owner, oldest
// first — the shape the Symptom Correlator expects as input.
func (db *DB) QuerySymptomLogs(ctx context.Context, owner string) ([]canonical.SymptomLog, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT date, cycle_day, phase, symptoms, hrv_ms, rhr_bpm, sleep_minutes
		FROM symptom_logs
		WHERE owner = $1
		ORDER BY date ASC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("querying symptom logs: %w", err)
	}
	defer rows.Close()

	var out []canonical.SymptomLog
	for rows.Next() {
		var l canonical.SymptomLog
		var symptomsJSON []byte
		if err := rows.Scan(&l.Date, &l.CycleDay, &l.Phase, &symptomsJSON, &l.HRVMs, &l.RHRBPM, &l.SleepMinutes); err != nil {
			return nil, fmt.Errorf("scanning symptom log: %w", err)
		}
		if err := json.Unmarshal(symptomsJSON, &l.Symptoms); err != nil {
			return nil, fmt.Errorf("unmarshaling symptoms: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
