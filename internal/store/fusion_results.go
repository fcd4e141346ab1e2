package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/claude/vitalfusion/internal/canonical"
)

// InsertFusionResult upserts one fusion result, keyed by owner, date,
// metric group and config version.
func (db *DB) InsertFusionResult(ctx context.Context, r canonical.FusionResult) error {
	metricsJSON, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	conflictsJSON, err := json.Marshal(r.ConflictedFields)
	if err != nil {
		return fmt.Errorf("marshaling conflicted fields: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO fusion_results (id, owner, date, metric_group, config_version, computed_at, metrics, sources_contrib, conflicted_fields)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (owner, date, metric_group, config_version) DO UPDATE SET
			computed_at = EXCLUDED.computed_at,
			metrics = EXCLUDED.metrics,
			sources_contrib = EXCLUDED.sources_contrib,
			conflicted_fields = EXCLUDED.conflicted_fields`,
		r.ID, r.Owner, r.Date, r.MetricGroup, r.ConfigVersion, r.ComputedAt,
		metricsJSON, r.SourcesContrib, conflictsJSON)
	if err != nil {
		return fmt.Errorf("inserting fusion result: %w", err)
	}
	return nil
}

// QueryFusionResults retrieves fusion results for an owner within a date
// range, ordered oldest first.
func (db *DB) QueryFusionResults(ctx context.Context, owner string, metricGroup string, start, end time.Time) ([]canonical.FusionResult, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, owner, date, metric_group, config_version, computed_at, metrics, sources_contrib, conflicted_fields
		FROM fusion_results
		WHERE owner = $1 AND metric_group = $2 AND date >= $3 AND date < $4
		ORDER BY date ASC`,
		owner, metricGroup, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying fusion results: %w", err)
	}
	defer rows.Close()

	return scanFusionResults(rows)
}

func scanFusionResults(rows pgx.Rows) ([]canonical.FusionResult, error) {
	var out []canonical.FusionResult
	for rows.Next() {
		var r canonical.FusionResult
		var metricsJSON, conflictsJSON []byte
		if err := rows.Scan(&r.ID, &r.Owner, &r.Date, &r.MetricGroup, &r.ConfigVersion, &r.ComputedAt,
			&metricsJSON, &r.SourcesContrib, &conflictsJSON); err != nil {
			return nil, fmt.Errorf("scanning fusion result: %w", err)
		}
		if err := json.Unmarshal(metricsJSON, &r.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshaling metrics: %w", err)
		}
		if err := json.Unmarshal(conflictsJSON, &r.ConflictedFields); err != nil {
			return nil, fmt.Errorf("unmarshaling conflicted fields: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
