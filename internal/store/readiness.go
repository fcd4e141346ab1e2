package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/vitalfusion/internal/canonical"
)

// UpsertReadinessScore stores the most recent readiness score for an
// owner-date pair, overwriting any prior computation.
func (db *DB) UpsertReadinessScore(ctx context.Context, s canonical.ReadinessScore) error {
	componentsJSON, err := json.Marshal(s.Components)
	if err != nil {
		return fmt.Errorf("marshaling readiness components: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO readiness_scores (owner, date, score, band, available, components, computed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (owner, date) DO UPDATE SET
			score = EXCLUDED.score,
			band = EXCLUDED.band,
			available = EXCLUDED.available,
			components = EXCLUDED.components,
			computed_at = EXCLUDED.computed_at`,
		s.Owner, s.Date, s.Score, s.Band, s.Available, componentsJSON, s.ComputedAt)
	if err != nil {
		return fmt.Errorf("upserting readiness score: %w", err)
	}
	return nil
}

// QueryReadinessScores retrieves readiness scores for an owner within a
// date range, oldest first.
func (db *DB) QueryReadinessScores(ctx context.Context, owner string, start, end time.Time) ([]canonical.ReadinessScore, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT owner, date, score, band, available, components, computed_at
		FROM readiness_scores
		WHERE owner = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC`,
		owner, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying readiness scores: %w", err)
	}
	defer rows.Close()

	var out []canonical.ReadinessScore
	for rows.Next() {
		var s canonical.ReadinessScore
		var componentsJSON []byte
		if err := rows.Scan(&s.Owner, &s.Date, &s.Score, &s.Band, &s.Available, &componentsJSON, &s.ComputedAt); err != nil {
			return nil, fmt.Errorf("scanning readiness score: %w", err)
		}
		if err := json.Unmarshal(componentsJSON, &s.Components); err != nil {
			return nil, fmt.Errorf("unmarshaling readiness components: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
