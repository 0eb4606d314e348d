package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/google/uuid"
)

// DurationRepository is append-only.
type DurationRepository interface {
	Append(ctx context.Context, sample *models.DurationSample) error
	// ListRecent returns at most perCategory newest samples of every
	// category, newest first within a category.
	ListRecent(ctx context.Context, perCategory int) ([]*models.DurationSample, error)
}

type postgresDurationRepository struct {
	db *sql.DB
}

func NewPostgresDurationRepository(db *sql.DB) DurationRepository {
	return &postgresDurationRepository{db: db}
}

func (r *postgresDurationRepository) Append(ctx context.Context, sample *models.DurationSample) error {
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO duration_samples (id, category, duration_minutes, recorded_at) VALUES ($1, $2, $3, $4)`,
		sample.ID, sample.Category, sample.DurationMinutes, sample.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to append duration sample: %w", err)
	}
	return nil
}

func (r *postgresDurationRepository) ListRecent(ctx context.Context, perCategory int) ([]*models.DurationSample, error) {
	query := `
		SELECT id, category, duration_minutes, recorded_at
		FROM (
			SELECT id, category, duration_minutes, recorded_at,
			       row_number() OVER (PARTITION BY category ORDER BY recorded_at DESC, id DESC) AS rn
			FROM duration_samples
		) ranked
		WHERE rn <= $1
		ORDER BY category ASC, recorded_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, perCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to query duration samples: %w", err)
	}
	defer rows.Close()

	samples := make([]*models.DurationSample, 0)
	for rows.Next() {
		var s models.DurationSample
		if scanErr := rows.Scan(&s.ID, &s.Category, &s.DurationMinutes, &s.RecordedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan duration sample: %w", scanErr)
		}
		samples = append(samples, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during duration sample iteration: %w", err)
	}
	return samples, nil
}
