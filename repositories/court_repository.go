package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	List(ctx context.Context) ([]*models.Court, error)
	ListFree(ctx context.Context) ([]*models.Court, error)
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) Create(ctx context.Context, court *models.Court) error {
	if court.ID == "" {
		court.ID = uuid.NewString()
	}
	if court.Name == "" {
		court.Name = court.ID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courts (id, name, current_match_id) VALUES ($1, $2, NULL)`,
		court.ID, court.Name)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrCourtConflict
		}
		return fmt.Errorf("failed to create court: %w", err)
	}
	court.CurrentMatchID = nil
	return nil
}

func (r *postgresCourtRepository) List(ctx context.Context) ([]*models.Court, error) {
	return r.list(ctx, `SELECT id, name, current_match_id FROM courts ORDER BY name ASC, id ASC`)
}

func (r *postgresCourtRepository) ListFree(ctx context.Context) ([]*models.Court, error) {
	return r.list(ctx, `SELECT id, name, current_match_id FROM courts WHERE current_match_id IS NULL ORDER BY name ASC, id ASC`)
}

func (r *postgresCourtRepository) list(ctx context.Context, query string) ([]*models.Court, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts: %w", err)
	}
	defer rows.Close()

	courts := make([]*models.Court, 0)
	for rows.Next() {
		var c models.Court
		if scanErr := rows.Scan(&c.ID, &c.Name, &c.CurrentMatchID); scanErr != nil {
			return nil, fmt.Errorf("failed to scan court row: %w", scanErr)
		}
		courts = append(courts, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during court rows iteration: %w", err)
	}
	return courts, nil
}
