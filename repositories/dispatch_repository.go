package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/lib/pq"
)

// DispatchRepository performs the court claim, the only write that
// competing schedulers race on.
type DispatchRepository interface {
	// ClaimCourt assigns a waiting match to a free court atomically.
	// ErrCourtTaken: the court was no longer free.
	// ErrMatchTaken: the match was no longer waiting; the court stays free.
	ClaimCourt(ctx context.Context, courtID, matchID string, at time.Time) error
}

type postgresDispatchRepository struct {
	db *sql.DB
}

func NewPostgresDispatchRepository(db *sql.DB) DispatchRepository {
	return &postgresDispatchRepository{db: db}
}

func (r *postgresDispatchRepository) ClaimCourt(ctx context.Context, courtID, matchID string, at time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		// court first: compare-and-set on "court is free"
		result, err := tx.ExecContext(ctx,
			`UPDATE courts SET current_match_id = $1 WHERE id = $2 AND current_match_id IS NULL`,
			matchID, courtID)
		if err != nil {
			return r.handleClaimError(fmt.Errorf("failed to claim court %s: %w", courtID, err))
		}
		if err := checkAffectedRows(result, ErrCourtTaken); err != nil {
			return err
		}

		// then the match; a miss rolls the court claim back
		result, err = tx.ExecContext(ctx, `
			UPDATE matches
			SET status = $1, court_id = $2, updated_at = $3, started_at = $3
			WHERE id = $4 AND status = $5 AND court_id IS NULL`,
			models.MatchStatusCalling, courtID, at, matchID, models.MatchStatusWaiting)
		if err != nil {
			return r.handleClaimError(fmt.Errorf("failed to claim match %s: %w", matchID, err))
		}
		return checkAffectedRows(result, ErrMatchTaken)
	})
}

func (r *postgresDispatchRepository) handleClaimError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Constraint == "courts_current_match_id_key":
			return ErrMatchTaken
		case pqErr.Constraint == "matches_active_court_key":
			return ErrCourtTaken
		case pqErr.Code == "40001": // serialization_failure
			return ErrCourtTaken
		}
	}
	return err
}
