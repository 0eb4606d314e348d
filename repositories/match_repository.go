package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CompleteMatchParams describes a conditional completion: the match
// must currently be in one of FromStatuses.
type CompleteMatchParams struct {
	MatchID      string
	FromStatuses []models.MatchStatus
	ScoreP1      *int
	ScoreP2      *int
	WinnerID     *string
	CompletedAt  time.Time
}

type MatchRepository interface {
	// CreateBatch persists all matches or none of them.
	CreateBatch(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	// List returns matches oldest first (created_at, then id).
	List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error)
	Start(ctx context.Context, id string, at time.Time) (*models.Match, error)
	// Complete finishes the match and frees its court in one atomic step.
	Complete(ctx context.Context, params CompleteMatchParams) (*models.Match, error)
	// FillSide sets a side of a waiting match, used when a winner advances.
	FillSide(ctx context.Context, id string, side int, playerIDs []string, at time.Time) error
}

const matchColumns = `id, bracket_id, tournament_type, division, round, match_number, status, court_id,
	player1_id, player2_id, player3_id, player4_id, player5_id, player6_id,
	score_p1, score_p2, winner_id, is_walkover, next_match_id, winner_to_slot,
	started_at, completed_at, created_at, updated_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.BracketID, &m.TournamentType, &m.Division, &m.Round, &m.MatchNumber, &m.Status, &m.CourtID,
		&m.Player1ID, &m.Player2ID, &m.Player3ID, &m.Player4ID, &m.Player5ID, &m.Player6ID,
		&m.ScoreP1, &m.ScoreP2, &m.WinnerID, &m.IsWalkover, &m.NextMatchID, &m.WinnerToSlot,
		&m.StartedAt, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare match insert: %w", err)
		}
		defer stmt.Close()

		for _, m := range matches {
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			_, err := stmt.ExecContext(ctx,
				m.ID, m.BracketID, m.TournamentType, m.Division, m.Round, m.MatchNumber, m.Status, m.CourtID,
				m.Player1ID, m.Player2ID, m.Player3ID, m.Player4ID, m.Player5ID, m.Player6ID,
				m.ScoreP1, m.ScoreP2, m.WinnerID, m.IsWalkover, m.NextMatchID, m.WinnerToSlot,
				m.StartedAt, m.CompletedAt, m.CreatedAt, m.UpdatedAt,
			)
			if err != nil {
				return r.handleMatchError(fmt.Errorf("failed to insert match %s (R%dM%d): %w", m.ID, m.Round, m.MatchNumber, err))
			}
		}
		return nil
	})
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE 1 = 1`)

	args := []interface{}{}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, pq.Array(statuses))
		queryBuilder.WriteString(" AND status = ANY($" + strconv.Itoa(len(args)) + ")")
	}
	if filter.Category != nil {
		args = append(args, filter.Category.TournamentType, filter.Category.Division)
		queryBuilder.WriteString(" AND tournament_type = $" + strconv.Itoa(len(args)-1))
		queryBuilder.WriteString(" AND division = $" + strconv.Itoa(len(args)))
	}
	if filter.BracketID != nil {
		args = append(args, *filter.BracketID)
		queryBuilder.WriteString(" AND bracket_id = $" + strconv.Itoa(len(args)))
	}
	queryBuilder.WriteString(" ORDER BY created_at ASC, round ASC, match_number ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Start(ctx context.Context, id string, at time.Time) (*models.Match, error) {
	query := `
		UPDATE matches
		SET status = $1, updated_at = $2, started_at = COALESCE(started_at, $2)
		WHERE id = $3 AND status = $4
		RETURNING ` + matchColumns

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, models.MatchStatusPlaying, at, id, models.MatchStatusCalling))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.missOrConflict(ctx, r.db, id)
		}
		return nil, fmt.Errorf("failed to start match %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) Complete(ctx context.Context, params CompleteMatchParams) (*models.Match, error) {
	from := make([]string, 0, len(params.FromStatuses))
	for _, s := range params.FromStatuses {
		from = append(from, string(s))
	}

	var completed *models.Match
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE matches
			SET status = $1, score_p1 = $2, score_p2 = $3, winner_id = $4,
			    completed_at = $5, updated_at = $5
			WHERE id = $6 AND status = ANY($7)
			RETURNING ` + matchColumns

		m, err := scanMatch(tx.QueryRowContext(ctx, query,
			models.MatchStatusCompleted, params.ScoreP1, params.ScoreP2, params.WinnerID,
			params.CompletedAt, params.MatchID, pq.Array(from),
		))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.missOrConflict(ctx, tx, params.MatchID)
			}
			return fmt.Errorf("failed to complete match %s: %w", params.MatchID, err)
		}

		if m.CourtID != nil {
			// release only if the court still points at this match
			_, err = tx.ExecContext(ctx,
				`UPDATE courts SET current_match_id = NULL WHERE id = $1 AND current_match_id = $2`,
				*m.CourtID, m.ID)
			if err != nil {
				return fmt.Errorf("failed to release court %s: %w", *m.CourtID, err)
			}
		}
		completed = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (r *postgresMatchRepository) FillSide(ctx context.Context, id string, side int, playerIDs []string, at time.Time) error {
	m := &models.Match{}
	m.SetSide(side, playerIDs)

	var query string
	var args []interface{}
	if side == models.SideB {
		query = `UPDATE matches SET player3_id = $1, player4_id = $2, player6_id = $3, updated_at = $4 WHERE id = $5 AND status = $6`
		args = []interface{}{m.Player3ID, m.Player4ID, m.Player6ID, at, id, models.MatchStatusWaiting}
	} else {
		query = `UPDATE matches SET player1_id = $1, player2_id = $2, player5_id = $3, updated_at = $4 WHERE id = $5 AND status = $6`
		args = []interface{}{m.Player1ID, m.Player2ID, m.Player5ID, at, id, models.MatchStatusWaiting}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to fill side %d of match %s: %w", side, id, err)
	}
	if err := checkAffectedRows(result, ErrMatchStatusConflict); err != nil {
		if errors.Is(err, ErrMatchStatusConflict) {
			return r.missOrConflict(ctx, r.db, id)
		}
		return err
	}
	return nil
}

// missOrConflict tells apart a missing match from one in the wrong status
// after a conditional write touched no rows.
func (r *postgresMatchRepository) missOrConflict(ctx context.Context, exec SQLExecutor, id string) error {
	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check match %s: %w", id, err)
	}
	if !exists {
		return ErrMatchNotFound
	}
	return ErrMatchStatusConflict
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "matches_pkey":
			return fmt.Errorf("match id conflict: %w", err)
		case "matches_active_court_key":
			return ErrCourtTaken
		}
	}
	return err
}
