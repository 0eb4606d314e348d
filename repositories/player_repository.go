package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PlayerRepository interface {
	Create(ctx context.Context, p *models.Player) error
	GetByID(ctx context.Context, id string) (*models.Player, error)
	List(ctx context.Context, filter models.PlayerFilter) ([]*models.Player, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `
		INSERT INTO players (id, name, gender, division, is_active, total_points)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Gender, p.Division, p.IsActive, p.TotalPoints,
	).Scan(&p.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505", "23514": // unique_violation, check_violation
				return fmt.Errorf("%w: %s", ErrPlayerInvalid, pqErr.Message)
			}
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	query := `
		SELECT id, name, gender, division, is_active, total_points, created_at
		FROM players
		WHERE id = $1`

	p := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Gender, &p.Division, &p.IsActive, &p.TotalPoints, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player by id %s: %w", id, err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter models.PlayerFilter) ([]*models.Player, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, name, gender, division, is_active, total_points, created_at
		FROM players
		WHERE 1 = 1`)

	args := []interface{}{}
	if filter.Division != nil {
		args = append(args, *filter.Division)
		queryBuilder.WriteString(" AND division = $" + strconv.Itoa(len(args)))
	}
	if filter.Gender != nil {
		args = append(args, *filter.Gender)
		queryBuilder.WriteString(" AND gender = $" + strconv.Itoa(len(args)))
	}
	if filter.ActiveOnly {
		queryBuilder.WriteString(" AND is_active")
	}
	queryBuilder.WriteString(" ORDER BY total_points DESC, created_at ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.Gender, &p.Division, &p.IsActive, &p.TotalPoints, &p.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		players = append(players, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE players SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update player %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
