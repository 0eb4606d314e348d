package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/lib/pq"
)

const (
	systemConfigID  = "system"
	priorityBoostID = "active"
)

// SystemRepository holds the two singleton documents: config/system
// and the priority boost record.
type SystemRepository interface {
	// GetConfig returns the zero config (dispatch off, no allow-list)
	// when the document does not exist yet.
	GetConfig(ctx context.Context) (*models.SystemConfig, error)
	SaveConfig(ctx context.Context, cfg *models.SystemConfig) error
	// GetBoost returns nil when no boost was ever installed.
	GetBoost(ctx context.Context) (*models.PriorityBoost, error)
	SaveBoost(ctx context.Context, boost *models.PriorityBoost) error
}

type postgresSystemRepository struct {
	db *sql.DB
}

func NewPostgresSystemRepository(db *sql.DB) SystemRepository {
	return &postgresSystemRepository{db: db}
}

func (r *postgresSystemRepository) GetConfig(ctx context.Context) (*models.SystemConfig, error) {
	cfg := &models.SystemConfig{}
	var enabled []string
	err := r.db.QueryRowContext(ctx,
		`SELECT auto_dispatch_enabled, enabled_tournaments, updated_at FROM system_config WHERE id = $1`,
		systemConfigID,
	).Scan(&cfg.AutoDispatchEnabled, pq.Array(&enabled), &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.SystemConfig{EnabledTournaments: []string{}}, nil
		}
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}
	if enabled == nil {
		enabled = []string{}
	}
	cfg.EnabledTournaments = enabled
	return cfg, nil
}

func (r *postgresSystemRepository) SaveConfig(ctx context.Context, cfg *models.SystemConfig) error {
	enabled := cfg.EnabledTournaments
	if enabled == nil {
		enabled = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_config (id, auto_dispatch_enabled, enabled_tournaments, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET auto_dispatch_enabled = EXCLUDED.auto_dispatch_enabled,
		    enabled_tournaments = EXCLUDED.enabled_tournaments,
		    updated_at = EXCLUDED.updated_at`,
		systemConfigID, cfg.AutoDispatchEnabled, pq.Array(enabled), cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save system config: %w", err)
	}
	return nil
}

func (r *postgresSystemRepository) GetBoost(ctx context.Context) (*models.PriorityBoost, error) {
	b := &models.PriorityBoost{}
	err := r.db.QueryRowContext(ctx,
		`SELECT category, activated_at FROM priority_boosts WHERE id = $1`, priorityBoostID,
	).Scan(&b.Category, &b.ActivatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read priority boost: %w", err)
	}
	return b, nil
}

// SaveBoost overwrites the single boost record in place.
func (r *postgresSystemRepository) SaveBoost(ctx context.Context, boost *models.PriorityBoost) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO priority_boosts (id, category, activated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET category = EXCLUDED.category, activated_at = EXCLUDED.activated_at`,
		priorityBoostID, boost.Category, boost.ActivatedAt)
	if err != nil {
		return fmt.Errorf("failed to save priority boost: %w", err)
	}
	return nil
}
