package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
)

type CreatePlayerInput struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name"`
	Gender      models.Gender `json:"gender"`
	Division    int           `json:"division"`
	TotalPoints int           `json:"total_points"`
	// IsActive defaults to true when omitted.
	IsActive *bool `json:"is_active,omitempty"`
}

type CreateCourtInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type UpdateSystemConfigInput struct {
	AutoDispatchEnabled bool     `json:"auto_dispatch_enabled"`
	EnabledTournaments  []string `json:"enabled_tournaments"`
}

// AdminService covers roster, court and system configuration management.
type AdminService interface {
	GetSystemConfig(ctx context.Context) (*models.SystemConfig, error)
	UpdateSystemConfig(ctx context.Context, input UpdateSystemConfigInput) (*models.SystemConfig, error)

	CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	ListPlayers(ctx context.Context, filter models.PlayerFilter) ([]*models.Player, error)
	SetPlayerActive(ctx context.Context, id string, active bool) (*models.Player, error)

	CreateCourt(ctx context.Context, input CreateCourtInput) (*models.Court, error)
	ListCourts(ctx context.Context) ([]*models.Court, error)
}

type adminService struct {
	players repositories.PlayerRepository
	courts  repositories.CourtRepository
	system  repositories.SystemRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewAdminService(store *repositories.Store, logger *slog.Logger) AdminService {
	return &adminService{
		players: store.Players,
		courts:  store.Courts,
		system:  store.System,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *adminService) GetSystemConfig(ctx context.Context) (*models.SystemConfig, error) {
	cfg, err := s.system.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}
	return cfg, nil
}

// UpdateSystemConfig accepts allow-list entries as a bare type ("MD") or
// a category key ("MD-2"); both are normalised to upper case.
func (s *adminService) UpdateSystemConfig(ctx context.Context, input UpdateSystemConfigInput) (*models.SystemConfig, error) {
	enabled := make([]string, 0, len(input.EnabledTournaments))
	seen := make(map[string]bool)
	for _, raw := range input.EnabledTournaments {
		entry, err := normaliseAllowEntry(raw)
		if err != nil {
			return nil, err
		}
		if seen[entry] {
			continue
		}
		seen[entry] = true
		enabled = append(enabled, entry)
	}

	cfg := &models.SystemConfig{
		AutoDispatchEnabled: input.AutoDispatchEnabled,
		EnabledTournaments:  enabled,
		UpdatedAt:           s.now().UTC(),
	}
	if err := s.system.SaveConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save system config: %w", err)
	}
	s.logger.Info("system config updated",
		slog.Bool("auto_dispatch_enabled", cfg.AutoDispatchEnabled),
		slog.Any("enabled_tournaments", cfg.EnabledTournaments))
	return cfg, nil
}

func normaliseAllowEntry(raw string) (string, error) {
	entry := strings.ToUpper(strings.TrimSpace(raw))
	if !strings.Contains(entry, "-") {
		if !models.TournamentType(entry).IsValid() {
			return "", fmt.Errorf("%w: unknown tournament type %q", ErrInvalidCategory, raw)
		}
		return entry, nil
	}
	cat, err := models.ParseCategory(entry)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCategory, err)
	}
	return cat.Key(), nil
}

func (s *adminService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	case !input.Gender.IsValid():
		return nil, fmt.Errorf("%w: gender must be male or female, got %q", ErrValidationFailed, input.Gender)
	case input.Division <= 0:
		return nil, fmt.Errorf("%w: division must be a positive integer", ErrValidationFailed)
	case input.TotalPoints < 0:
		return nil, fmt.Errorf("%w: total points cannot be negative", ErrValidationFailed)
	}

	p := &models.Player{
		ID:          strings.TrimSpace(input.ID),
		Name:        name,
		Gender:      input.Gender,
		Division:    input.Division,
		IsActive:    input.IsActive == nil || *input.IsActive,
		TotalPoints: input.TotalPoints,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.players.Create(ctx, p); err != nil {
		return nil, handleRepositoryError(err, "failed to create player %s", name)
	}
	return p, nil
}

func (s *adminService) ListPlayers(ctx context.Context, filter models.PlayerFilter) ([]*models.Player, error) {
	if filter.Gender != nil && !filter.Gender.IsValid() {
		return nil, fmt.Errorf("%w: unknown gender %q", ErrValidationFailed, *filter.Gender)
	}
	players, err := s.players.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	if players == nil {
		return []*models.Player{}, nil
	}
	return players, nil
}

func (s *adminService) SetPlayerActive(ctx context.Context, id string, active bool) (*models.Player, error) {
	if err := s.players.SetActive(ctx, id, active); err != nil {
		return nil, handleRepositoryError(err, "failed to update player %s", id)
	}
	p, err := s.players.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to reload player %s", id)
	}
	return p, nil
}

func (s *adminService) CreateCourt(ctx context.Context, input CreateCourtInput) (*models.Court, error) {
	c := &models.Court{ID: strings.TrimSpace(input.ID), Name: strings.TrimSpace(input.Name)}
	if c.ID == "" && c.Name == "" {
		return nil, fmt.Errorf("%w: court id or name is required", ErrValidationFailed)
	}
	if err := s.courts.Create(ctx, c); err != nil {
		return nil, handleRepositoryError(err, "failed to create court %s", c.Name)
	}
	s.logger.Info("court created", slog.String("court_id", c.ID), slog.String("name", c.Name))
	return c, nil
}

func (s *adminService) ListCourts(ctx context.Context) ([]*models.Court, error) {
	courts, err := s.courts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	if courts == nil {
		return []*models.Court{}, nil
	}
	return courts, nil
}
