package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
)

type CompleteMatchInput struct {
	ScoreP1 *int `json:"score_p1"`
	ScoreP2 *int `json:"score_p2"`
	// WinnerSide is 1 (side A) or 2 (side B); 0 derives it from the score.
	WinnerSide int `json:"winner_side"`
}

type MatchService interface {
	List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error)
	GetByID(ctx context.Context, id string) (*models.Match, error)
	Start(ctx context.Context, id string) (*models.Match, error)
	Complete(ctx context.Context, id string, input CompleteMatchInput) (*models.Match, error)
	// ResolveWalkover completes a walkover slot in favour of its only
	// side and moves that side into the next round.
	ResolveWalkover(ctx context.Context, id string) (*models.Match, error)
}

type matchService struct {
	matches repositories.MatchRepository
	tracker *DurationTracker
	logger  *slog.Logger
	now     func() time.Time
}

func NewMatchService(matches repositories.MatchRepository, tracker *DurationTracker, logger *slog.Logger) MatchService {
	return &matchService{matches: matches, tracker: tracker, logger: logger, now: time.Now}
}

func (s *matchService) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown match status %q", ErrValidationFailed, st)
		}
	}
	matches, err := s.matches.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if matches == nil {
		return []*models.Match{}, nil
	}
	return matches, nil
}

func (s *matchService) GetByID(ctx context.Context, id string) (*models.Match, error) {
	m, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get match %s", id)
	}
	return m, nil
}

func (s *matchService) Start(ctx context.Context, id string) (*models.Match, error) {
	m, err := s.matches.Start(ctx, id, s.now().UTC())
	if err != nil {
		return nil, handleRepositoryError(err, "failed to start match %s", id)
	}
	s.logger.Info("match started", slog.String("match_id", m.ID), slog.String("court_id", derefString(m.CourtID)))
	return m, nil
}

func (s *matchService) Complete(ctx context.Context, id string, input CompleteMatchInput) (*models.Match, error) {
	current, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get match %s", id)
	}
	if !current.Status.OccupiesCourt() || !isValidStatusTransition(current.Status, models.MatchStatusCompleted) {
		return nil, fmt.Errorf("%w: match %s is %s", ErrInvalidStatusTransition, id, current.Status)
	}

	side, err := winnerSide(input)
	if err != nil {
		return nil, err
	}
	winners := current.Side(side)
	if len(winners) == 0 {
		return nil, fmt.Errorf("%w: side %d of match %s has no players", ErrWinnerUndecided, side, id)
	}

	completed, err := s.matches.Complete(ctx, repositories.CompleteMatchParams{
		MatchID:      id,
		FromStatuses: []models.MatchStatus{models.MatchStatusCalling, models.MatchStatusPlaying},
		ScoreP1:      input.ScoreP1,
		ScoreP2:      input.ScoreP2,
		WinnerID:     &winners[0],
		CompletedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to complete match %s", id)
	}

	// образец длительности не критичен: ошибка не отменяет завершение
	if _, err := s.tracker.Record(ctx, completed); err != nil {
		s.logger.Warn("failed to record match duration", slog.String("match_id", id), slog.Any("error", err))
	}

	if err := s.advance(ctx, completed, winners); err != nil {
		return completed, err
	}
	s.logger.Info("match completed",
		slog.String("match_id", id),
		slog.String("category", completed.Category().Key()),
		slog.Int("winner_side", side))
	return completed, nil
}

func (s *matchService) ResolveWalkover(ctx context.Context, id string) (*models.Match, error) {
	current, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get match %s", id)
	}
	if !current.IsWalkover {
		return nil, fmt.Errorf("%w: %s", ErrNotWalkover, id)
	}
	if current.Status != models.MatchStatusWaiting {
		return nil, fmt.Errorf("%w: walkover %s is %s", ErrInvalidStatusTransition, id, current.Status)
	}

	winners := current.SideA()
	if len(winners) == 0 {
		winners = current.SideB()
	}
	if len(winners) == 0 {
		return nil, fmt.Errorf("%w: walkover %s has no players", ErrWinnerUndecided, id)
	}

	completed, err := s.matches.Complete(ctx, repositories.CompleteMatchParams{
		MatchID:      id,
		FromStatuses: []models.MatchStatus{models.MatchStatusWaiting},
		WinnerID:     &winners[0],
		CompletedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to resolve walkover %s", id)
	}
	if err := s.advance(ctx, completed, winners); err != nil {
		return completed, err
	}
	s.logger.Info("walkover resolved", slog.String("match_id", id), slog.String("winner_id", winners[0]))
	return completed, nil
}

// advance places the winning side into the linked next-round slot.
func (s *matchService) advance(ctx context.Context, m *models.Match, winners []string) error {
	if m.NextMatchID == nil || m.WinnerToSlot == nil {
		return nil
	}
	err := s.matches.FillSide(ctx, *m.NextMatchID, *m.WinnerToSlot, winners, s.now().UTC())
	if err != nil {
		return handleRepositoryError(err, "match %s completed but advancing to %s failed", m.ID, *m.NextMatchID)
	}
	return nil
}

func winnerSide(input CompleteMatchInput) (int, error) {
	switch input.WinnerSide {
	case models.SideA, models.SideB:
		return input.WinnerSide, nil
	case 0:
	default:
		return 0, fmt.Errorf("%w: winner_side must be 1 or 2, got %d", ErrValidationFailed, input.WinnerSide)
	}

	if input.ScoreP1 == nil || input.ScoreP2 == nil {
		return 0, fmt.Errorf("%w: either winner_side or both scores are required", ErrWinnerUndecided)
	}
	if *input.ScoreP1 < 0 || *input.ScoreP2 < 0 {
		return 0, fmt.Errorf("%w: scores cannot be negative", ErrValidationFailed)
	}
	switch {
	case *input.ScoreP1 > *input.ScoreP2:
		return models.SideA, nil
	case *input.ScoreP2 > *input.ScoreP1:
		return models.SideB, nil
	}
	return 0, fmt.Errorf("%w: scores are tied", ErrWinnerUndecided)
}
