package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисов.
func handleRepositoryError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return fmt.Errorf("%s: %w", msg, ErrPlayerNotFound)
	case errors.Is(err, repositories.ErrMatchNotFound):
		return fmt.Errorf("%s: %w", msg, ErrMatchNotFound)
	case errors.Is(err, repositories.ErrCourtNotFound):
		return fmt.Errorf("%s: %w", msg, ErrCourtNotFound)
	case errors.Is(err, repositories.ErrCourtConflict):
		return fmt.Errorf("%s: %w", msg, ErrCourtConflict)
	case errors.Is(err, repositories.ErrPlayerInvalid):
		return fmt.Errorf("%s: %w", msg, ErrPlayerConflict)
	case errors.Is(err, repositories.ErrMatchStatusConflict):
		return fmt.Errorf("%s: %w", msg, ErrInvalidStatusTransition)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

func isValidStatusTransition(current, next models.MatchStatus) bool {
	return current.CanMoveTo(next)
}

// openStatuses are the statuses of matches that still need a court.
var openStatuses = []models.MatchStatus{
	models.MatchStatusWaiting,
	models.MatchStatusCalling,
	models.MatchStatusPlaying,
}
