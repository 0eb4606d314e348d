package services

import "errors"

// Общие ошибки сервисов, используются также при маппинге в HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrInvalidCategory         = errors.New("invalid category")
	ErrInvalidStatusTransition = errors.New("invalid match status transition")
	ErrWinnerUndecided         = errors.New("winner cannot be determined from the result")
	ErrNotWalkover             = errors.New("match is not a walkover")

	// Ошибки конфликтов
	ErrCourtConflict  = errors.New("court id already exists")
	ErrPlayerConflict = errors.New("player already exists")

	// Конкретные сущности
	ErrPlayerNotFound = errors.New("player not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrCourtNotFound  = errors.New("court not found")
)
