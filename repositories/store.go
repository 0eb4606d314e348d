package repositories

import (
	"database/sql"
	"errors"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerInvalid  = errors.New("player data violates a constraint")
	ErrMatchNotFound  = errors.New("match not found")
	ErrCourtNotFound  = errors.New("court not found")
	ErrCourtConflict  = errors.New("court id already exists")

	// ErrMatchStatusConflict means a conditional status write found the
	// match in a different status than required.
	ErrMatchStatusConflict = errors.New("match is not in the expected status")
	// ErrCourtTaken and ErrMatchTaken are the two ways a court claim can
	// lose a race against another scheduler.
	ErrCourtTaken = errors.New("court is already occupied")
	ErrMatchTaken = errors.New("match is no longer waiting")
)

// Store groups the repositories of one backing document store.
type Store struct {
	Players   PlayerRepository
	Matches   MatchRepository
	Courts    CourtRepository
	Dispatch  DispatchRepository
	System    SystemRepository
	Durations DurationRepository
}

func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Players:   NewPostgresPlayerRepository(db),
		Matches:   NewPostgresMatchRepository(db),
		Courts:    NewPostgresCourtRepository(db),
		Dispatch:  NewPostgresDispatchRepository(db),
		System:    NewPostgresSystemRepository(db),
		Durations: NewPostgresDurationRepository(db),
	}
}
