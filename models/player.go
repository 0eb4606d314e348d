package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Player представляет игрока из ростера турнира.
type Player struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Gender      Gender    `json:"gender" db:"gender"`
	Division    int       `json:"division" db:"division"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	TotalPoints int       `json:"total_points" db:"total_points"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type PlayerFilter struct {
	Division   *int
	Gender     *Gender
	ActiveOnly bool
}

func (f PlayerFilter) Matches(p *Player) bool {
	if p == nil {
		return false
	}
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if f.Division != nil && p.Division != *f.Division {
		return false
	}
	if f.Gender != nil && p.Gender != *f.Gender {
		return false
	}
	return true
}
