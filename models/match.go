package models

import "time"

type MatchStatus string

const (
	MatchStatusWaiting   MatchStatus = "waiting"
	MatchStatusCalling   MatchStatus = "calling"
	MatchStatusPlaying   MatchStatus = "playing"
	MatchStatusCompleted MatchStatus = "completed"
)

func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchStatusWaiting, MatchStatusCalling, MatchStatusPlaying, MatchStatusCompleted:
		return true
	}
	return false
}

// OccupiesCourt is true for calling and playing.
func (s MatchStatus) OccupiesCourt() bool {
	return s == MatchStatusCalling || s == MatchStatusPlaying
}

var matchStatusOrder = map[MatchStatus]int{
	MatchStatusWaiting:   0,
	MatchStatusCalling:   1,
	MatchStatusPlaying:   2,
	MatchStatusCompleted: 3,
}

// CanMoveTo reports whether next is strictly ahead of s.
func (s MatchStatus) CanMoveTo(next MatchStatus) bool {
	from, ok1 := matchStatusOrder[s]
	to, ok2 := matchStatusOrder[next]
	return ok1 && ok2 && to > from
}

const (
	SideA = 1
	SideB = 2
)

// Match - матч турнира. Сторона A занимает слоты 1, 2 и 5, сторона B - 3, 4 и 6.
type Match struct {
	ID             string         `json:"id" db:"id"`
	BracketID      string         `json:"bracket_id" db:"bracket_id"`
	TournamentType TournamentType `json:"tournament_type" db:"tournament_type"`
	Division       int            `json:"division" db:"division"`
	Round          int            `json:"round" db:"round"`
	MatchNumber    int            `json:"match_number" db:"match_number"`
	Status         MatchStatus    `json:"status" db:"status"`
	CourtID        *string        `json:"court_id" db:"court_id"`

	Player1ID *string `json:"player1_id" db:"player1_id"`
	Player2ID *string `json:"player2_id" db:"player2_id"`
	Player3ID *string `json:"player3_id" db:"player3_id"`
	Player4ID *string `json:"player4_id" db:"player4_id"`
	Player5ID *string `json:"player5_id,omitempty" db:"player5_id"`
	Player6ID *string `json:"player6_id,omitempty" db:"player6_id"`

	ScoreP1  *int    `json:"score_p1" db:"score_p1"`
	ScoreP2  *int    `json:"score_p2" db:"score_p2"`
	WinnerID *string `json:"winner_id" db:"winner_id"`

	IsWalkover   bool    `json:"is_walkover" db:"is_walkover"`
	NextMatchID  *string `json:"next_match_id,omitempty" db:"next_match_id"`
	WinnerToSlot *int    `json:"winner_to_slot,omitempty" db:"winner_to_slot"`

	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

func (m *Match) Category() Category {
	return Category{TournamentType: m.TournamentType, Division: m.Division}
}

func (m *Match) SideA() []string {
	return collectIDs(m.Player1ID, m.Player2ID, m.Player5ID)
}

func (m *Match) SideB() []string {
	return collectIDs(m.Player3ID, m.Player4ID, m.Player6ID)
}

// Side returns the players of side (SideA or SideB).
func (m *Match) Side(side int) []string {
	if side == SideB {
		return m.SideB()
	}
	return m.SideA()
}

// SetSide fills the slots of side with ids; missing entries become nil.
func (m *Match) SetSide(side int, ids []string) {
	slots := [3]*string{}
	for i := 0; i < len(ids) && i < 3; i++ {
		id := ids[i]
		slots[i] = &id
	}
	if side == SideB {
		m.Player3ID, m.Player4ID, m.Player6ID = slots[0], slots[1], slots[2]
		return
	}
	m.Player1ID, m.Player2ID, m.Player5ID = slots[0], slots[1], slots[2]
}

// IsResolved reports whether both sides have at least one player.
func (m *Match) IsResolved() bool {
	return m.Player1ID != nil && m.Player3ID != nil
}

func collectIDs(ids ...*string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != nil && *id != "" {
			out = append(out, *id)
		}
	}
	return out
}

type MatchFilter struct {
	Statuses  []MatchStatus
	Category  *Category
	BracketID *string
}
