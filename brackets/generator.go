package brackets

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidInput = errors.New("invalid generation input")

// GenerationError carries every problem found in the input so the caller
// can show the full list before anything is persisted.
type GenerationError struct {
	Problems []string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput.Error(), strings.Join(e.Problems, "; "))
}

func (e *GenerationError) Unwrap() error {
	return ErrInvalidInput
}

func newGenerationError(problems ...string) *GenerationError {
	return &GenerationError{Problems: problems}
}

// Entry is one bracket participant: a single player, a pair or a trio.
type Entry []string

type SlotRef struct {
	Round       int `json:"round"`
	MatchNumber int `json:"match_number"`
}

func (r SlotRef) UID() string {
	return fmt.Sprintf("R%dM%d", r.Round, r.MatchNumber)
}

// Slot is one match position of a bracket.
type Slot struct {
	Round       int `json:"round"`
	MatchNumber int `json:"match_number"`

	// Seeds are set for round-1 slots only; a seed above the
	// participant count is an empty position.
	SeedA int `json:"seed_a,omitempty"`
	SeedB int `json:"seed_b,omitempty"`

	SideA Entry `json:"side_a,omitempty"`
	SideB Entry `json:"side_b,omitempty"`

	IsWalkover bool `json:"is_walkover"`

	Next         *SlotRef `json:"next,omitempty"`
	WinnerToSide int      `json:"winner_to_side,omitempty"`
}

func (s *Slot) Ref() SlotRef {
	return SlotRef{Round: s.Round, MatchNumber: s.MatchNumber}
}

func (s *Slot) UID() string {
	return s.Ref().UID()
}

// PlayerSlots flattens both sides into the six match player slots
// (side A: 1, 2, 5; side B: 3, 4, 6).
func (s *Slot) PlayerSlots() [6]*string {
	var out [6]*string
	place := func(entry Entry, idx [3]int) {
		for i, id := range entry {
			if i >= len(idx) {
				break
			}
			id := id
			out[idx[i]] = &id
		}
	}
	place(s.SideA, [3]int{0, 1, 4})
	place(s.SideB, [3]int{2, 3, 5})
	return out
}

type Bracket struct {
	Size   int    `json:"size"`
	Rounds int    `json:"rounds"`
	Slots  []Slot `json:"slots"`
}

// Round returns the slots of round r in match order.
func (b *Bracket) Round(r int) []Slot {
	out := make([]Slot, 0)
	for _, s := range b.Slots {
		if s.Round == r {
			out = append(out, s)
		}
	}
	return out
}

func (b *Bracket) Walkovers() []Slot {
	out := make([]Slot, 0)
	for _, s := range b.Slots {
		if s.IsWalkover {
			out = append(out, s)
		}
	}
	return out
}

func validateEntries(entries []Entry, doubles bool) error {
	problems := make([]string, 0)
	seen := make(map[string]int)
	for i, e := range entries {
		switch {
		case doubles && (len(e) < 2 || len(e) > 3):
			problems = append(problems, fmt.Sprintf("entry %d has %d players, doubles entries need 2 or 3", i+1, len(e)))
		case !doubles && len(e) != 1:
			problems = append(problems, fmt.Sprintf("entry %d has %d players, singles entries need exactly 1", i+1, len(e)))
		}
		for _, id := range e {
			if id == "" {
				problems = append(problems, fmt.Sprintf("entry %d has an empty player id", i+1))
				continue
			}
			if prev, ok := seen[id]; ok {
				problems = append(problems, fmt.Sprintf("player %s appears in entries %d and %d", id, prev, i+1))
				continue
			}
			seen[id] = i + 1
		}
	}
	if len(problems) > 0 {
		return newGenerationError(problems...)
	}
	return nil
}
