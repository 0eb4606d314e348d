package brackets

import (
	"math/bits"

	"github.com/Dosada05/court-dispatch/models"
)

// BracketSize returns the smallest power of two >= n (0 for n == 0).
func BracketSize(n int) int {
	if n <= 0 {
		return 0
	}
	if n == 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// NumRounds is ceil(log2(size)).
func NumRounds(size int) int {
	if size <= 1 {
		return 0
	}
	return bits.Len(uint(size - 1))
}

// SeededOrder returns the bracket order of seeds 1..size. Each round-1
// pair of neighbours sums to size+1, so the top two seeds can only meet
// in the final, the top four in the semi-finals and so on.
func SeededOrder(size int) []int {
	if size <= 0 {
		return []int{}
	}
	if size == 1 {
		return []int{1}
	}
	order := []int{1, 2}
	for len(order) < size {
		doubled := len(order) * 2
		next := make([]int, 0, doubled)
		for _, s := range order {
			next = append(next, s, doubled+1-s)
		}
		order = next
	}
	return order
}

// GenerateBracket lays out a seeded single elimination bracket. Entries
// are taken in seed order (entries[0] is seed 1). Round-1 slots with a
// missing side are flagged as walkovers; the present side is recorded
// but never moved into round 2 here.
func GenerateBracket(entries []Entry, doubles bool) (*Bracket, error) {
	if err := validateEntries(entries, doubles); err != nil {
		return nil, err
	}

	n := len(entries)
	size := BracketSize(n)
	rounds := NumRounds(size)
	bracket := &Bracket{Size: size, Rounds: rounds, Slots: make([]Slot, 0, max(size-1, n))}

	switch n {
	case 0:
		return bracket, nil
	case 1:
		bracket.Slots = append(bracket.Slots, Slot{
			Round:       0,
			MatchNumber: 1,
			SeedA:       1,
			SideA:       entries[0],
			IsWalkover:  true,
		})
		return bracket, nil
	}

	entryForSeed := func(seed int) Entry {
		if seed > n {
			return nil
		}
		return entries[seed-1]
	}

	order := SeededOrder(size)
	for i := 0; i < len(order); i += 2 {
		slot := Slot{
			Round:       1,
			MatchNumber: i/2 + 1,
			SeedA:       order[i],
			SeedB:       order[i+1],
			SideA:       entryForSeed(order[i]),
			SideB:       entryForSeed(order[i+1]),
		}
		slot.IsWalkover = slot.SideA == nil || slot.SideB == nil
		linkNext(&slot, rounds)
		bracket.Slots = append(bracket.Slots, slot)
	}

	for r := 2; r <= rounds; r++ {
		count := size >> uint(r)
		for m := 1; m <= count; m++ {
			slot := Slot{Round: r, MatchNumber: m}
			linkNext(&slot, rounds)
			bracket.Slots = append(bracket.Slots, slot)
		}
	}

	return bracket, nil
}

func linkNext(slot *Slot, rounds int) {
	if slot.Round >= rounds {
		return
	}
	slot.Next = &SlotRef{Round: slot.Round + 1, MatchNumber: (slot.MatchNumber + 1) / 2}
	if slot.MatchNumber%2 == 1 {
		slot.WinnerToSide = models.SideA
	} else {
		slot.WinnerToSide = models.SideB
	}
}
