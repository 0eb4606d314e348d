package brackets

import "fmt"

// GenerateRoundRobin creates every pairing of a group exactly once,
// arranged into rounds with the circle method. An odd group gets a
// rotating rest slot, which produces no match.
func GenerateRoundRobin(entries []Entry, doubles bool) ([]Slot, error) {
	if len(entries) < 2 {
		return nil, newGenerationError(fmt.Sprintf("round robin needs at least 2 entries, got %d", len(entries)))
	}
	if err := validateEntries(entries, doubles); err != nil {
		return nil, err
	}

	// -1 marks the resting position for odd groups
	positions := make([]int, 0, len(entries)+1)
	for i := range entries {
		positions = append(positions, i)
	}
	if len(positions)%2 != 0 {
		positions = append(positions, -1)
	}

	numRounds := len(positions) - 1
	perRound := len(positions) / 2
	slots := make([]Slot, 0, len(entries)*(len(entries)-1)/2)

	for round := range numRounds {
		matchNumber := 0
		for m := range perRound {
			i1 := circleIndex(m, len(positions), round)
			i2 := circleIndex(len(positions)-1-m, len(positions), round)
			a, b := positions[i1], positions[i2]
			if a < 0 || b < 0 {
				continue
			}
			// alternate who is named first for the fixed position
			if m == 0 && round%2 != 0 {
				a, b = b, a
			}
			matchNumber++
			slots = append(slots, Slot{
				Round:       round + 1,
				MatchNumber: matchNumber,
				SideA:       entries[a],
				SideB:       entries[b],
			})
		}
	}
	return slots, nil
}

// Rotates the index around the fixed first position, see
// https://en.wikipedia.org/wiki/Round-robin_tournament#Circle_method
func circleIndex(index, length, round int) int {
	if index == 0 {
		return 0
	}
	index -= 1
	index -= round
	index += length - 1
	index %= length - 1
	if index < 0 {
		index += length - 1
	}
	index += 1
	return index
}
