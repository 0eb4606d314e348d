package brackets

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Dosada05/court-dispatch/models"
)

const (
	WarningOddPlayerDropped = "odd_player_dropped"
	WarningGenderMismatch   = "gender_count_mismatch"
	WarningTrioFormed       = "trio_formed"
)

// Warning is a non-fatal note about players left out or regrouped.
type Warning struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	PlayerIDs []string `json:"player_ids,omitempty"`
}

// Pair holds 2 players, or 3 when an odd mixed pool is accommodated.
type Pair []*models.Player

func (p Pair) Entry() Entry {
	out := make(Entry, 0, len(p))
	for _, pl := range p {
		out = append(out, pl.ID)
	}
	return out
}

func (p Pair) Points() int {
	total := 0
	for _, pl := range p {
		total += pl.TotalPoints
	}
	return total
}

type PairingResult struct {
	Pairs    []Pair    `json:"pairs"`
	Warnings []Warning `json:"warnings"`
}

func (r *PairingResult) Entries() []Entry {
	out := make([]Entry, 0, len(r.Pairs))
	for _, p := range r.Pairs {
		out = append(out, p.Entry())
	}
	return out
}

type PairingGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPairingGenerator uses rng for every shuffle; a nil rng is seeded
// from the current time.
func NewPairingGenerator(rng *rand.Rand) *PairingGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PairingGenerator{rng: rng}
}

// PairSameGender filters the roster by division, activity and (when
// given) gender, shuffles and pairs neighbours. An odd remainder is
// dropped with a warning.
func (g *PairingGenerator) PairSameGender(roster []*models.Player, division int, gender *models.Gender) (*PairingResult, error) {
	pool := filterRoster(roster, models.PlayerFilter{Division: &division, Gender: gender, ActiveOnly: true})
	if len(pool) < 2 {
		return nil, newGenerationError(fmt.Sprintf("division %d has %d eligible players, at least 2 are needed for pairing", division, len(pool)))
	}
	g.shuffle(pool)

	result := &PairingResult{Pairs: make([]Pair, 0, len(pool)/2), Warnings: make([]Warning, 0)}
	for i := 0; i+1 < len(pool); i += 2 {
		result.Pairs = append(result.Pairs, Pair{pool[i], pool[i+1]})
	}
	if len(pool)%2 != 0 {
		dropped := pool[len(pool)-1]
		result.Warnings = append(result.Warnings, Warning{
			Code:      WarningOddPlayerDropped,
			Message:   fmt.Sprintf("odd number of players (%d): %s was left without a partner", len(pool), dropped.Name),
			PlayerIDs: []string{dropped.ID},
		})
	}
	return result, nil
}

// PairMixed shuffles male and female pools independently and zips them.
// With accommodateOdd a single leftover player joins the last pair as a
// trio instead of sitting out.
func (g *PairingGenerator) PairMixed(roster []*models.Player, division int, accommodateOdd bool) (*PairingResult, error) {
	male, female := models.GenderMale, models.GenderFemale
	men := filterRoster(roster, models.PlayerFilter{Division: &division, Gender: &male, ActiveOnly: true})
	women := filterRoster(roster, models.PlayerFilter{Division: &division, Gender: &female, ActiveOnly: true})

	problems := make([]string, 0)
	if len(men) == 0 {
		problems = append(problems, fmt.Sprintf("division %d has no eligible male players for mixed pairing", division))
	}
	if len(women) == 0 {
		problems = append(problems, fmt.Sprintf("division %d has no eligible female players for mixed pairing", division))
	}
	if len(problems) > 0 {
		return nil, newGenerationError(problems...)
	}

	g.shuffle(men)
	g.shuffle(women)

	n := min(len(men), len(women))
	result := &PairingResult{Pairs: make([]Pair, 0, n), Warnings: make([]Warning, 0)}
	for i := range n {
		result.Pairs = append(result.Pairs, Pair{men[i], women[i]})
	}

	if len(men) == len(women) {
		return result, nil
	}

	leftover := men[n:]
	if len(women) > len(men) {
		leftover = women[n:]
	}
	ids := make([]string, 0, len(leftover))
	for _, p := range leftover {
		ids = append(ids, p.ID)
	}
	result.Warnings = append(result.Warnings, Warning{
		Code:      WarningGenderMismatch,
		Message:   fmt.Sprintf("%d male and %d female players: %d player(s) without a mixed partner", len(men), len(women), len(leftover)),
		PlayerIDs: ids,
	})

	if accommodateOdd && len(leftover) == 1 {
		last := len(result.Pairs) - 1
		result.Pairs[last] = append(result.Pairs[last], leftover[0])
		result.Warnings = append(result.Warnings, Warning{
			Code:      WarningTrioFormed,
			Message:   fmt.Sprintf("%s joined the last pair as a third player", leftover[0].Name),
			PlayerIDs: []string{leftover[0].ID},
		})
	}
	return result, nil
}

// PairManual validates caller-chosen pairs against the roster.
func (g *PairingGenerator) PairManual(roster []*models.Player, division int, typ models.TournamentType, groups [][]string) (*PairingResult, error) {
	byID := make(map[string]*models.Player, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}

	problems := make([]string, 0)
	used := make(map[string]bool)
	result := &PairingResult{Pairs: make([]Pair, 0, len(groups)), Warnings: make([]Warning, 0)}

	for i, group := range groups {
		if len(group) < 2 || len(group) > 3 {
			problems = append(problems, fmt.Sprintf("pair %d has %d players, expected 2 or 3", i+1, len(group)))
			continue
		}
		pair := make(Pair, 0, len(group))
		genders := make(map[models.Gender]int)
		for _, id := range group {
			p, ok := byID[id]
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("pair %d: unknown player %s", i+1, id))
				continue
			case used[id]:
				problems = append(problems, fmt.Sprintf("pair %d: player %s is already paired", i+1, p.Name))
				continue
			case !p.IsActive:
				problems = append(problems, fmt.Sprintf("pair %d: player %s is not active", i+1, p.Name))
			case p.Division != division:
				problems = append(problems, fmt.Sprintf("pair %d: player %s is in division %d, not %d", i+1, p.Name, p.Division, division))
			}
			used[id] = true
			genders[p.Gender]++
			pair = append(pair, p)
		}
		if want, ok := typ.Gender(); ok && genders[want] != len(pair) {
			problems = append(problems, fmt.Sprintf("pair %d: all players must be %s for %s", i+1, want, typ))
		}
		if typ.IsMixed() && (genders[models.GenderMale] == 0 || genders[models.GenderFemale] == 0) {
			problems = append(problems, fmt.Sprintf("pair %d: mixed pairs need a male and a female player", i+1))
		}
		result.Pairs = append(result.Pairs, pair)
	}

	if len(groups) < 2 {
		problems = append(problems, fmt.Sprintf("at least 2 pairs are needed, got %d", len(groups)))
	}
	if len(problems) > 0 {
		return nil, newGenerationError(problems...)
	}
	return result, nil
}

func (g *PairingGenerator) shuffle(players []*models.Player) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })
}

func filterRoster(roster []*models.Player, filter models.PlayerFilter) []*models.Player {
	out := make([]*models.Player, 0, len(roster))
	for _, p := range roster {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
