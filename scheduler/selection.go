package scheduler

import (
	"cmp"
	"slices"
	"time"

	"github.com/Dosada05/court-dispatch/models"
)

// SelectCandidates orders the waiting matches that may be dispatched
// this tick. Matches outside the allow-list, walkovers, matches with an
// unresolved side and matches whose players are on court elsewhere are
// left out. An active boost moves its category to the front; inside a
// tier the oldest match comes first, then the earlier round and match number.
func SelectCandidates(
	waiting []*models.Match,
	cfg *models.SystemConfig,
	boost *models.PriorityBoost,
	busyPlayers map[string]bool,
	now time.Time,
	boostTTL time.Duration,
) []*models.Match {
	boosted := ""
	if boost.ActiveAt(now, boostTTL) {
		boosted = boost.Category
	}

	out := make([]*models.Match, 0, len(waiting))
	for _, m := range waiting {
		if m.Status != models.MatchStatusWaiting || m.CourtID != nil {
			continue
		}
		if m.IsWalkover || !m.IsResolved() {
			continue
		}
		if !cfg.Allows(m.Category()) {
			continue
		}
		if hasBusyPlayer(m, busyPlayers) {
			continue
		}
		out = append(out, m)
	}

	tier := func(m *models.Match) int {
		if boosted != "" && m.Category().Key() == boosted {
			return 0
		}
		return 1
	}
	slices.SortStableFunc(out, func(a, b *models.Match) int {
		return cmp.Or(
			cmp.Compare(tier(a), tier(b)),
			a.CreatedAt.Compare(b.CreatedAt),
			// матчи одной сетки создаются одним временем
			cmp.Compare(a.Round, b.Round),
			cmp.Compare(a.MatchNumber, b.MatchNumber),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}

func hasBusyPlayer(m *models.Match, busy map[string]bool) bool {
	if len(busy) == 0 {
		return false
	}
	for _, id := range append(m.SideA(), m.SideB()...) {
		if busy[id] {
			return true
		}
	}
	return false
}

func markBusy(m *models.Match, busy map[string]bool) {
	for _, id := range append(m.SideA(), m.SideB()...) {
		busy[id] = true
	}
}
