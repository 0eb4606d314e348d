package services

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Dosada05/court-dispatch/brackets"
	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
	"github.com/Dosada05/court-dispatch/storage"
	"github.com/google/uuid"
)

const (
	FormatSingleElimination = "single_elimination"
	FormatRoundRobin        = "round_robin"
)

type GenerateBracketInput struct {
	TournamentType models.TournamentType `json:"tournament_type"`
	Division       int                   `json:"division"`
	// Format defaults to single elimination.
	Format string `json:"format"`
	// ManualPairs replaces random pairing for doubles categories.
	ManualPairs [][]string `json:"manual_pairs,omitempty"`
	// AccommodateOdd lets a leftover mixed player join the last pair.
	AccommodateOdd bool `json:"accommodate_odd"`
}

type BracketResult struct {
	BracketID   string             `json:"bracket_id"`
	Category    string             `json:"category"`
	Format      string             `json:"format"`
	Size        int                `json:"size,omitempty"`
	Rounds      int                `json:"rounds"`
	Matches     []*models.Match    `json:"matches"`
	Warnings    []brackets.Warning `json:"warnings"`
	SnapshotURL string             `json:"snapshot_url,omitempty"`
}

type BracketService interface {
	// Generate builds and persists a bracket. Input problems come back as
	// *brackets.GenerationError and nothing is written.
	Generate(ctx context.Context, input GenerateBracketInput) (*BracketResult, error)
}

type bracketService struct {
	players   repositories.PlayerRepository
	matches   repositories.MatchRepository
	pairing   *brackets.PairingGenerator
	publisher storage.SnapshotPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewBracketService accepts a nil publisher, snapshots are then skipped.
func NewBracketService(
	players repositories.PlayerRepository,
	matches repositories.MatchRepository,
	pairing *brackets.PairingGenerator,
	publisher storage.SnapshotPublisher,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		players:   players,
		matches:   matches,
		pairing:   pairing,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *bracketService) Generate(ctx context.Context, input GenerateBracketInput) (*BracketResult, error) {
	if input.Format == "" {
		input.Format = FormatSingleElimination
	}
	if err := validateBracketInput(input); err != nil {
		return nil, err
	}
	category := models.Category{TournamentType: input.TournamentType, Division: input.Division}

	roster, err := s.players.List(ctx, models.PlayerFilter{Division: &input.Division, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for %s: %w", category, err)
	}

	entries, warnings, err := s.buildEntries(roster, input)
	if err != nil {
		return nil, err
	}
	if len(entries) < 2 {
		return nil, &brackets.GenerationError{Problems: []string{
			fmt.Sprintf("%s has %d entries, at least 2 are needed for a bracket", category, len(entries)),
		}}
	}

	result := &BracketResult{
		BracketID: uuid.NewString(),
		Category:  category.Key(),
		Format:    input.Format,
		Warnings:  warnings,
	}

	var slots []brackets.Slot
	switch input.Format {
	case FormatRoundRobin:
		slots, err = brackets.GenerateRoundRobin(entries, input.TournamentType.IsDoubles())
		if err != nil {
			return nil, err
		}
		for _, sl := range slots {
			result.Rounds = max(result.Rounds, sl.Round)
		}
	default:
		bracket, err := brackets.GenerateBracket(entries, input.TournamentType.IsDoubles())
		if err != nil {
			return nil, err
		}
		if _, err := brackets.LinkGraph(bracket); err != nil {
			return nil, fmt.Errorf("generated bracket for %s is inconsistent: %w", category, err)
		}
		slots = bracket.Slots
		result.Size, result.Rounds = bracket.Size, bracket.Rounds
	}

	result.Matches = s.buildMatches(result.BracketID, category, slots)
	snapshotKey := s.publishSnapshot(ctx, result)
	if err := s.matches.CreateBatch(ctx, result.Matches); err != nil {
		s.withdrawSnapshot(ctx, snapshotKey)
		return nil, fmt.Errorf("failed to save bracket %s for %s: %w", result.BracketID, category, err)
	}

	s.logger.Info("bracket generated",
		slog.String("bracket_id", result.BracketID),
		slog.String("category", result.Category),
		slog.String("format", result.Format),
		slog.Int("entries", len(entries)),
		slog.Int("matches", len(result.Matches)),
		slog.Int("warnings", len(warnings)))
	return result, nil
}

func validateBracketInput(input GenerateBracketInput) error {
	problems := make([]string, 0)
	if !input.TournamentType.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown tournament type %q, expected MS, WS, MD, WD or XD", input.TournamentType))
	}
	if input.Division <= 0 {
		problems = append(problems, fmt.Sprintf("division must be a positive integer, got %d", input.Division))
	}
	if input.Format != FormatSingleElimination && input.Format != FormatRoundRobin {
		problems = append(problems, fmt.Sprintf("unknown format %q", input.Format))
	}
	if len(input.ManualPairs) > 0 && !input.TournamentType.IsDoubles() {
		problems = append(problems, "manual pairs are only allowed for doubles categories")
	}
	if len(problems) > 0 {
		return &brackets.GenerationError{Problems: problems}
	}
	return nil
}

// buildEntries turns the roster into bracket entries ordered by seed:
// the higher the total points, the better the seed.
func (s *bracketService) buildEntries(roster []*models.Player, input GenerateBracketInput) ([]brackets.Entry, []brackets.Warning, error) {
	typ := input.TournamentType
	if !typ.IsDoubles() {
		gender, _ := typ.Gender()
		players := slices.DeleteFunc(slices.Clone(roster), func(p *models.Player) bool {
			return p.Gender != gender
		})
		sortBySeed(players, func(p *models.Player) (int, string) { return p.TotalPoints, p.ID })
		entries := make([]brackets.Entry, 0, len(players))
		for _, p := range players {
			entries = append(entries, brackets.Entry{p.ID})
		}
		return entries, []brackets.Warning{}, nil
	}

	var (
		pairs *brackets.PairingResult
		err   error
	)
	switch {
	case len(input.ManualPairs) > 0:
		pairs, err = s.pairing.PairManual(roster, input.Division, typ, input.ManualPairs)
	case typ.IsMixed():
		pairs, err = s.pairing.PairMixed(roster, input.Division, input.AccommodateOdd)
	default:
		gender, _ := typ.Gender()
		pairs, err = s.pairing.PairSameGender(roster, input.Division, &gender)
	}
	if err != nil {
		return nil, nil, err
	}

	sortBySeed(pairs.Pairs, func(p brackets.Pair) (int, string) { return p.Points(), p[0].ID })
	return pairs.Entries(), pairs.Warnings, nil
}

func sortBySeed[T any](items []T, key func(T) (int, string)) {
	slices.SortStableFunc(items, func(a, b T) int {
		pa, ida := key(a)
		pb, idb := key(b)
		return cmp.Or(cmp.Compare(pb, pa), cmp.Compare(ida, idb))
	})
}

func (s *bracketService) buildMatches(bracketID string, category models.Category, slots []brackets.Slot) []*models.Match {
	now := s.now().UTC()
	byUID := make(map[string]*models.Match, len(slots))
	out := make([]*models.Match, 0, len(slots))

	for i := range slots {
		slot := &slots[i]
		ps := slot.PlayerSlots()
		m := &models.Match{
			ID:             uuid.NewString(),
			BracketID:      bracketID,
			TournamentType: category.TournamentType,
			Division:       category.Division,
			Round:          slot.Round,
			MatchNumber:    slot.MatchNumber,
			Status:         models.MatchStatusWaiting,
			Player1ID:      ps[0],
			Player2ID:      ps[1],
			Player3ID:      ps[2],
			Player4ID:      ps[3],
			Player5ID:      ps[4],
			Player6ID:      ps[5],
			IsWalkover:     slot.IsWalkover,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		byUID[slot.UID()] = m
		out = append(out, m)
	}

	// второй проход: связи победителя со следующим матчем
	for i := range slots {
		slot := &slots[i]
		if slot.Next == nil {
			continue
		}
		next, ok := byUID[slot.Next.UID()]
		if !ok {
			continue
		}
		m := byUID[slot.UID()]
		nextID, side := next.ID, slot.WinnerToSide
		m.NextMatchID = &nextID
		m.WinnerToSlot = &side
	}
	return out
}

type bracketSnapshot struct {
	BracketID   string          `json:"bracket_id"`
	Category    string          `json:"category"`
	Format      string          `json:"format"`
	Size        int             `json:"size,omitempty"`
	Rounds      int             `json:"rounds"`
	GeneratedAt time.Time       `json:"generated_at"`
	Matches     []*models.Match `json:"matches"`
}

// publishSnapshot uploads the bracket and returns its key, or "" when
// nothing was published.
func (s *bracketService) publishSnapshot(ctx context.Context, result *BracketResult) string {
	if s.publisher == nil {
		return ""
	}
	body, err := json.Marshal(bracketSnapshot{
		BracketID:   result.BracketID,
		Category:    result.Category,
		Format:      result.Format,
		Size:        result.Size,
		Rounds:      result.Rounds,
		GeneratedAt: s.now().UTC(),
		Matches:     result.Matches,
	})
	if err != nil {
		s.logger.Warn("failed to encode bracket snapshot", slog.String("bracket_id", result.BracketID), slog.Any("error", err))
		return ""
	}

	key := fmt.Sprintf("brackets/%s/%s.json", result.Category, result.BracketID)
	published, err := s.publisher.Publish(ctx, key, "application/json", body)
	if err != nil {
		// без снимка сетка всё равно сохраняется
		s.logger.Warn("failed to publish bracket snapshot", slog.String("bracket_id", result.BracketID), slog.Any("error", err))
		return ""
	}
	result.SnapshotURL = published.URL
	return key
}

// withdrawSnapshot removes a snapshot of a bracket that was never saved.
func (s *bracketService) withdrawSnapshot(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.publisher.Delete(ctx, key); err != nil {
		s.logger.Error("failed to delete snapshot of unsaved bracket", slog.String("key", key), slog.Any("error", err))
	}
}
