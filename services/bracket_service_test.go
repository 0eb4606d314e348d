package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Dosada05/court-dispatch/brackets"
	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
)

func TestGenerateSinglesBracketIsSeededAndLinked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		e.addPlayer(t, fmt.Sprintf("p%d", i), models.GenderMale, 1, 100-i*10)
	}
	// other gender and division are not part of MS-1
	e.addPlayer(t, "w1", models.GenderFemale, 1, 500)
	e.addPlayer(t, "d2", models.GenderMale, 2, 500)

	res, err := e.brackets.Generate(ctx, GenerateBracketInput{TournamentType: models.TypeMenSingles, Division: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != 8 || res.Rounds != 3 || len(res.Matches) != 7 {
		t.Fatalf("size=%d rounds=%d matches=%d, want 8, 3, 7", res.Size, res.Rounds, len(res.Matches))
	}

	first := findMatch(t, res.Matches, 1, 1)
	if first.Player1ID == nil || *first.Player1ID != "p1" || first.Player3ID != nil || !first.IsWalkover {
		t.Fatalf("top seed should face an empty position, got %+v", first)
	}

	walkovers := 0
	for _, m := range res.Matches {
		if m.IsWalkover {
			walkovers++
		}
		if m.Round < 3 && (m.NextMatchID == nil || m.WinnerToSlot == nil) {
			t.Errorf("R%dM%d has no next match link", m.Round, m.MatchNumber)
		}
		if m.Status != models.MatchStatusWaiting || m.BracketID != res.BracketID {
			t.Errorf("R%dM%d stored as %s in %s", m.Round, m.MatchNumber, m.Status, m.BracketID)
		}
	}
	if walkovers != 3 {
		t.Fatalf("walkovers = %d, want 3", walkovers)
	}

	final := findMatch(t, res.Matches, 3, 1)
	semi := findMatch(t, res.Matches, 2, 2)
	if *semi.NextMatchID != final.ID || *semi.WinnerToSlot != models.SideB {
		t.Fatalf("R2M2 should feed side B of the final")
	}

	stored, _ := e.store.Matches.List(ctx, models.MatchFilter{BracketID: &res.BracketID})
	if len(stored) != 7 {
		t.Fatalf("stored %d matches, want 7", len(stored))
	}

	if res.SnapshotURL == "" {
		t.Fatal("snapshot should be published")
	}
	body, ok := e.publisher.Object("brackets/MS-1/" + res.BracketID + ".json")
	if !ok {
		t.Fatal("snapshot object missing")
	}
	var snap bracketSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Size != 8 || len(snap.Matches) != 7 {
		t.Fatalf("snapshot = size %d, %d matches", snap.Size, len(snap.Matches))
	}
}

func TestGenerateRejectsBadInputWithoutPersisting(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addPlayer(t, "p1", models.GenderMale, 1, 10)

	_, err := e.brackets.Generate(ctx, GenerateBracketInput{TournamentType: "ZZ", Division: 0, Format: "swiss"})
	var genErr *brackets.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected a generation error, got %v", err)
	}
	if len(genErr.Problems) != 3 {
		t.Fatalf("problems = %v, want 3", genErr.Problems)
	}

	_, err = e.brackets.Generate(ctx, GenerateBracketInput{TournamentType: models.TypeMenSingles, Division: 1})
	if !errors.Is(err, brackets.ErrInvalidInput) {
		t.Fatalf("one player should not make a bracket, got %v", err)
	}

	all, _ := e.store.Matches.List(ctx, models.MatchFilter{})
	if len(all) != 0 {
		t.Fatalf("%d matches persisted after failed generation", len(all))
	}
}

func TestGenerateDoublesPairsAndWarns(t *testing.T) {
	e := newEnv(t)
	for i := 1; i <= 5; i++ {
		e.addPlayer(t, fmt.Sprintf("m%d", i), models.GenderMale, 2, i)
	}

	res, err := e.brackets.Generate(context.Background(), GenerateBracketInput{TournamentType: models.TypeMenDoubles, Division: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 || res.Size != 2 {
		t.Fatalf("two pairs should give a single final, got %d matches", len(res.Matches))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != brackets.WarningOddPlayerDropped {
		t.Fatalf("warnings = %+v", res.Warnings)
	}
	m := res.Matches[0]
	if len(m.SideA()) != 2 || len(m.SideB()) != 2 {
		t.Fatalf("sides = %v / %v", m.SideA(), m.SideB())
	}
}

func TestGenerateManualMixedPairs(t *testing.T) {
	e := newEnv(t)
	e.addPlayer(t, "m1", models.GenderMale, 1, 10)
	e.addPlayer(t, "m2", models.GenderMale, 1, 10)
	e.addPlayer(t, "f1", models.GenderFemale, 1, 10)
	e.addPlayer(t, "f2", models.GenderFemale, 1, 10)

	_, err := e.brackets.Generate(context.Background(), GenerateBracketInput{
		TournamentType: models.TypeMixedDoubles,
		Division:       1,
		ManualPairs:    [][]string{{"m1", "m2"}, {"f1", "f2"}},
	})
	if !errors.Is(err, brackets.ErrInvalidInput) {
		t.Fatalf("same-gender mixed pairs must be rejected, got %v", err)
	}

	res, err := e.brackets.Generate(context.Background(), GenerateBracketInput{
		TournamentType: models.TypeMixedDoubles,
		Division:       1,
		ManualPairs:    [][]string{{"m1", "f1"}, {"m2", "f2"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(res.Matches))
	}
}

func TestGenerateRoundRobin(t *testing.T) {
	e := newEnv(t)
	for i := 1; i <= 4; i++ {
		e.addPlayer(t, fmt.Sprintf("w%d", i), models.GenderFemale, 1, i)
	}
	res, err := e.brackets.Generate(context.Background(), GenerateBracketInput{
		TournamentType: models.TypeWomenSingles,
		Division:       1,
		Format:         FormatRoundRobin,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 6 || res.Rounds != 3 {
		t.Fatalf("matches=%d rounds=%d, want 6 and 3", len(res.Matches), res.Rounds)
	}
	for _, m := range res.Matches {
		if m.NextMatchID != nil || m.IsWalkover || !m.IsResolved() {
			t.Fatalf("round robin match %+v", m)
		}
	}
}

type rejectingMatches struct {
	repositories.MatchRepository
	bracketID string
}

func (r *rejectingMatches) CreateBatch(ctx context.Context, matches []*models.Match) error {
	if len(matches) > 0 {
		r.bracketID = matches[0].BracketID
	}
	return errors.New("connection reset")
}

func TestGenerateWithdrawsSnapshotWhenSaveFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		e.addPlayer(t, fmt.Sprintf("p%d", i), models.GenderMale, 1, 100-i)
	}
	matches := &rejectingMatches{MatchRepository: e.store.Matches}
	e.brackets.matches = matches

	if _, err := e.brackets.Generate(ctx, GenerateBracketInput{TournamentType: models.TypeMenSingles, Division: 1}); err == nil {
		t.Fatal("expected the save error")
	}
	if matches.bracketID == "" {
		t.Fatal("CreateBatch was not called")
	}
	if _, ok := e.publisher.Object("brackets/MS-1/" + matches.bracketID + ".json"); ok {
		t.Fatal("snapshot of an unsaved bracket is still published")
	}
}
