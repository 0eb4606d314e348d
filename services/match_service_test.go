package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Dosada05/court-dispatch/models"
)

func fourPlayerBracket(t *testing.T, e *env) *BracketResult {
	t.Helper()
	for i := 1; i <= 4; i++ {
		e.addPlayer(t, fmt.Sprintf("p%d", i), models.GenderMale, 1, 50-i*10)
	}
	res, err := e.brackets.Generate(context.Background(), GenerateBracketInput{TournamentType: models.TypeMenSingles, Division: 1})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestCompleteMatchReleasesCourtAndAdvancesWinner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addCourts(t, 1)
	res := fourPlayerBracket(t, e)

	semi := findMatch(t, res.Matches, 1, 2) // p2 vs p3
	final := findMatch(t, res.Matches, 2, 1)

	if err := e.store.Dispatch.ClaimCourt(ctx, "c1", semi.ID, e.clock.t); err != nil {
		t.Fatal(err)
	}
	e.clock.advance(2 * time.Minute)
	started, err := e.matches.Start(ctx, semi.ID)
	if err != nil {
		t.Fatal(err)
	}
	if started.Status != models.MatchStatusPlaying {
		t.Fatalf("status = %s", started.Status)
	}

	e.clock.advance(22 * time.Minute)
	done, err := e.matches.Complete(ctx, semi.ID, CompleteMatchInput{ScoreP1: intPtr(18), ScoreP2: intPtr(21)})
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != models.MatchStatusCompleted || done.WinnerID == nil || *done.WinnerID != "p3" {
		t.Fatalf("completed match = %+v", done)
	}

	courts, _ := e.store.Courts.ListFree(ctx)
	if len(courts) != 1 {
		t.Fatal("court must be released on completion")
	}

	next, _ := e.store.Matches.GetByID(ctx, final.ID)
	if next.Player3ID == nil || *next.Player3ID != "p3" || next.Player1ID != nil {
		t.Fatalf("winner should land on side B of the final: %v / %v", next.SideA(), next.SideB())
	}

	stats, err := e.tracker.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := stats.Means["MS-1"]; got != 24 {
		t.Fatalf("recorded mean = %v, want 24 minutes from call to completion", got)
	}

	_, err = e.matches.Complete(ctx, semi.ID, CompleteMatchInput{WinnerSide: models.SideA})
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("completing twice: %v", err)
	}
}

func TestCompleteRejectsWaitingMatchAndTies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addCourts(t, 1)
	res := fourPlayerBracket(t, e)
	semi := findMatch(t, res.Matches, 1, 2)

	if _, err := e.matches.Complete(ctx, semi.ID, CompleteMatchInput{WinnerSide: 1}); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("waiting match completed: %v", err)
	}
	if _, err := e.matches.Start(ctx, semi.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("waiting match started: %v", err)
	}

	if err := e.store.Dispatch.ClaimCourt(ctx, "c1", semi.ID, e.clock.t); err != nil {
		t.Fatal(err)
	}
	_, err := e.matches.Complete(ctx, semi.ID, CompleteMatchInput{ScoreP1: intPtr(21), ScoreP2: intPtr(21)})
	if !errors.Is(err, ErrWinnerUndecided) {
		t.Fatalf("tie: %v", err)
	}
	_, err = e.matches.Complete(ctx, semi.ID, CompleteMatchInput{WinnerSide: 3})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("bad side: %v", err)
	}

	if _, err := e.matches.GetByID(ctx, "missing"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("missing match: %v", err)
	}
}

func TestResolveWalkoverAdvancesPresentSide(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		e.addPlayer(t, fmt.Sprintf("p%d", i), models.GenderMale, 1, 50-i*10)
	}
	res, err := e.brackets.Generate(ctx, GenerateBracketInput{TournamentType: models.TypeMenSingles, Division: 1})
	if err != nil {
		t.Fatal(err)
	}
	bye := findMatch(t, res.Matches, 1, 1)
	played := findMatch(t, res.Matches, 1, 2)
	final := findMatch(t, res.Matches, 2, 1)

	if _, err := e.matches.ResolveWalkover(ctx, played.ID); !errors.Is(err, ErrNotWalkover) {
		t.Fatalf("regular match resolved as walkover: %v", err)
	}

	done, err := e.matches.ResolveWalkover(ctx, bye.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != models.MatchStatusCompleted || *done.WinnerID != "p1" {
		t.Fatalf("walkover = %+v", done)
	}
	next, _ := e.store.Matches.GetByID(ctx, final.ID)
	if next.Player1ID == nil || *next.Player1ID != "p1" {
		t.Fatal("walkover winner should move to side A of the final")
	}

	stats, _ := e.tracker.Stats(ctx)
	if stats.Samples["MS-1"] != 0 {
		t.Fatal("walkovers must not produce duration samples")
	}

	if _, err := e.matches.ResolveWalkover(ctx, bye.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("second resolve: %v", err)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	e := newEnv(t)
	_, err := e.matches.List(context.Background(), models.MatchFilter{Statuses: []models.MatchStatus{"paused"}})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("got %v", err)
	}
	list, err := e.matches.List(context.Background(), models.MatchFilter{})
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("empty list = %v, %v", list, err)
	}
}
