package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/Dosada05/court-dispatch/brackets"
	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
	"github.com/Dosada05/court-dispatch/storage"
)

var t0 = time.Date(2026, 5, 9, 9, 0, 0, 0, time.UTC)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type env struct {
	store     *repositories.Store
	clock     *testClock
	tracker   *DurationTracker
	publisher *storage.MemoryPublisher
	brackets  *bracketService
	matches   *matchService
	eta       *etaService
	analyzer  *bottleneckService
	admin     *adminService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repositories.NewMemoryStore()
	clock := &testClock{t: t0}
	logger := discardLogger()

	tracker := NewDurationTracker(store.Durations, 0, 0)
	tracker.now = clock.now
	publisher := storage.NewMemoryPublisher("https://cdn.example.com")

	e := &env{
		store:     store,
		clock:     clock,
		tracker:   tracker,
		publisher: publisher,
		brackets:  NewBracketService(store.Players, store.Matches, brackets.NewPairingGenerator(rand.New(rand.NewSource(7))), publisher, logger).(*bracketService),
		matches:   NewMatchService(store.Matches, tracker, logger).(*matchService),
		eta:       NewETAService(store.Matches, store.Courts, tracker).(*etaService),
		analyzer:  NewBottleneckService(store, tracker, 0, 0, logger).(*bottleneckService),
		admin:     NewAdminService(store, logger).(*adminService),
	}
	e.brackets.now = clock.now
	e.matches.now = clock.now
	e.eta.now = clock.now
	e.analyzer.now = clock.now
	e.admin.now = clock.now
	return e
}

func (e *env) addPlayer(t *testing.T, id string, gender models.Gender, division, points int) {
	t.Helper()
	err := e.store.Players.Create(context.Background(), &models.Player{
		ID:          id,
		Name:        "Player " + id,
		Gender:      gender,
		Division:    division,
		IsActive:    true,
		TotalPoints: points,
		CreatedAt:   t0,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (e *env) addCourts(t *testing.T, n int) {
	t.Helper()
	for i := range n {
		if err := e.store.Courts.Create(context.Background(), &models.Court{ID: fmt.Sprintf("c%d", i+1)}); err != nil {
			t.Fatal(err)
		}
	}
}

// addMatches stores n resolved matches of category in status.
func (e *env) addMatches(t *testing.T, typ models.TournamentType, division, n int, status models.MatchStatus) []*models.Match {
	t.Helper()
	out := make([]*models.Match, 0, n)
	for i := range n {
		a, b := fmt.Sprintf("%s%d-a%d", typ, division, i), fmt.Sprintf("%s%d-b%d", typ, division, i)
		out = append(out, &models.Match{
			ID:             fmt.Sprintf("%s-%d-%s-%d", typ, division, status, i),
			TournamentType: typ,
			Division:       division,
			Round:          1,
			MatchNumber:    i + 1,
			Status:         status,
			Player1ID:      &a,
			Player3ID:      &b,
			CreatedAt:      e.clock.t,
			UpdatedAt:      e.clock.t,
		})
	}
	if err := e.store.Matches.CreateBatch(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	return out
}

func findMatch(t *testing.T, matches []*models.Match, round, number int) *models.Match {
	t.Helper()
	for _, m := range matches {
		if m.Round == round && m.MatchNumber == number {
			return m
		}
	}
	t.Fatalf("no match R%dM%d", round, number)
	return nil
}

func intPtr(i int) *int { return &i }
