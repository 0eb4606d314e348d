package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/court-dispatch/brackets"
	"github.com/Dosada05/court-dispatch/handlers"
	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
	"github.com/Dosada05/court-dispatch/scheduler"
	"github.com/Dosada05/court-dispatch/services"
	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore()

	tracker := services.NewDurationTracker(store.Durations, 0, 0)
	sched := scheduler.New(store, scheduler.Config{}, nil, logger)
	pairing := brackets.NewPairingGenerator(rand.New(rand.NewSource(1)))

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Dispatch: handlers.NewDispatchHandler(sched,
			services.NewETAService(store.Matches, store.Courts, tracker),
			services.NewBottleneckService(store, tracker, 0, 0, logger)),
		Brackets: handlers.NewBracketHandler(services.NewBracketService(store.Players, store.Matches, pairing, nil, logger)),
		Matches:  handlers.NewMatchHandler(services.NewMatchService(store.Matches, tracker, logger)),
		Admin:    handlers.NewAdminHandler(services.NewAdminService(store, logger)),
	}, []string{"*"}, logger)
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any, wantStatus int) map[string]json.RawMessage {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != wantStatus {
		t.Fatalf("%s %s: status %d, want %d; body %s", method, path, rec.Code, wantStatus, rec.Body.String())
	}
	out := make(map[string]json.RawMessage)
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: body is not a JSON object: %s", method, path, rec.Body.String())
		}
	}
	return out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestAdminSurfaceEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/courts", map[string]any{"name": "Court 1"}, http.StatusCreated)
	do(t, router, http.MethodPost, "/courts", map[string]any{"name": "Court 2"}, http.StatusCreated)
	for i, name := range []string{"Lee", "Axelsen", "Momota", "Chou"} {
		do(t, router, http.MethodPost, "/players", map[string]any{
			"name": name, "gender": "male", "division": 1, "total_points": 100 - i,
		}, http.StatusCreated)
	}

	res := do(t, router, http.MethodPost, "/brackets", map[string]any{"tournament_type": "MS", "division": 1}, http.StatusCreated)
	bracket := decode[services.BracketResult](t, res["bracket"])
	if len(bracket.Matches) != 3 {
		t.Fatalf("bracket has %d matches, want 3", len(bracket.Matches))
	}

	res = do(t, router, http.MethodPost, "/dispatch", nil, http.StatusOK)
	if n := decode[int](t, res["dispatched"]); n != 2 {
		t.Fatalf("dispatched %d, want 2", n)
	}

	res = do(t, router, http.MethodGet, "/matches?status=calling", nil, http.StatusOK)
	calling := decode[[]models.Match](t, res["matches"])
	if len(calling) != 2 {
		t.Fatalf("%d calling matches, want 2", len(calling))
	}

	do(t, router, http.MethodPost, "/matches/"+calling[0].ID+"/start", nil, http.StatusOK)
	res = do(t, router, http.MethodPost, "/matches/"+calling[0].ID+"/complete", map[string]any{"winner_side": 1}, http.StatusOK)
	done := decode[models.Match](t, res["match"])
	if done.Status != models.MatchStatusCompleted {
		t.Fatalf("status = %s", done.Status)
	}
	do(t, router, http.MethodPost, "/matches/"+calling[0].ID+"/complete", map[string]any{"winner_side": 1}, http.StatusConflict)

	res = do(t, router, http.MethodGet, "/eta", nil, http.StatusOK)
	overall := decode[services.ETAEstimate](t, res["overall"])
	if overall.RemainingMatches != 2 || overall.Status != services.ETAStatusEstimated {
		t.Fatalf("overall = %+v", overall)
	}

	res = do(t, router, http.MethodGet, "/bottleneck", nil, http.StatusOK)
	if decode[bool](t, res["flagged"]) {
		t.Fatal("a single category cannot be a bottleneck")
	}
	res = do(t, router, http.MethodPost, "/bottleneck/apply", map[string]any{"category": "MS-1"}, http.StatusCreated)
	boost := decode[models.PriorityBoost](t, res["priority_boost"])
	if boost.Category != "MS-1" {
		t.Fatalf("boost = %+v", boost)
	}
}

func TestAdminSurfaceErrors(t *testing.T) {
	router := newTestRouter(t)

	res := do(t, router, http.MethodPost, "/brackets", map[string]any{"tournament_type": "ZZ", "division": 1}, http.StatusUnprocessableEntity)
	if problems := decode[[]string](t, res["problems"]); len(problems) != 1 {
		t.Fatalf("problems = %v", problems)
	}

	do(t, router, http.MethodPost, "/matches/unknown/start", nil, http.StatusNotFound)
	do(t, router, http.MethodPut, "/config/system", map[string]any{"enabled_tournaments": []string{"ZZ"}}, http.StatusBadRequest)
	do(t, router, http.MethodPost, "/courts", map[string]any{"name": "A", "surface": "wood"}, http.StatusBadRequest)
	do(t, router, http.MethodGet, "/players?division=two", nil, http.StatusBadRequest)
	do(t, router, http.MethodPatch, "/players/nobody/active", map[string]any{"is_active": true}, http.StatusNotFound)
	do(t, router, http.MethodGet, "/matches?category=MD", nil, http.StatusBadRequest)

	res = do(t, router, http.MethodPut, "/config/system", map[string]any{"auto_dispatch_enabled": true, "enabled_tournaments": []string{"xd-1"}}, http.StatusOK)
	cfg := decode[models.SystemConfig](t, res["config"])
	if !cfg.AutoDispatchEnabled || len(cfg.EnabledTournaments) != 1 || cfg.EnabledTournaments[0] != "XD-1" {
		t.Fatalf("config = %+v", cfg)
	}
}
