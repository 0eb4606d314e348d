package routes

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/court-dispatch/handlers"
	"github.com/Dosada05/court-dispatch/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Dispatch *handlers.DispatchHandler
	Brackets *handlers.BracketHandler
	Matches  *handlers.MatchHandler
	Admin    *handlers.AdminHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Операции движка
	router.Post("/dispatch", h.Dispatch.DispatchOnce)
	router.Get("/eta", h.Dispatch.GetETA)
	router.Route("/bottleneck", func(r chi.Router) {
		r.Get("/", h.Dispatch.AnalyzeBottleneck)
		r.Post("/apply", h.Dispatch.ApplySuggestion)
	})

	router.Route("/config/system", func(r chi.Router) {
		r.Get("/", h.Admin.GetSystemConfig)
		r.Put("/", h.Admin.UpdateSystemConfig)
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/", h.Admin.ListPlayers)
		r.Post("/", h.Admin.CreatePlayer)
		r.Patch("/{playerID}/active", h.Admin.SetPlayerActive)
	})

	router.Route("/courts", func(r chi.Router) {
		r.Get("/", h.Admin.ListCourts)
		r.Post("/", h.Admin.CreateCourt)
	})

	router.Post("/brackets", h.Brackets.GenerateBracket)

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", h.Matches.ListMatches)
		r.Route("/{matchID}", func(r chi.Router) {
			r.Get("/", h.Matches.GetMatch)
			r.Post("/start", h.Matches.StartMatch)
			r.Post("/complete", h.Matches.CompleteMatch)
			r.Post("/walkover", h.Matches.ResolveWalkover)
		})
	})
}
