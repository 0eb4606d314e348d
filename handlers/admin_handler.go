package handlers

import (
	"net/http"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/services"
)

type AdminHandler struct {
	adminService services.AdminService
}

func NewAdminHandler(as services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: as}
}

func (h *AdminHandler) GetSystemConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.adminService.GetSystemConfig(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"config": cfg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateSystemConfig меняет auto_dispatch_enabled и список разрешённых категорий.
func (h *AdminHandler) UpdateSystemConfig(w http.ResponseWriter, r *http.Request) {
	var input services.UpdateSystemConfigInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	cfg, err := h.adminService.UpdateSystemConfig(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"config": cfg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	player, err := h.adminService.CreatePlayer(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPlayers понимает ?division=2&gender=female&active_only=true
func (h *AdminHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	var filter models.PlayerFilter
	division, err := queryInt(r, "division")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	filter.Division = division
	if raw := r.URL.Query().Get("gender"); raw != "" {
		g := models.Gender(raw)
		filter.Gender = &g
	}
	if filter.ActiveOnly, err = queryBool(r, "active_only"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	players, err := h.adminService.ListPlayers(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetPlayerActive снимает игрока с турнира или возвращает его.
func (h *AdminHandler) SetPlayerActive(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		IsActive *bool `json:"is_active"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.IsActive == nil {
		errorResponse(w, r, http.StatusBadRequest, "is_active is required")
		return
	}

	player, err := h.adminService.SetPlayerActive(r.Context(), id, *input.IsActive)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) CreateCourt(w http.ResponseWriter, r *http.Request) {
	var input services.CreateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	court, err := h.adminService.CreateCourt(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ListCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := h.adminService.ListCourts(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": courts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
