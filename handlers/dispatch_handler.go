package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/court-dispatch/services"
)

// Dispatcher runs one dispatch pass on demand.
type Dispatcher interface {
	DispatchOnce(ctx context.Context) (int, error)
}

type DispatchHandler struct {
	dispatcher        Dispatcher
	etaService        services.ETAService
	bottleneckService services.BottleneckService
}

func NewDispatchHandler(d Dispatcher, eta services.ETAService, bs services.BottleneckService) *DispatchHandler {
	return &DispatchHandler{
		dispatcher:        d,
		etaService:        eta,
		bottleneckService: bs,
	}
}

// DispatchOnce godoc
// @Summary Вызвать матчи на свободные корты
// @Tags dispatch
// @Description Один проход планировщика, выполняется даже при выключенном auto_dispatch_enabled.
// @Produce json
// @Success 200 {object} map[string]int "Сколько матчей вызвано"
// @Failure 500 {object} map[string]string "Ошибка хранилища"
// @Router /dispatch [post]
func (h *DispatchHandler) DispatchOnce(w http.ResponseWriter, r *http.Request) {
	n, err := h.dispatcher.DispatchOnce(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"dispatched": n}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetETA godoc
// @Summary Оценка времени окончания
// @Tags dispatch
// @Produce json
// @Success 200 {object} services.ETAReport
// @Router /eta [get]
func (h *DispatchHandler) GetETA(w http.ResponseWriter, r *http.Request) {
	report, err := h.etaService.Estimate(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AnalyzeBottleneck godoc
// @Summary Поиск отстающей категории
// @Tags dispatch
// @Description Оценивает ожидание по категориям и загрузку кортов, при перекосе предлагает priority boost.
// @Produce json
// @Success 200 {object} services.BottleneckReport
// @Router /bottleneck [get]
func (h *DispatchHandler) AnalyzeBottleneck(w http.ResponseWriter, r *http.Request) {
	report, err := h.bottleneckService.Analyze(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApplySuggestion godoc
// @Summary Включить priority boost для категории
// @Tags dispatch
// @Accept json
// @Produce json
// @Param body body object true "Категория, например {\"category\": \"MS-1\"}"
// @Success 201 {object} models.PriorityBoost
// @Failure 400 {object} map[string]string "Неверная категория"
// @Router /bottleneck/apply [post]
func (h *DispatchHandler) ApplySuggestion(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Category string `json:"category"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	boost, err := h.bottleneckService.ApplySuggestion(r.Context(), input.Category)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"priority_boost": boost}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
