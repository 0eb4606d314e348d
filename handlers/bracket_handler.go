package handlers

import (
	"net/http"

	"github.com/Dosada05/court-dispatch/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

// GenerateBracket godoc
// @Summary Построить сетку категории
// @Tags brackets
// @Accept json
// @Produce json
// @Param body body services.GenerateBracketInput true "Категория и формат"
// @Success 201 {object} services.BracketResult
// @Failure 422 {object} map[string]interface{} "Список проблем входных данных"
// @Router /brackets [post]
func (h *BracketHandler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	var input services.GenerateBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.Generate(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
