package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/court-dispatch/brackets"
	"github.com/Dosada05/court-dispatch/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&brackets.GenerationError{Problems: []string{"a", "b"}}, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", services.ErrMatchNotFound), http.StatusNotFound},
		{services.ErrInvalidStatusTransition, http.StatusConflict},
		{services.ErrCourtConflict, http.StatusConflict},
		{services.ErrInvalidCategory, http.StatusBadRequest},
		{services.ErrWinnerUndecided, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		if rec.Code != tt.want {
			t.Errorf("%v: status %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		body    string
		wantErr string
	}{
		{`{"category":"MS-1"}`, ""},
		{``, "body must not be empty"},
		{`{"category":`, "badly-formed JSON"},
		{`{"category":1}`, "incorrect JSON type"},
		{`{"other":"x"}`, "unknown key"},
		{`{"category":"a"}{"category":"b"}`, "single JSON value"},
	}
	for _, tt := range tests {
		var dst struct {
			Category string `json:"category"`
		}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		err := readJSON(httptest.NewRecorder(), req, &dst)
		switch {
		case tt.wantErr == "" && err != nil:
			t.Errorf("%q: unexpected error %v", tt.body, err)
		case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
			t.Errorf("%q: error %v, want %q", tt.body, err, tt.wantErr)
		}
	}
}
