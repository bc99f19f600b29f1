package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/payload"
	"github.com/rocjay1/ledger-entry/internal/services"
	"github.com/rocjay1/ledger-entry/internal/session"
)

func TestWriteFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &payload.ValidationError{Field: models.FieldPrice, Kind: payload.FailureMissing}, http.StatusUnprocessableEntity},
		{"wrapped validation", fmt.Errorf("build: %w", &payload.ValidationError{Field: models.FieldDate}), http.StatusUnprocessableEntity},
		{"not found", &services.APIError{StatusCode: http.StatusNotFound, Detail: "gone"}, http.StatusNotFound},
		{"rejected", &services.APIError{StatusCode: http.StatusConflict, Detail: "duplicate"}, http.StatusBadGateway},
		{"in flight", session.ErrSubmitInFlight, http.StatusConflict},
		{"no draft", session.ErrNoActiveSession, http.StatusConflict},
		{"asset locked", session.ErrAssetLocked, http.StatusConflict},
		{"kind missing", session.ErrKindNotSelected, http.StatusBadRequest},
		{"unknown kind", fmt.Errorf("%w: %q", models.ErrUnknownKind, "x"), http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteFailure(w, tt.err)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestHealthAndNotFound(t *testing.T) {
	d := newTestDeps(&MockLedgerClient{})

	w := do(d, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, do(d, http.MethodGet, "/api/nothing", "").Code)
}
