// Package handler exposes editing sessions and imports over HTTP for a UI, plus the Azure
// Functions custom-handler triggers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/rocjay1/ledger-entry/internal/logger"
	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/payload"
	"github.com/rocjay1/ledger-entry/internal/services"
	"github.com/rocjay1/ledger-entry/internal/session"
)

const maxUploadBytes = 10 << 20

// Dependencies holds the services required by the handlers. Blob, Queue, Email and Assets are
// optional.
type Dependencies struct {
	Sessions *session.Manager
	Ledger   LedgerClient
	Blob     BlobClient
	Queue    QueueClient
	Email    EmailClient
	Assets   AssetRefresher
	Log      zerolog.Logger

	ArchiveContainer string
	ImportQueue      string
	Recipients       []string
	MaxImportErrors  int
}

// log returns the request-scoped logger set by the logging middleware, or the base logger.
func (d *Dependencies) log(r *http.Request) zerolog.Logger {
	if l := logger.FromContext(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return d.Log
}

func (d *Dependencies) maxImportErrors() int {
	if d.MaxImportErrors > 0 {
		return d.MaxImportErrors
	}
	return session.DefaultMaxImportErrors
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zlog.Error().Err(err).Msg("failed to encode JSON response")
		}
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

type validationBody struct {
	Error string              `json:"error"`
	Field models.FieldName    `json:"field"`
	Kind  payload.FailureKind `json:"kind"`
}

type rejectionBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// WriteFailure maps a session, payload or backend error to a response.
func WriteFailure(w http.ResponseWriter, err error) {
	var verr *payload.ValidationError
	var apiErr *services.APIError

	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusUnprocessableEntity, validationBody{Error: verr.Error(), Field: verr.Field, Kind: verr.Kind})
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			WriteError(w, http.StatusNotFound, apiErr.Detail)
			return
		}
		WriteJSON(w, http.StatusBadGateway, rejectionBody{Error: "ledger rejected request", Status: apiErr.StatusCode, Detail: apiErr.Detail})
	case errors.Is(err, session.ErrSubmitInFlight),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrAssetLocked),
		errors.Is(err, session.ErrSuggestionDiscarded):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrKindNotSelected),
		errors.Is(err, session.ErrEmptyDescription),
		errors.Is(err, session.ErrUnknownField),
		errors.Is(err, models.ErrUnknownKind):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
