package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/session"
)

// session resolves the {id} path parameter, writing 404 when it is unknown.
func (d *Dependencies) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := d.Sessions.Get(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func (d *Dependencies) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	s := d.Sessions.Create()
	log := d.log(r)
	log.Info().Str("session_id", s.ID()).Msg("session created")
	WriteJSON(w, http.StatusCreated, s.Snapshot())
}

func (d *Dependencies) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := d.session(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.Snapshot())
}

func (d *Dependencies) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s, ok := d.session(w, r)
	if !ok {
		return
	}
	d.Sessions.Remove(s.ID())
	w.WriteHeader(http.StatusNoContent)
}

// mutate decodes the body into req, applies fn and answers with the session view.
func mutate[T any](d *Dependencies, w http.ResponseWriter, r *http.Request, fn func(s *session.Session, req T) error) {
	s, ok := d.session(w, r)
	if !ok {
		return
	}
	var req T
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := fn(s, req); err != nil {
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.Snapshot())
}

func (d *Dependencies) HandleStartCreate(w http.ResponseWriter, r *http.Request) {
	mutate(d, w, r, func(s *session.Session, req session.Defaults) error {
		return s.StartCreate(req)
	})
}

func (d *Dependencies) HandleStartEdit(w http.ResponseWriter, r *http.Request) {
	mutate(d, w, r, func(s *session.Session, req models.Transaction) error {
		return s.StartEdit(req)
	})
}

type kindRequest struct {
	Kind models.Kind `json:"kind"`
}

func (d *Dependencies) HandleSetKind(w http.ResponseWriter, r *http.Request) {
	mutate(d, w, r, func(s *session.Session, req kindRequest) error {
		return s.SetKind(req.Kind)
	})
}

type assetRequest struct {
	AssetID string `json:"assetId"`
}

func (d *Dependencies) HandleSetAsset(w http.ResponseWriter, r *http.Request) {
	mutate(d, w, r, func(s *session.Session, req assetRequest) error {
		return s.SetAsset(req.AssetID)
	})
}

type fieldRequest struct {
	Field models.FieldName `json:"field"`
	Value string           `json:"value"`
}

func (d *Dependencies) HandleSetField(w http.ResponseWriter, r *http.Request) {
	mutate(d, w, r, func(s *session.Session, req fieldRequest) error {
		return s.SetField(req.Field, req.Value)
	})
}

func (d *Dependencies) HandleCancel(w http.ResponseWriter, r *http.Request) {
	mutate(d, w, r, func(s *session.Session, _ struct{}) error {
		s.Cancel()
		return nil
	})
}

type submitRequest struct {
	Fields models.RawFields `json:"fields"`
}

type submitResponse struct {
	Transaction models.Transaction `json:"transaction"`
	Session     session.View       `json:"session"`
}

// HandleSubmit builds and sends the draft. Without "fields" in the body the stored draft is used.
func (d *Dependencies) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := d.session(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	tx, err := s.Submit(r.Context(), req.Fields)
	if err != nil {
		log := d.log(r)
		log.Warn().Err(err).Str("session_id", s.ID()).Msg("submit failed")
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, submitResponse{Transaction: tx, Session: s.Snapshot()})
}

type suggestRequest struct {
	Description string `json:"description"`
}

type suggestResponse struct {
	models.SuggestionResponse
	Session session.View `json:"session"`
}

// HandleSuggest runs a category suggestion. A failing rule service is reported through the
// session's notice, not as an error status.
func (d *Dependencies) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	s, ok := d.session(w, r)
	if !ok {
		return
	}
	var req suggestRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.SuggestCategory(r.Context(), req.Description)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrEmptyDescription),
		errors.Is(err, session.ErrSuggestionDiscarded):
		WriteFailure(w, err)
		return
	default:
		log := d.log(r)
		log.Warn().Err(err).Str("session_id", s.ID()).Msg("category suggestion unavailable")
		resp = models.SuggestionResponse{}
	}
	WriteJSON(w, http.StatusOK, suggestResponse{SuggestionResponse: resp, Session: s.Snapshot()})
}

func (d *Dependencies) HandleSessionUpload(w http.ResponseWriter, r *http.Request) {
	s, ok := d.session(w, r)
	if !ok {
		return
	}
	filename, content, ok := readUpload(w, r)
	if !ok {
		return
	}
	report, err := s.Upload(r.Context(), filename, content)
	if err != nil {
		log := d.log(r)
		log.Error().Err(err).Str("filename", filename).Msg("import failed")
		WriteFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// HandleDeleteTransaction deletes a transaction. With ?session=<id>, the session's open edit of
// that transaction is closed as well.
func (d *Dependencies) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var err error
	if sid := r.URL.Query().Get("session"); sid != "" {
		s, ok := d.Sessions.Get(sid)
		if !ok {
			WriteError(w, http.StatusNotFound, "session not found")
			return
		}
		err = s.Delete(r.Context(), id)
	} else {
		err = d.Ledger.DeleteTransaction(r.Context(), id)
	}
	if err != nil {
		log := d.log(r)
		log.Warn().Err(err).Str("transaction_id", id).Msg("delete failed")
		WriteFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
