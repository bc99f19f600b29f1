// Package session drives one create-or-edit interaction from start to submit or cancel.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/payload"
)

var (
	ErrSubmitInFlight      = errors.New("a submission is already in flight")
	ErrNoActiveSession     = errors.New("no transaction is being created or edited")
	ErrEmptyDescription    = errors.New("description is empty")
	ErrSuggestionDiscarded = errors.New("suggestion result discarded")
	ErrInvalidTransition   = errors.New("invalid session transition")
	ErrKindNotSelected     = errors.New("transaction kind not selected")
	ErrAssetLocked         = errors.New("asset cannot change while editing")
	ErrUnknownField        = errors.New("unknown field")
)

// Notices shown next to the category input.
const (
	NoticeNoMatch     = "no matching category rule"
	NoticeUnavailable = "category suggestion unavailable"
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Ledger          Ledger
	Builder         *payload.Builder
	Logger          zerolog.Logger
	MaxImportErrors int
}

// Defaults pre-select the asset or kind of a new transaction, usually from the caller's
// current filter.
type Defaults struct {
	AssetID string      `json:"assetId,omitempty"`
	Kind    models.Kind `json:"kind,omitempty"`
}

// Suggestion is the category-suggestion side channel.
type Suggestion struct {
	CategoryID string `json:"categoryId,omitempty"`
	RuleID     string `json:"ruleId,omitempty"`
	Pending    bool   `json:"pending"`
	Notice     string `json:"notice,omitempty"`
}

// View is a point-in-time copy of a session for callers.
type View struct {
	ID             string             `json:"id"`
	State          State              `json:"state"`
	Kind           models.Kind        `json:"kind"`
	AssetID        string             `json:"assetId,omitempty"`
	EditID         string             `json:"editId,omitempty"`
	Draft          models.RawFields   `json:"draft"`
	Suggestion     *Suggestion        `json:"suggestion,omitempty"`
	VisibleFields  []models.FieldName `json:"visibleFields"`
	RequiredFields []models.FieldName `json:"requiredFields"`
}

// Session owns one draft. All methods are safe for concurrent use; network calls run without
// holding the lock.
type Session struct {
	id   string
	deps Deps
	log  zerolog.Logger

	mu         sync.Mutex
	state      State
	resume     State // state to return to when a submission fails
	kind       models.Kind
	assetID    string
	editID     string
	draft      models.RawFields
	suggestion *Suggestion
	epoch      uint64 // bumped whenever the draft is discarded
	suggestSeq uint64
	lastActive time.Time
	changed    chan struct{}
}

// New returns an idle session.
func New(deps Deps) *Session {
	if deps.Builder == nil {
		deps.Builder = &payload.Builder{}
	}
	id := uuid.NewString()
	return &Session{
		id:         id,
		deps:       deps,
		log:        deps.Logger.With().Str("session_id", id).Logger(),
		state:      StateIdle,
		draft:      models.RawFields{},
		lastActive: time.Now(),
		changed:    make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Changed returns a channel that is closed on the next change to the session.
func (s *Session) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// touch marks activity and wakes watchers. mu must be held.
func (s *Session) touch() {
	s.lastActive = time.Now()
	close(s.changed)
	s.changed = make(chan struct{})
}

// transition must be called with mu held.
func (s *Session) transition(target State) error {
	if err := validateTransition(s.state, target); err != nil {
		return err
	}
	s.log.Debug().Str("from", string(s.state)).Str("to", string(target)).Msg("session transition")
	s.state = target
	s.touch()
	return nil
}

// reset discards the draft. mu must be held.
func (s *Session) reset() {
	s.state = StateIdle
	s.resume = ""
	s.kind = models.KindNone
	s.assetID = ""
	s.editID = ""
	s.draft = models.RawFields{}
	s.suggestion = nil
	s.epoch++
	s.touch()
}

// StartCreate opens a new draft.
func (s *Session) StartCreate(d Defaults) error {
	if d.Kind != models.KindNone && !d.Kind.Valid() {
		return models.ErrUnknownKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StateCreating); err != nil {
		return err
	}
	s.kind = d.Kind
	s.assetID = strings.TrimSpace(d.AssetID)
	s.draft = models.RawFields{}
	return nil
}

// StartEdit opens a draft prefilled from an existing transaction.
func (s *Session) StartEdit(tx models.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("transaction id is required to edit")
	}
	if !tx.Kind.Valid() {
		return models.ErrUnknownKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StateEditing); err != nil {
		return err
	}
	s.kind = tx.Kind
	s.assetID = tx.AssetID
	s.editID = tx.ID
	s.draft = s.deps.Builder.Prefill(tx.TransactionRecord)
	return nil
}

// SetKind changes the kind of the open draft.
func (s *Session) SetKind(k models.Kind) error {
	if !k.Valid() {
		return models.ErrUnknownKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active() {
		return ErrNoActiveSession
	}
	s.kind = k
	s.touch()
	return nil
}

// SetAsset changes the primary asset of a new draft. The asset of an existing transaction is fixed.
func (s *Session) SetAsset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCreating:
	case StateEditing:
		return ErrAssetLocked
	default:
		return ErrNoActiveSession
	}
	s.assetID = strings.TrimSpace(id)
	s.touch()
	return nil
}

// SetField records one form value in the draft.
func (s *Session) SetField(f models.FieldName, value string) error {
	if _, ok := models.RuleFor(f); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active() {
		return ErrNoActiveSession
	}
	s.draft[f] = value
	s.touch()
	return nil
}

// Cancel discards the draft. Responses to requests issued before Cancel are ignored.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return
	}
	s.log.Debug().Str("from", string(s.state)).Msg("session cancelled")
	s.reset()
}

// Submit builds the draft and sends exactly one create or update request. On success the
// session returns to idle. On a validation failure or a rejection it stays open so the draft
// can be corrected. A second Submit while one is pending fails with ErrSubmitInFlight.
func (s *Session) Submit(ctx context.Context, raw models.RawFields) (models.Transaction, error) {
	s.mu.Lock()
	switch {
	case s.state == StateSubmitting:
		s.mu.Unlock()
		return models.Transaction{}, ErrSubmitInFlight
	case !s.state.Active():
		s.mu.Unlock()
		return models.Transaction{}, ErrNoActiveSession
	case s.kind == models.KindNone:
		s.mu.Unlock()
		return models.Transaction{}, ErrKindNotSelected
	}

	if raw == nil {
		raw = s.draft
	}
	s.draft = raw.Clone()
	mode := payload.ModeCreate
	if s.state == StateEditing {
		mode = payload.ModeEdit
	}
	rec, err := s.deps.Builder.Build(s.kind, s.assetID, s.draft, mode)
	if err != nil {
		s.mu.Unlock()
		return models.Transaction{}, err
	}

	s.resume = s.state
	if err := s.transition(StateSubmitting); err != nil {
		s.mu.Unlock()
		return models.Transaction{}, err
	}
	epoch, editID := s.epoch, s.editID
	s.mu.Unlock()

	var tx models.Transaction
	if mode == payload.ModeEdit {
		tx, err = s.deps.Ledger.UpdateTransaction(ctx, editID, rec)
	} else {
		tx, err = s.deps.Ledger.CreateTransaction(ctx, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.log.Info().Err(err).Msg("ignoring submit response for discarded draft")
		return tx, err
	}
	if err != nil {
		s.log.Warn().Err(err).Str("kind", rec.Kind.String()).Msg("submission rejected")
		_ = s.transition(s.resume)
		return models.Transaction{}, err
	}
	s.log.Info().Str("transaction_id", tx.ID).Str("kind", rec.Kind.String()).Str("mode", mode.String()).
		Msg("transaction saved")
	s.reset()
	return tx, nil
}

// SuggestCategory asks the rule service for a category matching description. The newest request
// wins: an older response, or any response arriving after the draft was discarded, leaves the
// session untouched and returns ErrSuggestionDiscarded.
func (s *Session) SuggestCategory(ctx context.Context, description string) (models.SuggestionResponse, error) {
	desc := strings.TrimSpace(description)

	s.mu.Lock()
	if !s.state.Active() {
		s.mu.Unlock()
		return models.SuggestionResponse{}, ErrNoActiveSession
	}
	if desc == "" {
		s.mu.Unlock()
		return models.SuggestionResponse{}, ErrEmptyDescription
	}
	s.suggestSeq++
	seq, epoch := s.suggestSeq, s.epoch
	if s.suggestion == nil {
		s.suggestion = &Suggestion{}
	}
	s.suggestion.Pending = true
	s.touch()
	s.mu.Unlock()

	resp, err := s.deps.Ledger.SuggestCategory(ctx, models.SuggestionRequest{Description: desc})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.suggestSeq != seq {
		return resp, ErrSuggestionDiscarded
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("category suggestion failed")
		s.suggestion.Pending = false
		s.suggestion.Notice = NoticeUnavailable
		s.touch()
		return resp, err
	}
	if resp.Matched && resp.CategoryID != "" {
		s.suggestion = &Suggestion{CategoryID: resp.CategoryID, RuleID: resp.RuleID}
	} else {
		s.suggestion = &Suggestion{Notice: NoticeNoMatch}
	}
	s.touch()
	return resp, nil
}

// Delete removes a transaction. Deleting the transaction being edited closes the draft.
func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.deps.Ledger.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editID == id && s.state != StateIdle {
		s.reset()
	}
	return nil
}

// Upload sends a bulk-import file. It is independent of the draft; row failures are part of the
// report, and only a transport failure is returned as an error.
func (s *Session) Upload(ctx context.Context, filename string, content []byte) (models.ImportReport, error) {
	resp, err := s.deps.Ledger.ImportTransactions(ctx, filename, content)
	if err != nil {
		return models.ImportReport{}, fmt.Errorf("failed to import %s: %w", filename, err)
	}
	limit := s.deps.MaxImportErrors
	if limit == 0 {
		limit = DefaultMaxImportErrors
	}
	report := Summarize(resp, limit)
	report.Filename = filename
	s.log.Info().Str("filename", filename).Int("created", report.Created).Int("skipped", report.Skipped).
		Int("failed", report.Failed).Msg("import finished")
	return report, nil
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:             s.id,
		State:          s.state,
		Kind:           s.kind,
		AssetID:        s.assetID,
		EditID:         s.editID,
		Draft:          s.draft.Clone(),
		VisibleFields:  []models.FieldName{},
		RequiredFields: []models.FieldName{},
	}
	if s.suggestion != nil {
		sg := *s.suggestion
		v.Suggestion = &sg
	}
	if s.kind.Valid() {
		reg := s.deps.Builder.Registry()
		v.VisibleFields = reg.VisibleFields(s.kind)
		v.RequiredFields = reg.RequiredFields(s.kind)
	}
	return v
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.state != StateSubmitting
}
