package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/payload"
	"github.com/rocjay1/ledger-entry/internal/schema"
	"github.com/rocjay1/ledger-entry/internal/session"
)

func TestHandleListKinds(t *testing.T) {
	d := newTestDeps(&MockLedgerClient{})
	w := do(d, http.MethodGet, "/api/kinds", "")

	require.Equal(t, http.StatusOK, w.Code)
	var kinds []kindView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &kinds))
	assert.Len(t, kinds, len(models.Kinds()))
	assert.Equal(t, models.KindDeposit, kinds[0].Kind)
}

func TestHandleGetKind(t *testing.T) {
	d := newTestDeps(&MockLedgerClient{})
	w := do(d, http.MethodGet, "/api/kinds/exchange", "")

	require.Equal(t, http.StatusOK, w.Code)
	var v kindView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, models.KindExchange, v.Kind)
	assert.Equal(t, []string{"exchangeRateDerivation"}, v.Behaviors)

	names := make(map[models.FieldName]bool)
	for _, f := range v.Fields {
		names[f.Name] = f.Required
	}
	assert.True(t, names[models.FieldSourceAmount])
	_, hasQuantity := names[models.FieldQuantity]
	assert.False(t, hasQuantity, "hidden fields are not listed")
}

func TestHandleGetKind_Unknown(t *testing.T) {
	d := newTestDeps(&MockLedgerClient{})
	assert.Equal(t, http.StatusNotFound, do(d, http.MethodGet, "/api/kinds/bogus", "").Code)
}

func TestHandleGetKind_FollowsSessionRegistry(t *testing.T) {
	entries := make([]schema.FieldSchema, models.NumKinds)
	for _, k := range models.Kinds() {
		entries[k] = schema.Default().For(k)
	}
	entries[models.KindDeposit].Behaviors |= schema.NegativeQuantity
	reg, err := schema.Build(entries)
	require.NoError(t, err)

	b := payload.NewBuilder(nil, "KRW")
	b.Schema = reg
	d := newTestDeps(&MockLedgerClient{})
	d.Sessions = session.NewManager(session.Deps{Builder: b, Logger: zerolog.Nop()}, 0)

	w := do(d, http.MethodGet, "/api/kinds/deposit", "")
	require.Equal(t, http.StatusOK, w.Code)
	var v kindView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, []string{"negativeQuantity"}, v.Behaviors)
}
