package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocjay1/ledger-entry/internal/models"
)

type scopeRecorder struct {
	scopes []string
}

func (s *scopeRecorder) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	s.scopes = opts.Scopes
	return azcore.AccessToken{Token: "entra-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func newTestClient(t *testing.T, h http.HandlerFunc) *LedgerClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewLedgerClient(srv.URL+"/", StaticTokenCredential{Token: "secret"}, "", zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestLedgerClient_CreateTransaction(t *testing.T) {
	qty := decimal.NewFromInt(-10)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sell", body["kind"])
		assert.Equal(t, "stock-a", body["assetId"])
		assert.NotContains(t, body, "price")

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"tx-1","assetId":"stock-a","kind":"sell","quantity":-10,"date":"2025-08-17T00:00:00Z"}`)
	})

	tx, err := c.CreateTransaction(context.Background(), models.TransactionRecord{
		AssetID:  "stock-a",
		Kind:     models.KindSell,
		Quantity: &qty,
		Date:     time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, models.KindSell, tx.Kind)
	assert.True(t, tx.Quantity.Equal(qty))
}

func TestLedgerClient_RejectionIsVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":"duplicate external id: bank-001"}`)
	})

	_, err := c.UpdateTransaction(context.Background(), "tx 1", models.TransactionRecord{Kind: models.KindDeposit})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "duplicate external id: bank-001", apiErr.Detail)
}

func TestLedgerClient_DeleteNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/transactions/tx-404", r.URL.Path)
		http.Error(w, "no such transaction", http.StatusNotFound)
	})

	err := c.DeleteTransaction(context.Background(), "tx-404")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "no such transaction")
}

func TestLedgerClient_ImportTransactions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/import", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "bank.csv", header.Filename)
		assert.Equal(t, "Date,Kind\n", string(content))

		io.WriteString(w, `{"created":3,"skipped":1,"failed":1,"errors":[{"row":4,"error":"missing Date"}]}`)
	})

	resp, err := c.ImportTransactions(context.Background(), "/tmp/bank.csv", []byte("Date,Kind\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Created)
	assert.Equal(t, []models.RowError{{Row: 4, Error: "missing Date"}}, resp.Errors)
}

func TestLedgerClient_SuggestCategoryUsesScope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer entra-token", r.Header.Get("Authorization"))
		var req models.SuggestionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "STARBUCKS", req.Description)
		io.WriteString(w, `{"matched":true,"categoryId":"cat-cafe","ruleId":"r1"}`)
	}))
	defer srv.Close()

	cred := &scopeRecorder{}
	c, err := NewLedgerClient(srv.URL, cred, "api://ledger/.default", zerolog.Nop())
	require.NoError(t, err)

	resp, err := c.SuggestCategory(context.Background(), models.SuggestionRequest{Description: "STARBUCKS"})
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionResponse{Matched: true, CategoryID: "cat-cafe", RuleID: "r1"}, resp)
	assert.Equal(t, []string{"api://ledger/.default"}, cred.scopes)
}

func TestLedgerClient_ListAssets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, `[{"id":"krw-cash","accountId":"acct-1","name":"Cash","currency":"KRW"}]`)
	})

	assets, err := c.ListAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Asset{{ID: "krw-cash", AccountID: "acct-1", Name: "Cash", Currency: "KRW"}}, assets)
}

func TestNewLedgerClient_RequiresURL(t *testing.T) {
	_, err := NewLedgerClient("", nil, "", zerolog.Nop())
	assert.Error(t, err)
}
