package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// LedgerClient talks to the ledger REST API.
type LedgerClient struct {
	baseURL    string
	cred       azcore.TokenCredential
	scope      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewLedgerClient creates a client for the API at baseURL. cred may be nil for unauthenticated
// local backends; scope is only used with Entra ID credentials.
func NewLedgerClient(baseURL string, cred azcore.TokenCredential, scope string, log zerolog.Logger) (*LedgerClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("ledger API URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid ledger API URL: %w", err)
	}
	return &LedgerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cred:       cred,
		scope:      scope,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}, nil
}

func (c *LedgerClient) newRequest(ctx context.Context, method, p string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+p, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if err := authorize(ctx, req, c.cred, c.scope); err != nil {
		return nil, err
	}
	return req, nil
}

// do sends req and decodes a JSON answer into out. Non-2xx answers become *APIError.
func (c *LedgerClient) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	c.log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).Msg("ledger api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *LedgerClient) sendJSON(ctx context.Context, method, p string, in, out any, header http.Header) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, method, p, bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return c.do(req, out)
}

// CreateTransaction posts a new record. Each call carries a fresh Idempotency-Key.
func (c *LedgerClient) CreateTransaction(ctx context.Context, rec models.TransactionRecord) (models.Transaction, error) {
	var tx models.Transaction
	h := http.Header{}
	h.Set("Idempotency-Key", uuid.NewString())
	if err := c.sendJSON(ctx, http.MethodPost, "/transactions", rec, &tx, h); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// UpdateTransaction patches the mutable fields of an existing record.
func (c *LedgerClient) UpdateTransaction(ctx context.Context, id string, rec models.TransactionRecord) (models.Transaction, error) {
	var tx models.Transaction
	if err := c.sendJSON(ctx, http.MethodPatch, "/transactions/"+url.PathEscape(id), rec, &tx, nil); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

func (c *LedgerClient) DeleteTransaction(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// ImportTransactions uploads a CSV as multipart form field "file".
func (c *LedgerClient) ImportTransactions(ctx context.Context, filename string, content []byte) (models.ImportResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", path.Base(filename))
	if err != nil {
		return models.ImportResponse{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return models.ImportResponse{}, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return models.ImportResponse{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/transactions/import", body, writer.FormDataContentType())
	if err != nil {
		return models.ImportResponse{}, err
	}
	var resp models.ImportResponse
	if err := c.do(req, &resp); err != nil {
		return models.ImportResponse{}, err
	}
	return resp, nil
}

func (c *LedgerClient) SuggestCategory(ctx context.Context, in models.SuggestionRequest) (models.SuggestionResponse, error) {
	var resp models.SuggestionResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/category-rules/suggest", in, &resp, nil); err != nil {
		return models.SuggestionResponse{}, err
	}
	return resp, nil
}

func (c *LedgerClient) ListAssets(ctx context.Context) ([]models.Asset, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/assets", nil, "")
	if err != nil {
		return nil, err
	}
	var assets []models.Asset
	if err := c.do(req, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}
