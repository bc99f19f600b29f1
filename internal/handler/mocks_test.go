package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/payload"
	"github.com/rocjay1/ledger-entry/internal/session"
)

type MockLedgerClient struct {
	CreateFunc  func(ctx context.Context, rec models.TransactionRecord) (models.Transaction, error)
	UpdateFunc  func(ctx context.Context, id string, rec models.TransactionRecord) (models.Transaction, error)
	DeleteFunc  func(ctx context.Context, id string) error
	SuggestFunc func(ctx context.Context, req models.SuggestionRequest) (models.SuggestionResponse, error)
	ImportFunc  func(ctx context.Context, filename string, content []byte) (models.ImportResponse, error)
}

func (m *MockLedgerClient) CreateTransaction(ctx context.Context, rec models.TransactionRecord) (models.Transaction, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rec)
	}
	return models.Transaction{ID: "tx-new", TransactionRecord: rec}, nil
}

func (m *MockLedgerClient) UpdateTransaction(ctx context.Context, id string, rec models.TransactionRecord) (models.Transaction, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, rec)
	}
	return models.Transaction{ID: id, TransactionRecord: rec}, nil
}

func (m *MockLedgerClient) DeleteTransaction(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockLedgerClient) SuggestCategory(ctx context.Context, req models.SuggestionRequest) (models.SuggestionResponse, error) {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, req)
	}
	return models.SuggestionResponse{}, nil
}

func (m *MockLedgerClient) ImportTransactions(ctx context.Context, filename string, content []byte) (models.ImportResponse, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, filename, content)
	}
	return models.ImportResponse{Errors: []models.RowError{}}, nil
}

type MockBlobClient struct {
	UploadBytesFunc   func(ctx context.Context, containerName, blobName string, content []byte) error
	DownloadBytesFunc func(ctx context.Context, containerName, blobName string) ([]byte, error)
}

func (m *MockBlobClient) UploadBytes(ctx context.Context, containerName, blobName string, content []byte) error {
	if m.UploadBytesFunc != nil {
		return m.UploadBytesFunc(ctx, containerName, blobName, content)
	}
	return nil
}

func (m *MockBlobClient) DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, error) {
	if m.DownloadBytesFunc != nil {
		return m.DownloadBytesFunc(ctx, containerName, blobName)
	}
	return nil, nil
}

type MockQueueClient struct {
	EnqueueMessageFunc func(ctx context.Context, queueName string, message any) error
}

func (m *MockQueueClient) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	if m.EnqueueMessageFunc != nil {
		return m.EnqueueMessageFunc(ctx, queueName, message)
	}
	return nil
}

type MockEmailClient struct {
	SendImportReportFunc func(ctx context.Context, recipients []string, report models.ImportReport) error
}

func (m *MockEmailClient) SendImportReport(ctx context.Context, recipients []string, report models.ImportReport) error {
	if m.SendImportReportFunc != nil {
		return m.SendImportReportFunc(ctx, recipients, report)
	}
	return nil
}

type MockAssets struct {
	RefreshFunc func(ctx context.Context) error
	Count       int
}

func (m *MockAssets) Refresh(ctx context.Context) error {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return nil
}

func (m *MockAssets) Len() int { return m.Count }

func newTestDeps(ledger *MockLedgerClient) *Dependencies {
	return &Dependencies{
		Sessions: session.NewManager(session.Deps{
			Ledger:  ledger,
			Builder: payload.NewBuilder(nil, "KRW"),
			Logger:  zerolog.Nop(),
		}, 0),
		Ledger:           ledger,
		Log:              zerolog.Nop(),
		ArchiveContainer: "ledger-imports",
		ImportQueue:      "import-queue",
	}
}

// do sends a request through the full router.
func do(d *Dependencies, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	NewRouter(d).ServeHTTP(w, req)
	return w
}

// withURLParams attaches chi route parameters to a request for direct handler calls.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	writer.Close()
	return body, writer.FormDataContentType()
}
