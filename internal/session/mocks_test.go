package session

import (
	"context"

	"github.com/rocjay1/ledger-entry/internal/models"
)

type MockLedger struct {
	CreateFunc  func(ctx context.Context, rec models.TransactionRecord) (models.Transaction, error)
	UpdateFunc  func(ctx context.Context, id string, rec models.TransactionRecord) (models.Transaction, error)
	DeleteFunc  func(ctx context.Context, id string) error
	SuggestFunc func(ctx context.Context, req models.SuggestionRequest) (models.SuggestionResponse, error)
	ImportFunc  func(ctx context.Context, filename string, content []byte) (models.ImportResponse, error)
}

func (m *MockLedger) CreateTransaction(ctx context.Context, rec models.TransactionRecord) (models.Transaction, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rec)
	}
	return models.Transaction{ID: "tx-new", TransactionRecord: rec}, nil
}

func (m *MockLedger) UpdateTransaction(ctx context.Context, id string, rec models.TransactionRecord) (models.Transaction, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, rec)
	}
	return models.Transaction{ID: id, TransactionRecord: rec}, nil
}

func (m *MockLedger) DeleteTransaction(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockLedger) SuggestCategory(ctx context.Context, req models.SuggestionRequest) (models.SuggestionResponse, error) {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, req)
	}
	return models.SuggestionResponse{}, nil
}

func (m *MockLedger) ImportTransactions(ctx context.Context, filename string, content []byte) (models.ImportResponse, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, filename, content)
	}
	return models.ImportResponse{}, nil
}
