package session

import (
	"context"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// TransactionAPI persists transactions on the ledger backend.
type TransactionAPI interface {
	CreateTransaction(ctx context.Context, rec models.TransactionRecord) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, rec models.TransactionRecord) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// CategorySuggester classifies a description against the backend's category rules.
type CategorySuggester interface {
	SuggestCategory(ctx context.Context, req models.SuggestionRequest) (models.SuggestionResponse, error)
}

// Importer sends a bulk-import file to the backend.
type Importer interface {
	ImportTransactions(ctx context.Context, filename string, content []byte) (models.ImportResponse, error)
}

// Ledger is everything a session needs from the backend.
type Ledger interface {
	TransactionAPI
	CategorySuggester
	Importer
}
