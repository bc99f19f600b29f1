package handler

import (
	"context"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/session"
)

// LedgerClient is the ledger backend as seen by the handlers.
type LedgerClient interface {
	session.Ledger
}

// BlobClient archives and retrieves import files.
type BlobClient interface {
	UploadBytes(ctx context.Context, containerName, blobName string, content []byte) error
	DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, error)
}

// QueueClient posts queue messages.
type QueueClient interface {
	EnqueueMessage(ctx context.Context, queueName string, message any) error
}

// EmailClient mails import reports.
type EmailClient interface {
	SendImportReport(ctx context.Context, recipients []string, report models.ImportReport) error
}

// AssetRefresher reloads the asset directory.
type AssetRefresher interface {
	Refresh(ctx context.Context) error
	Len() int
}
