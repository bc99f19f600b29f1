package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rocjay1/ledger-entry/internal/services"
	"github.com/rocjay1/ledger-entry/internal/session"
)

// invokeRequest represents the payload from Azure Functions Custom Handler.
type invokeRequest struct {
	Data     map[string]any `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// queueMessage extracts the import notice from a queue trigger payload. The host delivers
// queueItem either as a JSON string or as an already decoded object.
func queueMessage(req invokeRequest) (services.ImportMessage, error) {
	var msg services.ImportMessage
	item, ok := req.Data["queueItem"]
	if !ok {
		if item, ok = req.Data["queueitem"]; !ok {
			return msg, fmt.Errorf("missing queueItem in Data")
		}
	}

	var raw []byte
	switch v := item.(type) {
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return msg, fmt.Errorf("invalid queueItem: %v", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, fmt.Errorf("invalid queueItem JSON: %v", err)
	}
	if msg.BlobName == "" {
		return msg, fmt.Errorf("missing blobName")
	}
	return msg, nil
}

// ProcessImport handles the queue trigger for archived uploads: it imports the file and mails a
// report when rows failed.
func (d *Dependencies) ProcessImport(w http.ResponseWriter, r *http.Request) {
	log := d.log(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	var invokeReq invokeRequest
	if err := json.Unmarshal(body, &invokeReq); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal queue request")
		WriteError(w, http.StatusBadRequest, "Failed to unmarshal request")
		return
	}
	msg, err := queueMessage(invokeReq)
	if err != nil {
		log.Warn().Err(err).Msg("invalid queue message")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if d.Blob == nil {
		WriteError(w, http.StatusServiceUnavailable, "Blob storage is not configured")
		return
	}

	container := msg.Container
	if container == "" {
		container = d.ArchiveContainer
	}
	log = log.With().Str("blob_name", msg.BlobName).Str("container", container).Logger()
	log.Info().Msg("processing queued import")

	content, err := d.Blob.DownloadBytes(r.Context(), container, msg.BlobName)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			log.Warn().Err(err).Msg("archived import no longer exists")
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Error().Err(err).Msg("failed to download import")
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to download import: %v", err))
		return
	}

	filename := msg.Filename
	if filename == "" {
		filename = msg.BlobName
	}
	resp, err := d.Ledger.ImportTransactions(r.Context(), filename, content)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			// Consume the message so a file the ledger refuses is not retried forever.
			log.Warn().Err(err).Msg("ledger rejected import")
			WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected", "detail": apiErr.Detail})
			return
		}
		log.Error().Err(err).Msg("failed to import")
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to import: %v", err))
		return
	}

	report := session.Summarize(resp, d.maxImportErrors())
	report.Filename = filename
	report.ArchivedAs = msg.BlobName
	log.Info().Int("created", report.Created).Int("skipped", report.Skipped).Int("failed", report.Failed).
		Msg("queued import complete")

	if report.Failed > 0 && d.Email != nil && len(d.Recipients) > 0 {
		if err := d.Email.SendImportReport(r.Context(), d.Recipients, report); err != nil {
			log.Error().Err(err).Msg("failed to send import report")
		}
	}
	WriteJSON(w, http.StatusOK, report)
}
