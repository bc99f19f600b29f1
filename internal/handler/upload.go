package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rocjay1/ledger-entry/internal/services"
	"github.com/rocjay1/ledger-entry/internal/session"
)

// readUpload reads the "file" part of a multipart upload, writing a 400 on failure.
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "File too large or invalid form")
		return "", nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to get file")
		return "", nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to read file")
		return "", nil, false
	}
	return filepath.Base(header.Filename), content, true
}

type archiveResponse struct {
	Status   string `json:"status"`
	BlobName string `json:"blobName"`
}

// HandleUpload imports a CSV outside any session. With ?async=true the file is archived to blob
// storage and queued for ProcessImport instead.
func (d *Dependencies) HandleUpload(w http.ResponseWriter, r *http.Request) {
	filename, content, ok := readUpload(w, r)
	if !ok {
		return
	}
	log := d.log(r)
	log.Info().Str("filename", filename).Int("size_bytes", len(content)).Msg("received file upload")

	if r.URL.Query().Get("async") == "true" {
		d.archiveUpload(w, r, filename, content)
		return
	}

	resp, err := d.Ledger.ImportTransactions(r.Context(), filename, content)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("import failed")
		WriteFailure(w, err)
		return
	}
	report := session.Summarize(resp, d.maxImportErrors())
	report.Filename = filename
	WriteJSON(w, http.StatusOK, report)
}

func (d *Dependencies) archiveUpload(w http.ResponseWriter, r *http.Request, filename string, content []byte) {
	log := d.log(r)
	if d.Blob == nil || d.Queue == nil {
		WriteError(w, http.StatusServiceUnavailable, "Asynchronous import is not configured")
		return
	}

	blobName := services.ArchiveName(filename, time.Now())
	if err := d.Blob.UploadBytes(r.Context(), d.ArchiveContainer, blobName, content); err != nil {
		log.Error().Err(err).Str("blob_name", blobName).Str("container", d.ArchiveContainer).Msg("failed to archive upload")
		WriteError(w, http.StatusInternalServerError, "Failed to upload blob: "+err.Error())
		return
	}

	msg := services.ImportMessage{
		Event:     services.EventImportArchived,
		Container: d.ArchiveContainer,
		BlobName:  blobName,
		Filename:  filename,
	}
	if err := d.Queue.EnqueueMessage(r.Context(), d.ImportQueue, msg); err != nil {
		log.Error().Err(err).Str("queue", d.ImportQueue).Str("blob_name", blobName).Msg("failed to enqueue message")
		WriteError(w, http.StatusInternalServerError, "Failed to enqueue message: "+err.Error())
		return
	}
	log.Info().Str("blob_name", blobName).Str("queue", d.ImportQueue).Msg("upload archived for processing")

	WriteJSON(w, http.StatusAccepted, archiveResponse{Status: "queued", BlobName: blobName})
}
