package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// APIError is a rejection reported by the ledger backend. Detail is the backend's message, unchanged.
type APIError struct {
	StatusCode int    `json:"status"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger rejected request (%d): %s", e.StatusCode, e.Detail)
}

// Is lets callers test for ErrNotFound and ErrConflict.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// parseAPIError builds an APIError from a non-2xx response body. The backend answers either
// {"detail": "..."}, {"error": "..."} or plain text.
func parseAPIError(status int, body []byte) *APIError {
	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Detail != "":
			detail = parsed.Detail
		case parsed.Error != "":
			detail = parsed.Error
		}
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Detail: detail}
}
