package models

// RowError describes why one import row was rejected.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResponse is the backend's answer to a bulk import.
type ImportResponse struct {
	Created int        `json:"created"`
	Skipped int        `json:"skipped"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors"`
}

// RowStatus is the outcome of a single import row.
type RowStatus string

const (
	RowCreated RowStatus = "created"
	RowSkipped RowStatus = "skipped"
	RowFailed  RowStatus = "failed"
)

// RowOutcome is what happened to one import row.
type RowOutcome struct {
	Row    int       `json:"row"`
	Status RowStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// ImportReport is an ImportResponse prepared for display, with the error list capped.
type ImportReport struct {
	Filename    string     `json:"filename,omitempty"`
	Created     int        `json:"created"`
	Skipped     int        `json:"skipped"`
	Failed      int        `json:"failed"`
	Errors      []RowError `json:"errors"`
	TotalErrors int        `json:"totalErrors"`
	Truncated   bool       `json:"truncated"`
	ArchivedAs  string     `json:"archivedAs,omitempty"`
}
