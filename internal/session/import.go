package session

import "github.com/rocjay1/ledger-entry/internal/models"

// DefaultMaxImportErrors caps the row errors shown for one import.
const DefaultMaxImportErrors = 20

// Summarize prepares an import response for display, keeping at most limit row errors.
// A limit of zero or less keeps them all.
func Summarize(resp models.ImportResponse, limit int) models.ImportReport {
	report := models.ImportReport{
		Created:     resp.Created,
		Skipped:     resp.Skipped,
		Failed:      resp.Failed,
		Errors:      resp.Errors,
		TotalErrors: len(resp.Errors),
	}
	if report.Failed > report.TotalErrors {
		report.TotalErrors = report.Failed
	}
	if limit > 0 && len(resp.Errors) > limit {
		report.Errors = resp.Errors[:limit:limit]
	}
	report.Truncated = len(report.Errors) < report.TotalErrors
	if report.Errors == nil {
		report.Errors = []models.RowError{}
	}
	return report
}
