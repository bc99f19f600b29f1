package services

import (
	"sort"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// Tally folds per-row import outcomes into the import response, with errors in row order.
func Tally(outcomes []models.RowOutcome) models.ImportResponse {
	sorted := make([]models.RowOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Row < sorted[j].Row })

	resp := models.ImportResponse{Errors: []models.RowError{}}
	for _, o := range sorted {
		resp = tallyOne(resp, o)
	}
	return resp
}

func tallyOne(acc models.ImportResponse, o models.RowOutcome) models.ImportResponse {
	switch o.Status {
	case models.RowCreated:
		acc.Created++
	case models.RowSkipped:
		acc.Skipped++
	default:
		acc.Failed++
		acc.Errors = append(acc.Errors, models.RowError{Row: o.Row, Error: o.Error})
	}
	return acc
}
