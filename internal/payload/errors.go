package payload

import (
	"fmt"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// FailureKind classifies a ValidationError.
type FailureKind string

const (
	FailureMissing             FailureKind = "missing"
	FailureInvalidNumber       FailureKind = "invalid_number"
	FailureMissingCounterAsset FailureKind = "missing_counter_asset"
	FailureInvalidDate         FailureKind = "invalid_date"
	FailureInvalidReference    FailureKind = "invalid_reference"
)

// ValidationError names the field that stopped a payload from being built.
type ValidationError struct {
	Field models.FieldName `json:"field"`
	Kind  FailureKind      `json:"kind"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Kind)
}

func fail(f models.FieldName, kind FailureKind) error {
	return &ValidationError{Field: f, Kind: kind}
}
