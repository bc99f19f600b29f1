// Package payload turns raw form values into the TransactionRecord sent to the ledger.
package payload

import (
	"github.com/shopspring/decimal"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/schema"
)

// Normalize signs a magnitude for kind. A negative magnitude is treated as already signed, so
// Normalize(k, Normalize(k, x).Abs()) == Normalize(k, x).
func Normalize(kind models.Kind, magnitude decimal.Decimal) decimal.Decimal {
	return normalizeIn(schema.Default(), kind, magnitude)
}

func normalizeIn(reg *schema.Registry, kind models.Kind, magnitude decimal.Decimal) decimal.Decimal {
	m := magnitude.Abs()
	if reg.HasBehavior(schema.NegativeQuantity, kind) {
		return m.Neg()
	}
	return m
}
