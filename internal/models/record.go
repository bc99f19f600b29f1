package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Keys of TransactionRecord.Extras.
const (
	ExtraExchangeRate  = "exchangeRate"
	ExtraSourceAssetID = "sourceAssetId"
	ExtraCashAssetID   = "cashAssetId"
)

// TransactionRecord is the canonical payload sent to the ledger backend.
// Quantity is already signed for the kind.
type TransactionRecord struct {
	AssetID              string           `json:"assetId,omitempty"`
	Kind                 Kind             `json:"kind"`
	Quantity             *decimal.Decimal `json:"quantity,omitempty"`
	Price                *decimal.Decimal `json:"price,omitempty"`
	Fee                  *decimal.Decimal `json:"fee,omitempty"`
	Tax                  *decimal.Decimal `json:"tax,omitempty"`
	Date                 time.Time        `json:"date"`
	Description          string           `json:"description,omitempty"`
	Memo                 string           `json:"memo,omitempty"`
	CategoryID           string           `json:"categoryId,omitempty"`
	CounterAssetID       string           `json:"counterAssetId,omitempty"`
	TargetAmount         *decimal.Decimal `json:"targetAmount,omitempty"`
	Extras               map[string]any   `json:"extras,omitempty"`
	RelatedTransactionID string           `json:"relatedTransactionId,omitempty"`
}

// Transaction is a record as stored by the backend.
type Transaction struct {
	ID         string `json:"id"`
	ExternalID string `json:"externalId,omitempty"`
	TransactionRecord
}

// RawFields renders the record back into form values, used to prefill an edit.
func (r TransactionRecord) RawFields() RawFields {
	raw := RawFields{}
	set := func(f FieldName, v string) {
		if v != "" {
			raw[f] = v
		}
	}
	setDec := func(f FieldName, d *decimal.Decimal) {
		if d != nil {
			raw[f] = d.Abs().String()
		}
	}

	set(FieldAsset, r.AssetID)
	setDec(FieldQuantity, r.Quantity)
	setDec(FieldPrice, r.Price)
	setDec(FieldFee, r.Fee)
	setDec(FieldTax, r.Tax)
	if !r.Date.IsZero() {
		raw[FieldDate] = r.Date.Format(time.RFC3339)
	}
	set(FieldDescription, r.Description)
	set(FieldMemo, r.Memo)
	set(FieldCategory, r.CategoryID)
	set(FieldCounterAsset, r.CounterAssetID)
	setDec(FieldTargetAmount, r.TargetAmount)
	set(FieldRelatedTransaction, r.RelatedTransactionID)

	if v, ok := r.Extras[ExtraSourceAssetID].(string); ok {
		set(FieldDividendSourceAsset, v)
	}
	if v, ok := r.Extras[ExtraCashAssetID].(string); ok {
		set(FieldCashLegAsset, v)
	}
	return raw
}
