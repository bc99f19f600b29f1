package payload

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// DefaultLocalCurrency is the currency exchange rates are quoted in when none is configured.
const DefaultLocalCurrency = "KRW"

var ErrMissingSourceAsset = errors.New("dividend source asset is required")

// ExchangeRate derives the rate of an exchange quoted in the default local currency.
func ExchangeRate(source, target decimal.Decimal, sourceCurrency string) (decimal.Decimal, bool) {
	return ExchangeRateIn(DefaultLocalCurrency, source, target, sourceCurrency)
}

// ExchangeRateIn derives the rate of an exchange, always expressed as local currency per unit of
// foreign currency. ok is false unless both amounts are strictly positive.
func ExchangeRateIn(local string, source, target decimal.Decimal, sourceCurrency string) (decimal.Decimal, bool) {
	if !source.IsPositive() || !target.IsPositive() {
		return decimal.Zero, false
	}
	if strings.EqualFold(sourceCurrency, local) {
		return source.Div(target), true
	}
	return target.Div(source), true
}

// DividendInputs are the unparsed optional amounts of a cash dividend.
type DividendInputs struct {
	Price    string
	Fee      string
	Tax      string
	Quantity string
}

// DividendExtras is the dividend-specific part of a record.
type DividendExtras struct {
	Extras   map[string]any
	Price    *decimal.Decimal
	Fee      *decimal.Decimal
	Tax      *decimal.Decimal
	Quantity decimal.Decimal
}

// BuildDividendExtras links a dividend to the asset that paid it.
// Price, fee and tax that are blank, unparseable or zero are left nil. Quantity is always set.
func BuildDividendExtras(sourceAssetID string, in DividendInputs) (DividendExtras, error) {
	sourceAssetID = strings.TrimSpace(sourceAssetID)
	if sourceAssetID == "" {
		return DividendExtras{}, ErrMissingSourceAsset
	}

	out := DividendExtras{
		Extras: map[string]any{models.ExtraSourceAssetID: sourceAssetID},
		Price:  nonZero(in.Price),
		Fee:    nonZero(in.Fee),
		Tax:    nonZero(in.Tax),
	}
	if q, err := parseNumber(in.Quantity); err == nil {
		out.Quantity = q
	}
	return out, nil
}

// nonZero implements the zero-means-unset convention of optional dividend amounts.
func nonZero(s string) *decimal.Decimal {
	d, err := parseNumber(s)
	if err != nil || d.IsZero() {
		return nil
	}
	return &d
}

// parseNumber accepts thousands separators ("1,250.5").
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return decimal.NewFromString(s)
}
