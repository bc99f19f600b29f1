package payload

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/schema"
)

var testAssets = models.NewAssetIndex([]models.Asset{
	{ID: "krw-cash", AccountID: "acct-1", Name: "KRW cash", Currency: "KRW"},
	{ID: "krw-savings", AccountID: "acct-1", Name: "KRW savings", Currency: "KRW"},
	{ID: "usd-cash", AccountID: "acct-1", Name: "USD cash", Currency: "USD"},
	{ID: "stock-a", AccountID: "acct-1", Name: "Stock A", Currency: "KRW"},
	{ID: "krw-other", AccountID: "acct-2", Name: "Other bank", Currency: "KRW"},
})

func newTestBuilder() *Builder {
	return NewBuilder(testAssets, "KRW")
}

func requireValidation(t *testing.T, err error, field models.FieldName, kind FailureKind) {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Equal(t, field, ve.Field)
	assert.Equal(t, kind, ve.Kind)
}

func TestBuild_BuySellSign(t *testing.T) {
	raw := models.RawFields{
		models.FieldQuantity: "10",
		models.FieldPrice:    "50000",
		models.FieldDate:     "2025-08-17",
	}
	b := newTestBuilder()

	buy, err := b.Build(models.KindBuy, "stock-a", raw, ModeCreate)
	require.NoError(t, err)
	require.NotNil(t, buy.Quantity)
	assert.True(t, buy.Quantity.Equal(decimal.NewFromInt(10)), buy.Quantity.String())
	assert.Equal(t, "stock-a", buy.AssetID)
	assert.True(t, buy.Price.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC), buy.Date)
	assert.Nil(t, buy.Extras, "no cash leg chosen means no extras")

	sell, err := b.Build(models.KindSell, "stock-a", raw, ModeCreate)
	require.NoError(t, err)
	assert.True(t, sell.Quantity.Equal(decimal.NewFromInt(-10)), sell.Quantity.String())
}

func TestBuild_RequiredFields(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(models.KindBuy, "", models.RawFields{models.FieldQuantity: "1"}, ModeCreate)
	requireValidation(t, err, models.FieldAsset, FailureMissing)

	// quantity comes before price in form order
	_, err = b.Build(models.KindBuy, "stock-a", models.RawFields{models.FieldDate: "2025-08-17"}, ModeCreate)
	requireValidation(t, err, models.FieldQuantity, FailureMissing)

	_, err = b.Build(models.KindDeposit, "krw-cash", models.RawFields{
		models.FieldQuantity: "   ",
		models.FieldDate:     "2025-08-17",
	}, ModeCreate)
	requireValidation(t, err, models.FieldQuantity, FailureMissing)
}

func TestBuild_InvalidInput(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(models.KindDeposit, "krw-cash", models.RawFields{
		models.FieldQuantity: "ten",
		models.FieldDate:     "2025-08-17",
	}, ModeCreate)
	requireValidation(t, err, models.FieldQuantity, FailureInvalidNumber)

	_, err = b.Build(models.KindBuy, "stock-a", models.RawFields{
		models.FieldQuantity: "1",
		models.FieldPrice:    "100",
		models.FieldFee:      "1.2.3",
		models.FieldDate:     "2025-08-17",
	}, ModeCreate)
	requireValidation(t, err, models.FieldFee, FailureInvalidNumber)

	_, err = b.Build(models.KindDeposit, "krw-cash", models.RawFields{
		models.FieldQuantity: "1",
		models.FieldDate:     "17/08/2025",
	}, ModeCreate)
	requireValidation(t, err, models.FieldDate, FailureInvalidDate)
}

func TestBuild_ThousandsSeparatorsAndRFC3339(t *testing.T) {
	rec, err := newTestBuilder().Build(models.KindWithdraw, "krw-cash", models.RawFields{
		models.FieldQuantity:    "1,250,000",
		models.FieldDate:        "2025-08-17T09:30:00+09:00",
		models.FieldDescription: "  rent  ",
	}, ModeCreate)
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(-1250000)))
	assert.Equal(t, "rent", rec.Description)
	assert.True(t, rec.Date.Equal(time.Date(2025, 8, 17, 0, 30, 0, 0, time.UTC)))
}

func TestBuild_HiddenFieldsDropped(t *testing.T) {
	rec, err := newTestBuilder().Build(models.KindAdjustment, "krw-cash", models.RawFields{
		models.FieldQuantity: "5",
		models.FieldDate:     "2025-08-17",
		models.FieldCategory: "cat-food",
	}, ModeCreate)
	require.NoError(t, err)
	assert.Empty(t, rec.CategoryID)
}

func TestBuild_Exchange(t *testing.T) {
	b := newTestBuilder()
	raw := models.RawFields{
		models.FieldCounterAsset: "usd-cash",
		models.FieldSourceAmount: "1350000",
		models.FieldTargetAmount: "1000",
		models.FieldDate:         "2025-08-17",
		models.FieldQuantity:     "999",
		models.FieldCategory:     "cat-travel",
	}

	rec, err := b.Build(models.KindExchange, "krw-cash", raw, ModeCreate)
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(1350000)), "quantity comes from the source amount")
	assert.True(t, rec.TargetAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "usd-cash", rec.CounterAssetID)
	assert.Empty(t, rec.CategoryID)
	rate, ok := rec.Extras[models.ExtraExchangeRate].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1350)), rate.String())
	assert.Len(t, rec.Extras, 1)

	t.Run("zero amount", func(t *testing.T) {
		r := raw.Clone()
		r[models.FieldSourceAmount] = "0"
		_, err := b.Build(models.KindExchange, "krw-cash", r, ModeCreate)
		requireValidation(t, err, models.FieldSourceAmount, FailureInvalidNumber)
	})

	t.Run("same currency", func(t *testing.T) {
		r := raw.Clone()
		r[models.FieldCounterAsset] = "krw-savings"
		_, err := b.Build(models.KindExchange, "krw-cash", r, ModeCreate)
		requireValidation(t, err, models.FieldCounterAsset, FailureInvalidReference)
	})

	t.Run("same asset", func(t *testing.T) {
		r := raw.Clone()
		r[models.FieldCounterAsset] = "krw-cash"
		_, err := b.Build(models.KindExchange, "krw-cash", r, ModeCreate)
		requireValidation(t, err, models.FieldCounterAsset, FailureInvalidReference)
	})

	t.Run("unknown assets skip account checks", func(t *testing.T) {
		r := raw.Clone()
		r[models.FieldCounterAsset] = "eur-cash"
		rec, err := b.Build(models.KindExchange, "mystery", r, ModeCreate)
		require.NoError(t, err)
		rate := rec.Extras[models.ExtraExchangeRate].(decimal.Decimal)
		assert.True(t, rate.Equal(decimal.NewFromInt(1350)), "unknown source currency is taken as local")
	})
}

func TestBuild_CashDividend(t *testing.T) {
	b := newTestBuilder()
	raw := models.RawFields{
		models.FieldQuantity: "0",
		models.FieldPrice:    "0",
		models.FieldFee:      "0",
		models.FieldTax:      "0",
		models.FieldDate:     "2025-08-17",
		models.FieldCategory: "cat-income",
	}

	_, err := b.Build(models.KindCashDividend, "krw-cash", raw, ModeCreate)
	requireValidation(t, err, models.FieldDividendSourceAsset, FailureMissingCounterAsset)

	raw[models.FieldDividendSourceAsset] = "stock-a"
	rec, err := b.Build(models.KindCashDividend, "krw-cash", raw, ModeCreate)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{models.ExtraSourceAssetID: "stock-a"}, rec.Extras)
	require.NotNil(t, rec.Quantity)
	assert.True(t, rec.Quantity.IsZero())
	assert.Nil(t, rec.Price)
	assert.Nil(t, rec.Fee)
	assert.Nil(t, rec.Tax)
	assert.Empty(t, rec.CategoryID)

	raw[models.FieldDividendSourceAsset] = "krw-cash"
	_, err = b.Build(models.KindCashDividend, "krw-cash", raw, ModeCreate)
	requireValidation(t, err, models.FieldDividendSourceAsset, FailureInvalidReference)
}

func TestBuild_CashLeg(t *testing.T) {
	b := newTestBuilder()
	raw := models.RawFields{
		models.FieldQuantity:     "3",
		models.FieldPrice:        "70000",
		models.FieldDate:         "2025-08-17",
		models.FieldCashLegAsset: "krw-cash",
	}

	rec, err := b.Build(models.KindBuy, "stock-a", raw, ModeCreate)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{models.ExtraCashAssetID: "krw-cash"}, rec.Extras)

	raw[models.FieldCashLegAsset] = "usd-cash"
	_, err = b.Build(models.KindBuy, "stock-a", raw, ModeCreate)
	requireValidation(t, err, models.FieldCashLegAsset, FailureInvalidReference)

	raw[models.FieldCashLegAsset] = "krw-other"
	_, err = b.Build(models.KindSell, "stock-a", raw, ModeCreate)
	requireValidation(t, err, models.FieldCashLegAsset, FailureInvalidReference)
}

func TestBuild_InternalTransferNeedsDistinctCounter(t *testing.T) {
	raw := models.RawFields{
		models.FieldCounterAsset: "krw-cash",
		models.FieldQuantity:     "100",
		models.FieldDate:         "2025-08-17",
	}
	_, err := newTestBuilder().Build(models.KindInternalTransfer, "krw-cash", raw, ModeCreate)
	requireValidation(t, err, models.FieldCounterAsset, FailureInvalidReference)

	raw[models.FieldCounterAsset] = "krw-savings"
	rec, err := newTestBuilder().Build(models.KindInternalTransfer, "krw-cash", raw, ModeCreate)
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(-100)))
	assert.Equal(t, "krw-savings", rec.CounterAssetID)
}

func TestBuild_PaymentCancelNeedsReference(t *testing.T) {
	raw := models.RawFields{
		models.FieldQuantity: "12000",
		models.FieldDate:     "2025-08-17",
	}
	_, err := newTestBuilder().Build(models.KindPaymentCancel, "krw-cash", raw, ModeCreate)
	requireValidation(t, err, models.FieldRelatedTransaction, FailureMissing)

	raw[models.FieldRelatedTransaction] = "tx-42"
	rec, err := newTestBuilder().Build(models.KindPaymentCancel, "krw-cash", raw, ModeCreate)
	require.NoError(t, err)
	assert.Equal(t, "tx-42", rec.RelatedTransactionID)
	assert.True(t, rec.Quantity.IsPositive())
}

// fullForm fills every field with a value that passes every cross-reference check.
func fullForm() models.RawFields {
	return models.RawFields{
		models.FieldAsset:               "krw-cash",
		models.FieldCounterAsset:        "usd-cash",
		models.FieldCashLegAsset:        "krw-savings",
		models.FieldDividendSourceAsset: "stock-a",
		models.FieldRelatedTransaction:  "tx-1",
		models.FieldQuantity:            "10",
		models.FieldSourceAmount:        "135000",
		models.FieldTargetAmount:        "100",
		models.FieldPrice:               "50000",
		models.FieldFee:                 "15",
		models.FieldTax:                 "7",
		models.FieldDate:                "2025-08-17",
		models.FieldCategory:            "cat-1",
		models.FieldDescription:         "lunch",
		models.FieldMemo:                "memo",
	}
}

func jsonKeys(t *testing.T, rec models.TransactionRecord) map[string]any {
	t.Helper()
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestBuild_EditPayloadIsStrictSubset(t *testing.T) {
	b := newTestBuilder()
	for _, k := range models.Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			created, err := b.Build(k, "", fullForm(), ModeCreate)
			require.NoError(t, err)
			edited, err := b.Build(k, "", fullForm(), ModeEdit)
			require.NoError(t, err)

			createKeys, editKeys := jsonKeys(t, created), jsonKeys(t, edited)
			for _, key := range []string{"quantity", "price", "fee", "tax", "assetId"} {
				assert.NotContains(t, editKeys, key)
			}
			for key := range editKeys {
				assert.Contains(t, createKeys, key)
			}
			assert.Less(t, len(editKeys), len(createKeys))
		})
	}
}

func TestBuild_EditDoesNotRequireImmutableFields(t *testing.T) {
	rec, err := newTestBuilder().Build(models.KindBuy, "", models.RawFields{
		models.FieldDate:        "2025-09-01",
		models.FieldDescription: "corrected",
	}, ModeEdit)
	require.NoError(t, err)
	assert.Nil(t, rec.Quantity)
	assert.Nil(t, rec.Price)
	assert.Empty(t, rec.AssetID)
	assert.Equal(t, "corrected", rec.Description)
}

func TestBuild_PanicsWithoutKind(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = newTestBuilder().Build(models.KindNone, "krw-cash", models.RawFields{}, ModeCreate)
	})
}

func TestValidationErrorJSON(t *testing.T) {
	b, err := json.Marshal(&ValidationError{Field: models.FieldQuantity, Kind: FailureInvalidNumber})
	require.NoError(t, err)
	assert.JSONEq(t, `{"field":"quantity","kind":"invalid_number"}`, string(b))
}

func TestBuild_EditExchangeKeepsAmounts(t *testing.T) {
	raw := fullForm()
	raw[models.FieldSourceAmount] = "270000"
	raw[models.FieldTargetAmount] = "999"

	rec, err := newTestBuilder().Build(models.KindExchange, "usd-cash", raw, ModeEdit)
	require.NoError(t, err)
	assert.Empty(t, rec.CounterAssetID)
	assert.Nil(t, rec.TargetAmount)
	assert.Nil(t, rec.Quantity)
	assert.Nil(t, rec.Extras)
}

// negativeDeposits is the built-in table with deposits flipped to outflows.
func negativeDeposits(t *testing.T) *schema.Registry {
	t.Helper()
	entries := make([]schema.FieldSchema, models.NumKinds)
	for _, k := range models.Kinds() {
		entries[k] = schema.Default().For(k)
	}
	entries[models.KindDeposit].Behaviors |= schema.NegativeQuantity
	reg, err := schema.Build(entries)
	require.NoError(t, err)
	return reg
}

func TestBuild_UsesInjectedRegistry(t *testing.T) {
	b := newTestBuilder()
	b.Schema = negativeDeposits(t)
	assert.Same(t, b.Schema, b.Registry())

	rec, err := b.Build(models.KindDeposit, "krw-cash", models.RawFields{
		models.FieldQuantity: "5000",
		models.FieldDate:     "2025-08-17",
	}, ModeCreate)
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(-5000)), "got %s", rec.Quantity)

	assert.True(t, b.Normalize(models.KindDeposit, decimal.NewFromInt(7)).Equal(decimal.NewFromInt(-7)))
	assert.True(t, Normalize(models.KindDeposit, decimal.NewFromInt(7)).Equal(decimal.NewFromInt(7)))
}

func TestRegistry_FallsBackToDefault(t *testing.T) {
	assert.Same(t, schema.Default(), (&Builder{}).Registry())
	var nilBuilder *Builder
	assert.Same(t, schema.Default(), nilBuilder.Registry())
}

func TestPrefill_SourceAmountOnlyForExchange(t *testing.T) {
	b := newTestBuilder()
	qty := decimal.NewFromInt(-100)
	target := decimal.NewFromInt(135000)

	exchange := models.TransactionRecord{
		AssetID: "usd-cash", Kind: models.KindExchange, Quantity: &qty,
		CounterAssetID: "krw-cash", TargetAmount: &target,
	}
	raw := b.Prefill(exchange)
	assert.Equal(t, "100", raw[models.FieldSourceAmount])
	assert.Equal(t, "135000", raw[models.FieldTargetAmount])

	transfer := exchange
	transfer.Kind = models.KindInternalTransfer
	transfer.TargetAmount = nil
	raw = b.Prefill(transfer)
	assert.False(t, raw.Has(models.FieldSourceAmount))
	assert.Equal(t, "krw-cash", raw[models.FieldCounterAsset])
	assert.Equal(t, "100", raw[models.FieldQuantity])
}
