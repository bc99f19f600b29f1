package payload

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/schema"
)

// Mode selects between building a new record and building an update.
type Mode uint8

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Fields that cannot change once a transaction exists. They are neither required nor emitted in
// edit mode. The exchange amounts and the counter asset fix the stored quantity and rate.
var immutable = schema.Fields(
	models.FieldAsset,
	models.FieldCounterAsset,
	models.FieldQuantity,
	models.FieldPrice,
	models.FieldFee,
	models.FieldTax,
	models.FieldSourceAmount,
	models.FieldTargetAmount,
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// AssetLookup resolves asset ids for cross-reference checks.
type AssetLookup interface {
	LookupAsset(id string) (models.Asset, bool)
}

// Builder assembles TransactionRecords. The zero value uses the built-in kind table, no asset
// lookup and DefaultLocalCurrency.
type Builder struct {
	Schema        *schema.Registry
	Assets        AssetLookup
	LocalCurrency string
}

// NewBuilder returns a Builder over the built-in kind table.
func NewBuilder(assets AssetLookup, localCurrency string) *Builder {
	return &Builder{Schema: schema.Default(), Assets: assets, LocalCurrency: localCurrency}
}

// Registry is the kind table the builder validates against. Callers that show or store
// records for this builder use it too, so visibility and validation agree.
func (b *Builder) Registry() *schema.Registry {
	if b == nil || b.Schema == nil {
		return schema.Default()
	}
	return b.Schema
}

// Normalize signs magnitude for kind using the builder's table.
func (b *Builder) Normalize(kind models.Kind, magnitude decimal.Decimal) decimal.Decimal {
	return normalizeIn(b.Registry(), kind, magnitude)
}

// Prefill renders a stored record back into form values for an edit. sourceAmount is only
// filled for kinds that derive an exchange rate.
func (b *Builder) Prefill(rec models.TransactionRecord) models.RawFields {
	raw := rec.RawFields()
	if rec.Quantity != nil && rec.Kind.Valid() && b.Registry().HasBehavior(schema.ExchangeRateDerivation, rec.Kind) {
		raw[models.FieldSourceAmount] = rec.Quantity.Abs().String()
	}
	return raw
}

func (b *Builder) local() string {
	if b.LocalCurrency == "" {
		return DefaultLocalCurrency
	}
	return b.LocalCurrency
}

func (b *Builder) lookup(id string) (models.Asset, bool) {
	if b.Assets == nil || id == "" {
		return models.Asset{}, false
	}
	return b.Assets.LookupAsset(id)
}

// form is the visible slice of the raw values for one build.
type form struct {
	fs   schema.FieldSchema
	raw  models.RawFields
	mode Mode
}

func (f form) get(name models.FieldName) string {
	if !f.fs.Visible(name) {
		return ""
	}
	if f.mode == ModeEdit && immutable.Contains(name) {
		return ""
	}
	return f.raw.Get(name)
}

func (f form) number(name models.FieldName) (*decimal.Decimal, error) {
	s := f.get(name)
	if s == "" {
		return nil, nil
	}
	d, err := parseNumber(s)
	if err != nil {
		return nil, fail(name, FailureInvalidNumber)
	}
	return &d, nil
}

// Build validates raw against kind's schema and assembles the outbound record. assetID fills the
// asset field when raw has none. Failures are returned as *ValidationError. Build panics when
// kind is not a selectable kind.
func (b *Builder) Build(kind models.Kind, assetID string, raw models.RawFields, mode Mode) (models.TransactionRecord, error) {
	fs := b.Registry().For(kind)
	if !raw.Has(models.FieldAsset) && assetID != "" {
		raw = raw.Clone()
		raw[models.FieldAsset] = assetID
	}
	f := form{fs: fs, raw: raw, mode: mode}

	for _, name := range models.AllFields {
		if !fs.Required.Contains(name) || (mode == ModeEdit && immutable.Contains(name)) {
			continue
		}
		if f.get(name) == "" {
			return models.TransactionRecord{}, fail(name, FailureMissing)
		}
	}

	rec := models.TransactionRecord{
		Kind:                 kind,
		Description:          f.get(models.FieldDescription),
		Memo:                 f.get(models.FieldMemo),
		CategoryID:           f.get(models.FieldCategory),
		RelatedTransactionID: f.get(models.FieldRelatedTransaction),
	}
	if mode == ModeCreate {
		rec.AssetID = f.get(models.FieldAsset)
	}
	primary := raw.Get(models.FieldAsset)

	// Numbers are parsed in form order so the first bad field is the one reported.
	nums := map[models.FieldName]*decimal.Decimal{}
	dividend := fs.Behaviors.Has(schema.DividendSourceLink)
	for _, name := range []models.FieldName{
		models.FieldQuantity, models.FieldSourceAmount, models.FieldTargetAmount,
		models.FieldPrice, models.FieldFee, models.FieldTax,
	} {
		if dividend && (name == models.FieldPrice || name == models.FieldFee || name == models.FieldTax) {
			continue
		}
		d, err := f.number(name)
		if err != nil {
			return models.TransactionRecord{}, err
		}
		nums[name] = d
	}

	if s := f.get(models.FieldDate); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return models.TransactionRecord{}, fail(models.FieldDate, FailureInvalidDate)
		}
		rec.Date = d
	}

	if q := nums[models.FieldQuantity]; q != nil {
		n := b.Normalize(kind, *q)
		rec.Quantity = &n
	}
	rec.Price = nums[models.FieldPrice]
	rec.Fee = nums[models.FieldFee]
	rec.Tax = nums[models.FieldTax]

	if counter := f.get(models.FieldCounterAsset); counter != "" {
		if counter == primary {
			return models.TransactionRecord{}, fail(models.FieldCounterAsset, FailureInvalidReference)
		}
		rec.CounterAssetID = counter
	}

	extras := map[string]any{}

	if fs.Behaviors.Has(schema.ExchangeRateDerivation) && mode == ModeCreate {
		if err := b.exchange(kind, nums, primary, &rec, extras); err != nil {
			return models.TransactionRecord{}, err
		}
	}

	if dividend {
		src := f.get(models.FieldDividendSourceAsset)
		de, err := BuildDividendExtras(src, DividendInputs{
			Price:    f.get(models.FieldPrice),
			Fee:      f.get(models.FieldFee),
			Tax:      f.get(models.FieldTax),
			Quantity: f.get(models.FieldQuantity),
		})
		if err != nil {
			return models.TransactionRecord{}, fail(models.FieldDividendSourceAsset, FailureMissingCounterAsset)
		}
		if src == primary {
			return models.TransactionRecord{}, fail(models.FieldDividendSourceAsset, FailureInvalidReference)
		}
		for k, v := range de.Extras {
			extras[k] = v
		}
		if mode == ModeCreate {
			rec.Price, rec.Fee, rec.Tax = de.Price, de.Fee, de.Tax
		}
	}

	// Without an explicit cash leg the transport resolves or creates a matching one.
	if fs.Behaviors.Has(schema.CashCounterLeg) {
		if cash := f.get(models.FieldCashLegAsset); cash != "" {
			if err := b.checkCashLeg(primary, cash); err != nil {
				return models.TransactionRecord{}, err
			}
			extras[models.ExtraCashAssetID] = cash
		}
	}

	if len(extras) > 0 {
		rec.Extras = extras
	}
	return rec, nil
}

func (b *Builder) exchange(kind models.Kind, nums map[models.FieldName]*decimal.Decimal, primary string,
	rec *models.TransactionRecord, extras map[string]any) error {
	src, tgt := nums[models.FieldSourceAmount], nums[models.FieldTargetAmount]
	if src == nil || !src.IsPositive() {
		return fail(models.FieldSourceAmount, FailureInvalidNumber)
	}
	if tgt == nil || !tgt.IsPositive() {
		return fail(models.FieldTargetAmount, FailureInvalidNumber)
	}
	if rec.CounterAssetID == "" {
		return fail(models.FieldCounterAsset, FailureMissingCounterAsset)
	}

	currency := b.local()
	from, okFrom := b.lookup(primary)
	to, okTo := b.lookup(rec.CounterAssetID)
	if okFrom {
		currency = from.Currency
	}
	if okFrom && okTo && (from.AccountID != to.AccountID || from.Currency == to.Currency) {
		return fail(models.FieldCounterAsset, FailureInvalidReference)
	}

	q := b.Normalize(kind, *src)
	rec.Quantity = &q
	rec.TargetAmount = tgt
	if rate, ok := ExchangeRateIn(b.local(), *src, *tgt, currency); ok {
		extras[models.ExtraExchangeRate] = rate
	}
	return nil
}

func (b *Builder) checkCashLeg(primary, cash string) error {
	if cash == primary {
		return fail(models.FieldCashLegAsset, FailureInvalidReference)
	}
	a, okA := b.lookup(primary)
	c, okC := b.lookup(cash)
	if okA && okC && (a.AccountID != c.AccountID || a.Currency != c.Currency) {
		return fail(models.FieldCashLegAsset, FailureInvalidReference)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
