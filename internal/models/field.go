package models

import "strings"

// FieldName names one input of the transaction form.
type FieldName string

const (
	FieldAsset               FieldName = "asset"
	FieldCounterAsset        FieldName = "counterAsset"
	FieldQuantity            FieldName = "quantity"
	FieldPrice               FieldName = "price"
	FieldFee                 FieldName = "fee"
	FieldTax                 FieldName = "tax"
	FieldDate                FieldName = "date"
	FieldCategory            FieldName = "category"
	FieldDescription         FieldName = "description"
	FieldMemo                FieldName = "memo"
	FieldCashLegAsset        FieldName = "cashLegAsset"
	FieldDividendSourceAsset FieldName = "dividendSourceAsset"
	FieldSourceAmount        FieldName = "sourceAmount"
	FieldTargetAmount        FieldName = "targetAmount"
	FieldRelatedTransaction  FieldName = "relatedTransaction"
)

// AllFields lists every field in canonical form order. Validation walks fields in this order.
var AllFields = []FieldName{
	FieldAsset,
	FieldCounterAsset,
	FieldCashLegAsset,
	FieldDividendSourceAsset,
	FieldRelatedTransaction,
	FieldQuantity,
	FieldSourceAmount,
	FieldTargetAmount,
	FieldPrice,
	FieldFee,
	FieldTax,
	FieldDate,
	FieldCategory,
	FieldDescription,
	FieldMemo,
}

// InputType says how a field is rendered and parsed.
type InputType string

const (
	InputAsset     InputType = "asset"
	InputNumber    InputType = "number"
	InputDate      InputType = "date"
	InputCategory  InputType = "category"
	InputText      InputType = "text"
	InputReference InputType = "reference"
)

// FieldRule is the rendering/parsing rule of a field.
type FieldRule struct {
	Input InputType `json:"input"`
	Label string    `json:"label"`
}

var fieldRules = map[FieldName]FieldRule{
	FieldAsset:               {Input: InputAsset, Label: "Asset"},
	FieldCounterAsset:        {Input: InputAsset, Label: "Counter asset"},
	FieldCashLegAsset:        {Input: InputAsset, Label: "Cash asset"},
	FieldDividendSourceAsset: {Input: InputAsset, Label: "Dividend source"},
	FieldRelatedTransaction:  {Input: InputReference, Label: "Related transaction"},
	FieldQuantity:            {Input: InputNumber, Label: "Quantity"},
	FieldSourceAmount:        {Input: InputNumber, Label: "Source amount"},
	FieldTargetAmount:        {Input: InputNumber, Label: "Target amount"},
	FieldPrice:               {Input: InputNumber, Label: "Price"},
	FieldFee:                 {Input: InputNumber, Label: "Fee"},
	FieldTax:                 {Input: InputNumber, Label: "Tax"},
	FieldDate:                {Input: InputDate, Label: "Date"},
	FieldCategory:            {Input: InputCategory, Label: "Category"},
	FieldDescription:         {Input: InputText, Label: "Description"},
	FieldMemo:                {Input: InputText, Label: "Memo"},
}

// RuleFor returns the rule of f. ok is false for names outside the closed set.
func RuleFor(f FieldName) (FieldRule, bool) {
	r, ok := fieldRules[f]
	return r, ok
}

// RawFields holds the unparsed values a user typed, keyed by field.
type RawFields map[FieldName]string

// Get returns the trimmed value of f.
func (r RawFields) Get(f FieldName) string {
	return strings.TrimSpace(r[f])
}

// Has reports whether f carries a non-blank value.
func (r RawFields) Has(f FieldName) bool {
	return r.Get(f) != ""
}

// Clone returns a shallow copy.
func (r RawFields) Clone() RawFields {
	out := make(RawFields, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
