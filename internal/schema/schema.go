// Package schema holds the per-kind field table and answers visibility, requiredness and
// behavior questions about it. Every kind-dependent decision in the module goes through here.
package schema

import (
	"strings"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// Behavior is a special rule a kind opts into.
type Behavior uint8

const (
	// NegativeQuantity flips the sign of the entered magnitude.
	NegativeQuantity Behavior = 1 << iota
	// CashCounterLeg marks kinds settled against a cash asset in the same account and currency.
	CashCounterLeg
	// DividendSourceLink ties a cash dividend to the asset that paid it.
	DividendSourceLink
	// ExchangeRateDerivation derives a rate from the source and target amounts.
	ExchangeRateDerivation
)

var behaviorNames = []struct {
	b    Behavior
	name string
}{
	{NegativeQuantity, "negativeQuantity"},
	{CashCounterLeg, "cashCounterLeg"},
	{DividendSourceLink, "dividendSourceLink"},
	{ExchangeRateDerivation, "exchangeRateDerivation"},
}

// Has reports whether all bits of b are set.
func (s Behavior) Has(b Behavior) bool {
	return b != 0 && s&b == b
}

// Names lists the set behaviors.
func (s Behavior) Names() []string {
	var out []string
	for _, bn := range behaviorNames {
		if s.Has(bn.b) {
			out = append(out, bn.name)
		}
	}
	return out
}

func (s Behavior) String() string {
	return strings.Join(s.Names(), "|")
}

// FieldSet is an unordered set of field names.
type FieldSet map[models.FieldName]struct{}

// Fields builds a FieldSet.
func Fields(names ...models.FieldName) FieldSet {
	s := make(FieldSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s FieldSet) Contains(f models.FieldName) bool {
	_, ok := s[f]
	return ok
}

// With returns a copy of s plus names.
func (s FieldSet) With(names ...models.FieldName) FieldSet {
	out := make(FieldSet, len(s)+len(names))
	for f := range s {
		out[f] = struct{}{}
	}
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// Ordered returns the members in canonical form order.
func (s FieldSet) Ordered() []models.FieldName {
	out := make([]models.FieldName, 0, len(s))
	for _, f := range models.AllFields {
		if s.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// FieldSchema describes one kind: which fields apply, which must be filled, which are suppressed,
// and which special behaviors it has.
type FieldSchema struct {
	Fields    FieldSet
	Required  FieldSet
	Hidden    FieldSet
	Behaviors Behavior
}

// Visible reports whether f is shown for this schema.
func (fs FieldSchema) Visible(f models.FieldName) bool {
	return fs.Fields.Contains(f) && !fs.Hidden.Contains(f)
}
