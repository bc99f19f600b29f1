package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}

	if k, err := ParseKind(""); err != nil || k != KindNone {
		t.Errorf("empty tag should parse to KindNone, got %v, %v", k, err)
	}
	if _, err := ParseKind("dividend"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestKindJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		Kind Kind `json:"kind"`
	}{KindCashDividend})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"kind":"cash_dividend"}` {
		t.Errorf("unexpected encoding %s", raw)
	}

	var v struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal([]byte(`{"kind":"bogus"}`), &v); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestTransactionRawFields(t *testing.T) {
	qty := decimal.NewFromInt(-100000)
	target := decimal.NewFromInt(1000000)
	rec := TransactionRecord{
		AssetID:        "usd-cash",
		Kind:           KindExchange,
		Quantity:       &qty,
		TargetAmount:   &target,
		CounterAssetID: "krw-cash",
		Date:           time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC),
		Extras:         map[string]any{ExtraCashAssetID: "krw-cash"},
	}

	raw := rec.RawFields()
	want := map[FieldName]string{
		FieldAsset:        "usd-cash",
		FieldQuantity:     "100000",
		FieldTargetAmount: "1000000",
		FieldCounterAsset: "krw-cash",
		FieldCashLegAsset: "krw-cash",
		FieldDate:         "2025-08-17T00:00:00Z",
	}
	for f, v := range want {
		if raw[f] != v {
			t.Errorf("%s = %q, want %q", f, raw[f], v)
		}
	}
	if raw.Has(FieldSourceAmount) {
		t.Error("sourceAmount is left to the payload builder")
	}
	if raw.Has(FieldMemo) {
		t.Error("empty memo should not be prefilled")
	}
}

func TestRawFieldsGet(t *testing.T) {
	r := RawFields{FieldMemo: "  lunch  ", FieldTax: "   "}
	if r.Get(FieldMemo) != "lunch" {
		t.Errorf("Get should trim, got %q", r.Get(FieldMemo))
	}
	if r.Has(FieldTax) {
		t.Error("blank value should not count as present")
	}

	c := r.Clone()
	c[FieldMemo] = "dinner"
	if r[FieldMemo] != "  lunch  " {
		t.Error("Clone must not share the map")
	}
}

func TestAssetIndex(t *testing.T) {
	idx := NewAssetIndex([]Asset{{ID: "krw-cash", AccountID: "acc-1", Currency: "KRW"}})
	if a, ok := idx.LookupAsset("krw-cash"); !ok || a.AccountID != "acc-1" {
		t.Errorf("lookup failed: %+v %v", a, ok)
	}
	if _, ok := idx.LookupAsset("missing"); ok {
		t.Error("unexpected hit")
	}
}
