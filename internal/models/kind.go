package models

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a kind tag is not part of the enumeration.
var ErrUnknownKind = errors.New("unknown transaction kind")

// Kind identifies the economic nature of a ledger entry.
type Kind uint8

// Transaction kinds. New kinds are appended before NumKinds and need a schema entry.
const (
	KindNone Kind = iota
	KindDeposit
	KindWithdraw
	KindTransferIn
	KindTransferOut
	KindInternalTransfer
	KindBuy
	KindSell
	KindCashDividend
	KindStockDividend
	KindInterest
	KindExchange
	KindCardPayment
	KindPaymentCancel
	KindFee
	KindRemittance
	KindAutoTransfer
	KindRedeem
	KindAdjustment
	KindInAsset
	KindOutAsset

	NumKinds
)

var kindTags = [...]string{
	KindNone:             "",
	KindDeposit:          "deposit",
	KindWithdraw:         "withdraw",
	KindTransferIn:       "transfer_in",
	KindTransferOut:      "transfer_out",
	KindInternalTransfer: "internal_transfer",
	KindBuy:              "buy",
	KindSell:             "sell",
	KindCashDividend:     "cash_dividend",
	KindStockDividend:    "stock_dividend",
	KindInterest:         "interest",
	KindExchange:         "exchange",
	KindCardPayment:      "card_payment",
	KindPaymentCancel:    "payment_cancel",
	KindFee:              "fee",
	KindRemittance:       "remittance",
	KindAutoTransfer:     "auto_transfer",
	KindRedeem:           "redeem",
	KindAdjustment:       "adjustment",
	KindInAsset:          "in_asset",
	KindOutAsset:         "out_asset",
}

// Fails to compile when a kind is added without a tag.
var _ = [1]struct{}{}[len(kindTags)-int(NumKinds)]

var kindsByTag = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, tag := range kindTags {
		if tag != "" {
			m[tag] = Kind(k)
		}
	}
	return m
}()

// Kinds returns every selectable kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, int(NumKinds)-1)
	for k := KindNone + 1; k < NumKinds; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind maps a tag such as "cash_dividend" to its Kind. The empty string maps to KindNone.
func ParseKind(tag string) (Kind, error) {
	if tag == "" {
		return KindNone, nil
	}
	k, ok := kindsByTag[tag]
	if !ok {
		return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
	}
	return k, nil
}

// Valid reports whether k is a selectable kind.
func (k Kind) Valid() bool {
	return k > KindNone && k < NumKinds
}

func (k Kind) String() string {
	if int(k) < len(kindTags) {
		return kindTags[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalText encodes the kind as its tag.
func (k Kind) MarshalText() ([]byte, error) {
	if k != KindNone && !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(kindTags[k]), nil
}

// UnmarshalText decodes a kind tag.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
