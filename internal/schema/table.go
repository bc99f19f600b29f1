package schema

import m "github.com/rocjay1/ledger-entry/internal/models"

var (
	textFields  = Fields(m.FieldDescription, m.FieldMemo)
	cashFields  = textFields.With(m.FieldAsset, m.FieldQuantity, m.FieldDate, m.FieldCategory)
	cashReq     = Fields(m.FieldAsset, m.FieldQuantity, m.FieldDate)
	tradeFields = textFields.With(m.FieldAsset, m.FieldCashLegAsset, m.FieldQuantity, m.FieldPrice,
		m.FieldFee, m.FieldTax, m.FieldDate, m.FieldCategory)
	noCategory = Fields(m.FieldCategory)
)

// table is indexed by models.Kind. Index 0 (KindNone) stays empty.
var table = [...]FieldSchema{
	m.KindDeposit: {
		Fields:   cashFields,
		Required: cashReq,
	},
	m.KindWithdraw: {
		Fields:    cashFields,
		Required:  cashReq,
		Behaviors: NegativeQuantity,
	},
	m.KindTransferIn: {
		Fields:   cashFields,
		Required: cashReq,
	},
	m.KindTransferOut: {
		Fields:    cashFields,
		Required:  cashReq,
		Behaviors: NegativeQuantity,
	},
	m.KindInternalTransfer: {
		Fields:    textFields.With(m.FieldAsset, m.FieldCounterAsset, m.FieldQuantity, m.FieldDate, m.FieldCategory),
		Required:  cashReq.With(m.FieldCounterAsset),
		Hidden:    noCategory,
		Behaviors: NegativeQuantity,
	},
	m.KindBuy: {
		Fields:    tradeFields,
		Required:  cashReq.With(m.FieldPrice),
		Behaviors: CashCounterLeg,
	},
	m.KindSell: {
		Fields:    tradeFields,
		Required:  cashReq.With(m.FieldPrice),
		Behaviors: NegativeQuantity | CashCounterLeg,
	},
	m.KindCashDividend: {
		Fields: textFields.With(m.FieldAsset, m.FieldDividendSourceAsset, m.FieldQuantity, m.FieldPrice,
			m.FieldFee, m.FieldTax, m.FieldDate, m.FieldCategory),
		Required:  cashReq,
		Hidden:    noCategory,
		Behaviors: DividendSourceLink,
	},
	m.KindStockDividend: {
		Fields:   textFields.With(m.FieldAsset, m.FieldQuantity, m.FieldDate, m.FieldCategory),
		Required: cashReq,
		Hidden:   noCategory,
	},
	m.KindInterest: {
		Fields:   cashFields.With(m.FieldTax),
		Required: cashReq,
	},
	m.KindExchange: {
		Fields: textFields.With(m.FieldAsset, m.FieldCounterAsset, m.FieldSourceAmount, m.FieldTargetAmount,
			m.FieldDate, m.FieldQuantity, m.FieldCategory),
		Required:  Fields(m.FieldAsset, m.FieldCounterAsset, m.FieldSourceAmount, m.FieldTargetAmount, m.FieldDate),
		Hidden:    Fields(m.FieldQuantity, m.FieldCategory),
		Behaviors: ExchangeRateDerivation,
	},
	m.KindCardPayment: {
		Fields:    cashFields,
		Required:  cashReq,
		Behaviors: NegativeQuantity,
	},
	m.KindPaymentCancel: {
		Fields:   cashFields.With(m.FieldRelatedTransaction),
		Required: cashReq.With(m.FieldRelatedTransaction),
	},
	m.KindFee: {
		Fields:    cashFields,
		Required:  cashReq,
		Behaviors: NegativeQuantity,
	},
	m.KindRemittance: {
		Fields:    cashFields.With(m.FieldFee),
		Required:  cashReq,
		Behaviors: NegativeQuantity,
	},
	m.KindAutoTransfer: {
		Fields:    cashFields,
		Required:  cashReq,
		Behaviors: NegativeQuantity,
	},
	m.KindRedeem: {
		Fields:    tradeFields,
		Required:  cashReq,
		Hidden:    noCategory,
		Behaviors: NegativeQuantity | CashCounterLeg,
	},
	m.KindAdjustment: {
		Fields:   textFields.With(m.FieldAsset, m.FieldQuantity, m.FieldDate, m.FieldCategory),
		Required: cashReq,
		Hidden:   noCategory,
	},
	m.KindInAsset: {
		Fields:   cashFields.With(m.FieldPrice),
		Required: cashReq,
	},
	m.KindOutAsset: {
		Fields:    cashFields.With(m.FieldPrice),
		Required:  cashReq,
		Behaviors: NegativeQuantity,
	},
}

// Fails to compile when a kind is appended to the enumeration without an entry here.
var _ = [1]struct{}{}[len(table)-int(m.NumKinds)]
