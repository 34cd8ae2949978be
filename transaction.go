package fiobank

import (
	"fmt"
	"time"

	"github.com/brinvex/fiobank/date"
	"github.com/shopspring/decimal"
)

// TransactionType is the closed enumeration of canonical ledger entry types.
type TransactionType string

const (
	TypeBuy              TransactionType = "BUY"
	TypeSell             TransactionType = "SELL"
	TypeCashTopUp        TransactionType = "CASH_TOP_UP"
	TypeCashWithdrawal   TransactionType = "CASH_WITHDRAWAL"
	TypeFXBuy            TransactionType = "FX_BUY"
	TypeFXSell           TransactionType = "FX_SELL"
	TypeCashDividend     TransactionType = "CASH_DIVIDEND"
	TypeCapitalDividend  TransactionType = "CAPITAL_DIVIDEND"
	TypeStockDividend    TransactionType = "STOCK_DIVIDEND"
	TypeDividendReversal TransactionType = "DIVIDEND_REVERSAL"
	TypeFee              TransactionType = "FEE"
	TypeTax              TransactionType = "TAX"
	TypeTaxRefund        TransactionType = "TAX_REFUND"
	TypeReclamation      TransactionType = "RECLAMATION"
	TypeInterest         TransactionType = "INTEREST"

	// Corporate actions. PARENT is the disposed leg, CHILD the acquired one;
	// the two legs of one event share a bunch id.
	TypeInstrumentChangeParent TransactionType = "INSTRUMENT_CHANGE_PARENT"
	TypeInstrumentChangeChild  TransactionType = "INSTRUMENT_CHANGE_CHILD"
	TypeSpinoffParent          TransactionType = "SPINOFF_PARENT"
	TypeSpinoffChild           TransactionType = "SPINOFF_CHILD"
	TypeSpinoffValue           TransactionType = "SPINOFF_VALUE"
	TypeSplit                  TransactionType = "SPLIT"
	TypeMergerParent           TransactionType = "MERGER_PARENT"
	TypeMergerChild            TransactionType = "MERGER_CHILD"
	TypeLiquidation            TransactionType = "LIQUIDATION"
)

// Transaction is one fully typed, invariant-checked ledger entry.
//
// Numeric fields follow the export's sign conventions: negative values reduce
// cash (buys, fees, taxes), positive values increase it. Optional numerics
// use NullDecimal because the invariant table distinguishes an absent value
// from zero: a SPINOFF_PARENT leg has no net value at all, a SPLIT has a net
// value of exactly zero.
type Transaction struct {
	ID             string              `json:"id"`
	Date           time.Time           `json:"date"`
	Type           TransactionType     `json:"type"`
	Country        Country             `json:"country,omitempty"`
	Symbol         string              `json:"symbol,omitempty"`
	Qty            decimal.Decimal     `json:"qty"`
	Currency       Currency            `json:"currency,omitempty"`
	Price          decimal.NullDecimal `json:"price,omitempty"`
	GrossValue     decimal.NullDecimal `json:"grossValue,omitempty"`
	NetValue       decimal.NullDecimal `json:"netValue,omitempty"`
	Income         decimal.Decimal     `json:"income"`
	Tax            decimal.NullDecimal `json:"tax,omitempty"`
	Fees           decimal.Decimal     `json:"fees"`
	SettlementDate date.Date           `json:"settlementDate"`
	BunchID        string              `json:"bunchId,omitempty"`
	Note           string              `json:"note,omitempty"`
}

func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{id=%s, date=%s, type=%s, country=%s, symbol=%s, qty=%s, ccy=%s, price=%s, gross=%s, net=%s, tax=%s, fees=%s, settlement=%s, bunch=%s}",
		t.ID, t.Date.Format(time.RFC3339), t.Type, t.Country, t.Symbol, t.Qty,
		t.Currency, nullDecimalKey(t.Price), nullDecimalKey(t.GrossValue),
		nullDecimalKey(t.NetValue), nullDecimalKey(t.Tax), t.Fees,
		t.SettlementDate, t.BunchID)
}

// null wraps a concrete decimal as a present NullDecimal.
func null(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// absent is the canonical missing NullDecimal.
var absent = decimal.NullDecimal{}
