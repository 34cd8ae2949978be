package fiobank

import (
	"time"

	"github.com/brinvex/fiobank/date"
	"github.com/shopspring/decimal"
)

// RawTransaction is one row of a broker transaction statement, exactly as
// exported, before classification. At most one currency's volume/fee column
// pair is populated. Raw transactions are immutable once parsed.
type RawTransaction struct {
	TradeDate      time.Time
	Direction      Direction
	Symbol         string // RawSymbol with the reorganization marker "*" stripped
	RawSymbol      string
	Price          decimal.NullDecimal
	Shares         decimal.Decimal
	Currency       Currency
	RawCurrency    string
	VolumeCZK      decimal.NullDecimal
	FeesCZK        decimal.NullDecimal
	VolumeUSD      decimal.NullDecimal
	FeesUSD        decimal.NullDecimal
	VolumeEUR      decimal.NullDecimal
	FeesEUR        decimal.NullDecimal
	Market         string
	InstrumentName string
	SettlementDate date.Date
	Status         string
	OrderID        string
	Text           string
	UserComments   string
	Lang           Lang
}

// Value returns the statement volume in the record's own currency. Exactly
// the record currency's volume column may be set; a populated column of any
// other currency is a structural error in the export.
func (r *RawTransaction) Value() (decimal.Decimal, error) {
	return r.pick(r.VolumeUSD, r.VolumeEUR, r.VolumeCZK)
}

// Fees returns the statement fees in the record's own currency, negated: the
// export states fees as positive charges, the engine carries them as negative
// cash impact.
func (r *RawTransaction) Fees() (decimal.Decimal, error) {
	fees, err := r.pick(r.FeesUSD, r.FeesEUR, r.FeesCZK)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return fees.Neg(), nil
}

func (r *RawTransaction) pick(usd, eur, czk decimal.NullDecimal) (decimal.Decimal, error) {
	var chosen decimal.NullDecimal
	var others [2]decimal.NullDecimal
	switch r.Currency {
	case USD:
		chosen, others = usd, [2]decimal.NullDecimal{eur, czk}
	case EUR:
		chosen, others = eur, [2]decimal.NullDecimal{usd, czk}
	case CZK:
		chosen, others = czk, [2]decimal.NullDecimal{usd, eur}
	default:
		return decimal.Decimal{}, nil
	}
	for _, o := range others {
		if o.Valid {
			return decimal.Decimal{}, structuralErrorf("record in %s carries a volume or fee in another currency: %+v", r.Currency, r)
		}
	}
	if !chosen.Valid {
		return decimal.Decimal{}, nil
	}
	return chosen.Decimal, nil
}

// Country derives the market country from the record's settlement currency.
func (r *RawTransaction) Country() Country {
	return CountryOf(r.Currency)
}

// RawStatement is the parsed content of one broker transaction statement:
// the account it covers, the covered period and its raw records in statement
// order.
type RawStatement struct {
	AccountNumber string
	PeriodFrom    date.Date
	PeriodTo      date.Date
	Transactions  []RawTransaction
}

// rawKey is the content identity of a broker raw record, used by the merger
// to drop duplicates when statement periods overlap.
type rawKey struct {
	tradeDate time.Time
	direction Direction
	symbol    string
	price     string
	shares    string
	currency  Currency
	volumeCZK string
	feesCZK   string
	volumeUSD string
	feesUSD   string
	volumeEUR string
	feesEUR   string
}

func (r *RawTransaction) key() rawKey {
	return rawKey{
		tradeDate: r.TradeDate,
		direction: r.Direction,
		symbol:    r.Symbol,
		price:     nullDecimalKey(r.Price),
		shares:    r.Shares.String(),
		currency:  r.Currency,
		volumeCZK: nullDecimalKey(r.VolumeCZK),
		feesCZK:   nullDecimalKey(r.FeesCZK),
		volumeUSD: nullDecimalKey(r.VolumeUSD),
		feesUSD:   nullDecimalKey(r.FeesUSD),
		volumeEUR: nullDecimalKey(r.VolumeEUR),
		feesEUR:   nullDecimalKey(r.FeesEUR),
	}
}

func nullDecimalKey(d decimal.NullDecimal) string {
	if !d.Valid {
		return "<nil>"
	}
	return d.Decimal.String()
}

// RawBankTransaction is one movement of a bank account statement. Bank rows
// carry a bank-assigned identifier, so their identity is trivial.
type RawBankTransaction struct {
	ID          string
	Date        date.Date
	Volume      decimal.Decimal
	Currency    Currency
	Type        string
	Additionals map[string]string
}

// RawBankStatement is the parsed content of one bank account statement.
type RawBankStatement struct {
	AccountNumber string
	PeriodFrom    date.Date
	PeriodTo      date.Date
	Transactions  []RawBankTransaction
}
