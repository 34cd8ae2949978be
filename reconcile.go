package fiobank

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Some dividend texts only state the withholding rate, e.g.
// "CVX - Dividenda (čistá, daň 15 %)"; the tax is then reconstructed from the
// net amount.
var dividendTaxRatePattern = regexp.MustCompile(`\((?:čistá|po\s+zdanění),\s+daň\s(?P<taxRate>\d+(?:,\d+)?)\s*%\)`)

var one = decimal.New(1, 0)

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Decimal{}
	}
	return d.Decimal
}

// reconciler turns classified raw statement records into canonical
// transactions. A single business event often spans several adjacent rows
// (dividend plus its withholding tax, the two legs of a ticker change), so
// reconciliation is a cursor walking the raw records: each step consumes one
// or more rows and emits zero or more transactions.
//
// Identifiers are chained through the reconciler so that content-equal
// consecutive transactions still get distinct ids.
type reconciler struct {
	// symbolCountry resolves the market country of an already held position.
	// Corporate-action rows carry no currency, so the country must come from
	// the position being transformed.
	symbolCountry func(symbol string) (Country, error)
	prev          *Transaction
}

// checker accumulates the first failed expectation about a raw record
// sequence. It keeps the per-branch precondition lists readable without a
// forest of early returns.
type checker struct {
	err error
}

func (c *checker) that(cond bool, format string, args ...any) {
	if c.err == nil && !cond {
		c.err = fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)
	}
}

// lookahead is the classified view of the record following the cursor, when
// it is close enough to belong to the same business event.
type lookahead struct {
	rec     *RawTransaction
	typ     TransactionType
	value   decimal.Decimal
	fees    decimal.Decimal
	country Country
}

// step consumes raws[0] and possibly its successor, and emits the resulting
// transactions with ids assigned. It always consumes at least one record.
func (rc *reconciler) step(raws []RawTransaction) (consumed int, emitted []Transaction, err error) {
	r := &raws[0]
	typ, err := classify(r)
	if err != nil {
		return 0, nil, err
	}
	value, err := r.Value()
	if err != nil {
		return 0, nil, err
	}
	fees, err := r.Fees()
	if err != nil {
		return 0, nil, err
	}

	// The successor participates only when it shares both the trade and the
	// settlement date: fused rows of one event are always booked together.
	var next *lookahead
	if len(raws) > 1 &&
		r.TradeDate.Equal(raws[1].TradeDate) &&
		r.SettlementDate.Equal(raws[1].SettlementDate) {
		nr := &raws[1]
		ntyp, err := classify(nr)
		if err != nil {
			return 0, nil, err
		}
		nvalue, err := nr.Value()
		if err != nil {
			return 0, nil, err
		}
		nfees, err := nr.Fees()
		if err != nil {
			return 0, nil, err
		}
		next = &lookahead{rec: nr, typ: ntyp, value: nvalue, fees: nfees, country: nr.Country()}
	}

	qty := r.Shares
	price := r.Price
	sym := r.Symbol
	ccy := r.Currency
	country := r.Country()

	newTran := func(t TransactionType) Transaction {
		return Transaction{
			Type:           t,
			Date:           r.TradeDate,
			Currency:       ccy,
			SettlementDate: r.SettlementDate,
			Note:           r.Text,
		}
	}

	consumed = 1
	var out []Transaction
	bunched := false
	c := &checker{}

	switch typ {
	case TypeCashTopUp:
		c.that(r.Direction == DirectionNone || r.Direction == BankTransfer, "unexpected direction %q", r.Direction)
		c.that(sym == "", "deposit with symbol %q", sym)
		c.that(!price.Valid, "deposit with price")
		c.that(qty.IsZero(), "deposit with qty %s", qty)
		c.that(value.IsPositive(), "deposit value %s not positive", value)
		c.that(!fees.IsPositive(), "deposit fees %s positive", fees)

		t := newTran(TypeCashTopUp)
		t.GrossValue = null(value)
		t.NetValue = null(value.Add(fees))
		t.Income = value
		t.Fees = fees
		out = append(out, t)

	case TypeCashWithdrawal:
		c.that(r.Direction == DirectionNone || r.Direction == BankTransfer, "unexpected direction %q", r.Direction)
		c.that(sym == "", "withdrawal with symbol %q", sym)
		c.that(!price.Valid, "withdrawal with price")
		c.that(qty.IsZero(), "withdrawal with qty %s", qty)
		c.that(value.IsNegative(), "withdrawal value %s not negative", value)
		c.that(fees.IsZero(), "withdrawal fees %s not zero", fees)

		// The transfer fee comes as a separate row right after.
		if next != nil && next.typ == TypeFee && next.rec.Text == "Poplatek za převod peněz" {
			c.that(next.fees.Equal(next.value), "transfer fee row value %s != fees %s", next.value, next.fees)
			c.that(next.fees.IsNegative(), "transfer fee %s not negative", next.fees)
			fees = next.fees
			consumed++
		}
		t := newTran(TypeCashWithdrawal)
		t.GrossValue = null(value)
		t.NetValue = null(value.Add(fees))
		t.Income = value
		t.Fees = fees
		out = append(out, t)

	case TypeBuy:
		c.that(r.Direction == Buy, "buy with direction %q", r.Direction)
		c.that(country != "" && sym != "" && ccy != "", "buy lacks country, symbol or currency")
		c.that(orZero(price).IsPositive(), "buy price %s not positive", orZero(price))
		c.that(qty.IsPositive(), "buy qty %s not positive", qty)
		c.that(value.IsNegative(), "buy value %s not negative", value)
		c.that(!fees.IsPositive(), "buy fees %s positive", fees)

		t := newTran(TypeBuy)
		t.GrossValue = null(value.Sub(fees))
		t.NetValue = null(value)
		t.Country = country
		t.Symbol = sym
		t.Qty = qty
		t.Price = price
		t.Fees = fees
		out = append(out, t)

	case TypeSell:
		c.that(r.Direction == Sell, "sell with direction %q", r.Direction)
		c.that(country != "" && sym != "" && ccy != "", "sell lacks country, symbol or currency")
		c.that(orZero(price).IsPositive(), "sell price %s not positive", orZero(price))
		c.that(!qty.IsNegative(), "sell qty %s negative", qty)
		c.that(value.IsPositive(), "sell value %s not positive", value)
		c.that(!fees.IsPositive(), "sell fees %s positive", fees)

		t := newTran(TypeSell)
		t.GrossValue = null(value.Sub(fees))
		t.NetValue = null(value)
		t.Country = country
		t.Symbol = sym
		t.Qty = qty.Neg()
		t.Price = price
		t.Fees = fees
		out = append(out, t)

	case TypeFXBuy, TypeFXSell:
		c.that(r.Direction == CurrencyConversion, "conversion with direction %q", r.Direction)
		c.that(sym != "" && ccy != "", "conversion lacks symbol or currency")
		c.that(orZero(price).IsPositive(), "conversion price %s not positive", orZero(price))
		c.that(qty.IsPositive(), "conversion qty %s not positive", qty)
		c.that(fees.IsZero(), "conversion fees %s not zero", fees)

		t := newTran(typ)
		t.Symbol = sym
		t.Price = price
		t.Fees = fees
		t.GrossValue = null(value)
		t.NetValue = null(value)
		if typ == TypeFXBuy {
			c.that(value.IsNegative(), "fx buy value %s not negative", value)
			t.Qty = qty
		} else {
			c.that(value.IsPositive(), "fx sell value %s not positive", value)
			t.Qty = qty.Neg()
		}
		out = append(out, t)

	case TypeCashDividend:
		c.that(r.Direction == DirectionNone, "dividend with direction %q", r.Direction)
		c.that(sym != "" && ccy != "", "dividend lacks symbol or currency")
		c.that(orZero(price).Equal(one), "dividend price %s != 1", orZero(price))
		c.that(qty.IsPositive(), "dividend qty %s not positive", qty)
		c.that(value.IsPositive(), "dividend value %s not positive", value)
		c.that(fees.IsZero(), "dividend fees %s not zero", fees)

		tax := absent
		gross := value
		if next != nil && next.typ == TypeTax && next.rec.Symbol == sym {
			c.that(next.rec.Currency == ccy, "dividend tax currency %q != %q", next.rec.Currency, ccy)
			c.that(orZero(next.rec.Price).Equal(one), "dividend tax price != 1")
			c.that(next.fees.IsZero(), "dividend tax fees not zero")
			c.that(next.value.IsNegative(), "dividend tax value %s not negative", next.value)
			c.that(next.value.Equal(next.rec.Shares), "dividend tax value %s != qty %s", next.value, next.rec.Shares)
			tax = null(next.value)
			consumed++
		} else if m := dividendTaxRatePattern.FindStringSubmatch(r.Text); m != nil {
			rate, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
			if err != nil {
				return 0, nil, structuralErrorf("bad dividend tax rate %q: %v", m[1], err)
			}
			rate = rate.DivRound(decimal.New(100, 0), 6)
			c.that(rate.IsPositive(), "dividend tax rate %s not positive", rate)
			c.that(value.Equal(qty), "net dividend value %s != qty %s", value, qty)
			taxAmount := value.DivRound(one.Sub(rate), 6).Mul(rate).Neg().Round(2)
			tax = null(taxAmount)
			gross = value.Sub(taxAmount)
		}
		if next != nil && next.typ == TypeFee && next.rec.Text == "Poplatek za připsání dividend" {
			c.that(next.rec.Currency == ccy, "dividend fee currency %q != %q", next.rec.Currency, ccy)
			c.that(next.value.Equal(next.fees), "dividend fee row value %s != fees %s", next.value, next.fees)
			fees = next.value
			c.that(fees.IsNegative(), "dividend fee %s not negative", fees)
			consumed++
		}

		t := newTran(TypeCashDividend)
		t.GrossValue = null(gross)
		t.NetValue = null(gross.Add(orZero(tax)).Add(fees))
		t.Country = country
		t.Symbol = sym
		t.Income = gross
		t.Fees = fees
		t.Tax = tax
		out = append(out, t)

	case TypeCapitalDividend:
		c.that(sym != "" && ccy != "", "capital dividend lacks symbol or currency")
		c.that(orZero(price).Equal(one), "capital dividend price %s != 1", orZero(price))
		c.that(qty.IsPositive(), "capital dividend qty %s not positive", qty)
		c.that(value.IsPositive(), "capital dividend value %s not positive", value)
		c.that(fees.IsZero(), "capital dividend fees %s not zero", fees)

		t := newTran(TypeCapitalDividend)
		t.Country = country
		t.Symbol = sym
		t.Income = value
		t.GrossValue = null(value)
		t.NetValue = null(value)
		out = append(out, t)

	case TypeStockDividend:
		c.that(r.Direction == DirectionNone, "stock dividend with direction %q", r.Direction)
		c.that(sym != "", "stock dividend without symbol")
		c.that(orZero(price).Equal(one), "stock dividend price %s != 1", orZero(price))
		c.that(qty.IsPositive(), "stock dividend qty %s not positive", qty)
		c.that(fees.IsZero(), "stock dividend fees %s not zero", fees)

		switch r.Text {
		case fmt.Sprintf("%s - Stock Dividend", sym):
			// Paid in shares: no cash moves and the export has no currency,
			// so the country comes from the held position.
			c.that(country == "", "stock dividend in shares with country %q", country)
			if c.err != nil {
				return 0, nil, c.err
			}
			posCountry, err := rc.symbolCountry(sym)
			if err != nil {
				return 0, nil, err
			}
			t := newTran(TypeStockDividend)
			t.Country = posCountry
			t.Symbol = sym
			t.Qty = qty
			out = append(out, t)
		case fmt.Sprintf("%s - Finanční kompenzace - Stock Dividend", sym):
			c.that(value.Equal(qty), "stock dividend compensation value %s != qty %s", value, qty)
			c.that(country != "", "stock dividend compensation without country")
			t := newTran(TypeStockDividend)
			t.GrossValue = null(value)
			t.NetValue = null(value)
			t.Income = value
			t.Country = country
			t.Symbol = sym
			out = append(out, t)
		default:
			return 0, nil, fmt.Errorf("%w: unsupported stock dividend text: %q", ErrInvariant, r.Text)
		}

	case TypeDividendReversal:
		c.that(r.Direction == DirectionNone, "dividend reversal with direction %q", r.Direction)
		c.that(country != "" && sym != "" && ccy != "", "dividend reversal lacks country, symbol or currency")
		c.that(orZero(price).Equal(one), "dividend reversal price %s != 1", orZero(price))
		c.that(qty.IsNegative(), "dividend reversal qty %s not negative", qty)
		c.that(value.IsNegative(), "dividend reversal value %s not negative", value)
		c.that(!fees.IsPositive(), "dividend reversal fees %s positive", fees)
		// The matching tax refund row is mandatory.
		c.that(next != nil && next.typ == TypeTaxRefund, "dividend reversal not followed by tax refund")
		if c.err != nil {
			return 0, nil, c.err
		}
		c.that(next.rec.Symbol == sym, "tax refund symbol %q != %q", next.rec.Symbol, sym)
		c.that(next.rec.Currency == ccy, "tax refund currency %q != %q", next.rec.Currency, ccy)
		c.that(orZero(next.rec.Price).Equal(one), "tax refund price != 1")
		c.that(next.fees.IsZero(), "tax refund fees not zero")
		c.that(next.value.IsPositive(), "tax refund value %s not positive", next.value)
		c.that(next.value.Equal(next.rec.Shares), "tax refund value %s != qty %s", next.value, next.rec.Shares)
		taxRefund := next.value
		consumed++

		t := newTran(TypeDividendReversal)
		t.GrossValue = null(value)
		t.NetValue = null(value.Add(taxRefund).Add(fees))
		t.Country = country
		t.Symbol = sym
		t.Income = value
		t.Fees = fees
		t.Tax = null(taxRefund)
		out = append(out, t)

	case TypeFee:
		c.that(r.Direction == DirectionNone, "fee with direction %q", r.Direction)
		c.that(sym != "" || qty.IsZero(), "fee with qty %s but no symbol", qty)
		c.that(ccy != "", "fee without currency")
		c.that(!value.IsPositive(), "fee value %s positive", value)
		c.that(!fees.IsPositive(), "fee fees %s positive", fees)
		c.that(!price.Valid || price.Decimal.Equal(one), "fee price %s", orZero(price))

		// The amount sits in the volume column, the fee column, or
		// redundantly in both.
		var amount decimal.Decimal
		switch {
		case fees.IsZero():
			amount = value
		case value.IsZero():
			amount = fees
		case value.Equal(fees):
			amount = value
		default:
			return 0, nil, fmt.Errorf("%w: ambiguous fee row: value=%s fees=%s", ErrInvariant, value, fees)
		}
		if c.err != nil {
			return 0, nil, c.err
		}
		if amount.IsZero() {
			return consumed, nil, nil
		}
		t := newTran(TypeFee)
		t.GrossValue = null(decimal.Decimal{})
		t.NetValue = null(amount)
		t.Fees = amount
		t.Symbol = sym
		t.Country = country
		out = append(out, t)

	case TypeReclamation:
		c.that(r.Direction == DirectionNone, "reclamation with direction %q", r.Direction)
		c.that(sym == "", "reclamation with symbol %q", sym)
		c.that(qty.IsZero(), "reclamation with qty %s", qty)
		c.that(ccy != "", "reclamation without currency")
		c.that(!value.IsNegative(), "reclamation value %s negative", value)
		c.that(fees.IsZero() || fees.Equal(value), "reclamation fees %s", fees)

		t := newTran(TypeReclamation)
		t.GrossValue = null(value)
		t.NetValue = null(value)
		t.Income = value
		out = append(out, t)

	case TypeInstrumentChangeChild, TypeInstrumentChangeParent:
		peer := TypeInstrumentChangeParent
		if typ == TypeInstrumentChangeParent {
			peer = TypeInstrumentChangeChild
		}
		c.that(next != nil && next.typ == peer, "instrument change leg without its counterpart")
		if c.err != nil {
			return 0, nil, c.err
		}
		c.that(r.Text == next.rec.Text, "instrument change texts differ: %q vs %q", r.Text, next.rec.Text)
		c.that(qty.IsPositive(), "instrument change qty %s not positive", qty)
		c.that(qty.Equal(next.rec.Shares), "instrument change qty %s != %s", qty, next.rec.Shares)
		c.that(orZero(price).IsZero() && orZero(next.rec.Price).IsZero(), "instrument change with price")
		c.that(value.IsZero() && next.value.IsZero(), "instrument change with value")
		c.that(fees.IsZero() && next.fees.IsZero(), "instrument change with fees")
		c.that(ccy == "" && next.rec.Currency == "", "instrument change with currency")
		if c.err != nil {
			return 0, nil, c.err
		}

		oldSym, newSym := sym, next.rec.Symbol
		sellDir, buyDir := r.Direction, next.rec.Direction
		if typ == TypeInstrumentChangeChild {
			oldSym, newSym = next.rec.Symbol, sym
			sellDir, buyDir = next.rec.Direction, r.Direction
		}
		c.that(sellDir == Sell && buyDir == Buy, "instrument change directions %q/%q", sellDir, buyDir)
		if c.err != nil {
			return 0, nil, c.err
		}
		posCountry, err := rc.symbolCountry(oldSym)
		if err != nil {
			return 0, nil, err
		}
		t1 := newTran(TypeInstrumentChangeParent)
		t1.Currency = ""
		t1.GrossValue = null(decimal.Decimal{})
		t1.NetValue = null(decimal.Decimal{})
		t1.Country = posCountry
		t1.Symbol = oldSym
		t1.Qty = qty.Neg()
		t2 := newTran(TypeInstrumentChangeChild)
		t2.Currency = ""
		t2.GrossValue = null(decimal.Decimal{})
		t2.NetValue = null(decimal.Decimal{})
		t2.Country = posCountry
		t2.Symbol = newSym
		t2.Qty = qty
		out = append(out, t1, t2)
		bunched = true
		consumed++

	case TypeTaxRefund:
		c.that(sym != "" && ccy != "", "tax refund lacks symbol or currency")
		c.that(orZero(price).Equal(one), "tax refund price %s != 1", orZero(price))
		c.that(qty.IsPositive(), "tax refund qty %s not positive", qty)
		c.that(value.Equal(qty), "tax refund value %s != qty %s", value, qty)
		c.that(fees.IsZero(), "tax refund fees %s not zero", fees)

		t := newTran(TypeTaxRefund)
		t.Country = country
		t.Symbol = sym
		t.GrossValue = null(decimal.Decimal{})
		t.NetValue = null(value)
		t.Tax = null(value)
		out = append(out, t)

	case TypeTax:
		c.that(r.Direction == DirectionNone, "tax with direction %q", r.Direction)
		c.that(sym != "" && ccy != "", "tax lacks symbol or currency")
		c.that(orZero(price).Equal(one), "tax price %s != 1", orZero(price))
		c.that(!qty.IsPositive(), "tax qty %s positive", qty)
		c.that(value.Cmp(qty) <= 0, "tax value %s > qty %s", value, qty)
		c.that(fees.IsZero(), "tax fees %s not zero", fees)

		t := newTran(TypeTax)
		t.Country = country
		t.Symbol = sym
		t.GrossValue = null(decimal.Decimal{})
		t.NetValue = null(value)
		t.Tax = null(value)
		out = append(out, t)

	case TypeLiquidation:
		c.that(sym != "", "liquidation without symbol")
		p := orZero(price)
		c.that(p.IsZero() || p.Equal(one), "liquidation price %s", p)
		c.that(qty.IsPositive(), "liquidation qty %s not positive", qty)
		c.that(value.IsZero() || value.Equal(qty), "liquidation value %s", value)
		c.that(fees.IsZero(), "liquidation fees %s not zero", fees)

		if next != nil && next.typ == TypeLiquidation {
			// Paid liquidation: a cash row followed by the share disposal.
			c.that(country != "", "paid liquidation without country")
			c.that(next.rec.Direction == Sell, "liquidation disposal direction %q", next.rec.Direction)
			c.that(next.rec.Symbol == sym, "liquidation disposal symbol %q != %q", next.rec.Symbol, sym)
			c.that(next.rec.Currency == ccy, "liquidation disposal currency %q != %q", next.rec.Currency, ccy)
			c.that(orZero(next.rec.Price).IsZero(), "liquidation disposal with price")
			c.that(next.rec.Shares.IsPositive(), "liquidation disposal qty %s not positive", next.rec.Shares)
			c.that(next.value.IsZero() && next.fees.IsZero(), "liquidation disposal with value or fees")
			if c.err != nil {
				return 0, nil, c.err
			}
			consumed++

			t := newTran(TypeLiquidation)
			t.Country = country
			t.Symbol = sym
			t.GrossValue = null(qty)
			t.NetValue = null(qty)
			t.Income = qty
			t.Qty = next.rec.Shares.Neg()
			t.Price = null(decimal.Decimal{})
			out = append(out, t)
		} else {
			// Worthless: the position just disappears.
			c.that(country == "" && ccy == "", "worthless liquidation with country or currency")
			if c.err != nil {
				return 0, nil, c.err
			}
			posCountry, err := rc.symbolCountry(sym)
			if err != nil {
				return 0, nil, err
			}
			t := newTran(TypeLiquidation)
			t.Country = posCountry
			t.Symbol = sym
			t.Currency = posCountry.Currency()
			t.GrossValue = null(decimal.Decimal{})
			t.NetValue = null(decimal.Decimal{})
			t.Qty = qty.Neg()
			t.Price = null(decimal.Decimal{})
			out = append(out, t)
		}

	case TypeSpinoffParent:
		c.that(r.Direction == DirectionNone, "spin-off with direction %q", r.Direction)
		c.that(country == "" && ccy == "", "spin-off with country or currency")
		c.that(sym != "", "spin-off without symbol")
		c.that(r.RawCurrency != "", "spin-off without child symbol")
		c.that(orZero(price).Equal(one), "spin-off price %s != 1", orZero(price))
		c.that(qty.IsPositive(), "spin-off qty %s not positive", qty)
		c.that(value.IsZero(), "spin-off value %s not zero", value)
		c.that(fees.IsZero(), "spin-off fees %s not zero", fees)
		if c.err != nil {
			return 0, nil, c.err
		}
		posCountry, err := rc.symbolCountry(sym)
		if err != nil {
			return 0, nil, err
		}
		posCcy := posCountry.Currency()

		t1 := newTran(TypeSpinoffParent)
		t1.Currency = posCcy
		t1.Country = posCountry
		t1.Symbol = sym
		// The spun-off symbol is exported in the currency column.
		t2 := newTran(TypeSpinoffChild)
		t2.Currency = posCcy
		t2.Country = posCountry
		t2.Symbol = r.RawCurrency
		t2.Qty = qty
		out = append(out, t1, t2)
		bunched = true

	case TypeMergerChild:
		c.that(r.Direction == Buy, "merger acquisition direction %q", r.Direction)
		c.that(sym != "", "merger without symbol")
		c.that(ccy == "" && r.RawCurrency == "", "merger with currency")
		c.that(orZero(price).IsZero(), "merger with price")
		c.that(qty.IsPositive(), "merger qty %s not positive", qty)
		c.that(value.IsZero() && fees.IsZero(), "merger with value or fees")
		c.that(next != nil && next.typ == TypeMergerParent, "merger acquisition without disposal leg")
		if c.err != nil {
			return 0, nil, c.err
		}
		c.that(next.rec.Direction == Sell, "merger disposal direction %q", next.rec.Direction)
		c.that(next.value.IsZero() && next.fees.IsZero(), "merger disposal with value or fees")
		c.that(orZero(next.rec.Price).IsZero(), "merger disposal with price")
		c.that(next.rec.Shares.IsPositive(), "merger disposal qty %s not positive", next.rec.Shares)
		c.that(country == "", "merger with country %q", country)
		if c.err != nil {
			return 0, nil, c.err
		}
		posCountry, err := rc.symbolCountry(next.rec.Symbol)
		if err != nil {
			return 0, nil, err
		}
		posCcy := posCountry.Currency()

		t1 := newTran(TypeMergerParent)
		t1.Currency = posCcy
		t1.Country = posCountry
		t1.Symbol = next.rec.Symbol
		t1.Qty = next.rec.Shares.Neg()
		t2 := newTran(TypeMergerChild)
		t2.Currency = posCcy
		t2.Country = posCountry
		t2.Symbol = sym
		t2.Qty = qty
		out = append(out, t1, t2)
		bunched = true
		consumed++

	case TypeSpinoffValue:
		c.that(r.Direction == DirectionNone, "spin-off value with direction %q", r.Direction)
		c.that(sym != "" && ccy != "" && r.RawCurrency != "", "spin-off value lacks symbol or currency")
		c.that(orZero(price).Equal(one), "spin-off value price %s != 1", orZero(price))
		c.that(value.Equal(qty), "spin-off value %s != qty %s", value, qty)
		c.that(value.IsPositive(), "spin-off value %s not positive", value)
		c.that(fees.IsZero(), "spin-off value fees %s not zero", fees)
		c.that(next != nil && next.typ == TypeSpinoffValue, "spin-off value without offsetting row")
		if c.err != nil {
			return 0, nil, c.err
		}
		c.that(next.rec.Direction == DirectionNone, "spin-off value offset with direction")
		c.that(next.rec.Symbol == sym, "spin-off value offset symbol %q != %q", next.rec.Symbol, sym)
		c.that(next.value.Neg().Equal(value), "spin-off value offset %s != -%s", next.value, value)
		c.that(next.rec.Shares.Neg().Equal(qty), "spin-off value offset qty %s != -%s", next.rec.Shares, qty)
		c.that(next.fees.IsZero(), "spin-off value offset fees not zero")
		if c.err != nil {
			return 0, nil, c.err
		}
		consumed++

		t1 := newTran(TypeSpinoffValue)
		t1.Country = country
		t1.Symbol = sym
		t1.Income = value
		t1.GrossValue = null(value)
		t1.NetValue = null(value)
		t2 := newTran(TypeSpinoffValue)
		t2.Country = country
		t2.Symbol = sym
		t2.Income = value.Neg()
		t2.GrossValue = null(value.Neg())
		t2.NetValue = null(value.Neg())
		out = append(out, t1, t2)
		bunched = true

	case TypeSplit:
		c.that(country == "" && ccy == "", "split with country or currency")
		if c.err != nil {
			return 0, nil, c.err
		}
		posCountry, err := rc.symbolCountry(sym)
		if err != nil {
			return 0, nil, err
		}
		if next != nil && next.typ == TypeSplit && next.rec.Symbol == sym {
			c.that(r.Direction == Sell, "split out-leg direction %q", r.Direction)
			c.that(next.rec.Direction == Buy, "split in-leg direction %q", next.rec.Direction)
			c.that(next.rec.Currency == "", "split in-leg with currency")
			c.that(orZero(next.rec.Price).IsZero(), "split in-leg with price")
			c.that(next.rec.Shares.IsPositive(), "split in-leg qty %s not positive", next.rec.Shares)
			c.that(next.value.IsZero() && next.fees.IsZero(), "split in-leg with value or fees")
			qty = qty.Neg().Add(next.rec.Shares)
			consumed++
		}
		t := newTran(TypeSplit)
		t.Currency = ""
		t.GrossValue = null(decimal.Decimal{})
		t.NetValue = null(decimal.Decimal{})
		t.Country = posCountry
		t.Symbol = sym
		t.Qty = qty
		out = append(out, t)

	default:
		return 0, nil, fmt.Errorf("%w: unexpected record sequence at %s: %s", ErrInvariant, r.TradeDate, typ)
	}

	if c.err != nil {
		return 0, nil, c.err
	}

	for i := range out {
		out[i].ID = generateID(&out[i], rc.prev)
		cp := out[i]
		rc.prev = &cp
	}
	if bunched {
		out[0].BunchID = out[0].ID
		out[1].BunchID = out[0].ID
	}
	return consumed, out, nil
}
