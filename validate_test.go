package fiobank

import (
	"testing"
	"time"

	"github.com/brinvex/fiobank/date"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ndec(s string) decimal.NullDecimal {
	return null(dec(s))
}

// validTransaction builds a consistent transaction of the given type. Tests
// mutate single fields to probe the invariant table.
func validTransaction(t *testing.T, typ TransactionType) Transaction {
	t.Helper()
	base := Transaction{
		Date:           time.Date(2023, 3, 10, 14, 30, 0, 0, time.UTC),
		Type:           typ,
		SettlementDate: date.New(2023, 3, 13),
	}
	switch typ {
	case TypeBuy:
		base.Country, base.Symbol, base.Currency = US, "AAPL", USD
		base.Qty = dec("10")
		base.Price = ndec("150")
		base.Fees = dec("-7.9")
		base.GrossValue = ndec("-1500")
		base.NetValue = ndec("-1507.9")
	case TypeSell:
		base.Country, base.Symbol, base.Currency = US, "AAPL", USD
		base.Qty = dec("-10")
		base.Price = ndec("180")
		base.Fees = dec("-7.9")
		base.GrossValue = ndec("1800")
		base.NetValue = ndec("1792.1")
	case TypeCashTopUp:
		base.Currency = CZK
		base.Income = dec("1000")
		base.GrossValue = ndec("1000")
		base.NetValue = ndec("1000")
	case TypeCashWithdrawal:
		base.Currency = CZK
		base.Income = dec("-1000")
		base.Fees = dec("-25")
		base.GrossValue = ndec("-1000")
		base.NetValue = ndec("-1025")
	case TypeCashDividend:
		base.Country, base.Symbol, base.Currency = US, "CVX", USD
		base.Income = dec("100")
		base.Tax = ndec("-15")
		base.GrossValue = ndec("100")
		base.NetValue = ndec("85")
	case TypeCapitalDividend:
		base.Country, base.Symbol, base.Currency = US, "GOV", USD
		base.Income = dec("50")
		base.GrossValue = ndec("50")
		base.NetValue = ndec("50")
	case TypeStockDividend:
		// Paid in shares: no cash, no currency, no values at all.
		base.Country, base.Symbol = US, "GLAD"
		base.Qty = dec("5")
	case TypeDividendReversal:
		base.Country, base.Symbol, base.Currency = US, "MMM", USD
		base.Income = dec("-100")
		base.Tax = ndec("15")
		base.GrossValue = ndec("-100")
		base.NetValue = ndec("-85")
	case TypeReclamation:
		base.Currency = CZK
		base.Income = dec("25")
		base.GrossValue = ndec("25")
		base.NetValue = ndec("25")
	case TypeSpinoffValue:
		base.Country, base.Symbol, base.Currency = US, "T", USD
		base.Income = dec("120")
		base.GrossValue = ndec("120")
		base.NetValue = ndec("120")
	case TypeFXBuy:
		base.Symbol, base.Currency = "USD/CZK", CZK
		base.Qty = dec("500")
		base.Price = ndec("22.5")
		base.GrossValue = ndec("-11250")
		base.NetValue = ndec("-11250")
	case TypeFXSell:
		base.Symbol, base.Currency = "USD/CZK", USD
		base.Qty = dec("-500")
		base.Price = ndec("1")
		base.GrossValue = ndec("500")
		base.NetValue = ndec("500")
	case TypeFee:
		base.Currency = CZK
		base.Fees = dec("-12")
		base.GrossValue = ndec("0")
		base.NetValue = ndec("-12")
	case TypeTax:
		base.Country, base.Symbol, base.Currency = US, "CVX", USD
		base.Tax = ndec("-15")
		base.GrossValue = ndec("0")
		base.NetValue = ndec("-15")
	case TypeTaxRefund:
		base.Country, base.Symbol, base.Currency = US, "CVX", USD
		base.Tax = ndec("15")
		base.GrossValue = ndec("0")
		base.NetValue = ndec("15")
	case TypeInterest:
		base.Currency = CZK
		base.Income = dec("10.5")
		base.Tax = ndec("-1.57")
		base.GrossValue = ndec("10.5")
		base.NetValue = ndec("8.93")
	case TypeSplit:
		base.Country, base.Symbol = US, "AAPL"
		base.Qty = dec("30")
		base.GrossValue = ndec("0")
		base.NetValue = ndec("0")
	case TypeInstrumentChangeParent:
		base.Country, base.Symbol = US, "FB"
		base.Qty = dec("-10")
		base.GrossValue = ndec("0")
		base.NetValue = ndec("0")
	case TypeInstrumentChangeChild:
		base.Country, base.Symbol = US, "META"
		base.Qty = dec("10")
		base.GrossValue = ndec("0")
		base.NetValue = ndec("0")
	case TypeSpinoffParent:
		base.Country, base.Symbol, base.Currency = US, "T", USD
	case TypeSpinoffChild:
		base.Country, base.Symbol, base.Currency = US, "WBD", USD
		base.Qty = dec("24")
	case TypeMergerParent:
		base.Country, base.Symbol, base.Currency = US, "ATVI", USD
		base.Qty = dec("-5")
	case TypeMergerChild:
		base.Country, base.Symbol, base.Currency = US, "MSFT", USD
		base.Qty = dec("5")
	case TypeLiquidation:
		base.Country, base.Symbol, base.Currency = US, "SIVB", USD
		base.Qty = dec("-20")
		base.Price = ndec("0")
		base.GrossValue = ndec("0")
		base.NetValue = ndec("0")
	default:
		t.Fatalf("no fixture for type %s", typ)
	}
	return base
}

func TestValidAcceptsConsistentTransactions(t *testing.T) {
	for typ := range typeInvariants {
		typ := typ
		t.Run(string(typ), func(t *testing.T) {
			tr := validTransaction(t, typ)
			if !tr.Valid() {
				t.Errorf("Valid() = false for consistent %s: %s", typ, &tr)
			}
		})
	}
}

func TestValidRejectsBrokenTransactions(t *testing.T) {
	testCases := []struct {
		name  string
		build func(t *testing.T) Transaction
	}{
		{"buy with positive net value", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeBuy)
			tr.NetValue = ndec("1507.9")
			return tr
		}},
		{"buy gross not matching qty*price", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeBuy)
			tr.GrossValue = ndec("-1499")
			tr.NetValue = ndec("-1506.9")
			return tr
		}},
		{"sell with positive qty", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeSell)
			tr.Qty = dec("10")
			return tr
		}},
		{"deposit with symbol but no country", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeCashTopUp)
			tr.Symbol = "AAPL"
			return tr
		}},
		{"deposit without currency", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeCashTopUp)
			tr.Currency = ""
			return tr
		}},
		{"dividend with positive tax", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeCashDividend)
			tr.Tax = ndec("15")
			tr.NetValue = ndec("115")
			return tr
		}},
		{"tax without symbol", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeTax)
			tr.Symbol, tr.Country = "", ""
			return tr
		}},
		{"split with currency", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeSplit)
			tr.Currency = USD
			return tr
		}},
		{"spin-off parent with net value", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeSpinoffParent)
			tr.GrossValue = ndec("0")
			tr.NetValue = ndec("0")
			return tr
		}},
		{"liquidation without price", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeLiquidation)
			tr.Price = absent
			return tr
		}},
		{"zero date", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeBuy)
			tr.Date = time.Time{}
			return tr
		}},
		{"unknown type", func(t *testing.T) Transaction {
			tr := validTransaction(t, TypeBuy)
			tr.Type = "REBATE"
			return tr
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := tc.build(t)
			if tr.Valid() {
				t.Errorf("Valid() = true, want false: %s", &tr)
			}
		})
	}
}

func TestValidTolerance(t *testing.T) {
	within := validTransaction(t, TypeBuy)
	within.NetValue = ndec("-1507.904")
	if !within.Valid() {
		t.Errorf("0.004 off the stated net value should be within tolerance")
	}

	beyond := validTransaction(t, TypeBuy)
	beyond.NetValue = ndec("-1507.905")
	if beyond.Valid() {
		t.Errorf("0.005 off the stated net value should be rejected")
	}
}
