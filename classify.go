package fiobank

import (
	"fmt"
	"strings"
)

// The broker export has no transaction type column: the only evidence is the
// direction, the market label and free text, in the statement's language.
// Classification is therefore an ordered table of literal-matching rules.
// Order matters: several patterns are specializations of others ("Spin-off
// Fair Market Value" must win over the generic "Spin-off" prefix), so the
// table must be read and maintained top to bottom.

type classifyRule struct {
	match func(*RawTransaction) bool
	typ   TransactionType
}

func withDirection(d Direction, text string) func(*RawTransaction) bool {
	return func(r *RawTransaction) bool { return r.Direction == d && r.Text == text }
}

// noDirectionPrefix matches direction-less records whose text starts with a
// literal, optionally parameterized by the record's own symbol ("%s").
func noDirectionPrefix(pattern string) func(*RawTransaction) bool {
	return func(r *RawTransaction) bool {
		if r.Direction != DirectionNone {
			return false
		}
		prefix := pattern
		if strings.Contains(pattern, "%s") {
			prefix = fmt.Sprintf(pattern, r.Symbol)
		}
		return strings.HasPrefix(r.Text, prefix)
	}
}

var classifyRules = []classifyRule{
	// Cash movements.
	{func(r *RawTransaction) bool {
		return r.Direction == DirectionNone &&
			strings.HasPrefix(r.Text, "Vloženo na účet z") && strings.HasSuffix(r.Text, "Bezhotovostní vklad")
	}, TypeCashTopUp},
	{func(r *RawTransaction) bool {
		return r.Direction == DirectionNone && r.Text == "Vklad Bezhotovostní vklad"
	}, TypeCashTopUp},
	{func(r *RawTransaction) bool {
		return r.Direction == DirectionNone && r.Text == "v Bezhotovostní vklad"
	}, TypeCashTopUp},
	{noDirectionPrefix("Převod z účtu"), TypeCashTopUp},
	{func(r *RawTransaction) bool {
		return r.Direction == BankTransfer && strings.HasPrefix(r.Text, "Převod na účet")
	}, TypeCashWithdrawal},

	// Currency conversions and trades. The conversion text reuses the trade
	// words, only the direction column tells them apart.
	{withDirection(CurrencyConversion, "Nákup"), TypeFXBuy},
	{withDirection(CurrencyConversion, "Prodej"), TypeFXSell},
	{withDirection(Buy, "Nákup"), TypeBuy},
	{withDirection(Sell, "Prodej"), TypeSell},

	// Dividends, their taxes and corrections.
	{noDirectionPrefix("%s - Dividenda"), TypeCashDividend},
	{noDirectionPrefix("%s - Daň z divid. zaplacená"), TypeTax},
	{noDirectionPrefix("%s - Daň z dividend zaplacená"), TypeTax},
	{noDirectionPrefix("%s - Divi."), TypeCashDividend},
	{noDirectionPrefix("%s - Return of Principal"), TypeCapitalDividend},
	{noDirectionPrefix("%s - Stock Dividend"), TypeStockDividend},
	{noDirectionPrefix("%s - Finanční kompenzace - Stock Dividend"), TypeStockDividend},
	{noDirectionPrefix("%s - Oprava dividendy z"), TypeDividendReversal},
	{noDirectionPrefix("%s - Tax Refund"), TypeTaxRefund},
	{noDirectionPrefix("%s - Oprava daně z dividendy"), TypeTaxRefund},
	{noDirectionPrefix("%s - Refundable U.S. Fed Tax Reclassified By Issuer"), TypeTaxRefund},

	// Spin-offs. The fair-market-value and tax variants are specializations
	// and must precede the bare prefix.
	{noDirectionPrefix("%s - ADR Fee"), TypeFee},
	{noDirectionPrefix("%s - Spin-off Fair Market Value"), TypeSpinoffValue},
	{noDirectionPrefix("%s - Spin-off - daň zaplacená"), TypeTax},
	{func(r *RawTransaction) bool {
		return r.Direction == DirectionNone &&
			strings.HasPrefix(r.Text, fmt.Sprintf("%s - Spin-off", r.Symbol)) &&
			!strings.Contains(r.Text, "Fair Market Value") &&
			!strings.Contains(r.Text, "daň zaplacená")
	}, TypeSpinoffParent},

	{noDirectionPrefix("%s - Security Liquidated"), TypeLiquidation},
	{func(r *RawTransaction) bool {
		return r.Direction == Sell && strings.HasPrefix(r.Text, "Security Liquidated")
	}, TypeLiquidation},
	{noDirectionPrefix("Poplatek za on-line data"), TypeFee},
	{noDirectionPrefix("Reklamace "), TypeReclamation},

	// Fee rows identified only by the market label, per language.
	{marketLabel("Poplatek", "Fee", "Poplatok"), TypeFee},
}

// marketLabel matches the record's market column against the label in the
// record's own language (Czech, English, Slovak order).
func marketLabel(cz, en, sk string) func(*RawTransaction) bool {
	return func(r *RawTransaction) bool {
		switch r.Lang {
		case LangCZ:
			return r.Market == cz
		case LangEN:
			return r.Market == en
		case LangSK:
			return r.Market == sk
		}
		return false
	}
}

// isTransformation reports whether the record belongs to the statement's
// corporate-action ("Transformation") market category.
var isTransformation = marketLabel("Transformace", "Transformation", "Transformácia")

// classify assigns a canonical transaction type to one raw record. No match
// is an ErrUnrecognizedTransaction carrying the record for diagnosis: it
// means an unhandled statement variant.
func classify(r *RawTransaction) (TransactionType, error) {
	for _, rule := range classifyRules {
		if rule.match(r) {
			return rule.typ, nil
		}
	}
	if isTransformation(r) {
		if typ, ok := classifyTransformation(r); ok {
			return typ, nil
		}
	}
	return "", fmt.Errorf("%w: could not detect transaction type: %+v", ErrUnrecognizedTransaction, r)
}

// classifyTransformation resolves corporate-action records into their
// specific types by substring. Parent/child is decided by the direction: the
// sell row disposes the old instrument, the buy row acquires the new one.
func classifyTransformation(r *RawTransaction) (TransactionType, bool) {
	text := r.Text
	if strings.Contains(text, "Ticker Change: ") ||
		strings.Contains(text, "Change of Listing: ") ||
		strings.Contains(text, "Change in Security ID (ISIN Change)") {
		switch r.Direction {
		case Sell:
			return TypeInstrumentChangeParent, true
		case Buy:
			return TypeInstrumentChangeChild, true
		}
	}
	if strings.Contains(text, "Split ") {
		return TypeSplit, true
	}
	if strings.Contains(text, "Stock Merger ") {
		switch r.Direction {
		case Sell:
			return TypeMergerParent, true
		case Buy:
			return TypeMergerChild, true
		}
	}
	if strings.Contains(text, "Security Deleted As Worthless") {
		return TypeLiquidation, true
	}
	// Reorganizations list the disposed leg under the starred raw symbol.
	if text == fmt.Sprintf("%s - Reorganization", r.Symbol) {
		if r.Direction == Sell && r.RawSymbol == r.Symbol+"*" {
			return TypeInstrumentChangeParent, true
		}
		if r.Direction == Buy && r.RawSymbol == r.Symbol {
			return TypeInstrumentChangeChild, true
		}
	}
	return "", false
}
