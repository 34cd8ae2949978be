package fiobank

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Lang identifies the language a statement was exported in. The broker lets
// users download the same statement in Czech, English or Slovak, and every
// literal in it (column titles, direction names, market labels) changes with
// the language.
type Lang string

const (
	LangCZ Lang = "CZ"
	LangEN Lang = "EN"
	LangSK Lang = "SK"
)

// Currency is one of the three currencies the broker settles in.
type Currency string

const (
	CZK Currency = "CZK"
	EUR Currency = "EUR"
	USD Currency = "USD"
)

// ParseCurrency matches a raw statement cell against the known currencies.
// Unknown or blank cells yield the empty Currency, not an error: raw records
// legitimately carry no currency (corporate actions).
func ParseCurrency(s string) Currency {
	for _, ccy := range []Currency{CZK, EUR, USD} {
		if string(ccy) == s {
			return ccy
		}
	}
	return ""
}

// Format renders an amount in this currency using the currency's conventional
// symbol and fraction digits.
func (c Currency) Format(v decimal.Decimal) string {
	cur := money.GetCurrency(string(c))
	if cur == nil {
		return fmt.Sprintf("%s %s", v.StringFixed(2), c)
	}
	return cur.Formatter().Format(v.Shift(int32(cur.Fraction)).IntPart())
}

// Country is the market a traded instrument belongs to. The broker does not
// export it; it is derived from the settlement currency.
type Country string

const (
	CZ Country = "CZ"
	DE Country = "DE"
	US Country = "US"
)

// Currency returns the settlement currency of a country's market.
func (c Country) Currency() Currency {
	switch c {
	case US:
		return USD
	case DE:
		return EUR
	case CZ:
		return CZK
	}
	return ""
}

// CountryOf derives the market country from a settlement currency. Records
// without a currency have no country.
func CountryOf(ccy Currency) Country {
	switch ccy {
	case USD:
		return US
	case EUR:
		return DE
	case CZK:
		return CZ
	}
	return ""
}

// Direction is the raw broker record direction column.
type Direction string

const (
	// DirectionNone marks records whose direction cell is blank (dividends,
	// fees, most corporate actions).
	DirectionNone      Direction = ""
	Buy                Direction = "BUY"
	Sell               Direction = "SELL"
	BankTransfer       Direction = "BANK_TRANSFER"
	CurrencyConversion Direction = "CURRENCY_CONVERSION"
)

// directionWords is the per-language direction vocabulary of the statement
// export. Matching is case-insensitive.
var directionWords = map[Lang]map[string]Direction{
	LangCZ: {
		"nákup":              Buy,
		"prodej":             Sell,
		"bankovní převod":    BankTransfer,
		"převod mezi měnami": CurrencyConversion,
	},
	LangSK: {
		"nákup":              Buy,
		"predaj":             Sell,
		"bankový prevod":     BankTransfer,
		"prevod mezi menami": CurrencyConversion,
	},
	LangEN: {
		"buy":                 Buy,
		"sell":                Sell,
		"bank transfer":       BankTransfer,
		"currency conversion": CurrencyConversion,
	},
}
