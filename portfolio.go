package fiobank

import (
	"fmt"

	"github.com/brinvex/fiobank/date"
	"github.com/shopspring/decimal"
)

// Position is the running holding of one instrument. Positions are created on
// first reference and never removed, even after the quantity returns to zero:
// the transaction trail stays auditable.
type Position struct {
	Country      Country         `json:"country"`
	Symbol       string          `json:"symbol"`
	Qty          decimal.Decimal `json:"qty"`
	Transactions []*Transaction  `json:"transactions"`
}

// Portfolio is the reconstructed account state: cash per currency, open
// positions and the full canonical ledger. It is mutated exclusively by
// apply; everything else only reads it.
type Portfolio struct {
	AccountNumber string                       `json:"accountNumber"`
	PeriodFrom    date.Date                    `json:"periodFrom"`
	PeriodTo      date.Date                    `json:"periodTo"`
	Cash          map[Currency]decimal.Decimal `json:"cash"`
	Positions     []*Position                  `json:"positions"`
	Transactions  []*Transaction               `json:"transactions"`
}

// PortfolioValue is one day's total account valuation snapshot, taken from
// the broker's portfolio-value statement export.
type PortfolioValue struct {
	Day        date.Date       `json:"day"`
	TotalValue decimal.Decimal `json:"totalValue"`
	Currency   Currency        `json:"currency"`
}

func newPortfolio(accountNumber string, periodFrom, periodTo date.Date) *Portfolio {
	return &Portfolio{
		AccountNumber: accountNumber,
		PeriodFrom:    periodFrom,
		PeriodTo:      periodTo,
		Cash:          make(map[Currency]decimal.Decimal),
	}
}

// findPosition returns the portfolio's position for symbol, newest first when
// the symbol was held more than once. The reconciler uses it to resolve the
// market country of corporate-action legs, which the export states without a
// currency.
func (p *Portfolio) findPosition(symbol string) (*Position, error) {
	for i := len(p.Positions) - 1; i >= 0; i-- {
		if p.Positions[i].Symbol == symbol {
			return p.Positions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: symbol %q", ErrPositionNotFound, symbol)
}

// apply folds one canonical transaction into the portfolio: net value moves
// the cash balance of the transaction's currency, quantity moves the
// instrument's position. The transaction must already have passed Valid.
func (p *Portfolio) apply(t *Transaction) error {
	if t.Currency != "" && t.NetValue.Valid {
		p.Cash[t.Currency] = p.Cash[t.Currency].Add(t.NetValue.Decimal)
	}
	// FX conversions reference a currency pair, not an instrument; only
	// transactions with a market country touch positions.
	if t.Symbol != "" && t.Country != "" {
		pos := p.position(t.Country, t.Symbol)
		if pos.Country != t.Country {
			return invariantErrorf("position %s is %s, transaction says %s: %s",
				t.Symbol, pos.Country, t.Country, t)
		}
		newQty := pos.Qty.Add(t.Qty)
		if newQty.IsNegative() {
			return invariantErrorf("position %s would go negative (%s): %s", t.Symbol, newQty, t)
		}
		pos.Qty = newQty
		pos.Transactions = append(pos.Transactions, t)
	}
	p.Transactions = append(p.Transactions, t)
	return nil
}

// position finds the newest position for symbol or creates one. The country
// is fixed at creation.
func (p *Portfolio) position(country Country, symbol string) *Position {
	for i := len(p.Positions) - 1; i >= 0; i-- {
		if p.Positions[i].Symbol == symbol {
			return p.Positions[i]
		}
	}
	pos := &Position{Country: country, Symbol: symbol}
	p.Positions = append(p.Positions, pos)
	return pos
}
