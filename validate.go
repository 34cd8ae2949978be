package fiobank

import (
	"github.com/shopspring/decimal"
)

// valueTolerance is the absolute tolerance for reconciling stated gross and
// net values against the computed ones. Statement values are rounded to
// cents; half a cent absorbs the rounding without hiding real mismatches.
var valueTolerance = decimal.RequireFromString("0.005")

// Valid reports whether t is internally consistent for its declared type.
// It is a pure predicate: it never mutates t and never fails. Callers that
// see false must reject the transaction and surface the offending input.
func (t *Transaction) Valid() bool {
	if t.Date.IsZero() || t.SettlementDate.IsZero() || t.Type == "" {
		return false
	}
	// A symbol and its market country come in pairs, except for currency
	// conversions, which trade a currency pair instead of an instrument.
	if t.Type != TypeFXBuy && t.Type != TypeFXSell {
		if (t.Symbol != "") != (t.Country != "") {
			return false
		}
	}
	preds, ok := typeInvariants[t.Type]
	if !ok {
		return false
	}
	for _, pred := range preds {
		if !pred(t) {
			return false
		}
	}
	return t.grossValueConsistent() && t.netValueConsistent()
}

// grossValueConsistent checks grossValue == -(qty*price) + income within
// tolerance. When price is absent the instrument term drops. An absent gross
// value is consistent only with an absent net value.
func (t *Transaction) grossValueConsistent() bool {
	if !t.GrossValue.Valid {
		return !t.NetValue.Valid
	}
	computed := t.Income
	if t.Price.Valid {
		computed = t.Qty.Mul(t.Price.Decimal).Neg().Add(t.Income)
	}
	return computed.Sub(t.GrossValue.Decimal).Abs().LessThan(valueTolerance)
}

// netValueConsistent checks netValue == -(qty*price) + income + fees + tax
// within tolerance, with the same absence rules as grossValueConsistent.
func (t *Transaction) netValueConsistent() bool {
	if !t.NetValue.Valid {
		return !t.GrossValue.Valid
	}
	computed := t.Income.Add(t.Fees).Add(taxOrZero(t))
	if t.Price.Valid {
		computed = t.Qty.Mul(t.Price.Decimal).Neg().Add(computed)
	}
	return computed.Sub(t.NetValue.Decimal).Abs().LessThan(valueTolerance)
}

func taxOrZero(t *Transaction) decimal.Decimal {
	if !t.Tax.Valid {
		return decimal.Decimal{}
	}
	return t.Tax.Decimal
}

type invariant func(*Transaction) bool

// Field predicates. Each reads one field; the per-type lists below compose
// them. Absent tax counts as zero everywhere except where a tax is required.
var (
	netNeg     = func(t *Transaction) bool { return t.NetValue.Valid && t.NetValue.Decimal.IsNegative() }
	netPos     = func(t *Transaction) bool { return t.NetValue.Valid && t.NetValue.Decimal.IsPositive() }
	netZero    = func(t *Transaction) bool { return t.NetValue.Valid && t.NetValue.Decimal.IsZero() }
	netNonZero = func(t *Transaction) bool { return t.NetValue.Valid && !t.NetValue.Decimal.IsZero() }
	netNonNeg  = func(t *Transaction) bool { return !t.NetValue.Valid || !t.NetValue.Decimal.IsNegative() }
	netAbsent  = func(t *Transaction) bool { return !t.NetValue.Valid }

	ccyPresent = func(t *Transaction) bool { return t.Currency != "" }
	ccyAbsent  = func(t *Transaction) bool { return t.Currency == "" }

	symPresent = func(t *Transaction) bool { return t.Symbol != "" }
	symAbsent  = func(t *Transaction) bool { return t.Symbol == "" }

	qtyPos    = func(t *Transaction) bool { return t.Qty.IsPositive() }
	qtyNeg    = func(t *Transaction) bool { return t.Qty.IsNegative() }
	qtyZero   = func(t *Transaction) bool { return t.Qty.IsZero() }
	qtyNonNeg = func(t *Transaction) bool { return !t.Qty.IsNegative() }
	qtyNonPos = func(t *Transaction) bool { return !t.Qty.IsPositive() }
	qtyAny    = func(t *Transaction) bool { return !t.Qty.IsZero() }

	pricePos    = func(t *Transaction) bool { return t.Price.Valid && t.Price.Decimal.IsPositive() }
	priceZero   = func(t *Transaction) bool { return t.Price.Valid && t.Price.Decimal.IsZero() }
	priceAbsent = func(t *Transaction) bool { return !t.Price.Valid }

	incomeZero    = func(t *Transaction) bool { return t.Income.IsZero() }
	incomePos     = func(t *Transaction) bool { return t.Income.IsPositive() }
	incomeNeg     = func(t *Transaction) bool { return t.Income.IsNegative() }
	incomeNonNeg  = func(t *Transaction) bool { return !t.Income.IsNegative() }
	incomeNonZero = func(t *Transaction) bool { return !t.Income.IsZero() }

	feesNonPos = func(t *Transaction) bool { return !t.Fees.IsPositive() }
	feesNonNeg = func(t *Transaction) bool { return !t.Fees.IsNegative() }
	feesNeg    = func(t *Transaction) bool { return t.Fees.IsNegative() }
	feesZero   = func(t *Transaction) bool { return t.Fees.IsZero() }

	taxZero   = func(t *Transaction) bool { return taxOrZero(t).IsZero() }
	taxNonPos = func(t *Transaction) bool { return !taxOrZero(t).IsPositive() }
	taxNonNeg = func(t *Transaction) bool { return !taxOrZero(t).IsNegative() }
	taxNeg    = func(t *Transaction) bool { return t.Tax.Valid && t.Tax.Decimal.IsNegative() }
	taxPos    = func(t *Transaction) bool { return t.Tax.Valid && t.Tax.Decimal.IsPositive() }
)

// typeInvariants maps each transaction type to its ordered sign/nullity
// constraints. The table is external to the type on purpose: it keeps the
// rules data-driven and testable in isolation.
var typeInvariants = map[TransactionType][]invariant{
	TypeBuy: {
		netNeg, ccyPresent, symPresent, qtyPos, pricePos, incomeZero, feesNonPos, taxZero,
	},
	TypeSell: {
		netPos, ccyPresent, symPresent, qtyNeg, pricePos, incomeZero, feesNonPos, taxNonPos,
	},
	TypeCashTopUp: {
		netPos, ccyPresent, symAbsent, qtyZero, priceAbsent, incomePos, feesNonPos, taxZero,
	},
	TypeCashWithdrawal: {
		netNeg, ccyPresent, symAbsent, qtyZero, priceAbsent, incomeNeg, feesNonPos, taxZero,
	},
	TypeCashDividend: {
		netPos, ccyPresent, symPresent, qtyZero, priceAbsent, incomePos, feesNonPos, taxNonPos,
	},
	TypeCapitalDividend: {
		netPos, ccyPresent, symPresent, qtyZero, priceAbsent, incomePos, feesNonPos, taxZero,
	},
	TypeStockDividend: {
		netNonNeg, symPresent, qtyNonNeg, priceAbsent, incomeNonNeg, feesNonPos, taxZero,
	},
	TypeDividendReversal: {
		netNeg, ccyPresent, symPresent, qtyZero, priceAbsent, incomeNeg, feesNonNeg, taxNonNeg,
	},
	TypeFXBuy: {
		netNeg, ccyPresent, symPresent, qtyPos, pricePos, incomeZero, feesNonPos, taxZero,
	},
	TypeFXSell: {
		netPos, ccyPresent, symPresent, qtyNeg, pricePos, incomeZero, feesNonPos, taxZero,
	},
	TypeFee: {
		netNeg, ccyPresent, qtyZero, priceAbsent, incomeZero, feesNeg, taxZero,
	},
	TypeTax: {
		netNeg, ccyPresent, symPresent, qtyZero, priceAbsent, incomeZero, feesZero, taxNeg,
	},
	TypeTaxRefund: {
		netPos, ccyPresent, symPresent, qtyZero, priceAbsent, incomeZero, feesZero, taxPos,
	},
	TypeReclamation: {
		netPos, ccyPresent, symAbsent, qtyZero, priceAbsent, incomePos, feesZero, taxZero,
	},
	TypeInterest: {
		netPos, ccyPresent, symAbsent, qtyZero, priceAbsent, incomePos, feesZero, taxNonPos,
	},
	TypeInstrumentChangeParent: {
		netZero, ccyAbsent, symPresent, qtyNonPos, priceAbsent, incomeZero, feesZero, taxZero,
	},
	TypeInstrumentChangeChild: {
		netZero, ccyAbsent, symPresent, qtyNonNeg, priceAbsent, incomeZero, feesZero, taxZero,
	},
	TypeSpinoffParent: {
		netAbsent, ccyPresent, symPresent, qtyZero, priceAbsent, incomeZero, feesZero, taxZero,
	},
	TypeSpinoffChild: {
		netAbsent, ccyPresent, symPresent, qtyPos, priceAbsent, incomeZero, feesZero, taxZero,
	},
	TypeSpinoffValue: {
		netNonZero, ccyPresent, symPresent, qtyZero, priceAbsent, incomeNonZero, feesZero, taxZero,
	},
	TypeSplit: {
		netZero, ccyAbsent, symPresent, qtyAny, priceAbsent, incomeZero, feesZero, taxZero,
	},
	TypeMergerParent: {
		netAbsent, ccyPresent, symPresent, qtyNeg, priceAbsent, incomeZero, feesZero, taxZero,
	},
	TypeMergerChild: {
		netAbsent, ccyPresent, symPresent, qtyPos, priceAbsent, incomeZero, feesZero, taxZero,
	},
	TypeLiquidation: {
		netNonNeg, symPresent, qtyNeg, priceZero, incomeNonNeg, feesZero, taxZero,
	},
}
