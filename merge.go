package fiobank

import (
	"sort"
)

// mergeStatements folds several broker statements, possibly with overlapping
// periods, into one. The covered periods must form a contiguous range: a day
// gap between statements means missing transactions, which would silently
// corrupt every later balance, so it is an error.
//
// Records appearing in more than one statement are kept once, identified by
// their full content. Within a single statement equal records are legitimate
// (two identical fills in the same minute) and all survive.
func mergeStatements(statements []RawStatement) (RawStatement, error) {
	if len(statements) == 0 {
		return RawStatement{}, structuralErrorf("no statements to merge")
	}
	sorted := make([]RawStatement, len(statements))
	copy(sorted, statements)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PeriodFrom.Equal(sorted[j].PeriodFrom) {
			return sorted[i].PeriodFrom.Before(sorted[j].PeriodFrom)
		}
		return sorted[i].PeriodTo.Before(sorted[j].PeriodTo)
	})

	result := RawStatement{
		AccountNumber: sorted[0].AccountNumber,
		PeriodFrom:    sorted[0].PeriodFrom,
		PeriodTo:      sorted[0].PeriodTo,
	}

	seen := make(map[rawKey]bool)
	for _, stmt := range sorted {
		if stmt.AccountNumber != result.AccountNumber {
			return RawStatement{}, structuralErrorf("unexpected multiple accounts: %s, %s",
				result.AccountNumber, stmt.AccountNumber)
		}
		if gapFrom := result.PeriodTo.Add(1); gapFrom.Before(stmt.PeriodFrom) {
			return RawStatement{}, structuralErrorf("missing period '%s - %s', account %s",
				gapFrom, stmt.PeriodFrom.Add(-1), result.AccountNumber)
		}
		if stmt.PeriodTo.After(result.PeriodTo) {
			result.PeriodTo = stmt.PeriodTo
		}

		// Scan newest-first so that when an overlap re-exports a record, the
		// later statement's copy is the one kept.
		local := make(map[rawKey]bool)
		for i := len(stmt.Transactions) - 1; i >= 0; i-- {
			tx := stmt.Transactions[i]
			k := tx.key()
			if !seen[k] {
				result.Transactions = append(result.Transactions, tx)
			}
			local[k] = true
		}
		for k := range local {
			seen[k] = true
		}
	}

	sort.SliceStable(result.Transactions, func(i, j int) bool {
		return result.Transactions[i].TradeDate.Before(result.Transactions[j].TradeDate)
	})
	return result, nil
}

// mergeBankStatements is the bank-side counterpart of mergeStatements. Bank
// movements carry bank-assigned ids, so deduplication is by id rather than by
// content, and ordering is by day then id.
func mergeBankStatements(statements []RawBankStatement) (RawBankStatement, error) {
	if len(statements) == 0 {
		return RawBankStatement{}, structuralErrorf("no statements to merge")
	}
	sorted := make([]RawBankStatement, len(statements))
	copy(sorted, statements)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PeriodFrom.Equal(sorted[j].PeriodFrom) {
			return sorted[i].PeriodFrom.Before(sorted[j].PeriodFrom)
		}
		return sorted[i].PeriodTo.Before(sorted[j].PeriodTo)
	})

	result := RawBankStatement{
		AccountNumber: sorted[0].AccountNumber,
		PeriodFrom:    sorted[0].PeriodFrom,
		PeriodTo:      sorted[0].PeriodTo,
	}
	seen := make(map[string]bool)
	for _, stmt := range sorted {
		if stmt.AccountNumber != result.AccountNumber {
			return RawBankStatement{}, structuralErrorf("unexpected multiple accounts: %s, %s",
				result.AccountNumber, stmt.AccountNumber)
		}
		if gapFrom := result.PeriodTo.Add(1); gapFrom.Before(stmt.PeriodFrom) {
			return RawBankStatement{}, structuralErrorf("missing period '%s - %s', account %s",
				gapFrom, stmt.PeriodFrom.Add(-1), result.AccountNumber)
		}
		if stmt.PeriodTo.After(result.PeriodTo) {
			result.PeriodTo = stmt.PeriodTo
		}
		for _, tx := range stmt.Transactions {
			if seen[tx.ID] {
				continue
			}
			seen[tx.ID] = true
			result.Transactions = append(result.Transactions, tx)
		}
	}

	sort.SliceStable(result.Transactions, func(i, j int) bool {
		if !result.Transactions[i].Date.Equal(result.Transactions[j].Date) {
			return result.Transactions[i].Date.Before(result.Transactions[j].Date)
		}
		return result.Transactions[i].ID < result.Transactions[j].ID
	})
	return result, nil
}
