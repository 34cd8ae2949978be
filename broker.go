package fiobank

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/brinvex/fiobank/date"
	"golang.org/x/text/encoding/charmap"
)

// The statement download portal stamps trade times in the bank's local time
// and the export carries no zone marker.
var statementTimeZone = mustLoadLocation("Europe/Prague")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// DecodeStatement converts raw statement file bytes to text. The portal
// serves broker exports in windows-1250; files re-saved by users are usually
// UTF-8, so valid UTF-8 is passed through untouched.
func DecodeStatement(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	s, err := charmap.Windows1250.NewDecoder().Bytes(b)
	if err != nil {
		return "", structuralErrorf("statement charset: %v", err)
	}
	return string(s), nil
}

// BrokerService processes Fio broker transaction and portfolio statements.
// It is stateless and safe for concurrent use; the portfolio passed to
// ProcessStatements is the only thing mutated, and only by that call.
type BrokerService struct {
	loc *time.Location
}

// NewBrokerService returns a service interpreting statement timestamps in
// loc. A nil loc means the bank's own zone.
func NewBrokerService(loc *time.Location) *BrokerService {
	if loc == nil {
		loc = statementTimeZone
	}
	return &BrokerService{loc: loc}
}

// ParseStatements parses each statement content and merges them into one
// deduplicated, chronologically sorted statement.
func (s *BrokerService) ParseStatements(contents []string) (RawStatement, error) {
	statements := make([]RawStatement, 0, len(contents))
	for _, content := range contents {
		stmt, err := parseBrokerStatement(content, s.loc)
		if err != nil {
			return RawStatement{}, err
		}
		statements = append(statements, stmt)
	}
	return mergeStatements(statements)
}

// ProcessStatements folds the given statement contents into ptf: merge,
// cut off already-applied records, then classify, reconcile, validate and
// accumulate record by record. A nil ptf starts a fresh portfolio.
//
// The call is resumable: feeding four yearly statements one call at a time
// produces the same portfolio as feeding all four at once.
func (s *BrokerService) ProcessStatements(ptf *Portfolio, contents []string) (*Portfolio, error) {
	merged, err := s.ParseStatements(contents)
	if err != nil {
		return nil, err
	}
	if ptf == nil {
		ptf = newPortfolio(merged.AccountNumber, merged.PeriodFrom, merged.PeriodTo)
	} else {
		if ptf.AccountNumber != merged.AccountNumber {
			return nil, structuralErrorf("unexpected multiple accounts: %s, %s",
				ptf.AccountNumber, merged.AccountNumber)
		}
		if gapFrom := ptf.PeriodTo.Add(1); gapFrom.Before(merged.PeriodFrom) {
			return nil, structuralErrorf("missing period '%s - %s', account %s",
				gapFrom, merged.PeriodFrom.Add(-1), ptf.AccountNumber)
		}
		if merged.PeriodTo.After(ptf.PeriodTo) {
			ptf.PeriodTo = merged.PeriodTo
		}
	}

	raws := merged.Transactions
	rc := &reconciler{
		symbolCountry: func(symbol string) (Country, error) {
			pos, err := ptf.findPosition(symbol)
			if err != nil {
				return "", err
			}
			return pos.Country, nil
		},
	}
	if n := len(ptf.Transactions); n > 0 {
		// Already-applied records: everything up to and including the last
		// recorded transaction's instant was folded in by a previous run.
		last := ptf.Transactions[n-1]
		kept := raws[:0]
		for _, r := range raws {
			if r.TradeDate.After(last.Date) {
				kept = append(kept, r)
			}
		}
		raws = kept
		rc.prev = last
	}

	for idx := 0; len(raws) > 0; {
		consumed, emitted, err := rc.step(raws)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", idx+1, raws[0].Text, err)
		}
		if consumed < 1 {
			return nil, structuralErrorf("record %d: reconciler made no progress", idx+1)
		}
		for i := range emitted {
			t := &emitted[i]
			if !t.Valid() {
				return nil, reconcileErrorf("record %d: inconsistent transaction: %s", idx+1, t)
			}
			if err := ptf.apply(t); err != nil {
				return nil, err
			}
		}
		raws = raws[consumed:]
		idx += consumed
	}
	return ptf, nil
}

// PortfolioValues parses portfolio statements into per-day valuation
// snapshots, folded together with previously known values. A day reported
// twice must agree exactly; a contradiction means statements from different
// accounts or a corrupted export.
func (s *BrokerService) PortfolioValues(old []PortfolioValue, contents []string) (map[date.Date]PortfolioValue, error) {
	values := make(map[date.Date]PortfolioValue, len(old)+len(contents))
	add := func(v PortfolioValue) error {
		if prev, ok := values[v.Day]; ok {
			if prev.Currency != v.Currency || !prev.TotalValue.Equal(v.TotalValue) {
				return structuralErrorf("conflicting portfolio values for %s: %s %s vs %s %s",
					v.Day, prev.TotalValue, prev.Currency, v.TotalValue, v.Currency)
			}
			return nil
		}
		values[v.Day] = v
		return nil
	}
	for _, v := range old {
		if err := add(v); err != nil {
			return nil, err
		}
	}
	for _, content := range contents {
		v, err := parsePortfolioValueStatement(content)
		if err != nil {
			return nil, err
		}
		if err := add(v); err != nil {
			return nil, err
		}
	}
	return values, nil
}
