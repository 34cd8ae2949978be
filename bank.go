package fiobank

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/brinvex/fiobank/date"
)

// bankAPIURLFormat is the bank's REST endpoint for period statements:
// token, from day, to day.
const bankAPIURLFormat = "https://www.fio.cz/ib_api/rest/periods/%s/%s/%s/transactions.xml"

// bank movement type literals of the XML export
const (
	bankTypeIncoming    = "Bezhotovostní příjem"
	bankTypeInternalIn  = "Příjem převodem uvnitř banky"
	bankTypeCard        = "Platba kartou"
	bankTypeOutgoing    = "Bezhotovostní platba"
	bankTypeInternalOut = "Platba převodem uvnitř banky"
	bankTypeInterest    = "Připsaný úrok"
	bankTypeInterestTax = "Odvod daně z úroků"
)

// Fetcher retrieves a statement body for a fully formed URL. It exists so
// tests and callers with their own HTTP stack can stand in for the bank API.
type Fetcher func(ctx context.Context, url string) (string, error)

// BankService processes Fio bank account statements from the bank's XML API.
type BankService struct {
	loc   *time.Location
	fetch Fetcher
}

// NewBankService returns a service stamping movement days in loc (nil means
// the bank's own zone) and downloading statements with fetch (nil means a
// plain HTTP GET).
func NewBankService(loc *time.Location, fetch Fetcher) *BankService {
	if loc == nil {
		loc = statementTimeZone
	}
	if fetch == nil {
		fetch = httpFetch
	}
	return &BankService{loc: loc, fetch: fetch}
}

func httpFetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch statement: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ParseStatements parses each statement content and merges them into one
// deduplicated, chronologically sorted statement.
func (s *BankService) ParseStatements(contents []string) (RawBankStatement, error) {
	statements := make([]RawBankStatement, 0, len(contents))
	for _, content := range contents {
		stmt, err := parseBankStatement(content)
		if err != nil {
			return RawBankStatement{}, err
		}
		statements = append(statements, stmt)
	}
	return mergeBankStatements(statements)
}

// ProcessStatements folds the given bank statement contents into ptf. A nil
// ptf starts a fresh portfolio. Movements already present in the portfolio,
// recognized by their bank-assigned ids, are skipped, making the call
// resumable over overlapping downloads.
func (s *BankService) ProcessStatements(ptf *Portfolio, contents []string) (*Portfolio, error) {
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

	known := make(map[string]bool, len(ptf.Transactions))
	for _, t := range ptf.Transactions {
		known[t.ID] = true
	}
	raws := merged.Transactions

	for i := 0; i < len(raws); i++ {
		r := raws[i]
		if known[r.ID] {
			// A withheld interest tax was folded into its interest movement
			// and carries no id of its own in the portfolio; skip it along
			// with the interest it belongs to.
			if r.Type == bankTypeInterest && i+1 < len(raws) {
				nr := raws[i+1]
				if nr.Type == bankTypeInterestTax && nr.Date.Equal(r.Date) {
					i++
				}
			}
			continue
		}
		typ, err := classifyBank(&r)
		if err != nil {
			return nil, err
		}

		gross := r.Volume
		net := r.Volume
		tax := absent
		// Withheld interest tax comes as a separate same-day movement.
		if typ == TypeInterest && i+1 < len(raws) {
			nr := raws[i+1]
			if nr.Type == bankTypeInterestTax && nr.Date.Equal(r.Date) {
				if nr.Currency != r.Currency {
					return nil, invariantErrorf("interest tax currency %s != %s", nr.Currency, r.Currency)
				}
				tax = null(nr.Volume)
				net = gross.Add(nr.Volume)
				i++
			}
		}

		day := r.Date
		t := &Transaction{
			ID:             r.ID,
			Type:           typ,
			Date:           time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc),
			Currency:       r.Currency,
			GrossValue:     null(gross),
			NetValue:       null(net),
			Income:         gross,
			Tax:            tax,
			SettlementDate: day,
			Note:           formatAdditionals(r.Additionals),
		}
		if !t.Valid() {
			return nil, reconcileErrorf("movement %s: inconsistent transaction: %s", r.ID, t)
		}
		if err := ptf.apply(t); err != nil {
			return nil, err
		}
	}
	return ptf, nil
}

// ProcessAPIStatements downloads the statement for the given period with the
// service's fetcher and folds it into ptf.
func (s *BankService) ProcessAPIStatements(ctx context.Context, ptf *Portfolio, apiKey string, fromDay, toDay date.Date) (*Portfolio, error) {
	xml, err := s.FetchStatement(ctx, apiKey, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	return s.ProcessStatements(ptf, []string{xml})
}

// FetchStatement downloads the raw XML statement for [fromDay, toDay].
func (s *BankService) FetchStatement(ctx context.Context, apiKey string, fromDay, toDay date.Date) (string, error) {
	url := fmt.Sprintf(bankAPIURLFormat, apiKey, fromDay, toDay)
	return s.fetch(ctx, url)
}

// classifyBank maps the export's movement type literal to a canonical type.
func classifyBank(r *RawBankTransaction) (TransactionType, error) {
	switch r.Type {
	case bankTypeIncoming, bankTypeInternalIn:
		return TypeCashTopUp, nil
	case bankTypeCard, bankTypeOutgoing, bankTypeInternalOut:
		return TypeCashWithdrawal, nil
	case bankTypeInterest:
		return TypeInterest, nil
	case bankTypeInterestTax:
		return TypeTax, nil
	}
	return "", fmt.Errorf("%w: could not detect movement type: %+v", ErrUnrecognizedTransaction, r)
}

func formatAdditionals(additionals map[string]string) string {
	if len(additionals) == 0 {
		return ""
	}
	keys := make([]string, 0, len(additionals))
	for k := range additionals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+additionals[k])
	}
	return strings.Join(parts, ", ")
}
