package fiobank

import (
	"errors"
	"strings"
	"testing"

	"github.com/brinvex/fiobank/date"
)

func brokerStatement(period string, rows ...string) string {
	lines := []string{
		`Overview of trades - "Account number: 1234567890";;;`,
		`Created: 15.01.2024 08:00;;;`,
		"Period: " + period + ";;;",
		enStatementHeader,
	}
	lines = append(lines, rows...)
	return strings.Join(lines, "\n")
}

const (
	depositRow = "02.01.2023 10:30;;;;0;USD;;;5 000;;;;Vloženo na účet z 2345678901 Bezhotovostní vklad;;;02.01.2023;Settled;;"
	buyRow     = "03.01.2023 14:00;Buy;AAPL;150;10;USD;;;-1 507,90;7,90;;;Nákup;US Market;Apple Inc.;05.01.2023;Settled;;"
	sellRow    = "10.01.2024 09:00;Sell;AAPL;180;10;USD;;;1 792,10;7,90;;;Prodej;US Market;Apple Inc.;12.01.2024;Settled;;"
)

func TestProcessStatements(t *testing.T) {
	svc := NewBrokerService(nil)
	ptf, err := svc.ProcessStatements(nil, []string{
		brokerStatement("1.1.2023 - 31.12.2023", depositRow, buyRow),
	})
	if err != nil {
		t.Fatalf("ProcessStatements() error: %v", err)
	}

	if ptf.AccountNumber != "1234567890" {
		t.Errorf("AccountNumber = %q", ptf.AccountNumber)
	}
	if got := ptf.Cash[USD]; !got.Equal(dec("3492.10")) {
		t.Errorf("Cash[USD] = %s, want 3492.10", got)
	}
	pos, err := ptf.findPosition("AAPL")
	if err != nil {
		t.Fatalf("findPosition(AAPL) error: %v", err)
	}
	if !pos.Qty.Equal(dec("10")) {
		t.Errorf("AAPL qty = %s, want 10", pos.Qty)
	}
	if len(ptf.Transactions) != 2 {
		t.Fatalf("ledger holds %d transactions, want 2", len(ptf.Transactions))
	}
	if ptf.Transactions[0].Type != TypeCashTopUp || ptf.Transactions[1].Type != TypeBuy {
		t.Errorf("ledger types = %s, %s", ptf.Transactions[0].Type, ptf.Transactions[1].Type)
	}
	for _, tr := range ptf.Transactions {
		if tr.ID == "" {
			t.Errorf("ledger entry without id: %s", tr)
		}
	}
}

// Feeding statements one call at a time must reconstruct the same portfolio
// as feeding them all at once, even when the downloads overlap.
func TestProcessStatementsIsResumable(t *testing.T) {
	stmt2023 := brokerStatement("1.1.2023 - 31.12.2023", depositRow, buyRow)
	stmt2024 := brokerStatement("1.1.2024 - 31.12.2024", sellRow)
	// Re-download covering both years: everything in it is already applied.
	stmtAll := brokerStatement("1.1.2023 - 31.12.2024", depositRow, buyRow, sellRow)

	svc := NewBrokerService(nil)
	oneShot, err := svc.ProcessStatements(nil, []string{stmt2023, stmt2024})
	if err != nil {
		t.Fatalf("ProcessStatements(all at once) error: %v", err)
	}

	step, err := svc.ProcessStatements(nil, []string{stmt2023})
	if err != nil {
		t.Fatalf("ProcessStatements(2023) error: %v", err)
	}
	step, err = svc.ProcessStatements(step, []string{stmt2024})
	if err != nil {
		t.Fatalf("ProcessStatements(2024) error: %v", err)
	}
	step, err = svc.ProcessStatements(step, []string{stmtAll})
	if err != nil {
		t.Fatalf("ProcessStatements(re-download) error: %v", err)
	}

	if len(step.Transactions) != len(oneShot.Transactions) {
		t.Fatalf("incremental ledger holds %d transactions, one-shot %d",
			len(step.Transactions), len(oneShot.Transactions))
	}
	for i := range step.Transactions {
		if step.Transactions[i].ID != oneShot.Transactions[i].ID {
			t.Errorf("transaction %d id diverged: %q vs %q",
				i, step.Transactions[i].ID, oneShot.Transactions[i].ID)
		}
	}
	if !step.Cash[USD].Equal(oneShot.Cash[USD]) {
		t.Errorf("Cash[USD] diverged: %s vs %s", step.Cash[USD], oneShot.Cash[USD])
	}
	if got := step.Cash[USD]; !got.Equal(dec("5284.20")) {
		t.Errorf("Cash[USD] = %s, want 5284.20", got)
	}
	pos, err := step.findPosition("AAPL")
	if err != nil {
		t.Fatalf("findPosition(AAPL) error: %v", err)
	}
	if !pos.Qty.IsZero() {
		t.Errorf("AAPL qty = %s, want 0 after the sale", pos.Qty)
	}
	if !step.PeriodTo.Equal(date.New(2024, 12, 31)) {
		t.Errorf("PeriodTo = %s, want 2024-12-31", step.PeriodTo)
	}
}

func TestProcessStatementsRejectsForeignPortfolio(t *testing.T) {
	svc := NewBrokerService(nil)
	ptf := newPortfolio("9876543210", date.New(2023, 1, 1), date.New(2023, 12, 31))
	_, err := svc.ProcessStatements(ptf, []string{
		brokerStatement("1.1.2024 - 31.12.2024", sellRow),
	})
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("ProcessStatements() error = %v, want ErrStructural", err)
	}
}

func TestProcessStatementsReportsOffendingRecord(t *testing.T) {
	// A buy with a positive volume violates the rule preconditions.
	bad := "03.01.2023 14:00;Buy;AAPL;150;10;USD;;;1 507,90;7,90;;;Nákup;US Market;Apple Inc.;05.01.2023;Settled;;"
	svc := NewBrokerService(nil)
	_, err := svc.ProcessStatements(nil, []string{
		brokerStatement("1.1.2023 - 31.12.2023", bad),
	})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("ProcessStatements() error = %v, want ErrInvariant", err)
	}
	if !strings.Contains(err.Error(), "Nákup") {
		t.Errorf("error does not name the offending record: %v", err)
	}
}

func TestPortfolioValues(t *testing.T) {
	statement := func(period, summary string) string {
		return strings.Join([]string{
			`Overview of portfolio - "Account number: 1234567890";;;`,
			`Created: 02.01.2024 08:00;;;`,
			"Period: " + period + ";;;",
			"Symbol;Title;",
			summary,
		}, "\n")
	}
	y2022 := statement("1.1.2022 - 31.12.2022", "Total (USD);;;;;;;;;;100 000;")
	y2023 := statement("1.1.2023 - 31.12.2023", "Total (USD);;;;;;;;;;125 000,50;")

	svc := NewBrokerService(nil)
	old := []PortfolioValue{{Day: date.New(2021, 12, 31), TotalValue: dec("80000"), Currency: USD}}
	values, err := svc.PortfolioValues(old, []string{y2022, y2023})
	if err != nil {
		t.Fatalf("PortfolioValues() error: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("got %d values, want 3", len(values))
	}
	if got := values[date.New(2023, 12, 31)]; !got.TotalValue.Equal(dec("125000.50")) {
		t.Errorf("2023 value = %s, want 125000.50", got.TotalValue)
	}

	// A re-downloaded duplicate day must agree exactly.
	if _, err := svc.PortfolioValues(old, []string{y2022, y2022}); err != nil {
		t.Fatalf("PortfolioValues(duplicate) error: %v", err)
	}
	conflicting := statement("1.1.2022 - 31.12.2022", "Total (USD);;;;;;;;;;99 999;")
	_, err = svc.PortfolioValues(nil, []string{y2022, conflicting})
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("PortfolioValues(conflict) error = %v, want ErrStructural", err)
	}
}
