package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brinvex/fiobank"
	"github.com/google/subcommands"
)

type processCmd struct{}

func (*processCmd) Name() string { return "process" }
func (*processCmd) Synopsis() string {
	return "fold broker statements into the portfolio state file"
}
func (*processCmd) Usage() string {
	return `fiolio process <statement.csv> [<statement.csv> ...]

  Reconciles the given broker transaction statements into the portfolio
  state file. The run is incremental: statements already folded in are
  recognized and skipped, so re-running with overlapping exports is safe.
`
}

func (*processCmd) SetFlags(*flag.FlagSet) {}

func (p *processCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "expected at least one statement file")
		return subcommands.ExitUsageError
	}
	contents, err := readStatementFiles(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ptf, err := DecodePortfolio()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	svc := fiobank.NewBrokerService(nil)
	ptf, err = svc.ProcessStatements(ptf, contents)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := EncodePortfolio(ptf); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printPortfolioSummary(ptf)
	return subcommands.ExitSuccess
}

func printPortfolioSummary(ptf *fiobank.Portfolio) {
	fmt.Printf("account %s, period %s - %s, %d transactions\n",
		ptf.AccountNumber, ptf.PeriodFrom, ptf.PeriodTo, len(ptf.Transactions))
	for ccy, balance := range ptf.Cash {
		fmt.Printf("  cash %s\n", ccy.Format(balance))
	}
	for _, pos := range ptf.Positions {
		if pos.Qty.IsZero() {
			continue
		}
		fmt.Printf("  %-8s %s (%s)\n", pos.Symbol, pos.Qty, pos.Country)
	}
}
