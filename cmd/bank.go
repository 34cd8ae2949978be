package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brinvex/fiobank"
	"github.com/google/subcommands"
)

type bankCmd struct{}

func (*bankCmd) Name() string { return "bank" }
func (*bankCmd) Synopsis() string {
	return "fold bank account statements into the portfolio state file"
}
func (*bankCmd) Usage() string {
	return `fiolio bank <statement.xml> [<statement.xml> ...]

  Processes the given bank account XML statements into the portfolio state
  file. Movements already folded in are recognized by their bank ids and
  skipped.
`
}

func (*bankCmd) SetFlags(*flag.FlagSet) {}

func (b *bankCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	svc := fiobank.NewBankService(nil, nil)
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
