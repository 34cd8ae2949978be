package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/brinvex/fiobank"
	"github.com/brinvex/fiobank/date"
	"github.com/google/subcommands"
)

type valuesCmd struct{}

func (*valuesCmd) Name() string { return "values" }
func (*valuesCmd) Synopsis() string {
	return "extract per-day total account values from portfolio statements"
}
func (*valuesCmd) Usage() string {
	return `fiolio values <statement.csv> [<statement.csv> ...]

  Reads broker portfolio statements and prints the end-of-period total
  account value of each, one line per day. Duplicated days must agree.
`
}

func (*valuesCmd) SetFlags(*flag.FlagSet) {}

func (v *valuesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "expected at least one statement file")
		return subcommands.ExitUsageError
	}
	contents, err := readStatementFiles(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	svc := fiobank.NewBrokerService(nil)
	values, err := svc.PortfolioValues(nil, contents)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	days := make([]date.Date, 0, len(values))
	for day := range values {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	for _, day := range days {
		val := values[day]
		fmt.Printf("%s  %s\n", day, val.Currency.Format(val.TotalValue))
	}
	return subcommands.ExitSuccess
}
