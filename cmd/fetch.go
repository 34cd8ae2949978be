package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brinvex/fiobank"
	"github.com/brinvex/fiobank/date"
	"github.com/google/subcommands"
)

type fetchCmd struct {
	token string
	from  string
	to    string
}

func (*fetchCmd) Name() string { return "fetch" }
func (*fetchCmd) Synopsis() string {
	return "download a bank statement from the Fio REST API"
}
func (*fetchCmd) Usage() string {
	return `fiolio fetch -token <apikey> -from <yyyy-mm-dd> -to <yyyy-mm-dd>

  Downloads the XML bank statement for the given period and prints it
  to stdout. Pipe it to a file to feed the "bank" subcommand later.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.token, "token", "", "Fio API token")
	f.StringVar(&c.from, "from", "", "period start (yyyy-mm-dd)")
	f.StringVar(&c.to, "to", "", "period end (yyyy-mm-dd)")
}

func (c *fetchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.token == "" {
		fmt.Fprintln(os.Stderr, "missing -token")
		return subcommands.ExitUsageError
	}
	from, err := date.Parse(c.from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
		return subcommands.ExitUsageError
	}
	to, err := date.Parse(c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -to: %v\n", err)
		return subcommands.ExitUsageError
	}
	svc := fiobank.NewBankService(nil, nil)
	body, err := svc.FetchStatement(ctx, c.token, from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Print(body)
	return subcommands.ExitSuccess
}
