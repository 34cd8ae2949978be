package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/brinvex/fiobank"
	"github.com/google/subcommands"
)

type parseCmd struct{}

func (*parseCmd) Name() string     { return "parse" }
func (*parseCmd) Synopsis() string { return "parse broker statements into one merged raw statement" }
func (*parseCmd) Usage() string {
	return `fiolio parse <statement.csv> [<statement.csv> ...]

  Parses the given broker transaction statements, merges their periods,
  drops duplicated records and prints the merged raw statement as JSON.
`
}

func (*parseCmd) SetFlags(*flag.FlagSet) {}

func (p *parseCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	stmt, err := svc.ParseStatements(contents)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	out, err := json.MarshalIndent(stmt, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(string(out))
	return subcommands.ExitSuccess
}
