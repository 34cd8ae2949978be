// Package cmd implements the CLI application to rebuild portfolios from Fio
// bank and broker statements.
package cmd

import (
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"

	"github.com/brinvex/fiobank"
	"github.com/google/subcommands"
)

// Commands lists every subcommand for registration by the main package.
var Commands = []subcommands.Command{
	&parseCmd{},
	&processCmd{},
	&bankCmd{},
	&valuesCmd{},
	&fetchCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var portfolioFile = flag.String("portfolio-file", "portfolio.json", "Path to the portfolio state file (JSON)")

// readStatementFiles loads and charset-decodes statement files.
func readStatementFiles(paths []string) ([]string, error) {
	contents := make([]string, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		s, err := fiobank.DecodeStatement(b)
		if err != nil {
			return nil, err
		}
		contents = append(contents, s)
	}
	return contents, nil
}

// DecodePortfolio loads the portfolio state file. A missing file yields a nil
// portfolio: the next process run starts from scratch.
func DecodePortfolio() (*fiobank.Portfolio, error) {
	b, err := os.ReadFile(*portfolioFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, portfolio file does not exist, starting from an empty portfolio instead")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ptf fiobank.Portfolio
	if err := json.Unmarshal(b, &ptf); err != nil {
		return nil, err
	}
	return &ptf, nil
}

// EncodePortfolio writes the portfolio state file.
func EncodePortfolio(ptf *fiobank.Portfolio) error {
	b, err := json.MarshalIndent(ptf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(*portfolioFile, b, 0644)
}
