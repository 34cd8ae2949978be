package fiobank

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/brinvex/fiobank/date"
	"github.com/shopspring/decimal"
)

// The bank API statement is XML with positional element names: every field of
// a movement is a <column_N name="..."> element. Only a handful of column
// numbers matter structurally; everything else is kept under its name
// attribute for the transaction note.

// parseBankDay parses the API's offset date form, e.g. "2023-01-31+01:00".
func parseBankDay(s string) (date.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len("2006-01-02") {
		return date.Date{}, structuralErrorf("bad day %q", s)
	}
	return date.Parse(s[:len("2006-01-02")])
}

func parseBankStatement(content string) (RawBankStatement, error) {
	var stmt RawBankStatement
	dec := xml.NewDecoder(strings.NewReader(content))

	var tran *RawBankTransaction
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return RawBankStatement{}, structuralErrorf("bank statement xml: %v", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			name := el.Name.Local
			switch name {
			case "accountId":
				if err := dec.DecodeElement(&stmt.AccountNumber, &el); err != nil {
					return RawBankStatement{}, structuralErrorf("accountId: %v", err)
				}
			case "dateStart":
				var s string
				if err := dec.DecodeElement(&s, &el); err != nil {
					return RawBankStatement{}, structuralErrorf("dateStart: %v", err)
				}
				if stmt.PeriodFrom, err = parseBankDay(s); err != nil {
					return RawBankStatement{}, err
				}
			case "dateEnd":
				var s string
				if err := dec.DecodeElement(&s, &el); err != nil {
					return RawBankStatement{}, structuralErrorf("dateEnd: %v", err)
				}
				if stmt.PeriodTo, err = parseBankDay(s); err != nil {
					return RawBankStatement{}, err
				}
			case "Transaction":
				if tran != nil {
					return RawBankStatement{}, structuralErrorf("nested Transaction element")
				}
				tran = &RawBankTransaction{Additionals: make(map[string]string)}
			default:
				if tran == nil || !strings.HasPrefix(name, "column_") {
					continue
				}
				var val string
				if err := dec.DecodeElement(&val, &el); err != nil {
					return RawBankStatement{}, structuralErrorf("%s: %v", name, err)
				}
				switch name {
				case "column_22":
					tran.ID = val
				case "column_0":
					if tran.Date, err = parseBankDay(val); err != nil {
						return RawBankStatement{}, err
					}
				case "column_1":
					d, err := decimal.NewFromString(val)
					if err != nil {
						return RawBankStatement{}, structuralErrorf("bad volume %q: %v", val, err)
					}
					tran.Volume = d
				case "column_8":
					tran.Type = val
				case "column_14":
					ccy := ParseCurrency(val)
					if ccy == "" {
						return RawBankStatement{}, structuralErrorf("unexpected currency %q", val)
					}
					tran.Currency = ccy
				default:
					for _, attr := range el.Attr {
						if attr.Name.Local == "name" {
							tran.Additionals[attr.Value] = val
							break
						}
					}
				}
			}
		case xml.EndElement:
			if el.Name.Local == "Transaction" {
				if tran == nil {
					return RawBankStatement{}, structuralErrorf("stray Transaction end element")
				}
				stmt.Transactions = append(stmt.Transactions, *tran)
				tran = nil
			}
		}
	}
	if stmt.AccountNumber == "" {
		return RawBankStatement{}, structuralErrorf("bank statement without accountId")
	}
	return stmt, nil
}
