package fiobank

import (
	"regexp"
	"strings"
	"time"

	"github.com/brinvex/fiobank/date"
	"github.com/shopspring/decimal"
)

// The broker transaction export is a ';' delimited text file with a short
// free-form preamble: a title line carrying the account number (which also
// betrays the language), a "Created" line, a period line, then the header row
// and data rows. A trailing "Total" row has a blank first cell.

var (
	accountNumberPattern = regexp.MustCompile(`.*:\s+(\d+)"`)
	periodPattern        = regexp.MustCompile(`.*:\s+(\d{1,2}\.\d{1,2}\.\d{4})\s+-\s+(\d{1,2}\.\d{1,2}\.\d{4})`)
)

const (
	periodDateLayout = "2.1.2006"
	tradeDateLayout  = "02.01.2006 15:04"
)

// toDecimal parses a statement numeric cell: decimal comma, space as the
// thousands separator. Blank cells are absent values.
func toDecimal(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return absent, nil
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return absent, structuralErrorf("bad decimal %q: %v", s, err)
	}
	return null(d), nil
}

func toDirection(lang Lang, s string) (Direction, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DirectionNone, nil
	}
	if d, ok := directionWords[lang][strings.ToLower(s)]; ok {
		return d, nil
	}
	return DirectionNone, structuralErrorf("unexpected %s direction %q", lang, s)
}

// columnDef binds one statement column, under its three per-language titles,
// to the raw record field it fills.
type columnDef struct {
	titleSK, titleCZ, titleEN string
	fill                      func(*RawTransaction, Lang, string) error
}

func (c *columnDef) title(lang Lang) string {
	switch lang {
	case LangSK:
		return c.titleSK
	case LangEN:
		return c.titleEN
	}
	return c.titleCZ
}

func decimalColumn(sk, cz, en string, set func(*RawTransaction, decimal.NullDecimal)) columnDef {
	return columnDef{sk, cz, en, func(r *RawTransaction, _ Lang, cell string) error {
		d, err := toDecimal(cell)
		if err != nil {
			return err
		}
		set(r, d)
		return nil
	}}
}

func textColumn(sk, cz, en string, set func(*RawTransaction, string)) columnDef {
	return columnDef{sk, cz, en, func(r *RawTransaction, _ Lang, cell string) error {
		set(r, strings.TrimSpace(cell))
		return nil
	}}
}

// statementColumns lists every known column of the transaction export.
// The first thirteen are mandatory; the rest may be missing from older
// exports.
var statementColumns = []columnDef{
	{"Dátum obchodu", "Datum obchodu", "Trade Date", nil}, // fill set in init, needs the location
	{"Smer", "Směr", "Direction", func(r *RawTransaction, lang Lang, cell string) error {
		d, err := toDirection(lang, cell)
		if err != nil {
			return err
		}
		r.Direction = d
		return nil
	}},
	{"Symbol", "Symbol", "Symbol", func(r *RawTransaction, _ Lang, cell string) error {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return nil
		}
		r.RawSymbol = cell
		// A trailing star marks the pre-reorganization listing.
		r.Symbol = strings.TrimSuffix(cell, "*")
		return nil
	}},
	decimalColumn("Cena", "Cena", "Price", func(r *RawTransaction, d decimal.NullDecimal) { r.Price = d }),
	decimalColumn("Počet", "Počet", "Shares", func(r *RawTransaction, d decimal.NullDecimal) { r.Shares = orZero(d) }),
	{"Mena", "Měna", "Currency", func(r *RawTransaction, _ Lang, cell string) error {
		cell = strings.TrimSpace(cell)
		r.RawCurrency = cell
		r.Currency = ParseCurrency(cell)
		return nil
	}},
	decimalColumn("Objem v CZK", "Objem v CZK", "Volume (CZK)", func(r *RawTransaction, d decimal.NullDecimal) { r.VolumeCZK = d }),
	decimalColumn("Poplatky v CZK", "Poplatky v CZK", "Fees", func(r *RawTransaction, d decimal.NullDecimal) { r.FeesCZK = d }),
	decimalColumn("Objem v USD", "Objem v USD", "Volume in USD", func(r *RawTransaction, d decimal.NullDecimal) { r.VolumeUSD = d }),
	decimalColumn("Poplatky v USD", "Poplatky v USD", "Fees (USD)", func(r *RawTransaction, d decimal.NullDecimal) { r.FeesUSD = d }),
	decimalColumn("Objem v EUR", "Objem v EUR", "Volume (EUR)", func(r *RawTransaction, d decimal.NullDecimal) { r.VolumeEUR = d }),
	decimalColumn("Poplatky v EUR", "Poplatky v EUR", "Fees (EUR)", func(r *RawTransaction, d decimal.NullDecimal) { r.FeesEUR = d }),
	textColumn("Text FIO", "Text FIO", "Text FIO", func(r *RawTransaction, s string) { r.Text = s }),
	textColumn("Trh", "Trh", "Market", func(r *RawTransaction, s string) { r.Market = s }),
	textColumn("Názov FN", "Název CP", "Title", func(r *RawTransaction, s string) { r.InstrumentName = s }),
	{"Dátum vysporiadania", "Datum vypořádání", "Settlement Date", func(r *RawTransaction, _ Lang, cell string) error {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return nil
		}
		d, err := date.ParseLayout(periodDateLayout, cell)
		if err != nil {
			return structuralErrorf("bad settlement date %q: %v", cell, err)
		}
		r.SettlementDate = d
		return nil
	}},
	textColumn("Stav", "Stav", "Status", func(r *RawTransaction, s string) { r.Status = s }),
	textColumn("Pokyn ID", "Pokyn ID", "Order ID", func(r *RawTransaction, s string) { r.OrderID = s }),
	textColumn("Užívateľská identifikácia", "Uživatelská identifikace", "User Comments", func(r *RawTransaction, s string) { r.UserComments = s }),
}

// mandatoryColumns must all appear in the header row.
const mandatoryColumns = 13

// parseBrokerStatement parses one broker transaction statement. Trade
// timestamps, exported without a zone, are interpreted in loc.
func parseBrokerStatement(content string, loc *time.Location) (RawStatement, error) {
	tradeDateCol := statementColumns[0]
	tradeDateCol.fill = func(r *RawTransaction, _ Lang, cell string) error {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return structuralErrorf("record without trade date")
		}
		ts, err := time.ParseInLocation(tradeDateLayout, cell, loc)
		if err != nil {
			return structuralErrorf("bad trade date %q: %v", cell, err)
		}
		r.TradeDate = ts
		return nil
	}
	columns := append([]columnDef{tradeDateCol}, statementColumns[1:]...)

	var stmt RawStatement
	var lang Lang
	// column index in the header row, by position in columns
	var header map[int]int

	lines := strings.Split(content, "\n")
	skipNext := false
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if skipNext { // the "Created" line after the title
			skipNext = false
			continue
		}

		if stmt.AccountNumber == "" {
			m := accountNumberPattern.FindStringSubmatch(line)
			if m == nil {
				return RawStatement{}, structuralErrorf("%d - could not parse account number: %q", i+1, line)
			}
			stmt.AccountNumber = m[1]
			switch {
			case strings.HasPrefix(line, "Overview"):
				lang = LangEN
			case strings.HasPrefix(line, "Přehled"):
				lang = LangCZ
			case strings.HasPrefix(line, "Prehľad"):
				lang = LangSK
			default:
				return RawStatement{}, structuralErrorf("%d - could not detect language: %q", i+1, line)
			}
			skipNext = true
			continue
		}
		if stmt.PeriodFrom.IsZero() || stmt.PeriodTo.IsZero() {
			m := periodPattern.FindStringSubmatch(line)
			if m == nil {
				return RawStatement{}, structuralErrorf("%d - could not parse period: %q", i+1, line)
			}
			from, err := date.ParseLayout(periodDateLayout, m[1])
			if err != nil {
				return RawStatement{}, structuralErrorf("%d - bad period start %q: %v", i+1, m[1], err)
			}
			to, err := date.ParseLayout(periodDateLayout, m[2])
			if err != nil {
				return RawStatement{}, structuralErrorf("%d - bad period end %q: %v", i+1, m[2], err)
			}
			stmt.PeriodFrom, stmt.PeriodTo = from, to
			continue
		}

		if header == nil {
			header = make(map[int]int)
			titles := strings.Split(line, ";")
			for j, title := range titles {
				for k := range columns {
					if columns[k].title(lang) == title {
						header[k] = j
						break
					}
				}
			}
			var missing []string
			for k := 0; k < mandatoryColumns; k++ {
				if _, ok := header[k]; !ok {
					missing = append(missing, columns[k].title(lang))
				}
			}
			if len(missing) > 0 {
				return RawStatement{}, structuralErrorf("%d - missing mandatory headers %v in %q", i+1, missing, line)
			}
			continue
		}

		cells := strings.Split(line, ";")
		if strings.TrimSpace(cells[0]) == "" {
			// "Total" row without a date
			continue
		}
		r := RawTransaction{Lang: lang}
		for k, j := range header {
			if j >= len(cells) {
				return RawStatement{}, structuralErrorf("%d - row has %d cells, header expects %d: %q", i+1, len(cells), j+1, line)
			}
			if err := columns[k].fill(&r, lang, cells[j]); err != nil {
				return RawStatement{}, structuralErrorf("%d - %q: %v", i+1, line, err)
			}
		}
		stmt.Transactions = append(stmt.Transactions, r)
	}

	if stmt.AccountNumber == "" || stmt.PeriodFrom.IsZero() || stmt.PeriodTo.IsZero() {
		return RawStatement{}, structuralErrorf("incomplete statement preamble")
	}
	return stmt, nil
}

// parsePortfolioValueStatement extracts the end-of-period total account value
// from a broker portfolio statement: the day from the period line, the
// currency and total from the statement's closing summary row.
func parsePortfolioValueStatement(content string) (PortfolioValue, error) {
	lines := strings.Split(content, "\n")
	if len(lines) < 3 {
		return PortfolioValue{}, structuralErrorf("portfolio statement too short")
	}
	m := periodPattern.FindStringSubmatch(lines[2])
	if m == nil {
		return PortfolioValue{}, structuralErrorf("could not parse period: %q", lines[2])
	}
	day, err := date.ParseLayout(periodDateLayout, m[2])
	if err != nil {
		return PortfolioValue{}, structuralErrorf("bad period end %q: %v", m[2], err)
	}

	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			last = strings.TrimSpace(lines[i])
			break
		}
	}
	parts := strings.Split(last, ";")
	if len(parts) < 11 || len(parts[0]) < 4 {
		return PortfolioValue{}, structuralErrorf("unexpected summary row: %q", last)
	}
	label := parts[0]
	ccy := ParseCurrency(label[len(label)-4 : len(label)-1])
	if ccy == "" {
		return PortfolioValue{}, structuralErrorf("unexpected summary currency in %q", label)
	}
	total, err := toDecimal(parts[10])
	if err != nil {
		return PortfolioValue{}, err
	}
	if !total.Valid {
		return PortfolioValue{}, structuralErrorf("blank total value in %q", last)
	}
	return PortfolioValue{Day: day, TotalValue: total.Decimal, Currency: ccy}, nil
}
