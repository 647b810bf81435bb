// Package parser reads expense rows from bank or spreadsheet exports. It
// uses gocsv for header-driven unmarshaling and accepts the common column
// names of English, Portuguese, Spanish and German exports.
package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/pkg/money"
)

// MaxRows bounds a single import.
const MaxRows = 5000

var (
	ErrTooManyRows = fmt.Errorf("import exceeds %d rows", MaxRows)
	ErrNoHeader    = errors.New("file has no header row")
	ErrMalformed   = errors.New("malformed file")
)

// ExpenseRow is one raw CSV row. Headers are matched case-insensitively.
type ExpenseRow struct {
	Date    string `csv:"date"`
	Data    string `csv:"data"`
	DataMov string `csv:"data mov."`
	Fecha   string `csv:"fecha"`
	Datum   string `csv:"datum"`
	SpentOn string `csv:"spent on"`

	Description string `csv:"description"`
	Descricao   string `csv:"descrição"`
	Descricao2  string `csv:"descricao"`
	Descripcion string `csv:"descripción"`
	Merchant    string `csv:"merchant"`
	Payee       string `csv:"payee"`
	Memo        string `csv:"memo"`

	Amount  string `csv:"amount"`
	Valor   string `csv:"valor"`
	Importe string `csv:"importe"`
	Betrag  string `csv:"betrag"`
	Debit   string `csv:"debit"`
	Debito  string `csv:"débito"`
	Cargo   string `csv:"cargo"`

	Category  string `csv:"category"`
	Categoria string `csv:"categoria"`
	Kategorie string `csv:"kategorie"`
}

// ParsedExpense is a normalized row ready to be stored. Amount is never
// negative: exports that sign spending as negative are read by magnitude.
type ParsedExpense struct {
	Row         int
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
}

// ParseError reports a rejected row.
type ParseError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	RawData string `json:"rawData,omitempty"`
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// ParseResult contains the accepted rows and per-row errors.
type ParseResult struct {
	Expenses    []ParsedExpense
	Errors      []ParseError
	TotalRows   int
	SkippedRows int
}

// Config tunes parsing. A zero Delimiter is sniffed from the header line.
type Config struct {
	Delimiter  rune
	DateFormat string
}

func DefaultConfig() Config { return Config{} }

// Parser reads CSV exports.
type Parser struct {
	config Config
}

func NewParser(config Config) *Parser {
	return &Parser{config: config}
}

// headerFolding lower-cases and trims the header row so that gocsv tags
// match regardless of how the export capitalizes its columns.
type headerFolding struct {
	*csv.Reader
	seen bool
}

func foldHeader(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(f, "\uFEFF")))
	}
	return out
}

func (h *headerFolding) Read() ([]string, error) {
	rec, err := h.Reader.Read()
	if err != nil || h.seen {
		return rec, err
	}
	h.seen = true
	return foldHeader(rec), nil
}

func (h *headerFolding) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := h.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// sniffDelimiter picks the most frequent of ';', '\t' and ',' in the first
// line.
func sniffDelimiter(line string) rune {
	best, bestCount := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Parse reads every row of r.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	br := bufio.NewReader(r)
	delimiter := p.config.Delimiter
	if delimiter == 0 {
		first, err := br.Peek(4096)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		line, _, _ := strings.Cut(string(first), "\n")
		if strings.TrimSpace(line) == "" {
			return nil, ErrNoHeader
		}
		delimiter = sniffDelimiter(line)
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	return p.parseRecords(&headerFolding{Reader: cr}, 1)
}

// parseRecords unmarshals rows from any record source whose first record is
// the header. headerLine is the 1-based line of that header in the source
// file and is used to number rows in errors.
func (p *Parser) parseRecords(records gocsv.CSVReader, headerLine int) (*ParseResult, error) {
	var rows []ExpenseRow
	if err := gocsv.UnmarshalCSV(records, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(rows) > MaxRows {
		return nil, ErrTooManyRows
	}

	result := &ParseResult{TotalRows: len(rows)}
	for i, row := range rows {
		fields := rowFields{
			date:        coalesce(row.Date, row.Data, row.DataMov, row.Fecha, row.Datum, row.SpentOn),
			description: coalesce(row.Description, row.Descricao, row.Descricao2, row.Descripcion, row.Merchant, row.Payee, row.Memo),
			amount:      coalesce(row.Amount, row.Valor, row.Importe, row.Betrag, row.Debit, row.Debito, row.Cargo),
			category:    coalesce(row.Category, row.Categoria, row.Kategorie),
		}
		p.collect(result, fields, headerLine+1+i)
	}
	return result, nil
}

type rowFields struct {
	date, description, amount, category string
}

func (p *Parser) collect(result *ParseResult, f rowFields, rowNum int) {
	parsed, perr := p.processRow(f, rowNum)
	switch {
	case perr != nil:
		result.Errors = append(result.Errors, *perr)
	case parsed == nil:
		result.SkippedRows++
	default:
		result.Expenses = append(result.Expenses, *parsed)
	}
}

// processRow validates one row. Blank rows are skipped.
func (p *Parser) processRow(f rowFields, rowNum int) (*ParsedExpense, *ParseError) {
	if f.date == "" && f.description == "" && f.amount == "" {
		return nil, nil
	}

	date, err := p.parseDate(f.date)
	if err != nil {
		return nil, &ParseError{Row: rowNum, Column: "date", Message: err.Error(), RawData: f.date}
	}

	desc := cleanDescription(f.description)
	if desc == "" {
		return nil, &ParseError{Row: rowNum, Column: "description", Message: "missing description"}
	}

	if f.amount == "" {
		return nil, &ParseError{Row: rowNum, Column: "amount", Message: "missing amount"}
	}
	amount, err := parseAmount(f.amount)
	if err != nil {
		return nil, &ParseError{Row: rowNum, Column: "amount", Message: err.Error(), RawData: f.amount}
	}

	return &ParsedExpense{
		Row:         rowNum,
		Date:        date,
		Description: desc,
		Amount:      amount,
		Category:    f.category,
	}, nil
}

var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// parseDate tries the configured layout, then day-first and ISO layouts.
// Ambiguous dates such as 03/04/2024 read as day-first.
func (p *Parser) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing date")
	}
	if p.config.DateFormat != "" {
		if t, err := time.Parse(p.config.DateFormat, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseAmount reads an amount with either decimal separator. A leading
// minus sign or accounting parentheses are dropped.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimSpace(strings.Trim(s, "()"))
	s = strings.TrimPrefix(s, "-")
	d, err := money.Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Abs(), nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
