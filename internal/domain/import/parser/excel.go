package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// preferredSheets are tried, case-insensitively, before the first sheet.
var preferredSheets = []string{"expenses", "transactions", "movimentos", "extrato", "statement"}

// rowsReader replays spreadsheet rows as CSV records.
type rowsReader struct {
	rows [][]string
	next int
}

func (r *rowsReader) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	rec := r.rows[r.next]
	if r.next == 0 {
		rec = foldHeader(rec)
	}
	r.next++
	return rec, nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		out = append(out, rec)
	}
}

// ParseExcel reads the expense sheet of an XLSX workbook. Rows above the
// first non-empty row are ignored.
func (p *Parser) ParseExcel(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable XLSX workbook: %w", ErrMalformed, err)
	}
	defer f.Close()

	sheet := findExpenseSheet(f.GetSheetList())
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformed)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %s: %w", ErrMalformed, sheet, err)
	}

	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, ErrNoHeader
	}
	return p.parseRecords(&rowsReader{rows: rows[start:]}, start+1)
}

func findExpenseSheet(sheets []string) string {
	for _, preferred := range preferredSheets {
		for _, s := range sheets {
			if strings.EqualFold(s, preferred) {
				return s
			}
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
