// Package export renders an owner's ledger as downloadable files: a CSV of
// recorded expenses and an XLSX workbook of the yearly report.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/reports"
)

const (
	SheetMonthly    = "Monthly"
	SheetCategories = "By category"
)

// amountFormat is the built-in "#,##0.00" number format.
const amountFormat = 4

// ExpenseRow is one line of the CSV export.
type ExpenseRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Category    string `csv:"category"`
	Amount      string `csv:"amount"`
	Recurring   bool   `csv:"recurring"`
}

// WriteExpensesCSV writes records in the order given, amounts with two
// decimals and dates as YYYY-MM-DD.
func WriteExpensesCSV(w io.Writer, expenses []expense.Expense) error {
	rows := make([]ExpenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, ExpenseRow{
			Date:        e.Date.Format(time.DateOnly),
			Description: e.Description,
			Category:    string(e.Category),
			Amount:      e.Amount.StringFixed(2),
			Recurring:   e.RecurringID != nil,
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// YearData is everything the workbook shows for one year.
type YearData struct {
	Year       int
	Category   *expense.Category
	Monthly    *reports.MonthlySummary
	ByCategory [12]*reports.CategorySummary
}

// WriteYearWorkbook writes a workbook with a month-by-month sheet and a
// category by month sheet. Totals are spreadsheet formulas so edits to the
// cells recompute.
func WriteYearWorkbook(w io.Writer, data YearData) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: amountFormat})
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", SheetMonthly); err != nil {
		return err
	}
	if err := writeMonthlySheet(f, data, header, amount); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetCategories); err != nil {
		return err
	}
	if err := writeCategorySheet(f, data, header, amount); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeMonthlySheet(f *excelize.File, data YearData, header, amount int) error {
	title := fmt.Sprintf("Spending %d", data.Year)
	if data.Category != nil {
		title += " - " + string(*data.Category)
	}
	if err := f.SetCellStr(SheetMonthly, "A1", title); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetMonthly, "A3", &[]any{"Month", "Total"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetMonthly, "A3", "B3", header); err != nil {
		return err
	}

	row := 4
	if data.Monthly != nil {
		for _, m := range data.Monthly.Months {
			if err := f.SetSheetRow(SheetMonthly, cell(1, row), &[]any{m.Month.String(), toFloat(m.Total)}); err != nil {
				return err
			}
			row++
		}
	}
	if err := f.SetCellStr(SheetMonthly, cell(1, row), "Total"); err != nil {
		return err
	}
	if err := f.SetCellFormula(SheetMonthly, cell(2, row), fmt.Sprintf("SUM(B4:B%d)", max(row-1, 4))); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetMonthly, cell(1, row), cell(1, row), header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetMonthly, "B4", cell(2, row), amount); err != nil {
		return err
	}
	return f.SetColWidth(SheetMonthly, "A", "B", 16)
}

func writeCategorySheet(f *excelize.File, data YearData, header, amount int) error {
	head := []any{"Category"}
	for m := time.January; m <= time.December; m++ {
		head = append(head, m.String()[:3])
	}
	head = append(head, "Total")
	if err := f.SetSheetRow(SheetCategories, "A1", &head); err != nil {
		return err
	}
	lastCol := len(head)
	if err := f.SetCellStyle(SheetCategories, "A1", cell(lastCol, 1), header); err != nil {
		return err
	}

	row := 2
	for _, c := range expense.Categories {
		line := []any{string(c)}
		for _, summary := range data.ByCategory {
			total := decimal.Zero
			if summary != nil {
				total = summary.Get(c)
			}
			line = append(line, toFloat(total))
		}
		if err := f.SetSheetRow(SheetCategories, cell(1, row), &line); err != nil {
			return err
		}
		sum := fmt.Sprintf("SUM(%s:%s)", cell(2, row), cell(13, row))
		if err := f.SetCellFormula(SheetCategories, cell(lastCol, row), sum); err != nil {
			return err
		}
		row++
	}
	if err := f.SetCellStyle(SheetCategories, "B2", cell(lastCol, row-1), amount); err != nil {
		return err
	}
	return f.SetPanes(SheetCategories, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
