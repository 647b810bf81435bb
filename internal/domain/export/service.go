package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/reports"
)

// ExpenseLister reads an owner's records.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, owner uuid.UUID, within *expense.DateRange) ([]expense.Expense, error)
}

// ReportSource computes the summaries shown in the workbook.
type ReportSource interface {
	MonthlySummary(ctx context.Context, owner uuid.UUID, year int, category *expense.Category, includeRecurring bool) (*reports.MonthlySummary, error)
	CategorySummary(ctx context.Context, owner uuid.UUID, year int, month time.Month, includeRecurring bool) (*reports.CategorySummary, error)
}

// Service produces export files for one owner.
type Service struct {
	expenses ExpenseLister
	reports  ReportSource
}

func NewService(expenses ExpenseLister, reports ReportSource) *Service {
	return &Service{expenses: expenses, reports: reports}
}

// ExpensesCSV writes owner's records dated in year, oldest first.
func (s *Service) ExpensesCSV(ctx context.Context, owner uuid.UUID, year int, w io.Writer) error {
	if year < 1 || year > 9999 {
		return reports.ErrInvalidPeriod
	}
	within := expense.YearRange(year)
	records, err := s.expenses.ListExpenses(ctx, owner, &within)
	if err != nil {
		return fmt.Errorf("failed to list expenses: %w", err)
	}
	oldestFirst := make([]expense.Expense, len(records))
	for i, e := range records {
		oldestFirst[len(records)-1-i] = e
	}
	return WriteExpensesCSV(w, oldestFirst)
}

// YearWorkbook writes the yearly report workbook.
func (s *Service) YearWorkbook(ctx context.Context, owner uuid.UUID, year int, category *expense.Category, includeRecurring bool, w io.Writer) error {
	monthly, err := s.reports.MonthlySummary(ctx, owner, year, category, includeRecurring)
	if err != nil {
		return err
	}
	data := YearData{Year: year, Category: category, Monthly: monthly}
	for m := time.January; m <= time.December; m++ {
		summary, err := s.reports.CategorySummary(ctx, owner, year, m, includeRecurring)
		if err != nil {
			return err
		}
		data.ByCategory[m-1] = summary
	}
	return WriteYearWorkbook(w, data)
}

// WorkbookFilename and CSVFilename name the downloads.
func WorkbookFilename(year int) string { return fmt.Sprintf("expense-report-%d.xlsx", year) }

func CSVFilename(year int) string { return fmt.Sprintf("expenses-%d.csv", year) }
