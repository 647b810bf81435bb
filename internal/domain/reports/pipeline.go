package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
)

// YearReport is the result of the report pipeline: the filter choices, the
// years with spending under the chosen filter, the reconciled year and its
// month-by-month totals.
type YearReport struct {
	Categories []expense.Category `json:"categories"`
	Category   *expense.Category  `json:"category,omitempty"`
	Years      []int              `json:"years"`
	Year       int                `json:"year,omitempty"`
	Monthly    *MonthlySummary    `json:"monthly,omitempty"`
	Anomalies  []Anomaly          `json:"anomalies,omitempty"`
}

// YearReport runs filter, available years, year reconciliation and monthly
// summary in that order. A zero selected year means "no selection yet" and
// prefers the current year.
func (e *Engine) YearReport(s Snapshot, category *expense.Category, selected int, includeRecurring bool) (*YearReport, error) {
	years, err := e.AvailableYears(s, category, includeRecurring)
	if err != nil {
		return nil, err
	}
	out := &YearReport{
		Categories: e.AvailableCategories(s),
		Category:   category,
		Years:      years,
	}

	if selected == 0 {
		selected = e.clock.Now().Year()
	}
	year, ok := ReconcileYear(years, selected)
	if !ok {
		out.Anomalies = prepare(s).anomalies
		return out, nil
	}

	monthly, err := e.MonthlySummary(s, year, category, includeRecurring)
	if err != nil {
		return nil, err
	}
	out.Year = year
	out.Monthly = monthly
	out.Anomalies = monthly.Anomalies
	return out, nil
}

// Overview compares one month's spending, projections included, against a
// monthly income.
type Overview struct {
	Year         int              `json:"year"`
	Month        time.Month       `json:"month"`
	Spent        decimal.Decimal  `json:"spent"`
	Income       *decimal.Decimal `json:"income,omitempty"`
	Unspent      decimal.Decimal  `json:"unspent"`
	PercentSpent decimal.Decimal  `json:"percentSpent"`
	ByCategory   []CategoryTotal  `json:"byCategory"`
}

var hundred = decimal.NewFromInt(100)

// Overview builds the income overview for year/month. Without a positive
// income the unspent amount and the percentage are zero.
func (e *Engine) Overview(s Snapshot, income *decimal.Decimal, year int, month time.Month) (*Overview, error) {
	summary, err := e.CategorySummary(s, year, month, true)
	if err != nil {
		return nil, err
	}
	spent := summary.Sum()
	out := &Overview{
		Year:         year,
		Month:        month,
		Spent:        spent,
		Income:       income,
		Unspent:      decimal.Zero,
		PercentSpent: decimal.Zero,
		ByCategory:   summary.Totals,
	}
	if income == nil || !income.IsPositive() {
		return out, nil
	}
	out.Unspent = decimal.Max(decimal.Zero, income.Sub(spent))
	out.PercentSpent = spent.Mul(hundred).Div(*income).Round(2)
	return out, nil
}
