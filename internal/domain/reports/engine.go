// Package reports merges recorded expenses with projected recurring charges
// into category, monthly and yearly summaries. Everything in this package is
// pure: callers hand in a Snapshot and a Clock, nothing is read from storage.
package reports

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
)

// ErrInvalidPeriod is returned for a month outside 1..12 or a year outside 1..9999.
var ErrInvalidPeriod = errors.New("invalid period")

// legacyProjectionYears bounds yearly projection for templates without an
// effective date.
const legacyProjectionYears = 5

// Snapshot is one owner's records and templates, read consistently.
type Snapshot struct {
	OwnerID   uuid.UUID
	Expenses  []expense.Expense
	Recurring []expense.RecurringExpense
}

// Anomaly describes an input that was skipped during aggregation.
type Anomaly struct {
	Kind   string    `json:"kind"`
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

const (
	AnomalyExpense   = "expense"
	AnomalyRecurring = "recurring"
)

// CategoryTotal is one entry of a CategorySummary.
type CategoryTotal struct {
	Category expense.Category `json:"category"`
	Total    decimal.Decimal  `json:"total"`
}

// CategorySummary holds per-category totals for one month, in order of first
// contribution. Categories with a zero total are omitted.
type CategorySummary struct {
	Year      int             `json:"year"`
	Month     time.Month      `json:"month"`
	Totals    []CategoryTotal `json:"totals"`
	Anomalies []Anomaly       `json:"anomalies,omitempty"`
}

// Get returns the total for c, zero when absent.
func (s *CategorySummary) Get(c expense.Category) decimal.Decimal {
	for _, t := range s.Totals {
		if t.Category == c {
			return t.Total
		}
	}
	return decimal.Zero
}

// Sum returns the total across all categories.
func (s *CategorySummary) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range s.Totals {
		sum = sum.Add(t.Total)
	}
	return sum
}

// MonthTotal is one entry of a MonthlySummary.
type MonthTotal struct {
	Month time.Month      `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// MonthlySummary always carries twelve entries, January first.
type MonthlySummary struct {
	Year      int               `json:"year"`
	Category  *expense.Category `json:"category,omitempty"`
	Months    []MonthTotal      `json:"months"`
	Anomalies []Anomaly         `json:"anomalies,omitempty"`
}

// Sum returns the year total.
func (s *MonthlySummary) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range s.Months {
		sum = sum.Add(m.Total)
	}
	return sum
}

// YearTotal is one entry of a YearlySummary.
type YearTotal struct {
	Year  int             `json:"year"`
	Total decimal.Decimal `json:"total"`
}

// YearlySummary lists nonzero yearly totals in ascending year order.
type YearlySummary struct {
	Category  *expense.Category `json:"category,omitempty"`
	Years     []YearTotal       `json:"years"`
	Anomalies []Anomaly         `json:"anomalies,omitempty"`
}

// Get returns the total for year, zero when absent.
func (s *YearlySummary) Get(year int) decimal.Decimal {
	for _, y := range s.Years {
		if y.Year == year {
			return y.Total
		}
	}
	return decimal.Zero
}

// Engine aggregates snapshots. The clock only bounds yearly projection.
type Engine struct {
	clock clock.Clock
}

// NewEngine creates an engine reading the current date from c.
func NewEngine(c clock.Clock) *Engine {
	if c == nil {
		c = clock.System{}
	}
	return &Engine{clock: c}
}

// CategorySummary totals the month by category. When includeRecurring is set
// each active template contributes its amount once, unless a record linked to
// it already exists in that month.
func (e *Engine) CategorySummary(s Snapshot, year int, month time.Month, includeRecurring bool) (*CategorySummary, error) {
	if err := checkPeriod(year, month); err != nil {
		return nil, err
	}
	p := prepare(s)
	acc := newAccumulator[expense.Category]()

	for _, exp := range p.expenses {
		if exp.Date.Year() == year && exp.Date.Month() == month {
			acc.add(exp.Category, exp.Amount)
		}
	}
	if includeRecurring {
		for _, t := range p.templates {
			if _, ok := p.projects(t, year, month); ok {
				acc.add(t.Category, t.Amount)
			}
		}
	}

	out := &CategorySummary{Year: year, Month: month, Anomalies: p.anomalies}
	for _, c := range acc.order {
		total := acc.totals[c]
		if total.IsZero() {
			continue
		}
		out.Totals = append(out.Totals, CategoryTotal{Category: c, Total: total})
	}
	return out, nil
}

// MonthlySummary totals each month of year, optionally restricted to one
// category. All twelve months are present.
func (e *Engine) MonthlySummary(s Snapshot, year int, category *expense.Category, includeRecurring bool) (*MonthlySummary, error) {
	if err := checkPeriod(year, time.January); err != nil {
		return nil, err
	}
	if err := checkFilter(category); err != nil {
		return nil, err
	}
	p := prepare(s)

	months := make([]MonthTotal, 12)
	for i := range months {
		months[i] = MonthTotal{Month: time.Month(i + 1), Total: decimal.Zero}
	}
	for _, exp := range p.expenses {
		if exp.Date.Year() == year && matches(exp.Category, category) {
			i := exp.Date.Month() - 1
			months[i].Total = months[i].Total.Add(exp.Amount)
		}
	}
	if includeRecurring {
		for _, t := range p.templates {
			if !matches(t.Category, category) {
				continue
			}
			for m := time.January; m <= time.December; m++ {
				if _, ok := p.projects(t, year, m); ok {
					months[m-1].Total = months[m-1].Total.Add(t.Amount)
				}
			}
		}
	}

	return &MonthlySummary{Year: year, Category: category, Months: months, Anomalies: p.anomalies}, nil
}

// YearlySummary totals spending per calendar year. Templates are projected
// for every year from their first active year through the current year.
func (e *Engine) YearlySummary(s Snapshot, category *expense.Category, includeRecurring bool) (*YearlySummary, error) {
	if err := checkFilter(category); err != nil {
		return nil, err
	}
	p := prepare(s)
	acc := newAccumulator[int]()

	for _, exp := range p.expenses {
		if matches(exp.Category, category) {
			acc.add(exp.Date.Year(), exp.Amount)
		}
	}
	if includeRecurring {
		current := e.clock.Now().Year()
		for _, t := range p.templates {
			if !matches(t.Category, category) {
				continue
			}
			first := current - legacyProjectionYears
			if !t.StartsOn.IsZero() {
				first = t.StartsOn.Year()
			}
			last := current
			if t.EndsOn != nil && t.EndsOn.Year() < last {
				last = t.EndsOn.Year()
			}
			for y := first; y <= last; y++ {
				for m := time.January; m <= time.December; m++ {
					if _, ok := p.projects(t, y, m); ok {
						acc.add(y, t.Amount)
					}
				}
			}
		}
	}

	out := &YearlySummary{Category: category, Anomalies: p.anomalies}
	for _, y := range sortedKeys(acc.totals) {
		if total := acc.totals[y]; !total.IsZero() {
			out.Years = append(out.Years, YearTotal{Year: y, Total: total})
		}
	}
	return out, nil
}

func checkPeriod(year int, month time.Month) error {
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	if month < time.January || month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	return nil
}

func checkFilter(category *expense.Category) error {
	if category != nil && !category.Valid() {
		return fmt.Errorf("%w: %q", expense.ErrInvalidCategory, *category)
	}
	return nil
}

func matches(c expense.Category, filter *expense.Category) bool {
	return filter == nil || *filter == c
}
