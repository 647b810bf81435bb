package reports

import (
	"slices"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
)

// AvailableCategories lists the filter choices for a snapshot: the All
// sentinel first, then every category used by a well-formed record or
// template, in canonical order.
func (e *Engine) AvailableCategories(s Snapshot) []expense.Category {
	p := prepare(s)
	used := make(map[expense.Category]bool)
	for _, exp := range p.expenses {
		used[exp.Category] = true
	}
	for _, t := range p.templates {
		used[t.Category] = true
	}

	out := []expense.Category{expense.CategoryAll}
	for _, c := range expense.Categories {
		if used[c] {
			out = append(out, c)
		}
	}
	return out
}

// AvailableYears lists the years YearlySummary reports as nonzero, newest
// first.
func (e *Engine) AvailableYears(s Snapshot, category *expense.Category, includeRecurring bool) ([]int, error) {
	summary, err := e.YearlySummary(s, category, includeRecurring)
	if err != nil {
		return nil, err
	}
	years := make([]int, 0, len(summary.Years))
	for _, y := range summary.Years {
		years = append(years, y.Year)
	}
	slices.Reverse(years)
	return years, nil
}
