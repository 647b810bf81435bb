package reports

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/recurring"
)

type linkKey struct {
	recurringID uuid.UUID
	year        int
	month       time.Month
}

// prepared is a snapshot with malformed inputs removed.
type prepared struct {
	expenses  []expense.Expense
	templates []expense.RecurringExpense
	linked    map[linkKey]struct{}
	anomalies []Anomaly
}

func prepare(s Snapshot) *prepared {
	p := &prepared{linked: make(map[linkKey]struct{})}

	for _, exp := range s.Expenses {
		if reason := rejectExpense(s.OwnerID, exp); reason != "" {
			p.anomalies = append(p.anomalies, Anomaly{Kind: AnomalyExpense, ID: exp.ID, Reason: reason})
			continue
		}
		p.expenses = append(p.expenses, exp)
		if exp.RecurringID != nil {
			p.linked[linkKey{*exp.RecurringID, exp.Date.Year(), exp.Date.Month()}] = struct{}{}
		}
	}
	for _, t := range s.Recurring {
		if reason := rejectTemplate(s.OwnerID, t); reason != "" {
			p.anomalies = append(p.anomalies, Anomaly{Kind: AnomalyRecurring, ID: t.ID, Reason: reason})
			continue
		}
		p.templates = append(p.templates, t)
	}
	return p
}

func rejectExpense(owner uuid.UUID, e expense.Expense) string {
	if owner != uuid.Nil && e.OwnerID != owner {
		return "belongs to another owner"
	}
	if err := e.Validate(); err != nil {
		return err.Error()
	}
	return ""
}

func rejectTemplate(owner uuid.UUID, t expense.RecurringExpense) string {
	if owner != uuid.Nil && t.OwnerID != owner {
		return "belongs to another owner"
	}
	if err := t.Validate(); err != nil {
		return err.Error()
	}
	return ""
}

// projects returns the template's occurrence in year/month when it counts as
// a projected charge: inside the effective window and not already recorded.
func (p *prepared) projects(t expense.RecurringExpense, year int, month time.Month) (time.Time, bool) {
	occ, err := recurring.OccurrenceInMonth(t, year, month)
	if err != nil || !t.ActiveOn(occ) {
		return time.Time{}, false
	}
	if _, recorded := p.linked[linkKey{t.ID, year, month}]; recorded {
		return time.Time{}, false
	}
	return occ, true
}

// accumulator sums amounts per key and remembers first-seen order.
type accumulator[K comparable] struct {
	totals map[K]decimal.Decimal
	order  []K
}

func newAccumulator[K comparable]() *accumulator[K] {
	return &accumulator[K]{totals: make(map[K]decimal.Decimal)}
}

func (a *accumulator[K]) add(k K, amount decimal.Decimal) {
	cur, ok := a.totals[k]
	if !ok {
		a.order = append(a.order, k)
		cur = decimal.Zero
	}
	a.totals[k] = cur.Add(amount)
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
