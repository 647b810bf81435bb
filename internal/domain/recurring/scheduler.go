// Package recurring computes occurrence dates for monthly recurring expense
// templates. Every template occurs exactly once per calendar month, on its
// anchor day clamped to the length of that month.
package recurring

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
)

// ErrInvalidMonth is returned for a month outside 1..12.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func checkDay(day int) error {
	if day < 1 || day > 31 {
		return fmt.Errorf("%w: day of month %d", expense.ErrInvalidTemplate, day)
	}
	return nil
}

// clamp places the anchor day inside the month.
func clamp(day, year int, month time.Month) time.Time {
	return time.Date(year, month, min(day, DaysIn(year, month)), 0, 0, 0, 0, time.UTC)
}

// OccurrenceInMonth returns the single date the template falls on in the
// given month.
func OccurrenceInMonth(t expense.RecurringExpense, year int, month time.Month) (time.Time, error) {
	if err := checkDay(t.DayOfMonth); err != nil {
		return time.Time{}, err
	}
	if month < time.January || month > time.December {
		return time.Time{}, ErrInvalidMonth
	}
	return clamp(t.DayOfMonth, year, month), nil
}

// NextOccurrence returns the first occurrence strictly after asOf. The clamp
// is recomputed for the following month, so a day-31 template due on Feb 29
// next lands on Mar 31.
func NextOccurrence(t expense.RecurringExpense, asOf time.Time) (time.Time, error) {
	if err := checkDay(t.DayOfMonth); err != nil {
		return time.Time{}, err
	}
	asOf = expense.DateOf(asOf)
	next := clamp(t.DayOfMonth, asOf.Year(), asOf.Month())
	if !next.After(asOf) {
		first := time.Date(asOf.Year(), asOf.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		next = clamp(t.DayOfMonth, first.Year(), first.Month())
	}
	return next, nil
}

// OccurrencesInRange lists the occurrences falling inside [start, end],
// one per overlapped month, in ascending order.
func OccurrencesInRange(t expense.RecurringExpense, start, end time.Time) ([]time.Time, error) {
	if err := checkDay(t.DayOfMonth); err != nil {
		return nil, err
	}
	var dates []time.Time
	for d := range Occurrences(t, start, end) {
		dates = append(dates, d)
	}
	return dates, nil
}

// Occurrences is the iterator form of OccurrencesInRange. It yields nothing
// for an invalid template or an empty range.
func Occurrences(t expense.RecurringExpense, start, end time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if checkDay(t.DayOfMonth) != nil {
			return
		}
		start, end = expense.DateOf(start), expense.DateOf(end)
		if end.Before(start) {
			return
		}
		cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !cursor.After(end) {
			d := clamp(t.DayOfMonth, cursor.Year(), cursor.Month())
			if !d.Before(start) && !d.After(end) {
				if !yield(d) {
					return
				}
			}
			cursor = cursor.AddDate(0, 1, 0)
		}
	}
}

// ActiveOccurrences yields the occurrences in [start, end] that fall inside
// the template's effective window.
func ActiveOccurrences(t expense.RecurringExpense, start, end time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := range Occurrences(t, start, end) {
			if !t.ActiveOn(d) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}
