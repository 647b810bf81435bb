// Package expense defines the expense ledger domain types shared by the
// repository, service and reporting layers.
package expense

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is the closed set of spending categories.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryOther         Category = "Other"
)

// CategoryAll is the catalog sentinel meaning "no category filter".
// It is never stored on a record.
const CategoryAll Category = "All"

// Categories lists the real categories in canonical order.
var Categories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryOther,
}

var (
	ErrNotFound        = errors.New("expense not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidExpense  = errors.New("invalid expense")
	ErrInvalidTemplate = errors.New("invalid recurring expense template")
	ErrForbidden       = errors.New("expense belongs to another user")
)

// MaxDescriptionLength bounds expense and template descriptions.
const MaxDescriptionLength = 200

// Valid reports whether c is one of the real categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, known := range Categories {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", ErrInvalidCategory
}

// ParseFilter resolves an optional category filter. Empty input and the
// "All" sentinel both mean no filter and yield nil.
func ParseFilter(s string) (*Category, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(CategoryAll)) {
		return nil, nil
	}
	c, err := ParseCategory(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Expense is a single dated spending record.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"ownerId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    Category        `json:"category"`
	RecurringID *uuid.UUID      `json:"recurringId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate checks the record invariants.
func (e *Expense) Validate() error {
	desc := strings.TrimSpace(e.Description)
	switch {
	case desc == "":
		return errors.Join(ErrInvalidExpense, errors.New("description is required"))
	case len(desc) > MaxDescriptionLength:
		return errors.Join(ErrInvalidExpense, errors.New("description is too long"))
	case e.Amount.IsNegative():
		return errors.Join(ErrInvalidExpense, errors.New("amount must not be negative"))
	case e.Date.IsZero():
		return errors.Join(ErrInvalidExpense, errors.New("date is required"))
	case !e.Category.Valid():
		return ErrInvalidCategory
	}
	return nil
}

// RecurringExpense is a template for a charge repeating on the same day of
// every month. Occurrences are derived, never stored.
type RecurringExpense struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"ownerId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    Category        `json:"category"`
	DayOfMonth  int             `json:"dayOfMonth"`
	StartsOn    time.Time       `json:"startsOn"`
	EndsOn      *time.Time      `json:"endsOn,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Validate checks the template invariants.
func (r *RecurringExpense) Validate() error {
	desc := strings.TrimSpace(r.Description)
	switch {
	case desc == "" || len(desc) > MaxDescriptionLength:
		return errors.Join(ErrInvalidTemplate, errors.New("description must be 1-200 characters"))
	case r.Amount.IsNegative():
		return errors.Join(ErrInvalidTemplate, errors.New("amount must not be negative"))
	case r.DayOfMonth < 1 || r.DayOfMonth > 31:
		return errors.Join(ErrInvalidTemplate, errors.New("day of month must be between 1 and 31"))
	case !r.Category.Valid():
		return ErrInvalidCategory
	case r.EndsOn != nil && !r.StartsOn.IsZero() && r.EndsOn.Before(r.StartsOn):
		return errors.Join(ErrInvalidTemplate, errors.New("end date precedes start date"))
	}
	return nil
}

// ActiveOn reports whether the template is in effect on the given date.
// A zero StartsOn means the template has always been active.
func (r *RecurringExpense) ActiveOn(date time.Time) bool {
	d := DateOf(date)
	if !r.StartsOn.IsZero() && d.Before(DateOf(r.StartsOn)) {
		return false
	}
	if r.EndsOn != nil && d.After(DateOf(*r.EndsOn)) {
		return false
	}
	return true
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = DateOf(d)
	return !d.Before(DateOf(r.From)) && !d.After(DateOf(r.To))
}

// MonthRange returns the inclusive range covering year/month.
func MonthRange(year int, month time.Month) DateRange {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{From: from, To: from.AddDate(0, 1, -1)}
}

// YearRange returns the inclusive range covering a calendar year.
func YearRange(year int) DateRange {
	return DateRange{
		From: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}
