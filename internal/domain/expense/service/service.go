// Package service implements expense and recurring template management for
// a single authenticated owner.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/expense/repository"
	"github.com/FACorreiaa/expense-tracker/internal/domain/expense/search"
	"github.com/FACorreiaa/expense-tracker/internal/domain/recurring"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
)

// Categorizer suggests a category from a free-text description.
type Categorizer interface {
	Suggest(description string) expense.Category
}

// ExpenseInput carries the client-supplied fields of a record. An empty
// Category asks for a suggestion.
type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	RecurringID *uuid.UUID
}

// RecurringInput carries the client-supplied fields of a template. A zero
// StartsOn means today.
type RecurringInput struct {
	Description string
	Amount      decimal.Decimal
	Category    string
	DayOfMonth  int
	StartsOn    time.Time
	EndsOn      *time.Time
}

// UpcomingCharge pairs a template with its next due date.
type UpcomingCharge struct {
	Recurring expense.RecurringExpense `json:"recurring"`
	DueOn     time.Time                `json:"dueOn"`
}

// Service handles expense business logic
type Service struct {
	repo        repository.Repository
	categorizer Categorizer
	clock       clock.Clock
	logger      *slog.Logger
}

// NewService creates a new expense service
func NewService(repo repository.Repository, categorizer Categorizer, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{repo: repo, categorizer: categorizer, clock: clk, logger: logger}
}

func (s *Service) resolveCategory(raw, description string) (expense.Category, error) {
	if strings.TrimSpace(raw) == "" {
		if s.categorizer == nil {
			return expense.CategoryOther, nil
		}
		return s.categorizer.Suggest(description), nil
	}
	return expense.ParseCategory(raw)
}

// CreateExpense validates and stores a new record for owner.
func (s *Service) CreateExpense(ctx context.Context, owner uuid.UUID, in ExpenseInput) (*expense.Expense, error) {
	category, err := s.resolveCategory(in.Category, in.Description)
	if err != nil {
		return nil, err
	}
	e := &expense.Expense{
		OwnerID:     owner,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Date:        expense.DateOf(in.Date),
		Category:    category,
		RecurringID: in.RecurringID,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.RecurringID != nil {
		if _, err := s.ownedRecurring(ctx, owner, *e.RecurringID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "expense created",
		slog.String("expense_id", e.ID.String()),
		slog.String("owner_id", owner.String()),
		slog.String("category", string(e.Category)),
	)
	return e, nil
}

// GetExpense returns one of owner's records. Records of other owners are
// reported as not found.
func (s *Service) GetExpense(ctx context.Context, owner, id uuid.UUID) (*expense.Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != owner {
		return nil, expense.ErrNotFound
	}
	return e, nil
}

// ListExpenses returns owner's records, newest first.
func (s *Service) ListExpenses(ctx context.Context, owner uuid.UUID, within *expense.DateRange) ([]expense.Expense, error) {
	return s.repo.ListByOwner(ctx, owner, within)
}

// SearchExpenses runs a full-text query over owner's descriptions.
func (s *Service) SearchExpenses(ctx context.Context, owner uuid.UUID, q search.Query) ([]search.Hit, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, search.ErrEmptyQuery
	}
	records, err := s.repo.ListByOwner(ctx, owner, nil)
	if err != nil {
		return nil, err
	}
	return search.Run(records, q)
}

// UpdateExpense replaces description, amount, date and category.
func (s *Service) UpdateExpense(ctx context.Context, owner, id uuid.UUID, in ExpenseInput) (*expense.Expense, error) {
	e, err := s.GetExpense(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	category, err := s.resolveCategory(in.Category, in.Description)
	if err != nil {
		return nil, err
	}

	e.Description = strings.TrimSpace(in.Description)
	e.Amount = in.Amount
	e.Date = expense.DateOf(in.Date)
	e.Category = category
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteExpense removes one of owner's records.
func (s *Service) DeleteExpense(ctx context.Context, owner, id uuid.UUID) error {
	if _, err := s.GetExpense(ctx, owner, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// CreateRecurring stores a new template for owner.
func (s *Service) CreateRecurring(ctx context.Context, owner uuid.UUID, in RecurringInput) (*expense.RecurringExpense, error) {
	category, err := s.resolveCategory(in.Category, in.Description)
	if err != nil {
		return nil, err
	}
	startsOn := clock.Today(s.clock)
	if !in.StartsOn.IsZero() {
		startsOn = expense.DateOf(in.StartsOn)
	}
	rec := &expense.RecurringExpense{
		OwnerID:     owner,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Category:    category,
		DayOfMonth:  in.DayOfMonth,
		StartsOn:    startsOn,
	}
	if in.EndsOn != nil {
		ends := expense.DateOf(*in.EndsOn)
		rec.EndsOn = &ends
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateRecurring(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "recurring expense created",
		slog.String("recurring_id", rec.ID.String()),
		slog.String("owner_id", owner.String()),
		slog.Int("day_of_month", rec.DayOfMonth),
	)
	return rec, nil
}

// ListRecurring returns owner's templates.
func (s *Service) ListRecurring(ctx context.Context, owner uuid.UUID) ([]expense.RecurringExpense, error) {
	return s.repo.ListRecurring(ctx, owner)
}

// DeleteRecurring removes one of owner's templates.
func (s *Service) DeleteRecurring(ctx context.Context, owner, id uuid.UUID) error {
	if _, err := s.ownedRecurring(ctx, owner, id); err != nil {
		return err
	}
	return s.repo.DeleteRecurring(ctx, id)
}

// Upcoming lists each active template with its next due date, soonest
// first. A charge due today is included.
func (s *Service) Upcoming(ctx context.Context, owner uuid.UUID) ([]UpcomingCharge, error) {
	templates, err := s.repo.ListRecurring(ctx, owner)
	if err != nil {
		return nil, err
	}
	today := clock.Today(s.clock)

	out := make([]UpcomingCharge, 0, len(templates))
	for _, t := range templates {
		due, ok, err := DueAfter(t, today.AddDate(0, 0, -1))
		if err != nil {
			s.logger.WarnContext(ctx, "skipping malformed recurring expense",
				slog.String("recurring_id", t.ID.String()),
				slog.Any("error", err),
			)
			continue
		}
		if ok {
			out = append(out, UpcomingCharge{Recurring: t, DueOn: due})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueOn.Before(out[j].DueOn) })
	return out, nil
}

// DueAfter returns the template's first active occurrence strictly after
// asOf. ok is false when the template has ended by then.
func DueAfter(t expense.RecurringExpense, asOf time.Time) (time.Time, bool, error) {
	if !t.StartsOn.IsZero() {
		if floor := expense.DateOf(t.StartsOn).AddDate(0, 0, -1); asOf.Before(floor) {
			asOf = floor
		}
	}
	due, err := recurring.NextOccurrence(t, asOf)
	if err != nil {
		return time.Time{}, false, err
	}
	if !t.ActiveOn(due) {
		return time.Time{}, false, nil
	}
	return due, true, nil
}

func (s *Service) ownedRecurring(ctx context.Context, owner, id uuid.UUID) (*expense.RecurringExpense, error) {
	rec, err := s.repo.GetRecurring(ctx, id)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			return nil, fmt.Errorf("recurring expense %s: %w", id, expense.ErrNotFound)
		}
		return nil, err
	}
	if rec.OwnerID != owner {
		return nil, fmt.Errorf("recurring expense %s: %w", id, expense.ErrNotFound)
	}
	return rec, nil
}
