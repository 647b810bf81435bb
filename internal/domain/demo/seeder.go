// Package demo fills empty accounts with plausible sample data so the
// reports have something to show.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
)

// Years is how many calendar years, the current one included, get records.
const Years = 6

// UserLister lists every account.
type UserLister interface {
	List(ctx context.Context) ([]user.User, error)
}

// Ledger is the part of the expense store the seeder writes to.
type Ledger interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID, within *expense.DateRange) ([]expense.Expense, error)
	Create(ctx context.Context, e *expense.Expense) error
	CreateRecurring(ctx context.Context, r *expense.RecurringExpense) error
}

// Result counts what a run created.
type Result struct {
	UsersSeeded int
	Expenses    int
	Templates   int
}

// Seeder generates sample records. The same seed yields the same data.
type Seeder struct {
	users  UserLister
	ledger Ledger
	faker  *gofakeit.Faker
	clock  clock.Clock
	logger *slog.Logger
}

func NewSeeder(users UserLister, ledger Ledger, seed int64, clk clock.Clock, logger *slog.Logger) *Seeder {
	if clk == nil {
		clk = clock.System{}
	}
	return &Seeder{users: users, ledger: ledger, faker: gofakeit.New(seed), clock: clk, logger: logger}
}

// Seed gives every user without records a ledger. Users who already have
// records are left alone.
func (s *Seeder) Seed(ctx context.Context) (Result, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list users: %w", err)
	}

	var res Result
	for _, u := range users {
		existing, err := s.ledger.ListByOwner(ctx, u.ID, nil)
		if err != nil {
			return res, fmt.Errorf("failed to read ledger of %s: %w", u.Username, err)
		}
		if len(existing) > 0 {
			continue
		}

		records, templates := s.Generate(u.ID)
		for i := range templates {
			if err := s.ledger.CreateRecurring(ctx, &templates[i]); err != nil {
				return res, fmt.Errorf("failed to create template: %w", err)
			}
		}
		for i := range records {
			if err := s.ledger.Create(ctx, &records[i]); err != nil {
				return res, fmt.Errorf("failed to create expense: %w", err)
			}
		}
		res.UsersSeeded++
		res.Expenses += len(records)
		res.Templates += len(templates)
		s.logger.InfoContext(ctx, "seeded demo ledger",
			slog.String("username", u.Username),
			slog.Int("expenses", len(records)),
			slog.Int("templates", len(templates)),
		)
	}
	return res, nil
}

// Generate builds 6 to 12 records for each of the last Years years and a
// few templates starting at the beginning of that span. Dates never fall
// after today and days stay within 1..28.
func (s *Seeder) Generate(owner uuid.UUID) ([]expense.Expense, []expense.RecurringExpense) {
	today := clock.Today(s.clock)
	first := today.Year() - Years + 1

	var records []expense.Expense
	for year := first; year <= today.Year(); year++ {
		count := s.faker.IntRange(6, 12)
		for range count {
			date := time.Date(year, time.Month(s.faker.IntRange(1, 12)), s.faker.IntRange(1, 28), 0, 0, 0, 0, time.UTC)
			if date.After(today) {
				continue
			}
			category := expense.Categories[s.faker.IntRange(0, len(expense.Categories)-1)]
			records = append(records, expense.Expense{
				OwnerID:     owner,
				Description: s.describe(category),
				Amount:      s.amount(5, 200),
				Date:        date,
				Category:    category,
			})
		}
	}

	startsOn := time.Date(first, time.January, 1, 0, 0, 0, 0, time.UTC)
	templates := []expense.RecurringExpense{
		{OwnerID: owner, Description: "Rent", Amount: s.amount(600, 1500), Category: expense.CategoryOther, DayOfMonth: 1, StartsOn: startsOn},
		{OwnerID: owner, Description: "Electricity bill", Amount: s.amount(40, 120), Category: expense.CategoryUtilities, DayOfMonth: s.faker.IntRange(5, 28), StartsOn: startsOn},
		{OwnerID: owner, Description: "Streaming subscription", Amount: s.amount(8, 20), Category: expense.CategoryEntertainment, DayOfMonth: 31, StartsOn: startsOn},
	}
	return records, templates
}

func (s *Seeder) describe(c expense.Category) string {
	f := s.faker
	switch c {
	case expense.CategoryFood:
		return f.RandomString([]string{f.Lunch(), f.Dinner(), f.Breakfast(), f.Snack()})
	case expense.CategoryTravel:
		return f.RandomString([]string{"Train to ", "Flight to ", "Hotel in ", "Taxi in "}) + f.City()
	case expense.CategoryUtilities:
		return f.RandomString([]string{"Water bill", "Internet", "Phone plan", "Gas bill", "Electricity bill"})
	case expense.CategoryEntertainment:
		return "Cinema: " + f.MovieName()
	default:
		return f.Company()
	}
}

// amount returns a value in [min, max] with two decimals.
func (s *Seeder) amount(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(s.faker.Float64Range(min, max)).Round(2)
}
