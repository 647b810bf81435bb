// Package e2etest runs whole flows across the domain services with an
// in-memory store in place of Postgres.
package e2etest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/expense-tracker/internal/domain/categorization"
	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	expenseservice "github.com/FACorreiaa/expense-tracker/internal/domain/expense/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/export"
	"github.com/FACorreiaa/expense-tracker/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/expense-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/reminders"
	reportsservice "github.com/FACorreiaa/expense-tracker/internal/domain/reports/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
)

// store is an in-memory expense repository.
type store struct {
	mu        sync.Mutex
	expenses  map[uuid.UUID]expense.Expense
	recurring map[uuid.UUID]expense.RecurringExpense
	reminded  map[string]bool
}

func newStore() *store {
	return &store{
		expenses:  map[uuid.UUID]expense.Expense{},
		recurring: map[uuid.UUID]expense.RecurringExpense{},
		reminded:  map[string]bool{},
	}
}

func (s *store) Create(_ context.Context, e *expense.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.New()
	s.expenses[e.ID] = *e
	return nil
}

func (s *store) GetByID(_ context.Context, id uuid.UUID) (*expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return nil, expense.ErrNotFound
	}
	return &e, nil
}

func (s *store) Update(_ context.Context, e *expense.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = *e
	return nil
}

func (s *store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expenses, id)
	return nil
}

func (s *store) ListByOwner(_ context.Context, owner uuid.UUID, within *expense.DateRange) ([]expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []expense.Expense
	for _, e := range s.expenses {
		if e.OwnerID == owner && (within == nil || within.Contains(e.Date)) {
			out = append(out, e)
		}
	}
	// newest first, as the Postgres repository returns them
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Date.After(out[j-1].Date); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *store) CreateRecurring(_ context.Context, r *expense.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.New()
	s.recurring[r.ID] = *r
	return nil
}

func (s *store) GetRecurring(_ context.Context, id uuid.UUID) (*expense.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[id]
	if !ok {
		return nil, expense.ErrNotFound
	}
	return &r, nil
}

func (s *store) DeleteRecurring(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recurring, id)
	return nil
}

func (s *store) ListRecurring(_ context.Context, owner uuid.UUID) ([]expense.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []expense.RecurringExpense
	for _, r := range s.recurring {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *store) ListActiveRecurring(_ context.Context, on time.Time) ([]expense.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []expense.RecurringExpense
	for _, r := range s.recurring {
		if r.ActiveOn(on) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *store) MarkReminded(_ context.Context, id uuid.UUID, dueOn time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := id.String() + dueOn.Format(time.DateOnly)
	if s.reminded[key] {
		return false, nil
	}
	s.reminded[key] = true
	return true, nil
}

func (s *store) LoadLedger(ctx context.Context, owner uuid.UUID) ([]expense.Expense, []expense.RecurringExpense, error) {
	expenses, _ := s.ListByOwner(ctx, owner, nil)
	templates, _ := s.ListRecurring(ctx, owner)
	return expenses, templates, nil
}

type directory map[uuid.UUID]*user.User

func (d directory) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

type noIncome struct{}

func (noIncome) MonthlyIncome(context.Context, uuid.UUID) (*decimal.Decimal, error) { return nil, nil }

type outbox struct{ sent []reminders.Message }

func (o *outbox) Send(_ context.Context, msg reminders.Message) error {
	o.sent = append(o.sent, msg)
	return nil
}

const bankStatement = "Data;Descrição;Valor;Categoria\n" +
	"02/05/2024;Supermercado Continente;-45,30;Food\n" +
	"10/05/2024;Uber trip;12,00;\n" +
	"15/05/2024;;9,99;\n"

func TestLedgerFlow(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.Fixed(time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC))
	owner := uuid.New()

	db := newStore()
	expenses := expenseservice.NewService(db, categorization.NewDefaultCategorizer(), clk, logger)
	reports := reportsservice.NewService(db, noIncome{}, clk, logger)

	// Import a bank statement.
	importer := importservice.NewImportService(expenses, parser.DefaultConfig(), logger)
	result, err := importer.Import(ctx, owner, importservice.FormatCSV, strings.NewReader(bankStatement))
	require.NoError(t, err)
	assert.Equal(t, 3, result.RowsTotal)
	assert.Equal(t, 2, result.RowsImported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "description", result.Errors[0].Column)

	imported, err := expenses.ListExpenses(ctx, owner, nil)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	byDesc := map[string]expense.Expense{}
	for _, e := range imported {
		byDesc[e.Description] = e
	}
	assert.True(t, decimal.RequireFromString("45.30").Equal(byDesc["Supermercado Continente"].Amount))
	assert.Equal(t, expense.CategoryTravel, byDesc["Uber trip"].Category)

	// A monthly charge starting this year.
	power, err := expenses.CreateRecurring(ctx, owner, expenseservice.RecurringInput{
		Description: "Power",
		Amount:      decimal.NewFromInt(60),
		Category:    "Utilities",
		DayOfMonth:  31,
		StartsOn:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Reports include the projection.
	monthly, err := reports.MonthlySummary(ctx, owner, 2024, nil, true)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("117.30").Equal(monthly.Months[time.May-1].Total), "got %s", monthly.Months[time.May-1].Total)
	assert.True(t, decimal.NewFromInt(60).Equal(monthly.Months[time.February-1].Total), "February clamps to the 29th")

	report, err := reports.YearReport(ctx, owner, nil, 0, true)
	require.NoError(t, err)
	assert.Equal(t, 2024, report.Year)

	// Exports.
	exporter := export.NewService(expenses, reports)
	var csvOut bytes.Buffer
	require.NoError(t, exporter.ExpensesCSV(ctx, owner, 2024, &csvOut))
	lines := strings.Split(strings.TrimSpace(csvOut.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Supermercado Continente")
	assert.Contains(t, lines[2], "Uber trip")

	var workbook bytes.Buffer
	require.NoError(t, exporter.YearWorkbook(ctx, owner, 2024, nil, true, &workbook))
	assert.NotZero(t, workbook.Len())

	// The reminder for May 31 goes out once.
	mail := &outbox{}
	users := directory{owner: {ID: owner, Username: "ana", Email: "ana@example.com"}}
	reminder := reminders.NewService(db, users, mail, clk, 3, "EUR", logger)

	first, err := reminder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sent)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "ana@example.com", mail.sent[0].To)
	assert.Contains(t, mail.sent[0].Text, "Power")

	second, err := reminder.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Sent)
	assert.Len(t, mail.sent, 1)

	// Deleting the template drops it from the projection.
	require.NoError(t, expenses.DeleteRecurring(ctx, owner, power.ID))
	monthly, err = reports.MonthlySummary(ctx, owner, 2024, nil, true)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("57.30").Equal(monthly.Months[time.May-1].Total))
}
