package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
)

type stubLedger struct {
	expenses  []expense.Expense
	templates []expense.RecurringExpense
	err       error
	calls     int
}

func (s *stubLedger) LoadLedger(context.Context, uuid.UUID) ([]expense.Expense, []expense.RecurringExpense, error) {
	s.calls++
	return s.expenses, s.templates, s.err
}

type stubIncome struct {
	income *decimal.Decimal
	err    error
}

func (s stubIncome) MonthlyIncome(context.Context, uuid.UUID) (*decimal.Decimal, error) {
	return s.income, s.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture(owner uuid.UUID) *stubLedger {
	return &stubLedger{
		expenses: []expense.Expense{
			{ID: uuid.New(), OwnerID: owner, Description: "Groceries", Amount: decimal.NewFromInt(20), Date: day(2024, 3, 5), Category: expense.CategoryFood},
			{ID: uuid.New(), OwnerID: owner, Description: "", Amount: decimal.NewFromInt(3), Date: day(2024, 3, 6), Category: expense.CategoryFood},
		},
		templates: []expense.RecurringExpense{
			{ID: uuid.New(), OwnerID: owner, Description: "Power", Amount: decimal.NewFromInt(50), Category: expense.CategoryUtilities, DayOfMonth: 31, StartsOn: day(2024, 1, 1)},
		},
	}
}

func newTestService(ledger *stubLedger, income stubIncome, logs *bytes.Buffer) *Service {
	logger := slog.New(slog.NewTextHandler(logs, nil))
	return NewService(ledger, income, clock.Fixed(day(2024, 6, 1)), logger)
}

func TestCategorySummary_LogsAnomalies(t *testing.T) {
	owner := uuid.New()
	var logs bytes.Buffer
	svc := newTestService(fixture(owner), stubIncome{}, &logs)

	got, err := svc.CategorySummary(context.Background(), owner, 2024, time.March, true)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(got.Get(expense.CategoryFood)))
	assert.True(t, decimal.NewFromInt(50).Equal(got.Get(expense.CategoryUtilities)))
	assert.Len(t, got.Anomalies, 1)
	assert.Contains(t, logs.String(), "skipped malformed ledger entry")
}

func TestYearReport_SingleSnapshot(t *testing.T) {
	owner := uuid.New()
	ledger := fixture(owner)
	svc := newTestService(ledger, stubIncome{}, &bytes.Buffer{})

	got, err := svc.YearReport(context.Background(), owner, nil, 0, true)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.calls)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, []int{2024}, got.Years)
	require.NotNil(t, got.Monthly)
	assert.True(t, decimal.NewFromInt(70).Equal(got.Monthly.Months[2].Total))
}

func TestService_PropagatesLedgerErrors(t *testing.T) {
	owner := uuid.New()
	boom := errors.New("db down")
	svc := newTestService(&stubLedger{err: boom}, stubIncome{}, &bytes.Buffer{})

	_, err := svc.MonthlySummary(context.Background(), owner, 2024, nil, true)
	assert.ErrorIs(t, err, boom)

	_, err = svc.AvailableCategories(context.Background(), owner)
	assert.ErrorIs(t, err, boom)
}

func TestOverview(t *testing.T) {
	owner := uuid.New()
	income := decimal.NewFromInt(280)
	svc := newTestService(fixture(owner), stubIncome{income: &income}, &bytes.Buffer{})

	got, err := svc.Overview(context.Background(), owner, 2024, time.March)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(70).Equal(got.Spent))
	assert.True(t, decimal.NewFromInt(210).Equal(got.Unspent))
	assert.True(t, decimal.NewFromInt(25).Equal(got.PercentSpent))
}

func TestOverview_IncomeError(t *testing.T) {
	owner := uuid.New()
	svc := newTestService(fixture(owner), stubIncome{err: expense.ErrNotFound}, &bytes.Buffer{})

	_, err := svc.Overview(context.Background(), owner, 2024, time.March)
	assert.ErrorIs(t, err, expense.ErrNotFound)
}
