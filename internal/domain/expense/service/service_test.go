package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/expense/search"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
)

// MockRepository is an in-memory expense repository
type MockRepository struct {
	expenses  map[uuid.UUID]*expense.Expense
	recurring map[uuid.UUID]*expense.RecurringExpense
	err       error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		expenses:  make(map[uuid.UUID]*expense.Expense),
		recurring: make(map[uuid.UUID]*expense.RecurringExpense),
	}
}

func (m *MockRepository) Create(_ context.Context, e *expense.Expense) error {
	if m.err != nil {
		return m.err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	m.expenses[e.ID] = &cp
	return nil
}

func (m *MockRepository) GetByID(_ context.Context, id uuid.UUID) (*expense.Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, expense.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockRepository) Update(_ context.Context, e *expense.Expense) error {
	if _, ok := m.expenses[e.ID]; !ok {
		return expense.ErrNotFound
	}
	cp := *e
	m.expenses[e.ID] = &cp
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.expenses[id]; !ok {
		return expense.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *MockRepository) ListByOwner(_ context.Context, owner uuid.UUID, within *expense.DateRange) ([]expense.Expense, error) {
	var out []expense.Expense
	for _, e := range m.expenses {
		if e.OwnerID == owner && (within == nil || within.Contains(e.Date)) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *MockRepository) CreateRecurring(_ context.Context, r *expense.RecurringExpense) error {
	if m.err != nil {
		return m.err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	m.recurring[r.ID] = &cp
	return nil
}

func (m *MockRepository) GetRecurring(_ context.Context, id uuid.UUID) (*expense.RecurringExpense, error) {
	r, ok := m.recurring[id]
	if !ok {
		return nil, expense.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRepository) DeleteRecurring(_ context.Context, id uuid.UUID) error {
	if _, ok := m.recurring[id]; !ok {
		return expense.ErrNotFound
	}
	delete(m.recurring, id)
	return nil
}

func (m *MockRepository) ListRecurring(_ context.Context, owner uuid.UUID) ([]expense.RecurringExpense, error) {
	var out []expense.RecurringExpense
	for _, r := range m.recurring {
		if r.OwnerID == owner {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MockRepository) ListActiveRecurring(_ context.Context, on time.Time) ([]expense.RecurringExpense, error) {
	var out []expense.RecurringExpense
	for _, r := range m.recurring {
		if r.ActiveOn(on) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MockRepository) MarkReminded(context.Context, uuid.UUID, time.Time) (bool, error) {
	return true, nil
}

func (m *MockRepository) LoadLedger(ctx context.Context, owner uuid.UUID) ([]expense.Expense, []expense.RecurringExpense, error) {
	expenses, _ := m.ListByOwner(ctx, owner, nil)
	templates, _ := m.ListRecurring(ctx, owner)
	return expenses, templates, nil
}

type stubCategorizer expense.Category

func (s stubCategorizer) Suggest(string) expense.Category { return expense.Category(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo *MockRepository) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, stubCategorizer(expense.CategoryFood), clock.Fixed(day(2024, 2, 29)), logger)
}

func TestCreateExpense(t *testing.T) {
	repo := NewMockRepository()
	svc := newTestService(repo)
	owner := uuid.New()

	got, err := svc.CreateExpense(context.Background(), owner, ExpenseInput{
		Description: "  Flight to Lisbon ",
		Amount:      decimal.RequireFromString("199.90"),
		Date:        time.Date(2024, 2, 10, 15, 4, 5, 0, time.UTC),
		Category:    "travel",
	})
	require.NoError(t, err)
	assert.Equal(t, "Flight to Lisbon", got.Description)
	assert.Equal(t, expense.CategoryTravel, got.Category)
	assert.Equal(t, day(2024, 2, 10), got.Date)
	assert.Equal(t, owner, got.OwnerID)
	assert.Len(t, repo.expenses, 1)
}

func TestCreateExpense_SuggestsCategory(t *testing.T) {
	svc := newTestService(NewMockRepository())

	got, err := svc.CreateExpense(context.Background(), uuid.New(), ExpenseInput{
		Description: "Pizza night",
		Amount:      decimal.NewFromInt(18),
		Date:        day(2024, 2, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, expense.CategoryFood, got.Category)
}

func TestCreateExpense_Validation(t *testing.T) {
	svc := newTestService(NewMockRepository())
	owner := uuid.New()

	tests := []struct {
		name    string
		in      ExpenseInput
		wantErr error
	}{
		{"missing description", ExpenseInput{Amount: decimal.NewFromInt(1), Date: day(2024, 1, 1), Category: "Food"}, expense.ErrInvalidExpense},
		{"negative amount", ExpenseInput{Description: "x", Amount: decimal.NewFromInt(-1), Date: day(2024, 1, 1), Category: "Food"}, expense.ErrInvalidExpense},
		{"missing date", ExpenseInput{Description: "x", Amount: decimal.NewFromInt(1), Category: "Food"}, expense.ErrInvalidExpense},
		{"unknown category", ExpenseInput{Description: "x", Amount: decimal.NewFromInt(1), Date: day(2024, 1, 1), Category: "Pets"}, expense.ErrInvalidCategory},
		{"foreign recurring link", ExpenseInput{Description: "x", Amount: decimal.NewFromInt(1), Date: day(2024, 1, 1), Category: "Food", RecurringID: ptr(uuid.New())}, expense.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateExpense(context.Background(), owner, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestExpenseOwnership(t *testing.T) {
	repo := NewMockRepository()
	svc := newTestService(repo)
	owner, intruder := uuid.New(), uuid.New()

	created, err := svc.CreateExpense(context.Background(), owner, ExpenseInput{
		Description: "Concert", Amount: decimal.NewFromInt(60), Date: day(2024, 2, 3), Category: "Entertainment",
	})
	require.NoError(t, err)

	_, err = svc.GetExpense(context.Background(), intruder, created.ID)
	assert.ErrorIs(t, err, expense.ErrNotFound)

	_, err = svc.UpdateExpense(context.Background(), intruder, created.ID, ExpenseInput{
		Description: "Hijack", Amount: decimal.NewFromInt(1), Date: day(2024, 2, 3), Category: "Other",
	})
	assert.ErrorIs(t, err, expense.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteExpense(context.Background(), intruder, created.ID), expense.ErrNotFound)
	assert.Len(t, repo.expenses, 1)

	updated, err := svc.UpdateExpense(context.Background(), owner, created.ID, ExpenseInput{
		Description: "Concert tickets", Amount: decimal.NewFromInt(75), Date: day(2024, 2, 4), Category: "Entertainment",
	})
	require.NoError(t, err)
	assert.Equal(t, "Concert tickets", updated.Description)
	assert.True(t, decimal.NewFromInt(75).Equal(repo.expenses[created.ID].Amount))

	require.NoError(t, svc.DeleteExpense(context.Background(), owner, created.ID))
	assert.Empty(t, repo.expenses)
}

func TestCreateRecurring_DefaultsStartToToday(t *testing.T) {
	svc := newTestService(NewMockRepository())

	rec, err := svc.CreateRecurring(context.Background(), uuid.New(), RecurringInput{
		Description: "Rent",
		Amount:      decimal.NewFromInt(1200),
		Category:    "Utilities",
		DayOfMonth:  31,
	})
	require.NoError(t, err)
	assert.Equal(t, day(2024, 2, 29), rec.StartsOn)
}

func TestCreateRecurring_RejectsBadDay(t *testing.T) {
	svc := newTestService(NewMockRepository())

	_, err := svc.CreateRecurring(context.Background(), uuid.New(), RecurringInput{
		Description: "Rent", Amount: decimal.NewFromInt(1), Category: "Utilities", DayOfMonth: 32,
	})
	assert.ErrorIs(t, err, expense.ErrInvalidTemplate)
}

func TestDeleteRecurring_Ownership(t *testing.T) {
	repo := NewMockRepository()
	svc := newTestService(repo)
	owner := uuid.New()

	rec, err := svc.CreateRecurring(context.Background(), owner, RecurringInput{
		Description: "Phone", Amount: decimal.NewFromInt(20), Category: "Utilities", DayOfMonth: 12,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteRecurring(context.Background(), uuid.New(), rec.ID), expense.ErrNotFound)
	require.NoError(t, svc.DeleteRecurring(context.Background(), owner, rec.ID))
	assert.Empty(t, repo.recurring)
}

func TestUpcoming(t *testing.T) {
	repo := NewMockRepository()
	svc := newTestService(repo)
	owner := uuid.New()
	ended := day(2024, 2, 15)

	templates := []expense.RecurringExpense{
		{ID: uuid.New(), OwnerID: owner, Description: "Rent", Amount: decimal.NewFromInt(900), Category: expense.CategoryUtilities, DayOfMonth: 31, StartsOn: day(2023, 1, 1)},
		{ID: uuid.New(), OwnerID: owner, Description: "Gym", Amount: decimal.NewFromInt(30), Category: expense.CategoryOther, DayOfMonth: 3, StartsOn: day(2023, 1, 1)},
		{ID: uuid.New(), OwnerID: owner, Description: "Old plan", Amount: decimal.NewFromInt(5), Category: expense.CategoryOther, DayOfMonth: 1, StartsOn: day(2023, 1, 1), EndsOn: &ended},
		{ID: uuid.New(), OwnerID: owner, Description: "Future", Amount: decimal.NewFromInt(5), Category: expense.CategoryOther, DayOfMonth: 10, StartsOn: day(2024, 5, 20)},
	}
	for i := range templates {
		require.NoError(t, repo.CreateRecurring(context.Background(), &templates[i]))
	}

	got, err := svc.Upcoming(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Rent", got[0].Recurring.Description)
	assert.Equal(t, day(2024, 2, 29), got[0].DueOn)
	assert.Equal(t, "Gym", got[1].Recurring.Description)
	assert.Equal(t, day(2024, 3, 3), got[1].DueOn)
	assert.Equal(t, "Future", got[2].Recurring.Description)
	assert.Equal(t, day(2024, 6, 10), got[2].DueOn)
}

func TestSearchExpenses(t *testing.T) {
	repo := NewMockRepository()
	svc := newTestService(repo)
	owner, other := uuid.New(), uuid.New()
	ctx := context.Background()

	for _, in := range []struct {
		owner uuid.UUID
		desc  string
	}{
		{owner, "Dinner at Sushi Bar"},
		{owner, "Bus pass"},
		{other, "Sushi takeaway"},
	} {
		_, err := svc.CreateExpense(ctx, in.owner, ExpenseInput{
			Description: in.desc,
			Amount:      decimal.NewFromInt(12),
			Date:        day(2024, 2, 1),
			Category:    "Food",
		})
		require.NoError(t, err)
	}

	hits, err := svc.SearchExpenses(ctx, owner, search.Query{Text: "sushi"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Dinner at Sushi Bar", hits[0].Expense.Description)

	_, err = svc.SearchExpenses(ctx, owner, search.Query{})
	assert.ErrorIs(t, err, search.ErrEmptyQuery)
}
