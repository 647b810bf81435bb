package reports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
)

var owner = uuid.MustParse("7c1e7d3a-2f55-4f0b-9a57-3d1c2b1a0e01")

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func record(amount string, cat expense.Category, d time.Time) expense.Expense {
	return expense.Expense{
		ID:          uuid.New(),
		OwnerID:     owner,
		Description: string(cat) + " purchase",
		Amount:      dec(amount),
		Date:        d,
		Category:    cat,
	}
}

func tmpl(amount string, cat expense.Category, day int, startsOn time.Time) expense.RecurringExpense {
	return expense.RecurringExpense{
		ID:          uuid.New(),
		OwnerID:     owner,
		Description: string(cat) + " bill",
		Amount:      dec(amount),
		Category:    cat,
		DayOfMonth:  day,
		StartsOn:    startsOn,
	}
}

func newTestEngine() *Engine {
	return NewEngine(clock.Fixed(date(2024, 6, 15)))
}

func TestCategorySummary_MergesRecordsAndProjections(t *testing.T) {
	snap := Snapshot{
		OwnerID:   owner,
		Expenses:  []expense.Expense{record("20", expense.CategoryFood, date(2024, 3, 5))},
		Recurring: []expense.RecurringExpense{tmpl("50", expense.CategoryUtilities, 31, date(2024, 1, 1))},
	}

	got, err := newTestEngine().CategorySummary(snap, 2024, time.March, true)
	require.NoError(t, err)
	require.Len(t, got.Totals, 2)
	assert.Equal(t, expense.CategoryFood, got.Totals[0].Category)
	assertDecimal(t, "20", got.Totals[0].Total)
	assert.Equal(t, expense.CategoryUtilities, got.Totals[1].Category)
	assertDecimal(t, "50", got.Totals[1].Total)
	assert.Empty(t, got.Anomalies)

	without, err := newTestEngine().CategorySummary(snap, 2024, time.March, false)
	require.NoError(t, err)
	require.Len(t, without.Totals, 1)
	assertDecimal(t, "20", without.Get(expense.CategoryFood))
	assertDecimal(t, "0", without.Get(expense.CategoryUtilities))
}

func TestCategorySummary_ExactDecimalSums(t *testing.T) {
	snap := Snapshot{OwnerID: owner, Expenses: []expense.Expense{
		record("0.10", expense.CategoryFood, date(2024, 5, 1)),
		record("0.20", expense.CategoryFood, date(2024, 5, 2)),
		record("19.99", expense.CategoryTravel, date(2024, 5, 3)),
		record("0.01", expense.CategoryTravel, date(2024, 5, 31)),
		record("100", expense.CategoryTravel, date(2024, 6, 1)),
	}}

	got, err := newTestEngine().CategorySummary(snap, 2024, time.May, false)
	require.NoError(t, err)
	assertDecimal(t, "0.30", got.Get(expense.CategoryFood))
	assertDecimal(t, "20.00", got.Get(expense.CategoryTravel))
	assertDecimal(t, "20.30", got.Sum())
}

func TestCategorySummary_OmitsZeroTotals(t *testing.T) {
	snap := Snapshot{OwnerID: owner, Expenses: []expense.Expense{
		record("0", expense.CategoryEntertainment, date(2024, 5, 1)),
		record("12", expense.CategoryOther, date(2024, 5, 1)),
	}}

	got, err := newTestEngine().CategorySummary(snap, 2024, time.May, false)
	require.NoError(t, err)
	require.Len(t, got.Totals, 1)
	assert.Equal(t, expense.CategoryOther, got.Totals[0].Category)
}

func TestCategorySummary_EmptySnapshot(t *testing.T) {
	got, err := newTestEngine().CategorySummary(Snapshot{OwnerID: owner}, 2024, time.May, true)
	require.NoError(t, err)
	assert.Empty(t, got.Totals)
	assertDecimal(t, "0", got.Sum())
}

func TestCategorySummary_InvalidPeriod(t *testing.T) {
	e := newTestEngine()
	_, err := e.CategorySummary(Snapshot{}, 2024, time.Month(13), false)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = e.CategorySummary(Snapshot{}, 2024, time.Month(0), false)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = e.CategorySummary(Snapshot{}, 0, time.May, false)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestCategorySummary_RespectsEffectiveWindow(t *testing.T) {
	t1 := tmpl("30", expense.CategoryEntertainment, 10, date(2024, 4, 11))
	ends := date(2024, 8, 9)
	t1.EndsOn = &ends
	snap := Snapshot{OwnerID: owner, Recurring: []expense.RecurringExpense{t1}}
	e := newTestEngine()

	tests := []struct {
		month time.Month
		want  string
	}{
		{time.April, "0"},
		{time.May, "30"},
		{time.July, "30"},
		{time.August, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			got, err := e.CategorySummary(snap, 2024, tt.month, true)
			require.NoError(t, err)
			assertDecimal(t, tt.want, got.Get(expense.CategoryEntertainment))
		})
	}
}

func TestCategorySummary_LinkedRecordSuppressesProjection(t *testing.T) {
	rent := tmpl("900", expense.CategoryUtilities, 1, date(2024, 1, 1))
	paid := record("905", expense.CategoryUtilities, date(2024, 3, 2))
	paid.RecurringID = &rent.ID
	snap := Snapshot{OwnerID: owner, Expenses: []expense.Expense{paid}, Recurring: []expense.RecurringExpense{rent}}
	e := newTestEngine()

	march, err := e.CategorySummary(snap, 2024, time.March, true)
	require.NoError(t, err)
	assertDecimal(t, "905", march.Get(expense.CategoryUtilities))

	april, err := e.CategorySummary(snap, 2024, time.April, true)
	require.NoError(t, err)
	assertDecimal(t, "900", april.Get(expense.CategoryUtilities))
}

func TestCategorySummary_SkipsMalformedInputs(t *testing.T) {
	bad := record("-5", expense.CategoryFood, date(2024, 5, 1))
	foreign := record("7", expense.CategoryFood, date(2024, 5, 1))
	foreign.OwnerID = uuid.New()
	badTemplate := tmpl("10", expense.CategoryFood, 0, date(2024, 1, 1))

	snap := Snapshot{
		OwnerID:   owner,
		Expenses:  []expense.Expense{bad, foreign, record("3", expense.CategoryFood, date(2024, 5, 9))},
		Recurring: []expense.RecurringExpense{badTemplate},
	}

	got, err := newTestEngine().CategorySummary(snap, 2024, time.May, true)
	require.NoError(t, err)
	assertDecimal(t, "3", got.Get(expense.CategoryFood))
	require.Len(t, got.Anomalies, 3)
	assert.Equal(t, AnomalyExpense, got.Anomalies[0].Kind)
	assert.Equal(t, bad.ID, got.Anomalies[0].ID)
	assert.Equal(t, foreign.ID, got.Anomalies[1].ID)
	assert.Equal(t, AnomalyRecurring, got.Anomalies[2].Kind)
	assert.Equal(t, badTemplate.ID, got.Anomalies[2].ID)
}

func TestMonthlySummary_AlwaysTwelveMonths(t *testing.T) {
	got, err := newTestEngine().MonthlySummary(Snapshot{OwnerID: owner}, 2024, nil, true)
	require.NoError(t, err)
	require.Len(t, got.Months, 12)
	for i, m := range got.Months {
		assert.Equal(t, time.Month(i+1), m.Month)
		assertDecimal(t, "0", m.Total)
	}
}

func TestMonthlySummary_WithProjectionAndFilter(t *testing.T) {
	food := expense.CategoryFood
	snap := Snapshot{
		OwnerID: owner,
		Expenses: []expense.Expense{
			record("20", expense.CategoryFood, date(2024, 3, 5)),
			record("15.50", expense.CategoryFood, date(2024, 3, 20)),
			record("80", expense.CategoryTravel, date(2024, 3, 7)),
			record("999", expense.CategoryFood, date(2023, 3, 5)),
		},
		Recurring: []expense.RecurringExpense{
			tmpl("50", expense.CategoryUtilities, 31, date(2024, 1, 1)),
			tmpl("10", expense.CategoryFood, 15, date(2024, 11, 1)),
		},
	}
	e := newTestEngine()

	all, err := e.MonthlySummary(snap, 2024, nil, true)
	require.NoError(t, err)
	assertDecimal(t, "50", all.Months[0].Total)
	assertDecimal(t, "165.50", all.Months[2].Total)
	assertDecimal(t, "60", all.Months[11].Total)

	onlyFood, err := e.MonthlySummary(snap, 2024, &food, true)
	require.NoError(t, err)
	assertDecimal(t, "0", onlyFood.Months[0].Total)
	assertDecimal(t, "35.50", onlyFood.Months[2].Total)
	assertDecimal(t, "10", onlyFood.Months[10].Total)
	assert.Equal(t, &food, onlyFood.Category)
}

func TestMonthlySummary_EqualsSumOfCategorySummaries(t *testing.T) {
	snap := Snapshot{
		OwnerID: owner,
		Expenses: []expense.Expense{
			record("12.34", expense.CategoryFood, date(2024, 1, 31)),
			record("7", expense.CategoryTravel, date(2024, 2, 29)),
			record("3.21", expense.CategoryOther, date(2024, 12, 1)),
		},
		Recurring: []expense.RecurringExpense{
			tmpl("45.99", expense.CategoryEntertainment, 31, date(2024, 2, 1)),
			tmpl("5", expense.CategoryFood, 29, time.Time{}),
		},
	}
	e := newTestEngine()

	for _, include := range []bool{true, false} {
		monthly, err := e.MonthlySummary(snap, 2024, nil, include)
		require.NoError(t, err)
		for m := time.January; m <= time.December; m++ {
			cs, err := e.CategorySummary(snap, 2024, m, include)
			require.NoError(t, err)
			assertDecimal(t, cs.Sum().String(), monthly.Months[m-1].Total)
		}
	}
}

func TestMonthlySummary_Errors(t *testing.T) {
	e := newTestEngine()
	_, err := e.MonthlySummary(Snapshot{}, 10000, nil, false)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	all := expense.CategoryAll
	_, err = e.MonthlySummary(Snapshot{}, 2024, &all, false)
	assert.ErrorIs(t, err, expense.ErrInvalidCategory)
}

func TestYearlySummary(t *testing.T) {
	snap := Snapshot{
		OwnerID: owner,
		Expenses: []expense.Expense{
			record("100", expense.CategoryTravel, date(2021, 7, 1)),
			record("25", expense.CategoryFood, date(2023, 1, 1)),
			record("0", expense.CategoryFood, date(2019, 1, 1)),
		},
		Recurring: []expense.RecurringExpense{
			tmpl("10", expense.CategoryUtilities, 31, date(2023, 11, 15)),
		},
	}
	e := newTestEngine()

	got, err := e.YearlySummary(snap, nil, true)
	require.NoError(t, err)
	require.Len(t, got.Years, 3)
	assert.Equal(t, 2021, got.Years[0].Year)
	assertDecimal(t, "100", got.Get(2021))
	assertDecimal(t, "45", got.Get(2023))
	assertDecimal(t, "120", got.Get(2024))
	assertDecimal(t, "0", got.Get(2019))

	withoutRecurring, err := e.YearlySummary(snap, nil, false)
	require.NoError(t, err)
	assertDecimal(t, "25", withoutRecurring.Get(2023))
	assertDecimal(t, "0", withoutRecurring.Get(2024))
}

func TestYearlySummary_StopsAtCurrentYear(t *testing.T) {
	snap := Snapshot{OwnerID: owner, Recurring: []expense.RecurringExpense{
		tmpl("10", expense.CategoryFood, 1, date(2024, 1, 1)),
		tmpl("99", expense.CategoryFood, 1, date(2026, 1, 1)),
	}}

	got, err := newTestEngine().YearlySummary(snap, nil, true)
	require.NoError(t, err)
	require.Len(t, got.Years, 1)
	assertDecimal(t, "120", got.Get(2024))
}

func TestYearlySummary_TemplateWithoutStartDate(t *testing.T) {
	snap := Snapshot{OwnerID: owner, Recurring: []expense.RecurringExpense{
		tmpl("1", expense.CategoryOther, 5, time.Time{}),
	}}

	got, err := newTestEngine().YearlySummary(snap, nil, true)
	require.NoError(t, err)
	require.Len(t, got.Years, legacyProjectionYears+1)
	assert.Equal(t, 2019, got.Years[0].Year)
}

func TestYearlySummary_TemplateWithoutStartDateSkipsOlderRecordedYears(t *testing.T) {
	snap := Snapshot{
		OwnerID:   owner,
		Expenses:  []expense.Expense{record("7", expense.CategoryFood, date(2015, 6, 1))},
		Recurring: []expense.RecurringExpense{tmpl("1", expense.CategoryOther, 5, time.Time{})},
	}

	got, err := newTestEngine().YearlySummary(snap, nil, true)
	require.NoError(t, err)
	require.Len(t, got.Years, legacyProjectionYears+2)
	assert.Equal(t, 2015, got.Years[0].Year)
	assertDecimal(t, "7", got.Get(2015))
	assertDecimal(t, "12", got.Get(2019))
}

func TestYearlySummary_MatchesMonthlyTotals(t *testing.T) {
	snap := Snapshot{
		OwnerID: owner,
		Expenses: []expense.Expense{
			record("10.10", expense.CategoryFood, date(2024, 4, 4)),
			record("3", expense.CategoryFood, date(2023, 9, 9)),
		},
		Recurring: []expense.RecurringExpense{tmpl("2.50", expense.CategoryFood, 30, date(2023, 6, 30))},
	}
	e := newTestEngine()

	yearly, err := e.YearlySummary(snap, nil, true)
	require.NoError(t, err)
	for _, y := range yearly.Years {
		monthly, err := e.MonthlySummary(snap, y.Year, nil, true)
		require.NoError(t, err)
		assertDecimal(t, monthly.Sum().String(), y.Total)
	}
}
