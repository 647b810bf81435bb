package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, " UBER TRIP 12 ", normalize("uber-trip #12"))
	assert.Equal(t, " ", normalize("  --  "))
	assert.Equal(t, " CAFÉ ", normalize("café"))
}

func TestEngine_Match(t *testing.T) {
	engine := NewEngine(DefaultKeywords())

	tests := []struct {
		name string
		in   string
		want expense.Category
		ok   bool
	}{
		{"single word", "Lunch with team", expense.CategoryFood, true},
		{"case insensitive", "NETFLIX monthly", expense.CategoryEntertainment, true},
		{"punctuation", "Taxi->airport", expense.CategoryTravel, true},
		{"phrase beats word", "Gas bill March", expense.CategoryUtilities, true},
		{"other phrase", "Shell gas station", expense.CategoryTravel, true},
		{"whole words only", "Business cards", "", false},
		{"no keyword", "Birthday present", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := engine.Match(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestEngine_MatchAll_LongestFirst(t *testing.T) {
	engine := NewEngine([]Keyword{
		{Pattern: "coffee", Category: expense.CategoryFood},
		{Pattern: "coffee machine rental", Category: expense.CategoryUtilities},
	})

	got := engine.MatchAll("Coffee machine rental - office")
	require.Len(t, got, 2)
	assert.Equal(t, expense.CategoryUtilities, got[0].Category)
	assert.Equal(t, "COFFEE MACHINE RENTAL", got[0].Pattern)
}

func TestEngine_Build(t *testing.T) {
	engine := NewEngine(nil)
	_, ok := engine.Match("anything")
	assert.False(t, ok)
	assert.Zero(t, engine.PatternCount())

	engine.Build([]Keyword{
		{Pattern: "gym", Category: expense.CategoryEntertainment},
		{Pattern: "GYM", Category: expense.CategoryOther},
		{Pattern: "  ", Category: expense.CategoryFood},
		{Pattern: "bogus", Category: expense.Category("Pets")},
	})
	assert.Equal(t, 1, engine.PatternCount())

	got := engine.MatchAll("gym membership")
	require.Len(t, got, 2)
	assert.Equal(t, expense.CategoryEntertainment, got[0].Category, "ties keep canonical order")
}
