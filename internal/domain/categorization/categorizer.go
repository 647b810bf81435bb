package categorization

import (
	"slices"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
)

// DefaultFuzzyThreshold is the minimum fuzzy score accepted as a suggestion.
const DefaultFuzzyThreshold = 75

const (
	SourceKeyword = "keyword"
	SourceFuzzy   = "fuzzy"
	SourceDefault = "default"
)

// Suggestion is one ranked category candidate for a description.
type Suggestion struct {
	Category expense.Category `json:"category"`
	Score    int              `json:"score"`
	Source   string           `json:"source"`
	Pattern  string           `json:"pattern,omitempty"`
}

// Categorizer runs the exact keyword pass and falls back to fuzzy matching.
// It defaults to Other.
type Categorizer struct {
	engine    *Engine
	fuzzy     *FuzzyMatcher
	threshold int
}

func NewCategorizer(kw []Keyword) *Categorizer {
	return &Categorizer{
		engine:    NewEngine(kw),
		fuzzy:     NewFuzzyMatcher(kw),
		threshold: DefaultFuzzyThreshold,
	}
}

// NewDefaultCategorizer uses the built-in vocabulary.
func NewDefaultCategorizer() *Categorizer {
	return NewCategorizer(DefaultKeywords())
}

// Suggest returns the single best category for description.
func (c *Categorizer) Suggest(description string) expense.Category {
	if m, ok := c.engine.Match(description); ok {
		return m.Category
	}
	if m, ok := c.fuzzy.Match(description, c.threshold); ok {
		return m.Category
	}
	return expense.CategoryOther
}

// Suggestions ranks every candidate category, one entry per category. The
// list is never empty.
func (c *Categorizer) Suggestions(description string) []Suggestion {
	var out []Suggestion
	seen := make(map[expense.Category]bool)

	for _, m := range c.engine.MatchAll(description) {
		if seen[m.Category] {
			continue
		}
		seen[m.Category] = true
		out = append(out, Suggestion{Category: m.Category, Score: 100, Source: SourceKeyword, Pattern: m.Pattern})
	}

	var fuzzyHits []Suggestion
	for _, m := range c.fuzzy.MatchAll(description, c.threshold) {
		if seen[m.Category] {
			continue
		}
		seen[m.Category] = true
		fuzzyHits = append(fuzzyHits, Suggestion{Category: m.Category, Score: m.Score, Source: SourceFuzzy, Pattern: m.Pattern})
	}
	slices.SortStableFunc(fuzzyHits, func(a, b Suggestion) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return categoryRank(a.Category) - categoryRank(b.Category)
	})
	out = append(out, fuzzyHits...)

	if len(out) == 0 {
		out = append(out, Suggestion{Category: expense.CategoryOther, Source: SourceDefault})
	}
	return out
}
