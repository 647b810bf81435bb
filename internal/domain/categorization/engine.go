// Package categorization suggests an expense category from a free-text
// description.
package categorization

import (
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
)

// Match is a keyword found in a description.
type Match struct {
	Pattern  string
	Category expense.Category
}

// Engine finds every keyword of a description in a single pass using the
// Aho-Corasick automaton. Keywords only match whole words.
type Engine struct {
	mu       sync.RWMutex
	matcher  *ahocorasick.Matcher
	patterns []string
	metadata [][]Match
}

func NewEngine(kw []Keyword) *Engine {
	e := &Engine{}
	e.Build(kw)
	return e
}

// normalize upper-cases s, turns every non-alphanumeric rune into a space
// and pads the result so that " WORD " matches at the edges too.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// Build replaces the keyword set. Duplicate patterns keep every category
// they were declared with.
func (e *Engine) Build(kw []Keyword) {
	e.mu.Lock()
	defer e.mu.Unlock()

	index := make(map[string]int, len(kw))
	patterns := make([]string, 0, len(kw))
	metadata := make([][]Match, 0, len(kw))

	for _, k := range kw {
		key := normalize(k.Pattern)
		if strings.TrimSpace(key) == "" || !k.Category.Valid() {
			continue
		}
		m := Match{Pattern: strings.TrimSpace(key), Category: k.Category}
		if i, ok := index[key]; ok {
			metadata[i] = append(metadata[i], m)
			continue
		}
		index[key] = len(patterns)
		patterns = append(patterns, key)
		metadata = append(metadata, []Match{m})
	}

	e.patterns = patterns
	e.metadata = metadata
	e.matcher = nil
	if len(patterns) > 0 {
		e.matcher = ahocorasick.NewStringMatcher(patterns)
	}
}

// MatchAll returns every keyword found in description, longest pattern
// first.
func (e *Engine) MatchAll(description string) []Match {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return nil
	}
	hits := e.matcher.Match([]byte(normalize(description)))
	var out []Match
	for _, idx := range hits {
		if idx >= 0 && idx < len(e.metadata) {
			out = append(out, e.metadata[idx]...)
		}
	}
	slices.SortStableFunc(out, func(a, b Match) int {
		if len(a.Pattern) != len(b.Pattern) {
			return len(b.Pattern) - len(a.Pattern)
		}
		return categoryRank(a.Category) - categoryRank(b.Category)
	})
	return out
}

// Match returns the most specific keyword of description.
func (e *Engine) Match(description string) (Match, bool) {
	all := e.MatchAll(description)
	if len(all) == 0 {
		return Match{}, false
	}
	return all[0], true
}

// PatternCount returns the number of distinct patterns loaded.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

func categoryRank(c expense.Category) int {
	if i := slices.Index(expense.Categories, c); i >= 0 {
		return i
	}
	return len(expense.Categories)
}
