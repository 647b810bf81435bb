package categorization

import (
	"slices"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
)

// minFuzzyLength keeps short words like "BAR" or "BUS" out of fuzzy
// comparison where one edit changes the meaning.
const minFuzzyLength = 4

// FuzzyMatch is a description word close to a keyword.
type FuzzyMatch struct {
	Word     string
	Pattern  string
	Category expense.Category
	Score    int // 0-100
	Distance int
}

// FuzzyMatcher catches misspellings ("Netflx", "resturant") that the exact
// keyword pass misses. Only single-word keywords take part.
type FuzzyMatcher struct {
	mu       sync.RWMutex
	patterns []Keyword
}

func NewFuzzyMatcher(kw []Keyword) *FuzzyMatcher {
	fm := &FuzzyMatcher{}
	fm.Build(kw)
	return fm
}

func (fm *FuzzyMatcher) Build(kw []Keyword) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	fm.patterns = fm.patterns[:0]
	for _, k := range kw {
		p := strings.TrimSpace(normalize(k.Pattern))
		if len(p) < minFuzzyLength || strings.Contains(p, " ") || !k.Category.Valid() {
			continue
		}
		fm.patterns = append(fm.patterns, Keyword{Pattern: p, Category: k.Category})
	}
}

// MatchAll returns, for every description word, its best keyword scoring
// at least threshold. Results are sorted by score, highest first.
func (fm *FuzzyMatcher) MatchAll(description string, threshold int) []FuzzyMatch {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	var out []FuzzyMatch
	for _, word := range strings.Fields(normalize(description)) {
		if len(word) < minFuzzyLength {
			continue
		}
		var best *FuzzyMatch
		for _, p := range fm.patterns {
			score := fuzzyScore(word, p.Pattern)
			if score < threshold || (best != nil && score <= best.Score) {
				continue
			}
			best = &FuzzyMatch{
				Word:     word,
				Pattern:  p.Pattern,
				Category: p.Category,
				Score:    score,
				Distance: fuzzy.LevenshteinDistance(word, p.Pattern),
			}
		}
		if best != nil {
			out = append(out, *best)
		}
	}
	slices.SortStableFunc(out, func(a, b FuzzyMatch) int { return b.Score - a.Score })
	return out
}

// Match returns the best fuzzy hit of description.
func (fm *FuzzyMatcher) Match(description string, threshold int) (FuzzyMatch, bool) {
	all := fm.MatchAll(description, threshold)
	if len(all) == 0 {
		return FuzzyMatch{}, false
	}
	return all[0], true
}

// fuzzyScore rates the similarity of two upper-case words from 0 to 100.
// A word that glues a keyword longer than four letters to a suffix
// ("NETFLIXCOM") scores 90.
func fuzzyScore(word, pattern string) int {
	if word == pattern {
		return 100
	}
	if len(pattern) > minFuzzyLength && strings.HasPrefix(word, pattern) {
		return 90
	}
	maxLen := max(len(word), len(pattern))
	distance := fuzzy.LevenshteinDistance(word, pattern)
	return max(100*(maxLen-distance)/maxLen, 0)
}
