// Package search runs full-text queries over one owner's expense
// descriptions with an in-memory Bleve index.
package search

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrEmptyQuery = errors.New("search text is required")

// Query selects records whose description matches Text, tolerating one typo
// per word. Category narrows the result when set.
type Query struct {
	Text     string
	Category *expense.Category
	Limit    int
}

// Hit is a matching record with its relevance score.
type Hit struct {
	Expense expense.Expense `json:"expense"`
	Score   float64         `json:"score"`
}

type document struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Index holds a set of records for searching.
type Index struct {
	mu      sync.RWMutex
	index   bleve.Index
	records map[string]expense.Expense
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = simple.Name

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("description", text)
	doc.AddFieldMappingsAt("category", exact)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = simple.Name
	return im
}

// NewIndex indexes records in memory.
func NewIndex(records []expense.Expense) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	si := &Index{index: idx, records: make(map[string]expense.Expense, len(records))}
	batch := idx.NewBatch()
	for _, r := range records {
		id := r.ID.String()
		si.records[id] = r
		if err := batch.Index(id, document{Description: r.Description, Category: string(r.Category)}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index expense %s: %w", id, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to execute batch index: %w", err)
	}
	return si, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// Search returns the matching records, most relevant first.
func (si *Index) Search(q Query) ([]Hit, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}

	match := bleve.NewMatchQuery(text)
	match.SetField("description")
	match.SetFuzziness(1)

	prefix := bleve.NewPrefixQuery(strings.ToLower(text))
	prefix.SetField("description")

	var root query.Query = bleve.NewDisjunctionQuery(match, prefix)
	if q.Category != nil {
		term := bleve.NewTermQuery(string(*q.Category))
		term.SetField("category")
		root = bleve.NewConjunctionQuery(root, term)
	}

	req := bleve.NewSearchRequest(root)
	req.Size = clampLimit(q.Limit)

	si.mu.RLock()
	defer si.mu.RUnlock()

	res, err := si.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		if r, ok := si.records[h.ID]; ok {
			hits = append(hits, Hit{Expense: r, Score: h.Score})
		}
	}
	return hits, nil
}

// DocumentCount returns the number of indexed records.
func (si *Index) DocumentCount() (uint64, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.index.DocCount()
}

func (si *Index) Close() error {
	si.mu.Lock()
	defer si.mu.Unlock()
	return si.index.Close()
}

// Run indexes records, runs q and releases the index.
func Run(records []expense.Expense, q Query) ([]Hit, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	si, err := NewIndex(records)
	if err != nil {
		return nil, err
	}
	defer si.Close()
	return si.Search(q)
}
