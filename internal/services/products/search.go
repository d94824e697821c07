package products

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

const defaultTopK = 3

// Error is the catalog-search capability's typed failure.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Searcher is the catalog-search capability contract the planner depends on.
type Searcher interface {
	Search(ctx context.Context, query string) (*model.ProductSearchResult, error)
}

// NewSearcher builds a searcher from the configured provider tag. "memory"
// scores the seeded catalog lexically; a real vector index slots in behind the
// same interface.
func NewSearcher(provider string) (Searcher, error) {
	switch provider {
	case "memory", "fake":
		return NewMemorySearcher(seedCatalog), nil
	default:
		return nil, fmt.Errorf("unsupported product search provider %q", provider)
	}
}

// MemorySearcher ranks catalog items by token overlap with the query.
type MemorySearcher struct {
	catalog []CatalogItem
}

func NewMemorySearcher(catalog []CatalogItem) *MemorySearcher {
	return &MemorySearcher{catalog: catalog}
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

func (s *MemorySearcher) Search(ctx context.Context, query string) (*model.ProductSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &Error{Message: "Query cannot be empty."}
	}

	queryTokens := tokenPattern.FindAllString(strings.ToLower(query), -1)
	if len(queryTokens) == 0 {
		return nil, &Error{Message: "Query has no searchable terms."}
	}

	type scored struct {
		item  CatalogItem
		score float64
	}
	var matches []scored
	for _, item := range s.catalog {
		score := scoreItem(item, queryTokens)
		if score > 0 {
			matches = append(matches, scored{item: item, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	hits := make([]model.ProductHit, 0, defaultTopK)
	for _, m := range matches {
		if len(hits) >= defaultTopK {
			break
		}
		hits = append(hits, model.ProductHit{
			Title: m.item.Title,
			Score: m.score,
			Price: m.item.Price,
		})
	}

	return &model.ProductSearchResult{
		Query:   query,
		TopK:    hits,
		Summary: buildSummary(hits),
	}, nil
}

func scoreItem(item CatalogItem, queryTokens []string) float64 {
	haystack := map[string]bool{}
	for _, t := range tokenPattern.FindAllString(strings.ToLower(item.Title), -1) {
		haystack[t] = true
	}
	haystack[strings.ToLower(item.Category)] = true
	for _, t := range item.Tags {
		haystack[strings.ToLower(t)] = true
	}

	matched := 0
	for _, t := range queryTokens {
		if haystack[t] {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return float64(matched) / float64(len(queryTokens))
}

func buildSummary(hits []model.ProductHit) string {
	if len(hits) == 0 {
		return ""
	}
	low, high := hits[0].Price, hits[0].Price
	for _, h := range hits[1:] {
		if h.Price < low {
			low = h.Price
		}
		if h.Price > high {
			high = h.Price
		}
	}
	if low == high {
		return fmt.Sprintf("%d matching items at RM%.0f.", len(hits), low)
	}
	return fmt.Sprintf("%d matching items between RM%.0f and RM%.0f.", len(hits), low, high)
}

var _ Searcher = (*MemorySearcher)(nil)
