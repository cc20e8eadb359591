package db

import "github.com/fixhub-ai/partsearch/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search. Filters are applied by
// the store before ranking so the search space shrinks first.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
