// Package search adapts the store's KNN search and hash reads to the
// domain's result and document types.
package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fixhub-ai/partsearch/internal/db"
	"github.com/fixhub-ai/partsearch/internal/domain"
	"github.com/fixhub-ai/partsearch/internal/domain/collection"
	"github.com/fixhub-ai/partsearch/internal/domain/collection/field"
	"github.com/fixhub-ai/partsearch/internal/domain/search/filter"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo implements vector search and document loading for the retrieval layer.
type Repo struct {
	store    store
	registry *collection.Registry
}

// New creates a search repository. The registry supplies each collection's
// metadata schema for typing read-back hash fields.
func New(s store, reg *collection.Registry) *Repo {
	return &Repo{store: s, registry: reg}
}

// IndexName returns the FT index name for a collection.
func IndexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}

// keyPrefix returns the hash key prefix for a collection's documents.
func keyPrefix(collection string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)
}

// SearchVector performs a KNN similarity search on a collection. Filters are
// passed to the store as pre-filters, never applied after ranking.
func (r *Repo) SearchVector(
	ctx context.Context, collection string,
	vector []float32, filters filter.Expression, topK int,
) ([]result.Result, error) {
	q := &db.KNNQuery{
		IndexName: IndexName(collection),
		Filters:   filters,
		Vector:    vector,
		K:         topK,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", collection, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	col, _ := r.registry.Get(collection)
	prefix := keyPrefix(collection)
	results := make([]result.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		docID := strings.TrimPrefix(entry.Key, prefix)
		text, tags, numerics := splitFields(col, entry.Fields)
		results = append(results, result.New(docID, entry.Score, result.Vector, text, tags, numerics))
	}
	return results, nil
}

// LoadDocuments reads every document of a collection from the store,
// ordered by id. Used to build the keyword index at warm-up.
func (r *Repo) LoadDocuments(ctx context.Context, collection string) ([]domain.Document, error) {
	prefix := keyPrefix(collection)
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	sort.Strings(keys)

	col, _ := r.registry.Get(collection)
	docs := make([]domain.Document, 0, len(keys))
	for _, key := range keys {
		fields, err := r.store.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if len(fields) == 0 {
			continue
		}
		text, tags, numerics := splitFields(col, fields)
		docs = append(docs, domain.Document{
			ID:       strings.TrimPrefix(key, prefix),
			Text:     text,
			Tags:     tags,
			Numerics: numerics,
		})
	}
	return docs, nil
}

// splitFields separates a flat hash into text, tag and numeric fields,
// typed by the collection schema. Digit-only tag values (part identifiers
// like manufacturer_number) must stay tags, so keys absent from the schema
// or whose numeric value fails to parse fall back to tag.
func splitFields(col collection.Collection, fields map[string]string) (string, map[string]string, map[string]float64) {
	var text string
	tags := make(map[string]string)
	numerics := make(map[string]float64)

	for k, v := range fields {
		switch k {
		case "__text":
			text = v
		case "__vector":
			// raw embedding bytes, not metadata
		default:
			if f, ok := col.FieldByName(k); ok && f.FieldType() == field.Numeric {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					numerics[k] = n
					continue
				}
			}
			tags[k] = v
		}
	}
	return text, tags, numerics
}
