// Package index provides the in-memory BM25 keyword index backing the
// keyword leg of hybrid search. One inverted index is kept per collection,
// built at warm-up from the store's documents.
package index

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fixhub-ai/partsearch/internal/domain"
	"github.com/fixhub-ai/partsearch/internal/domain/search/filter"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
)

// Default BM25 parameters. K1 controls term frequency saturation,
// B controls document length normalization.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// BM25 is a thread-safe in-memory keyword index over one or more collections.
// Build replaces a collection's index wholesale; Search is lock-free between
// builds apart from a read lock.
type BM25 struct {
	k1  float64
	b   float64
	log *zap.Logger

	mu          sync.RWMutex
	collections map[string]*collectionIndex
}

type collectionIndex struct {
	docs      []indexedDoc
	docFreq   map[string]int
	avgLength float64
}

type indexedDoc struct {
	id       string
	text     string
	termFreq map[string]int
	length   int
	tags     map[string]string
	numerics map[string]float64
}

// New creates a BM25 index with the given parameters. Zero or negative
// parameters fall back to the defaults.
func New(k1, b float64, log *zap.Logger) *BM25 {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b <= 0 {
		b = DefaultB
	}
	return &BM25{
		k1:          k1,
		b:           b,
		log:         log,
		collections: make(map[string]*collectionIndex),
	}
}

// Build indexes the documents of a collection, replacing any prior index.
func (idx *BM25) Build(collection string, docs []domain.Document) {
	ci := &collectionIndex{
		docs:    make([]indexedDoc, 0, len(docs)),
		docFreq: make(map[string]int),
	}

	totalLen := 0
	for _, d := range docs {
		tokens := tokenize(d.Text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			ci.docFreq[tok]++
		}
		totalLen += len(tokens)
		ci.docs = append(ci.docs, indexedDoc{
			id:       d.ID,
			text:     d.Text,
			termFreq: tf,
			length:   len(tokens),
			tags:     d.Tags,
			numerics: d.Numerics,
		})
	}
	if len(ci.docs) > 0 {
		ci.avgLength = float64(totalLen) / float64(len(ci.docs))
	}

	idx.mu.Lock()
	idx.collections[collection] = ci
	idx.mu.Unlock()

	idx.log.Debug("keyword index built",
		zap.String("collection", collection),
		zap.Int("documents", len(ci.docs)),
		zap.Int("terms", len(ci.docFreq)),
	)
}

// Ready reports whether a collection's index has been built.
func (idx *BM25) Ready(collection string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.collections[collection]
	return ok
}

// Search scores the collection's documents against the query and returns the
// top k hits ordered by score descending, ties broken by document id
// ascending. Filters are applied before scoring, never after. Returns
// domain.ErrKeywordIndexNotReady if the collection has not been built.
func (idx *BM25) Search(collection, query string, filters filter.Expression, topK int) ([]result.Result, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top k must be positive, got %d", topK)
	}

	idx.mu.RLock()
	ci, ok := idx.collections[collection]
	idx.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", collection, domain.ErrKeywordIndexNotReady)
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 || len(ci.docs) == 0 {
		return nil, nil
	}

	type scored struct {
		doc   *indexedDoc
		score float64
	}
	hits := make([]scored, 0, topK)

	n := float64(len(ci.docs))
	for i := range ci.docs {
		doc := &ci.docs[i]
		if !filters.Matches(doc.tags, doc.numerics) {
			continue
		}

		score := 0.0
		for _, tok := range queryTokens {
			tf := doc.termFreq[tok]
			if tf == 0 {
				continue
			}
			df := float64(ci.docFreq[tok])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			num := idf * float64(tf) * (idx.k1 + 1)
			den := float64(tf) + idx.k1*(1-idx.b+idx.b*float64(doc.length)/ci.avgLength)
			score += num / den
		}
		if score > 0 {
			hits = append(hits, scored{doc: doc, score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].doc.id < hits[j].doc.id
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, result.New(
			h.doc.id, h.score, result.Keyword, h.doc.text, h.doc.tags, h.doc.numerics,
		))
	}
	return results, nil
}

// tokenize lowercases and splits on whitespace. Exact tokens like part
// numbers and error codes survive intact, which is the point of the
// keyword leg.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
