package retrieve

import (
	"context"

	"github.com/fixhub-ai/partsearch/internal/domain"
	"github.com/fixhub-ai/partsearch/internal/domain/intent"
	"github.com/fixhub-ai/partsearch/internal/domain/search/filter"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
	"github.com/fixhub-ai/partsearch/internal/usecase/router"
	"github.com/fixhub-ai/partsearch/internal/usecase/session"
)

// VectorSearcher runs KNN search against the document store.
type VectorSearcher interface {
	SearchVector(
		ctx context.Context, collection string,
		vector []float32, filters filter.Expression, topK int,
	) ([]result.Result, error)
}

// KeywordSearcher runs BM25 search against the in-memory index.
type KeywordSearcher interface {
	Search(collection, query string, filters filter.Expression, topK int) ([]result.Result, error)
}

// Embedder vectorizes the query text once per fresh search.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Router resolves an intent to its ordered search targets.
type Router interface {
	Route(in intent.Intent, entities map[string]string) ([]router.Target, error)
}

// ContextStore is the conversation state consulted before and updated after
// every retrieval.
type ContextStore interface {
	Resolve(sessionID, query string, newFilters filter.Expression) session.Decision
	RecordSearch(sessionID, query string, filters filter.Expression, results []result.Ranked)
}
