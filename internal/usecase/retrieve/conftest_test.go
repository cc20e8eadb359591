package retrieve

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fixhub-ai/partsearch/internal/domain"
	"github.com/fixhub-ai/partsearch/internal/domain/collection"
	"github.com/fixhub-ai/partsearch/internal/domain/search/filter"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
	"github.com/fixhub-ai/partsearch/internal/index"
	"github.com/fixhub-ai/partsearch/internal/usecase/fusion"
	"github.com/fixhub-ai/partsearch/internal/usecase/router"
	"github.com/fixhub-ai/partsearch/internal/usecase/session"
)

// mockVectorStore implements VectorSearcher with per-collection canned hits.
type mockVectorStore struct {
	mu    sync.Mutex
	hits  map[string][]result.Result
	errs  map[string]error
	calls int
}

func (m *mockVectorStore) SearchVector(
	_ context.Context, collection string,
	_ []float32, _ filter.Expression, _ int,
) ([]result.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.errs[collection]; err != nil {
		return nil, err
	}
	return m.hits[collection], nil
}

func (m *mockVectorStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 5}, nil
}

type fixture struct {
	svc      *Service
	store    *mockVectorStore
	embedder *mockEmbedder
	keyword  *index.BM25
	sessions *session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	registry := collection.DefaultRegistry()
	store := &mockVectorStore{hits: map[string][]result.Result{}, errs: map[string]error{}}
	embedder := &mockEmbedder{}
	keyword := index.New(0, 0, zap.NewNop())
	sessions := session.New(10, time.Hour, zap.NewNop())

	svc := New(
		router.New(registry, zap.NewNop()),
		registry,
		store,
		keyword,
		embedder,
		sessions,
		Options{
			TopK:              10,
			Weights:           fusion.DefaultWeights(),
			CollectionTimeout: 200 * time.Millisecond,
			MaxAttempts:       1,
		},
		zap.NewNop(),
	)
	return &fixture{svc: svc, store: store, embedder: embedder, keyword: keyword, sessions: sessions}
}

func vecHit(id string, score float64, tags map[string]string, numerics map[string]float64) result.Result {
	return result.New(id, score, result.Vector, "", tags, numerics)
}
