// Package retrieve is the retrieval orchestrator: it answers a classified
// query from the conversation cache when possible and otherwise fans out
// keyword and vector searches across the routed collections, fuses, merges,
// dedupes and reranks.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fixhub-ai/partsearch/internal/domain"
	"github.com/fixhub-ai/partsearch/internal/domain/collection"
	"github.com/fixhub-ai/partsearch/internal/domain/intent"
	"github.com/fixhub-ai/partsearch/internal/domain/search/mode"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
	"github.com/fixhub-ai/partsearch/internal/metrics"
	"github.com/fixhub-ai/partsearch/internal/usecase/fusion"
	"github.com/fixhub-ai/partsearch/internal/usecase/rerank"
	"github.com/fixhub-ai/partsearch/internal/usecase/router"
	"github.com/fixhub-ai/partsearch/internal/usecase/session"
)

// Defaults applied when Options leave them unset.
const (
	DefaultTopK              = 10
	DefaultCollectionTimeout = 2 * time.Second
	DefaultMaxAttempts       = 3
)

// Options tunes the orchestrator.
type Options struct {
	TopK              int
	Weights           fusion.Weights
	CollectionTimeout time.Duration
	MaxAttempts       int
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.Weights.Keyword == 0 && o.Weights.Vector == 0 {
		o.Weights = fusion.DefaultWeights()
	}
	if o.CollectionTimeout <= 0 {
		o.CollectionTimeout = DefaultCollectionTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

// Service coordinates one retrieval request end to end.
type Service struct {
	router   Router
	registry *collection.Registry
	store    VectorSearcher
	keyword  KeywordSearcher
	embedder Embedder
	sessions ContextStore
	opts     Options
	logger   *zap.Logger
}

// New creates the orchestrator.
func New(
	rt Router,
	registry *collection.Registry,
	store VectorSearcher,
	keyword KeywordSearcher,
	embedder Embedder,
	sessions ContextStore,
	opts Options,
	logger *zap.Logger,
) *Service {
	return &Service{
		router:   rt,
		registry: registry,
		store:    store,
		keyword:  keyword,
		embedder: embedder,
		sessions: sessions,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Retrieve answers a classified query. The conversation cache is consulted
// first; a reuse or refine decision never touches the document store. An
// empty ranked list is a valid outcome, not an error.
func (s *Service) Retrieve(
	ctx context.Context, sessionID, query string,
	in intent.Intent, entities map[string]string,
) ([]result.Ranked, error) {
	targets, err := s.router.Route(in, entities)
	if err != nil {
		return nil, fmt.Errorf("route intent: %w", err)
	}

	// Filters coerced against the first target's schema stand in for the
	// query's narrowing predicates in the cache decision.
	newFilters := targets[0].Filters

	decision := s.sessions.Resolve(sessionID, query, newFilters)
	metrics.ContextDecisionsTotal.WithLabelValues(string(decision.Kind)).Inc()

	switch decision.Kind {
	case session.Reuse:
		return decision.Results, nil
	case session.Refine:
		ranked := s.rerankCached(decision.Results)
		s.sessions.RecordSearch(sessionID, query, decision.Filters, ranked)
		return ranked, nil
	}

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	perTarget := make([][]result.Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			fused, err := s.searchTarget(gctx, target, query, emb.Embedding)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				metrics.SearchesTotal.WithLabelValues(target.Collection.Name(), "degraded").Inc()
				s.logger.Warn("collection degraded, excluding from results",
					zap.String("collection", target.Collection.Name()),
					zap.Error(err),
				)
				return nil
			}
			metrics.SearchesTotal.WithLabelValues(target.Collection.Name(), "ok").Inc()
			perTarget[i] = fused
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	merged := dedupe(targets, perTarget)
	ranked := rerank.Rerank(merged)
	if len(ranked) > s.opts.TopK {
		ranked = ranked[:s.opts.TopK]
	}

	s.sessions.RecordSearch(sessionID, query, newFilters, ranked)
	return ranked, nil
}

// searchTarget runs the vector leg (with bounded retry and a per-collection
// timeout) plus, for hybrid targets, the keyword leg, and fuses the two.
func (s *Service) searchTarget(
	ctx context.Context, target router.Target, query string, vector []float32,
) ([]result.Result, error) {
	tctx, cancel := context.WithTimeout(ctx, s.opts.CollectionTimeout)
	defer cancel()

	name := target.Collection.Name()
	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(name, string(target.Mode)).Observe(time.Since(start).Seconds())
	}()

	var vectorHits []result.Result
	op := func() error {
		var err error
		vectorHits, err = s.store.SearchVector(tctx, name, vector, target.Filters, s.opts.TopK)
		return err
	}
	if err := backoff.Retry(op, s.retryPolicy(tctx)); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCollectionUnavailable, err)
	}

	if target.Mode != mode.Hybrid {
		return fusion.Fuse(nil, vectorHits, s.opts.Weights), nil
	}

	keywordHits, err := s.keyword.Search(name, query, target.Filters, s.opts.TopK)
	if err != nil {
		if !errors.Is(err, domain.ErrKeywordIndexNotReady) {
			return nil, err
		}
		metrics.FusionFallbacksTotal.WithLabelValues(name, "keyword_not_ready").Inc()
		s.logger.Warn("keyword index cold, falling back to vector ranking",
			zap.String("collection", name),
		)
		keywordHits = nil
	}

	return fusion.Fuse(keywordHits, vectorHits, s.opts.Weights), nil
}

// retryPolicy is a jittered exponential backoff bounded by MaxAttempts,
// abandoned early on context cancellation.
func (s *Service) retryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	bounded := backoff.WithMaxRetries(b, uint64(s.opts.MaxAttempts-1))
	return backoff.WithContext(bounded, ctx)
}

// dedupe merges per-target fused lists, keeping the higher-scoring instance
// when the same document id appears in more than one collection.
func dedupe(targets []router.Target, perTarget [][]result.Result) []rerank.Item {
	bestIdx := make(map[string]int)
	items := make([]rerank.Item, 0, len(targets)*8)

	for i, hits := range perTarget {
		for _, r := range hits {
			if j, seen := bestIdx[r.ID()]; seen {
				if r.Score() > items[j].Result.Score() {
					items[j] = rerank.Item{Result: r, Collection: targets[i].Collection}
				}
				continue
			}
			bestIdx[r.ID()] = len(items)
			items = append(items, rerank.Item{Result: r, Collection: targets[i].Collection})
		}
	}
	return items
}

// rerankCached re-ranks a refined subset so final ranks stay a permutation.
func (s *Service) rerankCached(cached []result.Ranked) []result.Ranked {
	items := make([]rerank.Item, 0, len(cached))
	for _, r := range cached {
		col, ok := s.registry.Get(r.Collection())
		if !ok {
			continue
		}
		items = append(items, rerank.Item{Result: r.Result, Collection: col})
	}
	return rerank.Rerank(items)
}
