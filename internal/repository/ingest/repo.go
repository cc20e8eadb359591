// Package ingest writes documents and their FT indexes to the store. It is
// used by the corpus loader, not by the query path.
package ingest

import (
	"context"
	"fmt"

	"github.com/fixhub-ai/partsearch/internal/db"
	"github.com/fixhub-ai/partsearch/internal/domain"
	"github.com/fixhub-ai/partsearch/internal/domain/collection"
	"github.com/fixhub-ai/partsearch/internal/domain/collection/field"
)

// HNSWConfig tunes the vector index build.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// store is the consumer-side contract this repository needs.
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo persists documents for one vector dimension.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates an ingest repository.
func New(s store, vectorDim int) *Repo {
	return &Repo{
		store:     s,
		vectorDim: vectorDim,
		hnsw:      HNSWConfig{M: 32, EFConstruct: 400},
	}
}

// WithHNSW overrides the HNSW build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the collection's FT index if it does not exist yet.
// The schema mirrors the collection descriptor plus the vector field.
func (r *Repo) EnsureIndex(ctx context.Context, col collection.Collection) error {
	name := indexName(col.Name())

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	b := db.NewIndex(name).Prefix(keyPrefix(col.Name()))
	for _, f := range col.Fields() {
		if f.FieldType() == field.Numeric {
			b.Numeric(f.Name())
		} else {
			b.Tag(f.Name())
		}
	}
	b.VectorHNSW("__vector", r.vectorDim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct)

	def, err := b.Build()
	if err != nil {
		return fmt.Errorf("build index %s: %w", name, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// RebuildIndex drops and recreates the collection's FT index.
func (r *Repo) RebuildIndex(ctx context.Context, col collection.Collection) error {
	name := indexName(col.Name())
	if err := r.store.DropIndex(ctx, name); err != nil {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return r.EnsureIndex(ctx, col)
}

// UpsertBatch writes a batch of documents as hashes in one pipeline.
func (r *Repo) UpsertBatch(ctx context.Context, collectionName string, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(docs))
	for i, doc := range docs {
		if len(doc.Vector) != r.vectorDim {
			return fmt.Errorf("document %s: vector dim %d, want %d", doc.ID, len(doc.Vector), r.vectorDim)
		}
		items[i] = db.HashSetItem{
			Key:    keyPrefix(collectionName) + doc.ID,
			Fields: docToFields(doc),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert batch in %s: %w", collectionName, err)
	}
	return nil
}

func indexName(collectionName string) string {
	return domain.KeyPrefix + collectionName + ":idx"
}

func keyPrefix(collectionName string) string {
	return domain.KeyPrefix + collectionName + ":"
}
