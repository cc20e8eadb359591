// Corpus loader for partsearch. Reads the processed scrape output
// (<data-dir>/<collection>.json), embeds document texts and writes hashes
// plus FT indexes to the store.
//
// Usage:
//
//	loader -data-dir data/processed -workers 8 -batch-size 100
//
// Configuration (database address, embedding provider) comes from the same
// YAML config as the server, selected via ENV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fixhub-ai/partsearch/internal/config"
	dbRedis "github.com/fixhub-ai/partsearch/internal/db/redis"
	"github.com/fixhub-ai/partsearch/internal/domain"
	domcol "github.com/fixhub-ai/partsearch/internal/domain/collection"
	logpkg "github.com/fixhub-ai/partsearch/internal/logger"
	"github.com/fixhub-ai/partsearch/internal/metrics"
	"github.com/fixhub-ai/partsearch/internal/repository/embcache"
	"github.com/fixhub-ai/partsearch/internal/repository/ingest"
	openaiEmb "github.com/fixhub-ai/partsearch/internal/transport/openai"
)

type loaderConfig struct {
	dataDir   string
	workers   int
	batchSize int
	rebuild   bool
}

func parseFlags() loaderConfig {
	cfg := loaderConfig{}
	flag.StringVar(&cfg.dataDir, "data-dir", "data/processed", "directory with processed collection JSON files")
	flag.IntVar(&cfg.workers, "workers", 8, "number of parallel embedding workers")
	flag.IntVar(&cfg.batchSize, "batch-size", 100, "documents per batch upsert")
	flag.BoolVar(&cfg.rebuild, "rebuild", false, "drop and recreate FT indexes before loading")
	flag.Parse()
	return cfg
}

func main() {
	flags := parseFlags()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, flags, cfg, logger); err != nil {
		logger.Fatal("Load failed", zap.Error(err))
	}
}

func run(ctx context.Context, flags loaderConfig, cfg config.Config, logger *zap.Logger) error {
	start := time.Now()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder := embcache.New(
		base, store,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)

	repo := ingest.New(store, cfg.Embedding.Dimensions)
	registry := domcol.DefaultRegistry()

	var totalDocs int
	for _, name := range registry.Names() {
		col, _ := registry.Get(name)

		docs, err := readCollection(flags.dataDir, name)
		if err != nil {
			logger.Warn("Skipping collection", zap.String("collection", name), zap.Error(err))
			continue
		}

		if flags.rebuild {
			if err := repo.RebuildIndex(ctx, col); err != nil {
				return err
			}
		} else if err := repo.EnsureIndex(ctx, col); err != nil {
			return err
		}

		loaded, err := loadCollection(ctx, flags, repo, embedder, name, docs, logger)
		if err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		totalDocs += loaded
	}

	logger.Info("Corpus loaded",
		zap.Int("documents", totalDocs),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// loadCollection embeds documents with a worker pool and upserts them in
// batches. Documents that fail to embed abort the load; partial corpora
// produce misleading search results.
func loadCollection(
	ctx context.Context,
	flags loaderConfig,
	repo *ingest.Repo,
	embedder domain.Embedder,
	name string,
	docs []domain.Document,
	logger *zap.Logger,
) (int, error) {
	logger.Info("Loading collection",
		zap.String("collection", name),
		zap.Int("documents", len(docs)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(flags.workers)

	for i := range docs {
		i := i
		g.Go(func() error {
			res, err := embedder.Embed(gctx, docs[i].Text)
			if err != nil {
				return fmt.Errorf("embed %s: %w", docs[i].ID, err)
			}
			docs[i].Vector = res.Embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for offset := 0; offset < len(docs); offset += flags.batchSize {
		end := offset + flags.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := repo.UpsertBatch(ctx, name, docs[offset:end]); err != nil {
			return offset, err
		}
		logger.Debug("Batch upserted",
			zap.String("collection", name),
			zap.Int("done", end),
			zap.Int("total", len(docs)),
		)
	}

	return len(docs), nil
}
