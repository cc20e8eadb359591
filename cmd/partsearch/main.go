package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fixhub-ai/partsearch/internal/config"
	dbRedis "github.com/fixhub-ai/partsearch/internal/db/redis"
	"github.com/fixhub-ai/partsearch/internal/domain"
	domcol "github.com/fixhub-ai/partsearch/internal/domain/collection"
	"github.com/fixhub-ai/partsearch/internal/domain/search/mode"
	"github.com/fixhub-ai/partsearch/internal/index"
	logpkg "github.com/fixhub-ai/partsearch/internal/logger"
	"github.com/fixhub-ai/partsearch/internal/metrics"
	"github.com/fixhub-ai/partsearch/internal/repository/embcache"
	searchrepo "github.com/fixhub-ai/partsearch/internal/repository/search"
	chiTransport "github.com/fixhub-ai/partsearch/internal/transport/chi"
	openaiEmb "github.com/fixhub-ai/partsearch/internal/transport/openai"
	"github.com/fixhub-ai/partsearch/internal/usecase/fusion"
	healthuc "github.com/fixhub-ai/partsearch/internal/usecase/health"
	"github.com/fixhub-ai/partsearch/internal/usecase/retrieve"
	"github.com/fixhub-ai/partsearch/internal/usecase/router"
	"github.com/fixhub-ai/partsearch/internal/usecase/session"
	"github.com/fixhub-ai/partsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting partsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	embedder := buildEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	registry := domcol.DefaultRegistry()
	searchRepo := searchrepo.New(store, registry)
	keywordIndex := index.New(cfg.Retrieval.BM25K1, cfg.Retrieval.BM25B, logger)

	// Warm the keyword index in the background; until a collection is
	// built, hybrid searches on it fall back to vector ranking.
	hybridCollections := hybridNames(registry)
	go warmKeywordIndex(ctx, searchRepo, keywordIndex, hybridCollections, logger)

	sessions := session.New(
		cfg.Session.HistorySize,
		time.Duration(cfg.Session.IdleTTLMin)*time.Minute,
		logger,
	)

	retrieveSvc := retrieve.New(
		router.New(registry, logger),
		registry,
		searchRepo,
		keywordIndex,
		embedder,
		sessions,
		retrieve.Options{
			TopK: cfg.Retrieval.TopK,
			Weights: fusion.Weights{
				Keyword: cfg.Retrieval.KeywordWeight,
				Vector:  cfg.Retrieval.VectorWeight,
			},
			CollectionTimeout: time.Duration(cfg.Retrieval.CollectionTimeoutSec) * time.Second,
			MaxAttempts:       cfg.Retrieval.MaxAttempts,
		},
		logger,
	)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder), keywordIndex, hybridCollections)

	server := chiTransport.NewServer(retrieveSvc, sessions, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached.
func buildEmbedder(cfg config.Config, store *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	ttl := time.Duration(cfg.Embedding.CacheTTLSec) * time.Second
	return embcache.New(base, store, ttl, metrics.EmbeddingCacheTotal, logger)
}

// hybridNames lists the collections that carry a keyword index.
func hybridNames(registry *domcol.Registry) []string {
	var names []string
	for _, name := range registry.Names() {
		if col, ok := registry.Get(name); ok && col.Mode() == mode.Hybrid {
			names = append(names, name)
		}
	}
	return names
}

// warmKeywordIndex loads each hybrid collection's documents from the store
// and builds its BM25 index.
func warmKeywordIndex(
	ctx context.Context,
	repo *searchrepo.Repo,
	idx *index.BM25,
	collections []string,
	logger *zap.Logger,
) {
	for _, name := range collections {
		start := time.Now()
		docs, err := repo.LoadDocuments(ctx, name)
		if err != nil {
			logger.Error("Failed to load documents for keyword index",
				zap.String("collection", name),
				zap.Error(err),
			)
			continue
		}
		idx.Build(name, docs)
		logger.Info("Keyword index built",
			zap.String("collection", name),
			zap.Int("documents", len(docs)),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWith(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
