package domain

import "errors"

var (
	// ErrUnsupportedIntent signals an intent with no collection mapping.
	// Surfaced to the caller as a scope rejection, not a crash.
	ErrUnsupportedIntent = errors.New("unsupported intent")
	// ErrCollectionUnavailable signals that a collection's store or index is unreachable.
	ErrCollectionUnavailable = errors.New("collection unavailable")
	// ErrCollectionNotFound signals an unknown collection name.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrKeywordIndexNotReady signals that the BM25 index for a collection has not been built.
	ErrKeywordIndexNotReady = errors.New("keyword index not ready")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals a rate limit hit at the embedding provider.
	ErrRateLimited = errors.New("rate limited")
)
