package partsearch

import (
	"errors"
	"fmt"
)

// Error codes returned by the API.
const (
	CodeBadRequest           = "bad_request"
	CodeValidationFailed     = "validation_failed"
	CodeUnauthorized         = "unauthorized"
	CodeUnsupportedIntent    = "unsupported_intent"
	CodeCollectionNotFound   = "collection_not_found"
	CodeRateLimited          = "rate_limited"
	CodeEmbeddingProvider    = "embedding_provider_error"
	CodeRetrievalUnavailable = "retrieval_unavailable"
	CodeInternalError        = "internal_error"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("partsearch: %s (%d): %s", e.Code, e.Status, e.Message)
}

// IsUnsupportedIntent reports whether err is a scope rejection.
func IsUnsupportedIntent(err error) bool { return hasCode(err, CodeUnsupportedIntent) }

// IsRateLimited reports whether err is an embedding provider rate limit.
func IsRateLimited(err error) bool { return hasCode(err, CodeRateLimited) }

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
