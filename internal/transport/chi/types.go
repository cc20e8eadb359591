package chi

import "time"

// ErrorCode identifies an error class in API responses.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeUnauthorized         ErrorCode = "unauthorized"
	CodeUnsupportedIntent    ErrorCode = "unsupported_intent"
	CodeCollectionNotFound   ErrorCode = "collection_not_found"
	CodeRateLimited          ErrorCode = "rate_limited"
	CodeEmbeddingProvider    ErrorCode = "embedding_provider_error"
	CodeRetrievalUnavailable ErrorCode = "retrieval_unavailable"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryRequest is the body of POST /api/v1/query. Intent and entities come
// from the upstream classifier; the engine does not classify.
type QueryRequest struct {
	SessionID string            `json:"session_id,omitempty"`
	Query     string            `json:"query"`
	Intent    string            `json:"intent"`
	Entities  map[string]string `json:"entities,omitempty"`
}

// ResultItem is one ranked hit in a query response.
type ResultItem struct {
	ID         string             `json:"id"`
	Score      float64            `json:"score"`
	Rank       int                `json:"rank"`
	Collection string             `json:"collection"`
	Text       string             `json:"text,omitempty"`
	Tags       map[string]string  `json:"tags,omitempty"`
	Numerics   map[string]float64 `json:"numerics,omitempty"`
}

// QueryResponse is the body returned by POST /api/v1/query. An empty Results
// list is a valid answer.
type QueryResponse struct {
	SessionID string       `json:"session_id"`
	Results   []ResultItem `json:"results"`
	Total     int          `json:"total"`
}

// TurnRequest is the body of POST /api/v1/sessions/{id}/turns.
type TurnRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// TurnItem is one recorded conversation turn.
type TurnItem struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// SessionResponse is the body of GET /api/v1/sessions/{id}.
type SessionResponse struct {
	SessionID string     `json:"session_id"`
	Turns     []TurnItem `json:"turns"`
	LastQuery string     `json:"last_query,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
