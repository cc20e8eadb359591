package partsearch

import "time"

// QueryRequest asks the engine to answer a classified query. SessionID is
// optional; the server generates one when empty and returns it in the
// response.
type QueryRequest struct {
	SessionID string            `json:"session_id,omitempty"`
	Query     string            `json:"query"`
	Intent    string            `json:"intent"`
	Entities  map[string]string `json:"entities,omitempty"`
}

// Result is one ranked hit.
type Result struct {
	ID         string             `json:"id"`
	Score      float64            `json:"score"`
	Rank       int                `json:"rank"`
	Collection string             `json:"collection"`
	Text       string             `json:"text,omitempty"`
	Tags       map[string]string  `json:"tags,omitempty"`
	Numerics   map[string]float64 `json:"numerics,omitempty"`
}

// QueryResponse is the ranked answer to a query. Results may be empty.
type QueryResponse struct {
	SessionID string   `json:"session_id"`
	Results   []Result `json:"results"`
	Total     int      `json:"total"`
}

// Turn is one recorded conversation message.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is a snapshot of one conversation's recorded state.
type Session struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
	LastQuery string `json:"last_query,omitempty"`
}

// Health reports aggregated component status.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
