// Package mode defines the search strategy applied to a collection.
package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid combines keyword (BM25) and vector search. Chosen for
	// collections mixing exact tokens (error codes, part names) with prose.
	Hybrid Mode = "hybrid"
	// VectorOnly is pure embedding-similarity search, for self-contained
	// structured records with no token-exactness requirement.
	VectorOnly Mode = "vector_only"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == VectorOnly
}
