// Package domain holds types and contracts shared between layers.
package domain

// KeyPrefix namespaces every key the engine writes to the store.
const KeyPrefix = "ps:"

// Document is an indexed record inside a collection. Documents are produced
// by the ingestion pipeline and are read-only to the engine.
type Document struct {
	ID       string
	Text     string
	Tags     map[string]string
	Numerics map[string]float64
	Vector   []float32
}
