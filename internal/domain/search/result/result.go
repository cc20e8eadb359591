// Package result defines search hits and their ranked form.
package result

// Kind identifies which signal produced a result's score.
type Kind string

// Score kinds.
const (
	Vector  Kind = "vector"
	Keyword Kind = "keyword"
	Hybrid  Kind = "hybrid"
)

// Result is a single search hit with its metadata snapshot.
// Produced per query, never persisted beyond the response.
type Result struct {
	id       string
	score    float64
	kind     Kind
	text     string
	tags     map[string]string
	numerics map[string]float64
}

// New creates a search result.
func New(
	id string, score float64, kind Kind, text string,
	tags map[string]string, numerics map[string]float64,
) Result {
	return Result{id: id, score: score, kind: kind, text: text, tags: tags, numerics: numerics}
}

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Score returns the relevance score.
func (r Result) Score() float64 { return r.score }

// ScoreKind returns the signal that produced the score.
func (r Result) ScoreKind() Kind { return r.kind }

// Text returns the document text.
func (r Result) Text() string { return r.text }

// Tags returns the document tag fields.
func (r Result) Tags() map[string]string { return r.tags }

// Numerics returns the document numeric fields.
func (r Result) Numerics() map[string]float64 { return r.numerics }

// WithScore returns a copy of the result rescored under a new kind.
func (r Result) WithScore(score float64, kind Kind) Result {
	r.score = score
	r.kind = kind
	return r
}

// Ranked is a Result after fusion and reranking, annotated with the
// collection it came from. FinalScore stays on the fused [0,1] scale;
// reranking changes order, not score.
type Ranked struct {
	Result
	collection string
	finalRank  int
}

// NewRanked annotates a result with its source collection and final rank.
func NewRanked(r Result, collection string, rank int) Ranked {
	return Ranked{Result: r, collection: collection, finalRank: rank}
}

// Collection returns the source collection name.
func (r Ranked) Collection() string { return r.collection }

// FinalRank returns the position in the reranked list.
func (r Ranked) FinalRank() int { return r.finalRank }

// FinalScore returns the fused relevance score.
func (r Ranked) FinalScore() float64 { return r.Score() }
