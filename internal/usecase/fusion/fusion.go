// Package fusion merges the keyword and vector result lists of a single
// collection into one ordered list on a shared [0,1] scale.
package fusion

import (
	"sort"

	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
)

// Weights controls the contribution of each signal to the fused score.
type Weights struct {
	Keyword float64
	Vector  float64
}

// DefaultWeights splits the two signals evenly.
func DefaultWeights() Weights {
	return Weights{Keyword: 0.5, Vector: 0.5}
}

// Fuse combines keyword and vector results. Each list's scores are min-max
// normalized independently; a document missing from one list contributes 0
// for that signal, so agreement between signals is rewarded without
// disqualifying single-signal matches. Output is sorted by fused score
// descending, ties broken by document id ascending.
//
// An empty keyword list degrades to pure vector ranking with the vector
// score kind kept, never an error.
func Fuse(keyword, vector []result.Result, w Weights) []result.Result {
	if len(keyword) == 0 {
		return sortResults(append([]result.Result{}, vector...))
	}

	kwNorm := normalize(keyword)
	vecNorm := normalize(vector)

	merged := make(map[string]result.Result, len(keyword)+len(vector))
	fused := make(map[string]float64, len(keyword)+len(vector))

	for i, r := range vector {
		merged[r.ID()] = r
		fused[r.ID()] = w.Vector * vecNorm[i]
	}
	for i, r := range keyword {
		if _, ok := merged[r.ID()]; !ok {
			merged[r.ID()] = r
		}
		fused[r.ID()] += w.Keyword * kwNorm[i]
	}

	results := make([]result.Result, 0, len(merged))
	for id, r := range merged {
		results = append(results, r.WithScore(fused[id], result.Hybrid))
	}
	return sortResults(results)
}

// normalize min-max scales a list's scores to [0,1]. A single-element list
// or an all-equal list maps to 1.0.
func normalize(results []result.Result) []float64 {
	if len(results) == 0 {
		return nil
	}

	lo, hi := results[0].Score(), results[0].Score()
	for _, r := range results[1:] {
		if r.Score() < lo {
			lo = r.Score()
		}
		if r.Score() > hi {
			hi = r.Score()
		}
	}

	norm := make([]float64, len(results))
	if hi == lo {
		for i := range norm {
			norm[i] = 1.0
		}
		return norm
	}
	for i, r := range results {
		norm[i] = (r.Score() - lo) / (hi - lo)
	}
	return norm
}

func sortResults(results []result.Result) []result.Result {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		return results[i].ID() < results[j].ID()
	})
	return results
}
