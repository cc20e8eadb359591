// Package rerank applies deterministic business ordering on top of fused
// relevance scores. Order changes, scores do not.
package rerank

import (
	"math"
	"sort"

	"github.com/fixhub-ai/partsearch/internal/domain/collection"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
)

// Item pairs a fused result with the collection it came from.
type Item struct {
	Result     result.Result
	Collection collection.Collection
}

// difficultyOrder ranks guide difficulty ascending; unknown values sort last.
var difficultyOrder = map[string]int{
	"easy":   0,
	"medium": 1,
	"hard":   2,
}

// Rerank orders items by coarse score band first, then by per-kind business
// keys, then by document id. The returned ranks are a permutation 0..n-1 and
// every final score is the untouched fusion score.
func Rerank(items []Item) []result.Ranked {
	sorted := make([]Item, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	ranked := make([]result.Ranked, len(sorted))
	for i, it := range sorted {
		ranked[i] = result.NewRanked(it.Result, it.Collection.Name(), i)
	}
	return ranked
}

func less(a, b Item) bool {
	ba, bb := band(a.Result.Score()), band(b.Result.Score())
	if ba != bb {
		return ba > bb
	}

	if a.Collection.Kind() == b.Collection.Kind() {
		switch a.Collection.Kind() {
		case collection.KindPart:
			if c := comparePart(a.Result, b.Result); c != 0 {
				return c < 0
			}
		case collection.KindGuide:
			if c := compareGuide(a.Result, b.Result); c != 0 {
				return c < 0
			}
		}
	}

	return a.Result.ID() < b.Result.ID()
}

// band buckets a [0,1] score into coarse 0.1-wide bands so near-equal
// scores do not pretend to a precision the fusion math never had.
func band(score float64) int {
	return int(math.Floor(score * 10))
}

// comparePart orders part records: in stock first, rating descending,
// price ascending.
func comparePart(a, b result.Result) int {
	as, bs := inStock(a), inStock(b)
	if as != bs {
		if as {
			return -1
		}
		return 1
	}

	ar, br := a.Numerics()["rating"], b.Numerics()["rating"]
	if ar != br {
		if ar > br {
			return -1
		}
		return 1
	}

	ap, bp := priceOf(a), priceOf(b)
	if ap != bp {
		if ap < bp {
			return -1
		}
		return 1
	}
	return 0
}

// compareGuide orders guide chunks: video-backed first, easier first.
func compareGuide(a, b result.Result) int {
	av, bv := hasVideo(a), hasVideo(b)
	if av != bv {
		if av {
			return -1
		}
		return 1
	}

	ad, bd := difficultyRank(a), difficultyRank(b)
	if ad != bd {
		if ad < bd {
			return -1
		}
		return 1
	}
	return 0
}

func inStock(r result.Result) bool {
	return r.Tags()["stock_status"] == "in_stock"
}

func hasVideo(r result.Result) bool {
	return r.Tags()["has_video"] == "true"
}

func difficultyRank(r result.Result) int {
	if rank, ok := difficultyOrder[r.Tags()["difficulty"]]; ok {
		return rank
	}
	return len(difficultyOrder)
}

// priceOf treats a missing price as most expensive so priced parts
// surface ahead of unpriced ones.
func priceOf(r result.Result) float64 {
	if p, ok := r.Numerics()["price"]; ok {
		return p
	}
	return math.MaxFloat64
}
