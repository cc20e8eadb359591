package rerank

import (
	"testing"

	"github.com/fixhub-ai/partsearch/internal/domain/collection"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
)

func partItem(t *testing.T, id string, score float64, tags map[string]string, numerics map[string]float64) Item {
	t.Helper()
	col, ok := collection.DefaultRegistry().Get(collection.PartsRefrigerator)
	if !ok {
		t.Fatal("missing parts collection")
	}
	return Item{
		Result:     result.New(id, score, result.Hybrid, "", tags, numerics),
		Collection: col,
	}
}

func guideItem(t *testing.T, id string, score float64, tags map[string]string) Item {
	t.Helper()
	col, ok := collection.DefaultRegistry().Get(collection.RepairSymptoms)
	if !ok {
		t.Fatal("missing guide collection")
	}
	return Item{
		Result:     result.New(id, score, result.Hybrid, "", tags, nil),
		Collection: col,
	}
}

func ids(ranked []result.Ranked) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.ID()
	}
	return out
}

func assertOrder(t *testing.T, ranked []result.Ranked, want []string) {
	t.Helper()
	got := ids(ranked)
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", got, want)
		}
	}
}

func TestRerank_RanksArePermutation(t *testing.T) {
	items := []Item{
		partItem(t, "p1", 0.9, nil, nil),
		partItem(t, "p2", 0.5, nil, nil),
		partItem(t, "p3", 0.7, nil, nil),
	}

	ranked := Rerank(items)

	seen := make(map[int]bool)
	for _, r := range ranked {
		seen[r.FinalRank()] = true
	}
	for i := range items {
		if !seen[i] {
			t.Errorf("rank %d missing from permutation", i)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].FinalScore() > ranked[i-1].FinalScore() {
			bandPrev := int(ranked[i-1].FinalScore() * 10)
			bandCur := int(ranked[i].FinalScore() * 10)
			if bandCur > bandPrev {
				t.Errorf("rank inversion at %d: %f above %f", i, ranked[i].FinalScore(), ranked[i-1].FinalScore())
			}
		}
	}
}

func TestRerank_ScoresUnmodified(t *testing.T) {
	items := []Item{
		partItem(t, "p1", 0.73, nil, nil),
		partItem(t, "p2", 0.42, nil, nil),
	}

	ranked := Rerank(items)
	for _, r := range ranked {
		if r.ID() == "p1" && r.FinalScore() != 0.73 {
			t.Errorf("p1 score changed: %f", r.FinalScore())
		}
		if r.ID() == "p2" && r.FinalScore() != 0.42 {
			t.Errorf("p2 score changed: %f", r.FinalScore())
		}
	}
}

func TestRerank_BandBeatsBusinessKeys(t *testing.T) {
	// p-low has a perfect rating but sits in a lower score band.
	items := []Item{
		partItem(t, "p-low", 0.62, map[string]string{"stock_status": "in_stock"}, map[string]float64{"rating": 5.0}),
		partItem(t, "p-high", 0.78, nil, map[string]float64{"rating": 1.0}),
	}

	ranked := Rerank(items)
	assertOrder(t, ranked, []string{"p-high", "p-low"})
}

func TestRerank_PartChainWithinBand(t *testing.T) {
	// All in the same 0.7x band: stock first, then rating desc, then price
	// asc, then id asc.
	items := []Item{
		partItem(t, "out-of-stock", 0.79, map[string]string{"stock_status": "out_of_stock"}, map[string]float64{"rating": 5.0, "price": 5}),
		partItem(t, "cheap", 0.71, map[string]string{"stock_status": "in_stock"}, map[string]float64{"rating": 4.0, "price": 10}),
		partItem(t, "pricey", 0.75, map[string]string{"stock_status": "in_stock"}, map[string]float64{"rating": 4.0, "price": 80}),
		partItem(t, "top-rated", 0.70, map[string]string{"stock_status": "in_stock"}, map[string]float64{"rating": 4.8, "price": 50}),
	}

	ranked := Rerank(items)
	assertOrder(t, ranked, []string{"top-rated", "cheap", "pricey", "out-of-stock"})
}

func TestRerank_GuideChainWithinBand(t *testing.T) {
	items := []Item{
		guideItem(t, "hard-video", 0.55, map[string]string{"has_video": "true", "difficulty": "hard"}),
		guideItem(t, "easy-novideo", 0.58, map[string]string{"difficulty": "easy"}),
		guideItem(t, "easy-video", 0.51, map[string]string{"has_video": "true", "difficulty": "easy"}),
		guideItem(t, "unknown-difficulty", 0.54, map[string]string{"has_video": "true"}),
	}

	ranked := Rerank(items)
	assertOrder(t, ranked, []string{"easy-video", "hard-video", "unknown-difficulty", "easy-novideo"})
}

func TestRerank_MixedKindsFallBackToID(t *testing.T) {
	part := partItem(t, "a-part", 0.63, map[string]string{"stock_status": "in_stock"}, nil)
	guide := guideItem(t, "b-guide", 0.66, map[string]string{"has_video": "true"})

	ranked := Rerank([]Item{guide, part})
	assertOrder(t, ranked, []string{"a-part", "b-guide"})
}

func TestRerank_Deterministic(t *testing.T) {
	items := []Item{
		partItem(t, "b", 0.5, nil, nil),
		partItem(t, "a", 0.5, nil, nil),
		partItem(t, "c", 0.5, nil, nil),
	}

	first := ids(Rerank(items))
	for i := 0; i < 5; i++ {
		again := ids(Rerank(items))
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("non-deterministic order: %v vs %v", first, again)
			}
		}
	}
	assertOrder(t, Rerank(items), []string{"a", "b", "c"})
}

func TestRerank_CollectionAnnotation(t *testing.T) {
	items := []Item{guideItem(t, "g1", 0.8, nil)}

	ranked := Rerank(items)
	if ranked[0].Collection() != collection.RepairSymptoms {
		t.Errorf("expected repair_symptoms annotation, got %s", ranked[0].Collection())
	}
}

func TestRerank_Empty(t *testing.T) {
	if got := Rerank(nil); len(got) != 0 {
		t.Errorf("expected empty output, got %d", len(got))
	}
}
