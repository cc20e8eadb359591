package session

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fixhub-ai/partsearch/internal/domain/conversation"
	"github.com/fixhub-ai/partsearch/internal/domain/search/filter"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
)

func newTestStore(t *testing.T, historySize int) *Store {
	t.Helper()
	return New(historySize, time.Hour, zap.NewNop())
}

func mustTurn(t *testing.T, role conversation.Role, text string) conversation.Turn {
	t.Helper()
	turn, err := conversation.NewTurn(role, text, time.Now())
	if err != nil {
		t.Fatalf("NewTurn: %v", err)
	}
	return turn
}

func rankedPart(id string, rank int, price float64) result.Ranked {
	r := result.New(id, 0.8, result.Hybrid, "",
		map[string]string{"part_type": "dispenser"},
		map[string]float64{"price": price},
	)
	return result.NewRanked(r, "parts_refrigerator", rank)
}

func mustMatch(t *testing.T, key, value string) filter.Condition {
	t.Helper()
	c, err := filter.NewMatch(key, value)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	return c
}

func mustExpr(t *testing.T, conds ...filter.Condition) filter.Expression {
	t.Helper()
	e, err := filter.NewExpression(conds...)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}
	return e
}

func priceCeiling(t *testing.T, ceiling float64) filter.Expression {
	t.Helper()
	rng, err := filter.NewRangeBounds(nil, nil, nil, &ceiling)
	if err != nil {
		t.Fatalf("NewRangeBounds: %v", err)
	}
	cond, err := filter.NewRange("price", rng)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return mustExpr(t, cond)
}

func TestRecordTurn_FIFOEviction(t *testing.T) {
	s := newTestStore(t, 3)

	for i := 0; i < 7; i++ {
		s.RecordTurn("sess", mustTurn(t, conversation.RoleUser, fmt.Sprintf("turn %d", i)))
	}

	ctx := s.Get("sess")
	if len(ctx.Turns) != 3 {
		t.Fatalf("expected 3 turns retained, got %d", len(ctx.Turns))
	}
	for i, want := range []string{"turn 4", "turn 5", "turn 6"} {
		if ctx.Turns[i].Text() != want {
			t.Errorf("turn %d = %q, want %q", i, ctx.Turns[i].Text(), want)
		}
	}
}

func TestRecordSearch_ReplacesWholesale(t *testing.T) {
	s := newTestStore(t, 10)

	s.RecordSearch("sess", "water dispensers", filter.Expression{}, []result.Ranked{rankedPart("p1", 0, 20)})
	s.RecordSearch("sess", "door bins", filter.Expression{}, []result.Ranked{rankedPart("p2", 0, 30)})

	ctx := s.Get("sess")
	if ctx.LastSearch == nil {
		t.Fatal("expected last search")
	}
	if ctx.LastSearch.Query != "door bins" {
		t.Errorf("expected latest query, got %q", ctx.LastSearch.Query)
	}
	if len(ctx.LastSearch.Results) != 1 || ctx.LastSearch.Results[0].ID() != "p2" {
		t.Errorf("expected replaced results, got %v", ctx.LastSearch.Results)
	}
}

func TestResolve_FreshWithoutHistory(t *testing.T) {
	s := newTestStore(t, 10)

	d := s.Resolve("sess", "only the cheap ones", priceCeiling(t, 25))
	if d.Kind != FreshSearch {
		t.Fatalf("expected fresh_search with no cached results, got %s", d.Kind)
	}
}

func TestResolve_RefineIsLocalSubset(t *testing.T) {
	s := newTestStore(t, 10)
	cached := []result.Ranked{
		rankedPart("p-cheap", 0, 15),
		rankedPart("p-mid", 1, 40),
		rankedPart("p-pricey", 2, 90),
	}
	s.RecordSearch("sess", "find water dispensers", filter.Expression{}, cached)

	d := s.Resolve("sess", "only the cheap ones", priceCeiling(t, 25))
	if d.Kind != Refine {
		t.Fatalf("expected refine, got %s", d.Kind)
	}
	if len(d.Results) != 1 || d.Results[0].ID() != "p-cheap" {
		t.Fatalf("expected subset {p-cheap}, got %v", d.Results)
	}

	// Subset property: every refined id was in the cached set.
	cachedIDs := map[string]bool{}
	for _, r := range cached {
		cachedIDs[r.ID()] = true
	}
	for _, r := range d.Results {
		if !cachedIDs[r.ID()] {
			t.Errorf("refined id %s not in cached set", r.ID())
		}
	}
}

func TestResolve_ReuseWithoutNewFilters(t *testing.T) {
	s := newTestStore(t, 10)
	s.RecordSearch("sess", "find water dispensers", filter.Expression{}, []result.Ranked{
		rankedPart("p1", 0, 15),
		rankedPart("p2", 1, 40),
	})

	d := s.Resolve("sess", "show reviews for these", filter.Expression{})
	if d.Kind != Reuse {
		t.Fatalf("expected reuse, got %s", d.Kind)
	}
	if len(d.Results) != 2 {
		t.Fatalf("expected full cached set, got %d", len(d.Results))
	}
}

func TestResolve_TopicChangeIsFresh(t *testing.T) {
	s := newTestStore(t, 10)
	cachedFilters := mustExpr(t, mustMatch(t, "appliance_type", "refrigerator"))
	s.RecordSearch("sess", "fridge shelves", cachedFilters, []result.Ranked{rankedPart("p1", 0, 15)})

	// Same key, different value: conflicting entity means topic change even
	// with a reference marker present.
	newFilters := mustExpr(t, mustMatch(t, "appliance_type", "dishwasher"))
	d := s.Resolve("sess", "what about those for my dishwasher", newFilters)
	if d.Kind != FreshSearch {
		t.Fatalf("expected fresh_search on topic change, got %s", d.Kind)
	}
}

func TestResolve_NonFollowUpIsFresh(t *testing.T) {
	s := newTestStore(t, 10)
	s.RecordSearch("sess", "fridge shelves", filter.Expression{}, []result.Ranked{rankedPart("p1", 0, 15)})

	d := s.Resolve("sess", "my dishwasher is leaking from the door", filter.Expression{})
	if d.Kind != FreshSearch {
		t.Fatalf("expected fresh_search for a new question, got %s", d.Kind)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestStore(t, 10)
	s.RecordSearch("sess-a", "dispensers", filter.Expression{}, []result.Ranked{rankedPart("p1", 0, 15)})

	if ctx := s.Get("sess-b"); ctx.LastSearch != nil {
		t.Error("expected empty context for a different session")
	}
}

func TestIdleSessionExpires(t *testing.T) {
	s := newTestStore(t, 10)
	current := time.Now()
	s.now = func() time.Time { return current }

	s.RecordSearch("sess", "dispensers", filter.Expression{}, []result.Ranked{rankedPart("p1", 0, 15)})

	current = current.Add(2 * time.Hour)
	if ctx := s.Get("sess"); ctx.LastSearch != nil {
		t.Error("expected expired session to start empty")
	}
}

func TestIsFollowUp(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"only the cheap ones", true},
		{"show reviews for these", true},
		{"compare to the first", true},
		{"is it in stock?", true},
		{"my fridge is not cooling", false},
		{"the item fits nothing", false},
	}
	for _, tt := range tests {
		if got := isFollowUp(tt.query); got != tt.want {
			t.Errorf("isFollowUp(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
