// Package session is the per-session conversation context store: bounded
// turn history plus the most recent result set, used to answer follow-up
// queries without a fresh search.
package session

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fixhub-ai/partsearch/internal/domain/conversation"
	"github.com/fixhub-ai/partsearch/internal/domain/search/filter"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
)

// Defaults applied when config leaves them unset.
const (
	DefaultHistorySize = 10
	DefaultIdleTTL     = 30 * time.Minute
)

// DecisionKind classifies how a query should be answered.
type DecisionKind string

const (
	// Reuse answers from the cached result set as-is.
	Reuse DecisionKind = "reuse"
	// Refine answers from the cached result set narrowed by new filters.
	Refine DecisionKind = "refine"
	// FreshSearch requires a new retrieval pass.
	FreshSearch DecisionKind = "fresh_search"
)

// Decision is the outcome of Resolve. Results and Filters are populated for
// Reuse and Refine; Filters carries the cached filters merged with the new
// narrowing conditions.
type Decision struct {
	Kind    DecisionKind
	Results []result.Ranked
	Filters filter.Expression
}

// Context is a read-only snapshot of one session's state.
type Context struct {
	Turns      []conversation.Turn
	LastSearch *conversation.LastSearch
}

// referencePhrases mark a query as pointing back at the prior result set.
// Multi-word phrases are matched as substrings, single words as whole tokens.
var referencePhrases = []string{
	"that one", "this one", "the first", "the second",
	"this part", "that part", "compare to", "compared to",
	"like the", "similar to", "which of",
}

var referenceWords = map[string]bool{
	"it": true, "them": true, "those": true, "these": true, "only": true,
}

// Store holds conversation state keyed by session id. Sessions are mutated
// under their own lock and never block each other; the map lock is held only
// for lookup and expiry.
type Store struct {
	historySize int
	idleTTL     time.Duration
	now         func() time.Time
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*state
}

type state struct {
	mu         sync.Mutex
	turns      []conversation.Turn
	lastSearch *conversation.LastSearch
	lastSeen   time.Time
}

// New creates a session store. Non-positive historySize or idleTTL fall back
// to the defaults.
func New(historySize int, idleTTL time.Duration, logger *zap.Logger) *Store {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Store{
		historySize: historySize,
		idleTTL:     idleTTL,
		now:         time.Now,
		logger:      logger,
		sessions:    make(map[string]*state),
	}
}

// Get returns a snapshot of the session, creating an empty one on first use.
func (s *Store) Get(sessionID string) Context {
	st := s.session(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	snap := Context{Turns: append([]conversation.Turn{}, st.turns...)}
	if st.lastSearch != nil {
		ls := *st.lastSearch
		ls.Results = append([]result.Ranked{}, st.lastSearch.Results...)
		snap.LastSearch = &ls
	}
	return snap
}

// RecordTurn appends a turn, evicting the oldest beyond the history size.
func (s *Store) RecordTurn(sessionID string, turn conversation.Turn) {
	st := s.session(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.turns = append(st.turns, turn)
	if excess := len(st.turns) - s.historySize; excess > 0 {
		st.turns = append([]conversation.Turn{}, st.turns[excess:]...)
	}
}

// RecordSearch replaces the session's last search wholesale.
func (s *Store) RecordSearch(sessionID, query string, filters filter.Expression, results []result.Ranked) {
	st := s.session(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.lastSearch = &conversation.LastSearch{
		Query:   query,
		Filters: filters,
		Results: append([]result.Ranked{}, results...),
		At:      s.now(),
	}
}

// Resolve decides whether a query can be answered from the cached result
// set. Refine filters the cached results locally and never touches the
// store; any doubt fails safe to FreshSearch.
func (s *Store) Resolve(sessionID, query string, newFilters filter.Expression) Decision {
	st := s.session(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	fresh := Decision{Kind: FreshSearch}
	if st.lastSearch == nil || len(st.lastSearch.Results) == 0 {
		return fresh
	}
	if !isFollowUp(query) {
		return fresh
	}
	if newFilters.ConflictsWith(st.lastSearch.Filters) {
		// Same key, different value: a topic change, not a narrowing.
		return fresh
	}

	if newFilters.IsEmpty() {
		return Decision{
			Kind:    Reuse,
			Results: append([]result.Ranked{}, st.lastSearch.Results...),
			Filters: st.lastSearch.Filters,
		}
	}

	merged, err := st.lastSearch.Filters.With(newFilters.Conditions()...)
	if err != nil {
		s.logger.Debug("refine filter merge failed", zap.String("session", sessionID), zap.Error(err))
		return fresh
	}

	subset := make([]result.Ranked, 0, len(st.lastSearch.Results))
	for _, r := range st.lastSearch.Results {
		if newFilters.Matches(r.Tags(), r.Numerics()) {
			subset = append(subset, r)
		}
	}
	return Decision{Kind: Refine, Results: subset, Filters: merged}
}

// session fetches or creates the session state and sweeps idle sessions.
func (s *Store) session(sessionID string) *state {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, st := range s.sessions {
		if id != sessionID && now.Sub(st.lastSeen) > s.idleTTL {
			delete(s.sessions, id)
		}
	}

	st, ok := s.sessions[sessionID]
	if !ok || now.Sub(st.lastSeen) > s.idleTTL {
		st = &state{}
		s.sessions[sessionID] = st
	}
	st.lastSeen = now
	return st
}

// isFollowUp reports whether the query references the prior result set.
func isFollowUp(query string) bool {
	q := strings.ToLower(query)
	for _, phrase := range referencePhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	for _, tok := range strings.Fields(q) {
		if referenceWords[strings.Trim(tok, ".,!?")] {
			return true
		}
	}
	return false
}
