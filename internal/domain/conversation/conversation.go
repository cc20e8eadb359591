// Package conversation defines the short-lived per-session dialogue state.
package conversation

import (
	"fmt"
	"time"

	"github.com/fixhub-ai/partsearch/internal/domain/search/filter"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
)

// Role identifies the author of a turn.
type Role string

// Turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid checks if the role is supported.
func (r Role) IsValid() bool { return r == RoleUser || r == RoleAssistant }

// Turn is a single message in a conversation.
type Turn struct {
	role Role
	text string
	at   time.Time
}

// NewTurn validates and creates a Turn.
func NewTurn(role Role, text string, at time.Time) (Turn, error) {
	if !role.IsValid() {
		return Turn{}, fmt.Errorf("invalid turn role: %q", role)
	}
	if text == "" {
		return Turn{}, fmt.Errorf("turn text is required")
	}
	return Turn{role: role, text: text, at: at}, nil
}

// Role returns the turn author.
func (t Turn) Role() Role { return t.role }

// Text returns the turn text.
func (t Turn) Text() string { return t.text }

// At returns the turn timestamp.
func (t Turn) At() time.Time { return t.at }

// LastSearch is the most recent result set recorded for a session.
// Replaced wholesale on every new search.
type LastSearch struct {
	Query   string
	Filters filter.Expression
	Results []result.Ranked
	At      time.Time
}
