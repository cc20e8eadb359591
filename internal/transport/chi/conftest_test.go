package chi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fixhub-ai/partsearch/internal/domain/collection"
	"github.com/fixhub-ai/partsearch/internal/domain/conversation"
	"github.com/fixhub-ai/partsearch/internal/domain/intent"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
	healthuc "github.com/fixhub-ai/partsearch/internal/usecase/health"
	"github.com/fixhub-ai/partsearch/internal/usecase/session"
)

type mockRetriever struct {
	ranked    []result.Ranked
	err       error
	sessionID string
	query     string
	intent    intent.Intent
	entities  map[string]string
}

func (m *mockRetriever) Retrieve(
	_ context.Context, sessionID, query string,
	in intent.Intent, entities map[string]string,
) ([]result.Ranked, error) {
	m.sessionID = sessionID
	m.query = query
	m.intent = in
	m.entities = entities
	if m.err != nil {
		return nil, m.err
	}
	return m.ranked, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func healthyReport() healthuc.Report {
	return healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
	}
}

func newTestServer(retriever *mockRetriever, report healthuc.Report) (*Server, *session.Store) {
	sessions := session.New(10, time.Hour, zap.NewNop())
	srv := NewServer(retriever, sessions, &mockHealth{report: report}, zap.NewNop())
	return srv, sessions
}

func ranked(id string, score float64, rank int) result.Ranked {
	r := result.New(id, score, result.Hybrid, "some text", map[string]string{"brand": "Whirlpool"}, nil)
	return result.NewRanked(r, collection.PartsRefrigerator, rank)
}

func mustTurn(role conversation.Role, text string) conversation.Turn {
	t, err := conversation.NewTurn(role, text, time.Now().UTC())
	if err != nil {
		panic(err)
	}
	return t
}
