// Package health aggregates component checks into one report.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; retrieval still works with
	// reduced quality (e.g. keyword index not yet warm).
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db          DBPinger
	embedding   EmbeddingChecker
	index       IndexReadiness
	collections []string
}

// New creates a Service. embedding and index can be nil; collections lists
// the hybrid collections whose keyword index readiness is reported.
func New(db DBPinger, embedding EmbeddingChecker, index IndexReadiness, collections []string) *Service {
	return &Service{db: db, embedding: embedding, index: index, collections: collections}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.index != nil {
		ready := CheckOK
		for _, name := range s.collections {
			if !s.index.Ready(name) {
				ready = CheckError
				break
			}
		}
		checks["keyword_index"] = ready
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
