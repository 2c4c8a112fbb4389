// Package health aggregates readiness checks for the store, the corpus
// index, and the embedding provider.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the service can answer but retrieval quality or
	// ingestion may suffer.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is unreachable; retrieval cannot work.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	index     IndexChecker
	indexName string
	embedding EmbeddingChecker
}

// New creates a health service. embedding can be nil.
func New(store StorePinger, index IndexChecker, indexName string, embedding EmbeddingChecker) *Service {
	return &Service{store: store, index: index, indexName: indexName, embedding: embedding}
}

// Check runs health checks against all components. A store failure is fatal
// to retrieval; a missing index or failing provider only degrades.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	storeOK := s.store.Ping(ctx) == nil
	if storeOK {
		checks["redis"] = CheckOK
	} else {
		checks["redis"] = CheckError
	}

	if storeOK && s.index != nil {
		if exists, err := s.index.IndexExists(ctx, s.indexName); err == nil && exists {
			checks["index"] = CheckOK
		} else {
			checks["index"] = CheckError
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if !storeOK {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
