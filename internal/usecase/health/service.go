// Package health aggregates component liveness for the health endpoint.
package health

import (
	"context"

	"github.com/shopsense/searchcore/internal/domain"
)

// Pinger checks storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the aggregate health report.
type Status struct {
	Healthy    bool
	Components map[string]string
}

// Service checks the database and the embedding provider.
type Service struct {
	pinger   Pinger
	embedder domain.HealthChecker
}

// New creates a health service.
func New(pinger Pinger, embedder domain.HealthChecker) *Service {
	return &Service{pinger: pinger, embedder: embedder}
}

// Check probes every component. The embedder probe costs a provider call, so
// callers should rate-limit or cache health checks.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{Healthy: true, Components: map[string]string{}}

	if err := s.pinger.Ping(ctx); err != nil {
		st.Healthy = false
		st.Components["database"] = err.Error()
	} else {
		st.Components["database"] = "ok"
	}

	if err := s.embedder.HealthCheck(ctx); err != nil {
		st.Healthy = false
		st.Components["embedding"] = err.Error()
	} else {
		st.Components["embedding"] = "ok"
	}

	return st
}
