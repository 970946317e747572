package server

import (
	"context"

	"github.com/aruiz/crossedpaths/backend/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// GraphHealthService reports whether the store holding members, visits,
// and crossings is reachable. The API is useless without it, so the probe
// gates readiness on graph connectivity alone.
type GraphHealthService struct {
	Client graph.Client
}

// Probe implements the HealthService interface.
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.VerifyConnectivity(ctx)
}
