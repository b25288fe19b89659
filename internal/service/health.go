package service

import (
	"context"

	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/pipeline"
	"github.com/synthmesh/datagen-api/internal/store"
)

type HealthService struct {
	store    store.Store
	pipeline pipeline.Client
}

func NewHealthService(s store.Store, pipelineClient pipeline.Client) *HealthService {
	return &HealthService{store: s, pipeline: pipelineClient}
}

// Check reports overall readiness. The store is load bearing; the pipeline
// backend degrades the status without failing it.
func (s *HealthService) Check(ctx context.Context) api.Health {
	health := api.Health{Status: "ok", Store: "ok", Pipeline: "ok"}

	if err := s.store.Ping(ctx); err != nil {
		health.Status = "unavailable"
		health.Store = err.Error()
	}
	if err := s.pipeline.Health(ctx); err != nil {
		if health.Status == "ok" {
			health.Status = "degraded"
		}
		health.Pipeline = err.Error()
	}
	return health
}
