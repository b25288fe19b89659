package pipeline

import (
	"context"

	"github.com/google/uuid"
)

// Client is the contract against the external data-generation backend.
// The backend owns execution; this service only tracks lifecycle state and
// forwards cancel/resume signals.
type Client interface {
	Health(ctx context.Context) error
	Cancel(ctx context.Context, jobID uuid.UUID) error
	Resume(ctx context.Context, jobID uuid.UUID) error
}

// New returns the HTTP client when a backend URL is configured, otherwise
// the no-op stub.
func New(baseURL string) Client {
	if baseURL == "" {
		return &StubClient{}
	}
	return NewHTTPClient(baseURL)
}
