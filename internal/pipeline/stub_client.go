package pipeline

import (
	"context"

	"github.com/google/uuid"
)

// StubClient stands in when no backend is configured. Cancel and resume
// still succeed so the lifecycle state machine can be exercised end to end.
type StubClient struct{}

// Make sure we conform to Client interface
var _ Client = (*StubClient)(nil)

func (s *StubClient) Health(ctx context.Context) error {
	return nil
}

func (s *StubClient) Cancel(ctx context.Context, jobID uuid.UUID) error {
	return nil
}

func (s *StubClient) Resume(ctx context.Context, jobID uuid.UUID) error {
	return nil
}
