package webhook

import (
	"context"

	"go.uber.org/zap"
)

// NoopEnqueuer drops deliveries. Used when no queue database is available,
// sqlite development setups mostly.
type NoopEnqueuer struct{}

var _ Enqueuer = (*NoopEnqueuer)(nil)

func NewNoopEnqueuer() *NoopEnqueuer {
	return &NoopEnqueuer{}
}

func (e *NoopEnqueuer) Enqueue(_ context.Context, args DeliveryArgs) error {
	zap.S().Named("webhook").Debugw("delivery queue disabled, dropping delivery",
		"webhook_id", args.WebhookID, "event", args.Event)
	return nil
}
