package webhook

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

const (
	DefaultQueue = "webhooks"
	JobKind      = "webhook_delivery"
)

// DeliveryArgs is one pending delivery against a registered endpoint.
// Stored in river_job.args as JSON; River owns the retry schedule.
type DeliveryArgs struct {
	WebhookID uuid.UUID       `json:"webhook_id"`
	JobID     uuid.UUID       `json:"job_id"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
}

func (DeliveryArgs) Kind() string {
	return JobKind
}

func (DeliveryArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue: DefaultQueue,
	}
}
