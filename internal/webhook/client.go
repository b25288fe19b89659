package webhook

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/synthmesh/datagen-api/internal/config"
	"github.com/synthmesh/datagen-api/internal/store"
)

// Enqueuer is the contract the service layer uses to queue deliveries.
type Enqueuer interface {
	Enqueue(ctx context.Context, args DeliveryArgs) error
}

// Client owns the River queue used for webhook deliveries.
type Client struct {
	*river.Client[pgx.Tx]
	maxAttempts int
}

// Make sure we conform to Enqueuer interface
var _ Enqueuer = (*Client)(nil)

func NewClient(ctx context.Context, pool *pgxpool.Pool, s store.Store, cfg config.Webhook) (*Client, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewDeliveryWorker(s, cfg.DeliveryTimeout))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			DefaultQueue: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers: workers,

		// exhausted deliveries are kept around for a week for debugging
		CancelledJobRetentionPeriod: 24 * time.Hour,
		CompletedJobRetentionPeriod: 24 * time.Hour,
		DiscardedJobRetentionPeriod: 7 * 24 * time.Hour,
	})
	if err != nil {
		return nil, err
	}

	return &Client{Client: riverClient, maxAttempts: cfg.MaxAttempts}, nil
}

func (c *Client) Enqueue(ctx context.Context, args DeliveryArgs) error {
	_, err := c.Insert(ctx, args, &river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: c.maxAttempts,
	})
	return err
}
