package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riverqueue/river"
	"github.com/synthmesh/datagen-api/internal/store"
	"github.com/synthmesh/datagen-api/internal/store/model"
	"github.com/synthmesh/datagen-api/pkg/metrics"
	"go.uber.org/zap"
)

const deliveryTimeout = 1 * time.Minute

// DeliveryWorker POSTs signed payloads to subscriber endpoints. Any error
// returned here makes River retry with backoff until the job's attempts are
// exhausted, at which point River discards it (the dead-letter state).
type DeliveryWorker struct {
	river.WorkerDefaults[DeliveryArgs]
	store  store.Store
	client *http.Client
}

func NewDeliveryWorker(s store.Store, requestTimeout time.Duration) *DeliveryWorker {
	return &DeliveryWorker{
		store:  s,
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (w *DeliveryWorker) Timeout(job *river.Job[DeliveryArgs]) time.Duration {
	return deliveryTimeout
}

func (w *DeliveryWorker) Work(ctx context.Context, job *river.Job[DeliveryArgs]) error {
	registration, err := w.store.Webhook().Get(ctx, job.Args.WebhookID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			// registration deleted after the event was queued
			zap.S().Named("webhook_worker").Infow("dropping delivery for removed webhook", "webhook_id", job.Args.WebhookID)
			return nil
		}
		return err
	}
	if !registration.Active {
		return nil
	}

	statusCode, deliverErr := w.deliver(ctx, registration, job.Args)

	attempt := model.WebhookDelivery{
		WebhookID:  registration.ID,
		JobID:      job.Args.JobID,
		Event:      job.Args.Event,
		Attempt:    job.Attempt,
		StatusCode: statusCode,
		Success:    deliverErr == nil,
	}
	if deliverErr != nil {
		attempt.Error = deliverErr.Error()
		metrics.IncreaseWebhookDeliveriesMetric("failure")
	} else {
		metrics.IncreaseWebhookDeliveriesMetric("success")
	}
	if err := w.store.Webhook().RecordDelivery(ctx, attempt); err != nil {
		zap.S().Named("webhook_worker").Errorw("failed to record delivery attempt", "error", err)
	}

	return deliverErr
}

func (w *DeliveryWorker) deliver(ctx context.Context, registration *model.Webhook, args DeliveryArgs) (int, error) {
	now := time.Now().Unix()
	signature := Sign(registration.Secret, now, args.Payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, registration.URL, bytes.NewReader(args.Payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)
	req.Header.Set(TimestampHeader, fmt.Sprintf("%d", now))
	req.Header.Set(EventHeader, args.Event)

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
