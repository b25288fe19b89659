package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/auth"
	"github.com/synthmesh/datagen-api/internal/service/mappers"
	"github.com/synthmesh/datagen-api/internal/store"
	"github.com/synthmesh/datagen-api/internal/store/model"
	"github.com/synthmesh/datagen-api/internal/webhook"
	"go.uber.org/zap"
)

type WebhookService struct {
	store    store.Store
	enqueuer webhook.Enqueuer
}

func NewWebhookService(s store.Store, enqueuer webhook.Enqueuer) *WebhookService {
	return &WebhookService{store: s, enqueuer: enqueuer}
}

func (s *WebhookService) CreateWebhook(ctx context.Context, user auth.User, create api.WebhookCreate) (*api.Webhook, error) {
	customer, err := resolveCustomer(ctx, s.store, user)
	if err != nil {
		return nil, err
	}

	registration, err := s.store.Webhook().Create(ctx, mappers.WebhookFromApi(uuid.New(), customer.ID, create))
	if err != nil {
		return nil, err
	}

	apiWebhook := mappers.WebhookToApi(*registration)
	zap.S().Named("webhook_service").Infow("webhook registered", "webhook_id", registration.ID, "url", registration.URL)
	return &apiWebhook, nil
}

func (s *WebhookService) ListWebhooks(ctx context.Context, user auth.User) (api.WebhookList, error) {
	customer, err := resolveCustomer(ctx, s.store, user)
	if err != nil {
		return nil, err
	}

	webhooks, err := s.store.Webhook().List(ctx, store.NewWebhookQueryFilter().ByCustomerID(customer.ID))
	if err != nil {
		return nil, err
	}
	return mappers.WebhookListToApi(webhooks), nil
}

func (s *WebhookService) GetWebhook(ctx context.Context, webhookID uuid.UUID, user auth.User) (*api.Webhook, error) {
	registration, err := s.authorizedWebhook(ctx, webhookID, user)
	if err != nil {
		return nil, err
	}

	apiWebhook := mappers.WebhookToApi(*registration)
	return &apiWebhook, nil
}

func (s *WebhookService) UpdateWebhook(ctx context.Context, webhookID uuid.UUID, user auth.User, update api.WebhookUpdate) (*api.Webhook, error) {
	if _, err := s.authorizedWebhook(ctx, webhookID, user); err != nil {
		return nil, err
	}

	var events []byte
	if update.Events != nil {
		events, _ = json.Marshal(update.Events)
	}

	registration, err := s.store.Webhook().Update(ctx, webhookID, update.Url, update.Secret, events, update.Active)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrWebhookNotFound(webhookID)
		}
		return nil, err
	}

	apiWebhook := mappers.WebhookToApi(*registration)
	return &apiWebhook, nil
}

func (s *WebhookService) DeleteWebhook(ctx context.Context, webhookID uuid.UUID, user auth.User) error {
	if _, err := s.authorizedWebhook(ctx, webhookID, user); err != nil {
		return err
	}
	return s.store.Webhook().Delete(ctx, webhookID)
}

// ListDeliveries returns the most recent delivery attempts, newest first.
func (s *WebhookService) ListDeliveries(ctx context.Context, webhookID uuid.UUID, user auth.User, limit int) (api.WebhookDeliveryList, error) {
	if _, err := s.authorizedWebhook(ctx, webhookID, user); err != nil {
		return nil, err
	}

	deliveries, err := s.store.Webhook().ListDeliveries(ctx, webhookID, limit)
	if err != nil {
		return nil, err
	}
	return mappers.WebhookDeliveryListToApi(deliveries), nil
}

// Dispatch fans a job lifecycle event out to every active registration that
// subscribed to it. Each delivery is persisted as its own queue entry so a
// slow or failing endpoint never delays the others.
func (s *WebhookService) Dispatch(ctx context.Context, event api.WebhookEvent, job api.Job) error {
	webhooks, err := s.store.Webhook().List(ctx,
		store.NewWebhookQueryFilter().ByCustomerID(job.CustomerId).OnlyActive())
	if err != nil {
		return err
	}

	payload, err := json.Marshal(api.WebhookPayload{
		Event:     event,
		Job:       job,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	for i := range webhooks {
		if !webhooks[i].SubscribedTo(string(event)) {
			continue
		}
		args := webhook.DeliveryArgs{
			WebhookID: webhooks[i].ID,
			JobID:     job.Id,
			Event:     string(event),
			Payload:   payload,
		}
		if err := s.enqueuer.Enqueue(ctx, args); err != nil {
			zap.S().Named("webhook_service").Errorw("failed to enqueue delivery",
				"webhook_id", webhooks[i].ID, "job_id", job.Id, "event", event, "error", err)
			return err
		}
	}
	return nil
}

func (s *WebhookService) authorizedWebhook(ctx context.Context, webhookID uuid.UUID, user auth.User) (*model.Webhook, error) {
	registration, err := s.store.Webhook().Get(ctx, webhookID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrWebhookNotFound(webhookID)
		}
		return nil, err
	}

	customer, err := resolveCustomer(ctx, s.store, user)
	if err != nil {
		return nil, err
	}
	if registration.CustomerID != customer.ID {
		return nil, NewErrAccessForbidden(webhookID, "webhook")
	}
	return registration, nil
}
