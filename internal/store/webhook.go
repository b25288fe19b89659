package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/synthmesh/datagen-api/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Webhook interface {
	Create(ctx context.Context, webhook model.Webhook) (*model.Webhook, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Webhook, error)
	List(ctx context.Context, filter *WebhookQueryFilter) (model.WebhookList, error)
	Update(ctx context.Context, id uuid.UUID, url, secret *string, events []byte, active *bool) (*model.Webhook, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordDelivery(ctx context.Context, delivery model.WebhookDelivery) error
	ListDeliveries(ctx context.Context, webhookID uuid.UUID, limit int) (model.WebhookDeliveryList, error)
}

type WebhookStore struct {
	db *gorm.DB
}

// Make sure we conform to Webhook interface
var _ Webhook = (*WebhookStore)(nil)

func NewWebhookStore(db *gorm.DB) Webhook {
	return &WebhookStore{db: db}
}

func (s *WebhookStore) Create(ctx context.Context, webhook model.Webhook) (*model.Webhook, error) {
	if result := s.getDB(ctx).Create(&webhook); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating webhook: %w", result.Error)
	}
	return &webhook, nil
}

func (s *WebhookStore) Get(ctx context.Context, id uuid.UUID) (*model.Webhook, error) {
	webhook := model.NewWebhookFromID(id)
	if result := s.getDB(ctx).First(&webhook); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying webhook: %w", result.Error)
	}
	return webhook, nil
}

func (s *WebhookStore) List(ctx context.Context, filter *WebhookQueryFilter) (model.WebhookList, error) {
	var webhooks model.WebhookList

	tx := s.getDB(ctx).Model(&model.Webhook{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Order("created_at").Find(&webhooks); result.Error != nil {
		return nil, fmt.Errorf("listing webhooks: %w", result.Error)
	}
	return webhooks, nil
}

func (s *WebhookStore) Update(ctx context.Context, id uuid.UUID, url, secret *string, events []byte, active *bool) (*model.Webhook, error) {
	webhook := model.NewWebhookFromID(id)
	selectFields := []string{}
	if url != nil {
		webhook.URL = *url
		selectFields = append(selectFields, "url")
	}
	if secret != nil {
		webhook.Secret = *secret
		selectFields = append(selectFields, "secret")
	}
	if events != nil {
		webhook.Events = events
		selectFields = append(selectFields, "events")
	}
	if active != nil {
		webhook.Active = *active
		selectFields = append(selectFields, "active")
	}

	if len(selectFields) == 0 {
		return s.Get(ctx, id)
	}

	result := s.getDB(ctx).Model(webhook).Clauses(clause.Returning{}).Select(selectFields).Updates(&webhook)
	if result.Error != nil {
		return nil, fmt.Errorf("updating webhook: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return s.Get(ctx, id)
}

func (s *WebhookStore) Delete(ctx context.Context, id uuid.UUID) error {
	webhook := model.NewWebhookFromID(id)
	result := s.getDB(ctx).Unscoped().Delete(&webhook)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("deleting webhook: %w", result.Error)
	}
	return nil
}

func (s *WebhookStore) RecordDelivery(ctx context.Context, delivery model.WebhookDelivery) error {
	if result := s.getDB(ctx).Create(&delivery); result.Error != nil {
		return fmt.Errorf("recording webhook delivery: %w", result.Error)
	}
	return nil
}

func (s *WebhookStore) ListDeliveries(ctx context.Context, webhookID uuid.UUID, limit int) (model.WebhookDeliveryList, error) {
	var deliveries model.WebhookDeliveryList
	tx := s.getDB(ctx).Where("webhook_id = ?", webhookID).Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if result := tx.Find(&deliveries); result.Error != nil {
		return nil, fmt.Errorf("listing webhook deliveries: %w", result.Error)
	}
	return deliveries, nil
}

func (s *WebhookStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
