package store

import (
	"context"
	"fmt"

	"github.com/synthmesh/datagen-api/internal/store/model"
	"gorm.io/gorm"
)

type Audit interface {
	Append(ctx context.Context, event model.AuditEvent) (*model.AuditEvent, error)
	List(ctx context.Context, filter *AuditQueryFilter) (model.AuditEventList, error)
}

type AuditStore struct {
	db *gorm.DB
}

// Make sure we conform to Audit interface
var _ Audit = (*AuditStore)(nil)

func NewAuditStore(db *gorm.DB) Audit {
	return &AuditStore{db: db}
}

func (s *AuditStore) Append(ctx context.Context, event model.AuditEvent) (*model.AuditEvent, error) {
	if result := s.getDB(ctx).Create(&event); result.Error != nil {
		return nil, fmt.Errorf("appending audit event: %w", result.Error)
	}
	return &event, nil
}

func (s *AuditStore) List(ctx context.Context, filter *AuditQueryFilter) (model.AuditEventList, error) {
	var events model.AuditEventList

	tx := s.getDB(ctx).Model(&model.AuditEvent{}).Order("created_at DESC")
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Find(&events); result.Error != nil {
		return nil, fmt.Errorf("listing audit events: %w", result.Error)
	}
	return events, nil
}

func (s *AuditStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
