package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/synthmesh/datagen-api/internal/store/model"
	"gorm.io/gorm"
)

type Waitlist interface {
	Add(ctx context.Context, entry model.WaitlistEntry) (*model.WaitlistEntry, error)
	List(ctx context.Context) (model.WaitlistEntryList, error)
}

type WaitlistStore struct {
	db *gorm.DB
}

// Make sure we conform to Waitlist interface
var _ Waitlist = (*WaitlistStore)(nil)

func NewWaitlistStore(db *gorm.DB) Waitlist {
	return &WaitlistStore{db: db}
}

func (s *WaitlistStore) Add(ctx context.Context, entry model.WaitlistEntry) (*model.WaitlistEntry, error) {
	if result := s.getDB(ctx).Create(&entry); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("adding waitlist entry: %w", result.Error)
	}
	return &entry, nil
}

func (s *WaitlistStore) List(ctx context.Context) (model.WaitlistEntryList, error) {
	var entries model.WaitlistEntryList
	if result := s.getDB(ctx).Order("created_at").Find(&entries); result.Error != nil {
		return nil, fmt.Errorf("listing waitlist entries: %w", result.Error)
	}
	return entries, nil
}

func (s *WaitlistStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
