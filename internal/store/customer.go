package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/synthmesh/datagen-api/internal/store/model"
	"gorm.io/gorm"
)

// TierUpdate carries a subscription change plus the limits cascaded from
// the tier table. The limits always travel with the tier so a row can never
// hold a tier with another tier's limits.
type TierUpdate struct {
	Tier              string
	MaxProjects       int
	MaxConcurrentJobs int
	StorageQuotaGB    int
	JobsPerMinute     int
}

// ServiceAccountUpdate sets or clears the customer's service-account fields.
type ServiceAccountUpdate struct {
	Email     *string
	KeyRef    *string
	CreatedAt *time.Time
	RotatedAt *time.Time
	Clear     bool
}

type Customer interface {
	Create(ctx context.Context, customer model.Customer) (*model.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	GetByOrgID(ctx context.Context, orgID string) (*model.Customer, error)
	UpdateTier(ctx context.Context, id uuid.UUID, update TierUpdate) (*model.Customer, error)
	UpdateServiceAccount(ctx context.Context, id uuid.UUID, update ServiceAccountUpdate) (*model.Customer, error)
}

type CustomerStore struct {
	db *gorm.DB
}

// Make sure we conform to Customer interface
var _ Customer = (*CustomerStore)(nil)

func NewCustomerStore(db *gorm.DB) Customer {
	return &CustomerStore{db: db}
}

func (s *CustomerStore) Create(ctx context.Context, customer model.Customer) (*model.Customer, error) {
	if result := s.getDB(ctx).Create(&customer); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating customer: %w", result.Error)
	}
	return &customer, nil
}

func (s *CustomerStore) Get(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer := model.NewCustomerFromID(id)
	if result := s.getDB(ctx).First(&customer); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying customer: %w", result.Error)
	}
	return customer, nil
}

func (s *CustomerStore) GetByOrgID(ctx context.Context, orgID string) (*model.Customer, error) {
	var customer model.Customer
	result := s.getDB(ctx).First(&customer, "org_id = ?", orgID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying customer by org: %w", result.Error)
	}
	return &customer, nil
}

func (s *CustomerStore) UpdateTier(ctx context.Context, id uuid.UUID, update TierUpdate) (*model.Customer, error) {
	result := s.getDB(ctx).Model(&model.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tier":                update.Tier,
			"max_projects":        update.MaxProjects,
			"max_concurrent_jobs": update.MaxConcurrentJobs,
			"storage_quota_gb":    update.StorageQuotaGB,
			"jobs_per_minute":     update.JobsPerMinute,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("updating customer tier: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.Get(ctx, id)
}

func (s *CustomerStore) UpdateServiceAccount(ctx context.Context, id uuid.UUID, update ServiceAccountUpdate) (*model.Customer, error) {
	fields := map[string]any{}
	if update.Clear {
		fields["sa_email"] = nil
		fields["sa_key_ref"] = nil
		fields["sa_created_at"] = nil
		fields["sa_rotated_at"] = nil
	} else {
		if update.Email != nil {
			fields["sa_email"] = *update.Email
		}
		if update.KeyRef != nil {
			fields["sa_key_ref"] = *update.KeyRef
		}
		if update.CreatedAt != nil {
			fields["sa_created_at"] = *update.CreatedAt
		}
		if update.RotatedAt != nil {
			fields["sa_rotated_at"] = *update.RotatedAt
		}
	}

	result := s.getDB(ctx).Model(&model.Customer{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("updating customer service account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.Get(ctx, id)
}

func (s *CustomerStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
