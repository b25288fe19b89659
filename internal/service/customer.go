package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/auth"
	"github.com/synthmesh/datagen-api/internal/cloudiam"
	"github.com/synthmesh/datagen-api/internal/service/mappers"
	"github.com/synthmesh/datagen-api/internal/store"
	"github.com/synthmesh/datagen-api/internal/store/model"
	"go.uber.org/zap"
)

// tierLimits is the authoritative limits table. Customer rows carry a copy of
// their tier's limits so enforcement never needs a lookup here at request time.
var tierLimits = map[api.SubscriptionTier]api.TierLimits{
	api.TierFree:       {MaxProjects: 1, MaxConcurrentJobs: 1, StorageQuotaGB: 5, JobsPerMinute: 5},
	api.TierStarter:    {MaxProjects: 3, MaxConcurrentJobs: 2, StorageQuotaGB: 50, JobsPerMinute: 15},
	api.TierPro:        {MaxProjects: 10, MaxConcurrentJobs: 5, StorageQuotaGB: 500, JobsPerMinute: 30},
	api.TierEnterprise: {MaxProjects: 100, MaxConcurrentJobs: 20, StorageQuotaGB: 5000, JobsPerMinute: 120},
}

// LimitsForTier returns the limits granted by a tier, defaulting to free.
func LimitsForTier(tier api.SubscriptionTier) api.TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[api.TierFree]
}

type CustomerService struct {
	store store.Store
	iam   cloudiam.Client
}

func NewCustomerService(s store.Store, iam cloudiam.Client) *CustomerService {
	return &CustomerService{store: s, iam: iam}
}

func (s *CustomerService) GetSubscription(ctx context.Context, customerID uuid.UUID, user auth.User) (*api.Subscription, error) {
	customer, err := s.authorizedCustomer(ctx, customerID, user)
	if err != nil {
		return nil, err
	}

	subscription := mappers.SubscriptionToApi(*customer)
	return &subscription, nil
}

// UpdateSubscription changes the tier and cascades the new tier's limits onto
// the customer row in the same write.
func (s *CustomerService) UpdateSubscription(ctx context.Context, customerID uuid.UUID, user auth.User, update api.SubscriptionUpdate) (*api.Subscription, error) {
	customer, err := s.authorizedCustomer(ctx, customerID, user)
	if err != nil {
		return nil, err
	}

	limits := LimitsForTier(update.Tier)
	updated, err := s.store.Customer().UpdateTier(ctx, customerID, store.TierUpdate{
		Tier:              string(update.Tier),
		MaxProjects:       limits.MaxProjects,
		MaxConcurrentJobs: limits.MaxConcurrentJobs,
		StorageQuotaGB:    limits.StorageQuotaGB,
		JobsPerMinute:     limits.JobsPerMinute,
	})
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCustomerNotFound(customerID)
		}
		return nil, err
	}

	details, _ := json.Marshal(map[string]string{"from": customer.Tier, "to": string(update.Tier)})
	s.audit(ctx, customerID, user.Username, "subscription.updated", "customer/"+customerID.String(), details)

	zap.S().Named("customer_service").Infow("subscription updated",
		"customer_id", customerID, "from", customer.Tier, "to", update.Tier)

	subscription := mappers.SubscriptionToApi(*updated)
	return &subscription, nil
}

func (s *CustomerService) GetServiceAccount(ctx context.Context, customerID uuid.UUID, user auth.User) (*api.ServiceAccount, error) {
	customer, err := s.authorizedCustomer(ctx, customerID, user)
	if err != nil {
		return nil, err
	}

	account := mappers.ServiceAccountToApi(*customer)
	if account == nil {
		return nil, NewErrServiceAccountMissing(customerID)
	}
	return account, nil
}

func (s *CustomerService) CreateServiceAccount(ctx context.Context, customerID uuid.UUID, user auth.User) (*api.ServiceAccount, error) {
	customer, err := s.authorizedCustomer(ctx, customerID, user)
	if err != nil {
		return nil, err
	}
	if customer.SAEmail != nil {
		account := mappers.ServiceAccountToApi(*customer)
		return account, nil
	}

	created, err := s.iam.CreateServiceAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Customer().UpdateServiceAccount(ctx, customerID, store.ServiceAccountUpdate{
		Email:     &created.Email,
		KeyRef:    &created.KeyRef,
		CreatedAt: &created.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, customerID, user.Username, "service_account.created", "customer/"+customerID.String(), nil)
	return mappers.ServiceAccountToApi(*updated), nil
}

func (s *CustomerService) DeleteServiceAccount(ctx context.Context, customerID uuid.UUID, user auth.User) error {
	customer, err := s.authorizedCustomer(ctx, customerID, user)
	if err != nil {
		return err
	}
	if customer.SAEmail == nil {
		return NewErrServiceAccountMissing(customerID)
	}

	if err := s.iam.DeleteServiceAccount(ctx, *customer.SAEmail); err != nil {
		return err
	}

	if _, err := s.store.Customer().UpdateServiceAccount(ctx, customerID, store.ServiceAccountUpdate{Clear: true}); err != nil {
		return err
	}

	s.audit(ctx, customerID, user.Username, "service_account.deleted", "customer/"+customerID.String(), nil)
	return nil
}

// RotateServiceAccountKey mints a fresh key and records the rotation time.
// The old key stops working once the provider confirms the rotation.
func (s *CustomerService) RotateServiceAccountKey(ctx context.Context, customerID uuid.UUID, user auth.User) (*api.ServiceAccount, error) {
	customer, err := s.authorizedCustomer(ctx, customerID, user)
	if err != nil {
		return nil, err
	}
	if customer.SAEmail == nil {
		return nil, NewErrServiceAccountMissing(customerID)
	}

	newKeyRef, err := s.iam.RotateServiceAccountKey(ctx, *customer.SAEmail)
	if err != nil {
		return nil, err
	}

	rotatedAt := time.Now().UTC()
	updated, err := s.store.Customer().UpdateServiceAccount(ctx, customerID, store.ServiceAccountUpdate{
		KeyRef:    &newKeyRef,
		RotatedAt: &rotatedAt,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, customerID, user.Username, "service_account.rotated", "customer/"+customerID.String(), nil)
	return mappers.ServiceAccountToApi(*updated), nil
}

func (s *CustomerService) authorizedCustomer(ctx context.Context, customerID uuid.UUID, user auth.User) (*model.Customer, error) {
	customer, err := resolveCustomer(ctx, s.store, user)
	if err != nil {
		return nil, err
	}
	if customer.ID != customerID {
		return nil, NewErrAccessForbidden(customerID, "customer")
	}
	return customer, nil
}

func (s *CustomerService) audit(ctx context.Context, customerID uuid.UUID, actor, action, resource string, details []byte) {
	_, err := s.store.Audit().Append(ctx, model.AuditEvent{
		CustomerID: customerID,
		Actor:      actor,
		Action:     action,
		Resource:   resource,
		Details:    details,
	})
	if err != nil {
		zap.S().Named("customer_service").Warnw("failed to append audit event", "action", action, "error", err)
	}
}

// resolveCustomer maps the authenticated organization to its customer row,
// provisioning a free-tier row on first contact.
func resolveCustomer(ctx context.Context, s store.Store, user auth.User) (*model.Customer, error) {
	customer, err := s.Customer().GetByOrgID(ctx, user.Organization)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	limits := LimitsForTier(api.TierFree)
	created, err := s.Customer().Create(ctx, model.Customer{
		ID:                uuid.New(),
		OrgID:             user.Organization,
		Name:              user.Organization,
		Tier:              string(api.TierFree),
		MaxProjects:       limits.MaxProjects,
		MaxConcurrentJobs: limits.MaxConcurrentJobs,
		StorageQuotaGB:    limits.StorageQuotaGB,
		JobsPerMinute:     limits.JobsPerMinute,
	})
	if err != nil {
		// another request may have provisioned the row first
		if errors.Is(err, store.ErrDuplicateKey) {
			return s.Customer().GetByOrgID(ctx, user.Organization)
		}
		return nil, err
	}

	zap.S().Named("customer_service").Infow("provisioned customer", "org_id", user.Organization, "customer_id", created.ID)
	return created, nil
}
