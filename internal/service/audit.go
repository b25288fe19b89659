package service

import (
	"context"

	"github.com/google/uuid"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/auth"
	"github.com/synthmesh/datagen-api/internal/service/mappers"
	"github.com/synthmesh/datagen-api/internal/store"
)

type AuditService struct {
	store store.Store
}

func NewAuditService(s store.Store) *AuditService {
	return &AuditService{store: s}
}

func (s *AuditService) Append(ctx context.Context, customerID uuid.UUID, user auth.User, create api.AuditEventCreate) (*api.AuditEvent, error) {
	if _, err := s.authorizedCustomer(ctx, customerID, user); err != nil {
		return nil, err
	}

	event, err := s.store.Audit().Append(ctx, mappers.AuditEventFromApi(customerID, user.Username, create))
	if err != nil {
		return nil, err
	}

	apiEvent := mappers.AuditEventToApi(*event)
	return &apiEvent, nil
}

func (s *AuditService) List(ctx context.Context, customerID uuid.UUID, user auth.User, limit, offset int) ([]api.AuditEvent, error) {
	if _, err := s.authorizedCustomer(ctx, customerID, user); err != nil {
		return nil, err
	}

	events, err := s.store.Audit().List(ctx,
		store.NewAuditQueryFilter().ByCustomerID(customerID).WithLimit(limit).WithOffset(offset))
	if err != nil {
		return nil, err
	}
	return mappers.AuditEventListToApi(events), nil
}

func (s *AuditService) authorizedCustomer(ctx context.Context, customerID uuid.UUID, user auth.User) (any, error) {
	customer, err := resolveCustomer(ctx, s.store, user)
	if err != nil {
		return nil, err
	}
	if customer.ID != customerID {
		return nil, NewErrAccessForbidden(customerID, "customer")
	}
	return customer, nil
}
