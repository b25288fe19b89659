package cloudiam

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ServiceAccount is the cloud-side identity provisioned for a customer.
type ServiceAccount struct {
	Email     string
	KeyRef    string
	CreatedAt time.Time
}

// Client provisions per-customer service accounts in the cloud IAM backend.
type Client interface {
	CreateServiceAccount(ctx context.Context, customerID uuid.UUID) (*ServiceAccount, error)
	DeleteServiceAccount(ctx context.Context, email string) error
	RotateServiceAccountKey(ctx context.Context, email string) (string, error)
}

// StubClient fabricates deterministic identities without touching a cloud
// provider. Used in development and tests.
type StubClient struct{}

// Make sure we conform to Client interface
var _ Client = (*StubClient)(nil)

func NewStubClient() *StubClient {
	return &StubClient{}
}

func (c *StubClient) CreateServiceAccount(ctx context.Context, customerID uuid.UUID) (*ServiceAccount, error) {
	return &ServiceAccount{
		Email:     fmt.Sprintf("datagen-%s@synthmesh-sa.iam.example.com", customerID),
		KeyRef:    fmt.Sprintf("projects/synthmesh/keys/%s", uuid.NewString()),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (c *StubClient) DeleteServiceAccount(ctx context.Context, email string) error {
	return nil
}

func (c *StubClient) RotateServiceAccountKey(ctx context.Context, email string) (string, error) {
	return fmt.Sprintf("projects/synthmesh/keys/%s", uuid.NewString()), nil
}
