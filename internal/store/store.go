package store

import (
	"context"

	"github.com/synthmesh/datagen-api/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Job() Job
	Project() Project
	Customer() Customer
	Webhook() Webhook
	Waitlist() Waitlist
	Audit() Audit
	InitialMigration() error
	Ping(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db       *gorm.DB
	job      Job
	project  Project
	customer Customer
	webhook  Webhook
	waitlist Waitlist
	audit    Audit
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:       db,
		job:      NewJobStore(db),
		project:  NewProjectStore(db),
		customer: NewCustomerStore(db),
		webhook:  NewWebhookStore(db),
		waitlist: NewWaitlistStore(db),
		audit:    NewAuditStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) Project() Project {
	return s.project
}

func (s *DataStore) Customer() Customer {
	return s.customer
}

func (s *DataStore) Webhook() Webhook {
	return s.webhook
}

func (s *DataStore) Waitlist() Waitlist {
	return s.waitlist
}

func (s *DataStore) Audit() Audit {
	return s.audit
}

// InitialMigration creates the schema. Production deployments run the goose
// migrations instead; this path serves tests and sqlite development setups.
func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(
		&model.Customer{},
		&model.Project{},
		&model.ProjectMember{},
		&model.Job{},
		&model.Webhook{},
		&model.WebhookDelivery{},
		&model.WaitlistEntry{},
		&model.AuditEvent{},
	)
}

func (s *DataStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
