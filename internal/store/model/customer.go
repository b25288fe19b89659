package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	gorm.Model
	ID    uuid.UUID `gorm:"primaryKey"`
	OrgID string    `gorm:"uniqueIndex;not null"`
	Name  string
	Email string
	Tier  string `gorm:"type:VARCHAR(16);not null;default:'free'"`

	// limits cascaded from the tier table on every subscription change
	MaxProjects       int `gorm:"not null;default:1"`
	MaxConcurrentJobs int `gorm:"not null;default:1"`
	StorageQuotaGB    int `gorm:"not null;default:5"`
	JobsPerMinute     int `gorm:"not null;default:5"`

	SAEmail     *string
	SAKeyRef    *string
	SACreatedAt *time.Time
	SARotatedAt *time.Time
}

type CustomerList []Customer

func (c Customer) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}

func NewCustomerFromID(id uuid.UUID) *Customer {
	return &Customer{ID: id}
}
