package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditEvent struct {
	gorm.Model
	CustomerID uuid.UUID `gorm:"index;not null"`
	Actor      string    `gorm:"not null"`
	Action     string    `gorm:"not null"`
	Resource   string    `gorm:"not null"`
	Details    []byte    `gorm:"type:jsonb"`
}

type AuditEventList []AuditEvent
