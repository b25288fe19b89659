package model

import "gorm.io/gorm"

type WaitlistEntry struct {
	gorm.Model
	Email   string `gorm:"uniqueIndex;not null"`
	Company string
	UseCase string
}

type WaitlistEntryList []WaitlistEntry
