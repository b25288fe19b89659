package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjectRoleOwner  = "owner"
	ProjectRoleAdmin  = "admin"
	ProjectRoleMember = "member"
	ProjectRoleViewer = "viewer"
)

type Project struct {
	gorm.Model
	ID             uuid.UUID `gorm:"primaryKey"`
	CustomerID     uuid.UUID `gorm:"uniqueIndex:projects_customer_name;not null"`
	Name           string    `gorm:"uniqueIndex:projects_customer_name;not null"`
	RetentionDays  int       `gorm:"not null;default:30"`
	StorageQuotaGB int       `gorm:"not null;default:10"`
	Bucket         string
	Region         string
	UsageBytes     int64           `gorm:"not null;default:0"`
	Members        []ProjectMember `gorm:"constraint:OnDelete:CASCADE;"`
	Jobs           []Job           `gorm:"constraint:OnDelete:CASCADE;"`
}

type ProjectList []Project

type ProjectMember struct {
	ProjectID uuid.UUID `gorm:"primaryKey"`
	UserID    string    `gorm:"primaryKey;type:VARCHAR(100)"`
	Role      string    `gorm:"type:VARCHAR(16);not null"`
}

func (p Project) String() string {
	val, _ := json.Marshal(p)
	return string(val)
}

func NewProjectFromID(id uuid.UUID) *Project {
	return &Project{ID: id}
}

// Member returns the membership row for userID, or nil.
func (p *Project) Member(userID string) *ProjectMember {
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			return &p.Members[i]
		}
	}
	return nil
}

// OwnerCount returns the number of members holding the owner role.
func (p *Project) OwnerCount() int {
	count := 0
	for _, m := range p.Members {
		if m.Role == ProjectRoleOwner {
			count++
		}
	}
	return count
}
