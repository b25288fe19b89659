package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/synthmesh/datagen-api/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Project interface {
	Create(ctx context.Context, project model.Project) (*model.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context, filter *ProjectQueryFilter) (model.ProjectList, error)
	Update(ctx context.Context, id uuid.UUID, name *string, retentionDays, storageQuotaGB *int) (*model.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpsertMember(ctx context.Context, member model.ProjectMember) error
	RemoveMember(ctx context.Context, projectID uuid.UUID, userID string) error
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

type ProjectStore struct {
	db *gorm.DB
}

// Make sure we conform to Project interface
var _ Project = (*ProjectStore)(nil)

func NewProjectStore(db *gorm.DB) Project {
	return &ProjectStore{db: db}
}

func (s *ProjectStore) Create(ctx context.Context, project model.Project) (*model.Project, error) {
	if result := s.getDB(ctx).Create(&project); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating project: %w", result.Error)
	}
	return &project, nil
}

func (s *ProjectStore) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	project := model.NewProjectFromID(id)
	result := s.getDB(ctx).Preload("Members").First(&project)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying project: %w", result.Error)
	}
	return project, nil
}

func (s *ProjectStore) List(ctx context.Context, filter *ProjectQueryFilter) (model.ProjectList, error) {
	var projects model.ProjectList

	tx := s.getDB(ctx).Model(&model.Project{}).Preload("Members")
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Order("created_at").Find(&projects); result.Error != nil {
		return nil, fmt.Errorf("listing projects: %w", result.Error)
	}
	return projects, nil
}

func (s *ProjectStore) Update(ctx context.Context, id uuid.UUID, name *string, retentionDays, storageQuotaGB *int) (*model.Project, error) {
	project := model.NewProjectFromID(id)
	selectFields := []string{}
	if name != nil {
		project.Name = *name
		selectFields = append(selectFields, "name")
	}
	if retentionDays != nil {
		project.RetentionDays = *retentionDays
		selectFields = append(selectFields, "retention_days")
	}
	if storageQuotaGB != nil {
		project.StorageQuotaGB = *storageQuotaGB
		selectFields = append(selectFields, "storage_quota_gb")
	}

	if len(selectFields) == 0 {
		return s.Get(ctx, id)
	}

	result := s.getDB(ctx).Model(project).Clauses(clause.Returning{}).Select(selectFields).Updates(&project)
	if result.Error != nil {
		return nil, fmt.Errorf("updating project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return s.Get(ctx, id)
}

func (s *ProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	project := model.NewProjectFromID(id)
	result := s.getDB(ctx).Unscoped().Delete(&project)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("deleting project: %w", result.Error)
	}
	return nil
}

func (s *ProjectStore) UpsertMember(ctx context.Context, member model.ProjectMember) error {
	result := s.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&member)
	if result.Error != nil {
		return fmt.Errorf("upserting project member: %w", result.Error)
	}
	return nil
}

func (s *ProjectStore) RemoveMember(ctx context.Context, projectID uuid.UUID, userID string) error {
	result := s.getDB(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectMember{})
	if result.Error != nil {
		return fmt.Errorf("removing project member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *ProjectStore) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.Project{}).
		Where("customer_id = ?", customerID).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("counting projects: %w", result.Error)
	}
	return count, nil
}

func (s *ProjectStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
