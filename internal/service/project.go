package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/auth"
	"github.com/synthmesh/datagen-api/internal/service/mappers"
	"github.com/synthmesh/datagen-api/internal/store"
	"github.com/synthmesh/datagen-api/internal/store/model"
	"go.uber.org/zap"
)

type ProjectService struct {
	store store.Store
}

func NewProjectService(s store.Store) *ProjectService {
	return &ProjectService{store: s}
}

func (s *ProjectService) CreateProject(ctx context.Context, user auth.User, create api.ProjectCreate) (*api.Project, error) {
	customer, err := resolveCustomer(ctx, s.store, user)
	if err != nil {
		return nil, err
	}

	count, err := s.store.Project().CountByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if count >= int64(customer.MaxProjects) {
		return nil, NewErrProjectLimitExceeded(customer.ID, customer.MaxProjects)
	}

	project := mappers.ProjectFromApi(uuid.New(), customer.ID, create)
	// the creator is always the first owner
	project.Members = []model.ProjectMember{
		{ProjectID: project.ID, UserID: user.Username, Role: model.ProjectRoleOwner},
	}

	created, err := s.store.Project().Create(ctx, project)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, fmt.Errorf("project name %q already exists", create.Name)
		}
		return nil, err
	}

	s.audit(ctx, customer.ID, user.Username, "project.created", "project/"+created.ID.String(), nil)

	apiProject := mappers.ProjectToApi(*created)
	zap.S().Named("project_service").Infow("project created", "project_id", created.ID, "name", created.Name)
	return &apiProject, nil
}

func (s *ProjectService) ListProjects(ctx context.Context, user auth.User) (api.ProjectList, error) {
	customer, err := resolveCustomer(ctx, s.store, user)
	if err != nil {
		return nil, err
	}

	projects, err := s.store.Project().List(ctx, store.NewProjectQueryFilter().ByCustomerID(customer.ID))
	if err != nil {
		return nil, err
	}
	return mappers.ProjectListToApi(projects), nil
}

func (s *ProjectService) GetProject(ctx context.Context, projectID uuid.UUID, user auth.User) (*api.Project, error) {
	project, err := s.authorizedProject(ctx, projectID, user)
	if err != nil {
		return nil, err
	}

	apiProject := mappers.ProjectToApi(*project)
	return &apiProject, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, projectID uuid.UUID, user auth.User, update api.ProjectUpdate) (*api.Project, error) {
	if _, err := s.authorizedProject(ctx, projectID, user); err != nil {
		return nil, err
	}

	var retentionDays, storageQuotaGB *int
	if update.Settings != nil {
		retentionDays = &update.Settings.RetentionDays
		storageQuotaGB = &update.Settings.StorageQuotaGB
	}

	updated, err := s.store.Project().Update(ctx, projectID, update.Name, retentionDays, storageQuotaGB)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(projectID)
		}
		return nil, err
	}

	apiProject := mappers.ProjectToApi(*updated)
	return &apiProject, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, projectID uuid.UUID, user auth.User) error {
	project, err := s.authorizedProject(ctx, projectID, user)
	if err != nil {
		return err
	}

	if err := s.store.Project().Delete(ctx, projectID); err != nil {
		return err
	}

	s.audit(ctx, project.CustomerID, user.Username, "project.deleted", "project/"+projectID.String(), nil)
	zap.S().Named("project_service").Infow("project deleted", "project_id", projectID, "user", user.Username)
	return nil
}

// UpsertMember adds a member or changes its role. Demoting the only owner is
// rejected so every project keeps at least one; the owner-count check and
// the write share a transaction so concurrent demotions cannot interleave.
func (s *ProjectService) UpsertMember(ctx context.Context, projectID uuid.UUID, user auth.User, userID string, role api.ProjectRole) (*api.Project, error) {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	project, err := s.authorizedProject(ctx, projectID, user)
	if err != nil {
		return nil, err
	}

	if role != api.ProjectRoleOwner {
		if member := project.Member(userID); member != nil &&
			member.Role == model.ProjectRoleOwner && project.OwnerCount() == 1 {
			return nil, NewErrLastOwner(projectID, userID)
		}
	}

	err = s.store.Project().UpsertMember(ctx, model.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      string(role),
	})
	if err != nil {
		return nil, err
	}

	if ctx, err = store.Commit(ctx); err != nil {
		return nil, err
	}

	details, _ := json.Marshal(map[string]string{"userId": userID, "role": string(role)})
	s.audit(ctx, project.CustomerID, user.Username, "project.member_upserted", "project/"+projectID.String(), details)

	return s.GetProject(ctx, projectID, user)
}

func (s *ProjectService) RemoveMember(ctx context.Context, projectID uuid.UUID, user auth.User, userID string) error {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	project, err := s.authorizedProject(ctx, projectID, user)
	if err != nil {
		return err
	}

	member := project.Member(userID)
	if member == nil {
		return NewErrResourceNotFound(projectID, "project member")
	}
	if member.Role == model.ProjectRoleOwner && project.OwnerCount() == 1 {
		return NewErrLastOwner(projectID, userID)
	}

	if err := s.store.Project().RemoveMember(ctx, projectID, userID); err != nil {
		return err
	}

	if ctx, err = store.Commit(ctx); err != nil {
		return err
	}

	details, _ := json.Marshal(map[string]string{"userId": userID})
	s.audit(ctx, project.CustomerID, user.Username, "project.member_removed", "project/"+projectID.String(), details)
	return nil
}

// GetMetrics aggregates job counts and storage usage for one project.
func (s *ProjectService) GetMetrics(ctx context.Context, projectID uuid.UUID, user auth.User) (*api.ProjectMetrics, error) {
	project, err := s.authorizedProject(ctx, projectID, user)
	if err != nil {
		return nil, err
	}

	jobs, err := s.store.Job().List(ctx, store.NewJobQueryFilter().ByProjectID(projectID), nil)
	if err != nil {
		return nil, err
	}

	result := api.ProjectMetrics{
		JobCounts:  make(map[api.JobStatus]int64),
		TotalJobs:  int64(len(jobs)),
		UsageBytes: project.UsageBytes,
	}
	for i := range jobs {
		result.JobCounts[api.JobStatus(jobs[i].Status)]++
	}
	return &result, nil
}

func (s *ProjectService) authorizedProject(ctx context.Context, projectID uuid.UUID, user auth.User) (*model.Project, error) {
	project, err := s.store.Project().Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(projectID)
		}
		return nil, err
	}

	customer, err := resolveCustomer(ctx, s.store, user)
	if err != nil {
		return nil, err
	}
	if project.CustomerID != customer.ID {
		return nil, NewErrAccessForbidden(projectID, "project")
	}
	return project, nil
}

func (s *ProjectService) audit(ctx context.Context, customerID uuid.UUID, actor, action, resource string, details []byte) {
	_, err := s.store.Audit().Append(ctx, model.AuditEvent{
		CustomerID: customerID,
		Actor:      actor,
		Action:     action,
		Resource:   resource,
		Details:    details,
	})
	if err != nil {
		zap.S().Named("project_service").Warnw("failed to append audit event", "action", action, "error", err)
	}
}
