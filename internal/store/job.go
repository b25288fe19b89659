package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/synthmesh/datagen-api/internal/store/model"
	"gorm.io/gorm"
)

// JobUpdate is a conditional status write. The update only applies when the
// stored row still carries ExpectedVersion; a mismatch means another writer
// got there first.
type JobUpdate struct {
	Status          model.JobStatus
	Progress        *int
	ErrorCode       *string
	ErrorMessage    *string
	ResultRef       *string
	ExpectedVersion int64
}

type Job interface {
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, update JobUpdate) (*model.Job, error)
	CountActiveByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[model.JobStatus]int64, error)
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	if result := s.getDB(ctx).Create(&job); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job := model.NewJobFromID(id)
	if result := s.getDB(ctx).First(&job); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying job: %w", result.Error)
	}
	return job, nil
}

func (s *JobStore) List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error) {
	var jobs model.JobList

	tx := s.getDB(ctx).Model(&model.Job{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Find(&jobs); result.Error != nil {
		return nil, fmt.Errorf("listing jobs: %w", result.Error)
	}
	return jobs, nil
}

func (s *JobStore) UpdateStatus(ctx context.Context, id uuid.UUID, update JobUpdate) (*model.Job, error) {
	fields := map[string]any{
		"status":  update.Status,
		"version": update.ExpectedVersion + 1,
	}
	if update.Progress != nil {
		fields["progress"] = *update.Progress
	}
	if update.ErrorCode != nil {
		fields["error_code"] = *update.ErrorCode
	}
	if update.ErrorMessage != nil {
		fields["error_message"] = *update.ErrorMessage
	}
	if update.ResultRef != nil {
		fields["result_ref"] = *update.ResultRef
	}

	result := s.getDB(ctx).Model(&model.Job{}).
		Where("id = ? AND version = ?", id, update.ExpectedVersion).
		Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("updating job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// either the row is gone or the version moved under us
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConcurrentUpdate
	}

	return s.Get(ctx, id)
}

func (s *JobStore) CountActiveByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.Job{}).
		Where("customer_id = ? AND status IN ?", customerID,
			[]string{string(model.JobStatusQueued), string(model.JobStatusRunning), string(model.JobStatusPaused)}).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("counting active jobs: %w", result.Error)
	}
	return count, nil
}

func (s *JobStore) CountByStatus(ctx context.Context) (map[model.JobStatus]int64, error) {
	var rows []struct {
		Status model.JobStatus
		Count  int64
	}
	result := s.getDB(ctx).Model(&model.Job{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("counting jobs by status: %w", result.Error)
	}

	counts := make(map[model.JobStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
