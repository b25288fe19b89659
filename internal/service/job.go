package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/auth"
	"github.com/synthmesh/datagen-api/internal/events"
	"github.com/synthmesh/datagen-api/internal/pipeline"
	"github.com/synthmesh/datagen-api/internal/ratelimit"
	"github.com/synthmesh/datagen-api/internal/service/mappers"
	"github.com/synthmesh/datagen-api/internal/store"
	"github.com/synthmesh/datagen-api/internal/store/model"
	"github.com/synthmesh/datagen-api/pkg/metrics"
	"go.uber.org/zap"
)

type JobService struct {
	store       store.Store
	limiter     ratelimit.Limiter
	pipeline    pipeline.Client
	eventWriter *events.EventProducer
	webhookSrv  *WebhookService
}

func NewJobService(s store.Store, limiter ratelimit.Limiter, pipelineClient pipeline.Client, ew *events.EventProducer, webhookSrv *WebhookService) *JobService {
	return &JobService{
		store:       s,
		limiter:     limiter,
		pipeline:    pipelineClient,
		eventWriter: ew,
		webhookSrv:  webhookSrv,
	}
}

func (s *JobService) CreateJob(ctx context.Context, user auth.User, jobCreate api.JobCreate) (*api.Job, error) {
	customer, err := s.resolveCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	project, err := s.store.Project().Get(ctx, jobCreate.ProjectId)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(jobCreate.ProjectId)
		}
		return nil, err
	}
	if project.CustomerID != customer.ID {
		return nil, NewErrAccessForbidden(project.ID, "project")
	}

	allowed, err := s.limiter.Allow(ctx, customer.ID.String(), customer.JobsPerMinute)
	if err != nil {
		// the limiter is best effort, a broken counter must not block intake
		zap.S().Named("job_service").Warnw("rate limiter unavailable", "error", err)
	} else if !allowed {
		return nil, NewErrRateLimitExceeded(customer.ID)
	}

	active, err := s.store.Job().CountActiveByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if active >= int64(customer.MaxConcurrentJobs) {
		return nil, NewErrJobLimitExceeded(customer.ID, customer.MaxConcurrentJobs)
	}

	job, err := s.store.Job().Create(ctx, mappers.JobFromApi(uuid.New(), customer.ID, jobCreate))
	if err != nil {
		return nil, err
	}

	metrics.IncreaseJobsCreatedMetric(jobCreate.Config.DataType)
	apiJob := mappers.JobToApi(*job)
	s.notifyTransition(ctx, apiJob, api.WebhookEventJobCreated)

	zap.S().Named("job_service").Infow("job created", "job_id", job.ID, "project_id", job.ProjectID)
	return &apiJob, nil
}

func (s *JobService) GetJob(ctx context.Context, jobID uuid.UUID, user auth.User) (*api.Job, error) {
	job, err := s.authorizedJob(ctx, jobID, user)
	if err != nil {
		return nil, err
	}

	apiJob := mappers.JobToApi(*job)
	return &apiJob, nil
}

type JobListOptions struct {
	ProjectID *uuid.UUID
	Status    *api.JobStatus
	Limit     int
	Offset    int
}

func (s *JobService) ListJobs(ctx context.Context, user auth.User, opts JobListOptions) (api.JobList, error) {
	customer, err := s.resolveCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	filter := store.NewJobQueryFilter().ByCustomerID(customer.ID)
	if opts.ProjectID != nil {
		filter = filter.ByProjectID(*opts.ProjectID)
	}
	if opts.Status != nil {
		filter = filter.ByStatus(string(*opts.Status))
	}

	queryOpts := store.NewJobQueryOptions().
		WithSortOrder(store.SortByCreatedTime).
		WithLimit(opts.Limit).
		WithOffset(opts.Offset)

	jobs, err := s.store.Job().List(ctx, filter, queryOpts)
	if err != nil {
		return nil, err
	}
	return mappers.JobListToApi(jobs), nil
}

// UpdateJobStatus applies a lifecycle transition reported by the pipeline.
// The update carries the version the caller read; a stale version is
// rejected so concurrent writers can never silently overwrite each other.
func (s *JobService) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, user auth.User, update api.JobStatusUpdate) (*api.Job, error) {
	job, err := s.authorizedJob(ctx, jobID, user)
	if err != nil {
		return nil, err
	}

	next := model.JobStatus(update.Status)
	if !next.Valid() {
		return nil, NewErrInvalidTransition(jobID, string(job.Status), string(update.Status))
	}
	if !job.Status.CanTransitionTo(next) {
		return nil, NewErrInvalidTransition(jobID, string(job.Status), string(next))
	}
	if update.Progress != nil && *update.Progress < job.Progress {
		return nil, NewErrProgressDecreased(jobID, job.Progress, *update.Progress)
	}

	storeUpdate := store.JobUpdate{
		Status:          next,
		Progress:        update.Progress,
		ExpectedVersion: update.Version,
	}
	if update.Error != nil {
		storeUpdate.ErrorCode = &update.Error.Code
		storeUpdate.ErrorMessage = &update.Error.Message
	}

	updated, err := s.store.Job().UpdateStatus(ctx, jobID, storeUpdate)
	if err != nil {
		if errors.Is(err, store.ErrConcurrentUpdate) {
			return nil, NewErrConcurrentUpdate(jobID)
		}
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	apiJob := mappers.JobToApi(*updated)
	s.notifyTransition(ctx, apiJob, transitionEvent(next))

	s.refreshStatusMetrics(ctx)
	return &apiJob, nil
}

func (s *JobService) CancelJob(ctx context.Context, jobID uuid.UUID, user auth.User) (*api.Job, error) {
	job, err := s.authorizedJob(ctx, jobID, user)
	if err != nil {
		return nil, err
	}

	if !job.Status.Cancellable() {
		return nil, NewErrInvalidTransition(jobID, string(job.Status), string(model.JobStatusCancelled))
	}

	updated, err := s.store.Job().UpdateStatus(ctx, jobID, store.JobUpdate{
		Status:          model.JobStatusCancelled,
		ExpectedVersion: job.Version,
	})
	if err != nil {
		if errors.Is(err, store.ErrConcurrentUpdate) {
			return nil, NewErrConcurrentUpdate(jobID)
		}
		return nil, err
	}

	// the pipeline signal is best effort, the stored status is authoritative
	if err := s.pipeline.Cancel(ctx, jobID); err != nil {
		zap.S().Named("job_service").Warnw("failed to signal pipeline cancel", "job_id", jobID, "error", err)
	}

	apiJob := mappers.JobToApi(*updated)
	s.notifyTransition(ctx, apiJob, api.WebhookEventJobUpdated)

	zap.S().Named("job_service").Infow("job cancelled", "job_id", jobID, "user", user.Username)
	return &apiJob, nil
}

func (s *JobService) ResumeJob(ctx context.Context, jobID uuid.UUID, user auth.User) (*api.Job, error) {
	job, err := s.authorizedJob(ctx, jobID, user)
	if err != nil {
		return nil, err
	}

	if !job.Status.Resumable() {
		return nil, NewErrInvalidTransition(jobID, string(job.Status), string(model.JobStatusRunning))
	}

	updated, err := s.store.Job().UpdateStatus(ctx, jobID, store.JobUpdate{
		Status:          model.JobStatusRunning,
		ExpectedVersion: job.Version,
	})
	if err != nil {
		if errors.Is(err, store.ErrConcurrentUpdate) {
			return nil, NewErrConcurrentUpdate(jobID)
		}
		return nil, err
	}

	if err := s.pipeline.Resume(ctx, jobID); err != nil {
		zap.S().Named("job_service").Warnw("failed to signal pipeline resume", "job_id", jobID, "error", err)
	}

	apiJob := mappers.JobToApi(*updated)
	s.notifyTransition(ctx, apiJob, api.WebhookEventJobUpdated)

	zap.S().Named("job_service").Infow("job resumed", "job_id", jobID, "user", user.Username)
	return &apiJob, nil
}

func (s *JobService) authorizedJob(ctx context.Context, jobID uuid.UUID, user auth.User) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	customer, err := s.resolveCustomer(ctx, user)
	if err != nil {
		return nil, err
	}
	if job.CustomerID != customer.ID {
		return nil, NewErrAccessForbidden(jobID, "job")
	}
	return job, nil
}

// resolveCustomer maps the authenticated organization to its customer row,
// provisioning a free-tier row on first contact.
func (s *JobService) resolveCustomer(ctx context.Context, user auth.User) (*model.Customer, error) {
	return resolveCustomer(ctx, s.store, user)
}

func (s *JobService) notifyTransition(ctx context.Context, job api.Job, event api.WebhookEvent) {
	lifecycleEvent := events.JobLifecycleEvent{
		JobID:      job.Id.String(),
		ProjectID:  job.ProjectId.String(),
		CustomerID: job.CustomerId.String(),
		Status:     string(job.Status),
		Progress:   job.Progress,
	}
	data, _ := json.Marshal(lifecycleEvent)
	if err := s.eventWriter.Write(ctx, events.JobMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("job_service").Errorw("failed to write lifecycle event", "error", err)
	}

	if err := s.webhookSrv.Dispatch(ctx, event, job); err != nil {
		zap.S().Named("job_service").Errorw("failed to dispatch webhooks", "job_id", job.Id, "event", event, "error", err)
	}
}

func (s *JobService) refreshStatusMetrics(ctx context.Context) {
	counts, err := s.store.Job().CountByStatus(ctx)
	if err != nil {
		zap.S().Named("job_service").Warnw("failed to refresh job status metrics", "error", err)
		return
	}
	for _, status := range []model.JobStatus{
		model.JobStatusQueued, model.JobStatusRunning, model.JobStatusPaused,
		model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled,
	} {
		metrics.UpdateJobStatusCountMetric(string(status), counts[status])
	}
}

// transitionEvent maps a reached status to the webhook event type it emits.
func transitionEvent(status model.JobStatus) api.WebhookEvent {
	switch status {
	case model.JobStatusCompleted:
		return api.WebhookEventJobCompleted
	case model.JobStatusFailed:
		return api.WebhookEventJobFailed
	default:
		return api.WebhookEventJobUpdated
	}
}
