package service_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/auth"
	"github.com/synthmesh/datagen-api/internal/config"
	"github.com/synthmesh/datagen-api/internal/events"
	"github.com/synthmesh/datagen-api/internal/pipeline"
	"github.com/synthmesh/datagen-api/internal/ratelimit"
	"github.com/synthmesh/datagen-api/internal/service"
	"github.com/synthmesh/datagen-api/internal/store"
)

const (
	insertCustomerStm = "INSERT INTO customers (id, org_id, name, tier, max_projects, max_concurrent_jobs, storage_quota_gb, jobs_per_minute, created_at) VALUES ('%s', '%s', '%s', 'free', 1, %d, 5, %d, CURRENT_TIMESTAMP);"
	insertProjectStm  = "INSERT INTO projects (id, customer_id, name, retention_days, storage_quota_gb, created_at) VALUES ('%s', '%s', '%s', 30, 10, CURRENT_TIMESTAMP);"
	insertJobStm      = "INSERT INTO jobs (id, customer_id, project_id, status, progress, version, created_at) VALUES ('%s', '%s', '%s', '%s', %d, %d, CURRENT_TIMESTAMP);"
	insertWebhookStm  = "INSERT INTO webhooks (id, customer_id, url, secret, events, active, created_at) VALUES ('%s', '%s', '%s', 'supersecretsigning', '%s', %t, CURRENT_TIMESTAMP);"
)

var _ = Describe("job service", Ordered, func() {
	var (
		s          store.Store
		gormdb     *gorm.DB
		enqueuer   *fakeEnqueuer
		jobSrv     *service.JobService
		customerID uuid.UUID
		projectID  uuid.UUID
		user       auth.User
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		customerID = uuid.New()
		projectID = uuid.New()
		user = auth.User{Username: "admin", Organization: "acme"}

		tx := gormdb.Exec(fmt.Sprintf(insertCustomerStm, customerID, "acme", "acme", 2, 100))
		Expect(tx.Error).To(BeNil())
		tx = gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, customerID, "proj1"))
		Expect(tx.Error).To(BeNil())

		enqueuer = newFakeEnqueuer()
		webhookSrv := service.NewWebhookService(s, enqueuer)
		jobSrv = service.NewJobService(s, ratelimit.NewLocalLimiter(), pipeline.New(""),
			events.NewEventProducer(newTestWriter()), webhookSrv)
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from webhooks;")
		gormdb.Exec("DELETE from jobs;")
		gormdb.Exec("DELETE from projects;")
		gormdb.Exec("DELETE from customers;")
	})

	Context("create", func() {
		It("creates a queued job with version 1", func() {
			job, err := jobSrv.CreateJob(context.TODO(), user, api.JobCreate{
				ProjectId: projectID,
				Config:    api.JobConfig{DataType: "csv", DataSize: 1000},
			})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(api.JobStatusQueued))
			Expect(job.Progress).To(Equal(0))
			Expect(job.Version).To(Equal(int64(1)))
			Expect(job.Config.DataType).To(Equal("csv"))
		})

		It("rejects a job against another customer's project", func() {
			otherProject := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, otherProject, uuid.NewString(), "foreign"))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.CreateJob(context.TODO(), user, api.JobCreate{
				ProjectId: otherProject,
				Config:    api.JobConfig{DataType: "csv", DataSize: 1000},
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrAccessForbidden{}))
		})

		It("rejects a job for an unknown project", func() {
			_, err := jobSrv.CreateJob(context.TODO(), user, api.JobCreate{
				ProjectId: uuid.New(),
				Config:    api.JobConfig{DataType: "csv", DataSize: 1000},
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})

		It("enforces the concurrent job limit", func() {
			// the customer allows 2 concurrent jobs
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, projectID, "running", 10, 1))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, projectID, "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.CreateJob(context.TODO(), user, api.JobCreate{
				ProjectId: projectID,
				Config:    api.JobConfig{DataType: "json", DataSize: 10},
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrJobLimitExceeded{}))
		})

		It("ignores terminal jobs when counting the limit", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, projectID, "completed", 100, 2))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, projectID, "cancelled", 0, 2))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.CreateJob(context.TODO(), user, api.JobCreate{
				ProjectId: projectID,
				Config:    api.JobConfig{DataType: "csv", DataSize: 100},
			})
			Expect(err).To(BeNil())
		})

		It("dispatches job.created to subscribed webhooks", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertWebhookStm, uuid.NewString(), customerID, "https://example.com/hook", `["job.created"]`, true))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.CreateJob(context.TODO(), user, api.JobCreate{
				ProjectId: projectID,
				Config:    api.JobConfig{DataType: "csv", DataSize: 100},
			})
			Expect(err).To(BeNil())
			Expect(enqueuer.Count()).To(Equal(1))
			Expect(enqueuer.Deliveries[0].Event).To(Equal("job.created"))
		})

		It("skips webhooks not subscribed to the event", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertWebhookStm, uuid.NewString(), customerID, "https://example.com/hook", `["job.failed"]`, true))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.CreateJob(context.TODO(), user, api.JobCreate{
				ProjectId: projectID,
				Config:    api.JobConfig{DataType: "csv", DataSize: 100},
			})
			Expect(err).To(BeNil())
			Expect(enqueuer.Count()).To(Equal(0))
		})
	})

	Context("update status", func() {
		It("walks a job through the happy path", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			job, err := jobSrv.UpdateJobStatus(context.TODO(), jobID, user, api.JobStatusUpdate{
				Status:  api.JobStatusRunning,
				Version: 1,
			})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(api.JobStatusRunning))
			Expect(job.Version).To(Equal(int64(2)))

			progress := 100
			job, err = jobSrv.UpdateJobStatus(context.TODO(), jobID, user, api.JobStatusUpdate{
				Status:   api.JobStatusCompleted,
				Progress: &progress,
				Version:  2,
			})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(api.JobStatusCompleted))
			Expect(job.Progress).To(Equal(100))
			Expect(job.Version).To(Equal(int64(3)))
		})

		It("accepts progress reports on a running job", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "running", 20, 2))
			Expect(tx.Error).To(BeNil())

			progress := 55
			job, err := jobSrv.UpdateJobStatus(context.TODO(), jobID, user, api.JobStatusUpdate{
				Status:   api.JobStatusRunning,
				Progress: &progress,
				Version:  2,
			})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(api.JobStatusRunning))
			Expect(job.Progress).To(Equal(55))
			Expect(job.Version).To(Equal(int64(3)))
		})

		It("refuses an update from another organization", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			tx = gormdb.Exec(fmt.Sprintf(insertCustomerStm, uuid.New(), "rival", "rival", 2, 100))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.UpdateJobStatus(context.TODO(), jobID, auth.User{Username: "eve", Organization: "rival"}, api.JobStatusUpdate{
				Status:  api.JobStatusRunning,
				Version: 1,
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrAccessForbidden{}))

			status := ""
			Expect(gormdb.Raw("SELECT status from jobs WHERE id = ?;", jobID).Scan(&status).Error).To(BeNil())
			Expect(status).To(Equal("queued"))
		})

		It("rejects an illegal transition", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.UpdateJobStatus(context.TODO(), jobID, user, api.JobStatusUpdate{
				Status:  api.JobStatusCompleted,
				Version: 1,
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidTransition{}))
		})

		It("rejects writes to a terminal job", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "cancelled", 0, 2))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.UpdateJobStatus(context.TODO(), jobID, user, api.JobStatusUpdate{
				Status:  api.JobStatusRunning,
				Version: 2,
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidTransition{}))
		})

		It("rejects a stale version", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "running", 50, 3))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.UpdateJobStatus(context.TODO(), jobID, user, api.JobStatusUpdate{
				Status:  api.JobStatusCompleted,
				Version: 2,
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrConcurrentUpdate{}))
		})

		It("rejects decreasing progress", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "running", 60, 2))
			Expect(tx.Error).To(BeNil())

			progress := 40
			_, err := jobSrv.UpdateJobStatus(context.TODO(), jobID, user, api.JobStatusUpdate{
				Status:   api.JobStatusRunning,
				Progress: &progress,
				Version:  2,
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrProgressDecreased{}))
		})

		It("records error details and dispatches job.failed", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertWebhookStm, uuid.NewString(), customerID, "https://example.com/hook", `["job.failed"]`, true))
			Expect(tx.Error).To(BeNil())

			jobID := uuid.New()
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "running", 50, 3))
			Expect(tx.Error).To(BeNil())

			job, err := jobSrv.UpdateJobStatus(context.TODO(), jobID, user, api.JobStatusUpdate{
				Status:  api.JobStatusFailed,
				Error:   &api.JobError{Code: "GEN_TIMEOUT", Message: "generation timed out"},
				Version: 3,
			})
			Expect(err).To(BeNil())
			Expect(job.Error).ToNot(BeNil())
			Expect(job.Error.Code).To(Equal("GEN_TIMEOUT"))

			Expect(enqueuer.Count()).To(Equal(1))
			Expect(enqueuer.Deliveries[0].Event).To(Equal("job.failed"))
		})
	})

	Context("cancel", func() {
		It("cancels a queued job", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			job, err := jobSrv.CancelJob(context.TODO(), jobID, user)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(api.JobStatusCancelled))
		})

		It("refuses to cancel a paused job", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "paused", 30, 2))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.CancelJob(context.TODO(), jobID, user)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidTransition{}))
		})

		It("refuses a cancel from another organization", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			tx = gormdb.Exec(fmt.Sprintf(insertCustomerStm, uuid.New(), "rival", "rival", 2, 100))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.CancelJob(context.TODO(), jobID, auth.User{Username: "eve", Organization: "rival"})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrAccessForbidden{}))
		})
	})

	Context("resume", func() {
		It("resumes a paused job", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "paused", 30, 2))
			Expect(tx.Error).To(BeNil())

			job, err := jobSrv.ResumeJob(context.TODO(), jobID, user)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(api.JobStatusRunning))
			Expect(job.Progress).To(Equal(30))
		})

		It("retries a failed job", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "failed", 70, 4))
			Expect(tx.Error).To(BeNil())

			job, err := jobSrv.ResumeJob(context.TODO(), jobID, user)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(api.JobStatusRunning))
		})

		It("refuses to resume a running job", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, customerID, projectID, "running", 10, 2))
			Expect(tx.Error).To(BeNil())

			_, err := jobSrv.ResumeJob(context.TODO(), jobID, user)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidTransition{}))
		})
	})

	Context("list", func() {
		It("scopes the list to the caller's organization", func() {
			otherCustomer := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertCustomerStm, otherCustomer, "rival", "rival", 2, 100))
			Expect(tx.Error).To(BeNil())

			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, projectID, "queued", 0, 1))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), otherCustomer, uuid.NewString(), "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			jobs, err := jobSrv.ListJobs(context.TODO(), user, service.JobListOptions{})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
		})

		It("filters by status", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, projectID, "running", 10, 2))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, projectID, "completed", 100, 3))
			Expect(tx.Error).To(BeNil())

			status := api.JobStatusRunning
			jobs, err := jobSrv.ListJobs(context.TODO(), user, service.JobListOptions{Status: &status})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Status).To(Equal(api.JobStatusRunning))
		})
	})

	Context("provisioning", func() {
		It("provisions a customer on first contact", func() {
			jobs, err := jobSrv.ListJobs(context.TODO(), auth.User{Username: "new", Organization: "brand-new-org"}, service.JobListOptions{})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(0))

			count := 0
			err = gormdb.Raw("SELECT COUNT(*) from customers WHERE org_id = 'brand-new-org';").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})
	})
})
