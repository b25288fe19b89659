package store_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/synthmesh/datagen-api/internal/config"
	"github.com/synthmesh/datagen-api/internal/store"
	"github.com/synthmesh/datagen-api/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

const (
	insertJobStm = "INSERT INTO jobs (id, customer_id, project_id, status, progress, version, created_at) VALUES ('%s', '%s', '%s', '%s', %d, %d, CURRENT_TIMESTAMP);"
)

var _ = Describe("job store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
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

	Context("create", func() {
		It("creates a job with version 1", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				ID:         uuid.New(),
				CustomerID: uuid.New(),
				ProjectID:  uuid.New(),
				Status:     model.JobStatusQueued,
				Version:    1,
				Config:     []byte(`{"dataType":"csv","dataSize":500}`),
			})
			Expect(err).To(BeNil())
			Expect(job.Version).To(Equal(int64(1)))
			Expect(job.Status).To(Equal(model.JobStatusQueued))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})

	Context("get", func() {
		It("returns the job by id", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, uuid.NewString(), uuid.NewString(), "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.ID).To(Equal(jobID))
		})

		It("returns not found for a missing job", func() {
			_, err := s.Job().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})

	Context("list", func() {
		It("filters by customer", func() {
			customerID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, uuid.NewString(), "queued", 0, 1))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), uuid.NewString(), uuid.NewString(), "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			jobs, err := s.Job().List(context.TODO(), store.NewJobQueryFilter().ByCustomerID(customerID), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].CustomerID).To(Equal(customerID))
		})

		It("filters by status", func() {
			customerID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, uuid.NewString(), "running", 10, 2))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, uuid.NewString(), "completed", 100, 3))
			Expect(tx.Error).To(BeNil())

			jobs, err := s.Job().List(context.TODO(), store.NewJobQueryFilter().ByStatus("running"), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Status).To(Equal(model.JobStatusRunning))
		})

		It("applies limit and offset", func() {
			customerID := uuid.New()
			for i := 0; i < 5; i++ {
				tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, uuid.NewString(), "queued", 0, 1))
				Expect(tx.Error).To(BeNil())
			}

			jobs, err := s.Job().List(context.TODO(),
				store.NewJobQueryFilter().ByCustomerID(customerID),
				store.NewJobQueryOptions().WithLimit(2).WithOffset(1))
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(2))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})

	Context("update status", func() {
		It("applies the update and bumps the version", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, uuid.NewString(), uuid.NewString(), "queued", 0, 1))
			Expect(tx.Error).To(BeNil())

			progress := 10
			job, err := s.Job().UpdateStatus(context.TODO(), jobID, store.JobUpdate{
				Status:          model.JobStatusRunning,
				Progress:        &progress,
				ExpectedVersion: 1,
			})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusRunning))
			Expect(job.Progress).To(Equal(10))
			Expect(job.Version).To(Equal(int64(2)))
		})

		It("rejects a stale version", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, uuid.NewString(), uuid.NewString(), "running", 10, 3))
			Expect(tx.Error).To(BeNil())

			_, err := s.Job().UpdateStatus(context.TODO(), jobID, store.JobUpdate{
				Status:          model.JobStatusCompleted,
				ExpectedVersion: 2,
			})
			Expect(err).To(MatchError(store.ErrConcurrentUpdate))

			// row untouched
			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusRunning))
			Expect(job.Version).To(Equal(int64(3)))
		})

		It("returns not found for a missing job", func() {
			_, err := s.Job().UpdateStatus(context.TODO(), uuid.New(), store.JobUpdate{
				Status:          model.JobStatusRunning,
				ExpectedVersion: 1,
			})
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		It("records error details on failure", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, uuid.NewString(), uuid.NewString(), "running", 40, 2))
			Expect(tx.Error).To(BeNil())

			code := "GEN_TIMEOUT"
			message := "generation exceeded the configured timeout"
			job, err := s.Job().UpdateStatus(context.TODO(), jobID, store.JobUpdate{
				Status:          model.JobStatusFailed,
				ErrorCode:       &code,
				ErrorMessage:    &message,
				ExpectedVersion: 2,
			})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusFailed))
			Expect(*job.ErrorCode).To(Equal(code))
			Expect(*job.ErrorMessage).To(Equal(message))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})

	Context("counters", func() {
		It("counts only active jobs for a customer", func() {
			customerID := uuid.New()
			for _, status := range []string{"queued", "running", "paused", "completed", "failed", "cancelled"} {
				tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, uuid.NewString(), status, 0, 1))
				Expect(tx.Error).To(BeNil())
			}

			count, err := s.Job().CountActiveByCustomer(context.TODO(), customerID)
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(3)))
		})

		It("groups counts by status", func() {
			customerID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, uuid.NewString(), "queued", 0, 1))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, uuid.NewString(), "queued", 0, 1))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), customerID, uuid.NewString(), "failed", 0, 1))
			Expect(tx.Error).To(BeNil())

			counts, err := s.Job().CountByStatus(context.TODO())
			Expect(err).To(BeNil())
			Expect(counts[model.JobStatusQueued]).To(Equal(int64(2)))
			Expect(counts[model.JobStatusFailed]).To(Equal(int64(1)))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})
})
