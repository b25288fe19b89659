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
	insertProjectStm = "INSERT INTO projects (id, customer_id, name, retention_days, storage_quota_gb, created_at) VALUES ('%s', '%s', '%s', 30, 10, CURRENT_TIMESTAMP);"
	insertMemberStm  = "INSERT INTO project_members (project_id, user_id, role) VALUES ('%s', '%s', '%s');"
)

var _ = Describe("project store", Ordered, func() {
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
		It("creates a project with its members", func() {
			projectID := uuid.New()
			project, err := s.Project().Create(context.TODO(), model.Project{
				ID:             projectID,
				CustomerID:     uuid.New(),
				Name:           "fraud-models",
				RetentionDays:  30,
				StorageQuotaGB: 10,
				Members: []model.ProjectMember{
					{ProjectID: projectID, UserID: "alice", Role: model.ProjectRoleOwner},
				},
			})
			Expect(err).To(BeNil())
			Expect(project.Members).To(HaveLen(1))

			count := 0
			err = gormdb.Raw("SELECT COUNT(*) from project_members;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rejects a duplicate name within the same customer", func() {
			customerID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, uuid.NewString(), customerID, "fraud-models"))
			Expect(tx.Error).To(BeNil())

			_, err := s.Project().Create(context.TODO(), model.Project{
				ID:         uuid.New(),
				CustomerID: customerID,
				Name:       "fraud-models",
			})
			Expect(err).To(MatchError(store.ErrDuplicateKey))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from project_members;")
			gormdb.Exec("DELETE from projects;")
		})
	})

	Context("get", func() {
		It("preloads the members", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, uuid.NewString(), "proj1"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertMemberStm, projectID, "alice", "owner"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertMemberStm, projectID, "bob", "viewer"))
			Expect(tx.Error).To(BeNil())

			project, err := s.Project().Get(context.TODO(), projectID)
			Expect(err).To(BeNil())
			Expect(project.Members).To(HaveLen(2))
			Expect(project.OwnerCount()).To(Equal(1))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from project_members;")
			gormdb.Exec("DELETE from projects;")
		})
	})

	Context("members", func() {
		It("upserts a member role", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, uuid.NewString(), "proj1"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertMemberStm, projectID, "bob", "viewer"))
			Expect(tx.Error).To(BeNil())

			err := s.Project().UpsertMember(context.TODO(), model.ProjectMember{
				ProjectID: projectID,
				UserID:    "bob",
				Role:      model.ProjectRoleAdmin,
			})
			Expect(err).To(BeNil())

			project, err := s.Project().Get(context.TODO(), projectID)
			Expect(err).To(BeNil())
			Expect(project.Member("bob").Role).To(Equal(model.ProjectRoleAdmin))
		})

		It("adds a new member", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, uuid.NewString(), "proj1"))
			Expect(tx.Error).To(BeNil())

			err := s.Project().UpsertMember(context.TODO(), model.ProjectMember{
				ProjectID: projectID,
				UserID:    "carol",
				Role:      model.ProjectRoleMember,
			})
			Expect(err).To(BeNil())

			project, err := s.Project().Get(context.TODO(), projectID)
			Expect(err).To(BeNil())
			Expect(project.Members).To(HaveLen(1))
		})

		It("removes a member", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, uuid.NewString(), "proj1"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertMemberStm, projectID, "bob", "viewer"))
			Expect(tx.Error).To(BeNil())

			err := s.Project().RemoveMember(context.TODO(), projectID, "bob")
			Expect(err).To(BeNil())

			count := 0
			err = gormdb.Raw("SELECT COUNT(*) from project_members;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from project_members;")
			gormdb.Exec("DELETE from projects;")
		})
	})

	Context("count", func() {
		It("counts projects per customer", func() {
			customerID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, uuid.NewString(), customerID, "proj1"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertProjectStm, uuid.NewString(), customerID, "proj2"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertProjectStm, uuid.NewString(), uuid.NewString(), "proj1"))
			Expect(tx.Error).To(BeNil())

			count, err := s.Project().CountByCustomer(context.TODO(), customerID)
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(2)))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from projects;")
		})
	})
})
