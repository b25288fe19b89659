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
	"github.com/synthmesh/datagen-api/internal/cloudiam"
	"github.com/synthmesh/datagen-api/internal/config"
	"github.com/synthmesh/datagen-api/internal/service"
	"github.com/synthmesh/datagen-api/internal/store"
)

var _ = Describe("customer service", Ordered, func() {
	var (
		s           store.Store
		gormdb      *gorm.DB
		customerSrv *service.CustomerService
		customerID  uuid.UUID
		user        auth.User
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
		user = auth.User{Username: "admin", Organization: "acme"}

		tx := gormdb.Exec(fmt.Sprintf(insertCustomerStm, customerID, "acme", "acme", 1, 5))
		Expect(tx.Error).To(BeNil())

		customerSrv = service.NewCustomerService(s, cloudiam.NewStubClient())
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from audit_events;")
		gormdb.Exec("DELETE from customers;")
	})

	Context("subscription", func() {
		It("returns the current tier and limits", func() {
			subscription, err := customerSrv.GetSubscription(context.TODO(), customerID, user)
			Expect(err).To(BeNil())
			Expect(subscription.Tier).To(Equal(api.TierFree))
		})

		It("cascades the new tier's limits", func() {
			subscription, err := customerSrv.UpdateSubscription(context.TODO(), customerID, user, api.SubscriptionUpdate{Tier: api.TierPro})
			Expect(err).To(BeNil())
			Expect(subscription.Tier).To(Equal(api.TierPro))
			Expect(subscription.Limits.MaxProjects).To(Equal(10))
			Expect(subscription.Limits.MaxConcurrentJobs).To(Equal(5))
			Expect(subscription.Limits.JobsPerMinute).To(Equal(30))

			// the row carries the new limits for request-time enforcement
			maxProjects := 0
			err = gormdb.Raw("SELECT max_projects from customers WHERE id = ?;", customerID).Scan(&maxProjects).Error
			Expect(err).To(BeNil())
			Expect(maxProjects).To(Equal(10))
		})

		It("audits the tier change", func() {
			_, err := customerSrv.UpdateSubscription(context.TODO(), customerID, user, api.SubscriptionUpdate{Tier: api.TierStarter})
			Expect(err).To(BeNil())

			count := 0
			err = gormdb.Raw("SELECT COUNT(*) from audit_events WHERE action = 'subscription.updated';").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("refuses another organization's subscription", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertCustomerStm, uuid.New(), "rival", "rival", 1, 5))
			Expect(tx.Error).To(BeNil())

			_, err := customerSrv.GetSubscription(context.TODO(), customerID, auth.User{Username: "eve", Organization: "rival"})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrAccessForbidden{}))
		})
	})

	Context("service account", func() {
		It("provisions an account once", func() {
			account, err := customerSrv.CreateServiceAccount(context.TODO(), customerID, user)
			Expect(err).To(BeNil())
			Expect(account.Email).ToNot(BeEmpty())
			Expect(account.KeyRef).ToNot(BeEmpty())

			// a second create returns the existing account
			again, err := customerSrv.CreateServiceAccount(context.TODO(), customerID, user)
			Expect(err).To(BeNil())
			Expect(again.Email).To(Equal(account.Email))
		})

		It("reports a missing account", func() {
			_, err := customerSrv.GetServiceAccount(context.TODO(), customerID, user)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrServiceAccountMissing{}))
		})

		It("rotates the key and records the time", func() {
			account, err := customerSrv.CreateServiceAccount(context.TODO(), customerID, user)
			Expect(err).To(BeNil())

			rotated, err := customerSrv.RotateServiceAccountKey(context.TODO(), customerID, user)
			Expect(err).To(BeNil())
			Expect(rotated.KeyRef).ToNot(Equal(account.KeyRef))
			Expect(rotated.RotatedAt).ToNot(BeNil())
			Expect(rotated.Email).To(Equal(account.Email))
		})

		It("refuses to rotate a missing account", func() {
			_, err := customerSrv.RotateServiceAccountKey(context.TODO(), customerID, user)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrServiceAccountMissing{}))
		})

		It("deletes the account", func() {
			_, err := customerSrv.CreateServiceAccount(context.TODO(), customerID, user)
			Expect(err).To(BeNil())

			Expect(customerSrv.DeleteServiceAccount(context.TODO(), customerID, user)).To(BeNil())

			_, err = customerSrv.GetServiceAccount(context.TODO(), customerID, user)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrServiceAccountMissing{}))
		})
	})
})
