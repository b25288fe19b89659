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
	insertWebhookStm = "INSERT INTO webhooks (id, customer_id, url, secret, events, active, created_at) VALUES ('%s', '%s', '%s', 'supersecretsigning', '%s', %t, CURRENT_TIMESTAMP);"
)

var _ = Describe("webhook store", Ordered, func() {
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

	Context("list", func() {
		It("filters by customer", func() {
			customerID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertWebhookStm, uuid.NewString(), customerID, "https://example.com/hook", `["job.completed"]`, true))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertWebhookStm, uuid.NewString(), uuid.NewString(), "https://other.example.com/hook", `["job.failed"]`, true))
			Expect(tx.Error).To(BeNil())

			webhooks, err := s.Webhook().List(context.TODO(), store.NewWebhookQueryFilter().ByCustomerID(customerID))
			Expect(err).To(BeNil())
			Expect(webhooks).To(HaveLen(1))
			Expect(webhooks[0].CustomerID).To(Equal(customerID))
		})

		It("filters inactive registrations", func() {
			customerID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertWebhookStm, uuid.NewString(), customerID, "https://example.com/hook", `["job.completed"]`, true))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertWebhookStm, uuid.NewString(), customerID, "https://example.com/hook2", `["job.completed"]`, false))
			Expect(tx.Error).To(BeNil())

			webhooks, err := s.Webhook().List(context.TODO(), store.NewWebhookQueryFilter().ByCustomerID(customerID).OnlyActive())
			Expect(err).To(BeNil())
			Expect(webhooks).To(HaveLen(1))
			Expect(webhooks[0].Active).To(BeTrue())
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from webhooks;")
		})
	})

	Context("update", func() {
		It("updates the url and deactivates", func() {
			webhookID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertWebhookStm, webhookID, uuid.NewString(), "https://example.com/hook", `["job.completed"]`, true))
			Expect(tx.Error).To(BeNil())

			url := "https://example.com/hook-v2"
			active := false
			webhook, err := s.Webhook().Update(context.TODO(), webhookID, &url, nil, nil, &active)
			Expect(err).To(BeNil())
			Expect(webhook.URL).To(Equal(url))
			Expect(webhook.Active).To(BeFalse())
			// untouched fields survive
			Expect(webhook.Secret).To(Equal("supersecretsigning"))
			Expect(webhook.SubscribedTo("job.completed")).To(BeTrue())
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from webhooks;")
		})
	})

	Context("deliveries", func() {
		It("records and lists delivery attempts", func() {
			webhookID := uuid.New()
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertWebhookStm, webhookID, uuid.NewString(), "https://example.com/hook", `["job.completed"]`, true))
			Expect(tx.Error).To(BeNil())

			err := s.Webhook().RecordDelivery(context.TODO(), model.WebhookDelivery{
				WebhookID:  webhookID,
				JobID:      jobID,
				Event:      "job.completed",
				Attempt:    1,
				StatusCode: 500,
				Success:    false,
				Error:      "endpoint returned 500",
			})
			Expect(err).To(BeNil())

			err = s.Webhook().RecordDelivery(context.TODO(), model.WebhookDelivery{
				WebhookID:  webhookID,
				JobID:      jobID,
				Event:      "job.completed",
				Attempt:    2,
				StatusCode: 200,
				Success:    true,
			})
			Expect(err).To(BeNil())

			deliveries, err := s.Webhook().ListDeliveries(context.TODO(), webhookID, 10)
			Expect(err).To(BeNil())
			Expect(deliveries).To(HaveLen(2))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from webhook_deliveries;")
			gormdb.Exec("DELETE from webhooks;")
		})
	})
})
