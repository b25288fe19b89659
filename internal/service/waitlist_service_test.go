package service_test

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/config"
	"github.com/synthmesh/datagen-api/internal/events"
	"github.com/synthmesh/datagen-api/internal/service"
	"github.com/synthmesh/datagen-api/internal/store"
)

var _ = Describe("waitlist service", Ordered, func() {
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

	AfterEach(func() {
		gormdb.Exec("DELETE from waitlist_entries;")
	})

	Context("signup", func() {
		It("stores the entry", func() {
			srv := service.NewWaitlistService(s, events.NewEventProducer(newTestWriter()))

			err := srv.Signup(context.TODO(), api.WaitlistSignup{
				Email:   "founder@startup.example",
				Company: "Startup Inc",
				UseCase: "synthetic payments data for model training",
			})
			Expect(err).To(BeNil())

			count := 0
			err = gormdb.Raw("SELECT COUNT(*) from waitlist_entries;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("treats a duplicate email as a no-op", func() {
			srv := service.NewWaitlistService(s, events.NewEventProducer(newTestWriter()))

			signup := api.WaitlistSignup{Email: "founder@startup.example"}
			Expect(srv.Signup(context.TODO(), signup)).To(BeNil())
			Expect(srv.Signup(context.TODO(), signup)).To(BeNil())

			count := 0
			err := gormdb.Raw("SELECT COUNT(*) from waitlist_entries;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("emits a waitlist event", func() {
			eventWriter := newTestWriter()
			srv := service.NewWaitlistService(s, events.NewEventProducer(eventWriter))

			err := srv.Signup(context.TODO(), api.WaitlistSignup{Email: "founder@startup.example", Company: "Startup Inc"})
			Expect(err).To(BeNil())

			<-time.After(500 * time.Millisecond)

			Expect(eventWriter.Messages).To(HaveLen(1))
			e := eventWriter.Messages[0]
			Expect(e.Type()).To(Equal(events.WaitlistMessageKind))

			ev := &events.WaitlistEvent{}
			Expect(json.Unmarshal(e.Data(), ev)).To(BeNil())
			Expect(ev.Email).To(Equal("founder@startup.example"))
			Expect(ev.Company).To(Equal("Startup Inc"))
		})
	})
})
