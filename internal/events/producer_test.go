package events

import (
	"bytes"
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("delivers buffered messages to the writer", func() {
			w := newTestWriter()
			ep := NewEventProducer(w)

			err := ep.Write(context.TODO(), JobMessageKind, bytes.NewReader([]byte("msg1")))
			Expect(err).To(BeNil())

			Eventually(w.Count, 2*time.Second).Should(Equal(1))
			Expect(w.Message(0).Context.GetType()).To(Equal(JobMessageKind))
			Expect(w.Message(0).Data()).To(Equal([]byte("msg1")))

			err = ep.Write(context.TODO(), WaitlistMessageKind, bytes.NewReader([]byte("msg2")))
			Expect(err).To(BeNil())

			Eventually(w.Count, 2*time.Second).Should(Equal(2))
			Expect(w.Message(1).Context.GetType()).To(Equal(WaitlistMessageKind))

			Expect(ep.Close()).To(BeNil())
		})

		It("drains messages queued before the consumer catches up", func() {
			w := newTestWriter()
			ep := NewEventProducer(w)

			for _, m := range []string{"a", "b", "c", "d"} {
				Expect(ep.Write(context.TODO(), JobMessageKind, bytes.NewReader([]byte(m)))).To(BeNil())
			}

			Eventually(w.Count, 2*time.Second).Should(Equal(4))
			// FIFO order survives the buffer
			Expect(w.Message(0).Data()).To(Equal([]byte("a")))
			Expect(w.Message(3).Data()).To(Equal([]byte("d")))

			Expect(ep.Close()).To(BeNil())
		})

		It("publishes on the configured topic", func() {
			w := newTestWriter()
			ep := NewEventProducer(w, WithOutputTopic("custom.topic"))

			Expect(ep.Write(context.TODO(), JobMessageKind, bytes.NewReader([]byte("msg")))).To(BeNil())

			Eventually(w.Count, 2*time.Second).Should(Equal(1))
			Expect(w.Topic(0)).To(Equal("custom.topic"))

			Expect(ep.Close()).To(BeNil())
		})
	})
})

// testwriter records written events; the producer writes from its own
// goroutine so access is guarded.
type testwriter struct {
	mu       sync.Mutex
	topics   []string
	messages []cloudevents.Event
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(_ context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.topics = append(t.topics, topic)
	t.messages = append(t.messages, e)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *testwriter) Message(i int) cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messages[i]
}

func (t *testwriter) Topic(i int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.topics[i]
}
