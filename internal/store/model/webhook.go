package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Webhook struct {
	gorm.Model
	ID         uuid.UUID `gorm:"primaryKey"`
	CustomerID uuid.UUID `gorm:"index;not null"`
	URL        string    `gorm:"not null"`
	Secret     string    `gorm:"not null"`
	Events     []byte    `gorm:"type:jsonb;not null"`
	Active     bool      `gorm:"not null;default:true"`
}

type WebhookList []Webhook

func (w Webhook) String() string {
	val, _ := json.Marshal(w)
	return string(val)
}

func NewWebhookFromID(id uuid.UUID) *Webhook {
	return &Webhook{ID: id}
}

// EventList decodes the jsonb events column.
func (w *Webhook) EventList() []string {
	var events []string
	_ = json.Unmarshal(w.Events, &events)
	return events
}

// SubscribedTo reports whether the registration covers the given event type.
func (w *Webhook) SubscribedTo(event string) bool {
	for _, e := range w.EventList() {
		if e == event {
			return true
		}
	}
	return false
}

// WebhookDelivery is one delivery attempt against a registered endpoint.
type WebhookDelivery struct {
	gorm.Model
	WebhookID  uuid.UUID `gorm:"index;not null"`
	JobID      uuid.UUID `gorm:"index;not null"`
	Event      string    `gorm:"type:VARCHAR(32);not null"`
	Attempt    int       `gorm:"not null"`
	StatusCode int
	Success    bool `gorm:"not null"`
	Error      string
}

type WebhookDeliveryList []WebhookDelivery
