package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/events"
	"github.com/synthmesh/datagen-api/internal/service/mappers"
	"github.com/synthmesh/datagen-api/internal/store"
	"github.com/synthmesh/datagen-api/pkg/metrics"
	"go.uber.org/zap"
)

type WaitlistService struct {
	store       store.Store
	eventWriter *events.EventProducer
}

func NewWaitlistService(s store.Store, ew *events.EventProducer) *WaitlistService {
	return &WaitlistService{store: s, eventWriter: ew}
}

// Signup records a waitlist entry. Signing up twice with the same email is
// not an error, the first entry stands.
func (s *WaitlistService) Signup(ctx context.Context, signup api.WaitlistSignup) error {
	entry, err := s.store.Waitlist().Add(ctx, mappers.WaitlistEntryFromApi(signup))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			zap.S().Named("waitlist_service").Debugw("duplicate signup ignored", "email", signup.Email)
			return nil
		}
		return err
	}

	metrics.IncreaseWaitlistSignupsMetric()

	data, _ := json.Marshal(events.WaitlistEvent{Email: entry.Email, Company: entry.Company})
	if err := s.eventWriter.Write(ctx, events.WaitlistMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("waitlist_service").Errorw("failed to write waitlist event", "error", err)
	}

	zap.S().Named("waitlist_service").Infow("waitlist signup", "email", entry.Email)
	return nil
}
