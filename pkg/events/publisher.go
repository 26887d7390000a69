// Package events announces entity lifecycle changes on a Kafka topic.
// Publishing is best effort: services log failures and never surface
// them to callers.
package events

import (
	"context"

	"tourdesk/pkg/kafka"
	"tourdesk/pkg/logger"
)

// Event types published by the back office.
const (
	ProviderCreated  = "provider.created"
	ProviderUpdated  = "provider.updated"
	ProviderDeleted  = "provider.deleted"
	ProviderRestored = "provider.restored"
	ProviderRated    = "provider.rated"

	JourneyCreated       = "journey.created"
	JourneyUpdated       = "journey.updated"
	JourneyGuideAssigned = "journey.guide_assigned"
	JourneyStatusChanged = "journey.status_changed"
	JourneyDeleted       = "journey.deleted"
	JourneyRestored      = "journey.restored"

	BookingCreated       = "booking.created"
	BookingUpdated       = "booking.updated"
	BookingStatusChanged = "booking.status_changed"
	BookingCancelled     = "booking.cancelled"
	BookingDeleted       = "booking.deleted"
	BookingRestored      = "booking.restored"

	UserCreated  = "user.created"
	UserUpdated  = "user.updated"
	UserDeleted  = "user.deleted"
	UserRestored = "user.restored"
	UserLocked   = "user.locked"
)

type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, source string, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(p.source).
		Build()
	if err != nil {
		return err
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish lifecycle event",
			"event_type", eventType,
			"key", key,
			"error", err,
		)
		return err
	}

	return nil
}

// Noop discards events; used when no topic is configured and in tests.
type Noop struct{}

func (Noop) Publish(ctx context.Context, eventType, key string, payload any) error {
	return nil
}
