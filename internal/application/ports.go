package application

import (
	"context"
	"time"

	"github.com/fleetline/service-reservation/internal/domain/booking"
	"github.com/fleetline/service-reservation/internal/domain/extension"
	"github.com/fleetline/service-reservation/internal/domain/latefee"
	"github.com/fleetline/service-reservation/internal/domain/payment"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/internal/domain/vehicle"
	"github.com/fleetline/service-reservation/pkg/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const eventSource = "service-reservation"

// Repositories groups the repositories bound to one unit of work.
type Repositories struct {
	Bookings   booking.BookingRepository
	Vehicles   vehicle.VehicleRepository
	Rules      pricing.PeakSeasonRuleRepository
	Extensions extension.ExtensionRepository
	LateFees   latefee.LateFeeRepository
	Payments   payment.PaymentRepository
}

// Store hands out repositories and runs units of work. Transaction may call
// fn more than once when the database asks for a retry, so fn must only
// touch the repositories it is given.
type Store interface {
	Repos() Repositories
	Transaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Authorizer answers whether an actor may perform staff-only operations.
type Authorizer interface {
	IsPrivileged(ctx context.Context, actorID uuid.UUID) bool
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ev kafka.CloudEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishEvent implements EventPublisher.
func (NopPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }

// eventEmitter publishes domain events on a best-effort basis: failures are
// logged and never returned to the caller.
type eventEmitter struct {
	publisher EventPublisher
	logger    *zap.Logger
}

func (e eventEmitter) publishEvent(ctx context.Context, topic, eventType, key string, data any) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		e.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := e.publisher.PublishEvent(ctx, topic, cloudEvent.WithSubject(key)); err != nil {
		e.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
