package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/internal/domain/vehicle"
	"github.com/fleetline/service-reservation/internal/repository/memory"
	"github.com/fleetline/service-reservation/pkg/kafka"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type staticAuthorizer map[uuid.UUID]bool

func (a staticAuthorizer) IsPrivileged(_ context.Context, actorID uuid.UUID) bool {
	return a[actorID]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, ev kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

func jan(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

// fixture wires every service against one in-memory store.
type fixture struct {
	store      *memory.Store
	clock      *fixedClock
	publisher  *recordingPublisher
	staff      uuid.UUID
	customer   uuid.UUID
	vehicle    *vehicle.Vehicle
	bookings   *application.BookingService
	extensions *application.ExtensionService
	lateFees   *application.LateFeeService
	payments   *application.PaymentService
	vehicles   *application.VehicleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	v, err := vehicle.NewVehicle("Corolla", pricing.Rates{DailyCents: 100000}, []string{"Airport", "Downtown"})
	require.NoError(t, err)
	store.AddVehicle(v)

	clock := &fixedClock{now: jan(1, 0).AddDate(0, 0, -7)}
	publisher := &recordingPublisher{}
	staff := uuid.New()
	authz := staticAuthorizer{staff: true}
	log := zap.NewNop()
	strategy := pricing.NewSeasonalStrategy()

	return &fixture{
		store:      store,
		clock:      clock,
		publisher:  publisher,
		staff:      staff,
		customer:   uuid.New(),
		vehicle:    v,
		bookings:   application.NewBookingService(store, strategy, authz, publisher, clock, "USD", log),
		extensions: application.NewExtensionService(store, strategy, authz, publisher, clock, log),
		lateFees:   application.NewLateFeeService(store, authz, publisher, clock, 2500, 4, log),
		payments:   application.NewPaymentService(store, authz, clock, log),
		vehicles:   application.NewVehicleService(store, log),
	}
}

func (f *fixture) book(t *testing.T, pickup, ret time.Time) *application.BookingDTO {
	t.Helper()
	bk, err := f.bookings.CreateBooking(context.Background(), f.customer, application.CreateBookingRequest{
		VehicleID:      f.vehicle.ID(),
		PickupAt:       pickup,
		ReturnAt:       ret,
		PickupLocation: "Airport",
	})
	require.NoError(t, err)
	return bk
}

func (f *fixture) transition(t *testing.T, bookingID uuid.UUID, actions ...application.BookingAction) {
	t.Helper()
	for _, a := range actions {
		_, err := f.bookings.TransitionBooking(context.Background(), bookingID, a, f.staff, "")
		require.NoError(t, err, "action %s", a)
	}
}
