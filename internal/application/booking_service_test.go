package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/fleetline/service-reservation/pkg/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking_PricesWeekAtWeeklyRate(t *testing.T) {
	f := newFixture(t)

	bk := f.book(t, jan(1, 0), jan(8, 0))

	assert.Equal(t, "pending", bk.Status)
	assert.Equal(t, int64(630000), bk.TotalPriceCents)
	assert.Equal(t, int64(70000), bk.DiscountCents)
	assert.Equal(t, "USD", bk.Currency)
	assert.Equal(t, "Airport", bk.DropoffLocation)
	assert.Equal(t, []string{events.BookingRequested}, f.publisher.types())
}

func TestCreateBooking_OverlapConflictNamesBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, jan(10, 0), jan(15, 0))
	f.transition(t, a.ID, application.ActionApprove)

	_, err := f.bookings.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
		VehicleID:      f.vehicle.ID(),
		PickupAt:       jan(14, 0),
		ReturnAt:       jan(20, 0),
		PickupLocation: "Airport",
	})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{a.ID.String()}, de.Details["conflicting_ids"])

	stats, err := f.bookings.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalBookings, "no row is created on conflict")
}

func TestCreateBooking_FreedByRejection(t *testing.T) {
	f := newFixture(t)

	a := f.book(t, jan(10, 0), jan(15, 0))
	f.transition(t, a.ID, application.ActionReject)

	f.book(t, jan(12, 0), jan(14, 0))
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   application.CreateBookingRequest
		check func(error) bool
	}{
		{
			name:  "return before pickup",
			req:   application.CreateBookingRequest{VehicleID: f.vehicle.ID(), PickupAt: jan(5, 0), ReturnAt: jan(4, 0), PickupLocation: "Airport"},
			check: domain.IsValidation,
		},
		{
			name:  "pickup location not served",
			req:   application.CreateBookingRequest{VehicleID: f.vehicle.ID(), PickupAt: jan(5, 0), ReturnAt: jan(6, 0), PickupLocation: "Harbour"},
			check: domain.IsValidation,
		},
		{
			name:  "unknown vehicle",
			req:   application.CreateBookingRequest{VehicleID: uuid.New(), PickupAt: jan(5, 0), ReturnAt: jan(6, 0), PickupLocation: "Airport"},
			check: domain.IsNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.CreateBooking(ctx, f.customer, tt.req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestCreateBooking_ConcurrentRequestsAdmitOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			_, err := f.bookings.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
				VehicleID:      f.vehicle.ID(),
				PickupAt:       jan(10, offset%3),
				ReturnAt:       jan(12, 0),
				PickupLocation: "Downtown",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if domain.IsConflict(err) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	free, err := f.bookings.CheckAvailability(ctx, application.CheckAvailabilityRequest{
		VehicleID: f.vehicle.ID(), PickupAt: jan(1, 0), ReturnAt: jan(8, 0),
	})
	require.NoError(t, err)
	assert.True(t, free.Available)
	require.NotNil(t, free.Pricing)
	assert.Equal(t, int64(630000), free.Pricing.TotalCents)

	a := f.book(t, jan(1, 0), jan(8, 0))

	taken, err := f.bookings.CheckAvailability(ctx, application.CheckAvailabilityRequest{
		VehicleID: f.vehicle.ID(), PickupAt: jan(7, 0), ReturnAt: jan(9, 0),
	})
	require.NoError(t, err)
	assert.False(t, taken.Available)
	assert.Nil(t, taken.Pricing)
	assert.Equal(t, []uuid.UUID{a.ID}, taken.ConflictingBookingIDs)
}

func TestCheckAvailability_RejectsOverlongRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.bookings.CheckAvailability(context.Background(), application.CheckAvailabilityRequest{
		VehicleID: f.vehicle.ID(),
		PickupAt:  jan(1, 0),
		ReturnAt:  time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, domain.IsValidation(err))
}

func TestCheckAvailability_AppliesPeakRules(t *testing.T) {
	f := newFixture(t)
	f.store.AddPeakSeasonRule(pricing.PeakSeasonRule{
		ID:         uuid.New(),
		Name:       "new year",
		StartDate:  jan(1, 0),
		EndDate:    jan(1, 0),
		Multiplier: 2,
		Active:     true,
		CreatedAt:  jan(1, 0).AddDate(-1, 0, 0),
	})

	res, err := f.bookings.CheckAvailability(context.Background(), application.CheckAvailabilityRequest{
		VehicleID: f.vehicle.ID(), PickupAt: jan(1, 0), ReturnAt: jan(3, 0),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Pricing)
	assert.Equal(t, int64(300000), res.Pricing.TotalCents)
	assert.Equal(t, 2.0, res.Pricing.AppliedMultiplier)
}

func TestTransitionBooking_RejectThenApproveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(10, 0), jan(12, 0))

	rejected, err := f.bookings.TransitionBooking(ctx, bk.ID, application.ActionReject, f.staff, "no licence")
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "no licence", rejected.RejectReason)

	_, err = f.bookings.TransitionBooking(ctx, bk.ID, application.ActionApprove, f.staff, "")
	require.Error(t, err)
	assert.True(t, domain.IsInvalidState(err))
}

func TestTransitionBooking_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(10, 0), jan(12, 0))

	_, err := f.bookings.TransitionBooking(ctx, bk.ID, application.ActionApprove, f.customer, "")
	assert.True(t, domain.IsForbidden(err))

	f.transition(t, bk.ID, application.ActionApprove)

	_, err = f.bookings.TransitionBooking(ctx, bk.ID, application.ActionCancel, uuid.New(), "")
	assert.True(t, domain.IsForbidden(err), "strangers cannot cancel")

	cancelled, err := f.bookings.TransitionBooking(ctx, bk.ID, application.ActionCancel, f.customer, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, int64(3), cancelled.Version)
}

func TestTransitionBooking_CancelPendingIsInvalidState(t *testing.T) {
	f := newFixture(t)
	bk := f.book(t, jan(10, 0), jan(12, 0))

	_, err := f.bookings.TransitionBooking(context.Background(), bk.ID, application.ActionCancel, f.customer, "")
	assert.True(t, domain.IsInvalidState(err))
}

func TestTransitionBooking_CompleteBlockedByUnpaidLateFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(10, 0), jan(12, 10))
	f.transition(t, bk.ID, application.ActionApprove, application.ActionBegin)

	f.clock.Set(jan(12, 14))
	fee, err := f.lateFees.ComputeLateFee(ctx, bk.ID, f.staff, application.ComputeLateFeeRequest{})
	require.NoError(t, err)

	_, err = f.bookings.TransitionBooking(ctx, bk.ID, application.ActionComplete, f.staff, "")
	require.Error(t, err)
	assert.True(t, domain.IsInvalidState(err))

	_, err = f.lateFees.Waive(ctx, fee.ID, f.staff)
	require.NoError(t, err)

	done, err := f.bookings.TransitionBooking(ctx, bk.ID, application.ActionComplete, f.staff, "")
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	require.NotNil(t, done.CompletedAt)
}

func TestListBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		start := jan(1, 0).AddDate(0, 0, i*3)
		f.book(t, start, start.Add(48*time.Hour))
	}

	mine, err := f.bookings.ListRequesterBookings(ctx, f.customer, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), mine.Total)
	assert.Len(t, mine.Items, 2)
	assert.Equal(t, 2, mine.TotalPages)

	none, err := f.bookings.ListRequesterBookings(ctx, uuid.New(), 1, 20)
	require.NoError(t, err)
	assert.Empty(t, none.Items)

	pending, err := f.bookings.ListAllBookings(ctx, "pending", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending.Total)

	_, err = f.bookings.ListAllBookings(ctx, "bogus", 1, 20)
	assert.True(t, domain.IsValidation(err))
}

func TestGetBooking_HiddenFromOtherCustomers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(10, 0), jan(12, 0))

	_, err := f.bookings.GetBooking(ctx, bk.ID, uuid.New())
	assert.True(t, domain.IsForbidden(err))

	got, err := f.bookings.GetBooking(ctx, bk.ID, f.staff)
	require.NoError(t, err)
	assert.Equal(t, bk.BookingNumber, got.BookingNumber)
}
