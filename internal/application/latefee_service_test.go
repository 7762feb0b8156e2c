package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/fleetline/service-reservation/pkg/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLateFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(8, 0), jan(10, 10))
	f.transition(t, bk.ID, application.ActionApprove, application.ActionBegin)

	f.clock.Set(jan(10, 14).Add(30 * time.Minute))
	fee, err := f.lateFees.ComputeLateFee(ctx, bk.ID, f.staff, application.ComputeLateFeeRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), fee.HoursOverdue)
	assert.Equal(t, int64(2500), fee.HourlyRateCents)
	assert.Equal(t, int64(10000), fee.TotalCents)
	assert.Equal(t, "pending", fee.PaymentStatus)
	assert.Contains(t, f.publisher.types(), events.BookingLateFeeAssessed)

	_, err = f.lateFees.ComputeLateFee(ctx, bk.ID, f.staff, application.ComputeLateFeeRequest{})
	assert.True(t, domain.IsConflict(err))

	got, err := f.lateFees.GetForBooking(ctx, bk.ID, f.customer)
	require.NoError(t, err)
	assert.Equal(t, fee.ID, got.ID)
}

func TestComputeLateFee_RateOverride(t *testing.T) {
	f := newFixture(t)
	bk := f.book(t, jan(8, 0), jan(10, 10))
	f.transition(t, bk.ID, application.ActionApprove, application.ActionBegin)
	f.clock.Set(jan(10, 12))

	rate := int64(4000)
	fee, err := f.lateFees.ComputeLateFee(context.Background(), bk.ID, f.staff, application.ComputeLateFeeRequest{HourlyRateCents: &rate})
	require.NoError(t, err)
	assert.Equal(t, int64(8000), fee.TotalCents)
}

func TestComputeLateFee_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(8, 0), jan(10, 10))
	f.transition(t, bk.ID, application.ActionApprove, application.ActionBegin)

	_, err := f.lateFees.ComputeLateFee(ctx, bk.ID, f.customer, application.ComputeLateFeeRequest{})
	assert.True(t, domain.IsForbidden(err))

	f.clock.Set(jan(10, 9))
	_, err = f.lateFees.ComputeLateFee(ctx, bk.ID, f.staff, application.ComputeLateFeeRequest{})
	assert.True(t, domain.IsValidation(err), "not yet overdue")

	f.clock.Set(jan(10, 11))
	f.transition(t, bk.ID, application.ActionComplete)
	_, err = f.lateFees.ComputeLateFee(ctx, bk.ID, f.staff, application.ComputeLateFeeRequest{})
	assert.True(t, domain.IsInvalidState(err), "completed bookings are not assessed")
}

func TestRecordReturn_RecomputesFromActualReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(8, 0), jan(10, 10))
	f.transition(t, bk.ID, application.ActionApprove, application.ActionBegin)

	f.clock.Set(jan(10, 20))
	fee, err := f.lateFees.ComputeLateFee(ctx, bk.ID, f.staff, application.ComputeLateFeeRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), fee.HoursOverdue)

	returned, err := f.lateFees.RecordReturn(ctx, fee.ID, f.staff, application.RecordReturnRequest{ActualReturnAt: jan(10, 16)})
	require.NoError(t, err)
	assert.Equal(t, int64(6), returned.HoursOverdue)
	assert.Equal(t, int64(15000), returned.TotalCents)
	require.NotNil(t, returned.ActualReturnAt)

	_, err = f.lateFees.RecordReturn(ctx, fee.ID, f.staff, application.RecordReturnRequest{ActualReturnAt: jan(10, 17)})
	assert.True(t, domain.IsConflict(err))
}

func TestSweepOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		start := jan(1, 0).AddDate(0, 0, i*3)
		bk := f.book(t, start, start.Add(48*time.Hour))
		f.transition(t, bk.ID, application.ActionApprove, application.ActionBegin)
	}
	// Confirmed but never picked up: not swept.
	idle := f.book(t, jan(20, 0), jan(21, 0))
	f.transition(t, idle.ID, application.ActionApprove)

	f.clock.Set(jan(25, 0))
	first, err := f.lateFees.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.SweepResult{Scanned: 3, Assessed: 3}, first)

	second, err := f.lateFees.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.SweepResult{}, second, "assessed bookings are not rescanned")
}

func TestSweepOverdue_ReachesBookingsBeyondOneBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// One more than a sweep batch, in back-to-back hourly slots.
	const total = 501
	var last uuid.UUID
	for i := 0; i < total; i++ {
		start := jan(1, 0).Add(time.Duration(i) * time.Hour)
		bk := f.book(t, start, start.Add(time.Hour))
		f.transition(t, bk.ID, application.ActionApprove, application.ActionBegin)
		last = bk.ID
	}

	f.clock.Set(jan(1, 0).AddDate(0, 1, 0))
	first, err := f.lateFees.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.SweepResult{Scanned: 500, Assessed: 500}, first)

	second, err := f.lateFees.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.SweepResult{Scanned: 1, Assessed: 1}, second)

	fee, err := f.lateFees.GetForBooking(ctx, last, f.staff)
	require.NoError(t, err)
	assert.Equal(t, last, fee.BookingID)
}
