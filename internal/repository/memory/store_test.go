package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/internal/domain/booking"
	"github.com/fleetline/service-reservation/internal/domain/latefee"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newBooking(t *testing.T, vehicleID uuid.UUID, fromDay, toDay int) *booking.Booking {
	t.Helper()
	period, err := booking.NewPeriod(now.AddDate(0, 0, fromDay), now.AddDate(0, 0, toDay))
	require.NoError(t, err)
	b, err := booking.NewBooking(vehicleID, uuid.New(), period, "Airport", "", booking.Price{TotalCents: 1000}, "", now)
	require.NoError(t, err)
	return b
}

func TestStore_TransactionRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	b := newBooking(t, uuid.New(), 0, 2)

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		require.NoError(t, repos.Bookings.Save(ctx, b))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Repos().Bookings.FindByID(ctx, b.ID())
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_RejectsOverlapAndStaleVersion(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	vehicleID := uuid.New()
	repos := s.Repos()

	a := newBooking(t, vehicleID, 10, 15)
	require.NoError(t, repos.Bookings.Save(ctx, a))

	err := repos.Bookings.Save(ctx, newBooking(t, vehicleID, 14, 20))
	assert.True(t, domain.IsConflict(err))
	require.NoError(t, repos.Bookings.Save(ctx, newBooking(t, vehicleID, 15, 20)))

	stale, err := repos.Bookings.FindByID(ctx, a.ID())
	require.NoError(t, err)
	fresh, err := repos.Bookings.FindByID(ctx, a.ID())
	require.NoError(t, err)

	require.NoError(t, fresh.Approve(uuid.New(), now))
	fresh.IncrementVersion()
	require.NoError(t, repos.Bookings.Update(ctx, fresh))

	require.NoError(t, stale.Reject(uuid.New(), "", now))
	stale.IncrementVersion()
	assert.True(t, domain.IsConflict(repos.Bookings.Update(ctx, stale)))
}

func TestStore_OneLateFeePerBooking(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	bookingID := uuid.New()
	returnAt := now.Add(-5 * time.Hour)

	first, err := latefee.NewLateFee(bookingID, returnAt, now, 1000)
	require.NoError(t, err)
	second, err := latefee.NewLateFee(bookingID, returnAt, now, 1000)
	require.NoError(t, err)

	require.NoError(t, s.Repos().LateFees.Save(ctx, first))
	assert.True(t, domain.IsConflict(s.Repos().LateFees.Save(ctx, second)))

	exists, err := s.Repos().LateFees.ExistsForBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.True(t, exists)
}
