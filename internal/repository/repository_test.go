package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fleetline/service-reservation/internal/domain/booking"
	"github.com/fleetline/service-reservation/internal/domain/latefee"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func sampleBooking(t *testing.T) *booking.Booking {
	t.Helper()
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	period, err := booking.NewPeriod(start, start.AddDate(0, 0, 5))
	require.NoError(t, err)
	bk, err := booking.NewBooking(uuid.New(), uuid.New(), period, "Airport", "", booking.Price{TotalCents: 500000}, "", start.AddDate(0, 0, -3))
	require.NoError(t, err)
	return bk
}

func TestBookingRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormBookingRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_SaveExclusionViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormBookingRepository(db)

	mock.ExpectExec(`INSERT INTO "bookings"`).
		WillReturnError(&pgconn.PgError{Code: pgExclusionViolation, ConstraintName: "bookings_no_overlap"})

	err := repo.Save(context.Background(), sampleBooking(t))
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStaleVersion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormBookingRepository(db)
	bk := sampleBooking(t)
	bk.IncrementVersion()

	mock.ExpectExec(`UPDATE "bookings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), bk)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_FindOverlapping(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormBookingRepository(db)
	existing := sampleBooking(t)
	m := toBookingModel(existing)

	rows := sqlmock.NewRows([]string{
		"id", "booking_number", "vehicle_id", "requester_id", "status", "payment_status",
		"pickup_at", "return_at", "pickup_location", "dropoff_location", "total_price_cents",
		"version", "created_at", "updated_at",
	}).AddRow(
		m.ID, m.BookingNumber, m.VehicleID, m.RequesterID, m.Status, m.PaymentStatus,
		m.PickupAt, m.ReturnAt, m.PickupLocation, m.DropoffLocation, m.TotalPriceCents,
		m.Version, m.CreatedAt, m.UpdatedAt,
	)
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE vehicle_id = \$1 AND status IN \(\$2,\$3,\$4\) AND .*pickup_at < \$5 AND return_at > \$6`).
		WillReturnRows(rows)

	period, err := booking.NewPeriod(existing.PickupAt().AddDate(0, 0, 4), existing.ReturnAt().AddDate(0, 0, 4))
	require.NoError(t, err)
	got, err := repo.FindOverlapping(context.Background(), existing.VehicleID(), period, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, existing.ID(), got[0].ID())
	assert.Equal(t, booking.StatusPending, got[0].Status())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_FindOverdueSkipsAssessedBookings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormBookingRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE .*status = \$1 AND return_at < \$2.*NOT EXISTS \(SELECT 1 FROM late_fees lf WHERE lf.booking_id = bookings.id\).*ORDER BY return_at ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.FindOverdue(context.Background(), time.Now().UTC(), 500)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepository_FindForUpdateLocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormVehicleRepository(db)
	id := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "name", "daily_rate_cents", "weekly_rate_cents", "monthly_rate_cents", "available", "pickup_locations", "created_at", "updated_at"}).
		AddRow(id, "Corolla", int64(100000), int64(0), int64(0), true, []byte(`["Airport"]`), now, now)
	mock.ExpectQuery(`SELECT \* FROM "vehicles" WHERE id = \$1 .*FOR UPDATE`).WillReturnRows(rows)

	v, err := repo.FindForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Corolla", v.Name())
	assert.True(t, v.AllowsPickupAt("airport"))
	assert.False(t, v.AllowsPickupAt("Harbour"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLateFeeRepository_SaveDuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormLateFeeRepository(db)
	returnAt := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	fee, err := latefee.NewLateFee(uuid.New(), returnAt, returnAt.Add(4*time.Hour), 2500)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO "late_fees"`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err = repo.Save(context.Background(), fee)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeakSeasonRuleModelRoundTrip(t *testing.T) {
	m := PeakSeasonRuleModel{ID: uuid.New(), Name: "summer", Active: true}
	inc := int64(1500)
	m.FixedIncreaseCents = &inc

	rule := toPeakSeasonRule(&m)
	assert.Equal(t, int64(1500), rule.FixedIncreaseCents)
	assert.Zero(t, rule.Multiplier)

	back := toPeakSeasonRuleModel(rule)
	assert.Nil(t, back.Multiplier)
	require.NotNil(t, back.FixedIncreaseCents)
	assert.Equal(t, inc, *back.FixedIncreaseCents)
}
