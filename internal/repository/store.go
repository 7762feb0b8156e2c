package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/pkg/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultTxAttempts = 3
	retryBackoff      = 20 * time.Millisecond
)

// GormStore implements application.Store on Postgres. Units of work run in
// serializable transactions and are retried on serialization failures.
type GormStore struct {
	db       *gorm.DB
	attempts int
	logger   *zap.Logger
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	return &GormStore{db: db, attempts: defaultTxAttempts, logger: logger}
}

// Repos returns repositories bound to the connection pool.
func (s *GormStore) Repos() application.Repositories {
	return reposFor(s.db)
}

// Transaction runs fn in a serializable transaction. A serialization failure
// or deadlock rolls back and runs fn again; after the last attempt the caller
// gets a Conflict.
func (s *GormStore) Transaction(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, reposFor(tx))
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err == nil || !isRetryable(err) {
			return err
		}

		s.logger.Warn("retrying serialization failure",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}

	s.logger.Error("transaction gave up after retries", zap.Int("attempts", s.attempts), zap.Error(err))
	return domain.NewConflictError("concurrent update, please retry")
}

func reposFor(db *gorm.DB) application.Repositories {
	return application.Repositories{
		Bookings:   NewGormBookingRepository(db),
		Vehicles:   NewGormVehicleRepository(db),
		Rules:      NewGormPeakSeasonRuleRepository(db),
		Extensions: NewGormExtensionRepository(db),
		LateFees:   NewGormLateFeeRepository(db),
		Payments:   NewGormPaymentRepository(db),
	}
}

// Models lists every GORM model for development auto-migration.
func Models() []interface{} {
	return []interface{}{
		&VehicleModel{},
		&PeakSeasonRuleModel{},
		&BookingModel{},
		&ExtensionModel{},
		&LateFeeModel{},
		&PaymentModel{},
	}
}
