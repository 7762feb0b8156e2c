package application

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fleetline/service-reservation/internal/domain/latefee"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/fleetline/service-reservation/pkg/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultSweepBatch = 500

// ComputeLateFeeRequest optionally overrides the configured hourly rate.
type ComputeLateFeeRequest struct {
	HourlyRateCents *int64 `json:"hourly_rate_cents"`
}

// RecordReturnRequest holds the actual time the vehicle came back.
type RecordReturnRequest struct {
	ActualReturnAt time.Time `json:"actual_return_at" binding:"required"`
}

// SweepResult summarises one overdue sweep.
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Assessed int `json:"assessed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// LateFeeService assesses and settles late-return fees.
type LateFeeService struct {
	store            Store
	authz            Authorizer
	clock            Clock
	hourlyRateCents  int64
	sweepConcurrency int
	events           eventEmitter
	logger           *zap.Logger
}

// NewLateFeeService creates a new LateFeeService.
func NewLateFeeService(
	store Store,
	authz Authorizer,
	publisher EventPublisher,
	clock Clock,
	hourlyRateCents int64,
	sweepConcurrency int,
	logger *zap.Logger,
) *LateFeeService {
	if hourlyRateCents <= 0 {
		hourlyRateCents = latefee.DefaultHourlyRateCents
	}
	if sweepConcurrency < 1 {
		sweepConcurrency = 1
	}
	return &LateFeeService{
		store:            store,
		authz:            authz,
		clock:            clock,
		hourlyRateCents:  hourlyRateCents,
		sweepConcurrency: sweepConcurrency,
		events:           eventEmitter{publisher: publisher, logger: logger},
		logger:           logger,
	}
}

// ComputeLateFee assesses the late fee of an overdue booking on demand. A
// booking has at most one late fee; a second call fails with Conflict.
func (s *LateFeeService) ComputeLateFee(ctx context.Context, bookingID, actorID uuid.UUID, req ComputeLateFeeRequest) (*LateFeeDTO, error) {
	if !s.authz.IsPrivileged(ctx, actorID) {
		return nil, domain.NewForbiddenError("only staff can assess late fees")
	}

	rate := s.hourlyRateCents
	if req.HourlyRateCents != nil {
		rate = *req.HourlyRateCents
	}

	fee, err := s.assess(ctx, bookingID, rate)
	if err != nil {
		return nil, err
	}
	result := toLateFeeDTO(fee)
	return &result, nil
}

// SweepOverdue assesses a late fee for every ongoing booking past its return
// date that does not have one yet. Bookings that gained a fee concurrently
// are counted as skipped.
func (s *LateFeeService) SweepOverdue(ctx context.Context) (SweepResult, error) {
	overdue, err := s.store.Repos().Bookings.FindOverdue(ctx, s.clock.Now(), defaultSweepBatch)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to find overdue bookings: %w", err)
	}

	var assessed, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepConcurrency)

	for _, bk := range overdue {
		bookingID := bk.ID()
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			_, err := s.assess(gctx, bookingID, s.hourlyRateCents)
			switch {
			case err == nil:
				assessed.Add(1)
			case domain.IsConflict(err):
				skipped.Add(1)
			default:
				failed.Add(1)
				s.logger.Error("failed to assess late fee",
					zap.String("booking_id", bookingID.String()),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	err = g.Wait()
	result := SweepResult{
		Scanned:  len(overdue),
		Assessed: int(assessed.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
	}

	s.logger.Info("late fee sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("assessed", result.Assessed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, err
}

// RecordReturn closes an outstanding late fee at the vehicle's actual return time.
func (s *LateFeeService) RecordReturn(ctx context.Context, lateFeeID, actorID uuid.UUID, req RecordReturnRequest) (*LateFeeDTO, error) {
	return s.update(ctx, lateFeeID, actorID, func(fee *latefee.LateFee, now time.Time) error {
		return fee.RecordReturn(req.ActualReturnAt, now)
	})
}

// Waive cancels an outstanding late fee.
func (s *LateFeeService) Waive(ctx context.Context, lateFeeID, actorID uuid.UUID) (*LateFeeDTO, error) {
	return s.update(ctx, lateFeeID, actorID, func(fee *latefee.LateFee, now time.Time) error {
		return fee.Waive(now)
	})
}

// GetForBooking returns the booking's late fee.
func (s *LateFeeService) GetForBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*LateFeeDTO, error) {
	repos := s.store.Repos()
	if err := ensureVisible(ctx, repos, s.authz, bookingID, actorID); err != nil {
		return nil, err
	}
	fee, err := repos.LateFees.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toLateFeeDTO(fee)
	return &result, nil
}

func (s *LateFeeService) assess(ctx context.Context, bookingID uuid.UUID, hourlyRateCents int64) (*latefee.LateFee, error) {
	var fee *latefee.LateFee
	err := s.store.Transaction(ctx, func(ctx context.Context, repos Repositories) error {
		bk, err := repos.Bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if bk.Status().IsTerminal() {
			return domain.NewInvalidStateError(string(bk.Status()), "late_fee_assessed")
		}
		now := s.clock.Now()
		if !bk.IsOverdue(now) {
			return domain.NewValidationError("booking is not overdue")
		}

		exists, err := repos.LateFees.ExistsForBooking(ctx, bk.ID())
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConflictError("late fee already exists for booking", bk.ID().String())
		}

		fee, err = latefee.NewLateFee(bk.ID(), bk.ReturnAt(), now, hourlyRateCents)
		if err != nil {
			return err
		}
		return repos.LateFees.Save(ctx, fee)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("late fee assessed",
		zap.String("booking_id", bookingID.String()),
		zap.Int64("hours_overdue", fee.HoursOverdue()),
		zap.Int64("total_cents", fee.TotalCents()),
	)
	s.events.publishEvent(ctx, events.TopicBookingEvents, events.BookingLateFeeAssessed, bookingID.String(), events.LateFeeAssessedEvent{
		LateFeeID:    fee.ID(),
		BookingID:    bookingID,
		HoursOverdue: fee.HoursOverdue(),
		TotalCents:   fee.TotalCents(),
		OccurredAt:   fee.CreatedAt(),
	})
	return fee, nil
}

func (s *LateFeeService) update(
	ctx context.Context,
	lateFeeID, actorID uuid.UUID,
	apply func(fee *latefee.LateFee, now time.Time) error,
) (*LateFeeDTO, error) {
	if !s.authz.IsPrivileged(ctx, actorID) {
		return nil, domain.NewForbiddenError("only staff can settle late fees")
	}

	var fee *latefee.LateFee
	err := s.store.Transaction(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		fee, err = repos.LateFees.FindByID(ctx, lateFeeID)
		if err != nil {
			return err
		}
		if err := apply(fee, s.clock.Now()); err != nil {
			return err
		}
		return repos.LateFees.Update(ctx, fee)
	})
	if err != nil {
		return nil, err
	}

	result := toLateFeeDTO(fee)
	return &result, nil
}
