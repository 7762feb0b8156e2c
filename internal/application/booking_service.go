package application

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetline/service-reservation/internal/domain/booking"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/internal/domain/vehicle"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/fleetline/service-reservation/pkg/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckAvailabilityRequest holds the data needed to check a vehicle's availability.
type CheckAvailabilityRequest struct {
	VehicleID        uuid.UUID  `json:"vehicle_id" binding:"required"`
	PickupAt         time.Time  `json:"pickup_at" binding:"required"`
	ReturnAt         time.Time  `json:"return_at" binding:"required"`
	ExcludeBookingID *uuid.UUID `json:"exclude_booking_id"`
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	VehicleID       uuid.UUID `json:"vehicle_id" binding:"required"`
	PickupAt        time.Time `json:"pickup_at" binding:"required"`
	ReturnAt        time.Time `json:"return_at" binding:"required"`
	PickupLocation  string    `json:"pickup_location" binding:"required"`
	DropoffLocation string    `json:"dropoff_location"`
	Notes           string    `json:"notes"`
}

// BookingAction names a lifecycle transition.
type BookingAction string

const (
	ActionApprove  BookingAction = "approve"
	ActionReject   BookingAction = "reject"
	ActionBegin    BookingAction = "begin"
	ActionComplete BookingAction = "complete"
	ActionCancel   BookingAction = "cancel"
)

// ParseBookingAction validates an action name.
func ParseBookingAction(s string) (BookingAction, error) {
	switch a := BookingAction(s); a {
	case ActionApprove, ActionReject, ActionBegin, ActionComplete, ActionCancel:
		return a, nil
	}
	return "", domain.NewValidationError(fmt.Sprintf("unknown booking action: %s", s))
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	store    Store
	pricing  pricing.Strategy
	authz    Authorizer
	clock    Clock
	currency string
	events   eventEmitter
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	store Store,
	pricingStrategy pricing.Strategy,
	authz Authorizer,
	publisher EventPublisher,
	clock Clock,
	currency string,
	logger *zap.Logger,
) *BookingService {
	if currency == "" {
		currency = domain.CurrencyUSD
	}
	return &BookingService{
		store:    store,
		pricing:  pricingStrategy,
		authz:    authz,
		clock:    clock,
		currency: currency,
		events:   eventEmitter{publisher: publisher, logger: logger},
		logger:   logger,
	}
}

// CheckAvailability reports whether a vehicle is free for the requested
// period and, when it is, what the rental would cost.
func (s *BookingService) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*AvailabilityDTO, error) {
	period, err := booking.NewPeriod(req.PickupAt, req.ReturnAt)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	v, err := repos.Vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	availability, err := booking.NewAvailabilityChecker(repos.Bookings).
		Check(ctx, v.ID(), v.Available(), period, req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}

	result := &AvailabilityDTO{
		Available:             availability.Available,
		Reason:                availability.Reason,
		ConflictingBookingIDs: availability.ConflictingIDs,
	}
	if availability.Available {
		quote, err := quote(ctx, repos, s.pricing, v.Rates(), period)
		if err != nil {
			return nil, err
		}
		result.Pricing = &quote
	}
	return result, nil
}

// CreateBooking reserves a vehicle for the requester. The availability check
// and the insert run in one serializable transaction holding the vehicle's
// row lock, so two overlapping requests cannot both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	period, err := booking.NewPeriod(req.PickupAt, req.ReturnAt)
	if err != nil {
		return nil, err
	}

	var bk *booking.Booking
	err = s.store.Transaction(ctx, func(ctx context.Context, repos Repositories) error {
		v, err := repos.Vehicles.FindForUpdate(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if !v.AllowsPickupAt(req.PickupLocation) {
			return domain.NewValidationError(fmt.Sprintf("vehicle cannot be collected at %q", req.PickupLocation))
		}

		if err := ensureAvailable(ctx, repos, v, period, nil); err != nil {
			return err
		}

		breakdown, err := quote(ctx, repos, s.pricing, v.Rates(), period)
		if err != nil {
			return err
		}

		bk, err = booking.NewBooking(
			v.ID(),
			requesterID,
			period,
			req.PickupLocation,
			req.DropoffLocation,
			booking.Price{
				TotalCents:         breakdown.TotalCents,
				PeakSurchargeCents: breakdown.PeakSurchargeCents,
				DiscountCents:      breakdown.DiscountCents,
				AppliedMultiplier:  breakdown.AppliedMultiplier,
				Currency:           s.currency,
			},
			req.Notes,
			s.clock.Now(),
		)
		if err != nil {
			return err
		}

		return repos.Bookings.Save(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("vehicle_id", bk.VehicleID().String()),
		zap.Int64("total_cents", bk.Price().TotalCents),
	)

	s.events.publishEvent(ctx, events.TopicBookingEvents, events.BookingRequested, bk.ID().String(), events.BookingRequestedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		VehicleID:     bk.VehicleID(),
		RequesterID:   bk.RequesterID(),
		PickupAt:      bk.PickupAt(),
		ReturnAt:      bk.ReturnAt(),
		TotalCents:    bk.Price().TotalCents,
		Currency:      bk.Price().Currency,
		OccurredAt:    bk.CreatedAt(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// TransitionBooking applies a lifecycle action. Every action except cancel
// needs a privileged actor; cancel is also open to the booking's requester.
func (s *BookingService) TransitionBooking(
	ctx context.Context,
	bookingID uuid.UUID,
	action BookingAction,
	actorID uuid.UUID,
	reason string,
) (*BookingDTO, error) {
	privileged := s.authz.IsPrivileged(ctx, actorID)
	if action != ActionCancel && !privileged {
		return nil, domain.NewForbiddenError(fmt.Sprintf("only staff can %s a booking", action))
	}

	var (
		bk   *booking.Booking
		from booking.BookingStatus
	)
	err := s.store.Transaction(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		bk, err = repos.Bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		from = bk.Status()
		now := s.clock.Now()

		switch action {
		case ActionApprove:
			err = bk.Approve(actorID, now)
		case ActionReject:
			err = bk.Reject(actorID, reason, now)
		case ActionBegin:
			err = bk.Begin(now)
		case ActionComplete:
			if err = ensureNoOutstandingLateFee(ctx, repos, bk); err == nil {
				err = bk.Complete(now)
			}
		case ActionCancel:
			if !privileged && bk.RequesterID() != actorID {
				return domain.NewForbiddenError("only the requester or staff can cancel a booking")
			}
			err = bk.Cancel(reason, now)
		default:
			return domain.NewValidationError(fmt.Sprintf("unknown booking action: %s", action))
		}
		if err != nil {
			return err
		}

		bk.IncrementVersion()
		return repos.Bookings.Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking transitioned",
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", string(from)),
		zap.String("to", string(bk.Status())),
		zap.String("actor_id", actorID.String()),
	)

	actor := actorID
	s.events.publishEvent(ctx, events.TopicBookingEvents, statusEventType(bk.Status()), bk.ID().String(), events.BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		VehicleID:  bk.VehicleID(),
		From:       string(from),
		To:         string(bk.Status()),
		ActorID:    &actor,
		Reason:     reason,
		OccurredAt: bk.UpdatedAt(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking visible to the actor.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.store.Repos().Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.RequesterID() != actorID && !s.authz.IsPrivileged(ctx, actorID) {
		return nil, domain.NewForbiddenError("booking belongs to another customer")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListRequesterBookings retrieves a customer's bookings with pagination.
func (s *BookingService) ListRequesterBookings(ctx context.Context, requesterID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	page, limit = normalizePage(page, limit)
	bookings, total, err := s.store.Repos().Bookings.FindByRequesterID(ctx, requesterID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	result := domain.NewPaginatedResult(mapBookings(bookings), total, page, limit)
	return &result, nil
}

// ListAllBookings retrieves all bookings, optionally filtered by status (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, status string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	var filter *booking.BookingStatus
	if status != "" {
		parsed, err := booking.ParseBookingStatus(status)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		filter = &parsed
	}

	page, limit = normalizePage(page, limit)
	bookings, total, err := s.store.Repos().Bookings.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list all bookings: %w", err)
	}
	result := domain.NewPaginatedResult(mapBookings(bookings), total, page, limit)
	return &result, nil
}

// GetBookingStats returns aggregate booking counts (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.store.Repos().Bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// ensureAvailable returns a Conflict naming the blocking bookings when the
// vehicle is not free for period.
func ensureAvailable(ctx context.Context, repos Repositories, v *vehicle.Vehicle, period booking.Period, exclude *uuid.UUID) error {
	availability, err := booking.NewAvailabilityChecker(repos.Bookings).Check(ctx, v.ID(), v.Available(), period, exclude)
	if err != nil {
		return err
	}
	if !availability.Available {
		return domain.NewConflictError(availability.Reason, availability.ConflictIDStrings()...)
	}
	return nil
}

func ensureNoOutstandingLateFee(ctx context.Context, repos Repositories, bk *booking.Booking) error {
	fee, err := repos.LateFees.FindByBookingID(ctx, bk.ID())
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	if fee.IsOutstanding() {
		stateErr := domain.NewInvalidStateError(string(bk.Status()), string(booking.StatusCompleted))
		stateErr.Message = "booking has an unpaid late fee"
		stateErr.Details["late_fee_id"] = fee.ID().String()
		return stateErr
	}
	return nil
}

// quote prices period for the given rates with the peak rules active during it.
func quote(ctx context.Context, repos Repositories, strategy pricing.Strategy, rates pricing.Rates, period booking.Period) (pricing.Breakdown, error) {
	rules, err := repos.Rules.ListActiveBetween(ctx, period.PickupAt, period.ReturnAt)
	if err != nil {
		return pricing.Breakdown{}, fmt.Errorf("failed to load peak season rules: %w", err)
	}
	return strategy.Price(pricing.Params{
		Rates:    rates,
		PickupAt: period.PickupAt,
		ReturnAt: period.ReturnAt,
		Rules:    rules,
	})
}

func statusEventType(status booking.BookingStatus) string {
	switch status {
	case booking.StatusConfirmed:
		return events.BookingConfirmed
	case booking.StatusRejected:
		return events.BookingRejected
	case booking.StatusOngoing:
		return events.BookingStarted
	case booking.StatusCompleted:
		return events.BookingCompleted
	default:
		return events.BookingCancelled
	}
}

func mapBookings(bookings []*booking.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
