package application

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetline/service-reservation/internal/domain/booking"
	"github.com/fleetline/service-reservation/internal/domain/extension"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/fleetline/service-reservation/pkg/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestExtensionRequest holds the data needed to request an extension.
type RequestExtensionRequest struct {
	NewReturnAt time.Time `json:"new_return_at" binding:"required"`
}

// ReviewExtensionRequest holds a reviewer's decision.
type ReviewExtensionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes"`
}

// ParseDecision accepts "approve"/"approved" and "reject"/"rejected".
func ParseDecision(s string) (extension.Decision, error) {
	switch s {
	case "approve", "approved":
		return extension.DecisionApprove, nil
	case "reject", "rejected":
		return extension.DecisionReject, nil
	}
	return "", domain.NewValidationError(fmt.Sprintf("unknown extension decision: %s", s))
}

// ExtensionService handles extension requests and their review.
type ExtensionService struct {
	store   Store
	pricing pricing.Strategy
	authz   Authorizer
	clock   Clock
	events  eventEmitter
	logger  *zap.Logger
}

// NewExtensionService creates a new ExtensionService.
func NewExtensionService(
	store Store,
	pricingStrategy pricing.Strategy,
	authz Authorizer,
	publisher EventPublisher,
	clock Clock,
	logger *zap.Logger,
) *ExtensionService {
	return &ExtensionService{
		store:   store,
		pricing: pricingStrategy,
		authz:   authz,
		clock:   clock,
		events:  eventEmitter{publisher: publisher, logger: logger},
		logger:  logger,
	}
}

// RequestExtension asks to move a booking's return date later. The added
// days must be free for the vehicle; their price becomes the extension fee.
func (s *ExtensionService) RequestExtension(
	ctx context.Context,
	bookingID, requesterID uuid.UUID,
	req RequestExtensionRequest,
) (*ExtensionDTO, error) {
	privileged := s.authz.IsPrivileged(ctx, requesterID)

	var ext *extension.Extension
	err := s.store.Transaction(ctx, func(ctx context.Context, repos Repositories) error {
		bk, err := repos.Bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if bk.RequesterID() != requesterID && !privileged {
			return domain.NewForbiddenError("only the requester or staff can extend a booking")
		}
		if !req.NewReturnAt.After(bk.ReturnAt()) {
			return domain.NewValidationError("new return date must be after the current return date")
		}
		if !bk.Status().CanBeExtended() {
			return domain.NewInvalidStateError(string(bk.Status()), "extended")
		}

		pending, err := repos.Extensions.HasPending(ctx, bk.ID())
		if err != nil {
			return err
		}
		if pending {
			return domain.NewConflictError("booking already has a pending extension", bk.ID().String())
		}

		v, err := repos.Vehicles.FindForUpdate(ctx, bk.VehicleID())
		if err != nil {
			return err
		}
		added, err := booking.NewPeriod(bk.ReturnAt(), req.NewReturnAt)
		if err != nil {
			return err
		}
		if _, err := booking.NewPeriod(bk.PickupAt(), req.NewReturnAt); err != nil {
			return err
		}
		id := bk.ID()
		if err := ensureAvailable(ctx, repos, v, added, &id); err != nil {
			return err
		}

		fee, err := quote(ctx, repos, s.pricing, v.Rates(), added)
		if err != nil {
			return err
		}

		ext, err = extension.NewExtension(bk.ID(), requesterID, bk.ReturnAt(), added.ReturnAt, fee.TotalCents, s.clock.Now())
		if err != nil {
			return err
		}
		return repos.Extensions.Save(ctx, ext)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("extension requested",
		zap.String("extension_id", ext.ID().String()),
		zap.String("booking_id", ext.BookingID().String()),
		zap.Int64("fee_cents", ext.FeeCents()),
	)
	s.publish(ctx, events.BookingExtensionRequested, ext)

	result := toExtensionDTO(ext)
	return &result, nil
}

// ReviewExtension approves or rejects a pending extension. Approval re-checks
// availability, moves the booking's return date and adds the fee to its total
// in the same transaction.
func (s *ExtensionService) ReviewExtension(
	ctx context.Context,
	extensionID uuid.UUID,
	decision extension.Decision,
	actorID uuid.UUID,
	notes string,
) (*ExtensionDTO, error) {
	if !s.authz.IsPrivileged(ctx, actorID) {
		return nil, domain.NewForbiddenError("only staff can review extensions")
	}

	var ext *extension.Extension
	err := s.store.Transaction(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		ext, err = repos.Extensions.FindByID(ctx, extensionID)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		switch decision {
		case extension.DecisionReject:
			if err := ext.Reject(actorID, notes, now); err != nil {
				return err
			}
			return repos.Extensions.Update(ctx, ext)

		case extension.DecisionApprove:
			if err := ext.Approve(actorID, notes, now); err != nil {
				return err
			}

			bk, err := repos.Bookings.FindByID(ctx, ext.BookingID())
			if err != nil {
				return err
			}
			v, err := repos.Vehicles.FindForUpdate(ctx, bk.VehicleID())
			if err != nil {
				return err
			}
			added, err := booking.NewPeriod(bk.ReturnAt(), ext.NewReturnAt())
			if err != nil {
				return err
			}
			id := bk.ID()
			if err := ensureAvailable(ctx, repos, v, added, &id); err != nil {
				return err
			}

			if err := bk.ExtendReturn(ext.NewReturnAt(), ext.FeeCents(), now); err != nil {
				return err
			}
			bk.IncrementVersion()
			if err := repos.Bookings.Update(ctx, bk); err != nil {
				return err
			}
			return repos.Extensions.Update(ctx, ext)

		default:
			return domain.NewValidationError(fmt.Sprintf("unknown extension decision: %s", decision))
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("extension reviewed",
		zap.String("extension_id", ext.ID().String()),
		zap.String("status", string(ext.Status())),
		zap.String("reviewer_id", actorID.String()),
	)
	s.publish(ctx, events.BookingExtensionReviewed, ext)

	result := toExtensionDTO(ext)
	return &result, nil
}

// ListForBooking returns a booking's extensions, oldest first.
func (s *ExtensionService) ListForBooking(ctx context.Context, bookingID, actorID uuid.UUID) ([]ExtensionDTO, error) {
	repos := s.store.Repos()
	if err := ensureVisible(ctx, repos, s.authz, bookingID, actorID); err != nil {
		return nil, err
	}

	exts, err := repos.Extensions.ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list extensions: %w", err)
	}
	dtos := make([]ExtensionDTO, len(exts))
	for i, e := range exts {
		dtos[i] = toExtensionDTO(e)
	}
	return dtos, nil
}

func (s *ExtensionService) publish(ctx context.Context, eventType string, ext *extension.Extension) {
	s.events.publishEvent(ctx, events.TopicBookingEvents, eventType, ext.BookingID().String(), events.ExtensionEvent{
		ExtensionID: ext.ID(),
		BookingID:   ext.BookingID(),
		Status:      string(ext.Status()),
		NewReturnAt: ext.NewReturnAt(),
		FeeCents:    ext.FeeCents(),
		OccurredAt:  ext.UpdatedAt(),
	})
}

// ensureVisible allows the booking's requester and staff.
func ensureVisible(ctx context.Context, repos Repositories, authz Authorizer, bookingID, actorID uuid.UUID) error {
	bk, err := repos.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if bk.RequesterID() != actorID && !authz.IsPrivileged(ctx, actorID) {
		return domain.NewForbiddenError("booking belongs to another customer")
	}
	return nil
}
