package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Price is the priced total of a booking.
type Price struct {
	TotalCents         int64   `json:"total_cents"`
	PeakSurchargeCents int64   `json:"peak_surcharge_cents"`
	DiscountCents      int64   `json:"discount_cents"`
	AppliedMultiplier  float64 `json:"applied_multiplier"`
	Currency           string  `json:"currency"`
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id              uuid.UUID
	bookingNumber   string
	vehicleID       uuid.UUID
	requesterID     uuid.UUID
	status          BookingStatus
	paymentStatus   PaymentStatus
	period          Period
	pickupLocation  string
	dropoffLocation string
	price           Price
	notes           string

	reviewedBy   *uuid.UUID
	reviewedAt   *time.Time
	rejectReason string
	startedAt    *time.Time
	completedAt  *time.Time
	cancelledAt  *time.Time
	cancelReason string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "RB-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "RB-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending.
func NewBooking(
	vehicleID uuid.UUID,
	requesterID uuid.UUID,
	period Period,
	pickupLocation string,
	dropoffLocation string,
	price Price,
	notes string,
	now time.Time,
) (*Booking, error) {
	if vehicleID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle ID is required")
	}
	if requesterID == uuid.Nil {
		return nil, domain.NewValidationError("requester ID is required")
	}
	if !period.ReturnAt.After(period.PickupAt) {
		return nil, domain.NewValidationError("return date must be after pickup date")
	}
	pickupLocation = strings.TrimSpace(pickupLocation)
	if pickupLocation == "" {
		return nil, domain.NewValidationError("pickup location is required")
	}
	if strings.TrimSpace(dropoffLocation) == "" {
		dropoffLocation = pickupLocation
	}
	if price.TotalCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}
	if price.Currency == "" {
		price.Currency = domain.CurrencyUSD
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		vehicleID:       vehicleID,
		requesterID:     requesterID,
		status:          StatusPending,
		paymentStatus:   PaymentUnpaid,
		period:          period,
		pickupLocation:  pickupLocation,
		dropoffLocation: dropoffLocation,
		price:           price,
		notes:           notes,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	vehicleID uuid.UUID,
	requesterID uuid.UUID,
	status BookingStatus,
	paymentStatus PaymentStatus,
	period Period,
	pickupLocation string,
	dropoffLocation string,
	price Price,
	notes string,
	reviewedBy *uuid.UUID,
	reviewedAt *time.Time,
	rejectReason string,
	startedAt *time.Time,
	completedAt *time.Time,
	cancelledAt *time.Time,
	cancelReason string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingNumber:   bookingNumber,
		vehicleID:       vehicleID,
		requesterID:     requesterID,
		status:          status,
		paymentStatus:   paymentStatus,
		period:          period,
		pickupLocation:  pickupLocation,
		dropoffLocation: dropoffLocation,
		price:           price,
		notes:           notes,
		reviewedBy:      reviewedBy,
		reviewedAt:      reviewedAt,
		rejectReason:    rejectReason,
		startedAt:       startedAt,
		completedAt:     completedAt,
		cancelledAt:     cancelledAt,
		cancelReason:    cancelReason,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// VehicleID returns the reserved vehicle's ID.
func (b *Booking) VehicleID() uuid.UUID { return b.vehicleID }

// RequesterID returns the ID of the customer who made the reservation.
func (b *Booking) RequesterID() uuid.UUID { return b.requesterID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PaymentStatus returns whether the rental charge has been paid.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// Period returns the rental interval.
func (b *Booking) Period() Period { return b.period }

// PickupAt returns the pickup timestamp.
func (b *Booking) PickupAt() time.Time { return b.period.PickupAt }

// ReturnAt returns the scheduled return timestamp.
func (b *Booking) ReturnAt() time.Time { return b.period.ReturnAt }

// PickupLocation returns where the vehicle is collected.
func (b *Booking) PickupLocation() string { return b.pickupLocation }

// DropoffLocation returns where the vehicle is returned.
func (b *Booking) DropoffLocation() string { return b.dropoffLocation }

// Price returns the booking's priced total.
func (b *Booking) Price() Price { return b.price }

// Notes returns any additional notes for the booking.
func (b *Booking) Notes() string { return b.notes }

// ReviewedBy returns the staff member who approved or rejected the booking.
func (b *Booking) ReviewedBy() *uuid.UUID { return b.reviewedBy }

// ReviewedAt returns when the booking was approved or rejected.
func (b *Booking) ReviewedAt() *time.Time { return b.reviewedAt }

// RejectReason returns the rejection reason.
func (b *Booking) RejectReason() string { return b.rejectReason }

// StartedAt returns when the rental began.
func (b *Booking) StartedAt() *time.Time { return b.startedAt }

// CompletedAt returns when the rental was completed.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelReason returns the cancellation reason.
func (b *Booking) CancelReason() string { return b.cancelReason }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

func (b *Booking) transition(target BookingStatus, now time.Time) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	b.status = target
	b.updatedAt = now.UTC()
	return nil
}

// Approve transitions the booking from pending to confirmed.
func (b *Booking) Approve(reviewerID uuid.UUID, now time.Time) error {
	if err := b.transition(StatusConfirmed, now); err != nil {
		return err
	}
	at := now.UTC()
	b.reviewedBy = &reviewerID
	b.reviewedAt = &at
	return nil
}

// Reject transitions the booking from pending to rejected.
func (b *Booking) Reject(reviewerID uuid.UUID, reason string, now time.Time) error {
	if err := b.transition(StatusRejected, now); err != nil {
		return err
	}
	at := now.UTC()
	b.reviewedBy = &reviewerID
	b.reviewedAt = &at
	b.rejectReason = reason
	return nil
}

// Begin transitions the booking from confirmed to ongoing when the vehicle is collected.
func (b *Booking) Begin(now time.Time) error {
	if err := b.transition(StatusOngoing, now); err != nil {
		return err
	}
	at := now.UTC()
	b.startedAt = &at
	return nil
}

// Complete transitions the booking from ongoing to completed.
func (b *Booking) Complete(now time.Time) error {
	if err := b.transition(StatusCompleted, now); err != nil {
		return err
	}
	at := now.UTC()
	b.completedAt = &at
	return nil
}

// Cancel transitions a confirmed or ongoing booking to cancelled.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if err := b.transition(StatusCancelled, now); err != nil {
		return err
	}
	at := now.UTC()
	b.cancelledAt = &at
	b.cancelReason = reason
	return nil
}

// ExtendReturn moves the return date later and adds the extension fee to the total.
func (b *Booking) ExtendReturn(newReturnAt time.Time, feeCents int64, now time.Time) error {
	if !b.status.CanBeExtended() {
		return domain.NewInvalidStateError(string(b.status), "extended")
	}
	if !newReturnAt.After(b.period.ReturnAt) {
		return domain.NewValidationError("new return date must be after the current return date")
	}
	if feeCents < 0 {
		return domain.NewValidationError("extension fee cannot be negative")
	}
	b.period.ReturnAt = newReturnAt.UTC()
	b.price.TotalCents += feeCents
	b.updatedAt = now.UTC()
	return nil
}

// MarkPaid records that the rental charge has been settled.
func (b *Booking) MarkPaid(now time.Time) {
	b.paymentStatus = PaymentPaid
	b.updatedAt = now.UTC()
}

// IsOverdue reports whether the booking still holds its vehicle past the return date.
func (b *Booking) IsOverdue(now time.Time) bool {
	return !b.status.IsTerminal() && b.period.ReturnAt.Before(now)
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
