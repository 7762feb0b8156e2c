package latefee

import (
	"fmt"
	"time"

	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
)

// DefaultHourlyRateCents is the late charge per overdue hour when none is configured.
const DefaultHourlyRateCents int64 = 2500

// PaymentStatus is the settlement state of a late fee.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
	StatusWaived  PaymentStatus = "waived"
)

// LateFee is the charge for returning a vehicle after its scheduled return date.
// A booking has at most one.
type LateFee struct {
	id               uuid.UUID
	bookingID        uuid.UUID
	originalReturnAt time.Time
	hoursOverdue     int64
	hourlyRateCents  int64
	totalCents       int64
	paymentStatus    PaymentStatus
	paidAmountCents  int64
	actualReturnAt   *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// HoursOverdue returns the whole hours between returnAt and now, minimum one.
func HoursOverdue(returnAt, now time.Time) int64 {
	hours := int64(now.Sub(returnAt) / time.Hour)
	if hours < 1 {
		hours = 1
	}
	return hours
}

// NewLateFee assesses a late fee for a booking due back at originalReturnAt.
func NewLateFee(bookingID uuid.UUID, originalReturnAt, now time.Time, hourlyRateCents int64) (*LateFee, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if hourlyRateCents <= 0 {
		return nil, domain.NewValidationError("hourly rate must be positive")
	}
	if !now.After(originalReturnAt) {
		return nil, domain.NewValidationError("booking is not overdue")
	}

	hours := HoursOverdue(originalReturnAt, now)
	now = now.UTC()
	return &LateFee{
		id:               uuid.New(),
		bookingID:        bookingID,
		originalReturnAt: originalReturnAt.UTC(),
		hoursOverdue:     hours,
		hourlyRateCents:  hourlyRateCents,
		totalCents:       hours * hourlyRateCents,
		paymentStatus:    StatusPending,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a LateFee from persistence.
func Reconstruct(
	id, bookingID uuid.UUID,
	originalReturnAt time.Time,
	hoursOverdue, hourlyRateCents, totalCents int64,
	paymentStatus PaymentStatus,
	paidAmountCents int64,
	actualReturnAt *time.Time,
	createdAt, updatedAt time.Time,
) *LateFee {
	return &LateFee{
		id:               id,
		bookingID:        bookingID,
		originalReturnAt: originalReturnAt,
		hoursOverdue:     hoursOverdue,
		hourlyRateCents:  hourlyRateCents,
		totalCents:       totalCents,
		paymentStatus:    paymentStatus,
		paidAmountCents:  paidAmountCents,
		actualReturnAt:   actualReturnAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// Getters.
func (f *LateFee) ID() uuid.UUID                { return f.id }
func (f *LateFee) BookingID() uuid.UUID         { return f.bookingID }
func (f *LateFee) OriginalReturnAt() time.Time  { return f.originalReturnAt }
func (f *LateFee) HoursOverdue() int64          { return f.hoursOverdue }
func (f *LateFee) HourlyRateCents() int64       { return f.hourlyRateCents }
func (f *LateFee) TotalCents() int64            { return f.totalCents }
func (f *LateFee) PaymentStatus() PaymentStatus { return f.paymentStatus }
func (f *LateFee) PaidAmountCents() int64       { return f.paidAmountCents }
func (f *LateFee) ActualReturnAt() *time.Time   { return f.actualReturnAt }
func (f *LateFee) CreatedAt() time.Time         { return f.createdAt }
func (f *LateFee) UpdatedAt() time.Time         { return f.updatedAt }

// IsOutstanding reports whether the fee still awaits payment or waiver.
func (f *LateFee) IsOutstanding() bool {
	return f.paymentStatus == StatusPending
}

// RecordReturn closes the overdue window at the actual return time and
// recomputes the total. It can be recorded once.
func (f *LateFee) RecordReturn(actualReturnAt, now time.Time) error {
	if !f.IsOutstanding() {
		return domain.NewInvalidStateError(string(f.paymentStatus), "returned")
	}
	if f.actualReturnAt != nil {
		return domain.NewConflictError("actual return already recorded for late fee", f.id.String())
	}
	if !actualReturnAt.After(f.originalReturnAt) {
		return domain.NewValidationError("actual return is not after the scheduled return date")
	}
	if actualReturnAt.After(now) {
		return domain.NewValidationError("actual return cannot be in the future")
	}

	at := actualReturnAt.UTC()
	f.actualReturnAt = &at
	f.hoursOverdue = HoursOverdue(f.originalReturnAt, at)
	f.totalCents = f.hoursOverdue * f.hourlyRateCents
	f.updatedAt = now.UTC()
	return nil
}

// MarkPaid settles the fee with a payment of amountCents.
func (f *LateFee) MarkPaid(amountCents int64, now time.Time) error {
	if !f.IsOutstanding() {
		return domain.NewInvalidStateError(string(f.paymentStatus), string(StatusPaid))
	}
	if amountCents < f.totalCents {
		return domain.NewValidationError(fmt.Sprintf("payment of %d does not cover late fee of %d", amountCents, f.totalCents))
	}
	f.paymentStatus = StatusPaid
	f.paidAmountCents = amountCents
	f.updatedAt = now.UTC()
	return nil
}

// Waive cancels the charge.
func (f *LateFee) Waive(now time.Time) error {
	if !f.IsOutstanding() {
		return domain.NewInvalidStateError(string(f.paymentStatus), string(StatusWaived))
	}
	f.paymentStatus = StatusWaived
	f.updatedAt = now.UTC()
	return nil
}
