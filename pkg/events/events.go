// Package events defines the Kafka topics, CloudEvent types and payloads
// exchanged by the reservation service.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types, published by this service.
const (
	BookingRequested          = "booking.requested"
	BookingConfirmed          = "booking.confirmed"
	BookingRejected           = "booking.rejected"
	BookingStarted            = "booking.started"
	BookingCompleted          = "booking.completed"
	BookingCancelled          = "booking.cancelled"
	BookingExtensionRequested = "booking.extension_requested"
	BookingExtensionReviewed  = "booking.extension_reviewed"
	BookingLateFeeAssessed    = "booking.late_fee_assessed"
)

// Payment event types, consumed by this service.
const (
	PaymentSettled         = "payment.settled"
	PaymentFailed          = "payment.failed"
	PaymentDepositRefunded = "payment.deposit_refunded"
)

// BookingRequestedEvent is published when a booking is created.
type BookingRequestedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	RequesterID   uuid.UUID `json:"requester_id"`
	PickupAt      time.Time `json:"pickup_at"`
	ReturnAt      time.Time `json:"return_at"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on every lifecycle transition.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID  `json:"booking_id"`
	VehicleID  uuid.UUID  `json:"vehicle_id"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// ExtensionEvent is published when an extension is requested or reviewed.
type ExtensionEvent struct {
	ExtensionID uuid.UUID `json:"extension_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Status      string    `json:"status"`
	NewReturnAt time.Time `json:"new_return_at"`
	FeeCents    int64     `json:"fee_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// LateFeeAssessedEvent is published when a late fee is created.
type LateFeeAssessedEvent struct {
	LateFeeID    uuid.UUID `json:"late_fee_id"`
	BookingID    uuid.UUID `json:"booking_id"`
	HoursOverdue int64     `json:"hours_overdue"`
	TotalCents   int64     `json:"total_cents"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PaymentSettledEvent is consumed for payment.settled and payment.failed.
type PaymentSettledEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Reference   string    `json:"reference,omitempty"`
	AmountCents int64     `json:"amount_cents"`
}

// DepositRefundedEvent is consumed for payment.deposit_refunded.
type DepositRefundedEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
}
