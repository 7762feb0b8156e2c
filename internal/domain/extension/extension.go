package extension

import (
	"time"

	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
)

// Status is the review state of an extension request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid returns true if the status is recognized.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Decision is a reviewer's verdict on a pending extension.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Extension is a request to move a booking's return date later.
type Extension struct {
	id               uuid.UUID
	bookingID        uuid.UUID
	requesterID      uuid.UUID
	additionalDays   int
	previousReturnAt time.Time
	newReturnAt      time.Time
	feeCents         int64
	status           Status
	reviewedBy       *uuid.UUID
	reviewNotes      string
	reviewedAt       *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewExtension creates a pending extension from previousReturnAt to newReturnAt.
func NewExtension(
	bookingID, requesterID uuid.UUID,
	previousReturnAt, newReturnAt time.Time,
	feeCents int64,
	now time.Time,
) (*Extension, error) {
	if bookingID == uuid.Nil || requesterID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID and requester ID are required")
	}
	if !newReturnAt.After(previousReturnAt) {
		return nil, domain.NewValidationError("new return date must be after the current return date")
	}
	if feeCents < 0 {
		return nil, domain.NewValidationError("extension fee cannot be negative")
	}

	now = now.UTC()
	return &Extension{
		id:               uuid.New(),
		bookingID:        bookingID,
		requesterID:      requesterID,
		additionalDays:   pricing.DayCount(previousReturnAt, newReturnAt),
		previousReturnAt: previousReturnAt.UTC(),
		newReturnAt:      newReturnAt.UTC(),
		feeCents:         feeCents,
		status:           StatusPending,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds an Extension from persistence.
func Reconstruct(
	id, bookingID, requesterID uuid.UUID,
	additionalDays int,
	previousReturnAt, newReturnAt time.Time,
	feeCents int64,
	status Status,
	reviewedBy *uuid.UUID,
	reviewNotes string,
	reviewedAt *time.Time,
	createdAt, updatedAt time.Time,
) *Extension {
	return &Extension{
		id:               id,
		bookingID:        bookingID,
		requesterID:      requesterID,
		additionalDays:   additionalDays,
		previousReturnAt: previousReturnAt,
		newReturnAt:      newReturnAt,
		feeCents:         feeCents,
		status:           status,
		reviewedBy:       reviewedBy,
		reviewNotes:      reviewNotes,
		reviewedAt:       reviewedAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// Getters.
func (e *Extension) ID() uuid.UUID               { return e.id }
func (e *Extension) BookingID() uuid.UUID        { return e.bookingID }
func (e *Extension) RequesterID() uuid.UUID      { return e.requesterID }
func (e *Extension) AdditionalDays() int         { return e.additionalDays }
func (e *Extension) PreviousReturnAt() time.Time { return e.previousReturnAt }
func (e *Extension) NewReturnAt() time.Time      { return e.newReturnAt }
func (e *Extension) FeeCents() int64             { return e.feeCents }
func (e *Extension) Status() Status              { return e.status }
func (e *Extension) ReviewedBy() *uuid.UUID      { return e.reviewedBy }
func (e *Extension) ReviewNotes() string         { return e.reviewNotes }
func (e *Extension) ReviewedAt() *time.Time      { return e.reviewedAt }
func (e *Extension) CreatedAt() time.Time        { return e.createdAt }
func (e *Extension) UpdatedAt() time.Time        { return e.updatedAt }

// Approve marks a pending extension approved.
func (e *Extension) Approve(reviewerID uuid.UUID, notes string, now time.Time) error {
	return e.review(StatusApproved, reviewerID, notes, now)
}

// Reject marks a pending extension rejected.
func (e *Extension) Reject(reviewerID uuid.UUID, notes string, now time.Time) error {
	return e.review(StatusRejected, reviewerID, notes, now)
}

func (e *Extension) review(target Status, reviewerID uuid.UUID, notes string, now time.Time) error {
	if e.status != StatusPending {
		return domain.NewInvalidStateError(string(e.status), string(target))
	}
	at := now.UTC()
	e.status = target
	e.reviewedBy = &reviewerID
	e.reviewNotes = notes
	e.reviewedAt = &at
	e.updatedAt = at
	return nil
}
