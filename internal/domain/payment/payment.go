package payment

import (
	"fmt"
	"time"

	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
)

// PaymentType classifies what a payment is for.
type PaymentType string

const (
	TypeRental       PaymentType = "rental"
	TypeDeposit      PaymentType = "deposit"
	TypeExtensionFee PaymentType = "extension_fee"
	TypeLateFee      PaymentType = "late_fee"
)

// IsValid returns true if the payment type is recognized.
func (t PaymentType) IsValid() bool {
	switch t {
	case TypeRental, TypeDeposit, TypeExtensionFee, TypeLateFee:
		return true
	}
	return false
}

// Status is the settlement state of a payment.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

// Payment is a ledger entry for money taken against a booking.
type Payment struct {
	id                uuid.UUID
	bookingID         uuid.UUID
	amountCents       int64
	paymentType       PaymentType
	isDeposit         bool
	depositRefunded   bool
	refundAmountCents int64
	refundedAt        *time.Time
	status            Status
	reference         string
	createdAt         time.Time
	updatedAt         time.Time
}

// NewPayment records a pending payment. Deposit-type payments are always deposits.
func NewPayment(
	bookingID uuid.UUID,
	paymentType PaymentType,
	amountCents int64,
	isDeposit bool,
	reference string,
	now time.Time,
) (*Payment, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if !paymentType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid payment type: %s", paymentType))
	}
	if amountCents <= 0 {
		return nil, domain.NewValidationError("payment amount must be positive")
	}

	now = now.UTC()
	return &Payment{
		id:          uuid.New(),
		bookingID:   bookingID,
		amountCents: amountCents,
		paymentType: paymentType,
		isDeposit:   isDeposit || paymentType == TypeDeposit,
		status:      StatusPending,
		reference:   reference,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Payment from persistence.
func Reconstruct(
	id, bookingID uuid.UUID,
	amountCents int64,
	paymentType PaymentType,
	isDeposit, depositRefunded bool,
	refundAmountCents int64,
	refundedAt *time.Time,
	status Status,
	reference string,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:                id,
		bookingID:         bookingID,
		amountCents:       amountCents,
		paymentType:       paymentType,
		isDeposit:         isDeposit,
		depositRefunded:   depositRefunded,
		refundAmountCents: refundAmountCents,
		refundedAt:        refundedAt,
		status:            status,
		reference:         reference,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Getters.
func (p *Payment) ID() uuid.UUID            { return p.id }
func (p *Payment) BookingID() uuid.UUID     { return p.bookingID }
func (p *Payment) AmountCents() int64       { return p.amountCents }
func (p *Payment) Type() PaymentType        { return p.paymentType }
func (p *Payment) IsDeposit() bool          { return p.isDeposit }
func (p *Payment) DepositRefunded() bool    { return p.depositRefunded }
func (p *Payment) RefundAmountCents() int64 { return p.refundAmountCents }
func (p *Payment) RefundedAt() *time.Time   { return p.refundedAt }
func (p *Payment) Status() Status           { return p.status }
func (p *Payment) Reference() string        { return p.reference }
func (p *Payment) CreatedAt() time.Time     { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time     { return p.updatedAt }

// Settle moves a pending payment to paid or failed.
func (p *Payment) Settle(status Status, reference string, now time.Time) error {
	if status != StatusPaid && status != StatusFailed {
		return domain.NewValidationError(fmt.Sprintf("payment can only be settled as paid or failed, got %s", status))
	}
	if p.status != StatusPending {
		return domain.NewInvalidStateError(string(p.status), string(status))
	}
	p.status = status
	if reference != "" {
		p.reference = reference
	}
	p.updatedAt = now.UTC()
	return nil
}

// RefundDeposit returns up to the paid amount of a deposit, once.
func (p *Payment) RefundDeposit(amountCents int64, now time.Time) error {
	if !p.isDeposit {
		return domain.NewValidationError("only deposits can be refunded")
	}
	if p.depositRefunded {
		return domain.NewConflictError("deposit already refunded", p.id.String())
	}
	if p.status != StatusPaid {
		return domain.NewInvalidStateError(string(p.status), string(StatusRefunded))
	}
	if amountCents <= 0 || amountCents > p.amountCents {
		return domain.NewValidationError(fmt.Sprintf("refund amount must be between 1 and %d", p.amountCents))
	}

	at := now.UTC()
	p.depositRefunded = true
	p.refundAmountCents = amountCents
	p.refundedAt = &at
	p.status = StatusRefunded
	p.updatedAt = at
	return nil
}
