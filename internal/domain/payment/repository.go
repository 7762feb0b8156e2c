package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository defines persistence operations for ledger entries.
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error)
	Save(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
}
