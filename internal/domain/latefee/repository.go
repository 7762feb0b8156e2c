package latefee

import (
	"context"

	"github.com/google/uuid"
)

// LateFeeRepository defines persistence operations for late fees.
type LateFeeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LateFee, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*LateFee, error)
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	// Save inserts a new late fee; a second fee for the same booking is a Conflict.
	Save(ctx context.Context, fee *LateFee) error
	Update(ctx context.Context, fee *LateFee) error
}
