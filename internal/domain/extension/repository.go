package extension

import (
	"context"

	"github.com/google/uuid"
)

// ExtensionRepository defines persistence operations for extension requests.
type ExtensionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Extension, error)
	// HasPending reports whether the booking has an extension awaiting review.
	HasPending(ctx context.Context, bookingID uuid.UUID) (bool, error)
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Extension, error)
	Save(ctx context.Context, ext *Extension) error
	Update(ctx context.Context, ext *Extension) error
}
