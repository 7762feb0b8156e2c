package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByRequesterID retrieves bookings made by a customer with pagination.
	FindByRequesterID(ctx context.Context, requesterID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination, optionally filtered by status (admin).
	ListAll(ctx context.Context, status *BookingStatus, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// FindOverlapping returns active bookings of the vehicle whose period
	// overlaps period, skipping exclude when set.
	FindOverlapping(ctx context.Context, vehicleID uuid.UUID, period Period, exclude *uuid.UUID) ([]*Booking, error)

	// FindOverdue returns up to limit ongoing bookings whose return date is
	// before now and that have no late fee yet, oldest return first.
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
