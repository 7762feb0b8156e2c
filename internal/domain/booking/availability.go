package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Availability is the outcome of an availability check.
type Availability struct {
	Available      bool        `json:"available"`
	Reason         string      `json:"reason,omitempty"`
	ConflictingIDs []uuid.UUID `json:"conflicting_booking_ids,omitempty"`
}

const (
	ReasonVehicleUnavailable = "vehicle is not available for booking"
	ReasonPeriodTaken        = "vehicle is already booked for the requested period"
)

// AvailabilityChecker decides whether a vehicle is free for a period.
type AvailabilityChecker struct {
	repo BookingRepository
}

// NewAvailabilityChecker creates a new AvailabilityChecker.
func NewAvailabilityChecker(repo BookingRepository) *AvailabilityChecker {
	return &AvailabilityChecker{repo: repo}
}

// Check returns whether the vehicle is free for period. Only pending,
// confirmed and ongoing bookings conflict. Completed bookings are excluded
// along with rejected and cancelled ones: the vehicle has come back, and the
// bookings_no_overlap exclusion constraint uses the same status set.
// exclude skips one booking, which lets an extension be checked against
// everything but itself.
func (c *AvailabilityChecker) Check(
	ctx context.Context,
	vehicleID uuid.UUID,
	vehicleAvailable bool,
	period Period,
	exclude *uuid.UUID,
) (Availability, error) {
	if !vehicleAvailable {
		return Availability{Available: false, Reason: ReasonVehicleUnavailable}, nil
	}

	candidates, err := c.repo.FindOverlapping(ctx, vehicleID, period, exclude)
	if err != nil {
		return Availability{}, fmt.Errorf("failed to query overlapping bookings: %w", err)
	}

	var conflicting []uuid.UUID
	for _, b := range candidates {
		if exclude != nil && b.ID() == *exclude {
			continue
		}
		if b.VehicleID() != vehicleID || !b.Status().IsActive() || !b.Period().Overlaps(period) {
			continue
		}
		conflicting = append(conflicting, b.ID())
	}

	if len(conflicting) > 0 {
		return Availability{Available: false, Reason: ReasonPeriodTaken, ConflictingIDs: conflicting}, nil
	}
	return Availability{Available: true}, nil
}

// IsAvailable is Check reduced to a boolean.
func (c *AvailabilityChecker) IsAvailable(
	ctx context.Context,
	vehicleID uuid.UUID,
	vehicleAvailable bool,
	period Period,
	exclude *uuid.UUID,
) (bool, error) {
	a, err := c.Check(ctx, vehicleID, vehicleAvailable, period, exclude)
	if err != nil {
		return false, err
	}
	return a.Available, nil
}

// ConflictIDStrings formats conflicting ids for error details.
func (a Availability) ConflictIDStrings() []string {
	out := make([]string, len(a.ConflictingIDs))
	for i, id := range a.ConflictingIDs {
		out[i] = id.String()
	}
	return out
}
