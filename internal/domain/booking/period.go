package booking

import (
	"fmt"
	"time"

	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/pkg/domain"
)

// Period is the half-open rental interval [PickupAt, ReturnAt).
type Period struct {
	PickupAt time.Time `json:"pickup_at"`
	ReturnAt time.Time `json:"return_at"`
}

// NewPeriod validates and normalises a rental interval to UTC.
func NewPeriod(pickupAt, returnAt time.Time) (Period, error) {
	if pickupAt.IsZero() || returnAt.IsZero() {
		return Period{}, domain.NewValidationError("pickup and return dates are required")
	}
	if !returnAt.After(pickupAt) {
		return Period{}, domain.NewValidationError("return date must be after pickup date")
	}
	// Sub saturates for far-apart times, which still exceeds the cap.
	if returnAt.Sub(pickupAt) > pricing.MaxRentalDuration {
		return Period{}, domain.NewValidationError(fmt.Sprintf("rental may not exceed %d days", pricing.MaxRentalDays))
	}
	return Period{PickupAt: pickupAt.UTC(), ReturnAt: returnAt.UTC()}, nil
}

// Overlaps reports whether the two half-open intervals share any instant.
// Back-to-back periods, where one returns exactly when the other picks up,
// do not overlap.
func (p Period) Overlaps(o Period) bool {
	return p.PickupAt.Before(o.ReturnAt) && p.ReturnAt.After(o.PickupAt)
}

// Days returns the number of billable days.
func (p Period) Days() int {
	return pricing.DayCount(p.PickupAt, p.ReturnAt)
}
