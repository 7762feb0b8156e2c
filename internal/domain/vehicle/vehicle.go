package vehicle

import (
	"strings"
	"time"

	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
)

// Vehicle is a fleet vehicle as seen by the reservation core. Fleet
// management owns the record; the core only reads it.
type Vehicle struct {
	id              uuid.UUID
	name            string
	dailyRateCents  int64
	weeklyRateCents int64
	monthlyRate     int64
	available       bool
	pickupLocations []string
	createdAt       time.Time
	updatedAt       time.Time
}

// NewVehicle creates a new available vehicle with validated rates.
func NewVehicle(name string, rates pricing.Rates, pickupLocations []string) (*Vehicle, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("vehicle name is required")
	}
	if err := rates.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:              uuid.New(),
		name:            name,
		dailyRateCents:  rates.DailyCents,
		weeklyRateCents: rates.WeeklyCents,
		monthlyRate:     rates.MonthlyCents,
		available:       true,
		pickupLocations: pickupLocations,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence.
func Reconstruct(
	id uuid.UUID,
	name string,
	dailyRateCents, weeklyRateCents, monthlyRateCents int64,
	available bool,
	pickupLocations []string,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:              id,
		name:            name,
		dailyRateCents:  dailyRateCents,
		weeklyRateCents: weeklyRateCents,
		monthlyRate:     monthlyRateCents,
		available:       available,
		pickupLocations: pickupLocations,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// Getters.
func (v *Vehicle) ID() uuid.UUID             { return v.id }
func (v *Vehicle) Name() string              { return v.name }
func (v *Vehicle) DailyRateCents() int64     { return v.dailyRateCents }
func (v *Vehicle) WeeklyRateCents() int64    { return v.weeklyRateCents }
func (v *Vehicle) MonthlyRateCents() int64   { return v.monthlyRate }
func (v *Vehicle) Available() bool           { return v.available }
func (v *Vehicle) PickupLocations() []string { return v.pickupLocations }
func (v *Vehicle) CreatedAt() time.Time      { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time      { return v.updatedAt }

// Rates returns the vehicle's pricing rates.
func (v *Vehicle) Rates() pricing.Rates {
	return pricing.Rates{
		DailyCents:   v.dailyRateCents,
		WeeklyCents:  v.weeklyRateCents,
		MonthlyCents: v.monthlyRate,
	}
}

// AllowsPickupAt reports whether the vehicle can be collected at location.
// A vehicle without listed locations can be collected anywhere.
func (v *Vehicle) AllowsPickupAt(location string) bool {
	if len(v.pickupLocations) == 0 {
		return true
	}
	for _, l := range v.pickupLocations {
		if strings.EqualFold(l, location) {
			return true
		}
	}
	return false
}

// SetAvailable toggles whether the vehicle accepts new reservations.
func (v *Vehicle) SetAvailable(available bool) {
	v.available = available
	v.updatedAt = time.Now().UTC()
}
