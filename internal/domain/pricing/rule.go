package pricing

import (
	"math"
	"time"

	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
)

// PeakSeasonRule raises the day price for every calendar day between
// StartDate and EndDate inclusive. Exactly one of Multiplier and
// FixedIncreaseCents is set.
type PeakSeasonRule struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	Multiplier         float64   `json:"multiplier,omitempty"`
	FixedIncreaseCents int64     `json:"fixed_increase_cents,omitempty"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
}

// Validate checks the rule's invariants.
func (r PeakSeasonRule) Validate() error {
	if dateOf(r.EndDate).Before(dateOf(r.StartDate)) {
		return domain.NewValidationError("peak season end date is before start date")
	}
	hasMultiplier := r.Multiplier != 0
	hasIncrease := r.FixedIncreaseCents != 0
	if hasMultiplier == hasIncrease {
		return domain.NewValidationError("peak season rule needs exactly one of multiplier or fixed increase")
	}
	if hasMultiplier && r.Multiplier <= 1.0 {
		return domain.NewValidationError("peak season multiplier must be greater than 1")
	}
	if hasIncrease && r.FixedIncreaseCents < 0 {
		return domain.NewValidationError("peak season fixed increase must be positive")
	}
	return nil
}

// Covers reports whether the rule is active on day's calendar date (UTC).
func (r PeakSeasonRule) Covers(day time.Time) bool {
	if !r.Active {
		return false
	}
	d := dateOf(day)
	return !d.Before(dateOf(r.StartDate)) && !d.After(dateOf(r.EndDate))
}

// Apply returns the peak day price for a base daily price.
func (r PeakSeasonRule) Apply(baseCents int64) int64 {
	if r.Multiplier != 0 {
		return int64(math.Round(float64(baseCents) * r.Multiplier))
	}
	return baseCents + r.FixedIncreaseCents
}

// outranks reports whether r takes precedence over other for a day priced at base.
func (r PeakSeasonRule) outranks(other PeakSeasonRule, baseCents int64) bool {
	mine, theirs := r.Apply(baseCents), other.Apply(baseCents)
	if mine != theirs {
		return mine > theirs
	}
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.Before(other.CreatedAt)
	}
	return r.ID.String() < other.ID.String()
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
