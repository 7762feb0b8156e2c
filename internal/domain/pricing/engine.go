package pricing

import (
	"fmt"
	"time"

	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
)

// MaxRentalDays caps the length of a priced rental.
const MaxRentalDays = 365

// MaxRentalDuration is MaxRentalDays as a duration.
const MaxRentalDuration = MaxRentalDays * 24 * time.Hour

// Params holds the inputs of a price calculation.
type Params struct {
	Rates    Rates
	PickupAt time.Time
	ReturnAt time.Time
	Rules    []PeakSeasonRule
}

// DayRate is the price of one rental day.
type DayRate struct {
	Date       time.Time  `json:"date"`
	BaseCents  int64      `json:"base_cents"`
	PriceCents int64      `json:"price_cents"`
	RuleID     *uuid.UUID `json:"rule_id,omitempty"`
	RuleName   string     `json:"rule_name,omitempty"`
}

// Breakdown is the full result of a price calculation.
type Breakdown struct {
	Days               int       `json:"days"`
	SubtotalCents      int64     `json:"subtotal_cents"`
	PeakSurchargeCents int64     `json:"peak_surcharge_cents"`
	AppliedMultiplier  float64   `json:"applied_multiplier"`
	DiscountCents      int64     `json:"discount_cents"`
	TotalCents         int64     `json:"total_cents"`
	MonthlyBlocks      int       `json:"monthly_blocks"`
	WeeklyBlocks       int       `json:"weekly_blocks"`
	DailyUnits         int       `json:"daily_units"`
	Nightly            []DayRate `json:"nightly"`
}

// Strategy prices a rental.
type Strategy interface {
	Price(params Params) (Breakdown, error)
}

// SeasonalStrategy applies peak-season rules per day and then charges the
// base portion as the cheapest cover of daily units, weekly blocks and
// monthly blocks. Peak surcharges are added on top of the discounted base.
type SeasonalStrategy struct{}

// NewSeasonalStrategy creates a new SeasonalStrategy.
func NewSeasonalStrategy() *SeasonalStrategy {
	return &SeasonalStrategy{}
}

// DayCount returns the number of billable days in [pickup, return): partial
// days round up and the minimum is one.
func DayCount(pickupAt, returnAt time.Time) int {
	d := returnAt.Sub(pickupAt)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// Price implements Strategy.
func (s *SeasonalStrategy) Price(p Params) (Breakdown, error) {
	if err := p.Rates.Validate(); err != nil {
		return Breakdown{}, err
	}
	if !p.ReturnAt.After(p.PickupAt) {
		return Breakdown{}, domain.NewValidationError("return date must be after pickup date")
	}
	if p.ReturnAt.Sub(p.PickupAt) > MaxRentalDuration {
		return Breakdown{}, domain.NewValidationError(fmt.Sprintf("rental may not exceed %d days", MaxRentalDays))
	}

	days := DayCount(p.PickupAt, p.ReturnAt)
	base := p.Rates.DailyCents

	b := Breakdown{
		Days:              days,
		AppliedMultiplier: 1.0,
		Nightly:           make([]DayRate, 0, days),
	}

	for i := 0; i < days; i++ {
		day := dateOf(p.PickupAt.Add(time.Duration(i) * 24 * time.Hour))
		rate := DayRate{Date: day, BaseCents: base, PriceCents: base}

		if rule, ok := pickRule(p.Rules, day, base); ok {
			id := rule.ID
			rate.PriceCents = rule.Apply(base)
			rate.RuleID = &id
			rate.RuleName = rule.Name
			if m := float64(rate.PriceCents) / float64(base); m > b.AppliedMultiplier {
				b.AppliedMultiplier = m
			}
		}

		b.SubtotalCents += base
		b.PeakSurchargeCents += rate.PriceCents - base
		b.Nightly = append(b.Nightly, rate)
	}

	cover := cheapestCover(days, p.Rates)
	b.MonthlyBlocks = cover.monthly
	b.WeeklyBlocks = cover.weekly
	b.DailyUnits = cover.daily
	b.DiscountCents = b.SubtotalCents - cover.cents
	b.TotalCents = cover.cents + b.PeakSurchargeCents

	return b, nil
}

// pickRule returns the rule with the highest day price covering day; ties go
// to the earliest created rule.
func pickRule(rules []PeakSeasonRule, day time.Time, base int64) (PeakSeasonRule, bool) {
	var best PeakSeasonRule
	found := false
	for _, r := range rules {
		if !r.Covers(day) || r.Apply(base) <= base {
			continue
		}
		if !found || r.outranks(best, base) {
			best = r
			found = true
		}
	}
	return best, found
}

type coverPlan struct {
	cents   int64
	daily   int
	weekly  int
	monthly int
}

// cheapestCover returns the cheapest combination of daily units, 7-day
// blocks and 30-day blocks covering at least days days. A cover of n+1
// days also covers n, so the result never decreases as days grows.
func cheapestCover(days int, r Rates) coverPlan {
	daily, weekly, monthly := r.DailyCents, r.Weekly(), r.Monthly()

	plans := make([]coverPlan, days+1)
	for k := 1; k <= days; k++ {
		best := plans[k-1]
		best.cents += daily
		best.daily++

		if w := plans[max(k-weekDays, 0)]; w.cents+weekly < best.cents {
			best = w
			best.cents += weekly
			best.weekly++
		}
		if m := plans[max(k-monthDays, 0)]; m.cents+monthly < best.cents {
			best = m
			best.cents += monthly
			best.monthly++
		}
		plans[k] = best
	}
	return plans[days]
}
