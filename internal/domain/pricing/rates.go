package pricing

import "github.com/fleetline/service-reservation/pkg/domain"

const (
	weekDays  = 7
	monthDays = 30

	// Fallback block prices when a vehicle has no explicit weekly or monthly
	// rate, in percent of the undiscounted daily total.
	defaultWeeklyPercent  = 90
	defaultMonthlyPercent = 80
)

// Rates holds a vehicle's prices in minor units. Zero weekly or monthly
// rates fall back to a percentage of the daily rate.
type Rates struct {
	DailyCents   int64 `json:"daily_cents"`
	WeeklyCents  int64 `json:"weekly_cents,omitempty"`
	MonthlyCents int64 `json:"monthly_cents,omitempty"`
}

// Validate checks that the rates can be priced.
func (r Rates) Validate() error {
	if r.DailyCents <= 0 {
		return domain.NewValidationError("daily rate must be positive")
	}
	if r.WeeklyCents < 0 || r.MonthlyCents < 0 {
		return domain.NewValidationError("weekly and monthly rates cannot be negative")
	}
	return nil
}

// Weekly returns the price of a 7-day block.
func (r Rates) Weekly() int64 {
	if r.WeeklyCents > 0 {
		return r.WeeklyCents
	}
	return percentOf(r.DailyCents*weekDays, defaultWeeklyPercent)
}

// Monthly returns the price of a 30-day block.
func (r Rates) Monthly() int64 {
	if r.MonthlyCents > 0 {
		return r.MonthlyCents
	}
	return percentOf(r.DailyCents*monthDays, defaultMonthlyPercent)
}

// percentOf returns amount*pct/100 rounded half up.
func percentOf(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}
