package pricing

import (
	"context"
	"time"
)

// PeakSeasonRuleRepository reads peak-season rules.
type PeakSeasonRuleRepository interface {
	// ListActiveBetween returns active rules overlapping the calendar days of [from, to].
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]PeakSeasonRule, error)
}
