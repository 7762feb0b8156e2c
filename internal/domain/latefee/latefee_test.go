package latefee

import (
	"testing"
	"time"

	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var returnAt = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

func TestHoursOverdue(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{"four hours", returnAt.Add(4 * time.Hour), 4},
		{"partial hour floors", returnAt.Add(4*time.Hour + 59*time.Minute), 4},
		{"minimum one", returnAt.Add(10 * time.Minute), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HoursOverdue(returnAt, tt.now))
		})
	}
}

func TestNewLateFee(t *testing.T) {
	fee, err := NewLateFee(uuid.New(), returnAt, returnAt.Add(4*time.Hour), DefaultHourlyRateCents)
	require.NoError(t, err)
	assert.Equal(t, int64(4), fee.HoursOverdue())
	assert.Equal(t, 4*DefaultHourlyRateCents, fee.TotalCents())
	assert.True(t, fee.IsOutstanding())

	_, err = NewLateFee(uuid.New(), returnAt, returnAt.Add(-time.Hour), DefaultHourlyRateCents)
	assert.True(t, domain.IsValidation(err))

	_, err = NewLateFee(uuid.New(), returnAt, returnAt.Add(time.Hour), 0)
	assert.True(t, domain.IsValidation(err))
}

func TestLateFee_RecordReturn(t *testing.T) {
	now := returnAt.Add(10 * time.Hour)
	fee, err := NewLateFee(uuid.New(), returnAt, returnAt.Add(2*time.Hour), 1000)
	require.NoError(t, err)

	require.NoError(t, fee.RecordReturn(returnAt.Add(6*time.Hour+30*time.Minute), now))
	assert.Equal(t, int64(6), fee.HoursOverdue())
	assert.Equal(t, int64(6000), fee.TotalCents())
	require.NotNil(t, fee.ActualReturnAt())

	assert.True(t, domain.IsConflict(fee.RecordReturn(returnAt.Add(7*time.Hour), now)))
}

func TestLateFee_Settlement(t *testing.T) {
	now := returnAt.Add(3 * time.Hour)

	fee, err := NewLateFee(uuid.New(), returnAt, now, 1000)
	require.NoError(t, err)
	assert.True(t, domain.IsValidation(fee.MarkPaid(2999, now)))
	require.NoError(t, fee.MarkPaid(3000, now))
	assert.Equal(t, StatusPaid, fee.PaymentStatus())
	assert.True(t, domain.IsInvalidState(fee.Waive(now)))

	waived, err := NewLateFee(uuid.New(), returnAt, now, 1000)
	require.NoError(t, err)
	require.NoError(t, waived.Waive(now))
	assert.False(t, waived.IsOutstanding())
	assert.True(t, domain.IsInvalidState(waived.MarkPaid(3000, now)))
}
