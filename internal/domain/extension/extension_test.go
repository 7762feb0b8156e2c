package extension

import (
	"testing"
	"time"

	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtension(t *testing.T) {
	now := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	prev := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

	ext, err := NewExtension(uuid.New(), uuid.New(), prev, prev.Add(50*time.Hour), 7500, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, ext.Status())
	assert.Equal(t, 3, ext.AdditionalDays())

	_, err = NewExtension(uuid.New(), uuid.New(), prev, prev, 0, now)
	assert.True(t, domain.IsValidation(err))

	_, err = NewExtension(uuid.New(), uuid.New(), prev, prev.Add(-time.Hour), 0, now)
	assert.True(t, domain.IsValidation(err))
}

func TestExtension_ReviewOnlyOnce(t *testing.T) {
	now := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	ext, err := NewExtension(uuid.New(), uuid.New(), now, now.Add(24*time.Hour), 100, now)
	require.NoError(t, err)

	reviewer := uuid.New()
	require.NoError(t, ext.Approve(reviewer, "ok", now))
	assert.Equal(t, StatusApproved, ext.Status())
	assert.Equal(t, reviewer, *ext.ReviewedBy())

	err = ext.Reject(reviewer, "changed mind", now)
	assert.True(t, domain.IsInvalidState(err))
}
