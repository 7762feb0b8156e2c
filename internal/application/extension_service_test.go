package application_test

import (
	"context"
	"testing"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/internal/domain/extension"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestExtension_ApprovalMovesReturnAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(1, 0), jan(8, 0))
	f.transition(t, bk.ID, application.ActionApprove)

	ext, err := f.extensions.RequestExtension(ctx, bk.ID, f.customer, application.RequestExtensionRequest{NewReturnAt: jan(10, 0)})
	require.NoError(t, err)
	assert.Equal(t, "pending", ext.Status)
	assert.Equal(t, 2, ext.AdditionalDays)
	assert.Equal(t, int64(200000), ext.FeeCents)
	assert.Equal(t, jan(8, 0), ext.PreviousReturnAt)

	reviewed, err := f.extensions.ReviewExtension(ctx, ext.ID, extension.DecisionApprove, f.staff, "ok")
	require.NoError(t, err)
	assert.Equal(t, "approved", reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, f.staff, *reviewed.ReviewedBy)

	got, err := f.bookings.GetBooking(ctx, bk.ID, f.customer)
	require.NoError(t, err)
	assert.Equal(t, jan(10, 0), got.ReturnAt)
	assert.Equal(t, int64(830000), got.TotalPriceCents)
	assert.Equal(t, int64(3), got.Version)
}

func TestRequestExtension_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(1, 0), jan(8, 0))
	f.transition(t, bk.ID, application.ActionApprove)

	ext, err := f.extensions.RequestExtension(ctx, bk.ID, f.customer, application.RequestExtensionRequest{NewReturnAt: jan(9, 0)})
	require.NoError(t, err)

	reviewed, err := f.extensions.ReviewExtension(ctx, ext.ID, extension.DecisionReject, f.staff, "vehicle due for service")
	require.NoError(t, err)
	assert.Equal(t, "rejected", reviewed.Status)
	assert.Equal(t, "vehicle due for service", reviewed.ReviewNotes)

	got, err := f.bookings.GetBooking(ctx, bk.ID, f.customer)
	require.NoError(t, err)
	assert.Equal(t, jan(8, 0), got.ReturnAt)
	assert.Equal(t, int64(630000), got.TotalPriceCents)

	_, err = f.extensions.ReviewExtension(ctx, ext.ID, extension.DecisionApprove, f.staff, "")
	assert.True(t, domain.IsInvalidState(err), "a reviewed extension cannot be reviewed again")
}

func TestRequestExtension_DateMustMoveLater(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(1, 0), jan(8, 0))

	// Date ordering is checked before status, so even a pending booking
	// reports the bad date.
	_, err := f.extensions.RequestExtension(ctx, bk.ID, f.customer, application.RequestExtensionRequest{NewReturnAt: jan(8, 0)})
	assert.True(t, domain.IsValidation(err))

	_, err = f.extensions.RequestExtension(ctx, bk.ID, f.customer, application.RequestExtensionRequest{NewReturnAt: jan(9, 0)})
	assert.True(t, domain.IsInvalidState(err))
}

func TestRequestExtension_CappedAtMaxRentalLength(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(1, 0), jan(8, 0))
	f.transition(t, bk.ID, application.ActionApprove)

	_, err := f.extensions.RequestExtension(ctx, bk.ID, f.customer, application.RequestExtensionRequest{
		NewReturnAt: jan(1, 0).AddDate(0, 0, pricing.MaxRentalDays+1),
	})
	assert.True(t, domain.IsValidation(err))
}

func TestRequestExtension_OnePendingAtATime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(1, 0), jan(8, 0))
	f.transition(t, bk.ID, application.ActionApprove)

	_, err := f.extensions.RequestExtension(ctx, bk.ID, f.customer, application.RequestExtensionRequest{NewReturnAt: jan(9, 0)})
	require.NoError(t, err)

	_, err = f.extensions.RequestExtension(ctx, bk.ID, f.customer, application.RequestExtensionRequest{NewReturnAt: jan(10, 0)})
	assert.True(t, domain.IsConflict(err))

	list, err := f.extensions.ListForBooking(ctx, bk.ID, f.customer)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRequestExtension_BlockedByNextBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, jan(1, 0), jan(8, 0))
	f.transition(t, a.ID, application.ActionApprove)
	b := f.book(t, jan(9, 0), jan(12, 0))

	_, err := f.extensions.RequestExtension(ctx, a.ID, f.customer, application.RequestExtensionRequest{NewReturnAt: jan(10, 0)})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{b.ID.String()}, de.Details["conflicting_ids"])
}

func TestReviewExtension_RechecksAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, jan(1, 0), jan(8, 0))
	f.transition(t, a.ID, application.ActionApprove)

	ext, err := f.extensions.RequestExtension(ctx, a.ID, f.customer, application.RequestExtensionRequest{NewReturnAt: jan(10, 0)})
	require.NoError(t, err)

	// A pending extension does not hold the vehicle.
	f.book(t, jan(9, 0), jan(11, 0))

	_, err = f.extensions.ReviewExtension(ctx, ext.ID, extension.DecisionApprove, f.staff, "")
	assert.True(t, domain.IsConflict(err))

	list, err := f.extensions.ListForBooking(ctx, a.ID, f.staff)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pending", list[0].Status, "failed approval rolls back")
}

func TestExtension_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.book(t, jan(1, 0), jan(8, 0))
	f.transition(t, bk.ID, application.ActionApprove)

	_, err := f.extensions.RequestExtension(ctx, bk.ID, uuid.New(), application.RequestExtensionRequest{NewReturnAt: jan(9, 0)})
	assert.True(t, domain.IsForbidden(err))

	ext, err := f.extensions.RequestExtension(ctx, bk.ID, f.customer, application.RequestExtensionRequest{NewReturnAt: jan(9, 0)})
	require.NoError(t, err)

	_, err = f.extensions.ReviewExtension(ctx, ext.ID, extension.DecisionApprove, f.customer, "")
	assert.True(t, domain.IsForbidden(err))

	_, err = f.extensions.ListForBooking(ctx, bk.ID, uuid.New())
	assert.True(t, domain.IsForbidden(err))
}

func TestParseDecision(t *testing.T) {
	d, err := application.ParseDecision("approved")
	require.NoError(t, err)
	assert.Equal(t, extension.DecisionApprove, d)

	d, err = application.ParseDecision("reject")
	require.NoError(t, err)
	assert.Equal(t, extension.DecisionReject, d)

	_, err = application.ParseDecision("maybe")
	assert.True(t, domain.IsValidation(err))
}
