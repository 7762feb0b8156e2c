package application

import (
	"time"

	"github.com/fleetline/service-reservation/internal/domain/booking"
	"github.com/fleetline/service-reservation/internal/domain/extension"
	"github.com/fleetline/service-reservation/internal/domain/latefee"
	"github.com/fleetline/service-reservation/internal/domain/payment"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/fleetline/service-reservation/internal/domain/vehicle"
	"github.com/google/uuid"
)

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID  `json:"id"`
	BookingNumber      string     `json:"booking_number"`
	VehicleID          uuid.UUID  `json:"vehicle_id"`
	RequesterID        uuid.UUID  `json:"requester_id"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"payment_status"`
	PickupAt           time.Time  `json:"pickup_at"`
	ReturnAt           time.Time  `json:"return_at"`
	PickupLocation     string     `json:"pickup_location"`
	DropoffLocation    string     `json:"dropoff_location"`
	TotalPriceCents    int64      `json:"total_price_cents"`
	PeakSurchargeCents int64      `json:"peak_surcharge_cents"`
	DiscountCents      int64      `json:"discount_cents"`
	AppliedMultiplier  float64    `json:"applied_multiplier"`
	Currency           string     `json:"currency"`
	Notes              string     `json:"notes,omitempty"`
	ReviewedBy         *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
	RejectReason       string     `json:"reject_reason,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelReason       string     `json:"cancel_reason,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BookingStatsDTO holds aggregate booking counts for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// AvailabilityDTO is the result of an availability check. Pricing is present
// only when the vehicle is available.
type AvailabilityDTO struct {
	Available             bool               `json:"available"`
	Reason                string             `json:"reason,omitempty"`
	ConflictingBookingIDs []uuid.UUID        `json:"conflicting_booking_ids,omitempty"`
	Pricing               *pricing.Breakdown `json:"pricing,omitempty"`
}

// ExtensionDTO is the response representation of an extension request.
type ExtensionDTO struct {
	ID               uuid.UUID  `json:"id"`
	BookingID        uuid.UUID  `json:"booking_id"`
	RequesterID      uuid.UUID  `json:"requester_id"`
	AdditionalDays   int        `json:"additional_days"`
	PreviousReturnAt time.Time  `json:"previous_return_at"`
	NewReturnAt      time.Time  `json:"new_return_at"`
	FeeCents         int64      `json:"fee_cents"`
	Status           string     `json:"status"`
	ReviewedBy       *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewNotes      string     `json:"review_notes,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// LateFeeDTO is the response representation of a late fee.
type LateFeeDTO struct {
	ID               uuid.UUID  `json:"id"`
	BookingID        uuid.UUID  `json:"booking_id"`
	OriginalReturnAt time.Time  `json:"original_return_at"`
	HoursOverdue     int64      `json:"hours_overdue"`
	HourlyRateCents  int64      `json:"hourly_rate_cents"`
	TotalCents       int64      `json:"total_cents"`
	PaymentStatus    string     `json:"payment_status"`
	PaidAmountCents  int64      `json:"paid_amount_cents"`
	ActualReturnAt   *time.Time `json:"actual_return_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PaymentDTO is the response representation of a ledger entry.
type PaymentDTO struct {
	ID                uuid.UUID  `json:"id"`
	BookingID         uuid.UUID  `json:"booking_id"`
	AmountCents       int64      `json:"amount_cents"`
	Type              string     `json:"type"`
	IsDeposit         bool       `json:"is_deposit"`
	DepositRefunded   bool       `json:"deposit_refunded"`
	RefundAmountCents int64      `json:"refund_amount_cents"`
	RefundedAt        *time.Time `json:"refunded_at,omitempty"`
	Status            string     `json:"status"`
	Reference         string     `json:"reference,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// VehicleDTO is the response representation of a fleet vehicle. Block rates
// that are not set on the vehicle show their defaults.
type VehicleDTO struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	DailyRateCents   int64     `json:"daily_rate_cents"`
	WeeklyRateCents  int64     `json:"weekly_rate_cents"`
	MonthlyRateCents int64     `json:"monthly_rate_cents"`
	Available        bool      `json:"available"`
	PickupLocations  []string  `json:"pickup_locations"`
}

// --- Mappers ---

func toBookingDTO(bk *booking.Booking) BookingDTO {
	price := bk.Price()
	return BookingDTO{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		VehicleID:          bk.VehicleID(),
		RequesterID:        bk.RequesterID(),
		Status:             string(bk.Status()),
		PaymentStatus:      string(bk.PaymentStatus()),
		PickupAt:           bk.PickupAt(),
		ReturnAt:           bk.ReturnAt(),
		PickupLocation:     bk.PickupLocation(),
		DropoffLocation:    bk.DropoffLocation(),
		TotalPriceCents:    price.TotalCents,
		PeakSurchargeCents: price.PeakSurchargeCents,
		DiscountCents:      price.DiscountCents,
		AppliedMultiplier:  price.AppliedMultiplier,
		Currency:           price.Currency,
		Notes:              bk.Notes(),
		ReviewedBy:         bk.ReviewedBy(),
		ReviewedAt:         bk.ReviewedAt(),
		RejectReason:       bk.RejectReason(),
		StartedAt:          bk.StartedAt(),
		CompletedAt:        bk.CompletedAt(),
		CancelledAt:        bk.CancelledAt(),
		CancelReason:       bk.CancelReason(),
		Version:            bk.Version(),
		CreatedAt:          bk.CreatedAt(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}

func toExtensionDTO(e *extension.Extension) ExtensionDTO {
	return ExtensionDTO{
		ID:               e.ID(),
		BookingID:        e.BookingID(),
		RequesterID:      e.RequesterID(),
		AdditionalDays:   e.AdditionalDays(),
		PreviousReturnAt: e.PreviousReturnAt(),
		NewReturnAt:      e.NewReturnAt(),
		FeeCents:         e.FeeCents(),
		Status:           string(e.Status()),
		ReviewedBy:       e.ReviewedBy(),
		ReviewNotes:      e.ReviewNotes(),
		ReviewedAt:       e.ReviewedAt(),
		CreatedAt:        e.CreatedAt(),
		UpdatedAt:        e.UpdatedAt(),
	}
}

func toLateFeeDTO(f *latefee.LateFee) LateFeeDTO {
	return LateFeeDTO{
		ID:               f.ID(),
		BookingID:        f.BookingID(),
		OriginalReturnAt: f.OriginalReturnAt(),
		HoursOverdue:     f.HoursOverdue(),
		HourlyRateCents:  f.HourlyRateCents(),
		TotalCents:       f.TotalCents(),
		PaymentStatus:    string(f.PaymentStatus()),
		PaidAmountCents:  f.PaidAmountCents(),
		ActualReturnAt:   f.ActualReturnAt(),
		CreatedAt:        f.CreatedAt(),
		UpdatedAt:        f.UpdatedAt(),
	}
}

func toPaymentDTO(p *payment.Payment) PaymentDTO {
	return PaymentDTO{
		ID:                p.ID(),
		BookingID:         p.BookingID(),
		AmountCents:       p.AmountCents(),
		Type:              string(p.Type()),
		IsDeposit:         p.IsDeposit(),
		DepositRefunded:   p.DepositRefunded(),
		RefundAmountCents: p.RefundAmountCents(),
		RefundedAt:        p.RefundedAt(),
		Status:            string(p.Status()),
		Reference:         p.Reference(),
		CreatedAt:         p.CreatedAt(),
		UpdatedAt:         p.UpdatedAt(),
	}
}

func toVehicleDTO(v *vehicle.Vehicle) VehicleDTO {
	locations := v.PickupLocations()
	if locations == nil {
		locations = []string{}
	}
	rates := v.Rates()
	return VehicleDTO{
		ID:               v.ID(),
		Name:             v.Name(),
		DailyRateCents:   rates.DailyCents,
		WeeklyRateCents:  rates.Weekly(),
		MonthlyRateCents: rates.Monthly(),
		Available:        v.Available(),
		PickupLocations:  locations,
	}
}
