package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/fleetline/service-reservation/internal/domain/booking"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber      string     `gorm:"uniqueIndex;not null;size:20"`
	VehicleID          uuid.UUID  `gorm:"type:uuid;index;not null"`
	RequesterID        uuid.UUID  `gorm:"type:uuid;index;not null"`
	Status             string     `gorm:"not null;size:20;index"`
	PaymentStatus      string     `gorm:"not null;size:20;default:'unpaid'"`
	PickupAt           time.Time  `gorm:"type:timestamptz;not null"`
	ReturnAt           time.Time  `gorm:"type:timestamptz;not null"`
	PickupLocation     string     `gorm:"not null;size:200"`
	DropoffLocation    string     `gorm:"not null;size:200"`
	TotalPriceCents    int64      `gorm:"not null"`
	PeakSurchargeCents int64      `gorm:"not null;default:0"`
	DiscountCents      int64      `gorm:"not null;default:0"`
	AppliedMultiplier  float64    `gorm:"type:numeric(6,3);not null;default:1"`
	Currency           string     `gorm:"not null;size:3;default:'USD'"`
	Notes              string     `gorm:"size:1000"`
	ReviewedBy         *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt         *time.Time `gorm:""`
	RejectReason       string     `gorm:"size:500"`
	StartedAt          *time.Time `gorm:""`
	CompletedAt        *time.Time `gorm:""`
	CancelledAt        *time.Time `gorm:""`
	CancelReason       string     `gorm:"size:500"`
	Version            int64      `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// activeStatuses are the statuses that hold a vehicle, as stored.
func activeStatuses() []string {
	out := make([]string, len(bookingDomain.ActiveStatuses))
	for i, s := range bookingDomain.ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByRequesterID retrieves bookings made by a customer with pagination.
func (r *GormBookingRepository) FindByRequesterID(ctx context.Context, requesterID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(r.db.WithContext(ctx).Where("requester_id = ?", requesterID), page, limit)
}

// ListAll retrieves all bookings with pagination, optionally filtered by status (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, status *bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	q := r.db.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}
	return r.paginate(q, page, limit)
}

func (r *GormBookingRepository) paginate(q *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// FindOverlapping returns active bookings of the vehicle whose half-open
// period intersects period.
func (r *GormBookingRepository) FindOverlapping(
	ctx context.Context,
	vehicleID uuid.UUID,
	period bookingDomain.Period,
	exclude *uuid.UUID,
) ([]*bookingDomain.Booking, error) {
	q := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Where("status IN ?", activeStatuses()).
		Where("pickup_at < ? AND return_at > ?", period.ReturnAt, period.PickupAt)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}

	var models []BookingModel
	if err := q.Order("pickup_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindOverdue returns up to limit ongoing bookings whose return date is before
// now and that have no late fee yet.
func (r *GormBookingRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND return_at < ?", string(bookingDomain.StatusOngoing), now).
		Where("NOT EXISTS (SELECT 1 FROM late_fees lf WHERE lf.booking_id = bookings.id)").
		Order("return_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overdue bookings: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking. The exclusion constraint on the table turns a
// concurrent overlapping insert into a Conflict.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if cerr := constraintError(err, bookingDomain.ReasonPeriodTaken); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion has already been called, so the stored row is one behind.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":            model.Status,
			"payment_status":    model.PaymentStatus,
			"return_at":         model.ReturnAt,
			"total_price_cents": model.TotalPriceCents,
			"reviewed_by":       model.ReviewedBy,
			"reviewed_at":       model.ReviewedAt,
			"reject_reason":     model.RejectReason,
			"started_at":        model.StartedAt,
			"completed_at":      model.CompletedAt,
			"cancelled_at":      model.CancelledAt,
			"cancel_reason":     model.CancelReason,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		if cerr := constraintError(result.Error, bookingDomain.ReasonPeriodTaken); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction", bk.ID().String())
	}

	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	price := bk.Price()
	return &BookingModel{
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.VehicleID,
		m.RequesterID,
		status,
		bookingDomain.PaymentStatus(m.PaymentStatus),
		bookingDomain.Period{PickupAt: m.PickupAt.UTC(), ReturnAt: m.ReturnAt.UTC()},
		m.PickupLocation,
		m.DropoffLocation,
		bookingDomain.Price{
			TotalCents:         m.TotalPriceCents,
			PeakSurchargeCents: m.PeakSurchargeCents,
			DiscountCents:      m.DiscountCents,
			AppliedMultiplier:  m.AppliedMultiplier,
			Currency:           m.Currency,
		},
		m.Notes,
		m.ReviewedBy,
		m.ReviewedAt,
		m.RejectReason,
		m.StartedAt,
		m.CompletedAt,
		m.CancelledAt,
		m.CancelReason,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
