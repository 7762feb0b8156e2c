package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	lateFeeDomain "github.com/fleetline/service-reservation/internal/domain/latefee"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LateFeeModel is the GORM model for the late_fees table.
type LateFeeModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	OriginalReturnAt time.Time  `gorm:"type:timestamptz;not null"`
	HoursOverdue     int64      `gorm:"not null"`
	HourlyRateCents  int64      `gorm:"not null"`
	TotalCents       int64      `gorm:"not null"`
	PaymentStatus    string     `gorm:"type:varchar(20);not null"`
	PaidAmountCents  int64      `gorm:"not null;default:0"`
	ActualReturnAt   *time.Time `gorm:""`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

func (LateFeeModel) TableName() string { return "late_fees" }

// GormLateFeeRepository implements LateFeeRepository using GORM.
type GormLateFeeRepository struct {
	db *gorm.DB
}

func NewGormLateFeeRepository(db *gorm.DB) *GormLateFeeRepository {
	return &GormLateFeeRepository{db: db}
}

func (r *GormLateFeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*lateFeeDomain.LateFee, error) {
	return r.findOne(ctx, "id = ?", id, "late fee")
}

func (r *GormLateFeeRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*lateFeeDomain.LateFee, error) {
	return r.findOne(ctx, "booking_id = ?", bookingID, "late fee for booking")
}

func (r *GormLateFeeRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&LateFeeModel{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check late fee: %w", err)
	}
	return count > 0, nil
}

// Save inserts a late fee. The unique index on booking_id turns a second fee
// for the same booking into a Conflict.
func (r *GormLateFeeRepository) Save(ctx context.Context, fee *lateFeeDomain.LateFee) error {
	model := toLateFeeModel(fee)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if cerr := constraintError(err, "late fee already exists for booking"); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to save late fee: %w", err)
	}
	return nil
}

func (r *GormLateFeeRepository) Update(ctx context.Context, fee *lateFeeDomain.LateFee) error {
	model := toLateFeeModel(fee)
	result := r.db.WithContext(ctx).
		Model(&LateFeeModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"hours_overdue":     model.HoursOverdue,
			"total_cents":       model.TotalCents,
			"payment_status":    model.PaymentStatus,
			"paid_amount_cents": model.PaidAmountCents,
			"actual_return_at":  model.ActualReturnAt,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update late fee: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("late fee", model.ID.String())
	}
	return nil
}

func (r *GormLateFeeRepository) findOne(ctx context.Context, where string, id uuid.UUID, entity string) (*lateFeeDomain.LateFee, error) {
	var model LateFeeModel
	if err := r.db.WithContext(ctx).Where(where, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(entity, id.String())
		}
		return nil, fmt.Errorf("failed to find late fee: %w", err)
	}
	return toLateFeeDomain(&model), nil
}

// --- Conversions ---

func toLateFeeModel(f *lateFeeDomain.LateFee) LateFeeModel {
	return LateFeeModel{
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

func toLateFeeDomain(m *LateFeeModel) *lateFeeDomain.LateFee {
	return lateFeeDomain.Reconstruct(
		m.ID, m.BookingID,
		m.OriginalReturnAt.UTC(),
		m.HoursOverdue, m.HourlyRateCents, m.TotalCents,
		lateFeeDomain.PaymentStatus(m.PaymentStatus),
		m.PaidAmountCents,
		m.ActualReturnAt,
		m.CreatedAt, m.UpdatedAt,
	)
}
