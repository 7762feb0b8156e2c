package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	extensionDomain "github.com/fleetline/service-reservation/internal/domain/extension"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExtensionModel is the GORM model for the booking_extensions table. A
// partial unique index allows one pending row per booking.
type ExtensionModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	RequesterID      uuid.UUID  `gorm:"type:uuid;not null"`
	AdditionalDays   int        `gorm:"not null"`
	PreviousReturnAt time.Time  `gorm:"type:timestamptz;not null"`
	NewReturnAt      time.Time  `gorm:"type:timestamptz;not null"`
	FeeCents         int64      `gorm:"not null"`
	Status           string     `gorm:"type:varchar(20);not null"`
	ReviewedBy       *uuid.UUID `gorm:"type:uuid"`
	ReviewNotes      string     `gorm:"type:text"`
	ReviewedAt       *time.Time `gorm:""`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

func (ExtensionModel) TableName() string { return "booking_extensions" }

// GormExtensionRepository implements ExtensionRepository using GORM.
type GormExtensionRepository struct {
	db *gorm.DB
}

func NewGormExtensionRepository(db *gorm.DB) *GormExtensionRepository {
	return &GormExtensionRepository{db: db}
}

func (r *GormExtensionRepository) FindByID(ctx context.Context, id uuid.UUID) (*extensionDomain.Extension, error) {
	var model ExtensionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("extension", id.String())
		}
		return nil, fmt.Errorf("failed to find extension: %w", err)
	}
	return toExtensionDomain(&model), nil
}

func (r *GormExtensionRepository) HasPending(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ExtensionModel{}).
		Where("booking_id = ? AND status = ?", bookingID, string(extensionDomain.StatusPending)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check pending extensions: %w", err)
	}
	return count > 0, nil
}

func (r *GormExtensionRepository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*extensionDomain.Extension, error) {
	var models []ExtensionModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list extensions: %w", err)
	}
	exts := make([]*extensionDomain.Extension, len(models))
	for i := range models {
		exts[i] = toExtensionDomain(&models[i])
	}
	return exts, nil
}

func (r *GormExtensionRepository) Save(ctx context.Context, ext *extensionDomain.Extension) error {
	model := toExtensionModel(ext)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if cerr := constraintError(err, "booking already has a pending extension"); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to save extension: %w", err)
	}
	return nil
}

// Update persists a review. Only a pending row can be reviewed, so a
// concurrent reviewer finds nothing to update.
func (r *GormExtensionRepository) Update(ctx context.Context, ext *extensionDomain.Extension) error {
	model := toExtensionModel(ext)
	result := r.db.WithContext(ctx).
		Model(&ExtensionModel{}).
		Where("id = ? AND status = ?", model.ID, string(extensionDomain.StatusPending)).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"reviewed_by":  model.ReviewedBy,
			"review_notes": model.ReviewNotes,
			"reviewed_at":  model.ReviewedAt,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update extension: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("extension was reviewed by another transaction", ext.ID().String())
	}
	return nil
}

// --- Conversions ---

func toExtensionModel(e *extensionDomain.Extension) ExtensionModel {
	return ExtensionModel{
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

func toExtensionDomain(m *ExtensionModel) *extensionDomain.Extension {
	return extensionDomain.Reconstruct(
		m.ID, m.BookingID, m.RequesterID,
		m.AdditionalDays,
		m.PreviousReturnAt.UTC(), m.NewReturnAt.UTC(),
		m.FeeCents,
		extensionDomain.Status(m.Status),
		m.ReviewedBy,
		m.ReviewNotes,
		m.ReviewedAt,
		m.CreatedAt, m.UpdatedAt,
	)
}
