package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentDomain "github.com/fleetline/service-reservation/internal/domain/payment"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentModel is the GORM model for the booking_payments table.
type PaymentModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	AmountCents       int64      `gorm:"not null"`
	PaymentType       string     `gorm:"type:varchar(20);not null"`
	IsDeposit         bool       `gorm:"not null;default:false"`
	DepositRefunded   bool       `gorm:"not null;default:false"`
	RefundAmountCents int64      `gorm:"not null;default:0"`
	RefundedAt        *time.Time `gorm:""`
	Status            string     `gorm:"type:varchar(20);not null"`
	Reference         string     `gorm:"type:varchar(200)"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (PaymentModel) TableName() string { return "booking_payments" }

// GormPaymentRepository implements PaymentRepository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save persists a new ledger entry.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// ListByBookingID returns all entries for a booking, oldest first.
func (r *GormPaymentRepository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	var models []PaymentModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]*paymentDomain.Payment, len(models))
	for i := range models {
		payments[i] = toPaymentDomain(&models[i])
	}
	return payments, nil
}

// FindByID returns a single entry by ID.
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("payment", id.String())
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return toPaymentDomain(&model), nil
}

// Update persists a settlement or refund.
func (r *GormPaymentRepository) Update(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"deposit_refunded":    model.DepositRefunded,
			"refund_amount_cents": model.RefundAmountCents,
			"refunded_at":         model.RefundedAt,
			"status":              model.Status,
			"reference":           model.Reference,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("payment", model.ID.String())
	}
	return nil
}

func toPaymentModel(p *paymentDomain.Payment) PaymentModel {
	return PaymentModel{
		ID:                p.ID(),
		BookingID:         p.BookingID(),
		AmountCents:       p.AmountCents(),
		PaymentType:       string(p.Type()),
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

func toPaymentDomain(m *PaymentModel) *paymentDomain.Payment {
	return paymentDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.AmountCents,
		paymentDomain.PaymentType(m.PaymentType),
		m.IsDeposit,
		m.DepositRefunded,
		m.RefundAmountCents,
		m.RefundedAt,
		paymentDomain.Status(m.Status),
		m.Reference,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
