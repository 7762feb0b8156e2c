package application

import (
	"context"
	"fmt"

	"github.com/fleetline/service-reservation/internal/domain/payment"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordPaymentRequest holds the data to record a ledger entry.
type RecordPaymentRequest struct {
	Type        string `json:"type" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	IsDeposit   bool   `json:"is_deposit"`
	Reference   string `json:"reference"`
}

// SettlePaymentRequest holds the outcome reported by the payment collaborator.
type SettlePaymentRequest struct {
	Status    string `json:"status" binding:"required"`
	Reference string `json:"reference"`
}

// RefundDepositRequest holds the amount of a deposit to return.
type RefundDepositRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

// PaymentService records payments asserted by the payment collaborator.
type PaymentService struct {
	store  Store
	authz  Authorizer
	clock  Clock
	logger *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store Store, authz Authorizer, clock Clock, logger *zap.Logger) *PaymentService {
	return &PaymentService{store: store, authz: authz, clock: clock, logger: logger}
}

// RecordPayment creates a pending payment against a booking.
func (s *PaymentService) RecordPayment(ctx context.Context, bookingID uuid.UUID, req RecordPaymentRequest) (*PaymentDTO, error) {
	var p *payment.Payment
	err := s.store.Transaction(ctx, func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Bookings.FindByID(ctx, bookingID); err != nil {
			return err
		}
		var err error
		p, err = payment.NewPayment(bookingID, payment.PaymentType(req.Type), req.AmountCents, req.IsDeposit, req.Reference, s.clock.Now())
		if err != nil {
			return err
		}
		return repos.Payments.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", p.ID().String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("type", string(p.Type())),
		zap.Int64("amount_cents", p.AmountCents()),
	)

	result := toPaymentDTO(p)
	return &result, nil
}

// SettlePayment marks a pending payment paid or failed. A paid rental marks
// the booking paid in the same transaction. A paid late-fee payment settles
// the booking's late fee when one exists and the amount covers it; otherwise
// the payment is still recorded and the fee stays outstanding.
func (s *PaymentService) SettlePayment(ctx context.Context, paymentID uuid.UUID, req SettlePaymentRequest) (*PaymentDTO, error) {
	var (
		p            *payment.Payment
		feeUnsettled error
	)
	err := s.store.Transaction(ctx, func(ctx context.Context, repos Repositories) error {
		feeUnsettled = nil
		var err error
		p, err = repos.Payments.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := p.Settle(payment.Status(req.Status), req.Reference, now); err != nil {
			return err
		}
		if err := repos.Payments.Update(ctx, p); err != nil {
			return err
		}
		if p.Status() != payment.StatusPaid {
			return nil
		}

		switch p.Type() {
		case payment.TypeRental:
			bk, err := repos.Bookings.FindByID(ctx, p.BookingID())
			if err != nil {
				return err
			}
			bk.MarkPaid(now)
			bk.IncrementVersion()
			return repos.Bookings.Update(ctx, bk)

		case payment.TypeLateFee:
			fee, err := repos.LateFees.FindByBookingID(ctx, p.BookingID())
			if domain.IsNotFound(err) {
				feeUnsettled = err
				return nil
			}
			if err != nil {
				return err
			}
			if err := fee.MarkPaid(p.AmountCents(), now); err != nil {
				if _, ok := domain.KindOf(err); ok {
					feeUnsettled = err
					return nil
				}
				return err
			}
			return repos.LateFees.Update(ctx, fee)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if feeUnsettled != nil {
		s.logger.Warn("late fee payment recorded without settling the fee",
			zap.String("payment_id", p.ID().String()),
			zap.String("booking_id", p.BookingID().String()),
			zap.Error(feeUnsettled),
		)
	}
	s.logger.Info("payment settled",
		zap.String("payment_id", p.ID().String()),
		zap.String("status", string(p.Status())),
	)

	result := toPaymentDTO(p)
	return &result, nil
}

// RefundDeposit returns part or all of a paid deposit.
func (s *PaymentService) RefundDeposit(ctx context.Context, paymentID uuid.UUID, req RefundDepositRequest) (*PaymentDTO, error) {
	var p *payment.Payment
	err := s.store.Transaction(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		p, err = repos.Payments.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := p.RefundDeposit(req.AmountCents, s.clock.Now()); err != nil {
			return err
		}
		return repos.Payments.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deposit refunded",
		zap.String("payment_id", p.ID().String()),
		zap.Int64("refund_cents", p.RefundAmountCents()),
	)

	result := toPaymentDTO(p)
	return &result, nil
}

// GetPayment retrieves a single ledger entry.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.store.Repos().Payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	result := toPaymentDTO(p)
	return &result, nil
}

// ListForBooking returns a booking's ledger entries, oldest first, to its
// requester or staff.
func (s *PaymentService) ListForBooking(ctx context.Context, bookingID, actorID uuid.UUID) ([]PaymentDTO, error) {
	repos := s.store.Repos()
	if err := ensureVisible(ctx, repos, s.authz, bookingID, actorID); err != nil {
		return nil, err
	}

	payments, err := repos.Payments.ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos, nil
}
