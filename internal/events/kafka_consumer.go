package events

import (
	"context"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/fleetline/service-reservation/pkg/events"
	"github.com/fleetline/service-reservation/pkg/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentLedger is the part of the payment service driven by payment events.
type PaymentLedger interface {
	SettlePayment(ctx context.Context, paymentID uuid.UUID, req application.SettlePaymentRequest) (*application.PaymentDTO, error)
	RefundDeposit(ctx context.Context, paymentID uuid.UUID, req application.RefundDepositRequest) (*application.PaymentDTO, error)
}

// PaymentEventConsumer listens to payment events and records their outcome
// in the booking payment ledger.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	ledger   PaymentLedger
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	ledger PaymentLedger,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		ledger:   ledger,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentSettled:
		return c.handleSettlement(ctx, cloudEvent, "paid")
	case events.PaymentFailed:
		return c.handleSettlement(ctx, cloudEvent, "failed")
	case events.PaymentDepositRefunded:
		return c.handleDepositRefunded(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handleSettlement(ctx context.Context, cloudEvent kafka.CloudEvent, status string) error {
	var evt events.PaymentSettledEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentSettledEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment settlement",
		zap.String("payment_id", evt.PaymentID.String()),
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("status", status),
	)

	_, err := c.ledger.SettlePayment(ctx, evt.PaymentID, application.SettlePaymentRequest{
		Status:    status,
		Reference: evt.Reference,
	})
	return c.outcome(err, "failed to settle payment", evt.PaymentID)
}

func (c *PaymentEventConsumer) handleDepositRefunded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.DepositRefundedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse DepositRefundedEvent data", zap.Error(err))
		return nil
	}

	_, err := c.ledger.RefundDeposit(ctx, evt.PaymentID, application.RefundDepositRequest{AmountCents: evt.AmountCents})
	return c.outcome(err, "failed to refund deposit", evt.PaymentID)
}

// outcome drops events the ledger rejects on domain grounds, such as a
// redelivered settlement, and hands infrastructure errors back for retry.
func (c *PaymentEventConsumer) outcome(err error, msg string, paymentID uuid.UUID) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.KindOf(err); ok {
		c.logger.Warn(msg,
			zap.String("payment_id", paymentID.String()),
			zap.Error(err),
		)
		return nil
	}
	c.logger.Error(msg,
		zap.String("payment_id", paymentID.String()),
		zap.Error(err),
	)
	return err
}
