// Package notifier publishes user-facing notification requests over NATS.
// Delivery is fire-and-forget from the coordinator's point of view: publish
// failures are logged and never surfaced to the triggering operation.
package notifier

import (
	"context"
	"time"

	"parkhub/internal/logger"
	"parkhub/internal/messaging"
	"parkhub/internal/models"
)

type Notifier struct {
	nats *messaging.NATSClient
}

// New returns a notifier over the given NATS client. A nil client is
// accepted; notifications are then logged and dropped.
func New(nats *messaging.NATSClient) *Notifier {
	return &Notifier{nats: nats}
}

func (n *Notifier) NotifyExpiry(ctx context.Context, userID, bookingID string) {
	n.publish(ctx, models.EventBookingExpired, models.BookingExpiredEvent{
		BookingID: bookingID,
		UserID:    userID,
		Timestamp: time.Now(),
	})
}

func (n *Notifier) NotifyAbandonment(ctx context.Context, userID, bookingID, email, phone string) {
	n.publish(ctx, models.EventBookingAbandoned, models.BookingAbandonedEvent{
		BookingID: bookingID,
		UserID:    userID,
		Email:     email,
		Phone:     phone,
		Timestamp: time.Now(),
	})
}

func (n *Notifier) NotifyReceipt(ctx context.Context, email, bookingID string, amount int64) {
	n.publish(ctx, models.EventPaymentReceipt, models.PaymentReceiptEvent{
		BookingID: bookingID,
		Email:     email,
		Amount:    amount,
		Timestamp: time.Now(),
	})
}

func (n *Notifier) publish(ctx context.Context, subject string, event interface{}) {
	if n.nats == nil {
		logger.WithContext(ctx).Warn("Notifier has no messaging backend, dropping notification",
			"subject", subject)
		return
	}

	if err := n.nats.Publish(subject, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish notification",
			"error", err,
			"subject", subject)
	}
}
