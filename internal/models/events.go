package models

import "time"

// NATS notification subjects
const (
	EventBookingExpired   = "booking.expired"
	EventBookingAbandoned = "booking.abandoned"
	EventPaymentReceipt   = "payment.receipt"
)

// BookingExpiredEvent asks the notifier to tell a user their pending booking
// was cancelled after the grace window.
type BookingExpiredEvent struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingAbandonedEvent asks the notifier to reach a user whose booking an
// admin flagged as abandoned.
type BookingAbandonedEvent struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentReceiptEvent asks the notifier to email a payment receipt.
type PaymentReceiptEvent struct {
	BookingID string    `json:"booking_id"`
	Email     string    `json:"email"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}
