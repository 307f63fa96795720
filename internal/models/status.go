package models

// Booking status values. These are part of the stored wire contract.
const (
	BookingPending   = "pending"
	BookingActive    = "active"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
	BookingAbandoned = "abandoned"
)

// Payment status values.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// User types.
const (
	UserTypeStudent = "student"
	UserTypeGuest   = "guest"
)

// Payment methods accepted at exit.
const (
	PaymentMethodMpesa = "mpesa"
	PaymentMethodCash  = "cash"
)

// validTransitions encodes the forward-only booking state machine:
// pending -> active -> completed, pending -> cancelled (auto-expiry),
// pending|active -> abandoned -> completed (admin exit).
var validTransitions = map[string][]string{
	BookingPending:   {BookingActive, BookingCancelled, BookingAbandoned},
	BookingActive:    {BookingCompleted, BookingAbandoned},
	BookingAbandoned: {BookingCompleted},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == BookingCompleted || status == BookingCancelled
}

// IsLive reports whether a booking in this status still holds its space.
func IsLive(status string) bool {
	return status == BookingPending || status == BookingActive || status == BookingAbandoned
}

// ValidUserType reports whether the given user type is accepted.
func ValidUserType(t string) bool {
	return t == UserTypeStudent || t == UserTypeGuest
}

// ValidPaymentMethod reports whether the given payment method is accepted.
func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodMpesa || m == PaymentMethodCash
}
