package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{BookingPending, BookingActive},
		{BookingPending, BookingCancelled},
		{BookingPending, BookingAbandoned},
		{BookingActive, BookingCompleted},
		{BookingActive, BookingAbandoned},
		{BookingAbandoned, BookingCompleted},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s should be allowed", tr[0], tr[1])
	}

	denied := [][2]string{
		{BookingPending, BookingCompleted},
		{BookingActive, BookingCancelled},
		{BookingActive, BookingPending},
		{BookingCompleted, BookingActive},
		{BookingCancelled, BookingActive},
		{BookingAbandoned, BookingCancelled},
		{BookingCompleted, BookingCompleted},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s should be denied", tr[0], tr[1])
	}
}

func TestTerminalAndLiveArePartitioned(t *testing.T) {
	statuses := []string{BookingPending, BookingActive, BookingCompleted, BookingCancelled, BookingAbandoned}

	for _, s := range statuses {
		assert.NotEqual(t, IsTerminal(s), IsLive(s), "status %s must be exactly one of terminal or live", s)
	}

	assert.True(t, IsLive(BookingAbandoned), "abandoned bookings still hold their space")
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidUserType(UserTypeStudent))
	assert.True(t, ValidUserType(UserTypeGuest))
	assert.False(t, ValidUserType("staff"))
	assert.False(t, ValidUserType(""))

	assert.True(t, ValidPaymentMethod(PaymentMethodMpesa))
	assert.True(t, ValidPaymentMethod(PaymentMethodCash))
	assert.False(t, ValidPaymentMethod("cheque"))
}
