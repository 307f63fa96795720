package service

import (
	"time"

	"parkhub/internal/models"
)

// Tariff constants, in currency units.
const (
	studentDailyRate    = 200
	guestHourlyRate     = 100
	guestDailySurcharge = 100
)

// CalculateBill computes the amount owed for a parked session. Durations
// round up: a 61-minute stay bills as 2 hours, a 25-hour stay as 2 days.
//
// Guests pay per started hour; stays spanning more than one day add a
// per-extra-day surcharge ON TOP of the full hourly total. That reads like a
// double charge but it is the published tariff, so it stays.
func CalculateBill(userType string, occupiedTime, exitTime time.Time) int64 {
	ms := exitTime.Sub(occupiedTime).Milliseconds()
	if ms < 0 {
		ms = 0
	}

	hours := ceilDiv(ms, time.Hour.Milliseconds())
	days := ceilDiv(ms, (24 * time.Hour).Milliseconds())

	if userType == models.UserTypeStudent {
		return studentDailyRate * days
	}

	if days > 1 {
		return guestHourlyRate*hours + guestDailySurcharge*(days-1)
	}
	return guestHourlyRate * hours
}

func ceilDiv(n, unit int64) int64 {
	if n <= 0 {
		return 0
	}
	return (n + unit - 1) / unit
}
