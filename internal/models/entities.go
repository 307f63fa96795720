package models

import (
	"time"
)

// ParkingLot represents a named physical area containing parking spaces.
// The counter invariant holds at all times:
// AvailableSpaces + OccupiedSpaces + BookedSpaces == TotalSpaces.
type ParkingLot struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Location        string    `json:"location" db:"location"`
	TotalSpaces     int       `json:"total_spaces" db:"total_spaces"`
	AvailableSpaces int       `json:"available_spaces" db:"available_spaces"`
	OccupiedSpaces  int       `json:"occupied_spaces" db:"occupied_spaces"`
	BookedSpaces    int       `json:"booked_spaces" db:"booked_spaces"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ParkingSpace represents one physical slot, uniquely numbered within its lot.
// CurrentBookingID is a non-owning back-reference to the live booking holding
// the space; it is set iff a non-terminal booking references the space.
type ParkingSpace struct {
	ID               string    `json:"id" db:"id"`
	LotID            string    `json:"lot_id" db:"lot_id"`
	Number           int       `json:"number" db:"space_number"`
	IsOccupied       bool      `json:"is_occupied" db:"is_occupied"`
	CurrentBookingID *string   `json:"current_booking_id" db:"current_booking_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// AdminAction is one entry of a booking's append-only admin audit trail.
type AdminAction struct {
	Action    string    `json:"action"`
	AdminID   string    `json:"adminId"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationsSent tracks which user-facing notifications were fired for a
// booking. Field names match the stored document format.
type NotificationsSent struct {
	BookingExpiry bool `json:"bookingExpiry"`
	Abandonment   bool `json:"abandonment"`
}

// Booking ties a user/plate to a specific space for a bounded session.
type Booking struct {
	ID                string            `json:"id" db:"id"`
	UserID            *string           `json:"user_id" db:"user_id"`
	PlateNumber       string            `json:"plate_number" db:"plate_number"`
	LotID             string            `json:"lot_id" db:"lot_id"`
	SpaceID           string            `json:"space_id" db:"space_id"`
	UserType          string            `json:"user_type" db:"user_type"`
	Status            string            `json:"status" db:"status"`
	EntryTime         time.Time         `json:"entry_time" db:"entry_time"`
	OccupiedTime      *time.Time        `json:"occupied_time" db:"occupied_time"`
	ExitTime          *time.Time        `json:"exit_time" db:"exit_time"`
	AmountBilled      *int64            `json:"amount_billed" db:"amount_billed"`
	PaymentStatus     string            `json:"payment_status" db:"payment_status"`
	PaymentMethod     *string           `json:"payment_method" db:"payment_method"`
	Email             *string           `json:"email" db:"email"`
	Phone             *string           `json:"phone" db:"phone"`
	AdminActions      []AdminAction     `json:"admin_actions" db:"admin_actions"`
	NotificationsSent NotificationsSent `json:"notifications_sent" db:"notifications_sent"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}
