package models

import "time"

// CreateLotRequest - request body for creating a parking lot
type CreateLotRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
}

// UpdateLotRequest - partial update of lot metadata
type UpdateLotRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

// AddSpaceRequest - request body for adding a space to a lot
type AddSpaceRequest struct {
	Number int `json:"number" binding:"required,min=1"`
}

// CreateBookingRequest - request body for creating a booking.
// SpaceID is optional; when omitted the coordinator picks the first free
// space of the lot inside the same transaction.
type CreateBookingRequest struct {
	LotID       string  `json:"lot_id" binding:"required"`
	SpaceID     string  `json:"space_id"`
	PlateNumber string  `json:"plate_number" binding:"required"`
	UserType    string  `json:"user_type" binding:"required"`
	UserID      *string `json:"user_id"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
}

// OccupyRequest - admin-confirmed physical arrival for a pending booking
type OccupyRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	AdminID   string `json:"admin_id" binding:"required"`
}

// AbandonRequest - admin override marking a booking abandoned
type AbandonRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	AdminID   string `json:"admin_id" binding:"required"`
}

// ExitRequest - admin-confirmed exit, triggering billing
type ExitRequest struct {
	BookingID     string `json:"booking_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	AdminID       string `json:"admin_id" binding:"required"`
}

// AttachSpaceRequest - administrative correction attaching a booking to a space
type AttachSpaceRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// ExitResponse - amount billed at exit, in currency units
type ExitResponse struct {
	AmountBilled int64 `json:"amount_billed"`
}

// BookingQuery - ledger query parameters. Statuses, user, plate and lot narrow
// the query server-side; the entry-time range is filtered in memory.
type BookingQuery struct {
	Statuses []string
	UserID   string
	Plate    string
	LotID    string
	From     *time.Time
	To       *time.Time
	Cursor   string
	PageSize int
}

// ListBookingsResponse - one page of the booking ledger, newest entry first.
// NextCursor is opaque; empty means no further pages.
type ListBookingsResponse struct {
	Items      []Booking `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
