package service

import (
	"context"
	"time"

	"parkhub/internal/models"
	"parkhub/internal/repository"
)

// Store is the persistence contract the services depend on. It is satisfied
// by *repository.Store and by the in-memory fake used in tests.
//
// WithTx runs fn atomically; every *ForUpdate read inside the closure locks
// the row until the transaction commits. Getters return (nil, nil) when the
// entity does not exist.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateLot(ctx context.Context, lot *models.ParkingLot) error
	GetLot(ctx context.Context, id string) (*models.ParkingLot, error)
	GetLotForUpdate(ctx context.Context, id string) (*models.ParkingLot, error)
	ListLots(ctx context.Context) ([]models.ParkingLot, error)
	UpdateLotInfo(ctx context.Context, lot *models.ParkingLot) error
	UpdateLotCounters(ctx context.Context, lot *models.ParkingLot) error
	DeleteLot(ctx context.Context, id string) error
	CountSpaces(ctx context.Context, lotID string) (int, error)

	InsertSpace(ctx context.Context, space *models.ParkingSpace) error
	GetSpace(ctx context.Context, id string) (*models.ParkingSpace, error)
	GetSpaceForUpdate(ctx context.Context, id string) (*models.ParkingSpace, error)
	FindFreeSpaceForUpdate(ctx context.Context, lotID string) (*models.ParkingSpace, error)
	UpdateSpace(ctx context.Context, space *models.ParkingSpace) error
	DeleteSpace(ctx context.Context, id string) error
	ListSpaces(ctx context.Context, lotID string, availableOnly bool) ([]models.ParkingSpace, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	ListBookings(ctx context.Context, f repository.BookingFilter) ([]models.Booking, error)
	HistoryByUserOrPlate(ctx context.Context, key string) ([]models.Booking, error)
	GetExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
}

// Notifier is the external collaborator informed of expiry, abandonment and
// payment receipts. Calls are fire-and-forget; implementations must never
// fail the triggering operation.
type Notifier interface {
	NotifyExpiry(ctx context.Context, userID, bookingID string)
	NotifyAbandonment(ctx context.Context, userID, bookingID, email, phone string)
	NotifyReceipt(ctx context.Context, email, bookingID string, amount int64)
}
