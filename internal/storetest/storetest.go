// Package storetest provides an in-memory store and notifier for service and
// handler tests. Reads hand out copies so callers mutate nothing until they
// write back, mirroring how database rows behave.
package storetest

import (
	"context"
	"sort"
	"time"

	apperrors "parkhub/internal/errors"
	"parkhub/internal/models"
	"parkhub/internal/repository"
)

type MemStore struct {
	Lots     map[string]*models.ParkingLot
	Spaces   map[string]*models.ParkingSpace
	Bookings map[string]*models.Booking
}

func NewMemStore() *MemStore {
	return &MemStore{
		Lots:     make(map[string]*models.ParkingLot),
		Spaces:   make(map[string]*models.ParkingSpace),
		Bookings: make(map[string]*models.Booking),
	}
}

func (f *MemStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func copyLot(l *models.ParkingLot) *models.ParkingLot {
	c := *l
	return &c
}

func copySpace(s *models.ParkingSpace) *models.ParkingSpace {
	c := *s
	if s.CurrentBookingID != nil {
		id := *s.CurrentBookingID
		c.CurrentBookingID = &id
	}
	return &c
}

func copyBooking(b *models.Booking) *models.Booking {
	c := *b
	c.AdminActions = append([]models.AdminAction(nil), b.AdminActions...)
	return &c
}

func (f *MemStore) CreateLot(ctx context.Context, lot *models.ParkingLot) error {
	f.Lots[lot.ID] = copyLot(lot)
	return nil
}

func (f *MemStore) GetLot(ctx context.Context, id string) (*models.ParkingLot, error) {
	lot, ok := f.Lots[id]
	if !ok {
		return nil, nil
	}
	return copyLot(lot), nil
}

func (f *MemStore) GetLotForUpdate(ctx context.Context, id string) (*models.ParkingLot, error) {
	return f.GetLot(ctx, id)
}

func (f *MemStore) ListLots(ctx context.Context) ([]models.ParkingLot, error) {
	lots := make([]models.ParkingLot, 0, len(f.Lots))
	for _, lot := range f.Lots {
		lots = append(lots, *copyLot(lot))
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].Name < lots[j].Name })
	return lots, nil
}

func (f *MemStore) UpdateLotInfo(ctx context.Context, lot *models.ParkingLot) error {
	stored := f.Lots[lot.ID]
	stored.Name = lot.Name
	stored.Location = lot.Location
	return nil
}

func (f *MemStore) UpdateLotCounters(ctx context.Context, lot *models.ParkingLot) error {
	stored := f.Lots[lot.ID]
	stored.TotalSpaces = lot.TotalSpaces
	stored.AvailableSpaces = lot.AvailableSpaces
	stored.OccupiedSpaces = lot.OccupiedSpaces
	stored.BookedSpaces = lot.BookedSpaces
	return nil
}

func (f *MemStore) DeleteLot(ctx context.Context, id string) error {
	delete(f.Lots, id)
	return nil
}

func (f *MemStore) CountSpaces(ctx context.Context, lotID string) (int, error) {
	count := 0
	for _, s := range f.Spaces {
		if s.LotID == lotID {
			count++
		}
	}
	return count, nil
}

func (f *MemStore) InsertSpace(ctx context.Context, space *models.ParkingSpace) error {
	for _, s := range f.Spaces {
		if s.LotID == space.LotID && s.Number == space.Number {
			return apperrors.Validationf("space number %d already exists in lot %s", space.Number, space.LotID)
		}
	}
	f.Spaces[space.ID] = copySpace(space)
	return nil
}

func (f *MemStore) GetSpace(ctx context.Context, id string) (*models.ParkingSpace, error) {
	space, ok := f.Spaces[id]
	if !ok {
		return nil, nil
	}
	return copySpace(space), nil
}

func (f *MemStore) GetSpaceForUpdate(ctx context.Context, id string) (*models.ParkingSpace, error) {
	return f.GetSpace(ctx, id)
}

func (f *MemStore) FindFreeSpaceForUpdate(ctx context.Context, lotID string) (*models.ParkingSpace, error) {
	var best *models.ParkingSpace
	for _, s := range f.Spaces {
		if s.LotID != lotID || s.CurrentBookingID != nil || s.IsOccupied {
			continue
		}
		if best == nil || s.Number < best.Number {
			best = s
		}
	}
	if best == nil {
		return nil, nil
	}
	return copySpace(best), nil
}

func (f *MemStore) UpdateSpace(ctx context.Context, space *models.ParkingSpace) error {
	f.Spaces[space.ID] = copySpace(space)
	return nil
}

func (f *MemStore) DeleteSpace(ctx context.Context, id string) error {
	delete(f.Spaces, id)
	return nil
}

func (f *MemStore) ListSpaces(ctx context.Context, lotID string, availableOnly bool) ([]models.ParkingSpace, error) {
	var spaces []models.ParkingSpace
	for _, s := range f.Spaces {
		if s.LotID != lotID {
			continue
		}
		if availableOnly && (s.CurrentBookingID != nil || s.IsOccupied) {
			continue
		}
		spaces = append(spaces, *copySpace(s))
	}
	sort.Slice(spaces, func(i, j int) bool { return spaces[i].Number < spaces[j].Number })
	return spaces, nil
}

func (f *MemStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	f.Bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (f *MemStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, ok := f.Bookings[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(booking), nil
}

func (f *MemStore) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	f.Bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (f *MemStore) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, error) {
	var result []models.Booking
	for _, b := range f.Bookings {
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, b.Status) {
			continue
		}
		if filter.UserID != "" && (b.UserID == nil || *b.UserID != filter.UserID) {
			continue
		}
		if filter.Plate != "" && b.PlateNumber != filter.Plate {
			continue
		}
		if filter.LotID != "" && b.LotID != filter.LotID {
			continue
		}
		if filter.BeforeEntry != nil {
			if b.EntryTime.After(*filter.BeforeEntry) {
				continue
			}
			if b.EntryTime.Equal(*filter.BeforeEntry) && b.ID >= filter.BeforeID {
				continue
			}
		}
		result = append(result, *copyBooking(b))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].EntryTime.Equal(result[j].EntryTime) {
			return result[i].EntryTime.After(result[j].EntryTime)
		}
		return result[i].ID > result[j].ID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (f *MemStore) HistoryByUserOrPlate(ctx context.Context, key string) ([]models.Booking, error) {
	var result []models.Booking
	for _, b := range f.Bookings {
		if (b.UserID != nil && *b.UserID == key) || b.PlateNumber == key {
			result = append(result, *copyBooking(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryTime.After(result[j].EntryTime) })
	return result, nil
}

func (f *MemStore) GetExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	var result []models.Booking
	for _, b := range f.Bookings {
		if b.Status == models.BookingPending && b.EntryTime.Before(cutoff) {
			result = append(result, *copyBooking(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryTime.Before(result[j].EntryTime) })
	return result, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// MemNotifier records every notification request.
type MemNotifier struct {
	Expiries     []string
	Abandonments []string
	Receipts     map[string]int64
}

func NewMemNotifier() *MemNotifier {
	return &MemNotifier{Receipts: make(map[string]int64)}
}

func (n *MemNotifier) NotifyExpiry(ctx context.Context, userID, bookingID string) {
	n.Expiries = append(n.Expiries, bookingID)
}

func (n *MemNotifier) NotifyAbandonment(ctx context.Context, userID, bookingID, email, phone string) {
	n.Abandonments = append(n.Abandonments, bookingID)
}

func (n *MemNotifier) NotifyReceipt(ctx context.Context, email, bookingID string, amount int64) {
	n.Receipts[bookingID] = amount
}
