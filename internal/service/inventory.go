package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parkhub/internal/cache"
	"parkhub/internal/clock"
	apperrors "parkhub/internal/errors"
	"parkhub/internal/logger"
	"parkhub/internal/models"

	"github.com/google/uuid"
)

// ExpiryGrace is how long a pending booking may sit unoccupied before
// auto-expiry cancels it and returns the space to the pool.
const ExpiryGrace = 5 * time.Minute

// Space bucket names. Every space is in exactly one bucket and the lot
// counters sum to total_spaces.
const (
	bucketAvailable = "available"
	bucketBooked    = "booked"
	bucketOccupied  = "occupied"
)

// InventoryCoordinator owns every mutation that touches a space or a lot
// counter. Each operation runs inside a single transaction, locking the lot
// row before the space row so concurrent bookings serialize without deadlock.
type InventoryCoordinator struct {
	store    Store
	notifier Notifier
	cache    *cache.ValkeyClient
	clock    clock.Clock
}

func NewInventoryCoordinator(store Store, notifier Notifier, cacheClient *cache.ValkeyClient, clk clock.Clock) *InventoryCoordinator {
	return &InventoryCoordinator{store: store, notifier: notifier, cache: cacheClient, clock: clk}
}

// invalidateLots drops the cached lot list after a counter mutation.
func (ic *InventoryCoordinator) invalidateLots(ctx context.Context) {
	if ic.cache == nil {
		return
	}
	if err := ic.cache.InvalidateLots(ctx); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate lot cache", "error", err)
	}
}

// CreateBooking reserves a space and returns the pending booking. When the
// request names no space, the lowest-numbered free space of the lot is picked
// inside the same transaction that locks it.
func (ic *InventoryCoordinator) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	if strings.TrimSpace(req.PlateNumber) == "" {
		return nil, apperrors.Validationf("plate_number is required")
	}
	if !models.ValidUserType(req.UserType) {
		return nil, apperrors.Validationf("user_type must be student or guest, got %q", req.UserType)
	}

	var booking *models.Booking

	err := ic.store.WithTx(ctx, func(ctx context.Context) error {
		lot, err := ic.store.GetLotForUpdate(ctx, req.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return apperrors.ErrLotNotFound
		}

		var space *models.ParkingSpace
		if req.SpaceID != "" {
			space, err = ic.store.GetSpaceForUpdate(ctx, req.SpaceID)
			if err != nil {
				return err
			}
			if space == nil {
				return apperrors.ErrSpaceNotFound
			}
			if space.LotID != lot.ID {
				return apperrors.Validationf("space %s does not belong to lot %s", space.ID, lot.ID)
			}
			if space.CurrentBookingID != nil || space.IsOccupied {
				return apperrors.ErrSpaceUnavailable
			}
		} else {
			space, err = ic.store.FindFreeSpaceForUpdate(ctx, lot.ID)
			if err != nil {
				return err
			}
			if space == nil {
				return apperrors.ErrSpaceUnavailable
			}
		}

		now := ic.clock.Now()
		booking = &models.Booking{
			ID:            uuid.New().String(),
			UserID:        req.UserID,
			PlateNumber:   strings.ToUpper(strings.TrimSpace(req.PlateNumber)),
			LotID:         lot.ID,
			SpaceID:       space.ID,
			UserType:      req.UserType,
			Status:        models.BookingPending,
			EntryTime:     now,
			PaymentStatus: models.PaymentPending,
			Email:         req.Email,
			Phone:         req.Phone,
			AdminActions:  []models.AdminAction{},
		}

		if err := ic.store.CreateBooking(ctx, booking); err != nil {
			return err
		}

		space.CurrentBookingID = &booking.ID
		if err := ic.store.UpdateSpace(ctx, space); err != nil {
			return err
		}

		if err := moveBucket(lot, bucketAvailable, bucketBooked); err != nil {
			return err
		}
		return ic.store.UpdateLotCounters(ctx, lot)
	})
	if err != nil {
		return nil, err
	}

	ic.invalidateLots(ctx)
	return booking, nil
}

// OccupySpace confirms physical arrival: the booking goes active and its
// space moves to the occupied bucket. The source bucket is derived from the
// locked space row, not assumed, so a preceding force-release cannot skew
// the counters; a released space is re-attached on the way.
func (ic *InventoryCoordinator) OccupySpace(ctx context.Context, bookingID, adminID string) (*models.Booking, error) {
	var booking *models.Booking

	err := ic.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		booking, err = ic.store.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperrors.ErrBookingNotFound
		}
		if booking.Status != models.BookingPending {
			return fmt.Errorf("%w: cannot occupy a %s booking", apperrors.ErrInvalidTransition, booking.Status)
		}

		lot, space, err := ic.lockLotAndSpace(ctx, booking)
		if err != nil {
			return err
		}
		if space.CurrentBookingID != nil && *space.CurrentBookingID != booking.ID {
			return apperrors.ErrSpaceUnavailable
		}
		from := spaceBucket(space)

		now := ic.clock.Now()
		booking.Status = models.BookingActive
		booking.OccupiedTime = &now
		booking.AdminActions = append(booking.AdminActions, models.AdminAction{
			Action:    "entry",
			AdminID:   adminID,
			Timestamp: now,
		})
		if err := ic.store.UpdateBooking(ctx, booking); err != nil {
			return err
		}

		space.CurrentBookingID = &booking.ID
		space.IsOccupied = true
		if err := ic.store.UpdateSpace(ctx, space); err != nil {
			return err
		}

		if err := moveBucket(lot, from, bucketOccupied); err != nil {
			return err
		}
		return ic.store.UpdateLotCounters(ctx, lot)
	})
	if err != nil {
		return nil, err
	}

	ic.invalidateLots(ctx)
	return booking, nil
}

// AutoExpireIfNotOccupied cancels a pending booking whose grace window has
// elapsed and frees its space. The window is re-checked inside the
// transaction, so a concurrent occupy wins cleanly; the call is idempotent
// and reports whether this invocation performed the expiry.
func (ic *InventoryCoordinator) AutoExpireIfNotOccupied(ctx context.Context, bookingID string) (bool, error) {
	var (
		expired bool
		userID  string
	)

	err := ic.store.WithTx(ctx, func(ctx context.Context) error {
		expired = false

		booking, err := ic.store.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperrors.ErrBookingNotFound
		}
		if booking.Status != models.BookingPending {
			return nil
		}

		now := ic.clock.Now()
		if now.Before(booking.EntryTime.Add(ExpiryGrace)) {
			return nil
		}

		lot, space, err := ic.lockLotAndSpace(ctx, booking)
		if err != nil {
			return err
		}

		booking.Status = models.BookingCancelled
		booking.ExitTime = &now
		booking.NotificationsSent.BookingExpiry = true
		if err := ic.store.UpdateBooking(ctx, booking); err != nil {
			return err
		}

		// A force-release may have freed the space, or even handed it to
		// another booking, since this one reserved it. Only a space still
		// held by this booking is released and recounted.
		if space.CurrentBookingID != nil && *space.CurrentBookingID == booking.ID {
			from := spaceBucket(space)
			space.CurrentBookingID = nil
			space.IsOccupied = false
			if err := ic.store.UpdateSpace(ctx, space); err != nil {
				return err
			}

			if err := moveBucket(lot, from, bucketAvailable); err != nil {
				return err
			}
			if err := ic.store.UpdateLotCounters(ctx, lot); err != nil {
				return err
			}
		}

		expired = true
		if booking.UserID != nil {
			userID = *booking.UserID
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if expired {
		ic.invalidateLots(ctx)
		ic.notifier.NotifyExpiry(ctx, userID, bookingID)
	}

	return expired, nil
}

// MarkAbandoned flags a booking the staff believe the driver walked away
// from. The space stays held (the vehicle may still be in it) and billing
// keeps accruing until an admin confirms the exit.
func (ic *InventoryCoordinator) MarkAbandoned(ctx context.Context, bookingID, adminID string) (*models.Booking, error) {
	var booking *models.Booking

	err := ic.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		booking, err = ic.store.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperrors.ErrBookingNotFound
		}
		if !models.CanTransition(booking.Status, models.BookingAbandoned) {
			return fmt.Errorf("%w: cannot abandon a %s booking", apperrors.ErrInvalidTransition, booking.Status)
		}

		booking.Status = models.BookingAbandoned
		booking.NotificationsSent.Abandonment = true
		booking.AdminActions = append(booking.AdminActions, models.AdminAction{
			Action:    "abandon",
			AdminID:   adminID,
			Timestamp: ic.clock.Now(),
		})
		return ic.store.UpdateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	var userID, email, phone string
	if booking.UserID != nil {
		userID = *booking.UserID
	}
	if booking.Email != nil {
		email = *booking.Email
	}
	if booking.Phone != nil {
		phone = *booking.Phone
	}
	ic.notifier.NotifyAbandonment(ctx, userID, bookingID, email, phone)

	return booking, nil
}

// EndBookingAndBill closes out an active or abandoned booking: the bill is
// computed, the space is freed and the payment recorded, all in one
// transaction. Returns the amount billed.
func (ic *InventoryCoordinator) EndBookingAndBill(ctx context.Context, bookingID, paymentMethod, adminID string) (int64, error) {
	if !models.ValidPaymentMethod(paymentMethod) {
		return 0, apperrors.Validationf("payment_method must be mpesa or cash, got %q", paymentMethod)
	}

	var (
		amount int64
		email  string
	)

	err := ic.store.WithTx(ctx, func(ctx context.Context) error {
		booking, err := ic.store.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperrors.ErrBookingNotFound
		}
		if !models.CanTransition(booking.Status, models.BookingCompleted) {
			return fmt.Errorf("%w: cannot exit a %s booking", apperrors.ErrInvalidTransition, booking.Status)
		}

		lot, space, err := ic.lockLotAndSpace(ctx, booking)
		if err != nil {
			return err
		}

		now := ic.clock.Now()

		// A booking abandoned before arrival has no occupied time; bill
		// from entry so the held space is still paid for.
		billedFrom := booking.EntryTime
		if booking.OccupiedTime != nil {
			billedFrom = *booking.OccupiedTime
		}
		amount = CalculateBill(booking.UserType, billedFrom, now)

		booking.Status = models.BookingCompleted
		booking.ExitTime = &now
		booking.AmountBilled = &amount
		booking.PaymentStatus = models.PaymentPaid
		booking.PaymentMethod = &paymentMethod
		booking.AdminActions = append(booking.AdminActions, models.AdminAction{
			Action:    "exit",
			AdminID:   adminID,
			Timestamp: now,
		})
		if err := ic.store.UpdateBooking(ctx, booking); err != nil {
			return err
		}

		from := spaceBucket(space)
		space.CurrentBookingID = nil
		space.IsOccupied = false
		if err := ic.store.UpdateSpace(ctx, space); err != nil {
			return err
		}

		if err := moveBucket(lot, from, bucketAvailable); err != nil {
			return err
		}
		if err := ic.store.UpdateLotCounters(ctx, lot); err != nil {
			return err
		}

		if booking.Email != nil {
			email = *booking.Email
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	ic.invalidateLots(ctx)
	if email != "" {
		ic.notifier.NotifyReceipt(ctx, email, bookingID, amount)
	}

	return amount, nil
}

// ReleaseSpace force-frees a space no matter what points at it. This is an
// administrative correction for orphaned references; any booking row naming
// the space is left untouched.
func (ic *InventoryCoordinator) ReleaseSpace(ctx context.Context, spaceID string) error {
	err := ic.store.WithTx(ctx, func(ctx context.Context) error {
		peek, err := ic.store.GetSpace(ctx, spaceID)
		if err != nil {
			return err
		}
		if peek == nil {
			return apperrors.ErrSpaceNotFound
		}

		lot, err := ic.store.GetLotForUpdate(ctx, peek.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return apperrors.ErrLotNotFound
		}
		space, err := ic.store.GetSpaceForUpdate(ctx, spaceID)
		if err != nil {
			return err
		}
		if space == nil {
			return apperrors.ErrSpaceNotFound
		}

		from := spaceBucket(space)
		if from == bucketAvailable {
			return nil
		}

		space.CurrentBookingID = nil
		space.IsOccupied = false
		if err := ic.store.UpdateSpace(ctx, space); err != nil {
			return err
		}

		if err := moveBucket(lot, from, bucketAvailable); err != nil {
			return err
		}
		return ic.store.UpdateLotCounters(ctx, lot)
	})
	if err != nil {
		return err
	}

	ic.invalidateLots(ctx)
	return nil
}

// BookSpace force-attaches a live booking to a free space of its lot, the
// counterpart correction to ReleaseSpace for records that lost their space.
func (ic *InventoryCoordinator) BookSpace(ctx context.Context, spaceID, bookingID string) error {
	err := ic.store.WithTx(ctx, func(ctx context.Context) error {
		booking, err := ic.store.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperrors.ErrBookingNotFound
		}
		if models.IsTerminal(booking.Status) {
			return fmt.Errorf("%w: cannot attach a %s booking to a space", apperrors.ErrInvalidTransition, booking.Status)
		}

		lot, err := ic.store.GetLotForUpdate(ctx, booking.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return apperrors.ErrLotNotFound
		}
		space, err := ic.store.GetSpaceForUpdate(ctx, spaceID)
		if err != nil {
			return err
		}
		if space == nil {
			return apperrors.ErrSpaceNotFound
		}
		if space.LotID != booking.LotID {
			return apperrors.Validationf("space %s does not belong to lot %s", space.ID, booking.LotID)
		}
		if space.CurrentBookingID != nil || space.IsOccupied {
			return apperrors.ErrSpaceUnavailable
		}

		space.CurrentBookingID = &booking.ID
		space.IsOccupied = booking.OccupiedTime != nil
		if err := ic.store.UpdateSpace(ctx, space); err != nil {
			return err
		}

		booking.SpaceID = space.ID
		if err := ic.store.UpdateBooking(ctx, booking); err != nil {
			return err
		}

		to := bucketBooked
		if space.IsOccupied {
			to = bucketOccupied
		}
		if err := moveBucket(lot, bucketAvailable, to); err != nil {
			return err
		}
		return ic.store.UpdateLotCounters(ctx, lot)
	})
	if err != nil {
		return err
	}

	ic.invalidateLots(ctx)
	return nil
}

// ExpireOverdueBookings sweeps all pending bookings past the grace window.
// Failures on individual bookings are logged and skipped so one bad row
// cannot stall the sweep.
func (ic *InventoryCoordinator) ExpireOverdueBookings(ctx context.Context) (int, error) {
	cutoff := ic.clock.Now().Add(-ExpiryGrace)
	overdue, err := ic.store.GetExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	log := logger.Get()
	expired := 0
	for _, booking := range overdue {
		ok, err := ic.AutoExpireIfNotOccupied(ctx, booking.ID)
		if err != nil {
			log.Error("Failed to expire booking", "booking_id", booking.ID, "error", err)
			continue
		}
		if ok {
			expired++
		}
	}

	return expired, nil
}

// lockLotAndSpace acquires the booking's lot and space rows in the canonical
// lot-then-space order.
func (ic *InventoryCoordinator) lockLotAndSpace(ctx context.Context, booking *models.Booking) (*models.ParkingLot, *models.ParkingSpace, error) {
	lot, err := ic.store.GetLotForUpdate(ctx, booking.LotID)
	if err != nil {
		return nil, nil, err
	}
	if lot == nil {
		return nil, nil, apperrors.ErrLotNotFound
	}

	space, err := ic.store.GetSpaceForUpdate(ctx, booking.SpaceID)
	if err != nil {
		return nil, nil, err
	}
	if space == nil {
		return nil, nil, apperrors.ErrSpaceNotFound
	}

	return lot, space, nil
}

// spaceBucket derives which counter bucket a space currently occupies.
func spaceBucket(space *models.ParkingSpace) string {
	if space.IsOccupied {
		return bucketOccupied
	}
	if space.CurrentBookingID != nil {
		return bucketBooked
	}
	return bucketAvailable
}

// moveBucket shifts one space between counter buckets, refusing to drive any
// counter negative.
func moveBucket(lot *models.ParkingLot, from, to string) error {
	if from == to {
		return nil
	}

	counters := map[string]*int{
		bucketAvailable: &lot.AvailableSpaces,
		bucketBooked:    &lot.BookedSpaces,
		bucketOccupied:  &lot.OccupiedSpaces,
	}

	src, ok := counters[from]
	if !ok {
		return fmt.Errorf("unknown counter bucket %q", from)
	}
	dst, ok := counters[to]
	if !ok {
		return fmt.Errorf("unknown counter bucket %q", to)
	}
	if *src <= 0 {
		return fmt.Errorf("counter underflow moving space from %s to %s in lot %s", from, to, lot.ID)
	}

	*src--
	*dst++
	return nil
}
