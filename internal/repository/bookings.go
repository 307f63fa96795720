package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"parkhub/internal/models"

	"github.com/lib/pq"
)

const bookingColumns = `id, user_id, plate_number, lot_id, space_id, user_type, status,
	entry_time, occupied_time, exit_time, amount_billed, payment_status, payment_method,
	email, phone, admin_actions, notifications_sent, created_at, updated_at`

func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) error {
	actions, err := json.Marshal(booking.AdminActions)
	if err != nil {
		return fmt.Errorf("failed to marshal admin actions: %w", err)
	}
	notifications, err := json.Marshal(booking.NotificationsSent)
	if err != nil {
		return fmt.Errorf("failed to marshal notification flags: %w", err)
	}

	query := `
		INSERT INTO bookings (id, user_id, plate_number, lot_id, space_id, user_type, status,
			entry_time, payment_status, email, phone, admin_actions, notifications_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	return s.q(ctx).QueryRowContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.PlateNumber,
		booking.LotID,
		booking.SpaceID,
		booking.UserType,
		booking.Status,
		booking.EntryTime,
		booking.PaymentStatus,
		booking.Email,
		booking.Phone,
		actions,
		notifications,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(s.q(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *Store) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	actions, err := json.Marshal(booking.AdminActions)
	if err != nil {
		return fmt.Errorf("failed to marshal admin actions: %w", err)
	}
	notifications, err := json.Marshal(booking.NotificationsSent)
	if err != nil {
		return fmt.Errorf("failed to marshal notification flags: %w", err)
	}

	query := `
		UPDATE bookings
		SET status = $1, occupied_time = $2, exit_time = $3, amount_billed = $4,
		    payment_status = $5, payment_method = $6, admin_actions = $7,
		    notifications_sent = $8, updated_at = NOW()
		WHERE id = $9`

	_, err = s.q(ctx).ExecContext(ctx, query,
		booking.Status,
		booking.OccupiedTime,
		booking.ExitTime,
		booking.AmountBilled,
		booking.PaymentStatus,
		booking.PaymentMethod,
		actions,
		notifications,
		booking.ID,
	)
	return err
}

// BookingFilter narrows the ledger query server-side. Cursor fields paginate
// by (entry_time, id) descending.
type BookingFilter struct {
	Statuses    []string
	UserID      string
	Plate       string
	LotID       string
	BeforeEntry *time.Time
	BeforeID    string
	Limit       int
}

func (s *Store) ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	var args []interface{}
	argIndex := 1

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`

	if len(f.Statuses) > 0 {
		query += fmt.Sprintf(" AND status = ANY($%d)", argIndex)
		args = append(args, pq.Array(f.Statuses))
		argIndex++
	}
	if f.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, f.UserID)
		argIndex++
	}
	if f.Plate != "" {
		query += fmt.Sprintf(" AND plate_number = $%d", argIndex)
		args = append(args, f.Plate)
		argIndex++
	}
	if f.LotID != "" {
		query += fmt.Sprintf(" AND lot_id = $%d", argIndex)
		args = append(args, f.LotID)
		argIndex++
	}
	if f.BeforeEntry != nil {
		query += fmt.Sprintf(" AND (entry_time, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, *f.BeforeEntry, f.BeforeID)
		argIndex += 2
	}

	query += " ORDER BY entry_time DESC, id DESC"

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, f.Limit)
	}

	return s.queryBookings(ctx, query, args...)
}

// HistoryByUserOrPlate returns every booking whose user id or plate number
// matches the given key, newest first.
func (s *Store) HistoryByUserOrPlate(ctx context.Context, key string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = $1 OR plate_number = $1
		ORDER BY entry_time DESC, id DESC`
	return s.queryBookings(ctx, query, key)
}

// GetExpiredPending returns pending bookings whose grace window elapsed
// before the cutoff, oldest first.
func (s *Store) GetExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = 'pending' AND entry_time < $1
		ORDER BY entry_time ASC`
	return s.queryBookings(ctx, query, cutoff)
}

func (s *Store) queryBookings(ctx context.Context, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	booking := &models.Booking{}
	var actions, notifications []byte

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.PlateNumber,
		&booking.LotID,
		&booking.SpaceID,
		&booking.UserType,
		&booking.Status,
		&booking.EntryTime,
		&booking.OccupiedTime,
		&booking.ExitTime,
		&booking.AmountBilled,
		&booking.PaymentStatus,
		&booking.PaymentMethod,
		&booking.Email,
		&booking.Phone,
		&actions,
		&notifications,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(actions, &booking.AdminActions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal admin actions: %w", err)
	}
	if err := json.Unmarshal(notifications, &booking.NotificationsSent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification flags: %w", err)
	}

	return booking, nil
}
