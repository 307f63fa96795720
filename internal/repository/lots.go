package repository

import (
	"context"
	"database/sql"

	"parkhub/internal/models"
)

func (s *Store) CreateLot(ctx context.Context, lot *models.ParkingLot) error {
	query := `
		INSERT INTO parking_lots (id, name, location, total_spaces, available_spaces, occupied_spaces, booked_spaces)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return s.q(ctx).QueryRowContext(ctx, query,
		lot.ID,
		lot.Name,
		lot.Location,
		lot.TotalSpaces,
		lot.AvailableSpaces,
		lot.OccupiedSpaces,
		lot.BookedSpaces,
	).Scan(&lot.CreatedAt, &lot.UpdatedAt)
}

func (s *Store) GetLot(ctx context.Context, id string) (*models.ParkingLot, error) {
	return s.getLot(ctx, id, false)
}

// GetLotForUpdate locks the lot row for the duration of the surrounding
// transaction. Callers lock the lot before its spaces to keep lock order
// stable across concurrent operations.
func (s *Store) GetLotForUpdate(ctx context.Context, id string) (*models.ParkingLot, error) {
	return s.getLot(ctx, id, true)
}

func (s *Store) getLot(ctx context.Context, id string, forUpdate bool) (*models.ParkingLot, error) {
	lot := &models.ParkingLot{}
	query := `
		SELECT id, name, location, total_spaces, available_spaces, occupied_spaces, booked_spaces, created_at, updated_at
		FROM parking_lots
		WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	err := s.q(ctx).QueryRowContext(ctx, query, id).Scan(
		&lot.ID,
		&lot.Name,
		&lot.Location,
		&lot.TotalSpaces,
		&lot.AvailableSpaces,
		&lot.OccupiedSpaces,
		&lot.BookedSpaces,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return lot, err
}

func (s *Store) ListLots(ctx context.Context) ([]models.ParkingLot, error) {
	var lots []models.ParkingLot
	query := `
		SELECT id, name, location, total_spaces, available_spaces, occupied_spaces, booked_spaces, created_at, updated_at
		FROM parking_lots
		ORDER BY name`

	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var lot models.ParkingLot
		err := rows.Scan(
			&lot.ID,
			&lot.Name,
			&lot.Location,
			&lot.TotalSpaces,
			&lot.AvailableSpaces,
			&lot.OccupiedSpaces,
			&lot.BookedSpaces,
			&lot.CreatedAt,
			&lot.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}

	return lots, rows.Err()
}

func (s *Store) UpdateLotInfo(ctx context.Context, lot *models.ParkingLot) error {
	query := `
		UPDATE parking_lots
		SET name = $1, location = $2, updated_at = NOW()
		WHERE id = $3`

	_, err := s.q(ctx).ExecContext(ctx, query, lot.Name, lot.Location, lot.ID)
	return err
}

// UpdateLotCounters writes all four counters together. Callers hold the lot
// row lock and have re-derived the counters from current state, never from a
// cached value.
func (s *Store) UpdateLotCounters(ctx context.Context, lot *models.ParkingLot) error {
	query := `
		UPDATE parking_lots
		SET total_spaces = $1, available_spaces = $2, occupied_spaces = $3, booked_spaces = $4, updated_at = NOW()
		WHERE id = $5`

	_, err := s.q(ctx).ExecContext(ctx, query,
		lot.TotalSpaces,
		lot.AvailableSpaces,
		lot.OccupiedSpaces,
		lot.BookedSpaces,
		lot.ID,
	)
	return err
}

func (s *Store) DeleteLot(ctx context.Context, id string) error {
	_, err := s.q(ctx).ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, id)
	return err
}

func (s *Store) CountSpaces(ctx context.Context, lotID string) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_spaces WHERE lot_id = $1`, lotID).Scan(&count)
	return count, err
}

// LotRecount is the ground truth derived from space rows, used by the
// reconciliation tool to detect counter drift.
type LotRecount struct {
	Total     int
	Available int
	Booked    int
	Occupied  int
}

func (s *Store) RecountLot(ctx context.Context, lotID string) (LotRecount, error) {
	var rc LotRecount
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE current_booking_id IS NULL AND NOT is_occupied),
			COUNT(*) FILTER (WHERE current_booking_id IS NOT NULL AND NOT is_occupied),
			COUNT(*) FILTER (WHERE is_occupied)
		FROM parking_spaces
		WHERE lot_id = $1`

	err := s.q(ctx).QueryRowContext(ctx, query, lotID).Scan(&rc.Total, &rc.Available, &rc.Booked, &rc.Occupied)
	return rc, err
}
