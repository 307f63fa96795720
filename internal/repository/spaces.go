package repository

import (
	"context"
	"database/sql"

	apperrors "parkhub/internal/errors"
	"parkhub/internal/models"
)

func (s *Store) InsertSpace(ctx context.Context, space *models.ParkingSpace) error {
	query := `
		INSERT INTO parking_spaces (id, lot_id, space_number, is_occupied, current_booking_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := s.q(ctx).QueryRowContext(ctx, query,
		space.ID,
		space.LotID,
		space.Number,
		space.IsOccupied,
		space.CurrentBookingID,
	).Scan(&space.CreatedAt, &space.UpdatedAt)

	if isUniqueViolation(err) {
		return apperrors.Validationf("space number %d already exists in lot %s", space.Number, space.LotID)
	}
	return err
}

func (s *Store) GetSpace(ctx context.Context, id string) (*models.ParkingSpace, error) {
	return s.getSpace(ctx, id, false)
}

func (s *Store) GetSpaceForUpdate(ctx context.Context, id string) (*models.ParkingSpace, error) {
	return s.getSpace(ctx, id, true)
}

func (s *Store) getSpace(ctx context.Context, id string, forUpdate bool) (*models.ParkingSpace, error) {
	space := &models.ParkingSpace{}
	query := `
		SELECT id, lot_id, space_number, is_occupied, current_booking_id, created_at, updated_at
		FROM parking_spaces
		WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	err := s.q(ctx).QueryRowContext(ctx, query, id).Scan(
		&space.ID,
		&space.LotID,
		&space.Number,
		&space.IsOccupied,
		&space.CurrentBookingID,
		&space.CreatedAt,
		&space.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return space, err
}

// FindFreeSpaceForUpdate picks the lowest-numbered free space of a lot and
// locks it. Returns nil when the lot is full. Callers already hold the lot
// row lock, so concurrent pickers serialize on the lot.
func (s *Store) FindFreeSpaceForUpdate(ctx context.Context, lotID string) (*models.ParkingSpace, error) {
	space := &models.ParkingSpace{}
	query := `
		SELECT id, lot_id, space_number, is_occupied, current_booking_id, created_at, updated_at
		FROM parking_spaces
		WHERE lot_id = $1 AND current_booking_id IS NULL AND NOT is_occupied
		ORDER BY space_number
		LIMIT 1
		FOR UPDATE`

	err := s.q(ctx).QueryRowContext(ctx, query, lotID).Scan(
		&space.ID,
		&space.LotID,
		&space.Number,
		&space.IsOccupied,
		&space.CurrentBookingID,
		&space.CreatedAt,
		&space.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return space, err
}

func (s *Store) UpdateSpace(ctx context.Context, space *models.ParkingSpace) error {
	query := `
		UPDATE parking_spaces
		SET is_occupied = $1, current_booking_id = $2, updated_at = NOW()
		WHERE id = $3`

	_, err := s.q(ctx).ExecContext(ctx, query, space.IsOccupied, space.CurrentBookingID, space.ID)
	return err
}

func (s *Store) DeleteSpace(ctx context.Context, id string) error {
	_, err := s.q(ctx).ExecContext(ctx, `DELETE FROM parking_spaces WHERE id = $1`, id)
	return err
}

func (s *Store) ListSpaces(ctx context.Context, lotID string, availableOnly bool) ([]models.ParkingSpace, error) {
	var spaces []models.ParkingSpace
	query := `
		SELECT id, lot_id, space_number, is_occupied, current_booking_id, created_at, updated_at
		FROM parking_spaces
		WHERE lot_id = $1`
	if availableOnly {
		query += " AND current_booking_id IS NULL AND NOT is_occupied"
	}
	query += " ORDER BY space_number"

	rows, err := s.q(ctx).QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var space models.ParkingSpace
		err := rows.Scan(
			&space.ID,
			&space.LotID,
			&space.Number,
			&space.IsOccupied,
			&space.CurrentBookingID,
			&space.CreatedAt,
			&space.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, space)
	}

	return spaces, rows.Err()
}
