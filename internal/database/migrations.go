package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createParkingLotsTable,
		createParkingSpacesTable,
		createBookingsTable,
		createLiveBookingIndex,
		createBookingLookupIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

// The CHECK constraint backs the counter invariant: the three buckets always
// sum to total_spaces and none of them goes negative.
const createParkingLotsTable = `
CREATE TABLE IF NOT EXISTS parking_lots (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    location VARCHAR(500) NOT NULL,
    total_spaces INTEGER NOT NULL DEFAULT 0,
    available_spaces INTEGER NOT NULL DEFAULT 0,
    occupied_spaces INTEGER NOT NULL DEFAULT 0,
    booked_spaces INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (total_spaces >= 0 AND available_spaces >= 0 AND occupied_spaces >= 0 AND booked_spaces >= 0),
    CHECK (available_spaces + occupied_spaces + booked_spaces = total_spaces)
);`

const createParkingSpacesTable = `
CREATE TABLE IF NOT EXISTS parking_spaces (
    id UUID PRIMARY KEY,
    lot_id UUID NOT NULL REFERENCES parking_lots(id),
    space_number INTEGER NOT NULL,
    is_occupied BOOLEAN NOT NULL DEFAULT FALSE,
    current_booking_id UUID,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(lot_id, space_number)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id UUID PRIMARY KEY,
    user_id VARCHAR(255),
    plate_number VARCHAR(20) NOT NULL,
    lot_id UUID NOT NULL REFERENCES parking_lots(id),
    space_id UUID NOT NULL REFERENCES parking_spaces(id),
    user_type VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    entry_time TIMESTAMP NOT NULL DEFAULT NOW(),
    occupied_time TIMESTAMP,
    exit_time TIMESTAMP,
    amount_billed BIGINT,
    payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
    payment_method VARCHAR(20),
    email VARCHAR(255),
    phone VARCHAR(50),
    admin_actions JSONB NOT NULL DEFAULT '[]',
    notifications_sent JSONB NOT NULL DEFAULT '{"bookingExpiry": false, "abandonment": false}',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (user_type IN ('student', 'guest')),
    CHECK (status IN ('pending', 'active', 'completed', 'cancelled', 'abandoned')),
    CHECK (payment_status IN ('pending', 'paid'))
);`

// At most one live booking may reference a space at a time.
const createLiveBookingIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS bookings_live_space_idx
ON bookings (space_id)
WHERE status IN ('pending', 'active', 'abandoned');`

const createBookingLookupIndexes = `
CREATE INDEX IF NOT EXISTS bookings_entry_time_idx ON bookings (entry_time DESC, id DESC);
CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id);
CREATE INDEX IF NOT EXISTS bookings_plate_idx ON bookings (plate_number);
CREATE INDEX IF NOT EXISTS bookings_status_idx ON bookings (status);`
