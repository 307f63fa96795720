package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parkhub/internal/database"
	apperrors "parkhub/internal/errors"

	"github.com/lib/pq"
)

// Store is the persistence boundary for lots, spaces and bookings. All
// coordinator mutations run through WithTx so that booking, space and lot
// rows commit together or not at all.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

type txKey struct{}

const (
	maxTxAttempts  = 3
	txRetryBackoff = 50 * time.Millisecond
)

// WithTx runs fn inside a database transaction carried via the context.
// Serialization conflicts and connection drops are retried a bounded number
// of times; exhaustion surfaces as ErrStorageUnavailable. Nested calls join
// the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
		if attempt < maxTxAttempts {
			slog.Warn("Transaction conflict, retrying",
				"attempt", attempt, "max_attempts", maxTxAttempts, "error", err)
			time.Sleep(time.Duration(attempt) * txRetryBackoff)
		}
	}

	return fmt.Errorf("%w: transaction retries exhausted: %v", apperrors.ErrStorageUnavailable, lastErr)
}

func (s *Store) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.db.QueryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return timeoutErr(ctx, err, s.db.QueryTimeout)
	}

	if err := tx.Commit(); err != nil {
		return timeoutErr(ctx, err, s.db.QueryTimeout)
	}
	return nil
}

// timeoutErr maps a deadline hit on the transaction context to the
// storage-unavailable sentinel; other errors pass through untouched.
func timeoutErr(ctx context.Context, err error, limit time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: query timed out after %s: %v", apperrors.ErrStorageUnavailable, limit, err)
	}
	return err
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// querier abstracts over *sql.DB and *sql.Tx so repository methods work both
// inside and outside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure, deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	msg := err.Error()
	for _, transient := range []string{"connection refused", "connection reset", "broken pipe"} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
