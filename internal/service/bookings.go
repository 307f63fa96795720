package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "parkhub/internal/errors"
	"parkhub/internal/models"
	"parkhub/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var knownStatuses = map[string]bool{
	models.BookingPending:   true,
	models.BookingActive:    true,
	models.BookingCompleted: true,
	models.BookingCancelled: true,
	models.BookingAbandoned: true,
}

// BookingQueryService serves the read side of the booking ledger.
type BookingQueryService struct {
	store Store
}

func NewBookingQueryService(store Store) *BookingQueryService {
	return &BookingQueryService{store: store}
}

func (bs *BookingQueryService) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := bs.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}
	return booking, nil
}

// History returns every booking ever made under a user ID or plate number,
// newest first.
func (bs *BookingQueryService) History(ctx context.Context, key string) ([]models.Booking, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.Validationf("history key is required")
	}
	return bs.store.HistoryByUserOrPlate(ctx, key)
}

// Query returns one page of the ledger, newest entry first. Status, user,
// plate and lot narrow the query in the database; the entry-time range is
// applied to the returned page afterwards, so a range filter can return
// short pages while the cursor still advances.
func (bs *BookingQueryService) Query(ctx context.Context, q *models.BookingQuery) (*models.ListBookingsResponse, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	for _, s := range q.Statuses {
		if !knownStatuses[s] {
			return nil, apperrors.Validationf("unknown status %q", s)
		}
	}

	filter := repository.BookingFilter{
		Statuses: q.Statuses,
		UserID:   q.UserID,
		Plate:    strings.ToUpper(strings.TrimSpace(q.Plate)),
		LotID:    q.LotID,
		Limit:    pageSize + 1,
	}

	if q.Cursor != "" {
		before, beforeID, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		filter.BeforeEntry = &before
		filter.BeforeID = beforeID
	}

	page, err := bs.store.ListBookings(ctx, filter)
	if err != nil {
		return nil, err
	}

	var nextCursor string
	if len(page) > pageSize {
		page = page[:pageSize]
		last := page[len(page)-1]
		nextCursor = encodeCursor(last.EntryTime, last.ID)
	}

	items := make([]models.Booking, 0, len(page))
	for _, b := range page {
		if q.From != nil && b.EntryTime.Before(*q.From) {
			continue
		}
		if q.To != nil && b.EntryTime.After(*q.To) {
			continue
		}
		items = append(items, b)
	}

	return &models.ListBookingsResponse{Items: items, NextCursor: nextCursor}, nil
}

func encodeCursor(entry time.Time, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("%d:%s", entry.UnixNano(), id)))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", apperrors.Validationf("malformed cursor")
	}

	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", apperrors.Validationf("malformed cursor")
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", apperrors.Validationf("malformed cursor")
	}

	return time.Unix(0, nanos).UTC(), parts[1], nil
}
