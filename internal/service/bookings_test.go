package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "parkhub/internal/errors"
	"parkhub/internal/models"
	"parkhub/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLedger(store *storetest.MemStore, n int) []string {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("booking-%02d", i)
		userID := fmt.Sprintf("user-%d", i%3)
		store.Bookings[id] = &models.Booking{
			ID:          id,
			UserID:      &userID,
			PlateNumber: fmt.Sprintf("KAA %03dA", i),
			LotID:       "lot-1",
			SpaceID:     fmt.Sprintf("space-%d", i),
			UserType:    models.UserTypeGuest,
			Status:      models.BookingCompleted,
			EntryTime:   base.Add(time.Duration(i) * time.Hour),
		}
		ids = append(ids, id)
	}
	return ids
}

func TestQueryPaginatesNewestFirst(t *testing.T) {
	store := storetest.NewMemStore()
	seedLedger(store, 25)
	svc := NewBookingQueryService(store)
	ctx := context.Background()

	page1, err := svc.Query(ctx, &models.BookingQuery{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page1.Items, 10)
	assert.NotEmpty(t, page1.NextCursor)
	assert.Equal(t, "booking-24", page1.Items[0].ID)
	assert.Equal(t, "booking-15", page1.Items[9].ID)

	page2, err := svc.Query(ctx, &models.BookingQuery{PageSize: 10, Cursor: page1.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2.Items, 10)
	assert.Equal(t, "booking-14", page2.Items[0].ID)

	page3, err := svc.Query(ctx, &models.BookingQuery{PageSize: 10, Cursor: page2.NextCursor})
	require.NoError(t, err)
	assert.Len(t, page3.Items, 5)
	assert.Empty(t, page3.NextCursor)

	// No booking appears twice across pages.
	seen := map[string]bool{}
	for _, page := range [][]models.Booking{page1.Items, page2.Items, page3.Items} {
		for _, b := range page {
			assert.False(t, seen[b.ID], "booking %s returned twice", b.ID)
			seen[b.ID] = true
		}
	}
	assert.Len(t, seen, 25)
}

func TestQueryFilters(t *testing.T) {
	store := storetest.NewMemStore()
	seedLedger(store, 9)
	svc := NewBookingQueryService(store)
	ctx := context.Background()

	byUser, err := svc.Query(ctx, &models.BookingQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, byUser.Items, 3)

	byPlate, err := svc.Query(ctx, &models.BookingQuery{Plate: "kaa 004a"})
	require.NoError(t, err)
	require.Len(t, byPlate.Items, 1)
	assert.Equal(t, "booking-04", byPlate.Items[0].ID)

	_, err = svc.Query(ctx, &models.BookingQuery{Statuses: []string{"parked"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQueryDateRangeFiltersReturnedPage(t *testing.T) {
	store := storetest.NewMemStore()
	seedLedger(store, 10)
	svc := NewBookingQueryService(store)
	ctx := context.Background()

	from := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)

	resp, err := svc.Query(ctx, &models.BookingQuery{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, resp.Items, 4)
	for _, b := range resp.Items {
		assert.False(t, b.EntryTime.Before(from))
		assert.False(t, b.EntryTime.After(to))
	}
}

func TestQueryRejectsMalformedCursor(t *testing.T) {
	svc := NewBookingQueryService(storetest.NewMemStore())

	_, err := svc.Query(context.Background(), &models.BookingQuery{Cursor: "not-a-cursor"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCursorRoundTrip(t *testing.T) {
	entry := time.Date(2025, 6, 1, 8, 30, 0, 123456789, time.UTC)

	got, id, err := decodeCursor(encodeCursor(entry, "booking-7"))
	require.NoError(t, err)
	assert.True(t, got.Equal(entry))
	assert.Equal(t, "booking-7", id)
}

func TestGetByID(t *testing.T) {
	store := storetest.NewMemStore()
	ids := seedLedger(store, 2)
	svc := NewBookingQueryService(store)
	ctx := context.Background()

	booking, err := svc.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], booking.ID)

	_, err = svc.GetByID(ctx, "no-such-booking")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
}

func TestHistoryByUserOrPlate(t *testing.T) {
	store := storetest.NewMemStore()
	seedLedger(store, 9)
	svc := NewBookingQueryService(store)
	ctx := context.Background()

	byUser, err := svc.History(ctx, "user-0")
	require.NoError(t, err)
	assert.Len(t, byUser, 3)
	for i := 1; i < len(byUser); i++ {
		assert.True(t, byUser[i].EntryTime.Before(byUser[i-1].EntryTime), "history must be newest first")
	}

	byPlate, err := svc.History(ctx, "KAA 005A")
	require.NoError(t, err)
	require.Len(t, byPlate, 1)
	assert.Equal(t, "booking-05", byPlate[0].ID)

	_, err = svc.History(ctx, "  ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
