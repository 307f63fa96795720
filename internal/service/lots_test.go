package service

import (
	"context"
	"testing"

	apperrors "parkhub/internal/errors"
	"parkhub/internal/models"
	"parkhub/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLotFixture() (*storetest.MemStore, *LotService) {
	store := storetest.NewMemStore()
	return store, NewLotService(store, nil, nil)
}

func TestCreateLot(t *testing.T) {
	store, svc := newLotFixture()
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, &models.CreateLotRequest{Name: "  North Campus ", Location: "Zone A"})
	require.NoError(t, err)
	assert.Equal(t, "North Campus", lot.Name)
	assert.NotEmpty(t, lot.ID)
	assert.Equal(t, 0, lot.TotalSpaces)
	assert.Contains(t, store.Lots, lot.ID)

	_, err = svc.CreateLot(ctx, &models.CreateLotRequest{Name: "", Location: "Zone A"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateLot(ctx, &models.CreateLotRequest{Name: "South", Location: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateLot(t *testing.T) {
	_, svc := newLotFixture()
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, &models.CreateLotRequest{Name: "North", Location: "Zone A"})
	require.NoError(t, err)

	newName := "North Campus"
	updated, err := svc.UpdateLot(ctx, lot.ID, &models.UpdateLotRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "North Campus", updated.Name)
	assert.Equal(t, "Zone A", updated.Location, "unset fields must stay untouched")

	empty := " "
	_, err = svc.UpdateLot(ctx, lot.ID, &models.UpdateLotRequest{Location: &empty})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.UpdateLot(ctx, "no-such-lot", &models.UpdateLotRequest{Name: &newName})
	assert.ErrorIs(t, err, apperrors.ErrLotNotFound)
}

func TestDeleteLotRejectsNonEmpty(t *testing.T) {
	store, svc := newLotFixture()
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, &models.CreateLotRequest{Name: "North", Location: "Zone A"})
	require.NoError(t, err)
	_, err = svc.AddSpace(ctx, lot.ID, 1)
	require.NoError(t, err)

	err = svc.DeleteLot(ctx, lot.ID)
	assert.ErrorIs(t, err, apperrors.ErrLotHasSpaces)
	assert.Contains(t, store.Lots, lot.ID)
}

func TestDeleteEmptyLot(t *testing.T) {
	store, svc := newLotFixture()
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, &models.CreateLotRequest{Name: "North", Location: "Zone A"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLot(ctx, lot.ID))
	assert.NotContains(t, store.Lots, lot.ID)

	assert.ErrorIs(t, svc.DeleteLot(ctx, lot.ID), apperrors.ErrLotNotFound)
}

func TestAddSpaceGrowsCounters(t *testing.T) {
	store, svc := newLotFixture()
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, &models.CreateLotRequest{Name: "North", Location: "Zone A"})
	require.NoError(t, err)

	space, err := svc.AddSpace(ctx, lot.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, space.Number)

	stored := store.Lots[lot.ID]
	assert.Equal(t, 1, stored.TotalSpaces)
	assert.Equal(t, 1, stored.AvailableSpaces)

	// Duplicate numbers within a lot are rejected.
	_, err = svc.AddSpace(ctx, lot.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 1, store.Lots[lot.ID].TotalSpaces)

	_, err = svc.AddSpace(ctx, lot.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.AddSpace(ctx, "no-such-lot", 2)
	assert.ErrorIs(t, err, apperrors.ErrLotNotFound)
}

func TestDeleteSpace(t *testing.T) {
	store, svc := newLotFixture()
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, &models.CreateLotRequest{Name: "North", Location: "Zone A"})
	require.NoError(t, err)
	space, err := svc.AddSpace(ctx, lot.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSpace(ctx, space.ID))
	stored := store.Lots[lot.ID]
	assert.Equal(t, 0, stored.TotalSpaces)
	assert.Equal(t, 0, stored.AvailableSpaces)

	assert.ErrorIs(t, svc.DeleteSpace(ctx, space.ID), apperrors.ErrSpaceNotFound)
}

func TestDeleteSpaceHeldByBooking(t *testing.T) {
	store, svc := newLotFixture()
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, &models.CreateLotRequest{Name: "North", Location: "Zone A"})
	require.NoError(t, err)
	space, err := svc.AddSpace(ctx, lot.ID, 1)
	require.NoError(t, err)

	bookingID := "booking-1"
	store.Spaces[space.ID].CurrentBookingID = &bookingID

	assert.ErrorIs(t, svc.DeleteSpace(ctx, space.ID), apperrors.ErrSpaceInUse)
	assert.Contains(t, store.Spaces, space.ID)
}

func TestListSpacesAvailableOnly(t *testing.T) {
	store, svc := newLotFixture()
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, &models.CreateLotRequest{Name: "North", Location: "Zone A"})
	require.NoError(t, err)
	for n := 1; n <= 3; n++ {
		_, err := svc.AddSpace(ctx, lot.ID, n)
		require.NoError(t, err)
	}

	all, err := svc.ListSpaces(ctx, lot.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 3)

	store.Spaces[all[0].ID].IsOccupied = true

	free, err := svc.ListSpaces(ctx, lot.ID, true)
	require.NoError(t, err)
	assert.Len(t, free, 2)

	_, err = svc.ListSpaces(ctx, "no-such-lot", false)
	assert.ErrorIs(t, err, apperrors.ErrLotNotFound)
}

func TestListLotsWithoutIndexIgnoresQuery(t *testing.T) {
	_, svc := newLotFixture()
	ctx := context.Background()

	_, err := svc.CreateLot(ctx, &models.CreateLotRequest{Name: "North", Location: "Zone A"})
	require.NoError(t, err)
	_, err = svc.CreateLot(ctx, &models.CreateLotRequest{Name: "South", Location: "Zone B"})
	require.NoError(t, err)

	lots, err := svc.ListLots(ctx, "north")
	require.NoError(t, err)
	assert.Len(t, lots, 2, "with no search index the full list is returned")
}
