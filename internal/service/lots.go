package service

import (
	"context"
	"strings"

	"parkhub/internal/cache"
	apperrors "parkhub/internal/errors"
	"parkhub/internal/logger"
	"parkhub/internal/models"
	"parkhub/internal/search"

	"github.com/google/uuid"
)

// LotService manages the lot/space catalog. The Valkey cache and the
// Elasticsearch index are optional projections; when either is nil the
// service runs against Postgres alone.
type LotService struct {
	store Store
	cache *cache.ValkeyClient
	index *search.LotIndex
}

func NewLotService(store Store, cacheClient *cache.ValkeyClient, index *search.LotIndex) *LotService {
	return &LotService{store: store, cache: cacheClient, index: index}
}

func (ls *LotService) CreateLot(ctx context.Context, req *models.CreateLotRequest) (*models.ParkingLot, error) {
	name := strings.TrimSpace(req.Name)
	location := strings.TrimSpace(req.Location)
	if name == "" {
		return nil, apperrors.Validationf("name is required")
	}
	if location == "" {
		return nil, apperrors.Validationf("location is required")
	}

	lot := &models.ParkingLot{
		ID:       uuid.New().String(),
		Name:     name,
		Location: location,
	}

	if err := ls.store.CreateLot(ctx, lot); err != nil {
		return nil, err
	}

	ls.refreshProjections(ctx, lot)
	return lot, nil
}

func (ls *LotService) GetLot(ctx context.Context, id string) (*models.ParkingLot, error) {
	lot, err := ls.store.GetLot(ctx, id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, apperrors.ErrLotNotFound
	}
	return lot, nil
}

// ListLots returns the catalog ordered by name. A non-empty query routes
// through the search index; if the index is unavailable the full list is
// returned so the endpoint degrades instead of failing.
func (ls *LotService) ListLots(ctx context.Context, query string) ([]models.ParkingLot, error) {
	if query == "" || ls.index == nil {
		return ls.store.ListLots(ctx)
	}

	ids, err := ls.index.SearchLots(ctx, query, 50)
	if err != nil {
		logger.WithContext(ctx).Warn("Lot search failed, falling back to full list", "error", err)
		return ls.store.ListLots(ctx)
	}

	lots := make([]models.ParkingLot, 0, len(ids))
	for _, id := range ids {
		lot, err := ls.store.GetLot(ctx, id)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			continue // index lag, document outlived the row
		}
		lots = append(lots, *lot)
	}
	return lots, nil
}

func (ls *LotService) UpdateLot(ctx context.Context, id string, req *models.UpdateLotRequest) (*models.ParkingLot, error) {
	var lot *models.ParkingLot

	err := ls.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		lot, err = ls.store.GetLotForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if lot == nil {
			return apperrors.ErrLotNotFound
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperrors.Validationf("name cannot be empty")
			}
			lot.Name = name
		}
		if req.Location != nil {
			location := strings.TrimSpace(*req.Location)
			if location == "" {
				return apperrors.Validationf("location cannot be empty")
			}
			lot.Location = location
		}

		return ls.store.UpdateLotInfo(ctx, lot)
	})
	if err != nil {
		return nil, err
	}

	ls.refreshProjections(ctx, lot)
	return lot, nil
}

// DeleteLot removes an empty lot. Lots still holding spaces are rejected;
// spaces must be deleted first.
func (ls *LotService) DeleteLot(ctx context.Context, id string) error {
	err := ls.store.WithTx(ctx, func(ctx context.Context) error {
		lot, err := ls.store.GetLotForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if lot == nil {
			return apperrors.ErrLotNotFound
		}

		count, err := ls.store.CountSpaces(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrLotHasSpaces
		}

		return ls.store.DeleteLot(ctx, id)
	})
	if err != nil {
		return err
	}

	if ls.index != nil {
		if err := ls.index.DeleteLot(ctx, id); err != nil {
			logger.WithContext(ctx).Warn("Failed to remove lot from search index", "lot_id", id, "error", err)
		}
	}
	ls.invalidateCache(ctx)
	return nil
}

// AddSpace registers a new space in a lot and grows the counters with it.
func (ls *LotService) AddSpace(ctx context.Context, lotID string, number int) (*models.ParkingSpace, error) {
	if number < 1 {
		return nil, apperrors.Validationf("space number must be positive, got %d", number)
	}

	var (
		lot   *models.ParkingLot
		space *models.ParkingSpace
	)

	err := ls.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		lot, err = ls.store.GetLotForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return apperrors.ErrLotNotFound
		}

		space = &models.ParkingSpace{
			ID:     uuid.New().String(),
			LotID:  lotID,
			Number: number,
		}
		if err := ls.store.InsertSpace(ctx, space); err != nil {
			return err
		}

		lot.TotalSpaces++
		lot.AvailableSpaces++
		return ls.store.UpdateLotCounters(ctx, lot)
	})
	if err != nil {
		return nil, err
	}

	ls.refreshProjections(ctx, lot)
	return space, nil
}

// DeleteSpace removes a free space and shrinks the lot counters. Spaces held
// by a live booking or physically occupied are rejected.
func (ls *LotService) DeleteSpace(ctx context.Context, spaceID string) error {
	var lot *models.ParkingLot

	err := ls.store.WithTx(ctx, func(ctx context.Context) error {
		// Peek at the space to learn its lot, then lock lot before space.
		peek, err := ls.store.GetSpace(ctx, spaceID)
		if err != nil {
			return err
		}
		if peek == nil {
			return apperrors.ErrSpaceNotFound
		}

		lot, err = ls.store.GetLotForUpdate(ctx, peek.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return apperrors.ErrLotNotFound
		}

		space, err := ls.store.GetSpaceForUpdate(ctx, spaceID)
		if err != nil {
			return err
		}
		if space == nil {
			return apperrors.ErrSpaceNotFound
		}
		if space.CurrentBookingID != nil || space.IsOccupied {
			return apperrors.ErrSpaceInUse
		}

		if err := ls.store.DeleteSpace(ctx, spaceID); err != nil {
			return err
		}

		lot.TotalSpaces--
		lot.AvailableSpaces--
		if lot.TotalSpaces < 0 || lot.AvailableSpaces < 0 {
			return apperrors.Validationf("lot %s counters would go negative", lot.ID)
		}
		return ls.store.UpdateLotCounters(ctx, lot)
	})
	if err != nil {
		return err
	}

	ls.refreshProjections(ctx, lot)
	return nil
}

func (ls *LotService) ListSpaces(ctx context.Context, lotID string, availableOnly bool) ([]models.ParkingSpace, error) {
	lot, err := ls.store.GetLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, apperrors.ErrLotNotFound
	}
	return ls.store.ListSpaces(ctx, lotID, availableOnly)
}

// CachedLotsList returns the cached lot list snapshot as raw JSON, or nil
// when the cache is cold or disabled.
func (ls *LotService) CachedLotsList(ctx context.Context) []byte {
	if ls.cache == nil {
		return nil
	}
	raw, err := ls.cache.GetLotsListRaw(ctx)
	if err != nil {
		return nil
	}
	return raw
}

// CacheLotsList stores the freshly built lot list snapshot.
func (ls *LotService) CacheLotsList(ctx context.Context, lots []models.ParkingLot) {
	if ls.cache == nil {
		return
	}
	if err := ls.cache.SetLotsList(ctx, lots); err != nil {
		logger.WithContext(ctx).Warn("Failed to cache lot list", "error", err)
	}
}

// InvalidateLotsCache drops the cached lot list. The inventory coordinator
// calls this after counter mutations so the snapshot never outlives a change
// by more than the cache TTL.
func (ls *LotService) InvalidateLotsCache(ctx context.Context) {
	ls.invalidateCache(ctx)
}

func (ls *LotService) refreshProjections(ctx context.Context, lot *models.ParkingLot) {
	if lot == nil {
		return
	}
	if ls.index != nil {
		if err := ls.index.IndexLot(ctx, lot); err != nil {
			logger.WithContext(ctx).Warn("Failed to index lot", "lot_id", lot.ID, "error", err)
		}
	}
	ls.invalidateCache(ctx)
}

func (ls *LotService) invalidateCache(ctx context.Context) {
	if ls.cache == nil {
		return
	}
	if err := ls.cache.InvalidateLots(ctx); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate lot cache", "error", err)
	}
}
