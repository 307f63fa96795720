package service

import (
	"parkhub/internal/cache"
	"parkhub/internal/clock"
	"parkhub/internal/search"
)

// Services bundles the application services handed to the HTTP layer.
type Services struct {
	Inventory *InventoryCoordinator
	Lots      *LotService
	Bookings  *BookingQueryService
}

func NewServices(store Store, notifier Notifier, cacheClient *cache.ValkeyClient, index *search.LotIndex, clk clock.Clock) *Services {
	return &Services{
		Inventory: NewInventoryCoordinator(store, notifier, cacheClient, clk),
		Lots:      NewLotService(store, cacheClient, index),
		Bookings:  NewBookingQueryService(store),
	}
}
