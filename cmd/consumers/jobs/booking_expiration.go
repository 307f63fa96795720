package jobs

import (
	"context"
	"time"

	"parkhub/internal/logger"
	"parkhub/internal/service"
)

const checkInterval = 30 * time.Second

// BookingExpirationJob periodically sweeps pending bookings whose grace
// window has elapsed. The coordinator re-checks every booking inside its own
// transaction, so a sweep racing a live occupy is harmless.
type BookingExpirationJob struct {
	coordinator *service.InventoryCoordinator
	ticker      *time.Ticker
	done        chan bool
}

func NewBookingExpirationJob(coordinator *service.InventoryCoordinator) *BookingExpirationJob {
	return &BookingExpirationJob{
		coordinator: coordinator,
		done:        make(chan bool),
	}
}

// Start begins the background sweep.
func (j *BookingExpirationJob) Start(ctx context.Context) {
	logger.Get().Info("Starting booking expiration job",
		"check_interval", checkInterval.String(), "grace", service.ExpiryGrace.String())

	j.ticker = time.NewTicker(checkInterval)

	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				logger.Get().Info("Booking expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job.
func (j *BookingExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *BookingExpirationJob) sweep(ctx context.Context) {
	log := logger.Get()

	expired, err := j.coordinator.ExpireOverdueBookings(ctx)
	if err != nil {
		log.Error("Expiration sweep failed", "error", err)
		return
	}

	if expired > 0 {
		log.Info("Expired overdue bookings", "count", expired)
	} else {
		log.Debug("No overdue bookings found")
	}
}
