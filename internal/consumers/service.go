package consumers

import (
	"context"

	"parkhub/internal/clock"
	"parkhub/internal/config"
	"parkhub/internal/database"
	"parkhub/internal/external"
	"parkhub/internal/logger"
	"parkhub/internal/messaging"
	"parkhub/internal/models"
	"parkhub/internal/notifier"
	"parkhub/internal/repository"
	"parkhub/internal/service"
)

// ConsumerService drains the notification subjects and delivers them through
// the gateway. It shares the database so handlers can enrich events with
// booking details when needed.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	store    *repository.Store
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, err
	}

	store := repository.NewStore(db)
	gateway := external.NewGatewayClient(cfg.Gateway)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		store:    store,
		handlers: NewHandlers(store, gateway),
	}, nil
}

// InventoryCoordinator builds a coordinator over the consumer's connections
// for background jobs that mutate bookings.
func (cs *ConsumerService) InventoryCoordinator() *service.InventoryCoordinator {
	return service.NewInventoryCoordinator(cs.store, notifier.New(cs.nats), nil, clock.NewSystem())
}

func (cs *ConsumerService) Start() error {
	log := logger.Get()
	log.Info("Starting NATS consumers...")

	_, err := cs.nats.SubscribeQueue(models.EventBookingExpired, "notifications", cs.handlers.HandleBookingExpired)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue(models.EventBookingAbandoned, "notifications", cs.handlers.HandleBookingAbandoned)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue(models.EventPaymentReceipt, "notifications", cs.handlers.HandlePaymentReceipt)
	if err != nil {
		return err
	}

	log.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	log := logger.Get()
	log.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
