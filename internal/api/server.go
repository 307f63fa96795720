package api

import (
	"net/http"

	"parkhub/internal/cache"
	"parkhub/internal/clock"
	"parkhub/internal/config"
	"parkhub/internal/database"
	"parkhub/internal/handlers"
	"parkhub/internal/logger"
	"parkhub/internal/messaging"
	"parkhub/internal/middleware"
	"parkhub/internal/notifier"
	"parkhub/internal/repository"
	"parkhub/internal/search"
	"parkhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server. Postgres is mandatory; NATS, Valkey and
// Elasticsearch are optional collaborators the server runs without when they
// cannot be reached at startup.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Warn("NATS unavailable, notifications disabled", "error", err)
		natsClient = nil
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		log.Warn("Valkey unavailable, lot list cache disabled", "error", err)
		valkeyClient = nil
	}

	lotIndex, err := search.NewLotIndex(cfg.Elasticsearch)
	if err != nil {
		log.Warn("Elasticsearch unavailable, lot search disabled", "error", err)
		lotIndex = nil
	}

	store := repository.NewStore(db)
	services := service.NewServices(store, notifier.New(natsClient), valkeyClient, lotIndex, clock.NewSystem())

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	{
		lots := api.Group("/lots")
		{
			lots.POST("", h.CreateLot)
			lots.GET("", h.ListLots)
			lots.GET("/:id", h.GetLot)
			lots.PATCH("/:id", h.UpdateLot)
			lots.DELETE("/:id", h.DeleteLot)
			lots.POST("/:id/spaces", h.AddSpace)
			lots.GET("/:id/spaces", h.ListSpaces)
		}

		api.DELETE("/spaces/:id", h.DeleteSpace)
		api.POST("/spaces/:id/release", h.ReleaseSpace)
		api.POST("/spaces/:id/attach", h.AttachSpace)

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.GET("/history/:key", h.BookingHistory)
			bookings.PATCH("/occupy", h.OccupyBooking)
			bookings.PATCH("/abandon", h.AbandonBooking)
			bookings.PATCH("/exit", h.ExitBooking)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	health := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   health.Status,
		"service":  "parkhub-api",
		"database": health,
	})
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	log := logger.Get()

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
