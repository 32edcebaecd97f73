// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"ticketd/internal/bookings"
	"ticketd/internal/cancellation"
	"ticketd/internal/events"
	"ticketd/internal/inventory"
	"ticketd/internal/live"
	"ticketd/internal/notifications"
	"ticketd/internal/payments"
	"ticketd/internal/shared/config"
	"ticketd/internal/shared/database"
	"ticketd/internal/tickets"
	"ticketd/pkg/cache"
	"ticketd/pkg/lock"
	"ticketd/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier notifications.Service
	log      *logger.Logger

	// Wired during SetupRoutes, exposed for lifecycle management in main.
	Reaper *bookings.Reaper

	eventService     events.Service
	inventoryService inventory.Service
	bookingService   bookings.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, notifier notifications.Service, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
		log:      log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Order matters: inventory and events wire each other, bookings
		// depends on both, cancellation depends on bookings.
		r.setupEventAndInventoryRoutes(api)
		r.setupBookingRoutes(api)
		r.setupCancellationRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "ticketd",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "ticketd",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupEventAndInventoryRoutes wires the catalog side: events and their units.
func (r *Router) setupEventAndInventoryRoutes(rg *gin.RouterGroup) {
	cacheService := cache.NewService(r.db.GetRedisClient())

	inventoryRepo := inventory.NewRepository(r.db.GetPostgreSQL())
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryService.SetCacheService(cacheService)

	eventRepo := events.NewRepository(r.db.GetPostgreSQL())
	eventService := events.NewService(eventRepo)
	eventService.SetCacheService(cacheService)
	eventService.SetInventoryGenerator(inventoryService)

	r.eventService = eventService
	r.inventoryService = inventoryService

	events.SetupEventRoutes(rg, events.NewController(eventService))
	inventory.SetupInventoryRoutes(rg, inventory.NewController(inventoryService))
}

// setupBookingRoutes wires the reservation engine and its expiry reaper.
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	lockManager := lock.NewManager(r.db.GetRedisClient())
	broadcaster := live.NewRedisBroadcaster(r.db.GetRedisClient())
	ticketGen := tickets.NewQRGenerator(256)
	processor := payments.NewSandbox()

	bookingService := bookings.NewService(
		bookingRepo,
		r.eventService,
		lockManager,
		processor,
		r.notifier,
		ticketGen,
		broadcaster,
		r.inventoryService,
		r.config.Booking,
		r.log,
	)

	r.Reaper = bookings.NewReaper(
		bookingRepo,
		r.notifier,
		broadcaster,
		r.inventoryService,
		r.config.Booking.ReaperInterval,
		r.config.Booking.ReaperBatchSize,
		r.log,
	)
	bookingService.SetReaper(r.Reaper)
	r.bookingService = bookingService

	bookings.SetupBookingRoutes(rg, bookings.NewController(bookingService))
}

// setupCancellationRoutes wires the refund policy endpoints.
func (r *Router) setupCancellationRoutes(rg *gin.RouterGroup) {
	policy := cancellation.PolicyFromConfig(r.config.Booking)
	cancellationService := cancellation.NewService(r.bookingService, r.eventService, policy)

	cancellation.SetupCancellationRoutes(rg, cancellation.NewController(cancellationService))
}
