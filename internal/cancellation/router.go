package cancellation

import (
	"ticketd/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCancellationRoutes(router *gin.RouterGroup, controller Controller) {
	routes := router.Group("/bookings")
	routes.Use(middleware.JWTAuth())
	{
		routes.GET("/:bookingId/cancel-quote", controller.Quote) // GET /api/v1/bookings/:bookingId/cancel-quote
		routes.POST("/:bookingId/cancel", controller.Cancel)     // POST /api/v1/bookings/:bookingId/cancel
	}
}
