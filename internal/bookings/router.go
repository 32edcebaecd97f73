package bookings

import (
	"ticketd/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(router *gin.RouterGroup, controller Controller) {
	bookingRoutes := router.Group("/bookings")
	bookingRoutes.Use(middleware.JWTAuth())
	{
		bookingRoutes.POST("/reserve", controller.Reserve)             // POST /api/v1/bookings/reserve
		bookingRoutes.POST("/:bookingId/confirm", controller.Confirm)  // POST /api/v1/bookings/:bookingId/confirm
		bookingRoutes.GET("/:bookingId", controller.GetBooking)        // GET /api/v1/bookings/:bookingId
		bookingRoutes.GET("", controller.ListBookings)                 // GET /api/v1/bookings
	}
}
