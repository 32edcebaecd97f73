package inventory

import (
	"ticketd/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupInventoryRoutes(router *gin.RouterGroup, controller Controller) {
	// Public availability view for event pages and seat pickers
	router.GET("/events/:eventId/availability", controller.GetAvailability)

	// Admin unit management
	admin := router.Group("/admin/events/:eventId/units")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.PATCH("/:label/block", controller.SetUnitBlocked)
	}
}
