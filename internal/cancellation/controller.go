package cancellation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ticketd/internal/shared/utils/response"
)

type Controller interface {
	Quote(c *gin.Context)
	Cancel(c *gin.Context)
}

// CancelRequest is the optional body of a cancel call.
type CancelRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=255"`
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) parseIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(raw.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid user ID format", nil, nil)
		return uuid.Nil, uuid.Nil, false
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return uuid.Nil, uuid.Nil, false
	}

	return userID, bookingID, true
}

func (ctrl *controller) Quote(c *gin.Context) {
	userID, bookingID, ok := ctrl.parseIDs(c)
	if !ok {
		return
	}

	quote, err := ctrl.service.Quote(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Cancellation quote computed", quote, nil)
}

func (ctrl *controller) Cancel(c *gin.Context) {
	userID, bookingID, ok := ctrl.parseIDs(c)
	if !ok {
		return
	}

	// The body is optional; an empty request cancels without a reason.
	var req CancelRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
			return
		}
	}

	booking, err := ctrl.service.Cancel(c.Request.Context(), userID, bookingID, req.Reason)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", booking, nil)
}
