package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ticketd/internal/shared/utils/response"
)

type Controller interface {
	GetAvailability(c *gin.Context)
	SetUnitBlocked(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) GetAvailability(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	includeUnits := c.Query("detail") == "units"

	summary, err := ctrl.service.GetAvailability(c.Request.Context(), eventID, includeUnits)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Availability retrieved successfully", summary, nil)
}

func (ctrl *controller) SetUnitBlocked(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	label := c.Param("label")
	if label == "" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Unit label is required", nil, nil)
		return
	}

	var req BlockUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := ctrl.service.SetUnitBlocked(c.Request.Context(), eventID, label, req.Blocked); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Unit block state updated", nil, nil)
}
