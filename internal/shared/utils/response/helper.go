package response

import (
	"github.com/gin-gonic/gin"

	"ticketd/internal/shared/apperrors"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a domain error to the standard envelope. Typed errors
// carry their own HTTP status and structured details; anything else is a 500.
func RespondError(c *gin.Context, err error) {
	code := apperrors.HTTPStatus(err)

	var details interface{}
	if appErr := apperrors.From(err); appErr != nil && len(appErr.Details) > 0 {
		details = appErr.Details
	}

	RespondJSON(c, "error", code, err.Error(), nil, details)
}
