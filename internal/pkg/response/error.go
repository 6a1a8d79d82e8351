package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Detailer is implemented by errors that carry extra data safe to show to clients,
// such as the ids of conflicting bookings.
type Detailer interface {
	Details() any
}

// Error sends a JSON error response.
// AppErrors are rendered with their own status code and message. Anything else is
// attached to the gin context for the request logger and rendered as a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{Error: appErr.Message}
		var d Detailer
		if errors.As(err, &d) {
			resp.Details = d.Details()
		}
		c.JSON(appErr.Code, resp)
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// BadRequest sends a 400 with an optional field-level detail map.
func BadRequest(c *gin.Context, message string, details map[string]string) {
	resp := ErrorResponse{Error: message}
	if len(details) > 0 {
		resp.Details = details
	}
	c.JSON(http.StatusBadRequest, resp)
}
