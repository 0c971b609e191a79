package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/services/booking_service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool                         `json:"success"`
	Code    string                       `json:"code"`
	Message string                       `json:"message"`
	Fields  []booking_service.FieldError `json:"fields,omitempty"`
}

type errorKind struct {
	target error
	status int
	code   string
}

var errorKinds = []errorKind{
	{booking_service.ErrValidation, http.StatusUnprocessableEntity, "VALIDATION"},
	{booking_service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{booking_service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{booking_service.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
	{booking_service.ErrExpiredWindow, http.StatusConflict, "EXPIRED_WINDOW"},
	{booking_service.ErrTooEarly, http.StatusConflict, "TOO_EARLY"},
	{booking_service.ErrDuplicate, http.StatusConflict, "DUPLICATE"},
}

// Error writes err with the status of its kind. Unknown errors become a
// 500 whose message does not leak internals.
func Error(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.target) {
			continue
		}
		resp := ErrorResponse{Code: k.code, Message: err.Error()}

		var verr *booking_service.ValidationError
		if errors.As(err, &verr) {
			resp.Message = "Validation failed"
			resp.Fields = verr.Fields
		}
		c.JSON(k.status, resp)
		return
	}

	logger.ErrorLogger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL", Message: "Internal server error"})
}

// BadRequest reports a body that could not be decoded at all.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Message: message})
}

// Unauthorized reports a missing or unusable identity in the context.
func Unauthorized(c *gin.Context, err error) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}
