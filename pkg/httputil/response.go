package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwalitptl/opd-scheduler/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response with 201
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response, translating AppError codes to
// HTTP statuses.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	code := int(errors.ErrInternal)

	if appErr, ok := err.(*errors.AppError); ok {
		code = int(appErr.Code)
		message = appErr.Message
		switch appErr.Code {
		case errors.ErrNotFound:
			status = http.StatusNotFound
		case errors.ErrBadRequest:
			status = http.StatusBadRequest
		case errors.ErrUnauthorized:
			status = http.StatusUnauthorized
		case errors.ErrForbidden:
			status = http.StatusForbidden
		case errors.ErrConflict:
			status = http.StatusConflict
		}
	}

	c.JSON(status, Response{
		Success: false,
		Error:   &Error{Code: code, Message: message},
	})
}
