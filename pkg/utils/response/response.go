// Package response contains response utility functions and types
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the uniform error payload returned by every endpoint
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// SuccessResponse sends a 200 JSON response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// CreatedResponse sends a 201 JSON response
func CreatedResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

// ErrorResponse sends an error JSON response, detail is omitted when empty
func ErrorResponse(c echo.Context, httpStatus int, message, detail string) error {
	return c.JSON(httpStatus, ErrorBody{
		Error:  message,
		Detail: detail,
	})
}
