// Package handlers contains the handlers for the API
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/api/middleware"
	"github.com/nsvirk/staffportalapi/internal/service"
	"github.com/nsvirk/staffportalapi/pkg/utils/response"
	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
)

// statusOf maps a service error kind to its HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleServiceError renders err as {error, detail?}
func HandleServiceError(c echo.Context, err error) error {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = &service.Error{Kind: service.ErrStorage, Message: "Internal Server Error", Err: err}
	}

	status := statusOf(svcErr)
	if status == http.StatusInternalServerError {
		zaplogger.Error(svcErr.Message, zaplogger.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
			"error":  svcErr.Detail(),
		})
	}
	return response.ErrorResponse(c, status, svcErr.Message, svcErr.Detail())
}

// badRequest renders a 400 for a malformed request
func badRequest(c echo.Context, message string, err error) error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return response.ErrorResponse(c, http.StatusBadRequest, message, detail)
}

// HTTPErrorHandler renders router and middleware errors in the same shape
// as handler errors
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		// an unmatched method on a known path is an unknown route
		if he.Code == http.StatusMethodNotAllowed {
			he = echo.ErrNotFound
			c.Response().Header().Del(echo.HeaderAllow)
		}
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && he.Code < http.StatusInternalServerError {
			message = m
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = response.ErrorResponse(c, he.Code, message, "")
		}
		if err != nil {
			zaplogger.Error("Failed to write error response", zaplogger.Fields{"error": err.Error()})
		}
		return
	}

	if err := HandleServiceError(c, err); err != nil {
		zaplogger.Error("Failed to write error response", zaplogger.Fields{"error": err.Error()})
	}
}

// parseUserID parses an optional numeric id. Empty yields zero.
func parseUserID(value string) (uint, error) {
	if value == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("user id must be a positive integer")
	}
	return uint(id), nil
}

// principal returns the caller set by the session middleware
func principal(c echo.Context) (service.Principal, error) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return service.Principal{}, &service.Error{Kind: service.ErrUnauthenticated, Message: "Not logged in"}
	}
	return p, nil
}
