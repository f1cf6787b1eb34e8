package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/service"
	"github.com/nsvirk/staffportalapi/pkg/utils/response"
)

// SessionCookieName is the cookie carrying the session id
const SessionCookieName = "session_id"

const principalKey = "principal"

// Authenticator resolves a session id to the calling user
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (service.Principal, error)
}

// RequireSession rejects requests without a valid session cookie and stores
// the caller's Principal in the echo context
func RequireSession(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID := SessionID(c)
			if sessionID == "" {
				return response.ErrorResponse(c, http.StatusUnauthorized, "Not logged in", "")
			}

			principal, err := auth.Authenticate(c.Request().Context(), sessionID)
			if err != nil {
				return rejectSession(c, err)
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// RequireAdmin rejects callers without the admin role. It must run after RequireSession.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, ok := GetPrincipal(c)
		if !ok {
			return response.ErrorResponse(c, http.StatusUnauthorized, "Not logged in", "")
		}
		if !principal.IsAdmin() {
			return response.ErrorResponse(c, http.StatusForbidden, "Forbidden: Admin only", "")
		}
		return next(c)
	}
}

// GetPrincipal returns the caller stored by RequireSession
func GetPrincipal(c echo.Context) (service.Principal, bool) {
	principal, ok := c.Get(principalKey).(service.Principal)
	return principal, ok
}

// SessionID returns the session cookie value, or "" when absent
func SessionID(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func rejectSession(c echo.Context, err error) error {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		return response.ErrorResponse(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
	if errors.Is(err, service.ErrUnauthenticated) || errors.Is(err, service.ErrSessionExpired) {
		return response.ErrorResponse(c, http.StatusUnauthorized, svcErr.Message, "")
	}
	return response.ErrorResponse(c, http.StatusInternalServerError, svcErr.Message, svcErr.Detail())
}
