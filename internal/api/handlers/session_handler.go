package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/api/middleware"
	"github.com/nsvirk/staffportalapi/internal/service"
	"github.com/nsvirk/staffportalapi/pkg/utils/response"
)

// SessionHandler is the handler for login, logout and /me
type SessionHandler struct {
	service *service.SessionService
}

// NewSessionHandler creates a new handler for the session API
func NewSessionHandler(service *service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Login checks the credentials, sets the session cookie and returns the user
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	result, err := h.service.Login(c.Request().Context(), service.LoginInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return HandleServiceError(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.Session.ID,
		Path:     "/",
		Expires:  result.Session.ExpiresAt,
		MaxAge:   int(h.service.TTL() / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	return response.SuccessResponse(c, map[string]interface{}{
		"ok":   true,
		"user": result.User,
	})
}

// Logout deletes the session and clears the cookie
func (h *SessionHandler) Logout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context(), middleware.SessionID(c)); err != nil {
		return HandleServiceError(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	return response.SuccessResponse(c, map[string]interface{}{"ok": true})
}

// Me returns the caller's identity
func (h *SessionHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	user, err := h.service.Me(c.Request().Context(), p)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{
		"ok":   true,
		"user": user,
	})
}
