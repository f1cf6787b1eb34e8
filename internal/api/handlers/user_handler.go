package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/service"
	"github.com/nsvirk/staffportalapi/pkg/utils/response"
)

// UserHandler is the handler for registration, rosters and profiles
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new handler for the user API
func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type registerRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	ChineseName string `json:"chinese_name"`
}

type createUserRequest struct {
	registerRequest
	Role string `json:"role" validate:"omitempty,oneof=employee admin"`
}

func (r registerRequest) input() service.RegisterInput {
	return service.RegisterInput{
		Name:        r.Name,
		Email:       r.Email,
		Password:    r.Password,
		ChineseName: r.ChineseName,
	}
}

// Register creates an employee account
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "Missing fields", err)
	}

	user, err := h.service.Register(c.Request().Context(), req.input())
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.CreatedResponse(c, map[string]interface{}{
		"ok":   true,
		"user": user,
	})
}

// CreateUser creates an account with an explicit role
func (h *UserHandler) CreateUser(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}

	var req createUserRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "Missing fields", err)
	}

	user, err := h.service.CreateUser(c.Request().Context(), p, req.input(), req.Role)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.CreatedResponse(c, map[string]interface{}{
		"ok":   true,
		"user": user,
	})
}

// Employees returns the roster ordered by name
func (h *UserHandler) Employees(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	employees, err := h.service.ListEmployees(c.Request().Context(), p)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{"employees": employees})
}

// ListUsers returns every profile
func (h *UserHandler) ListUsers(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	users, err := h.service.ListUsers(c.Request().Context(), p)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{"users": users})
}

// GetUser returns a profile by :id, or the caller's own for /users/me
func (h *UserHandler) GetUser(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	userID, err := h.targetID(c, p)
	if err != nil {
		return badRequest(c, "Invalid user id", err)
	}

	user, err := h.service.GetProfile(c.Request().Context(), p, userID)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{"user": user})
}

// UpdateUser applies the whitelisted profile fields of the body
func (h *UserHandler) UpdateUser(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	userID, err := h.targetID(c, p)
	if err != nil {
		return badRequest(c, "Invalid user id", err)
	}

	body := map[string]interface{}{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.service.UpdateProfile(c.Request().Context(), p, userID, body); err != nil {
		return HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":      true,
		"message": "User data updated successfully",
	})
}

func (h *UserHandler) targetID(c echo.Context, p service.Principal) (uint, error) {
	id := c.Param("id")
	if id == "" {
		return p.UserID, nil
	}
	return parseUserID(id)
}
