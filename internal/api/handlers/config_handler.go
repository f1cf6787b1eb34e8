package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/service"
	"github.com/nsvirk/staffportalapi/pkg/utils/response"
)

// ConfigHandler is the handler for the configuration store
type ConfigHandler struct {
	service *service.ConfigService
}

// NewConfigHandler creates a new handler for the config API
func NewConfigHandler(service *service.ConfigService) *ConfigHandler {
	return &ConfigHandler{service: service}
}

type configValueRequest struct {
	Value *string `json:"value" validate:"required"`
}

// List returns every entry
func (h *ConfigHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	entries, err := h.service.List(c.Request().Context(), p)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{"entries": entries})
}

// Get returns the entry for :key
func (h *ConfigHandler) Get(c echo.Context) error {
	entry, err := h.service.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, entry)
}

// Put creates or replaces the entry for :key
func (h *ConfigHandler) Put(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}

	var req configValueRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "Missing fields", err)
	}

	entry, err := h.service.Set(c.Request().Context(), p, c.Param("key"), *req.Value)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, entry)
}

// Delete removes the entry for :key
func (h *ConfigHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	if err := h.service.Delete(c.Request().Context(), p, c.Param("key")); err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{"ok": true})
}
