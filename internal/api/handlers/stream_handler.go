package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/service"
)

// StreamHandler is the handler for the live punch feed
type StreamHandler struct {
	service *service.StreamService
}

// NewStreamHandler creates a new handler for the stream API
func NewStreamHandler(service *service.StreamService) *StreamHandler {
	return &StreamHandler{service: service}
}

// StreamPunches relays attendance writes as server-sent events
func (h *StreamHandler) StreamPunches(c echo.Context) error {
	if err := h.service.RunPunchStream(c.Request().Context(), c); err != nil {
		return HandleServiceError(c, err)
	}
	return nil
}
