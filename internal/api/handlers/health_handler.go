package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/pkg/utils/response"
)

// HealthHandler answers liveness probes
type HealthHandler struct {
	message string
}

// NewHealthHandler creates a health handler reporting the app name and version
func NewHealthHandler(appName, appVersion string) *HealthHandler {
	return &HealthHandler{message: appName + " " + appVersion + " is alive"}
}

// Health reports that the server is up
func (h *HealthHandler) Health(c echo.Context) error {
	return response.SuccessResponse(c, map[string]interface{}{
		"ok":      true,
		"message": h.message,
	})
}
