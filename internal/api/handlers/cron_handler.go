package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/service"
	"github.com/nsvirk/staffportalapi/pkg/utils/response"
)

// CronHandler runs scheduled jobs on demand
type CronHandler struct {
	CronService *service.CronService
}

func NewCronHandler(cronService *service.CronService) *CronHandler {
	return &CronHandler{CronService: cronService}
}

// PurgeSessions runs the expired-session purge now
func (h *CronHandler) PurgeSessions(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	result, err := h.CronService.RunSessionPurge(c.Request().Context(), p.UserID)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, result)
}
