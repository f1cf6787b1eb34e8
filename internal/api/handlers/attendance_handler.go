package handlers

import (
	"context"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/service"
	"github.com/nsvirk/staffportalapi/pkg/utils/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceHandler is the handler for punches and attendance reports
type AttendanceHandler struct {
	service *service.AttendanceService
	export  *service.ExportService
}

// NewAttendanceHandler creates a new handler for the attendance API
func NewAttendanceHandler(service *service.AttendanceService, export *service.ExportService) *AttendanceHandler {
	return &AttendanceHandler{service: service, export: export}
}

type punchRequest struct {
	UserID uint   `json:"user_id"`
	Period string `json:"period"`
}

type manualPunchRequest struct {
	EmployeeID uint                         `json:"employee_id" validate:"required"`
	Date       string                       `json:"date" validate:"required"`
	Periods    map[string]service.PunchPair `json:"periods" validate:"required"`
}

type renamePeriodRequest struct {
	UserID    uint   `json:"user_id"`
	Date      string `json:"date" validate:"required"`
	OldPeriod string `json:"old_period" validate:"required"`
	NewPeriod string `json:"new_period" validate:"required"`
}

// CheckIn records a check-in for today
func (h *AttendanceHandler) CheckIn(c echo.Context) error {
	return h.punch(c, "Checked in", h.service.CheckIn)
}

// CheckOut closes today's open check-in
func (h *AttendanceHandler) CheckOut(c echo.Context) error {
	return h.punch(c, "Checked out", h.service.CheckOut)
}

type punchFunc func(ctx context.Context, caller service.Principal, userID uint, period string) (*service.Punch, error)

func (h *AttendanceHandler) punch(c echo.Context, message string, fn punchFunc) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}

	var req punchRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	result, err := fn(c.Request().Context(), p, req.UserID, req.Period)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{
		"ok":      true,
		"message": message,
		"punch":   result,
	})
}

// Today returns today's punches keyed by period
func (h *AttendanceHandler) Today(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	userID, err := parseUserID(c.QueryParam("user_id"))
	if err != nil {
		return badRequest(c, "Invalid user_id", err)
	}

	today, err := h.service.Today(c.Request().Context(), p, userID)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, today)
}

type monthQuery struct {
	userID uint
	year   int
	month  int
}

func bindMonthQuery(c echo.Context) (monthQuery, error) {
	var q monthQuery
	err := echo.QueryParamsBinder(c).
		Uint("user_id", &q.userID).
		MustInt("year", &q.year).
		MustInt("month", &q.month).
		BindError()
	return q, err
}

// Month returns a user's month grouped by day
func (h *AttendanceHandler) Month(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	q, err := bindMonthQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters", err)
	}

	summary, err := h.service.Month(c.Request().Context(), p, q.userID, q.year, q.month)
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, summary)
}

// ExportMonth returns a user's month as an xlsx timesheet
func (h *AttendanceHandler) ExportMonth(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}
	q, err := bindMonthQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters", err)
	}

	sheet, err := h.export.MonthTimesheet(c.Request().Context(), p, q.userID, q.year, q.month)
	if err != nil {
		return HandleServiceError(c, err)
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": sheet.Filename})
	c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return c.Blob(http.StatusOK, xlsxContentType, sheet.Data)
}

// ManualPunch writes admin-supplied punch times for an employee's day
func (h *AttendanceHandler) ManualPunch(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}

	var req manualPunchRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "Missing fields", err)
	}

	n, err := h.service.ManualCorrection(c.Request().Context(), p, service.ManualPunchInput{
		EmployeeID: req.EmployeeID,
		Date:       req.Date,
		Periods:    req.Periods,
	})
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{
		"ok":              true,
		"message":         "Manual punch saved",
		"periods_updated": n,
	})
}

// RenamePeriod relabels a period of one day
func (h *AttendanceHandler) RenamePeriod(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return HandleServiceError(c, err)
	}

	var req renamePeriodRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "Missing fields", err)
	}

	err = h.service.RenamePeriod(c.Request().Context(), p, service.RenamePeriodInput{
		UserID: req.UserID,
		Date:   req.Date,
		From:   req.OldPeriod,
		To:     req.NewPeriod,
	})
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{
		"ok":      true,
		"message": "Period renamed",
	})
}

// WorkingStaff lists users with an open check-in today
func (h *AttendanceHandler) WorkingStaff(c echo.Context) error {
	rows, err := h.service.WorkingStaff(c.Request().Context())
	if err != nil {
		return HandleServiceError(c, err)
	}
	return response.SuccessResponse(c, map[string]interface{}{"working_staff": rows})
}
