package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/internal/repository"
	"github.com/xuri/excelize/v2"
)

const timesheetSheet = "Attendance"

// ExportService renders monthly attendance as an xlsx timesheet
type ExportService struct {
	attendance *AttendanceService
	users      UserStore
}

// NewExportService creates a new export service
func NewExportService(attendance *AttendanceService, users UserStore) *ExportService {
	return &ExportService{attendance: attendance, users: users}
}

// Timesheet is a rendered workbook
type Timesheet struct {
	Filename string
	Data     []byte
}

// MonthTimesheet builds the workbook for one user and month. Authorization
// is the same as for Month.
func (s *ExportService) MonthTimesheet(ctx context.Context, caller Principal, userID uint, year, month int) (*Timesheet, error) {
	summary, err := s.attendance.Month(ctx, caller, userID, year, month)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, summary.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("User not found")
		}
		return nil, storageError(err)
	}

	data, err := renderTimesheet(user, summary)
	if err != nil {
		return nil, &Error{Kind: ErrStorage, Message: "Failed to render timesheet", Err: err}
	}
	return &Timesheet{
		Filename: fmt.Sprintf("attendance-%s-%04d-%02d.xlsx", user.Name, year, month),
		Data:     data,
	}, nil
}

// timesheetPeriods returns the period labels used anywhere in the month,
// sorted
func timesheetPeriods(summary *MonthSummary) []string {
	seen := map[string]bool{}
	for _, day := range summary.Records {
		for _, p := range day.Periods {
			seen[p.Period] = true
		}
	}
	if len(seen) == 0 {
		seen[models.DefaultPeriod] = true
	}
	periods := make([]string, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Strings(periods)
	return periods
}

// renderTimesheet writes one row per calendar day with an in and out
// column per period
func renderTimesheet(user *models.UserModel, summary *MonthSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(timesheetSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	title := fmt.Sprintf("%s %s  %04d-%02d", user.Name, user.ChineseName, summary.Year, summary.Month)
	if err := f.SetCellValue(timesheetSheet, "A1", title); err != nil {
		return nil, err
	}

	periods := timesheetPeriods(summary)
	headers := []string{"Day", "Date"}
	for _, p := range periods {
		headers = append(headers, p+" In", p+" Out")
	}
	for col, header := range headers {
		if err := setCell(f, col+1, 2, header); err != nil {
			return nil, err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 2)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(timesheetSheet, "A2", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	byDay := make(map[int]DaySummary, len(summary.Records))
	for _, day := range summary.Records {
		byDay[day.Day] = day
	}

	first := time.Date(summary.Year, time.Month(summary.Month), 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		row := d.Day() + 2
		if err := setCell(f, 1, row, d.Day()); err != nil {
			return nil, err
		}
		if err := setCell(f, 2, row, d.Format(models.WorkDateLayout)); err != nil {
			return nil, err
		}

		punches := map[string]PeriodPunches{}
		for _, p := range byDay[d.Day()].Periods {
			punches[p.Period] = p
		}
		for i, period := range periods {
			p, ok := punches[period]
			if !ok {
				continue
			}
			if p.CheckIn != nil {
				if err := setCell(f, 3+i*2, row, *p.CheckIn); err != nil {
					return nil, err
				}
			}
			if p.CheckOut != nil {
				if err := setCell(f, 4+i*2, row, *p.CheckOut); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := f.SetColWidth(timesheetSheet, "B", "B", 12); err != nil {
		return nil, err
	}
	if err := f.SetPanes(timesheetSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(timesheetSheet, cell, value)
}
