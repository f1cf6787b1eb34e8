package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/internal/repository"
	"github.com/nsvirk/staffportalapi/pkg/utils/logger"
	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
)

const (
	// punchTimeLayout is the format of live punches
	punchTimeLayout = "15:04:05"
	// maxPeriodRunes matches the period column width
	maxPeriodRunes = 32
)

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)

// AttendanceService is the attendance ledger
type AttendanceService struct {
	users UserStore
	store AttendanceStore
	audit Auditor
	loc   *time.Location
	now   func() time.Time
}

// NewAttendanceService creates a new attendance service. loc decides the
// calendar day of a punch. audit may be nil.
func NewAttendanceService(users UserStore, store AttendanceStore, audit Auditor, loc *time.Location) *AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{
		users: users,
		store: store,
		audit: audit,
		loc:   loc,
		now:   time.Now,
	}
}

// Punch is the outcome of a live check-in or check-out
type Punch struct {
	UserID   uint   `json:"user_id"`
	WorkDate string `json:"work_date"`
	Period   string `json:"period"`
	Time     string `json:"time"`
}

// clock returns today's work date and the current time of day
func (s *AttendanceService) clock() (time.Time, string) {
	now := s.now().In(s.loc)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), now.Format(punchTimeLayout)
}

// target resolves the user an operation acts on. Zero means the caller.
func target(caller Principal, userID uint) (uint, error) {
	if userID == 0 {
		return caller.UserID, nil
	}
	if !caller.CanAccess(userID) {
		return 0, forbiddenError("Forbidden: Admin only")
	}
	return userID, nil
}

func normalizePeriod(period string) (string, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		return models.DefaultPeriod, nil
	}
	if !utf8.ValidString(period) || utf8.RuneCountInString(period) > maxPeriodRunes ||
		strings.IndexFunc(period, unicode.IsControl) >= 0 {
		return "", validationError("Invalid period %q", period)
	}
	return period, nil
}

// parseWorkDate parses a YYYY-MM-DD date into a UTC midnight
func parseWorkDate(date string) (time.Time, error) {
	d, err := time.Parse(models.WorkDateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, validationError("Invalid date %q, expected YYYY-MM-DD", date)
	}
	return d, nil
}

// CheckIn records a check-in for today. A repeated check-in overwrites the
// previous check-in time and leaves the check-out untouched.
func (s *AttendanceService) CheckIn(ctx context.Context, caller Principal, userID uint, period string) (*Punch, error) {
	uid, err := target(caller, userID)
	if err != nil {
		return nil, err
	}
	period, err = normalizePeriod(period)
	if err != nil {
		return nil, err
	}

	workDate, at := s.clock()
	if err := s.store.UpsertCheckIn(ctx, uid, workDate, period, at); err != nil {
		return nil, storageError(err)
	}
	return &Punch{UserID: uid, WorkDate: workDate.Format(models.WorkDateLayout), Period: period, Time: at}, nil
}

// CheckOut closes today's open check-in of the period. Without one it
// fails with ErrNoCheckInRecord.
func (s *AttendanceService) CheckOut(ctx context.Context, caller Principal, userID uint, period string) (*Punch, error) {
	uid, err := target(caller, userID)
	if err != nil {
		return nil, err
	}
	period, err = normalizePeriod(period)
	if err != nil {
		return nil, err
	}

	workDate, at := s.clock()
	n, err := s.store.CloseCheckIn(ctx, uid, workDate, period, at)
	if err != nil {
		return nil, storageError(err)
	}
	if n == 0 {
		return nil, ErrNoCheckInRecord
	}
	return &Punch{UserID: uid, WorkDate: workDate.Format(models.WorkDateLayout), Period: period, Time: at}, nil
}

// Today returns today's punches keyed as {period}_check_in_time and
// {period}_check_out_time. No records yields an empty map.
func (s *AttendanceService) Today(ctx context.Context, caller Principal, userID uint) (map[string]*string, error) {
	uid, err := target(caller, userID)
	if err != nil {
		return nil, err
	}

	workDate, _ := s.clock()
	records, err := s.store.ListByDate(ctx, uid, workDate)
	if err != nil {
		return nil, storageError(err)
	}

	out := make(map[string]*string, len(records)*2)
	for _, rec := range records {
		out[rec.Period+"_check_in_time"] = rec.CheckInTime
		out[rec.Period+"_check_out_time"] = rec.CheckOutTime
	}
	return out, nil
}

// PeriodPunches is one period of a day summary
type PeriodPunches struct {
	Period   string
	CheckIn  *string
	CheckOut *string
}

// DaySummary is the punches of one day of the month, ordered by period
type DaySummary struct {
	Day      int
	WorkDate string
	Periods  []PeriodPunches
}

// MarshalJSON flattens the periods into {period}_check_in_time keys
func (d DaySummary) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 2+len(d.Periods)*2)
	out["day"] = d.Day
	out["work_date"] = d.WorkDate
	for _, p := range d.Periods {
		out[p.Period+"_check_in_time"] = p.CheckIn
		out[p.Period+"_check_out_time"] = p.CheckOut
	}
	return json.Marshal(out)
}

// MonthSummary is a user's attendance for one calendar month. Days without
// records are omitted.
type MonthSummary struct {
	UserID  uint         `json:"user_id"`
	Year    int          `json:"year"`
	Month   int          `json:"month"`
	Records []DaySummary `json:"records"`
}

// Month returns the records dated in [year-month-01, next month's 01)
// grouped by day of month
func (s *AttendanceService) Month(ctx context.Context, caller Principal, userID uint, year, month int) (*MonthSummary, error) {
	uid, err := target(caller, userID)
	if err != nil {
		return nil, err
	}
	if year < 1970 || year > 9999 {
		return nil, validationError("Invalid year %d", year)
	}
	if month < 1 || month > 12 {
		return nil, validationError("Invalid month %d", month)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	records, err := s.store.ListRange(ctx, uid, from, to)
	if err != nil {
		return nil, storageError(err)
	}

	summary := &MonthSummary{UserID: uid, Year: year, Month: month, Records: []DaySummary{}}
	byDay := map[int]int{}
	for _, rec := range records {
		day := rec.WorkDate.UTC().Day()
		idx, ok := byDay[day]
		if !ok {
			summary.Records = append(summary.Records, DaySummary{
				Day:      day,
				WorkDate: rec.WorkDate.UTC().Format(models.WorkDateLayout),
			})
			idx = len(summary.Records) - 1
			byDay[day] = idx
		}
		summary.Records[idx].Periods = append(summary.Records[idx].Periods, PeriodPunches{
			Period:   rec.Period,
			CheckIn:  rec.CheckInTime,
			CheckOut: rec.CheckOutTime,
		})
	}

	sort.Slice(summary.Records, func(i, j int) bool { return summary.Records[i].Day < summary.Records[j].Day })
	for _, day := range summary.Records {
		sort.Slice(day.Periods, func(i, j int) bool { return day.Periods[i].Period < day.Periods[j].Period })
	}
	return summary, nil
}

// PunchPair is a caller-supplied pair of times for one period. A nil or
// empty time leaves the stored value unchanged.
type PunchPair struct {
	CheckIn  *string `json:"check_in"`
	CheckOut *string `json:"check_out"`
}

// ManualPunchInput is a bulk correction of one employee's day
type ManualPunchInput struct {
	EmployeeID uint
	Date       string
	Periods    map[string]PunchPair
}

// ManualCorrection writes the supplied punch times for an employee's day.
// Admin only. It returns the number of periods written.
func (s *AttendanceService) ManualCorrection(ctx context.Context, caller Principal, in ManualPunchInput) (int, error) {
	if !caller.IsAdmin() {
		return 0, forbiddenError("Forbidden: Admin only")
	}
	if in.EmployeeID == 0 {
		return 0, validationError("Missing employee_id")
	}
	workDate, err := parseWorkDate(in.Date)
	if err != nil {
		return 0, err
	}
	if len(in.Periods) == 0 {
		return 0, validationError("Missing periods")
	}

	names := make([]string, 0, len(in.Periods))
	for name := range in.Periods {
		names = append(names, name)
	}
	sort.Strings(names)

	corrections := make([]models.PeriodCorrection, 0, len(names))
	for _, name := range names {
		period, err := normalizePeriod(name)
		if err != nil {
			return 0, err
		}
		pair := in.Periods[name]
		checkIn, err := timeOfDay(pair.CheckIn)
		if err != nil {
			return 0, err
		}
		checkOut, err := timeOfDay(pair.CheckOut)
		if err != nil {
			return 0, err
		}
		if checkIn == nil && checkOut == nil {
			continue
		}
		corrections = append(corrections, models.PeriodCorrection{Period: period, CheckIn: checkIn, CheckOut: checkOut})
	}
	if len(corrections) == 0 {
		return 0, validationError("No punch times supplied")
	}

	if _, err := s.users.GetByID(ctx, in.EmployeeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, notFoundError("Employee not found")
		}
		return 0, storageError(err)
	}

	if err := s.store.ApplyCorrections(ctx, in.EmployeeID, workDate, corrections); err != nil {
		return 0, storageError(err)
	}

	zaplogger.Info("Manual punch applied", zaplogger.Fields{
		"admin_id":    caller.UserID,
		"employee_id": in.EmployeeID,
		"date":        in.Date,
		"periods":     len(corrections),
	})
	s.record(ctx, caller.UserID, logger.ManualPunch, map[string]interface{}{
		"employee_id": in.EmployeeID,
		"date":        workDate.Format(models.WorkDateLayout),
		"periods":     in.Periods,
	})
	return len(corrections), nil
}

// timeOfDay validates an optional HH:MM or HH:MM:SS value
func timeOfDay(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil, nil
	}
	if !timeOfDayPattern.MatchString(v) {
		return nil, validationError("Invalid time %q, expected HH:MM or HH:MM:SS", v)
	}
	return &v, nil
}

// RenamePeriodInput renames one period label of a day
type RenamePeriodInput struct {
	UserID uint
	Date   string
	From   string
	To     string
}

// RenamePeriod moves a day's record from one period label to another
func (s *AttendanceService) RenamePeriod(ctx context.Context, caller Principal, in RenamePeriodInput) error {
	uid, err := target(caller, in.UserID)
	if err != nil {
		return err
	}
	workDate, err := parseWorkDate(in.Date)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.From) == "" || strings.TrimSpace(in.To) == "" {
		return validationError("Missing fields")
	}
	from, err := normalizePeriod(in.From)
	if err != nil {
		return err
	}
	to, err := normalizePeriod(in.To)
	if err != nil {
		return err
	}
	if from == to {
		return validationError("Period names are identical")
	}

	n, err := s.store.RenamePeriod(ctx, uid, workDate, from, to)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return conflictError("Period already exists")
		}
		return storageError(err)
	}
	if n == 0 {
		return notFoundError("Attendance record not found")
	}

	s.record(ctx, caller.UserID, logger.PeriodRename, map[string]interface{}{
		"user_id": uid,
		"date":    workDate.Format(models.WorkDateLayout),
		"from":    from,
		"to":      to,
	})
	return nil
}

// WorkingStaff lists users with an open check-in today
func (s *AttendanceService) WorkingStaff(ctx context.Context) ([]models.WorkingStaffRow, error) {
	workDate, _ := s.clock()
	rows, err := s.store.ListWorkingStaff(ctx, workDate)
	if err != nil {
		return nil, storageError(err)
	}
	if rows == nil {
		rows = []models.WorkingStaffRow{}
	}
	return rows, nil
}

func (s *AttendanceService) record(ctx context.Context, actorID uint, action logger.Action, fields map[string]interface{}) {
	if s.audit != nil {
		s.audit.Record(ctx, actorID, action, fields)
	}
}
