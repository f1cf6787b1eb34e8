package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/pkg/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInCheckOut_Today(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)
	p := f.principal(alice)

	punch, err := f.attendanceService.CheckIn(ctx, p, 0, "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPeriod, punch.Period)
	assert.Equal(t, "2024-03-01", punch.WorkDate)
	assert.Equal(t, "09:30:00", punch.Time)

	// a second check-in before check-out only moves the check-in
	f.attendanceService.now = func() time.Time { return testNow.Add(5 * time.Minute) }
	_, err = f.attendanceService.CheckIn(ctx, p, 0, "")
	require.NoError(t, err)

	today, err := f.attendanceService.Today(ctx, p, 0)
	require.NoError(t, err)
	require.NotNil(t, today["period1_check_in_time"])
	assert.Equal(t, "09:35:00", *today["period1_check_in_time"])
	assert.Nil(t, today["period1_check_out_time"])

	f.attendanceService.now = func() time.Time { return testNow.Add(8 * time.Hour) }
	_, err = f.attendanceService.CheckOut(ctx, p, 0, "")
	require.NoError(t, err)

	today, err = f.attendanceService.Today(ctx, p, 0)
	require.NoError(t, err)
	assert.Equal(t, "09:35:00", *today["period1_check_in_time"])
	assert.Equal(t, "17:30:00", *today["period1_check_out_time"])
}

func TestCheckOut_RequiresOpenCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)
	p := f.principal(alice)

	_, err := f.attendanceService.CheckOut(ctx, p, 0, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, ErrNoCheckInRecord, err)

	_, err = f.attendanceService.CheckIn(ctx, p, 0, "afternoon")
	require.NoError(t, err)
	_, err = f.attendanceService.CheckOut(ctx, p, 0, "afternoon")
	require.NoError(t, err)

	// already closed
	_, err = f.attendanceService.CheckOut(ctx, p, 0, "afternoon")
	assert.Equal(t, ErrNoCheckInRecord, err)

	today, err := f.attendanceService.Today(ctx, p, 0)
	require.NoError(t, err)
	assert.Len(t, today, 2, "no orphan period1 row")
}

func TestPunch_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "root", "root@x.com", "pw", models.RoleAdmin)
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)
	bob := f.seedUser(t, "bob", "b@x.com", "pw", models.RoleEmployee)

	_, err := f.attendanceService.CheckIn(ctx, f.principal(bob), alice.ID, "")
	requireKind(t, err, ErrForbidden, "Forbidden: Admin only")
	_, err = f.attendanceService.Today(ctx, f.principal(bob), alice.ID)
	requireKind(t, err, ErrForbidden, "Forbidden: Admin only")

	punch, err := f.attendanceService.CheckIn(ctx, f.principal(admin), alice.ID, "")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, punch.UserID)

	_, err = f.attendanceService.CheckIn(ctx, f.principal(alice), 0, "bad\nperiod")
	requireKind(t, err, ErrValidation, `Invalid period "bad\nperiod"`)
	_, err = f.attendanceService.CheckIn(ctx, f.principal(alice), 0, strings.Repeat("班", 33))
	require.ErrorIs(t, err, ErrValidation)
}

func TestPeriodLabels_AreFreeForm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "boss", "b@x.com", "pw", models.RoleAdmin)
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)
	caller := f.principal(alice)

	punch, err := f.attendanceService.CheckIn(ctx, caller, 0, " 早班 ")
	require.NoError(t, err)
	assert.Equal(t, "早班", punch.Period)
	_, err = f.attendanceService.CheckOut(ctx, caller, 0, "早班")
	require.NoError(t, err)

	_, err = f.attendanceService.CheckIn(ctx, caller, 0, strings.Repeat("班", 32))
	require.NoError(t, err)

	today, err := f.attendanceService.Today(ctx, caller, 0)
	require.NoError(t, err)
	require.NotNil(t, today["早班_check_in_time"])
	require.NotNil(t, today["早班_check_out_time"])

	n, err := f.attendanceService.ManualCorrection(ctx, f.principal(admin), ManualPunchInput{
		EmployeeID: alice.ID,
		Date:       "2024-03-04",
		Periods:    map[string]PunchPair{"morning shift": {CheckIn: strPtr("08:00")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = f.attendanceService.RenamePeriod(ctx, caller, RenamePeriodInput{Date: "2024-03-04", From: "morning shift", To: "晚班"})
	require.NoError(t, err)

	summary, err := f.attendanceService.Month(ctx, caller, 0, 2024, 3)
	require.NoError(t, err)
	require.Len(t, summary.Records, 2)
	assert.Len(t, summary.Records[0].Periods, 2)
	assert.Equal(t, 4, summary.Records[1].Day)
	assert.Equal(t, "晚班", summary.Records[1].Periods[0].Period)
}

func TestToday_EmptyAndTimezone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)
	p := f.principal(alice)

	today, err := f.attendanceService.Today(ctx, p, 0)
	require.NoError(t, err)
	assert.Empty(t, today)

	// 23:30 UTC is already the next day at UTC+8
	f.attendanceService.loc = time.FixedZone("UTC+8", 8*60*60)
	f.attendanceService.now = func() time.Time { return time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC) }
	punch, err := f.attendanceService.CheckIn(ctx, p, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", punch.WorkDate)
	assert.Equal(t, "07:30:00", punch.Time)
}

func TestMonth_RangeAndGrouping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "root", "root@x.com", "pw", models.RoleAdmin)
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)

	seed := func(date, period, in string) {
		d, err := time.Parse(models.WorkDateLayout, date)
		require.NoError(t, err)
		require.NoError(t, f.attendance.UpsertCheckIn(ctx, alice.ID, d, period, in))
	}
	seed("2024-02-29", "period1", "08:00:00")
	seed("2024-03-01", "period2", "13:00:00")
	seed("2024-03-01", "period1", "08:00:00")
	seed("2024-03-15", "period1", "08:10:00")
	seed("2024-03-31", "period1", "08:20:00")
	seed("2024-04-01", "period1", "08:30:00")

	summary, err := f.attendanceService.Month(ctx, f.principal(alice), 0, 2024, 3)
	require.NoError(t, err)
	require.Len(t, summary.Records, 3)
	assert.Equal(t, []int{1, 15, 31}, []int{summary.Records[0].Day, summary.Records[1].Day, summary.Records[2].Day})
	require.Len(t, summary.Records[0].Periods, 2)
	assert.Equal(t, "period1", summary.Records[0].Periods[0].Period)
	assert.Equal(t, "period2", summary.Records[0].Periods[1].Period)

	// another user's month needs admin
	bob := f.seedUser(t, "bob", "b@x.com", "pw", models.RoleEmployee)
	_, err = f.attendanceService.Month(ctx, f.principal(bob), alice.ID, 2024, 3)
	requireKind(t, err, ErrForbidden, "Forbidden: Admin only")

	summary, err = f.attendanceService.Month(ctx, f.principal(admin), alice.ID, 2024, 3)
	require.NoError(t, err)
	assert.Len(t, summary.Records, 3)

	empty, err := f.attendanceService.Month(ctx, f.principal(bob), 0, 2024, 3)
	require.NoError(t, err)
	assert.NotNil(t, empty.Records)
	assert.Empty(t, empty.Records)

	_, err = f.attendanceService.Month(ctx, f.principal(alice), 0, 2024, 13)
	requireKind(t, err, ErrValidation, "Invalid month 13")
}

func TestMonth_JSONShape(t *testing.T) {
	day := DaySummary{
		Day:      1,
		WorkDate: "2024-03-01",
		Periods:  []PeriodPunches{{Period: "period1", CheckIn: strPtr("08:00"), CheckOut: nil}},
	}
	raw, err := json.Marshal(day)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":1,"work_date":"2024-03-01","period1_check_in_time":"08:00","period1_check_out_time":null}`, string(raw))
}

func TestManualCorrection_ThenMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "root", "root@x.com", "pw", models.RoleAdmin)
	for _, name := range []string{"u2", "u3", "u4", "u5"} {
		f.seedUser(t, name, name+"@x.com", "pw", models.RoleEmployee)
	}

	n, err := f.attendanceService.ManualCorrection(ctx, f.principal(admin), ManualPunchInput{
		EmployeeID: 5,
		Date:       "2024-03-01",
		Periods: map[string]PunchPair{
			"period1": {CheckIn: strPtr("08:00"), CheckOut: strPtr("17:00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	summary, err := f.attendanceService.Month(ctx, f.principal(admin), 5, 2024, 3)
	require.NoError(t, err)
	require.Len(t, summary.Records, 1)
	raw, err := json.Marshal(summary.Records[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":1,"work_date":"2024-03-01","period1_check_in_time":"08:00","period1_check_out_time":"17:00"}`, string(raw))

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, logger.ManualPunch, f.audit.entries[0].action)
	assert.Equal(t, admin.ID, f.audit.entries[0].actorID)
}

func TestManualCorrection_PartialAndReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "root", "root@x.com", "pw", models.RoleAdmin)
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)
	p := f.principal(admin)

	_, err := f.attendanceService.ManualCorrection(ctx, p, ManualPunchInput{
		EmployeeID: alice.ID,
		Date:       "2024-03-01",
		Periods:    map[string]PunchPair{"period1": {CheckIn: strPtr("08:00"), CheckOut: strPtr("12:00")}},
	})
	require.NoError(t, err)

	// only check_out supplied, an empty check_in keeps the stored value
	_, err = f.attendanceService.ManualCorrection(ctx, p, ManualPunchInput{
		EmployeeID: alice.ID,
		Date:       "2024-03-01",
		Periods: map[string]PunchPair{
			"period1": {CheckIn: strPtr(""), CheckOut: strPtr("12:30:15")},
			"period2": {},
		},
	})
	require.NoError(t, err)

	records, err := f.attendance.ListByDate(ctx, alice.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 1, "empty periods are skipped")
	assert.Equal(t, "08:00", *records[0].CheckInTime)
	assert.Equal(t, "12:30:15", *records[0].CheckOutTime)
	assert.Equal(t, models.CellComplete, records[0].State())
}

func TestManualCorrection_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "root", "root@x.com", "pw", models.RoleAdmin)
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)
	periods := map[string]PunchPair{"period1": {CheckIn: strPtr("08:00")}}

	_, err := f.attendanceService.ManualCorrection(ctx, f.principal(alice), ManualPunchInput{EmployeeID: alice.ID, Date: "2024-03-01", Periods: periods})
	requireKind(t, err, ErrForbidden, "Forbidden: Admin only")

	_, err = f.attendanceService.ManualCorrection(ctx, f.principal(admin), ManualPunchInput{EmployeeID: alice.ID, Date: "03/01/2024", Periods: periods})
	requireKind(t, err, ErrValidation, `Invalid date "03/01/2024", expected YYYY-MM-DD`)

	_, err = f.attendanceService.ManualCorrection(ctx, f.principal(admin), ManualPunchInput{
		EmployeeID: alice.ID,
		Date:       "2024-03-01",
		Periods:    map[string]PunchPair{"period1": {CheckIn: strPtr("25:00")}},
	})
	requireKind(t, err, ErrValidation, `Invalid time "25:00", expected HH:MM or HH:MM:SS`)

	_, err = f.attendanceService.ManualCorrection(ctx, f.principal(admin), ManualPunchInput{
		EmployeeID: alice.ID,
		Date:       "2024-03-01",
		Periods:    map[string]PunchPair{"period1": {}},
	})
	requireKind(t, err, ErrValidation, "No punch times supplied")

	_, err = f.attendanceService.ManualCorrection(ctx, f.principal(admin), ManualPunchInput{EmployeeID: 99, Date: "2024-03-01", Periods: periods})
	requireKind(t, err, ErrNotFound, "Employee not found")
}

func TestRenamePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)
	p := f.principal(alice)

	_, err := f.attendanceService.CheckIn(ctx, p, 0, "period1")
	require.NoError(t, err)
	_, err = f.attendanceService.CheckIn(ctx, p, 0, "period2")
	require.NoError(t, err)

	err = f.attendanceService.RenamePeriod(ctx, p, RenamePeriodInput{Date: "2024-03-01", From: "period1", To: "period2"})
	requireKind(t, err, ErrConflict, "Period already exists")

	err = f.attendanceService.RenamePeriod(ctx, p, RenamePeriodInput{Date: "2024-03-01", From: "period9", To: "morning"})
	requireKind(t, err, ErrNotFound, "Attendance record not found")

	require.NoError(t, f.attendanceService.RenamePeriod(ctx, p, RenamePeriodInput{Date: "2024-03-01", From: "period1", To: "morning"}))

	today, err := f.attendanceService.Today(ctx, p, 0)
	require.NoError(t, err)
	assert.Contains(t, today, "morning_check_in_time")
	assert.NotContains(t, today, "period1_check_in_time")
	assert.Equal(t, []logger.Action{logger.PeriodRename}, f.audit.actions())
}

func TestWorkingStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", "a@x.com", "pw", models.RoleEmployee)
	bob := f.seedUser(t, "bob", "b@x.com", "pw", models.RoleEmployee)

	_, err := f.attendanceService.CheckIn(ctx, f.principal(alice), 0, "")
	require.NoError(t, err)
	_, err = f.attendanceService.CheckIn(ctx, f.principal(bob), 0, "")
	require.NoError(t, err)
	_, err = f.attendanceService.CheckOut(ctx, f.principal(bob), 0, "")
	require.NoError(t, err)

	rows, err := f.attendanceService.WorkingStaff(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Name)
	assert.Equal(t, "09:30:00", rows[0].CheckInTime)
}
