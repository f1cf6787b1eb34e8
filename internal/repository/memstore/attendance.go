package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/internal/repository"
)

type cellKey struct {
	userID   uint
	workDate string
	period   string
}

// Attendance is an in-memory AttendanceRepository that keeps
// the same one-row-per-cell guarantee as the unique index
type Attendance struct {
	mu      sync.Mutex
	nextID  uint
	records map[cellKey]*models.AttendanceModel
	users   *Users
}

// NewAttendance creates the repository; users is consulted
// for the working staff join and may be nil
func NewAttendance(users *Users) *Attendance {
	return &Attendance{records: map[cellKey]*models.AttendanceModel{}, users: users}
}

func keyOf(userID uint, workDate time.Time, period string) cellKey {
	return cellKey{userID: userID, workDate: workDate.Format(models.WorkDateLayout), period: period}
}

// cell returns the record for the key, creating an empty one when absent
func (r *Attendance) cell(userID uint, workDate time.Time, period string) *models.AttendanceModel {
	k := keyOf(userID, workDate, period)
	rec, ok := r.records[k]
	if !ok {
		r.nextID++
		rec = &models.AttendanceModel{ID: r.nextID, UserID: userID, WorkDate: workDate, Period: period, CreatedAt: time.Now()}
		r.records[k] = rec
	}
	return rec
}

func (r *Attendance) UpsertCheckIn(_ context.Context, userID uint, workDate time.Time, period, at string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.cell(userID, workDate, period)
	rec.CheckInTime = &at
	rec.UpdatedAt = time.Now()
	return nil
}

func (r *Attendance) CloseCheckIn(_ context.Context, userID uint, workDate time.Time, period, at string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[keyOf(userID, workDate, period)]
	if !ok || rec.CheckInTime == nil || rec.CheckOutTime != nil {
		return 0, nil
	}
	rec.CheckOutTime = &at
	rec.UpdatedAt = time.Now()
	return 1, nil
}

func (r *Attendance) ApplyCorrections(_ context.Context, userID uint, workDate time.Time, corrections []models.PeriodCorrection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range corrections {
		rec := r.cell(userID, workDate, c.Period)
		if c.CheckIn != nil {
			v := *c.CheckIn
			rec.CheckInTime = &v
		}
		if c.CheckOut != nil {
			v := *c.CheckOut
			rec.CheckOutTime = &v
		}
		rec.UpdatedAt = time.Now()
	}
	return nil
}

func (r *Attendance) ListByDate(_ context.Context, userID uint, workDate time.Time) ([]models.AttendanceModel, error) {
	day := workDate.Format(models.WorkDateLayout)
	return r.collect(func(k cellKey) bool { return k.userID == userID && k.workDate == day }), nil
}

func (r *Attendance) ListRange(_ context.Context, userID uint, from, to time.Time) ([]models.AttendanceModel, error) {
	return r.collect(func(k cellKey) bool {
		if k.userID != userID {
			return false
		}
		d, _ := time.Parse(models.WorkDateLayout, k.workDate)
		return !d.Before(from) && d.Before(to)
	}), nil
}

func (r *Attendance) collect(match func(cellKey) bool) []models.AttendanceModel {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AttendanceModel
	for k, rec := range r.records {
		if match(k) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WorkDate.Equal(out[j].WorkDate) {
			return out[i].WorkDate.Before(out[j].WorkDate)
		}
		return out[i].Period < out[j].Period
	})
	return out
}

func (r *Attendance) RenamePeriod(_ context.Context, userID uint, workDate time.Time, from, to string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.records[keyOf(userID, workDate, from)]
	if !ok {
		return 0, nil
	}
	dst := keyOf(userID, workDate, to)
	if _, exists := r.records[dst]; exists {
		return 0, repository.ErrDuplicateEntry
	}
	delete(r.records, keyOf(userID, workDate, from))
	src.Period = to
	src.UpdatedAt = time.Now()
	r.records[dst] = src
	return 1, nil
}

func (r *Attendance) ListWorkingStaff(ctx context.Context, workDate time.Time) ([]models.WorkingStaffRow, error) {
	day := workDate.Format(models.WorkDateLayout)

	r.mu.Lock()
	earliest := map[uint]string{}
	for k, rec := range r.records {
		if k.workDate != day || rec.CheckInTime == nil || rec.CheckOutTime != nil {
			continue
		}
		if cur, ok := earliest[k.userID]; !ok || *rec.CheckInTime < cur {
			earliest[k.userID] = *rec.CheckInTime
		}
	}
	r.mu.Unlock()

	rows := make([]models.WorkingStaffRow, 0, len(earliest))
	for userID, checkIn := range earliest {
		row := models.WorkingStaffRow{UserID: userID, CheckInTime: checkIn}
		if r.users != nil {
			u, err := r.users.GetByID(ctx, userID)
			if err != nil {
				continue
			}
			row.Name, row.ChineseName = u.Name, u.ChineseName
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}
