package repository

import (
	"context"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cellColumns is the unique key of an attendance cell
var cellColumns = []clause.Column{{Name: "user_id"}, {Name: "work_date"}, {Name: "period"}}

// AttendanceRepository is the database repository for the attendance ledger
type AttendanceRepository struct {
	DB *gorm.DB
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

// UpsertCheckIn sets the check-in time of a cell, creating the cell when absent
func (r *AttendanceRepository) UpsertCheckIn(ctx context.Context, userID uint, workDate time.Time, period, at string) error {
	record := models.AttendanceModel{
		UserID:      userID,
		WorkDate:    workDate,
		Period:      period,
		CheckInTime: &at,
	}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   cellColumns,
		DoUpdates: clause.AssignmentColumns([]string{"check_in_time", "updated_at"}),
	}).Create(&record).Error
	return translateError(err)
}

// CloseCheckIn sets the check-out time on a cell that has a check-in and no
// check-out yet. Zero rows affected means there was no open check-in.
func (r *AttendanceRepository) CloseCheckIn(ctx context.Context, userID uint, workDate time.Time, period, at string) (int64, error) {
	result := r.DB.WithContext(ctx).
		Model(&models.AttendanceModel{}).
		Where("user_id = ? AND work_date = ? AND period = ?", userID, workDate, period).
		Where("check_in_time IS NOT NULL AND check_out_time IS NULL").
		Updates(map[string]interface{}{"check_out_time": at})
	return result.RowsAffected, result.Error
}

// ApplyCorrections upserts every correction for one user and date inside a
// single transaction. Only the supplied times are overwritten on conflict.
func (r *AttendanceRepository) ApplyCorrections(ctx context.Context, userID uint, workDate time.Time, corrections []models.PeriodCorrection) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, correction := range corrections {
			columns := []string{"updated_at"}
			if correction.CheckIn != nil {
				columns = append(columns, "check_in_time")
			}
			if correction.CheckOut != nil {
				columns = append(columns, "check_out_time")
			}

			record := models.AttendanceModel{
				UserID:       userID,
				WorkDate:     workDate,
				Period:       correction.Period,
				CheckInTime:  correction.CheckIn,
				CheckOutTime: correction.CheckOut,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   cellColumns,
				DoUpdates: clause.AssignmentColumns(columns),
			}).Create(&record).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(err)
}

// ListByDate returns every period of one user's day
func (r *AttendanceRepository) ListByDate(ctx context.Context, userID uint, workDate time.Time) ([]models.AttendanceModel, error) {
	var records []models.AttendanceModel
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND work_date = ?", userID, workDate).
		Order("period").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListRange returns one user's records with from <= work_date < to
func (r *AttendanceRepository) ListRange(ctx context.Context, userID uint, from, to time.Time) ([]models.AttendanceModel, error) {
	var records []models.AttendanceModel
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND work_date >= ? AND work_date < ?", userID, from, to).
		Order("work_date, period").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// RenamePeriod relabels one cell. A clash with an existing label surfaces
// as ErrDuplicateEntry from the unique index.
func (r *AttendanceRepository) RenamePeriod(ctx context.Context, userID uint, workDate time.Time, from, to string) (int64, error) {
	result := r.DB.WithContext(ctx).
		Model(&models.AttendanceModel{}).
		Where("user_id = ? AND work_date = ? AND period = ?", userID, workDate, from).
		Updates(map[string]interface{}{"period": to})
	return result.RowsAffected, translateError(result.Error)
}

// ListWorkingStaff returns users with an open check-in on the given date
func (r *AttendanceRepository) ListWorkingStaff(ctx context.Context, workDate time.Time) ([]models.WorkingStaffRow, error) {
	var rows []models.WorkingStaffRow
	err := r.DB.WithContext(ctx).
		Table(models.AttendanceTableName+" AS a").
		Select("a.user_id, u.name, u.chinese_name, MIN(a.check_in_time) AS check_in_time").
		Joins("JOIN "+models.UsersTableName+" u ON a.user_id = u.id").
		Where("a.work_date = ? AND a.check_in_time IS NOT NULL AND a.check_out_time IS NULL", workDate).
		Group("a.user_id, u.name, u.chinese_name").
		Order("u.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
