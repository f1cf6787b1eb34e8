package models

import "time"

const AttendanceTableName = "attendance"

// DefaultPeriod is used when a punch names no period
const DefaultPeriod = "period1"

// WorkDateLayout is the wire format of a work date
const WorkDateLayout = "2006-01-02"

// AttendanceModel is one (user, date, period) cell of the ledger.
// Punch times are time-of-day strings (HH:MM or HH:MM:SS).
type AttendanceModel struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_attendance_cell,priority:1" json:"user_id"`
	WorkDate     time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendance_cell,priority:2;index" json:"work_date"`
	Period       string    `gorm:"size:32;not null;uniqueIndex:idx_attendance_cell,priority:3" json:"period"`
	CheckInTime  *string   `gorm:"size:8" json:"check_in_time"`
	CheckOutTime *string   `gorm:"size:8" json:"check_out_time"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AttendanceModel) TableName() string {
	return AttendanceTableName
}

// CellState is the punch state of one attendance cell
type CellState string

const (
	CellEmpty          CellState = "empty"
	CellCheckedInOnly  CellState = "checked-in-only"
	CellCheckedOutOnly CellState = "checked-out-only"
	CellComplete       CellState = "complete"
)

// State derives the cell state from which punches are present
func (a *AttendanceModel) State() CellState {
	switch {
	case a.CheckInTime != nil && a.CheckOutTime != nil:
		return CellComplete
	case a.CheckInTime != nil:
		return CellCheckedInOnly
	case a.CheckOutTime != nil:
		return CellCheckedOutOnly
	default:
		return CellEmpty
	}
}

// PeriodCorrection is an admin-supplied pair of punch times for one period.
// A nil time leaves the stored value untouched.
type PeriodCorrection struct {
	Period   string
	CheckIn  *string
	CheckOut *string
}

// WorkingStaffRow is a user with an open check-in today
type WorkingStaffRow struct {
	UserID      uint   `json:"user_id"`
	Name        string `json:"name"`
	ChineseName string `json:"chinese_name"`
	CheckInTime string `json:"check_in_time"`
}
