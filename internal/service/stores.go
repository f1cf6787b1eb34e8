package service

import (
	"context"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/pkg/utils/logger"
)

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.UserModel) error
	GetByID(ctx context.Context, id uint) (*models.UserModel, error)
	GetByEmail(ctx context.Context, email string) (*models.UserModel, error)
	GetByName(ctx context.Context, name string) (*models.UserModel, error)
	List(ctx context.Context) ([]models.UserModel, error)
	ListEmployees(ctx context.Context) ([]models.EmployeeListing, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (int64, error)
}

// SessionStore persists login sessions
type SessionStore interface {
	Replace(ctx context.Context, session *models.SessionModel) ([]string, error)
	GetByID(ctx context.Context, id string) (*models.SessionModel, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionCache caches session rows in front of the SessionStore
type SessionCache interface {
	Get(ctx context.Context, id string) (*models.SessionModel, error)
	Set(ctx context.Context, session *models.SessionModel, ttl time.Duration) error
	Revoke(ctx context.Context, ttl time.Duration, ids ...string) error
}

// AttendanceStore persists the attendance ledger
type AttendanceStore interface {
	UpsertCheckIn(ctx context.Context, userID uint, workDate time.Time, period, at string) error
	CloseCheckIn(ctx context.Context, userID uint, workDate time.Time, period, at string) (int64, error)
	ApplyCorrections(ctx context.Context, userID uint, workDate time.Time, corrections []models.PeriodCorrection) error
	ListByDate(ctx context.Context, userID uint, workDate time.Time) ([]models.AttendanceModel, error)
	ListRange(ctx context.Context, userID uint, from, to time.Time) ([]models.AttendanceModel, error)
	RenamePeriod(ctx context.Context, userID uint, workDate time.Time, from, to string) (int64, error)
	ListWorkingStaff(ctx context.Context, workDate time.Time) ([]models.WorkingStaffRow, error)
}

// Auditor records admin changes
type Auditor interface {
	Record(ctx context.Context, actorID uint, action logger.Action, fields map[string]interface{})
}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the caller holds the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// CanAccess reports whether the caller may read or act on userID's data
func (p Principal) CanAccess(userID uint) bool {
	return p.UserID == userID || p.IsAdmin()
}
