package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var workDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := GormConfig("silent")
	cfg.SkipDefaultTransaction = true
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	require.NoError(t, err)
	return db, mock
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}))

	_, err := repo.GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password", "role", "is_active"}).
		AddRow(3, "alice", "a@x.com", "$2a$10$hash", "admin", true)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).WillReturnRows(rows)

	user, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.ID)
	assert.True(t, user.IsAdmin())
	assert.True(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnError(uniqueViolation())

	err := repo.Create(context.Background(), &models.UserModel{Name: "alice", Email: "a@x.com", Password: "h", Role: "employee", IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE "users" SET .*"phone"=.* WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.Update(context.Background(), 3, map[string]interface{}{"phone": "0912"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Replace(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM "sessions" WHERE user_id = \$1 RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("old-1").AddRow("old-2"))
	mock.ExpectExec(`INSERT INTO "sessions"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.Replace(context.Background(), &models.SessionModel{
		ID:        "new-1",
		UserID:    3,
		ExpiresAt: workDate.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"old-1", "old-2"}, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectExec(`DELETE FROM "sessions" WHERE expires_at < \$1`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background(), workDate)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_UpsertCheckIn(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(`INSERT INTO "attendance" .* ON CONFLICT \("user_id","work_date","period"\) DO UPDATE SET "check_in_time"="excluded"."check_in_time"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err := repo.UpsertCheckIn(context.Background(), 3, workDate, "period1", "09:00:00")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_CloseCheckIn_NoOpenRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(`UPDATE "attendance" SET .*"check_out_time"=.*check_in_time IS NOT NULL AND check_out_time IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.CloseCheckIn(context.Background(), 3, workDate, "period1", "17:00:00")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_ApplyCorrections(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAttendanceRepository(db)
	in, out := "08:00", "17:00"

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "attendance" .* DO UPDATE SET "updated_at"="excluded"."updated_at","check_in_time"="excluded"."check_in_time","check_out_time"="excluded"."check_out_time"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "attendance" .* DO UPDATE SET "updated_at"="excluded"."updated_at","check_out_time"="excluded"."check_out_time" RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	err := repo.ApplyCorrections(context.Background(), 5, workDate, []models.PeriodCorrection{
		{Period: "period1", CheckIn: &in, CheckOut: &out},
		{Period: "period2", CheckOut: &out},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_ApplyCorrections_RollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAttendanceRepository(db)
	in := "08:00"

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "attendance"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ApplyCorrections(context.Background(), 5, workDate, []models.PeriodCorrection{{Period: "period1", CheckIn: &in}})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_RenamePeriod_Clash(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(`UPDATE "attendance" SET .*"period"=`).WillReturnError(uniqueViolation())

	_, err := repo.RenamePeriod(context.Background(), 3, workDate, "period1", "period2")
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_ListWorkingStaff(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"user_id", "name", "chinese_name", "check_in_time"}).
		AddRow(3, "alice", "愛麗絲", "08:55:00")
	mock.ExpectQuery(`SELECT a.user_id, u.name, u.chinese_name, MIN\(a.check_in_time\) AS check_in_time FROM attendance AS a JOIN users u ON a.user_id = u.id WHERE .* GROUP BY`).
		WillReturnRows(rows)

	staff, err := repo.ListWorkingStaff(context.Background(), workDate)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "alice", staff[0].Name)
	assert.Equal(t, "08:55:00", staff[0].CheckInTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}
