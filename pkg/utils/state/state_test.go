package state

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockState(t *testing.T) (*State, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return &State{db: db}, mock
}

func TestState_GetMissingKey(t *testing.T) {
	s, mock := setupMockState(t)

	mock.ExpectQuery(`SELECT \* FROM "config_entries" WHERE key = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))

	_, err := s.Get(context.Background(), "portal.title")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestState_SetUpserts(t *testing.T) {
	s, mock := setupMockState(t)

	mock.ExpectExec(`INSERT INTO "config_entries" .* ON CONFLICT \("key"\) DO UPDATE SET "value"="excluded"."value","updated_at"="excluded"."updated_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "portal.title", "Coselig"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestState_ListAndDelete(t *testing.T) {
	s, mock := setupMockState(t)

	mock.ExpectQuery(`SELECT \* FROM "config_entries" ORDER BY key`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("a", "1").AddRow("b", "2"))
	mock.ExpectExec(`DELETE FROM "config_entries" WHERE key = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[1].Key)

	n, err := s.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
