package repository

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/nsvirk/staffportalapi/internal/config"
	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PunchNotifyChannel is the Postgres NOTIFY channel fired on every attendance write
const PunchNotifyChannel = "attendance_punch"

// GormConfig builds the gorm configuration for the given log level name
func GormConfig(level string) *gorm.Config {
	var logLevel logger.LogLevel
	switch level {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	return &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}
}

// ConnectPostgres connects to a Postgres database and returns a GORM database object
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	zaplogger.Info(config.SingleLine)
	zaplogger.Info("Initializing Postgres")
	zaplogger.Info(config.SingleLine)

	// The DSN is in keyword/value form, so the search_path can be appended
	postgresDSN := fmt.Sprintf("%s search_path=%s,public", cfg.PostgresDsn, cfg.PostgresSchema)
	db, err := gorm.Open(postgres.Open(postgresDSN), GormConfig(cfg.PostgresLogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %v", err)
	}

	zaplogger.Info("  * connected")

	createSchemaSql := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(cfg.PostgresSchema))
	if err := db.Exec(createSchemaSql).Error; err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}
	zaplogger.Info("  * migrating schema: \"" + cfg.PostgresSchema + "\"")

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %v", err)
	}

	if err := installPunchNotifyTrigger(db); err != nil {
		return nil, err
	}
	zaplogger.Info("  * trigger on " + models.AttendanceTableName + " notifies \"" + PunchNotifyChannel + "\"")

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	tables := []struct {
		name  string
		model interface{}
	}{
		{models.UsersTableName, &models.UserModel{}},
		{models.SessionsTableName, &models.SessionModel{}},
		{models.AttendanceTableName, &models.AttendanceModel{}},
	}

	zaplogger.Info("  * migrating tables")
	for _, table := range tables {
		if err := db.AutoMigrate(table.model); err != nil {
			return fmt.Errorf("failed to auto migrate table: %s, err:%v", table.name, err)
		}
		zaplogger.Info("    - \"" + table.name + "\"")
	}

	return nil
}

// installPunchNotifyTrigger makes Postgres publish every attendance insert or
// update on PunchNotifyChannel as a JSON payload
func installPunchNotifyTrigger(db *gorm.DB) error {
	statements := []string{
		`CREATE OR REPLACE FUNCTION notify_attendance_punch() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('` + PunchNotifyChannel + `', json_build_object(
		'user_id', NEW.user_id,
		'work_date', NEW.work_date,
		'period', NEW.period,
		'check_in_time', NEW.check_in_time,
		'check_out_time', NEW.check_out_time
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS attendance_punch_notify ON ` + models.AttendanceTableName,
		`CREATE TRIGGER attendance_punch_notify AFTER INSERT OR UPDATE ON ` + models.AttendanceTableName +
			` FOR EACH ROW EXECUTE FUNCTION notify_attendance_punch()`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to install punch notify trigger: %v", err)
		}
	}
	return nil
}
