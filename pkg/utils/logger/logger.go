// Package logger writes the admin audit trail to Postgres
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var LogsTableName = "_audit_logs"

// Action names a kind of audited change
type Action string

const (
	ManualPunch   Action = "MANUAL_PUNCH"
	PeriodRename  Action = "PERIOD_RENAME"
	UserUpdate    Action = "USER_UPDATE"
	UserCreate    Action = "USER_CREATE"
	ConfigWrite   Action = "CONFIG_WRITE"
	ConfigDelete  Action = "CONFIG_DELETE"
	SessionsPurge Action = "SESSIONS_PURGE"
)

// Log represents an audit entry in the database
type Log struct {
	ID        uint64         `gorm:"primaryKey"`
	Timestamp time.Time      `gorm:"index"`
	ActorID   uint           `gorm:"index"`
	Action    Action         `gorm:"index;size:32"`
	Fields    datatypes.JSON `gorm:"type:jsonb"`
}

// TableName overrides the table name used by Log
func (Log) TableName() string {
	return LogsTableName
}

// Logger records who changed what
type Logger struct {
	db *gorm.DB
}

// New creates a new Logger instance
func New(db *gorm.DB) (*Logger, error) {
	if err := db.AutoMigrate(&Log{}); err != nil {
		return nil, fmt.Errorf("failed to migrate Log for table %s: %v", LogsTableName, err)
	}
	return &Logger{db: db}, nil
}

func (l *Logger) insert(ctx context.Context, actorID uint, action Action, fields map[string]interface{}) error {
	var fieldsJSON datatypes.JSON
	if len(fields) > 0 {
		jsonBytes, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %v", err)
		}
		fieldsJSON = datatypes.JSON(jsonBytes)
	}

	entry := Log{
		Timestamp: time.Now(),
		ActorID:   actorID,
		Action:    action,
		Fields:    fieldsJSON,
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to insert audit entry: %v", err)
	}
	return nil
}

// Record stores an audit entry. Failures are logged, never returned:
// the audited change has already been committed.
func (l *Logger) Record(ctx context.Context, actorID uint, action Action, fields map[string]interface{}) {
	if err := l.insert(ctx, actorID, action, fields); err != nil {
		zaplogger.Error("Failed to record audit entry", zaplogger.Fields{
			"actor_id": actorID,
			"action":   string(action),
			"error":    err.Error(),
		})
	}
}
