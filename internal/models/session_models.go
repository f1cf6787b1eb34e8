package models

import (
	"time"
)

const SessionsTableName = "sessions"

// SessionModel is a server-issued login session
type SessionModel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SessionModel) TableName() string {
	return SessionsTableName
}

// Expired reports whether the session's expiry is strictly before now
func (s *SessionModel) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
