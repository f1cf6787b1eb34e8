package state

import (
	"time"
)

var StateTableName = "config_entries"

// StateEntry is one configuration key and its value
type StateEntry struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StateEntry) TableName() string {
	return StateTableName
}
