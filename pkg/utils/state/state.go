// Package state is a small key-value store backed by Postgres, used for
// portal configuration and job bookkeeping.
package state

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrKeyNotFound is returned by Get when the key has never been set
var ErrKeyNotFound = errors.New("state: key not found")

type State struct {
	db *gorm.DB
}

func NewState(db *gorm.DB) (*State, error) {
	if err := db.AutoMigrate(&StateEntry{}); err != nil {
		return nil, err
	}
	return &State{db: db}, nil
}

func (s *State) Get(ctx context.Context, key string) (*StateEntry, error) {
	var entry StateEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Set upserts the value in one statement
func (s *State) Set(ctx context.Context, key, value string) error {
	now := time.Now()
	entry := StateEntry{Key: key, Value: value, CreatedAt: now, UpdatedAt: now}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *State) List(ctx context.Context) ([]StateEntry, error) {
	var entries []StateEntry
	if err := s.db.WithContext(ctx).Order("key").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *State) Delete(ctx context.Context, key string) (int64, error) {
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&StateEntry{})
	return result.RowsAffected, result.Error
}
