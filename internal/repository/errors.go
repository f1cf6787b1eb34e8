// Package repository contains the repository layer for the Staff Portal API
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry is returned when a write violates a unique constraint
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrCacheMiss is returned by the session cache when the key is absent
	ErrCacheMiss = errors.New("repository: cache miss")
)

// translateError maps gorm errors onto the repository errors above
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateEntry
	default:
		return err
	}
}
