package service

import (
	"context"
	"errors"
	"regexp"

	"github.com/nsvirk/staffportalapi/pkg/utils/logger"
	"github.com/nsvirk/staffportalapi/pkg/utils/state"
)

const maxConfigValueBytes = 64 << 10

var configKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// ConfigStore persists configuration entries
type ConfigStore interface {
	Get(ctx context.Context, key string) (*state.StateEntry, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]state.StateEntry, error)
	Delete(ctx context.Context, key string) (int64, error)
}

// ConfigService is the portal's key-value configuration store.
// Any session may read, only admins may write.
type ConfigService struct {
	store ConfigStore
	audit Auditor
}

// NewConfigService creates a new config service. audit may be nil.
func NewConfigService(store ConfigStore, audit Auditor) *ConfigService {
	return &ConfigService{store: store, audit: audit}
}

func validConfigKey(key string) error {
	if !configKeyPattern.MatchString(key) {
		return validationError("Invalid config key %q", key)
	}
	return nil
}

// List returns every entry ordered by key, admin only
func (s *ConfigService) List(ctx context.Context, caller Principal) ([]state.StateEntry, error) {
	if !caller.IsAdmin() {
		return nil, forbiddenError("Forbidden: Admin only")
	}
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	if entries == nil {
		entries = []state.StateEntry{}
	}
	return entries, nil
}

// Get returns one entry
func (s *ConfigService) Get(ctx context.Context, key string) (*state.StateEntry, error) {
	if err := validConfigKey(key); err != nil {
		return nil, err
	}
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, state.ErrKeyNotFound) {
			return nil, notFoundError("Config key not found")
		}
		return nil, storageError(err)
	}
	return entry, nil
}

// Set creates or replaces an entry, admin only
func (s *ConfigService) Set(ctx context.Context, caller Principal, key, value string) (*state.StateEntry, error) {
	if !caller.IsAdmin() {
		return nil, forbiddenError("Forbidden: Admin only")
	}
	if err := validConfigKey(key); err != nil {
		return nil, err
	}
	if len(value) > maxConfigValueBytes {
		return nil, validationError("Config value exceeds %d bytes", maxConfigValueBytes)
	}

	if err := s.store.Set(ctx, key, value); err != nil {
		return nil, storageError(err)
	}
	s.record(ctx, caller.UserID, logger.ConfigWrite, map[string]interface{}{"key": key})

	return s.Get(ctx, key)
}

// Delete removes an entry, admin only
func (s *ConfigService) Delete(ctx context.Context, caller Principal, key string) error {
	if !caller.IsAdmin() {
		return forbiddenError("Forbidden: Admin only")
	}
	if err := validConfigKey(key); err != nil {
		return err
	}

	n, err := s.store.Delete(ctx, key)
	if err != nil {
		return storageError(err)
	}
	if n == 0 {
		return notFoundError("Config key not found")
	}
	s.record(ctx, caller.UserID, logger.ConfigDelete, map[string]interface{}{"key": key})
	return nil
}

func (s *ConfigService) record(ctx context.Context, actorID uint, action logger.Action, fields map[string]interface{}) {
	if s.audit != nil {
		s.audit.Record(ctx, actorID, action, fields)
	}
}
