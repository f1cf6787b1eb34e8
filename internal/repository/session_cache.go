package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "SESSION:"
	revokedKeyPrefix = "SESSION:REVOKED:"
)

// SessionCache is a Redis read-through cache in front of the sessions table
type SessionCache struct {
	client *redis.Client
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func revokedKey(id string) string {
	return revokedKeyPrefix + id
}

// Get returns the cached session or ErrCacheMiss. A revoked id is always a
// miss, so an entry written back by a request racing the revocation is ignored.
func (c *SessionCache) Get(ctx context.Context, id string) (*models.SessionModel, error) {
	vals, err := c.client.MGet(ctx, sessionKey(id), revokedKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if vals[1] != nil {
		return nil, ErrCacheMiss
	}
	val, ok := vals[0].(string)
	if !ok {
		return nil, ErrCacheMiss
	}

	var session models.SessionModel
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Set caches the session for ttl
func (c *SessionCache) Set(ctx context.Context, session *models.SessionModel, ttl time.Duration) error {
	val, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(session.ID), val, ttl).Err()
}

// Revoke evicts the given sessions and marks them revoked for ttl
func (c *SessionCache) Revoke(ctx context.Context, ttl time.Duration, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, id := range ids {
			pipe.Set(ctx, revokedKey(id), "1", ttl)
		}
		return nil
	})
	return err
}
