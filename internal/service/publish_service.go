package service

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/nsvirk/staffportalapi/internal/repository"
	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
	"github.com/redis/go-redis/v9"
)

// PunchRedisChannel carries every attendance write as a JSON payload
var PunchRedisChannel = "CH:API:ATTENDANCE:PUNCH"

// PublishService forwards the Postgres punch notifications to Redis
type PublishService struct {
	redisClient *redis.Client
	pgConnStr   string
}

// NewPublishService creates a new PublishService. pgConnStr must be a DSN
// lib/pq accepts.
func NewPublishService(redisClient *redis.Client, pgConnStr string) *PublishService {
	return &PublishService{
		redisClient: redisClient,
		pgConnStr:   pgConnStr,
	}
}

// PublishPunchesToRedisChannel listens on the punch NOTIFY channel until ctx
// is done
func (s *PublishService) PublishPunchesToRedisChannel(ctx context.Context) error {
	listener := pq.NewListener(s.pgConnStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			zaplogger.Warn("Postgres listener event", zaplogger.Fields{"event": int(ev), "error": err.Error()})
		}
	})
	defer listener.Close()

	if err := listener.Listen(repository.PunchNotifyChannel); err != nil {
		return err
	}
	zaplogger.Info("Listening for punches", zaplogger.Fields{
		"pg_channel":    repository.PunchNotifyChannel,
		"redis_channel": PunchRedisChannel,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect
			if n == nil {
				continue
			}
			s.Forward(ctx, n.Extra)
		case <-time.After(90 * time.Second):
			go func() {
				if err := listener.Ping(); err != nil {
					zaplogger.Error("Error pinging PostgreSQL", zaplogger.Fields{"error": err.Error()})
				}
			}()
		}
	}
}

// Forward publishes one punch payload to Redis
func (s *PublishService) Forward(ctx context.Context, payload string) {
	if err := s.redisClient.Publish(ctx, PunchRedisChannel, payload).Err(); err != nil {
		zaplogger.Error("Failed to publish to Redis", zaplogger.Fields{"error": err.Error()})
	}
}
