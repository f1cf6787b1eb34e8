package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
	"github.com/redis/go-redis/v9"
)

var streamKeepAlive = 30 * time.Second

// StreamService serves the live punch feed as server-sent events
type StreamService struct {
	redisClient *redis.Client
}

// NewStreamService creates a new service for the punch stream
func NewStreamService(redisClient *redis.Client) *StreamService {
	return &StreamService{redisClient: redisClient}
}

// RunPunchStream relays PunchRedisChannel to the client until ctx is done
// or a write fails
func (s *StreamService) RunPunchStream(ctx context.Context, c echo.Context) error {
	pubsub := s.redisClient.Subscribe(ctx, PunchRedisChannel)
	defer pubsub.Close()

	// Wait for the subscription so no punch is lost after "connected"
	if _, err := pubsub.Receive(ctx); err != nil {
		return storageError(err)
	}
	messages := pubsub.Channel()

	// Set headers for SSE
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	if _, err := c.Response().Write([]byte("data: connected\n\n")); err != nil {
		return nil
	}
	c.Response().Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(c.Response(), "event: punch\ndata: %s\n\n", msg.Payload); err != nil {
				zaplogger.Debug("Punch stream client gone", zaplogger.Fields{"error": err.Error()})
				return nil
			}
			c.Response().Flush()
		case <-ticker.C:
			if _, err := c.Response().Write([]byte(": keep-alive\n\n")); err != nil {
				return nil
			}
			c.Response().Flush()
		}
	}
}
