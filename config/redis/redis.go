package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/joy095/travel/logger"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisErr    error
	redisOnce   sync.Once
)

// Connect builds the process-wide client from a redis:// URL and pings it.
// Later calls return the same client.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	redisOnce.Do(func() {
		if redisURL == "" {
			redisErr = fmt.Errorf("REDIS_URL not set")
			return
		}

		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			redisErr = fmt.Errorf("invalid REDIS_URL: %w", err)
			return
		}

		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			redisErr = fmt.Errorf("failed to ping redis: %w", err)
			return
		}

		redisClient = client
		logger.InfoLogger.Info("Connected to Redis")
	})

	return redisClient, redisErr
}

// GetRedisClient returns the client created by Connect, or nil.
func GetRedisClient() *redis.Client {
	return redisClient
}

func CloseRedis() {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.ErrorLogger.Errorf("Error closing Redis connection: %v", err)
		}
		logger.InfoLogger.Info("Redis connection closed")
	}
}
