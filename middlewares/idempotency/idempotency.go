package idempotency

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/utils"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "X-Idempotency-Replayed"

	processing   = "PROCESSING"
	lockTTL      = 30 * time.Second
	responseTTL  = 24 * time.Hour
	maxKeyLength = 128
)

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bodyRecorder keeps a copy of what the handler writes.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func redisKey(c *gin.Context, key string) string {
	return fmt.Sprintf("idempotency:%s:%s:%s", c.GetString(utils.UserIDKey), c.FullPath(), key)
}

// Middleware replays the stored response of a successful request carrying
// the same Idempotency-Key, and rejects a repeat that arrives while the
// first is still running. Without a key or a Redis client it does nothing.
func Middleware(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderKey)
		if rdb == nil || key == "" {
			c.Next()
			return
		}
		if len(key) > maxKeyLength {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"success": false, "code": "VALIDATION", "message": "Idempotency-Key is too long"})
			return
		}

		ctx := c.Request.Context()
		rk := redisKey(c, key)

		acquired, err := rdb.SetNX(ctx, rk, processing, lockTTL).Result()
		if err != nil {
			logger.ErrorLogger.Errorf("Idempotency lock failed, continuing without it: %v", err)
			c.Next()
			return
		}

		if !acquired {
			val, err := rdb.Get(ctx, rk).Result()
			switch {
			case errors.Is(err, redis.Nil), err == nil && val == processing:
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "code": "CONCURRENT_REQUEST", "message": "A request with this Idempotency-Key is in progress"})
			case err != nil:
				logger.ErrorLogger.Errorf("Idempotency lookup failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "code": "INTERNAL", "message": "Internal server error"})
			default:
				var stored storedResponse
				if err := json.Unmarshal([]byte(val), &stored); err != nil {
					logger.ErrorLogger.Errorf("Corrupt idempotency record %s: %v", rk, err)
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "code": "INTERNAL", "message": "Internal server error"})
					return
				}
				c.Header(HeaderReplayed, "true")
				c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
				c.Abort()
			}
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			// Failed attempts may be retried with the same key.
			if err := rdb.Del(ctx, rk).Err(); err != nil {
				logger.ErrorLogger.Errorf("Failed to release idempotency key %s: %v", rk, err)
			}
			return
		}

		val, err := json.Marshal(storedResponse{Status: status, Body: rec.body.Bytes()})
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to encode idempotent response: %v", err)
			return
		}
		if err := rdb.Set(ctx, rk, val, responseTTL).Err(); err != nil {
			logger.ErrorLogger.Errorf("Failed to store idempotent response %s: %v", rk, err)
		}
	}
}
