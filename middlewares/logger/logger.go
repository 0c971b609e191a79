package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/travel/logger"
	"github.com/sirupsen/logrus"
)

// GinLogger writes one structured line per request.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := logger.InfoLogger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"route":      c.FullPath(),
			"client_ip":  c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_id":    c.GetString("user_id"),
		})

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
