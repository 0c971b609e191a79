package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	redisclient "github.com/joy095/travel/config/redis"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/utils"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// rateLimitKey limits authenticated callers per account and everyone else
// per client IP.
func rateLimitKey(c *gin.Context) string {
	if userID := c.GetString(utils.UserIDKey); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

// createStore uses Redis when a client is connected so limits hold across
// replicas, and process memory otherwise.
func createStore(routeID string, period time.Duration) (limiter.Store, error) {
	prefix := fmt.Sprintf("rate_limiter:%s", routeID)

	rdb := redisclient.GetRedisClient()
	if rdb == nil {
		return memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: period,
		}), nil
	}

	store, err := redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:          prefix,
		MaxRetry:        3,
		CleanUpInterval: period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis store for route %s: %w", routeID, err)
	}
	return store, nil
}

// ParseCustomRate allows formats like "10-2m", "30-20m", "5-1h", "20-10s".
func ParseCustomRate(rateStr string) (limiter.Rate, error) {
	parts := strings.Split(rateStr, "-")
	if len(parts) != 2 {
		return limiter.Rate{}, fmt.Errorf("invalid rate format: %s", rateStr)
	}

	limit, err := strconv.Atoi(parts[0])
	if err != nil || limit <= 0 {
		return limiter.Rate{}, fmt.Errorf("invalid limit: %s", parts[0])
	}

	durationStr := parts[1]
	if len(durationStr) < 2 {
		return limiter.Rate{}, fmt.Errorf("invalid duration: %q", durationStr)
	}
	units := map[string]time.Duration{"s": time.Second, "m": time.Minute, "h": time.Hour}

	unit, ok := units[durationStr[len(durationStr)-1:]]
	if !ok {
		return limiter.Rate{}, fmt.Errorf("unsupported period: %s", durationStr)
	}
	n, err := strconv.Atoi(durationStr[:len(durationStr)-1])
	if err != nil || n <= 0 {
		return limiter.Rate{}, fmt.Errorf("invalid duration: %s", durationStr)
	}

	return limiter.Rate{
		Period: time.Duration(n) * unit,
		Limit:  int64(limit),
	}, nil
}

func newLimiter(rateStr, routeID string) (*limiter.Limiter, error) {
	rate, err := ParseCustomRate(rateStr)
	if err != nil {
		return nil, err
	}
	store, err := createStore(routeID, rate.Period)
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}

func passThrough(c *gin.Context) { c.Next() }

// NewRateLimiter limits a route to rateStr, e.g. "10-2m", per caller.
// A bad rate disables limiting for the route rather than failing startup.
func NewRateLimiter(rateStr, routeID string) gin.HandlerFunc {
	l, err := newLimiter(rateStr, routeID)
	if err != nil {
		logger.ErrorLogger.Errorf("Rate limiter disabled for route %s: %v", routeID, err)
		return passThrough
	}
	return ginmiddleware.NewMiddleware(l, ginmiddleware.WithKeyGetter(rateLimitKey))
}

// CombinedRateLimiter applies every rate to the route; the first one
// exceeded rejects the request with 429.
func CombinedRateLimiter(routeID string, rateStrings ...string) gin.HandlerFunc {
	var limiters []*limiter.Limiter
	for i, rateStr := range rateStrings {
		l, err := newLimiter(rateStr, fmt.Sprintf("%s_%d", routeID, i))
		if err != nil {
			logger.ErrorLogger.Errorf("Rate %q skipped for route %s: %v", rateStr, routeID, err)
			continue
		}
		limiters = append(limiters, l)
	}

	return func(c *gin.Context) {
		key := rateLimitKey(c)
		for _, l := range limiters {
			lc, err := l.Get(c.Request.Context(), key)
			if err != nil {
				logger.ErrorLogger.Errorf("Rate limiter store error on %s: %v", routeID, err)
				continue
			}
			if lc.Reached {
				c.Header("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
				c.Header("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "code": "RATE_LIMITED", "message": "Too many requests"})
				return
			}
		}
		c.Next()
	}
}
