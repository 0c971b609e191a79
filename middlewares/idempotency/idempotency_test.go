package idempotency

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/joy095/travel/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idempotentRoute struct {
	t      *testing.T
	mr     *miniredis.Miniredis
	router *gin.Engine
	calls  int
	status int
}

func newIdempotentRoute(t *testing.T) *idempotentRoute {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rt := &idempotentRoute{t: t, mr: mr, router: gin.New(), status: http.StatusCreated}
	rt.router.POST("/bookings",
		func(c *gin.Context) { c.Set(utils.UserIDKey, c.GetHeader("X-User")) },
		Middleware(rdb),
		func(c *gin.Context) {
			rt.calls++
			c.JSON(rt.status, gin.H{"call": rt.calls})
		})
	return rt
}

func (rt *idempotentRoute) post(user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
	req.Header.Set("X-User", user)
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	w := httptest.NewRecorder()
	rt.router.ServeHTTP(w, req)
	return w
}

func TestMiddlewareReplaysSuccessfulResponse(t *testing.T) {
	rt := newIdempotentRoute(t)

	first := rt.post("u1", "key-1")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(HeaderReplayed))

	second := rt.post("u1", "key-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(HeaderReplayed))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, rt.calls)

	ttl := rt.mr.TTL("idempotency:u1:/bookings:key-1")
	assert.Equal(t, responseTTL, ttl)
}

func TestMiddlewareScopesKeysPerUser(t *testing.T) {
	rt := newIdempotentRoute(t)

	rt.post("u1", "shared")
	w := rt.post("u2", "shared")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(HeaderReplayed))
	assert.Equal(t, 2, rt.calls)
}

func TestMiddlewareRejectsRequestInProgress(t *testing.T) {
	rt := newIdempotentRoute(t)
	require.NoError(t, rt.mr.Set("idempotency:u1:/bookings:key-1", processing))

	w := rt.post("u1", "key-1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CONCURRENT_REQUEST"`)
	assert.Zero(t, rt.calls)
}

func TestMiddlewareReleasesKeyAfterFailure(t *testing.T) {
	rt := newIdempotentRoute(t)
	rt.status = http.StatusUnprocessableEntity

	w := rt.post("u1", "key-1")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, rt.mr.Exists("idempotency:u1:/bookings:key-1"))

	rt.status = http.StatusCreated
	w = rt.post("u1", "key-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(HeaderReplayed))
	assert.Equal(t, 2, rt.calls)
}

func TestMiddlewareRejectsOversizedKey(t *testing.T) {
	rt := newIdempotentRoute(t)

	w := rt.post("u1", strings.Repeat("k", maxKeyLength+1))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, rt.calls)
}

func TestMiddlewareWithoutKeyAlwaysRuns(t *testing.T) {
	rt := newIdempotentRoute(t)

	rt.post("u1", "")
	rt.post("u1", "")

	assert.Equal(t, 2, rt.calls)
	assert.Empty(t, rt.mr.Keys())
}

func TestMiddlewareWithoutRedisPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	calls := 0
	r.POST("/bookings", Middleware(nil), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
		req.Header.Set(HeaderKey, "abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get(HeaderReplayed))
	}
	assert.Equal(t, 2, calls)
}

func TestBodyRecorderCopiesWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	rec := &bodyRecorder{ResponseWriter: c.Writer}
	_, err := rec.Write([]byte(`{"id":1}`))
	assert.NoError(t, err)

	assert.Equal(t, `{"id":1}`, rec.body.String())
	assert.Equal(t, `{"id":1}`, w.Body.String())
}
