package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travel/utils/jwt_parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/user", AuthMiddleware(secret), ok)
	r.GET("/company", AuthMiddleware(secret), RequireCompany(), ok)
	return r
}

func call(t *testing.T, r *gin.Engine, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusUnauthorized, call(t, r, "/user", ""))

	bad, err := jwt_parse.GenerateToken(secret, "not-a-uuid", jwt_parse.RoleUser, "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(t, r, "/user", bad))

	good, err := jwt_parse.GenerateToken(secret, uuid.NewString(), jwt_parse.RoleUser, "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, call(t, r, "/user", good))
}

func TestRequireCompany(t *testing.T) {
	r := newRouter()

	user, err := jwt_parse.GenerateToken(secret, uuid.NewString(), jwt_parse.RoleUser, "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(t, r, "/company", user))

	company, err := jwt_parse.GenerateToken(secret, uuid.NewString(), jwt_parse.RoleCompany, uuid.NewString(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, call(t, r, "/company", company))
}
