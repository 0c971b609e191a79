package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserIDFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetUserIDFromContext(c)
	assert.ErrorIs(t, err, ErrUserIDNotFound)

	c.Set(UserIDKey, "not-a-uuid")
	_, err = GetUserIDFromContext(c)
	assert.Error(t, err)

	want := uuid.New()
	c.Set(UserIDKey, want.String())
	got, err := GetUserIDFromContext(c)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetCompanyIDFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetCompanyIDFromContext(c)
	assert.ErrorIs(t, err, ErrCompanyIDNotFound)

	c.Set(CompanyIDKey, 42)
	_, err = GetCompanyIDFromContext(c)
	assert.Error(t, err)
}
