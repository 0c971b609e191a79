package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travel/logger"
)

// Context keys set by the auth middleware.
const (
	UserIDKey    = "user_id"
	RoleKey      = "role"
	CompanyIDKey = "company_id"
)

// GetUserIDFromContext extracts the authenticated user's id. The auth
// middleware stores it as a string.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	return uuidFromContext(c, UserIDKey, ErrUserIDNotFound)
}

// GetCompanyIDFromContext extracts the company the authenticated account
// acts for. It is only present on company tokens.
func GetCompanyIDFromContext(c *gin.Context) (uuid.UUID, error) {
	return uuidFromContext(c, CompanyIDKey, ErrCompanyIDNotFound)
}

func uuidFromContext(c *gin.Context, key string, missing error) (uuid.UUID, error) {
	raw, exists := c.Get(key)
	if !exists {
		logger.ErrorLogger.Errorf("%s not found in context", key)
		return uuid.Nil, missing
	}

	str, ok := raw.(string)
	if !ok {
		logger.ErrorLogger.Errorf("%s in context is not a string, actual type: %T", key, raw)
		return uuid.Nil, fmt.Errorf("invalid %s format in context", key)
	}

	id, err := uuid.Parse(str)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to parse %s '%s' to UUID: %v", key, str, err)
		return uuid.Nil, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return id, nil
}
