package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/utils"
	"github.com/joy095/travel/utils/jwt_parse"
)

// AuthMiddleware requires a valid bearer token and exposes its claims to
// handlers through the gin context.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !jwt_parse.Authenticate(c, secret) {
			return
		}

		if _, err := utils.GetUserIDFromContext(c); err != nil {
			logger.ErrorLogger.Errorf("Token user id unusable: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "code": "UNAUTHORIZED", "message": "Invalid user ID in token"})
			return
		}
		c.Next()
	}
}

// RequireCompany lets through only tokens issued to a company account.
// It must run after AuthMiddleware.
func RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(utils.RoleKey) != jwt_parse.RoleCompany {
			logger.WarnLogger.Warnf("Non-company token on %s", c.FullPath())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "code": "FORBIDDEN", "message": "Company account required"})
			return
		}
		if _, err := utils.GetCompanyIDFromContext(c); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "code": "FORBIDDEN", "message": "Company account required"})
			return
		}
		c.Next()
	}
}
