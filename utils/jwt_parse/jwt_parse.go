package jwt_parse

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/utils"
)

// Roles carried in the "role" claim.
const (
	RoleUser    = "user"
	RoleCompany = "company"
)

var ErrNoBearerToken = errors.New("invalid authorization format")

// Claims is the token payload issued by the identity service.
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token. The identity service issues tokens in
// production; this is used by local tooling and tests.
func GenerateToken(secret []byte, userID, role, companyID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Role:      role,
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates the signature and expiry of tokenString.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("no user identifier found in token")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.ToLower(authHeader[:7]) == "bearer " {
		return authHeader[7:], nil
	}
	return "", ErrNoBearerToken
}

// Authenticate validates the bearer token and sets user_id, role and
// company_id in the gin context. On failure it aborts with 401 and returns
// false.
func Authenticate(c *gin.Context, secret []byte) bool {
	tokenString, err := bearerToken(c)
	if err != nil {
		logger.ErrorLogger.Error("Missing or malformed authorization header")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "code": "UNAUTHORIZED", "message": "No authorization token"})
		return false
	}

	claims, err := ParseToken(secret, tokenString)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to parse JWT token: %v", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "code": "UNAUTHORIZED", "message": "Invalid token"})
		return false
	}

	c.Set(utils.UserIDKey, claims.UserID)
	role := claims.Role
	if role == "" {
		role = RoleUser
	}
	c.Set(utils.RoleKey, role)
	if claims.CompanyID != "" {
		c.Set(utils.CompanyIDKey, claims.CompanyID)
	}
	return true
}

// ParseJWTToken is Authenticate as a middleware.
func ParseJWTToken(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Authenticate(c, secret) {
			c.Next()
		}
	}
}
