package utils

import (
	"os"

	"github.com/joy095/travel/config"
	"github.com/joy095/travel/logger"
)

const devJWTSecret = "default-insecure-secret-only-for-development"

// GetJWTSecret returns JWT_SECRET, falling back to a development secret
// with a warning.
func GetJWTSecret() []byte {
	config.LoadEnv()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.WarnLogger.Warn("JWT_SECRET environment variable not set")
		return []byte(devJWTSecret)
	}
	return []byte(secret)
}
