package utils

import "errors"

var (
	ErrUserIDNotFound    = errors.New("authentication required: user ID not found")
	ErrCompanyIDNotFound = errors.New("company account required")
	ErrUnauthorized      = errors.New("unauthorized access")
)
