package shared_utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/joy095/travel/logger"
)

// ConfirmationCodePrefix starts every booking confirmation code.
const ConfirmationCodePrefix = "TRV-"

const confirmationCodeLength = 8

// Ambiguous characters (0/O, 1/I) are left out so codes can be read aloud.
const charset = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

func GenerateTinyID(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	if length > 1000 {
		return "", fmt.Errorf("length too large")
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to generate random number: %v", err)
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}

// GenerateConfirmationCode returns a code like TRV-7K2QH9XA. Uniqueness is
// enforced by the bookings table, not here.
func GenerateConfirmationCode() (string, error) {
	id, err := GenerateTinyID(confirmationCodeLength)
	if err != nil {
		return "", err
	}
	return ConfirmationCodePrefix + id, nil
}
