package outbox_models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lease := 5 * time.Minute

	e, err := NewEvent(EventBookingCreated, uuid.New(), map[string]string{}, now)
	require.NoError(t, err)

	tests := []struct {
		name      string
		status    string
		updatedAt time.Time
		want      bool
	}{
		{"new", StatusNew, now, true},
		{"claim within lease", StatusProcessing, now.Add(-time.Minute), false},
		{"claim exactly at lease", StatusProcessing, now.Add(-lease), false},
		{"claim past lease", StatusProcessing, now.Add(-lease - time.Second), true},
		{"processed", StatusProcessed, now.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.Status = tt.status
			e.UpdatedAt = tt.updatedAt
			assert.Equal(t, tt.want, e.Claimable(now, lease))
		})
	}
}
