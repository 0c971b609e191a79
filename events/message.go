package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travel/models/outbox_models"
)

// Message is the envelope written to the booking events topic.
type Message struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Producer      string          `json:"producer"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

func MessageFromEvent(e *outbox_models.Event) Message {
	return Message{
		ID:            e.ID,
		Type:          e.EventType,
		CorrelationID: e.CorrelationID,
		Producer:      e.Producer,
		OccurredAt:    e.CreatedAt.UTC(),
		Payload:       e.Payload,
	}
}
