package outbox_models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travel/config/db"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventBookingRated     = "booking.rated"
)

const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
)

const Producer = "booking-service"

// Event is a lifecycle notification stored in the same transaction as the
// booking change that caused it.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Producer      string          `json:"producer"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewEvent marshals payload and stamps a new outbox row for it.
func NewEvent(eventType string, correlationID uuid.UUID, payload any, now time.Time) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for event: %w", err)
	}
	return &Event{
		ID:            id,
		EventType:     eventType,
		Payload:       raw,
		Status:        StatusNew,
		CorrelationID: correlationID,
		Producer:      Producer,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func CreateEvent(ctx context.Context, q db.DBTX, e *Event) error {
	const sql = `
		INSERT INTO outbox (id, event_type, payload, status, correlation_id, producer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := q.Exec(ctx, sql,
		e.ID, e.EventType, []byte(e.Payload), e.Status, e.CorrelationID, e.Producer, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// Claimable reports whether a poller may take the event at now: it is new,
// or its previous claim is older than lease and was never resolved.
func (e *Event) Claimable(now time.Time, lease time.Duration) bool {
	switch e.Status {
	case StatusNew:
		return true
	case StatusProcessing:
		return e.UpdatedAt.Before(now.Add(-lease))
	}
	return false
}

// FetchBatch claims up to limit claimable events, oldest first. Rows locked
// by another poller are skipped. A processing row whose claim is older than
// lease belongs to a poller that died before marking it, and is taken again.
func FetchBatch(ctx context.Context, q db.DBTX, limit int, lease time.Duration) ([]*Event, error) {
	const sql = `
		WITH claimed_events AS (
			SELECT id
			FROM outbox
			WHERE status = 'new'
			   OR (status = 'processing' AND updated_at < NOW() - $2::bigint * INTERVAL '1 millisecond')
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox
		SET status = 'processing', updated_at = NOW()
		WHERE id IN (SELECT id FROM claimed_events)
		RETURNING id, event_type, payload, status, correlation_id, producer, created_at, updated_at`

	rows, err := q.Query(ctx, sql, limit, lease.Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var payload []byte
		if err := rows.Scan(&e.ID, &e.EventType, &payload, &e.Status, &e.CorrelationID, &e.Producer, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	return events, rows.Err()
}

func MarkProcessed(ctx context.Context, q db.DBTX, ids []uuid.UUID) error {
	if _, err := q.Exec(ctx, `UPDATE outbox SET status = 'processed', updated_at = NOW() WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// MarkFailed returns events to the queue for the next poll.
func MarkFailed(ctx context.Context, q db.DBTX, ids []uuid.UUID) error {
	if _, err := q.Exec(ctx, `UPDATE outbox SET status = 'new', updated_at = NOW() WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}
