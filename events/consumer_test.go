package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travel/models/outbox_models"
	"github.com/stretchr/testify/assert"
)

func flakyHandler(failures int, calls *int) Handler {
	return func(context.Context, Message) error {
		*calls++
		if *calls <= failures {
			return errors.New("smtp: 421 try again later")
		}
		return nil
	}
}

func TestDeliverRetriesTransientFailures(t *testing.T) {
	c := &Consumer{attempts: 3, backoff: time.Millisecond}
	msg := Message{ID: uuid.New(), Type: outbox_models.EventBookingConfirmed}

	calls := 0
	err := c.deliver(context.Background(), flakyHandler(2, &calls), msg)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDeliverGivesUpAfterLastAttempt(t *testing.T) {
	c := &Consumer{attempts: 3, backoff: time.Millisecond}

	calls := 0
	err := c.deliver(context.Background(), flakyHandler(10, &calls), Message{ID: uuid.New()})

	assert.EqualError(t, err, "smtp: 421 try again later")
	assert.Equal(t, 3, calls)
}

func TestDeliverStopsRetryingOnShutdown(t *testing.T) {
	c := &Consumer{attempts: 5, backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	handle := func(context.Context, Message) error {
		calls++
		cancel()
		return errors.New("smtp down")
	}

	err := c.deliver(ctx, handle, Message{ID: uuid.New()})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDeliverRunsOnceWithoutAttemptsConfigured(t *testing.T) {
	c := &Consumer{}

	calls := 0
	err := c.deliver(context.Background(), flakyHandler(1, &calls), Message{ID: uuid.New()})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
