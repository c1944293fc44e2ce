package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates referee lifecycle events.
type EventType string

const (
	EventRefereeCreated EventType = "referee.created"
	EventRefereeUpdated EventType = "referee.updated"
	EventRefereeDeleted EventType = "referee.deleted"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateReferee AggregateType = "referee"
)

// OutboxDraft is the payload written to the referee_outbox table.
type OutboxDraft struct {
	ID            int64           `json:"-"`
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Topic returns the Kafka topic for the event under the given prefix,
// e.g. "sgad.referee.created".
func (d OutboxDraft) Topic(prefix string) string {
	if prefix == "" {
		return string(d.EventType)
	}
	return prefix + "." + string(d.EventType)
}
