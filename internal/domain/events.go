package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewRefereeCreatedEvent snapshots a freshly inserted referee.
func NewRefereeCreatedEvent(r *Referee) OutboxDraft {
	return newRefereeEvent(EventRefereeCreated, r.ID, r)
}

// NewRefereeUpdatedEvent snapshots a referee after an update.
func NewRefereeUpdatedEvent(r *Referee) OutboxDraft {
	return newRefereeEvent(EventRefereeUpdated, r.ID, r)
}

// NewRefereeDeletedEvent records the removal of a referee.
func NewRefereeDeletedEvent(r *Referee) OutboxDraft {
	return newRefereeEvent(EventRefereeDeleted, r.ID, map[string]string{
		"id":      r.ID.String(),
		"user_id": r.UserID.String(),
	})
}

func newRefereeEvent(evtType EventType, id uuid.UUID, body any) OutboxDraft {
	payload, _ := json.Marshal(body)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateReferee,
		AggregateID:   id.String(),
		EventType:     evtType,
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	}
}
