// Package events publishes domain events to the message bus.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TypeRecordCreated is emitted after a workout record is stored.
const TypeRecordCreated = "record.created"

// Event is the envelope written to the bus. Key selects the partition.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Key        string      `json:"-"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// RecordCreated is the payload of TypeRecordCreated.
type RecordCreated struct {
	RecordID        uint      `json:"record_id"`
	UserID          string    `json:"user_id"`
	RoutineID       *uint     `json:"routine_id,omitempty"`
	PerformedAt     time.Time `json:"performed_at"`
	DurationSeconds int       `json:"duration_seconds"`
	ExerciseIDs     []uint    `json:"exercise_ids"`
}

// NewEvent wraps payload in an envelope with a fresh id.
func NewEvent(eventType, key string, payload interface{}, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		OccurredAt: now.UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, evt Event) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
