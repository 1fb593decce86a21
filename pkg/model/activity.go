package model

import "time"

// ActivityEntry is one row of the schedule audit trail, written by the
// activity consumer from published events.
type ActivityEntry struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	ScheduleID string    `json:"schedule_id" bson:"schedule_id"`
	EventType  string    `json:"event_type" bson:"event_type"`
	Actor      string    `json:"actor" bson:"actor"`
	SlotKey    string    `json:"slot_key,omitempty" bson:"slot_key,omitempty"`
	Available  *bool     `json:"available,omitempty" bson:"available,omitempty"`
	OccurredAt time.Time `json:"occurred_at" bson:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at"`
}
