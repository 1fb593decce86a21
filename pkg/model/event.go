package model

import "time"

// ScheduleCreatedEvent is the payload published when a schedule document is
// first written.
type ScheduleCreatedEvent struct {
	ScheduleID string    `json:"schedule_id"`
	Title      string    `json:"title"`
	CreatedBy  string    `json:"created_by"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// AvailabilityToggledEvent is the payload published per committed toggle.
type AvailabilityToggledEvent struct {
	ScheduleID string    `json:"schedule_id"`
	SlotKey    string    `json:"slot_key"`
	Name       string    `json:"name"`
	Available  bool      `json:"available"`
	ToggledAt  time.Time `json:"toggled_at"`
}
