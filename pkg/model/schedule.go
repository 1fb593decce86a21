package model

import "time"

// Schedule is the shared coordination document. The date, time and duration
// fields are fixed at creation; Availability and Participants are the only
// fields mutated afterwards, and only through path-scoped updates.
type Schedule struct {
	ID           string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title        string          `json:"title" bson:"title" validate:"required,min=1,max=100"`
	Description  string          `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=500"`
	CreatedBy    string          `json:"created_by" bson:"created_by" validate:"required,min=1,max=50"`
	Pin          string          `json:"pin,omitempty" bson:"pin" validate:"omitempty,len=4,numeric"`
	StartDate    string          `json:"start_date" bson:"start_date" validate:"required,iso_date"`
	EndDate      string          `json:"end_date" bson:"end_date" validate:"required,iso_date,date_order"`
	DayStartTime string          `json:"day_start_time" bson:"day_start_time" validate:"required,hhmm_time"`
	DayEndTime   string          `json:"day_end_time" bson:"day_end_time" validate:"required,hhmm_time,time_order"`
	SlotDuration int             `json:"slot_duration_min" bson:"slot_duration_min" validate:"required,min=15,max=120"`
	Participants []string        `json:"participants" bson:"participants" validate:"omitempty,dive,min=1,max=50"`
	Availability AvailabilityMap `json:"availability,omitempty" bson:"availability,omitempty"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at" validate:"omitempty"`
}
