package handler

import (
	"context"

	"slotsync/internal/activity/repository"
	"slotsync/pkg/kafka"
	"slotsync/pkg/logger"
	"slotsync/pkg/model"
)

// EventHandler turns schedule events into audit trail entries. Unknown event
// types are acknowledged and skipped; malformed payloads are permanent
// failures so the consumer routes them to the DLQ instead of retrying.
type EventHandler struct {
	repo repository.ActivityRepository
	log  *logger.Logger
}

func NewEventHandler(repo repository.ActivityRepository, log *logger.Logger) *EventHandler {
	return &EventHandler{
		repo: repo,
		log:  log,
	}
}

func (h *EventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.GetEventType() {
	case kafka.EventScheduleCreated:
		return h.handleScheduleCreated(ctx, msg)
	case kafka.EventAvailabilityToggled:
		return h.handleAvailabilityToggled(ctx, msg)
	default:
		h.log.Warn("Skipping unknown event type",
			"event_type", msg.GetEventType(),
			"event_id", msg.GetEventID(),
		)
		return nil
	}
}

func (h *EventHandler) handleScheduleCreated(ctx context.Context, msg kafka.Message) error {
	var event model.ScheduleCreatedEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("malformed schedule.created payload", err)
	}
	if event.ScheduleID == "" {
		return kafka.NewPermanentError("schedule.created event without schedule id", nil)
	}

	entry := &model.ActivityEntry{
		ScheduleID: event.ScheduleID,
		EventType:  kafka.EventScheduleCreated,
		Actor:      event.CreatedBy,
		OccurredAt: event.CreatedAt,
	}
	if err := h.repo.Insert(ctx, entry); err != nil {
		return kafka.NewTransientError("failed to insert activity entry", err)
	}

	h.log.Info("Recorded schedule creation",
		"schedule_id", event.ScheduleID,
		"created_by", event.CreatedBy,
	)
	return nil
}

func (h *EventHandler) handleAvailabilityToggled(ctx context.Context, msg kafka.Message) error {
	var event model.AvailabilityToggledEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("malformed availability.toggled payload", err)
	}
	if event.ScheduleID == "" || event.SlotKey == "" {
		return kafka.NewPermanentError("availability.toggled event missing schedule id or slot key", nil)
	}

	available := event.Available
	entry := &model.ActivityEntry{
		ScheduleID: event.ScheduleID,
		EventType:  kafka.EventAvailabilityToggled,
		Actor:      event.Name,
		SlotKey:    event.SlotKey,
		Available:  &available,
		OccurredAt: event.ToggledAt,
	}
	if err := h.repo.Insert(ctx, entry); err != nil {
		return kafka.NewTransientError("failed to insert activity entry", err)
	}

	h.log.Info("Recorded availability toggle",
		"schedule_id", event.ScheduleID,
		"slot_key", event.SlotKey,
		"actor", event.Name,
		"available", event.Available,
	)
	return nil
}
