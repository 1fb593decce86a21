package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"slotsync/pkg/kafka"
	"slotsync/pkg/logger"
	"slotsync/pkg/model"
)

type mockActivityRepository struct {
	insertFunc func(ctx context.Context, entry *model.ActivityEntry) error
	inserted   []*model.ActivityEntry
}

func (m *mockActivityRepository) Insert(ctx context.Context, entry *model.ActivityEntry) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, entry)
	}
	m.inserted = append(m.inserted, entry)
	return nil
}

func (m *mockActivityRepository) FindBySchedule(ctx context.Context, scheduleID string, limit int) ([]*model.ActivityEntry, error) {
	return m.inserted, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.FormatJSON,
		AddSource: false,
		Service:   "test",
	})
}

func eventMessage(t *testing.T, eventType string, payload any) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return kafka.NewMessage().
		WithKey("665d2fb4a1b2c3d4e5f60718").
		WithRawValue(raw).
		WithEventType(eventType).
		WithSource("test").
		Build()
}

func TestHandle_ScheduleCreated(t *testing.T) {
	repo := &mockActivityRepository{}
	h := NewEventHandler(repo, testLogger())

	createdAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := eventMessage(t, kafka.EventScheduleCreated, model.ScheduleCreatedEvent{
		ScheduleID: "665d2fb4a1b2c3d4e5f60718",
		Title:      "Team offsite",
		CreatedBy:  "Alice",
		StartDate:  "2024-06-03",
		EndDate:    "2024-06-04",
		CreatedAt:  createdAt,
	})

	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted = %d entries, want 1", len(repo.inserted))
	}
	entry := repo.inserted[0]
	if entry.ScheduleID != "665d2fb4a1b2c3d4e5f60718" || entry.Actor != "Alice" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.EventType != kafka.EventScheduleCreated {
		t.Errorf("event type = %q", entry.EventType)
	}
	if !entry.OccurredAt.Equal(createdAt) {
		t.Errorf("occurred_at = %v, want %v", entry.OccurredAt, createdAt)
	}
}

func TestHandle_AvailabilityToggled(t *testing.T) {
	repo := &mockActivityRepository{}
	h := NewEventHandler(repo, testLogger())

	msg := eventMessage(t, kafka.EventAvailabilityToggled, model.AvailabilityToggledEvent{
		ScheduleID: "665d2fb4a1b2c3d4e5f60718",
		SlotKey:    "2024-06-03_09:30",
		Name:       "Bob",
		Available:  true,
		ToggledAt:  time.Now().UTC(),
	})

	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted = %d entries, want 1", len(repo.inserted))
	}
	entry := repo.inserted[0]
	if entry.SlotKey != "2024-06-03_09:30" || entry.Actor != "Bob" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Available == nil || !*entry.Available {
		t.Errorf("available flag not recorded: %+v", entry.Available)
	}
}

func TestHandle_MalformedPayloadIsPermanent(t *testing.T) {
	repo := &mockActivityRepository{}
	h := NewEventHandler(repo, testLogger())

	msg := kafka.NewMessage().
		WithKey("665d2fb4a1b2c3d4e5f60718").
		WithRawValue([]byte("{not json")).
		WithEventType(kafka.EventAvailabilityToggled).
		Build()

	err := h.Handle(context.Background(), msg)
	if err == nil {
		t.Fatal("Handle() expected error for malformed payload")
	}
	if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Errorf("error classified as retryable: %v", err)
	}
}

func TestHandle_InsertFailureIsTransient(t *testing.T) {
	repo := &mockActivityRepository{
		insertFunc: func(ctx context.Context, entry *model.ActivityEntry) error {
			return errors.New("connection reset by peer")
		},
	}
	h := NewEventHandler(repo, testLogger())

	msg := eventMessage(t, kafka.EventScheduleCreated, model.ScheduleCreatedEvent{
		ScheduleID: "665d2fb4a1b2c3d4e5f60718",
		CreatedBy:  "Alice",
		CreatedAt:  time.Now().UTC(),
	})

	err := h.Handle(context.Background(), msg)
	if err == nil {
		t.Fatal("Handle() expected error when insert fails")
	}
	if kafka.ClassifyError(err) != kafka.ErrorTypeTransient {
		t.Errorf("error classified as permanent: %v", err)
	}
}

func TestHandle_UnknownEventTypeAcknowledged(t *testing.T) {
	repo := &mockActivityRepository{}
	h := NewEventHandler(repo, testLogger())

	msg := eventMessage(t, "schedule.deleted", map[string]string{"schedule_id": "x"})

	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle() error for unknown event: %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("unknown event produced entries: %v", repo.inserted)
	}
}
