package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"slotsync/pkg/logger"
	"slotsync/pkg/model"
)

// fakeStore is an in-memory Store whose Subscribe channel is driven by the
// test through emit.
type fakeStore struct {
	schedule *model.Schedule
	writeErr error

	writes []write
	stream chan *model.Schedule
}

type write struct {
	slotKey   string
	name      string
	available bool
}

func newFakeStore(sc *model.Schedule) *fakeStore {
	return &fakeStore{
		schedule: sc,
		stream:   make(chan *model.Schedule),
	}
}

func (f *fakeStore) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	return f.schedule, nil
}

func (f *fakeStore) SetAvailability(ctx context.Context, id, slotKey, name string, available bool) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, write{slotKey: slotKey, name: name, available: available})
	return nil
}

func (f *fakeStore) Subscribe(ctx context.Context, id string) (<-chan *model.Schedule, error) {
	out := make(chan *model.Schedule)
	go func() {
		defer close(out)
		for {
			select {
			case sc, ok := <-f.stream:
				if !ok {
					return
				}
				select {
				case out <- sc:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *fakeStore) emit(sc *model.Schedule) {
	f.stream <- sc
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.FormatJSON,
		AddSource: false,
		Service:   "test",
	})
}

func testSchedule() *model.Schedule {
	return &model.Schedule{
		ID:           "665d2fb4a1b2c3d4e5f60718",
		Title:        "Team offsite",
		CreatedBy:    "Alice",
		StartDate:    "2024-06-03",
		EndDate:      "2024-06-04",
		DayStartTime: "09:00",
		DayEndTime:   "11:00",
		SlotDuration: 30,
		Participants: []string{"Alice"},
		Availability: model.AvailabilityMap{},
	}
}

func waitForUpdate(t *testing.T, s *Session) *model.Schedule {
	t.Helper()
	select {
	case sc := <-s.Updates():
		return sc
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot update")
		return nil
	}
}

func TestSession_OptimisticToggle(t *testing.T) {
	store := newFakeStore(testSchedule())
	s, err := NewSession(context.Background(), store, testLogger(), "665d2fb4a1b2c3d4e5f60718", "Bob")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	if err := s.Toggle(context.Background(), "2024-06-03_09:30"); err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}

	// Local state reflects the flip before any remote snapshot arrives.
	if !model.IsAvailable(s.Schedule().Availability, "2024-06-03_09:30", "Bob") {
		t.Error("optimistic state not applied")
	}

	if len(store.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(store.writes))
	}
	w := store.writes[0]
	if w.slotKey != "2024-06-03_09:30" || w.name != "Bob" || !w.available {
		t.Errorf("unexpected write: %+v", w)
	}
}

func TestSession_ToggleFailureKeepsOptimisticState(t *testing.T) {
	store := newFakeStore(testSchedule())
	store.writeErr = errors.New("connection reset")

	s, err := NewSession(context.Background(), store, testLogger(), "665d2fb4a1b2c3d4e5f60718", "Bob")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	if err := s.Toggle(context.Background(), "2024-06-03_09:30"); err == nil {
		t.Fatal("Toggle() expected error, got nil")
	}

	// The optimistic flip stays visible; the next snapshot reconciles it.
	if !model.IsAvailable(s.Schedule().Availability, "2024-06-03_09:30", "Bob") {
		t.Error("failed toggle dropped the optimistic state")
	}

	store.emit(testSchedule())
	got := waitForUpdate(t, s)
	if model.IsAvailable(got.Availability, "2024-06-03_09:30", "Bob") {
		t.Error("remote snapshot did not replace optimistic state")
	}
}

func TestSession_ToggleRejectsOutOfGridSlot(t *testing.T) {
	store := newFakeStore(testSchedule())
	s, err := NewSession(context.Background(), store, testLogger(), "665d2fb4a1b2c3d4e5f60718", "Bob")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	if err := s.Toggle(context.Background(), "2024-06-10_09:30"); err == nil {
		t.Fatal("Toggle() expected error for out-of-grid slot")
	}
	if len(store.writes) != 0 {
		t.Errorf("out-of-grid toggle reached the store: %+v", store.writes)
	}
}

func TestSession_RemoteSnapshotReplacesLocalState(t *testing.T) {
	store := newFakeStore(testSchedule())
	s, err := NewSession(context.Background(), store, testLogger(), "665d2fb4a1b2c3d4e5f60718", "Bob")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	remote := testSchedule()
	remote.Participants = []string{"Alice", "Carol"}
	remote.Availability = model.AvailabilityMap{
		"2024-06-03_10:00": {"Carol": true},
	}
	store.emit(remote)

	got := waitForUpdate(t, s)
	if !model.IsAvailable(got.Availability, "2024-06-03_10:00", "Carol") {
		t.Error("remote availability missing from snapshot")
	}
	if !model.IsAvailable(s.Schedule().Availability, "2024-06-03_10:00", "Carol") {
		t.Error("session state not replaced by remote snapshot")
	}
}

func TestSession_SlowConsumerSeesLatestSnapshot(t *testing.T) {
	store := newFakeStore(testSchedule())
	s, err := NewSession(context.Background(), store, testLogger(), "665d2fb4a1b2c3d4e5f60718", "Bob")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	first := testSchedule()
	first.Participants = []string{"Alice", "Carol"}
	second := testSchedule()
	second.Participants = []string{"Alice", "Carol", "Dave"}

	// Emitting without reading must never block the event loop, and the
	// consumer must eventually observe the newest snapshot.
	store.emit(first)
	store.emit(second)

	deadline := time.After(2 * time.Second)
	for {
		got := waitForUpdate(t, s)
		if len(got.Participants) == 3 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("latest snapshot never delivered, last had participants %v", got.Participants)
		default:
		}
	}
}
