// Package sync keeps one participant's view of a schedule current: it holds
// a local snapshot, applies the participant's own toggles optimistically, and
// replaces the snapshot whenever the store reports a committed write by
// anyone. Consumers read snapshots; they never patch their own state.
package sync

import (
	"context"
	"fmt"
	stdsync "sync"

	"slotsync/pkg/grid"
	"slotsync/pkg/logger"
	"slotsync/pkg/model"
)

// Store is the narrow persistence surface a session needs. The Mongo
// schedule repository satisfies it.
type Store interface {
	FindByID(ctx context.Context, id string) (*model.Schedule, error)
	SetAvailability(ctx context.Context, id string, slotKey string, name string, available bool) error
	Subscribe(ctx context.Context, id string) (<-chan *model.Schedule, error)
}

// Session is one participant's live attachment to a schedule.
type Session struct {
	store Store
	log   *logger.Logger
	id    string
	name  string

	mu      stdsync.RWMutex
	current *model.Schedule

	updates chan *model.Schedule
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSession loads the schedule, opens the update stream, and starts the
// event loop. Close must be called to release the stream.
func NewSession(ctx context.Context, store Store, log *logger.Logger, id string, name string) (*Session, error) {
	sc, err := store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := store.Subscribe(streamCtx, id)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	s := &Session{
		store:   store,
		log:     log,
		id:      id,
		name:    name,
		current: sc,
		updates: make(chan *model.Schedule, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go s.run(stream)
	return s, nil
}

// run replaces the snapshot per committed write. Remote snapshots overwrite
// optimistic local state wholesale; the server is the source of truth.
func (s *Session) run(stream <-chan *model.Schedule) {
	defer close(s.done)
	for sc := range stream {
		s.mu.Lock()
		s.current = sc
		s.mu.Unlock()
		s.notify(sc)
	}
}

// notify forwards the latest snapshot without blocking. A slow consumer sees
// the newest state, not every intermediate one.
func (s *Session) notify(sc *model.Schedule) {
	for {
		select {
		case s.updates <- sc:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Schedule returns the current snapshot.
func (s *Session) Schedule() *model.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Updates emits snapshots after each committed write, latest-wins.
func (s *Session) Updates() <-chan *model.Schedule {
	return s.updates
}

// Toggle applies the participant's flip locally first, then writes only the
// changed path. On write failure the optimistic state stays in place and the
// error is surfaced; the next remote snapshot is the recovery path.
func (s *Session) Toggle(ctx context.Context, slotKey string) error {
	s.mu.Lock()
	before := s.current
	ok, err := grid.Contains(before, slotKey)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("slot %s is outside the schedule grid", slotKey)
	}

	available := !model.IsAvailable(before.Availability, slotKey, s.name)
	next := *before
	next.Availability = model.Toggle(before.Availability, slotKey, s.name)
	s.current = &next
	s.mu.Unlock()

	if err := s.store.SetAvailability(ctx, s.id, slotKey, s.name, available); err != nil {
		s.log.Warn("Toggle write failed, keeping optimistic state until next snapshot",
			"id", s.id,
			"slot_key", slotKey,
			"name", s.name,
			"error", err,
		)
		return fmt.Errorf("failed to write toggle: %w", err)
	}
	return nil
}

// Close stops the update stream and waits for the event loop to exit.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}
