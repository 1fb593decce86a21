package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	scheduleerrors "slotsync/internal/schedules/errors"
	"slotsync/internal/schedules/repository"
	"slotsync/internal/schedules/validator"
	"slotsync/pkg/config"
	apperrors "slotsync/pkg/errors"
	"slotsync/pkg/grid"
	"slotsync/pkg/kafka"
	"slotsync/pkg/model"
	"slotsync/pkg/sanitizer"
)

const (
	pinMin         = 1000
	pinSpan        = 9000
	maxPinAttempts = 5
)

// GridView is the derived heat-map projection of one schedule.
type GridView struct {
	ScheduleID string      `json:"schedule_id"`
	Days       []string    `json:"days"`
	Times      []string    `json:"times"`
	Cells      []grid.Cell `json:"cells"`
}

// EventPublisher decouples the service from the Kafka producer. A nil
// publisher disables event emission.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type ScheduleService interface {
	Create(ctx context.Context, sc *model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	JoinByPin(ctx context.Context, pin string, name string) (*model.Schedule, error)
	Toggle(ctx context.Context, id string, name string, slotKey string) (*model.Schedule, error)
	Grid(ctx context.Context, id string) (*GridView, error)
	Subscribe(ctx context.Context, id string) (<-chan *model.Schedule, error)
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	validator *validator.ScheduleValidator
	events    EventPublisher
	cfg       *config.Config
}

func NewScheduleService(
	repo repository.ScheduleRepository,
	validator *validator.ScheduleValidator,
	events EventPublisher,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		repo:      repo,
		validator: validator,
		events:    events,
		cfg:       cfg,
	}
}

func (s *scheduleService) Create(ctx context.Context, sc *model.Schedule) error {
	s.sanitize(sc)
	s.applyDefaults(sc)

	if err := s.validator.Validate(sc); err != nil {
		s.cfg.Log.Warn("Schedule validation failed",
			"title", sc.Title,
			"created_by", sc.CreatedBy,
			"error", err,
		)
		return apperrors.Validation("Schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	// PIN collisions are rare (9000 values) but possible; regenerate and
	// retry. The uniqueness check and insert share a transaction so two
	// concurrent creates cannot both claim the same PIN.
	var lastErr error
	for attempt := 0; attempt < maxPinAttempts; attempt++ {
		pin, err := generatePin()
		if err != nil {
			return apperrors.Internal("Failed to generate PIN", err)
		}
		sc.Pin = pin

		lastErr = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			_, err := s.repo.FindByPin(sessCtx, sc.Pin)
			if err == nil {
				return fmt.Errorf("%w: %s", scheduleerrors.ErrPinTaken, sc.Pin)
			}
			if !errors.Is(err, scheduleerrors.ErrNotFound) {
				return apperrors.Internal("Failed to check PIN uniqueness", err)
			}
			return s.repo.Create(sessCtx, sc)
		})
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, scheduleerrors.ErrPinTaken) {
			s.cfg.Log.Error("Failed to create schedule",
				"title", sc.Title,
				"created_by", sc.CreatedBy,
				"error", lastErr,
			)
			return lastErr
		}
	}
	if lastErr != nil {
		s.cfg.Log.Error("Exhausted PIN generation attempts", "error", lastErr)
		return apperrors.Conflict("Could not assign a unique PIN, please retry")
	}

	s.cfg.Log.Info("Schedule created successfully",
		"id", sc.ID,
		"title", sc.Title,
		"created_by", sc.CreatedBy,
		"days", sc.StartDate+".."+sc.EndDate,
	)

	s.publishCreated(ctx, sc)
	return nil
}

func (s *scheduleService) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	sc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Schedule", id)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid schedule ID format")
		}
		s.cfg.Log.Error("Failed to get schedule by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve schedule", err)
	}

	return sc, nil
}

func (s *scheduleService) JoinByPin(ctx context.Context, pin string, name string) (*model.Schedule, error) {
	pin = sanitizer.TrimAndNormalize(pin)
	if len(pin) != 4 {
		return nil, apperrors.InvalidInput("PIN must be exactly 4 digits")
	}
	name = sanitizer.NormalizeName(name)
	if name == "" {
		return nil, apperrors.InvalidInput("Name cannot be empty")
	}

	sc, err := s.repo.FindByPin(ctx, pin)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFound("Schedule")
		}
		s.cfg.Log.Error("Failed to find schedule by PIN", "error", err)
		return nil, apperrors.Internal("Failed to retrieve schedule", err)
	}

	if !containsName(sc.Participants, name) {
		if err := s.repo.AddParticipant(ctx, sc.ID, name); err != nil {
			s.cfg.Log.Error("Failed to add participant",
				"id", sc.ID,
				"name", name,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to join schedule", err)
		}
		sc.Participants = append(sc.Participants, name)
	}

	s.cfg.Log.Info("Participant joined schedule",
		"id", sc.ID,
		"name", name,
	)
	return sc, nil
}

// Toggle flips one participant's flag for one slot. The write is scoped to
// the single dotted path, so concurrent toggles by other participants or on
// other slots are never lost.
func (s *scheduleService) Toggle(ctx context.Context, id string, name string, slotKey string) (*model.Schedule, error) {
	name = sanitizer.NormalizeName(name)
	if name == "" {
		return nil, apperrors.InvalidInput("Name cannot be empty")
	}

	sc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := grid.Contains(sc, slotKey)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Slot %s is outside the schedule grid", slotKey))
	}

	available := !model.IsAvailable(sc.Availability, slotKey, name)
	if err := s.repo.SetAvailability(ctx, id, slotKey, name, available); err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Schedule", id)
		}
		s.cfg.Log.Error("Failed to set availability",
			"id", id,
			"slot_key", slotKey,
			"name", name,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to toggle availability", err)
	}

	if !containsName(sc.Participants, name) {
		if err := s.repo.AddParticipant(ctx, id, name); err != nil {
			s.cfg.Log.Error("Failed to add participant on toggle",
				"id", id,
				"name", name,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to record participant", err)
		}
		sc.Participants = append(sc.Participants, name)
	}

	sc.Availability = model.Toggle(sc.Availability, slotKey, name)

	s.publishToggled(ctx, sc.ID, slotKey, name, available)
	return sc, nil
}

func (s *scheduleService) Grid(ctx context.Context, id string) (*GridView, error) {
	sc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	days, err := grid.Days(sc)
	if err != nil {
		return nil, apperrors.Internal("Failed to derive schedule days", err)
	}
	times, err := grid.Times(sc)
	if err != nil {
		return nil, apperrors.Internal("Failed to derive schedule times", err)
	}
	cells, err := grid.Cells(sc)
	if err != nil {
		return nil, apperrors.Internal("Failed to derive schedule cells", err)
	}

	dayStrings := make([]string, len(days))
	for i, d := range days {
		dayStrings[i] = d.Format("2006-01-02")
	}

	return &GridView{
		ScheduleID: sc.ID,
		Days:       dayStrings,
		Times:      times,
		Cells:      cells,
	}, nil
}

func (s *scheduleService) Subscribe(ctx context.Context, id string) (<-chan *model.Schedule, error) {
	// Resolve first so a bad id fails fast instead of producing a silent
	// stream that never emits.
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	updates, err := s.repo.Subscribe(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to open schedule subscription",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to subscribe to schedule", err)
	}
	return updates, nil
}

func (s *scheduleService) sanitize(sc *model.Schedule) {
	sc.Title = sanitizer.NormalizeTitle(sc.Title)
	sc.Description = sanitizer.TrimAndNormalize(sc.Description)
	sc.CreatedBy = sanitizer.NormalizeName(sc.CreatedBy)
}

func (s *scheduleService) applyDefaults(sc *model.Schedule) {
	if sc.DayStartTime == "" {
		sc.DayStartTime = s.cfg.DefaultDayStartTime
	}
	if sc.DayEndTime == "" {
		sc.DayEndTime = s.cfg.DefaultDayEndTime
	}
	if sc.SlotDuration == 0 {
		sc.SlotDuration = s.cfg.DefaultSlotDurationMin
	}
	if sc.Participants == nil {
		sc.Participants = []string{}
	}
	if sc.CreatedBy != "" && !containsName(sc.Participants, sc.CreatedBy) {
		sc.Participants = append(sc.Participants, sc.CreatedBy)
	}
}

func (s *scheduleService) publishCreated(ctx context.Context, sc *model.Schedule) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(model.ScheduleCreatedEvent{
		ScheduleID: sc.ID,
		Title:      sc.Title,
		CreatedBy:  sc.CreatedBy,
		StartDate:  sc.StartDate,
		EndDate:    sc.EndDate,
		CreatedAt:  sc.CreatedAt,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to encode schedule.created event", "error", err)
		return
	}

	msg := kafka.NewMessage().
		WithKey(sc.ID).
		WithRawValue(payload).
		WithEventType(kafka.EventScheduleCreated).
		WithSource("schedules").
		Build()

	if err := s.events.Publish(ctx, msg); err != nil {
		// Event emission is best effort; the document write already
		// succeeded.
		s.cfg.Log.Error("Failed to publish schedule.created event",
			"id", sc.ID,
			"error", err,
		)
	}
}

func (s *scheduleService) publishToggled(ctx context.Context, id, slotKey, name string, available bool) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(model.AvailabilityToggledEvent{
		ScheduleID: id,
		SlotKey:    slotKey,
		Name:       name,
		Available:  available,
		ToggledAt:  time.Now().UTC(),
	})
	if err != nil {
		s.cfg.Log.Error("Failed to encode availability.toggled event", "error", err)
		return
	}

	msg := kafka.NewMessage().
		WithKey(id).
		WithRawValue(payload).
		WithEventType(kafka.EventAvailabilityToggled).
		WithSource("schedules").
		Build()

	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish availability.toggled event",
			"id", id,
			"slot_key", slotKey,
			"error", err,
		)
	}
}

func generatePin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(pinSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", pinMin+n.Int64()), nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
