package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	scheduleserrors "slotsync/internal/schedules/errors"
	"slotsync/pkg/config"
	mongotx "slotsync/pkg/db/mongo"
	"slotsync/pkg/model"
)

const (
	CollectionName = "Schedules"
)

type mongoScheduleRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ScheduleRepository interface {
	Create(ctx context.Context, sc *model.Schedule) error
	FindByID(ctx context.Context, id string) (*model.Schedule, error)
	FindByPin(ctx context.Context, pin string) (*model.Schedule, error)
	SetAvailability(ctx context.Context, id string, slotKey string, name string, available bool) error
	AddParticipant(ctx context.Context, id string, name string) error
	Count(ctx context.Context) (int64, error)
	Subscribe(ctx context.Context, id string) (<-chan *model.Schedule, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel function, as wrapping a SessionContext breaks
// transaction semantics.
func (r *mongoScheduleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Create inserts the schedule with a generated hex ID. IDs are stored as hex
// strings rather than ObjectIDs so dotted availability paths and change
// stream lookups round-trip through model.Schedule without a custom codec.
func (r *mongoScheduleRepository) Create(ctx context.Context, sc *model.Schedule) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if sc.ID == "" {
		sc.ID = primitive.NewObjectID().Hex()
	}
	sc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, sc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", scheduleserrors.ErrPinTaken, sc.Pin)
		}
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *mongoScheduleRepository) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	var sc model.Schedule
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find schedule: %w", err)
	}

	return &sc, nil
}

func (r *mongoScheduleRepository) FindByPin(ctx context.Context, pin string) (*model.Schedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var sc model.Schedule
	err := r.collection.FindOne(ctx, bson.M{"pin": pin}).Decode(&sc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: pin %s", scheduleserrors.ErrNotFound, pin)
		}
		return nil, fmt.Errorf("failed to find schedule by pin: %w", err)
	}

	return &sc, nil
}

// SetAvailability writes a single participant flag at its dotted path, e.g.
// availability.2024-06-03_09:30.Alice. Concurrent writers touching different
// paths never overwrite each other's entries.
func (r *mongoScheduleRepository) SetAvailability(ctx context.Context, id string, slotKey string, name string, available bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	path := fmt.Sprintf("availability.%s.%s", slotKey, name)
	update := bson.M{"$set": bson.M{path: available}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoScheduleRepository) AddParticipant(ctx context.Context, id string, name string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	update := bson.M{"$addToSet": bson.M{"participants": name}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoScheduleRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return count, nil
}

// Subscribe opens a change stream scoped to one schedule and emits a full
// document snapshot per committed write. The channel closes when the stream
// ends or ctx is cancelled.
func (r *mongoScheduleRepository) Subscribe(ctx context.Context, id string) (<-chan *model.Schedule, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": id}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	updates := make(chan *model.Schedule)
	go func() {
		defer close(updates)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var event struct {
				FullDocument model.Schedule `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				continue
			}
			// Deletes carry no fullDocument; skip them.
			if event.FullDocument.ID == "" {
				continue
			}

			sc := event.FullDocument
			select {
			case updates <- &sc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, nil
}

func (r *mongoScheduleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
