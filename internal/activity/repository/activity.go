package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slotsync/pkg/config"
	"slotsync/pkg/model"
)

const (
	CollectionName = "Activity"
)

type mongoActivityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type ActivityRepository interface {
	Insert(ctx context.Context, entry *model.ActivityEntry) error
	FindBySchedule(ctx context.Context, scheduleID string, limit int) ([]*model.ActivityEntry, error)
}

func NewMongoActivityRepository(cfg *config.Config) ActivityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoActivityRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoActivityRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoActivityRepository) Insert(ctx context.Context, entry *model.ActivityEntry) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	entry.RecordedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

func (r *mongoActivityRepository) FindBySchedule(ctx context.Context, scheduleID string, limit int) ([]*model.ActivityEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"schedule_id": scheduleID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.ActivityEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode activity entries: %w", err)
	}
	return entries, nil
}
