// Package mongo provides the MongoDB read model for movement activity
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sanord8/YL-portal-sub002/internal/domain/activity"
)

const (
	// ActivityCollectionName is the name of the activity collection in MongoDB
	ActivityCollectionName = "movement_activity"
)

// ActivityRepository implements the activity.Repository interface for MongoDB
type ActivityRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewActivityRepository creates a new MongoDB activity repository
func NewActivityRepository(logger *slog.Logger, db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the index backing the per-movement feed
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(ActivityCollectionName)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "movement_id", Value: 1}, {Key: "occurred_at", Value: -1}},
		Options: options.Index().SetName("movement_id_occurred_at"),
	})
	if err != nil {
		r.logger.Error("Failed to create activity index", "error", err)
		return fmt.Errorf("failed to create activity index: %w", err)
	}
	return nil
}

// Upsert stores an entry keyed by its event id. A redelivered event hits the
// _id unique index and is reported as not inserted.
func (r *ActivityRepository) Upsert(ctx context.Context, entry *activity.Entry) (bool, error) {
	collection := r.db.Collection(ActivityCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("Activity entry already projected", "event_id", entry.EventID)
			return false, nil
		}
		r.logger.Error("Failed to store activity entry",
			"event_id", entry.EventID,
			"movement_id", entry.MovementID,
			"error", err)
		return false, fmt.Errorf("failed to store activity entry: %w", err)
	}

	return true, nil
}

// GetByEventID retrieves an activity entry by its event ID
func (r *ActivityRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*activity.Entry, error) {
	collection := r.db.Collection(ActivityCollectionName)

	var entry activity.Entry
	err := collection.FindOne(ctx, bson.M{"_id": eventID.String()}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, activity.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get activity entry",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get activity entry: %w", err)
	}

	return &entry, nil
}

// ListByMovement retrieves a page of a movement's activity, newest first
func (r *ActivityRepository) ListByMovement(ctx context.Context, movementID uuid.UUID, limit, offset int) ([]*activity.Entry, error) {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"movement_id": movementID.String()}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get activity entries",
			"movement_id", movementID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get activity entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*activity.Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode activity entries",
			"movement_id", movementID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode activity entries: %w", err)
	}

	return entries, nil
}

// CountByMovement counts the activity entries of a movement
func (r *ActivityRepository) CountByMovement(ctx context.Context, movementID uuid.UUID) (int64, error) {
	collection := r.db.Collection(ActivityCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"movement_id": movementID.String()})
	if err != nil {
		r.logger.Error("Failed to count activity entries",
			"movement_id", movementID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count activity entries: %w", err)
	}

	return count, nil
}
