package db

import (
	"context"
	"fmt"

	"github.com/ukydev/vehicle-registry/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRenewalEventCollection implements RenewalEventCollection for
// MongoDB.
type MongoRenewalEventCollection struct {
	Collection *mongo.Collection
}

// InsertEvent appends a renewal event to the ledger. The unique index
// on (vehicle_id, renewal_date) rejects a second event for the same
// vehicle and date atomically; the duplicate-key error is mapped to
// ErrDuplicateEvent.
func (c *MongoRenewalEventCollection) InsertEvent(ctx context.Context, event *models.RenewalEvent) error {
	result, err := c.Collection.InsertOne(ctx, event)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("vehicle %s on %s: %w",
				event.VehicleID.Hex(), event.RenewalDate.Format("2006-01-02"), ErrDuplicateEvent)
		}
		return err
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = id
	}
	return nil
}

// FindEventsByVehicle returns a page of a vehicle's renewal history,
// newest renewal first, along with the total event count.
func (c *MongoRenewalEventCollection) FindEventsByVehicle(ctx context.Context, vehicleID string, page, limit int64) ([]models.RenewalEvent, int64, error) {
	objectID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid vehicle ID: %w", err)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	filter := bson.M{"vehicle_id": objectID}
	total, err := c.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "renewal_date", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var events []models.RenewalEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// CountEventsByStatus groups the ledger by classification status.
func (c *MongoRenewalEventCollection) CountEventsByStatus(ctx context.Context) (map[models.RenewalStatus]int64, error) {
	cursor, err := c.Collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.RenewalStatus `bson:"_id"`
		Count  int64                `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[models.RenewalStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
