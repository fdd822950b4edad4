package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEvent = errors.New("renewal event already exists for vehicle and date")
	ErrDuplicatePlate = errors.New("vehicle already registered with this plate")
)

// Collection names within the registry database.
const (
	VehiclesCollection      = "vehicles"
	RenewalEventsCollection = "renewal_events"
	UsersCollection         = "users"
)

// ConnectMongo connects to MongoDB and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the registry relies on. The unique
// compound index on (vehicle_id, renewal_date) is what makes duplicate
// renewal detection atomic; without it two concurrent submissions could
// both pass a read-then-insert check.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(RenewalEventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "vehicle_id", Value: 1}, {Key: "renewal_date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_vehicle_renewal_date"),
	})
	if err != nil {
		return fmt.Errorf("failed to create renewal event index: %w", err)
	}

	_, err = database.Collection(VehiclesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "plate_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_plate_number"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expiration_date", Value: 1}},
			Options: options.Index().SetName("status_expiration"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create vehicle indexes: %w", err)
	}
	return nil
}
