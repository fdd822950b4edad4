package db

import (
	"context"
	"time"

	"github.com/ukydev/vehicle-registry/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error)
	FindVehicles(ctx context.Context, filter bson.M, page, limit int64) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicleByPlate(ctx context.Context, plateNumber string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
	ExpireDue(ctx context.Context, asOf time.Time) (int64, error)
}

// RenewalEventCollection defines the interface for the append-only
// renewal ledger. Events are inserted and read, never updated.
type RenewalEventCollection interface {
	InsertEvent(ctx context.Context, event *models.RenewalEvent) error
	FindEventsByVehicle(ctx context.Context, vehicleID string, page, limit int64) ([]models.RenewalEvent, int64, error)
	CountEventsByStatus(ctx context.Context) (map[models.RenewalStatus]int64, error)
}
