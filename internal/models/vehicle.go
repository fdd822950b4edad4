package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// VehicleStatus represents the lifecycle state of a registered vehicle.
type VehicleStatus string

const (
	VehicleActive  VehicleStatus = "active"
	VehicleExpired VehicleStatus = "expired"
)

// RenewalCycle represents the registration renewal periodicity of a vehicle.
type RenewalCycle string

const (
	CycleNew RenewalCycle = "new" // 3-year cycle
	CycleOld RenewalCycle = "old" // annual cycle
)

// IsValidCycle checks if a renewal cycle is valid.
func IsValidCycle(cycle RenewalCycle) bool {
	return cycle == CycleNew || cycle == CycleOld
}

// Vehicle represents a registered vehicle.
type Vehicle struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlateNumber    string             `bson:"plate_number" json:"plate_number"`
	FileNumber     string             `bson:"file_number" json:"file_number"`
	Make           string             `bson:"make" json:"make"`
	Model          string             `bson:"model" json:"model"`
	Year           int                `bson:"year" json:"year"`
	Cycle          RenewalCycle       `bson:"cycle" json:"cycle"`                     // "new" or "old"
	Status         VehicleStatus      `bson:"status" json:"status"`                   // "active" or "expired"
	ExpirationDate time.Time          `bson:"expiration_date" json:"expiration_date"` // registration validity end
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
