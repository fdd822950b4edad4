package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// RenewalStatus represents the outcome of classifying a renewal against
// its scheduled window.
type RenewalStatus string

const (
	RenewalEarly        RenewalStatus = "early"
	RenewalOnTime       RenewalStatus = "on_time"
	RenewalLate         RenewalStatus = "late"
	RenewalUndetermined RenewalStatus = "undetermined" // window could not be computed
)

// MaxRenewalNotesLen is the maximum length of the free-text notes field.
const MaxRenewalNotesLen = 500

// RenewalEvent is an append-only audit record of a single processed
// renewal. Events are never updated after creation.
type RenewalEvent struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	VehicleID          primitive.ObjectID  `bson:"vehicle_id" json:"vehicle_id"`
	PlateNumber        string              `bson:"plate_number" json:"plate_number"`
	RenewalDate        time.Time           `bson:"renewal_date" json:"renewal_date"`
	Status             RenewalStatus       `bson:"status" json:"status"`
	Description        string              `bson:"description" json:"description"`
	DaysDifference     int                 `bson:"days_difference" json:"days_difference"` // renewal date minus window start, in days
	ScheduledWeekStart time.Time           `bson:"scheduled_week_start" json:"scheduled_week_start"`
	ScheduledWeekEnd   time.Time           `bson:"scheduled_week_end" json:"scheduled_week_end"`
	Cycle              RenewalCycle        `bson:"cycle" json:"cycle"`
	ProcessedBy        *primitive.ObjectID `bson:"processed_by,omitempty" json:"processed_by,omitempty"`
	Notes              string              `bson:"notes,omitempty" json:"notes,omitempty"`
	ScheduleError      string              `bson:"schedule_error,omitempty" json:"schedule_error,omitempty"` // set only on undetermined events
	CreatedAt          time.Time           `bson:"created_at" json:"created_at"`
}

// ProcessRenewalRequest is the payload for processing a renewal.
type ProcessRenewalRequest struct {
	VehicleID   string `json:"vehicle_id"`
	RenewalDate string `json:"renewal_date"` // YYYY-MM-DD
	Notes       string `json:"notes,omitempty"`
}
