package renewal

import (
	"fmt"
	"time"

	"github.com/ukydev/vehicle-registry/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Factory assembles persistable renewal events from classifier output
// and vehicle identity. It performs no I/O; the caller owns the write.
type Factory struct {
	classifier *Classifier
	now        func() time.Time
}

// NewFactory creates a factory over the given classifier.
func NewFactory(classifier *Classifier) *Factory {
	return &Factory{classifier: classifier, now: time.Now}
}

// NewEvent classifies a renewal for the vehicle and merges the result
// with vehicle identity and the optional acting user into an immutable
// audit record.
func (f *Factory) NewEvent(vehicle *models.Vehicle, renewalDate string, processedBy *primitive.ObjectID, notes string) (*models.RenewalEvent, error) {
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle is required", ErrValidation)
	}
	if vehicle.PlateNumber == "" {
		return nil, fmt.Errorf("%w: vehicle %s", ErrMissingData, vehicle.ID.Hex())
	}
	if len(notes) > models.MaxRenewalNotesLen {
		return nil, fmt.Errorf("%w: notes exceed %d characters", ErrValidation, models.MaxRenewalNotesLen)
	}

	c, err := f.classifier.Classify(vehicle.PlateNumber, renewalDate, vehicle.Cycle)
	if err != nil {
		return nil, err
	}

	// The ledger never carries future-dated renewals: the renewal must
	// be at or before the record's creation time.
	now := f.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if c.RenewalDate.After(today) {
		return nil, fmt.Errorf("%w: renewal date %s is in the future", ErrValidation, renewalDate)
	}

	return &models.RenewalEvent{
		VehicleID:          vehicle.ID,
		PlateNumber:        c.PlateNumber,
		RenewalDate:        c.RenewalDate,
		Status:             c.Status,
		Description:        c.Description,
		DaysDifference:     c.DaysDifference,
		ScheduledWeekStart: c.WeekStart,
		ScheduledWeekEnd:   c.WeekEnd,
		Cycle:              c.Cycle,
		ProcessedBy:        processedBy,
		Notes:              notes,
		ScheduleError:      c.ScheduleError,
		CreatedAt:          now,
	}, nil
}
