package renewal

import (
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/vehicle-registry/internal/models"
	"github.com/ukydev/vehicle-registry/internal/schedule"
)

var (
	ErrValidation  = errors.New("invalid renewal input")
	ErrMissingData = errors.New("vehicle has no plate number")
)

// DateLayout is the wire format for renewal dates.
const DateLayout = "2006-01-02"

// Classification is the outcome of comparing a renewal date against its
// scheduled window. An undetermined status means the window could not be
// computed; the error is carried in ScheduleError so the audit trail
// still records the renewal.
type Classification struct {
	Status         models.RenewalStatus
	Description    string
	RenewalDate    time.Time
	WeekStart      time.Time
	WeekEnd        time.Time
	DaysDifference int
	PlateNumber    string
	Cycle          models.RenewalCycle
	ScheduleError  string
}

// Classifier classifies renewals as early, on time or late.
type Classifier struct {
	calc *schedule.Calculator
	now  func() time.Time
}

// NewClassifier creates a classifier over the given schedule calculator.
func NewClassifier(calc *schedule.Calculator) *Classifier {
	return &Classifier{calc: calc, now: time.Now}
}

// Classify validates the input, computes the scheduled window and places
// the renewal date relative to it. A renewal up to 7 days before the
// window start still counts as on time; only more than 7 days ahead is
// early. The same input always yields the same classification.
//
// A schedule-calculation failure does not fail the call: it yields an
// explicit undetermined classification carrying the error, so callers
// can persist the event without mistaking it for an on-time renewal.
func (c *Classifier) Classify(plateNumber, renewalDate string, cycle models.RenewalCycle) (Classification, error) {
	if plateNumber == "" {
		return Classification{}, fmt.Errorf("%w: plate number is required", ErrValidation)
	}
	if renewalDate == "" {
		return Classification{}, fmt.Errorf("%w: renewal date is required", ErrValidation)
	}
	if !models.IsValidCycle(cycle) {
		return Classification{}, fmt.Errorf("%w: unknown renewal cycle %q", ErrValidation, cycle)
	}

	renewed, err := time.ParseInLocation(DateLayout, renewalDate, time.UTC)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: renewal date must be %s", ErrValidation, DateLayout)
	}

	result := Classification{
		RenewalDate: renewed,
		PlateNumber: plateNumber,
		Cycle:       cycle,
	}

	window, err := c.calc.Window(plateNumber, cycle, c.now().UTC())
	if err != nil {
		result.Status = models.RenewalUndetermined
		result.Description = "scheduled window could not be determined"
		result.ScheduleError = err.Error()
		return result, nil
	}

	result.WeekStart = window.WeekStart
	result.WeekEnd = window.WeekEnd
	result.DaysDifference = daysBetween(window.WeekStart, renewed)

	switch {
	case result.DaysDifference < -7:
		result.Status = models.RenewalEarly
		result.Description = fmt.Sprintf("renewed %d days before the scheduled window", -result.DaysDifference)
	case !renewed.After(window.WeekEnd):
		result.Status = models.RenewalOnTime
		result.Description = "renewed within the scheduled window"
	default:
		daysLate := daysBetween(window.WeekEnd, renewed)
		result.Status = models.RenewalLate
		result.Description = fmt.Sprintf("renewed %d days after the scheduled window", daysLate)
	}
	return result, nil
}

// daysBetween returns to minus from in whole days, rounded toward
// negative infinity. Both arguments are midnight UTC dates, so the
// division is exact.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
