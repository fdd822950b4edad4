package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/vehicle-registry/internal/models"
	"github.com/ukydev/vehicle-registry/internal/plate"
)

var ErrCalculation = errors.New("schedule calculation failed")

// Window is the concrete date range a renewal is scheduled into. It is
// computed on demand and only persisted as a snapshot inside a renewal
// event.
type Window struct {
	WeekStart time.Time
	WeekEnd   time.Time
	Bucket    plate.WeekBucket
	Month     int // 0-based
	Year      int
}

// Calculator resolves a plate and renewal cycle into the scheduled
// window for the current decision period.
type Calculator struct {
	decoder *plate.Decoder
}

// NewCalculator creates a calculator over the given plate decoder.
func NewCalculator(decoder *plate.Decoder) *Calculator {
	return &Calculator{decoder: decoder}
}

// Window computes the scheduled renewal window for a plate relative to
// now. New-cycle vehicles renew three years out; old-cycle vehicles
// renew in the decoded month of the current year, rolling to next year
// once that month has fully elapsed.
func (c *Calculator) Window(plateNumber string, cycle models.RenewalCycle, now time.Time) (Window, error) {
	code, err := c.decoder.Decode(plateNumber)
	if err != nil {
		return Window{}, err
	}

	var year int
	switch cycle {
	case models.CycleNew:
		year = now.Year() + 3
	case models.CycleOld:
		year = now.Year()
		if int(now.Month())-1 > code.Month {
			year++
		}
	default:
		return Window{}, fmt.Errorf("%w: unknown renewal cycle %q", ErrCalculation, cycle)
	}

	startDay, endDay, err := bucketDays(code.Week, year, code.Month)
	if err != nil {
		return Window{}, err
	}

	month := time.Month(code.Month + 1)
	return Window{
		WeekStart: time.Date(year, month, startDay, 0, 0, 0, 0, time.UTC),
		WeekEnd:   time.Date(year, month, endDay, 0, 0, 0, 0, time.UTC),
		Bucket:    code.Week,
		Month:     code.Month,
		Year:      year,
	}, nil
}

// bucketDays returns the inclusive day-of-month range for a week bucket.
// The last bucket is clamped to the true month length, leap years
// included.
func bucketDays(bucket plate.WeekBucket, year, month int) (int, int, error) {
	switch bucket {
	case plate.WeekFirst:
		return 1, 7, nil
	case plate.WeekSecond:
		return 8, 14, nil
	case plate.WeekThird:
		return 15, 21, nil
	case plate.WeekLast:
		return 22, lastDayOfMonth(year, month), nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown week bucket %q", ErrCalculation, bucket)
	}
}

func lastDayOfMonth(year, month int) int {
	// Day 0 of the following month.
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}
