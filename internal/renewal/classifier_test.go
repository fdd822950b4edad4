package renewal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/vehicle-registry/internal/models"
	"github.com/ukydev/vehicle-registry/internal/plate"
	"github.com/ukydev/vehicle-registry/internal/schedule"
)

// newClassifierAt returns a classifier whose reference time is pinned.
func newClassifierAt(t *testing.T, now time.Time) *Classifier {
	t.Helper()
	decoder, err := plate.NewDecoder(plate.DefaultPolicy())
	require.NoError(t, err)
	c := NewClassifier(schedule.NewCalculator(decoder))
	c.now = func() time.Time { return now }
	return c
}

// Plate AB-56 decodes to the third week of June; with an old cycle and
// a reference time of 2024-06-01 the window is [2024-06-15, 2024-06-21].
const testPlate = "AB-56"

var testNow = time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

func TestClassifyEarly(t *testing.T) {
	c := newClassifierAt(t, testNow)

	result, err := c.Classify(testPlate, "2024-02-01", models.CycleOld)
	require.NoError(t, err)

	assert.Equal(t, models.RenewalEarly, result.Status)
	assert.Equal(t, -135, result.DaysDifference)
	assert.Contains(t, result.Description, "135 days before")
}

func TestClassifyOnTime(t *testing.T) {
	c := newClassifierAt(t, testNow)

	result, err := c.Classify(testPlate, "2024-06-17", models.CycleOld)
	require.NoError(t, err)

	assert.Equal(t, models.RenewalOnTime, result.Status)
	assert.Equal(t, 2, result.DaysDifference)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), result.WeekStart)
	assert.Equal(t, time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC), result.WeekEnd)
}

func TestClassifyLate(t *testing.T) {
	c := newClassifierAt(t, testNow)

	result, err := c.Classify(testPlate, "2024-07-01", models.CycleOld)
	require.NoError(t, err)

	assert.Equal(t, models.RenewalLate, result.Status)
	assert.Contains(t, result.Description, "10 days after")
}

func TestClassifyWindowBoundaries(t *testing.T) {
	c := newClassifierAt(t, testNow)

	tests := []struct {
		name string
		date string
		want models.RenewalStatus
	}{
		{"exactly at window start", "2024-06-15", models.RenewalOnTime},
		{"exactly at window end", "2024-06-21", models.RenewalOnTime},
		{"day after window end", "2024-06-22", models.RenewalLate},
		{"seven days before start", "2024-06-08", models.RenewalOnTime},
		{"eight days before start", "2024-06-07", models.RenewalEarly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Classify(testPlate, tt.date, models.CycleOld)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestClassifyIdempotent(t *testing.T) {
	c := newClassifierAt(t, testNow)

	first, err := c.Classify(testPlate, "2024-06-17", models.CycleOld)
	require.NoError(t, err)
	second, err := c.Classify(testPlate, "2024-06-17", models.CycleOld)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClassifyValidation(t *testing.T) {
	c := newClassifierAt(t, testNow)

	tests := []struct {
		name  string
		plate string
		date  string
		cycle models.RenewalCycle
	}{
		{"missing plate", "", "2024-06-17", models.CycleOld},
		{"missing date", testPlate, "", models.CycleOld},
		{"unparseable date", testPlate, "17/06/2024", models.CycleOld},
		{"unknown cycle", testPlate, "2024-06-17", models.RenewalCycle("vintage")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Classify(tt.plate, tt.date, tt.cycle)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestClassifyUndeterminedOnScheduleFailure(t *testing.T) {
	c := newClassifierAt(t, testNow)

	// A plate without a decodable suffix makes the window calculation
	// fail; the classification is explicit about it instead of failing
	// the call or defaulting to on time.
	result, err := c.Classify("AB-5X", "2024-05-01", models.CycleOld)
	require.NoError(t, err)

	assert.Equal(t, models.RenewalUndetermined, result.Status)
	assert.NotEmpty(t, result.ScheduleError)
	assert.True(t, result.WeekStart.IsZero())
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), result.RenewalDate)
}
