package plate

import (
	"encoding/json"
	"fmt"
	"os"
)

// WeekBucket identifies which week of the scheduled month a renewal
// window falls in.
type WeekBucket string

const (
	WeekFirst  WeekBucket = "first"
	WeekSecond WeekBucket = "second"
	WeekThird  WeekBucket = "third"
	WeekLast   WeekBucket = "last"
)

// IsValidBucket checks if a week bucket is valid.
func IsValidBucket(b WeekBucket) bool {
	switch b {
	case WeekFirst, WeekSecond, WeekThird, WeekLast:
		return true
	default:
		return false
	}
}

// Policy holds the regulatory digit lookup tables. The second-to-last
// plate digit selects a week bucket, the last digit selects a 0-based
// month index. Both tables must cover all ten digits.
type Policy struct {
	WeekBuckets map[string]WeekBucket `json:"week_buckets"`
	MonthIndex  map[string]int        `json:"month_index"`
}

// DefaultPolicy returns the built-in lookup tables. Registries with
// different digit assignments override them via a policy file.
func DefaultPolicy() Policy {
	return Policy{
		WeekBuckets: map[string]WeekBucket{
			"0": WeekFirst, "1": WeekFirst, "2": WeekFirst,
			"3": WeekSecond, "4": WeekSecond,
			"5": WeekThird, "6": WeekThird,
			"7": WeekLast, "8": WeekLast, "9": WeekLast,
		},
		MonthIndex: map[string]int{
			"1": 0, "2": 1, "3": 2, "4": 3, "5": 4,
			"6": 5, "7": 6, "8": 7, "9": 8, "0": 9,
		},
	}
}

// LoadPolicy reads lookup tables from a JSON file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
	}
	return p, nil
}

// Validate checks that both tables cover every digit 0-9 and map to
// defined targets. Called once at startup; a partial table refuses boot.
func (p Policy) Validate() error {
	for d := '0'; d <= '9'; d++ {
		digit := string(d)

		bucket, ok := p.WeekBuckets[digit]
		if !ok {
			return fmt.Errorf("week bucket table is missing digit %s", digit)
		}
		if !IsValidBucket(bucket) {
			return fmt.Errorf("week bucket table maps digit %s to unknown bucket %q", digit, bucket)
		}

		month, ok := p.MonthIndex[digit]
		if !ok {
			return fmt.Errorf("month index table is missing digit %s", digit)
		}
		if month < 0 || month > 11 {
			return fmt.Errorf("month index table maps digit %s to out-of-range month %d", digit, month)
		}
	}
	return nil
}
