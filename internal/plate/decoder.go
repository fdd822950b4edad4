package plate

import (
	"errors"
	"fmt"
)

var (
	ErrPlateFormat = errors.New("plate must end in two decimal digits")
	ErrDecode      = errors.New("plate digit has no policy mapping")
)

// Code is the scheduling information carried by a plate's trailing digits.
type Code struct {
	Week  WeekBucket
	Month int // 0-based
}

// Decoder extracts scheduling codes from plate identifiers using the
// configured policy tables.
type Decoder struct {
	policy Policy
}

// NewDecoder creates a decoder after validating the policy tables.
func NewDecoder(policy Policy) (*Decoder, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plate policy: %w", err)
	}
	return &Decoder{policy: policy}, nil
}

// Decode maps the last two characters of a plate identifier through the
// policy tables. The plate is otherwise opaque.
func (d *Decoder) Decode(plateNumber string) (Code, error) {
	if len(plateNumber) < 2 {
		return Code{}, fmt.Errorf("%w: %q", ErrPlateFormat, plateNumber)
	}

	weekDigit := plateNumber[len(plateNumber)-2]
	monthDigit := plateNumber[len(plateNumber)-1]
	if weekDigit < '0' || weekDigit > '9' || monthDigit < '0' || monthDigit > '9' {
		return Code{}, fmt.Errorf("%w: %q", ErrPlateFormat, plateNumber)
	}

	// Defensive: Validate guarantees full tables, but a lookup miss must
	// not fall through to a zero value.
	bucket, ok := d.policy.WeekBuckets[string(weekDigit)]
	if !ok {
		return Code{}, fmt.Errorf("%w: week digit %c", ErrDecode, weekDigit)
	}
	month, ok := d.policy.MonthIndex[string(monthDigit)]
	if !ok {
		return Code{}, fmt.Errorf("%w: month digit %c", ErrDecode, monthDigit)
	}

	return Code{Week: bucket, Month: month}, nil
}
