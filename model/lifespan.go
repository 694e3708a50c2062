package model

import (
	"math"

	"github.com/siherrmann/chronosatlas/helper"
)

// Years are PostgreSQL integers. The upper bound keeps maxYear + 1 in range,
// which the closed int4range(..., '[]') stores as its exclusive upper bound.
const (
	MinStoredYear = math.MinInt32
	MaxStoredYear = math.MaxInt32 - 1
)

// ValidateYear rejects a year outside [MinStoredYear, MaxStoredYear]. Nil
// years are valid.
func ValidateYear(field string, year *int) error {
	if year == nil {
		return nil
	}
	if *year < MinStoredYear || *year > MaxStoredYear {
		return helper.NewValidationError(field, "must be between %d and %d (got %d)", MinStoredYear, MaxStoredYear, *year)
	}
	return nil
}

// Lifespan is the closed interval [Birth, Death] in normalized years.
// Negative years are BCE. A nil Death marks a living figure and is
// treated as an open upper bound.
type Lifespan struct {
	Birth int
	Death *int
}

// Validate checks birth <= death.
func (l Lifespan) Validate() error {
	if err := ValidateYear("normalizedBirthYear", &l.Birth); err != nil {
		return err
	}
	if err := ValidateYear("normalizedDeathYear", l.Death); err != nil {
		return err
	}
	if l.Death != nil && l.Birth > *l.Death {
		return helper.NewValidationError("normalizedDeathYear", "must be >= normalizedBirthYear (got %d < %d)", *l.Death, l.Birth)
	}
	return nil
}

// Overlaps reports whether the lifespan intersects [minYear, maxYear],
// both bounds inclusive.
func (l Lifespan) Overlaps(minYear int, maxYear int) bool {
	if l.Birth > maxYear {
		return false
	}
	return l.Death == nil || *l.Death >= minYear
}
