package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
)

// Figure orderings. A leading "-" sorts descending on the primary key.
const (
	OrderBirthYear     = "birthYear"
	OrderBirthYearDesc = "-birthYear"
	OrderName          = "name"
	OrderNameDesc      = "-name"
)

// Timeline event orderings.
const (
	OrderYear      = "year"
	OrderYearDesc  = "-year"
	OrderTitle     = "title"
	OrderTitleDesc = "-title"
)

// OrderCreatedAt is the only influence ordering.
const OrderCreatedAt = "createdAt"

var (
	FigureOrderings        = []string{OrderBirthYear, OrderBirthYearDesc, OrderName, OrderNameDesc}
	TimelineEventOrderings = []string{OrderYear, OrderYearDesc, OrderTitle, OrderTitleDesc}
)

// FigureFilter selects figures. All set conditions must hold.
// MinYear and MaxYear select by lifespan overlap and only apply when both are set.
type FigureFilter struct {
	Slug         *string
	ExternalID   *string
	Name         *string
	MinYear      *int
	MaxYear      *int
	MinBirthYear *int
	MaxBirthYear *int
	Field        *string
	OrderBy      string
}

// HasLifespanRange reports whether the overlap condition applies.
func (f *FigureFilter) HasLifespanRange() bool {
	return f.MinYear != nil && f.MaxYear != nil
}

// Ordering returns the effective ordering name.
func (f *FigureFilter) Ordering() string {
	if f.OrderBy == "" {
		return OrderBirthYear
	}
	return f.OrderBy
}

// Validate rejects unknown orderings, malformed slugs and inverted ranges.
func (f *FigureFilter) Validate() error {
	if !contains(FigureOrderings, f.Ordering()) {
		return helper.NewValidationError("orderBy", "unknown ordering %q, expected one of %s", f.OrderBy, strings.Join(FigureOrderings, ", "))
	}
	if f.Slug != nil && !helper.IsSlug(*f.Slug) {
		return helper.NewValidationError("slug", "%q is not a valid slug", *f.Slug)
	}
	if f.Field != nil && !helper.IsSlug(*f.Field) {
		return helper.NewValidationError("field", "%q is not a valid slug", *f.Field)
	}
	err := validateYears(
		namedYear{"minYear", f.MinYear},
		namedYear{"maxYear", f.MaxYear},
		namedYear{"minBirthYear", f.MinBirthYear},
		namedYear{"maxBirthYear", f.MaxBirthYear},
	)
	if err != nil {
		return err
	}
	if f.HasLifespanRange() && *f.MinYear > *f.MaxYear {
		return helper.NewValidationError("minYear", "must be <= maxYear (got %d > %d)", *f.MinYear, *f.MaxYear)
	}
	if f.MinBirthYear != nil && f.MaxBirthYear != nil && *f.MinBirthYear > *f.MaxBirthYear {
		return helper.NewValidationError("minBirthYear", "must be <= maxBirthYear (got %d > %d)", *f.MinBirthYear, *f.MaxBirthYear)
	}
	return nil
}

// TimelineEventFilter selects timeline events. All set conditions must hold.
type TimelineEventFilter struct {
	Category *string
	Year     *int
	Title    *string
	MinYear  *int
	MaxYear  *int
	OrderBy  string
}

// Ordering returns the effective ordering name.
func (f *TimelineEventFilter) Ordering() string {
	if f.OrderBy == "" {
		return OrderYear
	}
	return f.OrderBy
}

func (f *TimelineEventFilter) Validate() error {
	if !contains(TimelineEventOrderings, f.Ordering()) {
		return helper.NewValidationError("orderBy", "unknown ordering %q, expected one of %s", f.OrderBy, strings.Join(TimelineEventOrderings, ", "))
	}
	err := validateYears(
		namedYear{"year", f.Year},
		namedYear{"minYear", f.MinYear},
		namedYear{"maxYear", f.MaxYear},
	)
	if err != nil {
		return err
	}
	if f.MinYear != nil && f.MaxYear != nil && *f.MinYear > *f.MaxYear {
		return helper.NewValidationError("minYear", "must be <= maxYear (got %d > %d)", *f.MinYear, *f.MaxYear)
	}
	return nil
}

// InfluenceFilter selects influences by either endpoint.
type InfluenceFilter struct {
	InfluencerID *uuid.UUID
	InfluencedID *uuid.UUID
}

// Ordering returns the only supported ordering.
func (f *InfluenceFilter) Ordering() string {
	return OrderCreatedAt
}

type namedYear struct {
	field string
	year  *int
}

func validateYears(years ...namedYear) error {
	for _, y := range years {
		if err := ValidateYear(y.field, y.year); err != nil {
			return err
		}
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
