package model

import (
	"errors"
	"testing"

	"github.com/siherrmann/chronosatlas/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFigureFilterValidate(t *testing.T) {
	t.Run("Empty filter is valid and ordered by birth year", func(t *testing.T) {
		filter := &FigureFilter{}
		assert.NoError(t, filter.Validate())
		assert.Equal(t, OrderBirthYear, filter.Ordering())
		assert.False(t, filter.HasLifespanRange())
	})

	t.Run("Lifespan range applies only with both bounds", func(t *testing.T) {
		assert.False(t, (&FigureFilter{MinYear: intPtr(1800)}).HasLifespanRange())
		assert.False(t, (&FigureFilter{MaxYear: intPtr(1900)}).HasLifespanRange())
		assert.True(t, (&FigureFilter{MinYear: intPtr(1800), MaxYear: intPtr(1900)}).HasLifespanRange())
	})

	t.Run("Inverted lifespan range is invalid", func(t *testing.T) {
		err := (&FigureFilter{MinYear: intPtr(1900), MaxYear: intPtr(1800)}).Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "minYear")
	})

	t.Run("Inverted birth year range is invalid", func(t *testing.T) {
		err := (&FigureFilter{MinBirthYear: intPtr(1900), MaxBirthYear: intPtr(1800)}).Validate()
		assert.Error(t, err)
	})

	t.Run("Unknown ordering is invalid", func(t *testing.T) {
		assert.Error(t, (&FigureFilter{OrderBy: "deathYear"}).Validate())
		for _, ordering := range FigureOrderings {
			assert.NoError(t, (&FigureFilter{OrderBy: ordering}).Validate())
		}
	})

	t.Run("Years outside the integer column range are invalid", func(t *testing.T) {
		cases := []struct {
			name   string
			filter *FigureFilter
			field  string
		}{
			{"min year", &FigureFilter{MinYear: intPtr(3000000000), MaxYear: intPtr(3000000001)}, "minYear"},
			{"max year at int32 max", &FigureFilter{MinYear: intPtr(0), MaxYear: intPtr(MaxStoredYear + 1)}, "maxYear"},
			{"min birth year", &FigureFilter{MinBirthYear: intPtr(3000000000)}, "minBirthYear"},
			{"max birth year", &FigureFilter{MaxBirthYear: intPtr(MinStoredYear - 1)}, "maxBirthYear"},
		}
		for _, c := range cases {
			err := c.filter.Validate()
			var validationErr *helper.ValidationError
			require.True(t, errors.As(err, &validationErr), "Expected a validation error for %s", c.name)
			assert.Equal(t, c.field, validationErr.Field, c.name)
		}

		assert.NoError(t, (&FigureFilter{MinYear: intPtr(MinStoredYear), MaxYear: intPtr(MaxStoredYear)}).Validate())
	})

	t.Run("Bad slug is invalid", func(t *testing.T) {
		assert.Error(t, (&FigureFilter{Slug: strPtr("Not A Slug")}).Validate())
		assert.Error(t, (&FigureFilter{Field: strPtr("Philosophy")}).Validate())
		assert.NoError(t, (&FigureFilter{Field: strPtr("philosophy")}).Validate())
	})
}

func TestTimelineEventFilterValidate(t *testing.T) {
	assert.NoError(t, (&TimelineEventFilter{}).Validate())
	assert.Equal(t, OrderYear, (&TimelineEventFilter{}).Ordering())
	assert.Error(t, (&TimelineEventFilter{OrderBy: "category"}).Validate())
	assert.Error(t, (&TimelineEventFilter{MinYear: intPtr(10), MaxYear: intPtr(5)}).Validate())
	assert.NoError(t, (&TimelineEventFilter{OrderBy: OrderTitleDesc, Category: strPtr("Science")}).Validate())

	var validationErr *helper.ValidationError
	err := (&TimelineEventFilter{Year: intPtr(3000000000)}).Validate()
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "year", validationErr.Field)

	err = (&TimelineEventFilter{MinYear: intPtr(0), MaxYear: intPtr(MaxStoredYear + 1)}).Validate()
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "maxYear", validationErr.Field)
}

func TestPageRequestLimit(t *testing.T) {
	limit, err := PageRequest{}.Limit()
	assert.NoError(t, err)
	assert.Equal(t, DefaultPageSize, limit)

	limit, err = PageRequest{First: intPtr(MaxPageSize)}.Limit()
	assert.NoError(t, err)
	assert.Equal(t, MaxPageSize, limit)

	for _, first := range []int{0, -1, MaxPageSize + 1} {
		_, err := PageRequest{First: intPtr(first)}.Limit()
		assert.Error(t, err, "Expected first=%d to be rejected", first)
	}
}
