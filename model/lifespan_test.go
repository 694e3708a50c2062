package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestLifespanOverlaps(t *testing.T) {
	plato := Lifespan{Birth: -428, Death: intPtr(-348)}
	aristotle := Lifespan{Birth: -384, Death: intPtr(-322)}
	chomsky := Lifespan{Birth: 1928}

	tests := []struct {
		name     string
		lifespan Lifespan
		min, max int
		expected bool
	}{
		{"Range inside lifespan", plato, -400, -350, true},
		{"Range ends before birth", aristotle, -400, -385, false},
		{"Range touches birth", aristotle, -400, -384, true},
		{"Range touches death", plato, -348, -300, true},
		{"Range starts after death", plato, -347, -300, false},
		{"Living figure overlaps any later range", chomsky, 2500, 3000, true},
		{"Living figure does not overlap earlier range", chomsky, 1800, 1927, false},
		{"Living figure overlaps range ending at birth", chomsky, 1800, 1928, true},
		{"Single year range", plato, -400, -400, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.lifespan.Overlaps(tc.min, tc.max))
		})
	}
}

func TestLifespanValidate(t *testing.T) {
	assert.NoError(t, Lifespan{Birth: -428, Death: intPtr(-348)}.Validate())
	assert.NoError(t, Lifespan{Birth: 1900, Death: intPtr(1900)}.Validate(), "Expected birth == death to be valid")
	assert.NoError(t, Lifespan{Birth: 1928}.Validate(), "Expected a living figure to be valid")
	assert.Error(t, Lifespan{Birth: 1900, Death: intPtr(1899)}.Validate(), "Expected birth > death to be invalid")
}
