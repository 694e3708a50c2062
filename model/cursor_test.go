package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorCodec(t *testing.T) {
	codec := NewCursorCodec("test-secret")
	figure := &Figure{ID: uuid.New(), Name: "Plato", NormalizedBirthYear: -428}

	t.Run("Encode and decode a figure cursor", func(t *testing.T) {
		token, err := codec.Encode(FigureCursor(OrderBirthYear, figure))
		require.NoError(t, err)
		assert.NotContains(t, token, "Plato", "Expected the cursor to be opaque")

		cursor, err := codec.Decode(token, OrderBirthYear)
		require.NoError(t, err)
		require.NotNil(t, cursor)
		assert.Equal(t, figure.ID, cursor.ID)
		require.NotNil(t, cursor.Year)
		assert.Equal(t, -428, *cursor.Year)
		require.NotNil(t, cursor.Text)
		assert.Equal(t, "Plato", *cursor.Text)
	})

	t.Run("Name ordering omits the year", func(t *testing.T) {
		cursor := FigureCursor(OrderName, figure)
		assert.Nil(t, cursor.Year)
		assert.NotNil(t, cursor.Text)
	})

	t.Run("Empty token decodes to nil", func(t *testing.T) {
		cursor, err := codec.Decode("", OrderBirthYear)
		assert.NoError(t, err)
		assert.Nil(t, cursor)
	})

	t.Run("Cursor from another ordering is rejected", func(t *testing.T) {
		token, err := codec.Encode(FigureCursor(OrderName, figure))
		require.NoError(t, err)

		_, err = codec.Decode(token, OrderBirthYear)
		var validation *helper.ValidationError
		require.True(t, errors.As(err, &validation), "Expected a ValidationError")
		assert.Equal(t, "after", validation.Field)
	})

	t.Run("Cursor signed with another key is rejected", func(t *testing.T) {
		token, err := NewCursorCodec("other-secret").Encode(FigureCursor(OrderBirthYear, figure))
		require.NoError(t, err)

		_, err = codec.Decode(token, OrderBirthYear)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "signature")
	})

	t.Run("Tampered payload is rejected", func(t *testing.T) {
		token, err := codec.Encode(FigureCursor(OrderBirthYear, figure))
		require.NoError(t, err)

		payload, signature, _ := strings.Cut(token, ".")
		tampered := "x" + payload[1:] + "." + signature
		_, err = codec.Decode(tampered, OrderBirthYear)
		assert.Error(t, err)
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		for _, token := range []string{"garbage", "a.b.c", "!!!.???"} {
			_, err := codec.Decode(token, OrderBirthYear)
			assert.Error(t, err, "Expected %q to be rejected", token)
		}
	})

	t.Run("Influence cursor keeps the timestamp", func(t *testing.T) {
		influence := &Influence{ID: uuid.New(), CreatedAt: time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.UTC)}
		token, err := codec.Encode(InfluenceCursor(influence))
		require.NoError(t, err)

		cursor, err := codec.Decode(token, OrderCreatedAt)
		require.NoError(t, err)
		require.NotNil(t, cursor.Time)
		assert.True(t, influence.CreatedAt.Equal(*cursor.Time))
	})
}
