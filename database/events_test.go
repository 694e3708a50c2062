package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsNewEventsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewEventsDBHandler", func(t *testing.T) {
		eventsDbHandler, err := NewEventsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewEventsDBHandler to not return an error")
		require.NotNil(t, eventsDbHandler, "Expected NewEventsDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewEventsDBHandler with nil database", func(t *testing.T) {
		_, err := NewEventsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating EventsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestEventsCrud(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	eventsDbHandler, err := NewEventsDBHandler(database, true)
	require.NoError(t, err)

	event := &model.TimelineEvent{
		Title:       "Plato's Academy founded",
		Year:        -387,
		Category:    "Education",
		Description: "Plato founds the Academy in Athens.",
	}

	t.Run("Insert event", func(t *testing.T) {
		err := eventsDbHandler.InsertTimelineEvent(ctx, event)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, event.ID)
		assert.False(t, event.CreatedAt.IsZero())
	})

	t.Run("Insert duplicate event is allowed", func(t *testing.T) {
		duplicate := &model.TimelineEvent{Title: event.Title, Year: event.Year, Category: event.Category}
		err := eventsDbHandler.InsertTimelineEvent(ctx, duplicate)
		require.NoError(t, err)
		assert.NotEqual(t, event.ID, duplicate.ID)

		require.NoError(t, eventsDbHandler.DeleteTimelineEvent(ctx, duplicate.ID))
	})

	t.Run("Insert event with blank title", func(t *testing.T) {
		err := eventsDbHandler.InsertTimelineEvent(ctx, &model.TimelineEvent{Title: " ", Year: 1, Category: "Art"})

		var conflict *helper.ConflictError
		require.True(t, errors.As(err, &conflict), "Expected the check constraint to reject the row, got %v", err)
		assert.Equal(t, "title", conflict.Field)
	})

	t.Run("Select event", func(t *testing.T) {
		selected, err := eventsDbHandler.SelectTimelineEvent(ctx, event.ID)
		require.NoError(t, err)
		require.NotNil(t, selected)
		assert.Equal(t, event.Title, selected.Title)
		assert.Equal(t, -387, selected.Year)
		assert.Equal(t, "Education", selected.Category)
	})

	t.Run("Select missing event returns nil", func(t *testing.T) {
		selected, err := eventsDbHandler.SelectTimelineEvent(ctx, uuid.New())
		assert.NoError(t, err)
		assert.Nil(t, selected)
	})

	t.Run("Update event", func(t *testing.T) {
		event.Year = -386
		event.Description = "Revised date"
		err := eventsDbHandler.UpdateTimelineEvent(ctx, event)
		require.NoError(t, err)

		selected, err := eventsDbHandler.SelectTimelineEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, -386, selected.Year)
		assert.Equal(t, "Revised date", selected.Description)
	})

	t.Run("Update missing event", func(t *testing.T) {
		err := eventsDbHandler.UpdateTimelineEvent(ctx, &model.TimelineEvent{ID: uuid.New(), Title: "x", Category: "y"})
		assert.ErrorIs(t, err, helper.ErrNotFound)
	})

	t.Run("Delete event", func(t *testing.T) {
		err := eventsDbHandler.DeleteTimelineEvent(ctx, event.ID)
		require.NoError(t, err)

		err = eventsDbHandler.DeleteTimelineEvent(ctx, event.ID)
		assert.ErrorIs(t, err, helper.ErrNotFound)
	})
}

func TestEventsGetOrCreate(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	eventsDbHandler, err := NewEventsDBHandler(database, true)
	require.NoError(t, err)

	first := &model.TimelineEvent{Title: "Gutenberg Bible printed", Year: 1455, Category: "Technology"}
	require.NoError(t, eventsDbHandler.GetOrCreateTimelineEvent(ctx, first))

	second := &model.TimelineEvent{Title: "Gutenberg Bible printed", Year: 1455, Category: "Technology"}
	require.NoError(t, eventsDbHandler.GetOrCreateTimelineEvent(ctx, second))
	assert.Equal(t, first.ID, second.ID, "Expected the existing event to be returned")

	other := &model.TimelineEvent{Title: "Gutenberg Bible printed", Year: 1456, Category: "Technology"}
	require.NoError(t, eventsDbHandler.GetOrCreateTimelineEvent(ctx, other))
	assert.NotEqual(t, first.ID, other.ID, "Expected a different year to create a new event")

	count, err := eventsDbHandler.CountTimelineEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	deleted, err := eventsDbHandler.DeleteAllTimelineEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}

func TestEventsSelectTimelineEvents(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	eventsDbHandler, err := NewEventsDBHandler(database, true)
	require.NoError(t, err)

	events := []*model.TimelineEvent{
		{Title: "Academy founded", Year: -387, Category: "Education"},
		{Title: "Bible printed", Year: 1455, Category: "Technology"},
		{Title: "Canvas painted", Year: 1503, Category: "Art"},
		{Title: "Discovery published", Year: 1903, Category: "Science"},
		{Title: "Equations published", Year: 1915, Category: "Science"},
	}
	for _, event := range events {
		require.NoError(t, eventsDbHandler.InsertTimelineEvent(ctx, event))
	}

	titles := func(events []*model.TimelineEvent) []string {
		result := []string{}
		for _, event := range events {
			result = append(result, event.Title)
		}
		return result
	}

	t.Run("Default ordering is by year", func(t *testing.T) {
		selected, hasMore, err := eventsDbHandler.SelectTimelineEvents(ctx, nil, 10, nil)
		require.NoError(t, err)
		assert.False(t, hasMore)
		assert.Equal(t, []string{"Academy founded", "Bible printed", "Canvas painted", "Discovery published", "Equations published"}, titles(selected))
	})

	t.Run("Descending year", func(t *testing.T) {
		selected, _, err := eventsDbHandler.SelectTimelineEvents(ctx, &model.TimelineEventFilter{OrderBy: model.OrderYearDesc}, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Equations published", "Discovery published"}, titles(selected))
	})

	t.Run("Descending title", func(t *testing.T) {
		selected, _, err := eventsDbHandler.SelectTimelineEvents(ctx, &model.TimelineEventFilter{OrderBy: model.OrderTitleDesc}, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Equations published"}, titles(selected))
	})

	t.Run("Filter by category", func(t *testing.T) {
		selected, _, err := eventsDbHandler.SelectTimelineEvents(ctx, &model.TimelineEventFilter{Category: strPtr("Science")}, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Discovery published", "Equations published"}, titles(selected))
	})

	t.Run("Filter by exact year", func(t *testing.T) {
		selected, _, err := eventsDbHandler.SelectTimelineEvents(ctx, &model.TimelineEventFilter{Year: intPtr(1503)}, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Canvas painted"}, titles(selected))
	})

	t.Run("Filter by year range", func(t *testing.T) {
		filter := &model.TimelineEventFilter{MinYear: intPtr(1455), MaxYear: intPtr(1903)}
		selected, _, err := eventsDbHandler.SelectTimelineEvents(ctx, filter, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Bible printed", "Canvas painted", "Discovery published"}, titles(selected))
	})

	t.Run("Filter by title", func(t *testing.T) {
		selected, _, err := eventsDbHandler.SelectTimelineEvents(ctx, &model.TimelineEventFilter{Title: strPtr("PUBLISHED")}, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Discovery published", "Equations published"}, titles(selected))
	})

	t.Run("Invalid ordering", func(t *testing.T) {
		_, _, err := eventsDbHandler.SelectTimelineEvents(ctx, &model.TimelineEventFilter{OrderBy: "birthYear"}, 10, nil)

		var validation *helper.ValidationError
		assert.True(t, errors.As(err, &validation), "Expected a validation error, got %v", err)
	})
}

func TestEventsPagination(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	eventsDbHandler, err := NewEventsDBHandler(database, true)
	require.NoError(t, err)

	for i := 0; i < 17; i++ {
		event := &model.TimelineEvent{Title: fmt.Sprintf("Event %02d", i%9), Year: 1900 + (i % 3), Category: "Science"}
		require.NoError(t, eventsDbHandler.InsertTimelineEvent(ctx, event))
	}

	for _, ordering := range model.TimelineEventOrderings {
		t.Run("Walk all pages ordered by "+ordering, func(t *testing.T) {
			filter := &model.TimelineEventFilter{OrderBy: ordering}
			all, _, err := eventsDbHandler.SelectTimelineEvents(ctx, filter, 0, nil)
			require.NoError(t, err)
			require.Len(t, all, 17)

			walked := []uuid.UUID{}
			var after *model.Cursor
			for pages := 0; pages < 10; pages++ {
				events, hasMore, err := eventsDbHandler.SelectTimelineEvents(ctx, filter, 4, after)
				require.NoError(t, err)
				for _, event := range events {
					walked = append(walked, event.ID)
				}
				if !hasMore {
					break
				}
				cursor := model.TimelineEventCursor(ordering, events[len(events)-1])
				after = &cursor
			}

			expected := []uuid.UUID{}
			for _, event := range all {
				expected = append(expected, event.ID)
			}
			assert.Equal(t, expected, walked)
		})
	}
}
