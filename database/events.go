package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/core/query"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
	loadSql "github.com/siherrmann/chronosatlas/sql"
)

const eventColumns = `timeline_events.id, timeline_events.title, timeline_events.year,
	timeline_events.category, timeline_events.description, timeline_events.created_at`

// EventsDBHandlerFunctions defines the interface for timeline event database operations.
type EventsDBHandlerFunctions interface {
	InsertTimelineEvent(ctx context.Context, event *model.TimelineEvent) error
	GetOrCreateTimelineEvent(ctx context.Context, event *model.TimelineEvent) error
	UpdateTimelineEvent(ctx context.Context, event *model.TimelineEvent) error
	DeleteTimelineEvent(ctx context.Context, id uuid.UUID) error
	DeleteAllTimelineEvents(ctx context.Context) (int, error)
	CountTimelineEvents(ctx context.Context) (int64, error)
	SelectTimelineEvent(ctx context.Context, id uuid.UUID) (*model.TimelineEvent, error)
	SelectTimelineEvents(ctx context.Context, filter *model.TimelineEventFilter, limit int, after *model.Cursor) ([]*model.TimelineEvent, bool, error)
}

// EventsDBHandler handles timeline event database operations
type EventsDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

// NewEventsDBHandler creates a new timeline events database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEventsDBHandler(db *helper.Database, force bool) (*EventsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.LoadEventsSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load events sql", err)
	}

	db.Logger.Info("Initialized EventsDBHandler")

	return &EventsDBHandler{
		db: db,
		q:  db.Instance,
	}, nil
}

// WithTx returns a handler running every statement inside tx.
func (h *EventsDBHandler) WithTx(tx *sql.Tx) *EventsDBHandler {
	return &EventsDBHandler{db: h.db, q: tx}
}

// InsertTimelineEvent inserts a new event. Duplicates are allowed.
func (h *EventsDBHandler) InsertTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM insert_timeline_event($1, $2, $3, $4)`,
		event.Title,
		event.Year,
		event.Category,
		event.Description,
	)

	err := scanEvent(row, event)
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return nil
}

// GetOrCreateTimelineEvent loads the event with the same title, year and
// category into event, inserting it first when missing.
func (h *EventsDBHandler) GetOrCreateTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM get_or_create_timeline_event($1, $2, $3, $4)`,
		event.Title,
		event.Year,
		event.Category,
		event.Description,
	)

	err := scanEvent(row, event)
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return nil
}

// UpdateTimelineEvent writes all attributes of event. It returns
// helper.ErrNotFound when no event has the id.
func (h *EventsDBHandler) UpdateTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM update_timeline_event($1, $2, $3, $4, $5)`,
		event.ID,
		event.Title,
		event.Year,
		event.Category,
		event.Description,
	)

	err := scanEvent(row, event)
	if errors.Is(err, sql.ErrNoRows) {
		return helper.ErrNotFound
	}
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return nil
}

// DeleteTimelineEvent deletes an event by ID
func (h *EventsDBHandler) DeleteTimelineEvent(ctx context.Context, id uuid.UUID) error {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT delete_timeline_event($1)`, id).Scan(&deleted)
	if err != nil {
		return helper.NewError("exec", err)
	}
	if deleted == 0 {
		return helper.ErrNotFound
	}
	return nil
}

// DeleteAllTimelineEvents deletes every event and returns the number of rows removed
func (h *EventsDBHandler) DeleteAllTimelineEvents(ctx context.Context) (int, error) {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT delete_all_timeline_events()`).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}

// CountTimelineEvents returns the number of events
func (h *EventsDBHandler) CountTimelineEvents(ctx context.Context) (int64, error) {
	var count int64
	err := h.q.QueryRowContext(ctx, `SELECT count_timeline_events()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// SelectTimelineEvent retrieves an event by ID, nil if it does not exist
func (h *EventsDBHandler) SelectTimelineEvent(ctx context.Context, id uuid.UUID) (*model.TimelineEvent, error) {
	event := &model.TimelineEvent{}
	err := scanEvent(h.q.QueryRowContext(ctx, `SELECT * FROM select_timeline_event($1)`, id), event)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return event, nil
}

// SelectTimelineEvents returns up to limit events matching filter, sorted by
// the filter's ordering and starting after the cursor. The boolean reports
// whether more rows follow.
func (h *EventsDBHandler) SelectTimelineEvents(ctx context.Context, filter *model.TimelineEventFilter, limit int, after *model.Cursor) ([]*model.TimelineEvent, bool, error) {
	if filter == nil {
		filter = &model.TimelineEventFilter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, false, err
	}

	q := query.NewSelect(eventColumns, "timeline_events")

	if filter.Category != nil {
		q.Where("timeline_events.category = ?", *filter.Category)
	}
	if filter.Year != nil {
		q.Where("timeline_events.year = ?", *filter.Year)
	}
	if filter.Title != nil {
		q.Where("timeline_events.title ILIKE ?", query.Contains(*filter.Title))
	}
	if filter.MinYear != nil {
		q.Where("timeline_events.year >= ?", *filter.MinYear)
	}
	if filter.MaxYear != nil {
		q.Where("timeline_events.year <= ?", *filter.MaxYear)
	}

	ordering := filter.Ordering()
	q.OrderBy(eventOrderKeys(ordering)...)

	if after != nil {
		values, err := eventCursorValues(ordering, after)
		if err != nil {
			return nil, false, err
		}
		q.After(values...)
	}

	if limit > 0 {
		q.Limit(limit + 1)
	}

	statement, args, err := q.SQL()
	if err != nil {
		return nil, false, helper.NewError("build query", err)
	}
	rows, err := h.q.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, false, helper.TranslateStorageError(helper.NewError("query", err))
	}
	defer rows.Close()

	events := []*model.TimelineEvent{}
	for rows.Next() {
		event := &model.TimelineEvent{}
		err := scanEvent(rows, event)
		if err != nil {
			return nil, false, helper.NewError("scan", err)
		}

		events = append(events, event)
	}

	err = rows.Err()
	if err != nil {
		return nil, false, helper.NewError("rows error", err)
	}

	hasMore := false
	if limit > 0 && len(events) > limit {
		events = events[:limit]
		hasMore = true
	}

	return events, hasMore, nil
}

func eventOrderKeys(ordering string) []query.OrderKey {
	switch ordering {
	case model.OrderYearDesc:
		return []query.OrderKey{{Column: "timeline_events.year", Desc: true}, {Column: "timeline_events.title"}, {Column: "timeline_events.id"}}
	case model.OrderTitle:
		return []query.OrderKey{{Column: "timeline_events.title"}, {Column: "timeline_events.id"}}
	case model.OrderTitleDesc:
		return []query.OrderKey{{Column: "timeline_events.title", Desc: true}, {Column: "timeline_events.id", Desc: true}}
	default:
		return []query.OrderKey{{Column: "timeline_events.year"}, {Column: "timeline_events.title"}, {Column: "timeline_events.id"}}
	}
}

func eventCursorValues(ordering string, cursor *model.Cursor) ([]interface{}, error) {
	if cursor.Text == nil {
		return nil, helper.NewValidationError("after", "cursor is missing its sort key")
	}
	switch ordering {
	case model.OrderTitle, model.OrderTitleDesc:
		return []interface{}{*cursor.Text, cursor.ID}, nil
	default:
		if cursor.Year == nil {
			return nil, helper.NewValidationError("after", "cursor is missing its sort key")
		}
		return []interface{}{*cursor.Year, *cursor.Text, cursor.ID}, nil
	}
}

func scanEvent(row rowScanner, event *model.TimelineEvent) error {
	return row.Scan(
		&event.ID,
		&event.Title,
		&event.Year,
		&event.Category,
		&event.Description,
		&event.CreatedAt,
	)
}
