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

const influenceColumns = `influences.id, influences.influencer_id, influences.influenced_id, influences.created_at`

// InfluencesDBHandlerFunctions defines the interface for Influences database operations.
type InfluencesDBHandlerFunctions interface {
	InsertInfluence(ctx context.Context, influence *model.Influence) error
	GetOrCreateInfluence(ctx context.Context, influencerID uuid.UUID, influencedID uuid.UUID) (*model.Influence, error)
	UpdateInfluence(ctx context.Context, influence *model.Influence) error
	DeleteInfluence(ctx context.Context, id uuid.UUID) error
	DeleteAllInfluences(ctx context.Context) (int, error)
	CountInfluences(ctx context.Context) (int64, error)
	SelectInfluence(ctx context.Context, id uuid.UUID) (*model.Influence, error)
	SelectInfluences(ctx context.Context, filter *model.InfluenceFilter, limit int, after *model.Cursor) ([]*model.Influence, bool, error)
	SelectInfluenceNeighbors(ctx context.Context, figureID uuid.UUID, direction model.LineageDirection) ([]*model.Figure, error)
}

// InfluencesDBHandler handles influence-related database operations
type InfluencesDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

// NewInfluencesDBHandler creates a new influences database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewInfluencesDBHandler(db *helper.Database, force bool) (*InfluencesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.LoadInfluencesSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load influences sql", err)
	}

	db.Logger.Info("Initialized InfluencesDBHandler")

	return &InfluencesDBHandler{
		db: db,
		q:  db.Instance,
	}, nil
}

// WithTx returns a handler running every statement inside tx.
func (h *InfluencesDBHandler) WithTx(tx *sql.Tx) *InfluencesDBHandler {
	return &InfluencesDBHandler{db: h.db, q: tx}
}

// InsertInfluence inserts a new influence. A duplicate pair is a conflict and
// an unknown figure a validation error.
func (h *InfluencesDBHandler) InsertInfluence(ctx context.Context, influence *model.Influence) error {
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM insert_influence($1, $2)`,
		influence.InfluencerID,
		influence.InfluencedID,
	)

	err := scanInfluence(row, influence)
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return nil
}

// GetOrCreateInfluence returns the influence between both figures, creating it when missing
func (h *InfluencesDBHandler) GetOrCreateInfluence(ctx context.Context, influencerID uuid.UUID, influencedID uuid.UUID) (*model.Influence, error) {
	influence := &model.Influence{}
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM get_or_create_influence($1, $2)`,
		influencerID,
		influencedID,
	)

	err := scanInfluence(row, influence)
	if err != nil {
		return nil, helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return influence, nil
}

// UpdateInfluence changes both endpoints of an influence. It returns
// helper.ErrNotFound when no influence has the id.
func (h *InfluencesDBHandler) UpdateInfluence(ctx context.Context, influence *model.Influence) error {
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM update_influence($1, $2, $3)`,
		influence.ID,
		influence.InfluencerID,
		influence.InfluencedID,
	)

	err := scanInfluence(row, influence)
	if errors.Is(err, sql.ErrNoRows) {
		return helper.ErrNotFound
	}
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return nil
}

// DeleteInfluence deletes an influence by ID
func (h *InfluencesDBHandler) DeleteInfluence(ctx context.Context, id uuid.UUID) error {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT delete_influence($1)`, id).Scan(&deleted)
	if err != nil {
		return helper.NewError("exec", err)
	}
	if deleted == 0 {
		return helper.ErrNotFound
	}
	return nil
}

// DeleteAllInfluences deletes every influence and returns the number of rows removed
func (h *InfluencesDBHandler) DeleteAllInfluences(ctx context.Context) (int, error) {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT delete_all_influences()`).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}

// CountInfluences returns the number of influences
func (h *InfluencesDBHandler) CountInfluences(ctx context.Context) (int64, error) {
	var count int64
	err := h.q.QueryRowContext(ctx, `SELECT count_influences()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// SelectInfluence retrieves an influence by ID, nil if it does not exist
func (h *InfluencesDBHandler) SelectInfluence(ctx context.Context, id uuid.UUID) (*model.Influence, error) {
	influence := &model.Influence{}
	err := scanInfluence(h.q.QueryRowContext(ctx, `SELECT * FROM select_influence($1)`, id), influence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return influence, nil
}

// SelectInfluences returns up to limit influences ordered by creation time,
// starting after the cursor. The boolean reports whether more rows follow.
func (h *InfluencesDBHandler) SelectInfluences(ctx context.Context, filter *model.InfluenceFilter, limit int, after *model.Cursor) ([]*model.Influence, bool, error) {
	if filter == nil {
		filter = &model.InfluenceFilter{}
	}

	q := query.NewSelect(influenceColumns, "influences")

	if filter.InfluencerID != nil {
		q.Where("influences.influencer_id = ?", *filter.InfluencerID)
	}
	if filter.InfluencedID != nil {
		q.Where("influences.influenced_id = ?", *filter.InfluencedID)
	}

	q.OrderBy(query.OrderKey{Column: "influences.created_at"}, query.OrderKey{Column: "influences.id"})

	if after != nil {
		if after.Time == nil {
			return nil, false, helper.NewValidationError("after", "cursor is missing its sort key")
		}
		q.After(*after.Time, after.ID)
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

	influences := []*model.Influence{}
	for rows.Next() {
		influence := &model.Influence{}
		err := scanInfluence(rows, influence)
		if err != nil {
			return nil, false, helper.NewError("scan", err)
		}

		influences = append(influences, influence)
	}

	err = rows.Err()
	if err != nil {
		return nil, false, helper.NewError("rows error", err)
	}

	hasMore := false
	if limit > 0 && len(influences) > limit {
		influences = influences[:limit]
		hasMore = true
	}

	return influences, hasMore, nil
}

// SelectInfluenceNeighbors returns the figures one influence edge away from
// figureID in the given direction, ordered by birth year and name, with
// their fields.
func (h *InfluencesDBHandler) SelectInfluenceNeighbors(ctx context.Context, figureID uuid.UUID, direction model.LineageDirection) ([]*model.Figure, error) {
	rows, err := h.q.QueryContext(ctx,
		`SELECT * FROM select_influence_neighbors($1, $2)`,
		figureID,
		string(direction),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	figures := []*model.Figure{}
	for rows.Next() {
		figure := &model.Figure{}
		err := scanFigure(rows, figure)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		figures = append(figures, figure)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	err = attachFigureFields(ctx, h.q, figures)
	if err != nil {
		return nil, err
	}

	return figures, nil
}

func scanInfluence(row rowScanner, influence *model.Influence) error {
	return row.Scan(
		&influence.ID,
		&influence.InfluencerID,
		&influence.InfluencedID,
		&influence.CreatedAt,
	)
}
