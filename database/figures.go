package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/chronosatlas/core/query"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
	loadSql "github.com/siherrmann/chronosatlas/sql"
)

const figureColumns = `figures.id, figures.name, figures.slug, figures.external_id, figures.summary,
	figures.birth_date, figures.death_date, figures.normalized_birth_year, figures.normalized_death_year,
	figures.instance_of_ids, figures.created_at, figures.updated_at`

// lifespanOverlap must use the same expression as figures_lifespan_gist_idx.
const lifespanOverlap = `int4range(figures.normalized_birth_year, figures.normalized_death_year, '[]') && int4range(?::integer, ?::integer, '[]')`

// FiguresDBHandlerFunctions defines the interface for Figures database operations.
type FiguresDBHandlerFunctions interface {
	InsertFigure(ctx context.Context, figure *model.Figure) error
	InsertFigureIgnoreConflict(ctx context.Context, figure *model.Figure) (bool, error)
	UpsertFigureBySlug(ctx context.Context, figure *model.Figure) error
	UpdateFigure(ctx context.Context, figure *model.Figure) error
	DeleteFigure(ctx context.Context, id uuid.UUID) error
	DeleteAllFigures(ctx context.Context) (int, error)
	CountFigures(ctx context.Context) (int64, error)
	SelectFigure(ctx context.Context, id uuid.UUID) (*model.Figure, error)
	SelectFigureBySlug(ctx context.Context, slug string) (*model.Figure, error)
	SelectFigureByExternalID(ctx context.Context, externalID string) (*model.Figure, error)
	SelectFigures(ctx context.Context, filter *model.FigureFilter, limit int, after *model.Cursor) ([]*model.Figure, bool, error)
	SelectFiguresOverlapping(ctx context.Context, minYear int, maxYear int) ([]*model.Figure, error)
	SetFigureFields(ctx context.Context, figureID uuid.UUID, fieldIDs []uuid.UUID) error
}

// FiguresDBHandler handles figure-related database operations
type FiguresDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

// NewFiguresDBHandler creates a new figures database handler.
// It loads the figure-related SQL functions, the figures table has to be migrated already.
// If force is true, it will reload the SQL functions even if they already exist.
func NewFiguresDBHandler(db *helper.Database, force bool) (*FiguresDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.LoadFiguresSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load figures sql", err)
	}

	db.Logger.Info("Initialized FiguresDBHandler")

	return &FiguresDBHandler{
		db: db,
		q:  db.Instance,
	}, nil
}

// WithTx returns a handler running every statement inside tx.
func (h *FiguresDBHandler) WithTx(tx *sql.Tx) *FiguresDBHandler {
	return &FiguresDBHandler{db: h.db, q: tx}
}

// InsertFigure inserts a new figure and fills in its generated columns
func (h *FiguresDBHandler) InsertFigure(ctx context.Context, figure *model.Figure) error {
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM insert_figure($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		figureArgs(figure)...,
	)

	err := scanFigure(row, figure)
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return nil
}

// InsertFigureIgnoreConflict inserts a figure unless its slug or external id
// is taken. It reports whether a row was inserted.
func (h *FiguresDBHandler) InsertFigureIgnoreConflict(ctx context.Context, figure *model.Figure) (bool, error) {
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM insert_figure_ignore_conflict($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		figureArgs(figure)...,
	)

	err := scanFigure(row, figure)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return true, nil
}

// UpsertFigureBySlug inserts a figure or updates the one with the same slug
func (h *FiguresDBHandler) UpsertFigureBySlug(ctx context.Context, figure *model.Figure) error {
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM upsert_figure_by_slug($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		figureArgs(figure)...,
	)

	err := scanFigure(row, figure)
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return nil
}

// UpdateFigure writes all attributes of figure. It returns helper.ErrNotFound
// when no figure has the id.
func (h *FiguresDBHandler) UpdateFigure(ctx context.Context, figure *model.Figure) error {
	args := append([]interface{}{figure.ID}, figureArgs(figure)...)
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM update_figure($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		args...,
	)

	err := scanFigure(row, figure)
	if errors.Is(err, sql.ErrNoRows) {
		return helper.ErrNotFound
	}
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return nil
}

// DeleteFigure deletes a figure by ID. Influences and field links cascade.
func (h *FiguresDBHandler) DeleteFigure(ctx context.Context, id uuid.UUID) error {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT delete_figure($1)`, id).Scan(&deleted)
	if err != nil {
		return helper.NewError("exec", err)
	}
	if deleted == 0 {
		return helper.ErrNotFound
	}
	return nil
}

// DeleteAllFigures deletes every figure and returns the number of rows removed
func (h *FiguresDBHandler) DeleteAllFigures(ctx context.Context) (int, error) {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT delete_all_figures()`).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}

// CountFigures returns the number of figures
func (h *FiguresDBHandler) CountFigures(ctx context.Context) (int64, error) {
	var count int64
	err := h.q.QueryRowContext(ctx, `SELECT count_figures()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// SelectFigure retrieves a figure by ID, nil if it does not exist
func (h *FiguresDBHandler) SelectFigure(ctx context.Context, id uuid.UUID) (*model.Figure, error) {
	return h.selectOne(ctx, `SELECT * FROM select_figure($1)`, id)
}

// SelectFigureBySlug retrieves a figure by slug, nil if it does not exist
func (h *FiguresDBHandler) SelectFigureBySlug(ctx context.Context, slug string) (*model.Figure, error) {
	return h.selectOne(ctx, `SELECT * FROM select_figure_by_slug($1)`, slug)
}

// SelectFigureByExternalID retrieves a figure by external id, nil if it does not exist
func (h *FiguresDBHandler) SelectFigureByExternalID(ctx context.Context, externalID string) (*model.Figure, error) {
	return h.selectOne(ctx, `SELECT * FROM select_figure_by_external_id($1)`, externalID)
}

func (h *FiguresDBHandler) selectOne(ctx context.Context, statement string, arg interface{}) (*model.Figure, error) {
	figure := &model.Figure{}
	err := scanFigure(h.q.QueryRowContext(ctx, statement, arg), figure)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	err = h.attachFields(ctx, []*model.Figure{figure})
	if err != nil {
		return nil, err
	}

	return figure, nil
}

// SelectFigures returns up to limit figures matching filter, sorted by the
// filter's ordering and starting after the cursor. The boolean reports
// whether more rows follow.
func (h *FiguresDBHandler) SelectFigures(ctx context.Context, filter *model.FigureFilter, limit int, after *model.Cursor) ([]*model.Figure, bool, error) {
	if filter == nil {
		filter = &model.FigureFilter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, false, err
	}

	q := query.NewSelect(figureColumns, "figures")

	if filter.Slug != nil {
		q.Where("figures.slug = ?", *filter.Slug)
	}
	if filter.ExternalID != nil {
		q.Where("figures.external_id = ?", *filter.ExternalID)
	}
	if filter.Name != nil {
		q.Where(`figures.name ILIKE ?`, query.Contains(*filter.Name))
	}
	if filter.HasLifespanRange() {
		q.Where(lifespanOverlap, *filter.MinYear, *filter.MaxYear)
	}
	if filter.MinBirthYear != nil {
		q.Where("figures.normalized_birth_year >= ?", *filter.MinBirthYear)
	}
	if filter.MaxBirthYear != nil {
		q.Where("figures.normalized_birth_year <= ?", *filter.MaxBirthYear)
	}
	if filter.Field != nil {
		q.Where(`EXISTS (
			SELECT 1 FROM figure_fields ff JOIN fields f ON f.id = ff.field_id
			WHERE ff.figure_id = figures.id AND f.slug = ?)`, *filter.Field)
	}

	ordering := filter.Ordering()
	keys := figureOrderKeys(ordering)
	q.OrderBy(keys...)

	if after != nil {
		values, err := figureCursorValues(ordering, after)
		if err != nil {
			return nil, false, err
		}
		q.After(values...)
	}

	if limit > 0 {
		q.Limit(limit + 1)
	}

	figures, err := h.selectMany(ctx, q)
	if err != nil {
		return nil, false, err
	}

	hasMore := false
	if limit > 0 && len(figures) > limit {
		figures = figures[:limit]
		hasMore = true
	}

	err = h.attachFields(ctx, figures)
	if err != nil {
		return nil, false, err
	}

	return figures, hasMore, nil
}

// SelectFiguresOverlapping returns every figure whose lifespan intersects
// [minYear, maxYear], ordered by birth year and name. Living figures have an
// open upper bound.
func (h *FiguresDBHandler) SelectFiguresOverlapping(ctx context.Context, minYear int, maxYear int) ([]*model.Figure, error) {
	q, err := overlapQuery(minYear, maxYear)
	if err != nil {
		return nil, err
	}

	figures, err := h.selectMany(ctx, q)
	if err != nil {
		return nil, err
	}

	err = h.attachFields(ctx, figures)
	if err != nil {
		return nil, err
	}

	return figures, nil
}

func overlapQuery(minYear int, maxYear int) (*query.Select, error) {
	if err := model.ValidateYear("minYear", &minYear); err != nil {
		return nil, err
	}
	if err := model.ValidateYear("maxYear", &maxYear); err != nil {
		return nil, err
	}
	if minYear > maxYear {
		return nil, helper.NewValidationError("minYear", "must be <= maxYear (got %d > %d)", minYear, maxYear)
	}

	q := query.NewSelect(figureColumns, "figures").
		Where(lifespanOverlap, minYear, maxYear).
		OrderBy(figureOrderKeys(model.OrderBirthYear)...)
	return q, nil
}

// SetFigureFields replaces the fields of a figure with fieldIDs
func (h *FiguresDBHandler) SetFigureFields(ctx context.Context, figureID uuid.UUID, fieldIDs []uuid.UUID) error {
	_, err := h.q.ExecContext(ctx,
		`SELECT set_figure_fields($1, $2)`,
		figureID,
		pq.Array(uuidStrings(fieldIDs)),
	)
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("exec", err))
	}
	return nil
}

func (h *FiguresDBHandler) selectMany(ctx context.Context, q *query.Select) ([]*model.Figure, error) {
	statement, args, err := q.SQL()
	if err != nil {
		return nil, helper.NewError("build query", err)
	}
	rows, err := h.q.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, helper.TranslateStorageError(helper.NewError("query", err))
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

	return figures, nil
}

func (h *FiguresDBHandler) attachFields(ctx context.Context, figures []*model.Figure) error {
	return attachFigureFields(ctx, h.q, figures)
}

// attachFigureFields loads the fields of all figures with one query
func attachFigureFields(ctx context.Context, q helper.Querier, figures []*model.Figure) error {
	if len(figures) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*model.Figure, len(figures))
	ids := make([]string, 0, len(figures))
	for _, figure := range figures {
		figure.Fields = []*model.Field{}
		byID[figure.ID] = figure
		ids = append(ids, figure.ID.String())
	}

	rows, err := q.QueryContext(ctx, `SELECT * FROM select_fields_by_figures($1)`, pq.Array(ids))
	if err != nil {
		return helper.NewError("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		var figureID uuid.UUID
		field := &model.Field{}
		err := rows.Scan(
			&figureID,
			&field.ID,
			&field.Name,
			&field.Slug,
			&field.Description,
		)
		if err != nil {
			return helper.NewError("scan", err)
		}

		if figure, ok := byID[figureID]; ok {
			figure.Fields = append(figure.Fields, field)
		}
	}

	err = rows.Err()
	if err != nil {
		return helper.NewError("rows error", err)
	}

	return nil
}

func figureOrderKeys(ordering string) []query.OrderKey {
	switch ordering {
	case model.OrderBirthYearDesc:
		return []query.OrderKey{{Column: "figures.normalized_birth_year", Desc: true}, {Column: "figures.name"}, {Column: "figures.id"}}
	case model.OrderName:
		return []query.OrderKey{{Column: "figures.name"}, {Column: "figures.id"}}
	case model.OrderNameDesc:
		return []query.OrderKey{{Column: "figures.name", Desc: true}, {Column: "figures.id", Desc: true}}
	default:
		return []query.OrderKey{{Column: "figures.normalized_birth_year"}, {Column: "figures.name"}, {Column: "figures.id"}}
	}
}

func figureCursorValues(ordering string, cursor *model.Cursor) ([]interface{}, error) {
	if cursor.Text == nil {
		return nil, helper.NewValidationError("after", "cursor is missing its sort key")
	}
	switch ordering {
	case model.OrderName, model.OrderNameDesc:
		return []interface{}{*cursor.Text, cursor.ID}, nil
	default:
		if cursor.Year == nil {
			return nil, helper.NewValidationError("after", "cursor is missing its sort key")
		}
		return []interface{}{*cursor.Year, *cursor.Text, cursor.ID}, nil
	}
}

func figureArgs(figure *model.Figure) []interface{} {
	return []interface{}{
		figure.Name,
		figure.Slug,
		figure.ExternalID,
		figure.Summary,
		figure.BirthDate,
		figure.DeathDate,
		figure.NormalizedBirthYear,
		figure.NormalizedDeathYear,
		pq.Array(nonNilStrings(figure.InstanceOfIDs)),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFigure(row rowScanner, figure *model.Figure) error {
	var instanceOfIDs pq.StringArray
	err := row.Scan(
		&figure.ID,
		&figure.Name,
		&figure.Slug,
		&figure.ExternalID,
		&figure.Summary,
		&figure.BirthDate,
		&figure.DeathDate,
		&figure.NormalizedBirthYear,
		&figure.NormalizedDeathYear,
		&instanceOfIDs,
		&figure.CreatedAt,
		&figure.UpdatedAt,
	)
	if err != nil {
		return err
	}

	figure.InstanceOfIDs = nonNilStrings(instanceOfIDs)
	return nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
