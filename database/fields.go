package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
	loadSql "github.com/siherrmann/chronosatlas/sql"
)

// FieldsDBHandlerFunctions defines the interface for Fields database operations.
type FieldsDBHandlerFunctions interface {
	InsertField(ctx context.Context, field *model.Field) error
	GetOrCreateField(ctx context.Context, name string, slug string) (*model.Field, error)
	SelectField(ctx context.Context, id uuid.UUID) (*model.Field, error)
	SelectFieldBySlug(ctx context.Context, slug string) (*model.Field, error)
	SelectAllFields(ctx context.Context) ([]*model.Field, error)
	DeleteAllFields(ctx context.Context) (int, error)
	CountFields(ctx context.Context) (int64, error)
}

// FieldsDBHandler handles field-related database operations
type FieldsDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

// NewFieldsDBHandler creates a new fields database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewFieldsDBHandler(db *helper.Database, force bool) (*FieldsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.LoadFieldsSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load fields sql", err)
	}

	db.Logger.Info("Initialized FieldsDBHandler")

	return &FieldsDBHandler{
		db: db,
		q:  db.Instance,
	}, nil
}

// WithTx returns a handler running every statement inside tx.
func (h *FieldsDBHandler) WithTx(tx *sql.Tx) *FieldsDBHandler {
	return &FieldsDBHandler{db: h.db, q: tx}
}

// InsertField inserts a new field
func (h *FieldsDBHandler) InsertField(ctx context.Context, field *model.Field) error {
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM insert_field($1, $2, $3)`,
		field.Name,
		field.Slug,
		field.Description,
	)

	err := scanField(row, field)
	if err != nil {
		return helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return nil
}

// GetOrCreateField returns the field called name, creating it with slug when
// missing. A slug already used by another field is a conflict.
func (h *FieldsDBHandler) GetOrCreateField(ctx context.Context, name string, slug string) (*model.Field, error) {
	field := &model.Field{}
	row := h.q.QueryRowContext(ctx,
		`SELECT * FROM get_or_create_field($1, $2)`,
		name,
		slug,
	)

	err := scanField(row, field)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &helper.ConflictError{Field: "slug", Constraint: "fields_slug_key"}
	}
	if err != nil {
		return nil, helper.TranslateStorageError(helper.NewError("scan", err))
	}

	return field, nil
}

// SelectField retrieves a field by ID, nil if it does not exist
func (h *FieldsDBHandler) SelectField(ctx context.Context, id uuid.UUID) (*model.Field, error) {
	return h.selectOne(ctx, `SELECT * FROM select_field($1)`, id)
}

// SelectFieldBySlug retrieves a field by slug, nil if it does not exist
func (h *FieldsDBHandler) SelectFieldBySlug(ctx context.Context, slug string) (*model.Field, error) {
	return h.selectOne(ctx, `SELECT * FROM select_field_by_slug($1)`, slug)
}

func (h *FieldsDBHandler) selectOne(ctx context.Context, statement string, arg interface{}) (*model.Field, error) {
	field := &model.Field{}
	err := scanField(h.q.QueryRowContext(ctx, statement, arg), field)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return field, nil
}

// SelectAllFields retrieves all fields ordered by name
func (h *FieldsDBHandler) SelectAllFields(ctx context.Context) ([]*model.Field, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_all_fields()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	fields := []*model.Field{}
	for rows.Next() {
		field := &model.Field{}
		err := scanField(rows, field)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		fields = append(fields, field)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return fields, nil
}

// DeleteAllFields deletes every field and returns the number of rows removed
func (h *FieldsDBHandler) DeleteAllFields(ctx context.Context) (int, error) {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT delete_all_fields()`).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}

// CountFields returns the number of fields
func (h *FieldsDBHandler) CountFields(ctx context.Context) (int64, error) {
	var count int64
	err := h.q.QueryRowContext(ctx, `SELECT count_fields()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

func scanField(row rowScanner, field *model.Field) error {
	return row.Scan(
		&field.ID,
		&field.Name,
		&field.Slug,
		&field.Description,
	)
}
