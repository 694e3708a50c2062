package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

// Store is everything the REST and GraphQL layers need from storage.
// Lookups return nil without an error when nothing matches.
type Store interface {
	ListFigures(ctx context.Context, filter *model.FigureFilter, page model.PageRequest) (*model.Page[*model.Figure], error)
	GetFigure(ctx context.Context, idOrSlug string) (*model.Figure, error)
	CreateFigure(ctx context.Context, input *model.FigureInput) (*model.Figure, error)
	UpdateFigure(ctx context.Context, id uuid.UUID, patch *model.FigurePatch) (*model.Figure, error)
	DeleteFigure(ctx context.Context, id uuid.UUID) error
	FigureLineage(ctx context.Context, idOrSlug string, direction model.LineageDirection, depth int) ([]*model.LineageEntry, error)

	ListFields(ctx context.Context) ([]*model.Field, error)
	GetField(ctx context.Context, idOrSlug string) (*model.Field, error)
	CreateField(ctx context.Context, input *model.FieldInput) (*model.Field, error)

	ListTimelineEvents(ctx context.Context, filter *model.TimelineEventFilter, page model.PageRequest) (*model.Page[*model.TimelineEvent], error)
	GetTimelineEvent(ctx context.Context, id uuid.UUID) (*model.TimelineEvent, error)
	CreateTimelineEvent(ctx context.Context, input *model.TimelineEventInput) (*model.TimelineEvent, error)
	UpdateTimelineEvent(ctx context.Context, id uuid.UUID, patch *model.TimelineEventPatch) (*model.TimelineEvent, error)
	DeleteTimelineEvent(ctx context.Context, id uuid.UUID) error

	ListInfluences(ctx context.Context, filter *model.InfluenceFilter, page model.PageRequest) (*model.Page[*model.Influence], error)
	GetInfluence(ctx context.Context, id uuid.UUID) (*model.Influence, error)
	CreateInfluence(ctx context.Context, input *model.InfluenceInput) (*model.Influence, error)
	UpdateInfluence(ctx context.Context, id uuid.UUID, input *model.InfluenceInput) (*model.Influence, error)
	DeleteInfluence(ctx context.Context, id uuid.UUID) error
}

// Error codes shared by both API surfaces
const (
	CodeValidation = "VALIDATION"
	CodeConflict   = "CONFLICT"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL"
)

// Problem is the client-facing form of an error
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
}

// Classify maps err to a Problem. Errors that are not one of the typed
// helper errors are internal and their message is not exposed.
func Classify(err error) *Problem {
	var validation *helper.ValidationError
	if errors.As(err, &validation) {
		return &Problem{Code: CodeValidation, Message: validation.Message, Field: validation.Field, Status: http.StatusBadRequest}
	}

	var conflict *helper.ConflictError
	if errors.As(err, &conflict) {
		return &Problem{Code: CodeConflict, Message: conflict.Error(), Field: conflict.Field, Status: http.StatusConflict}
	}

	if errors.Is(err, helper.ErrNotFound) {
		return &Problem{Code: CodeNotFound, Message: "not found", Status: http.StatusNotFound}
	}

	return &Problem{Code: CodeInternal, Message: "internal error", Status: http.StatusInternalServerError}
}
