package loader

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

// FieldWriter is the subset of the fields handler the loader needs
type FieldWriter interface {
	GetOrCreateField(ctx context.Context, name string, slug string) (*model.Field, error)
	DeleteAllFields(ctx context.Context) (int, error)
}

// FigureWriter is the subset of the figures handler the loader needs
type FigureWriter interface {
	UpsertFigureBySlug(ctx context.Context, figure *model.Figure) error
	InsertFigureIgnoreConflict(ctx context.Context, figure *model.Figure) (bool, error)
	SetFigureFields(ctx context.Context, figureID uuid.UUID, fieldIDs []uuid.UUID) error
	DeleteAllFigures(ctx context.Context) (int, error)
}

// EventWriter is the subset of the timeline events handler the loader needs
type EventWriter interface {
	GetOrCreateTimelineEvent(ctx context.Context, event *model.TimelineEvent) error
	DeleteAllTimelineEvents(ctx context.Context) (int, error)
}

// InfluenceWriter is the subset of the influences handler the loader needs
type InfluenceWriter interface {
	GetOrCreateInfluence(ctx context.Context, influencerID uuid.UUID, influencedID uuid.UUID) (*model.Influence, error)
	DeleteAllInfluences(ctx context.Context) (int, error)
}

// Writers bundles the handlers a dataset run writes through. The caller binds
// them to one transaction.
type Writers struct {
	Fields     FieldWriter
	Figures    FigureWriter
	Events     EventWriter
	Influences InfluenceWriter
}

// Options configures a dataset run
type Options struct {
	Clear  bool // Delete all influences, events, figures and fields first
	Logger *slog.Logger
}

// Run loads the dataset. Figures are upserted by slug, fields and events are
// created only when missing, each figure's field set is replaced and
// influences are created once per ordered pair. Running the same dataset
// twice leaves the row counts unchanged.
func Run(ctx context.Context, w Writers, dataset *Dataset, opts Options) (*model.SeedReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := dataset.Validate(); err != nil {
		return nil, err
	}

	report := &model.SeedReport{Cleared: opts.Clear}

	if opts.Clear {
		err := clearAll(ctx, w)
		if err != nil {
			return nil, err
		}
		logger.Warn("Cleared existing figures, fields, events and influences")
	}

	fields := map[string]*model.Field{}
	getField := func(name string, slug string) (*model.Field, error) {
		if field, ok := fields[name]; ok {
			return field, nil
		}
		if slug == "" {
			slug = helper.Slugify(name)
		}
		field, err := w.Fields.GetOrCreateField(ctx, name, slug)
		if err != nil {
			return nil, helper.NewError("get or create field "+name, err)
		}
		fields[name] = field
		return field, nil
	}

	for _, item := range dataset.Fields {
		_, err := getField(strings.TrimSpace(item.Name), item.Slug)
		if err != nil {
			return nil, err
		}
	}

	figures := map[string]*model.Figure{}
	for _, item := range dataset.Figures {
		figure := item.figure()
		if err := figure.Validate(); err != nil {
			return nil, err
		}

		err := w.Figures.UpsertFigureBySlug(ctx, figure)
		if err != nil {
			return nil, helper.NewError("upsert figure "+item.Name, err)
		}

		fieldIDs := make([]uuid.UUID, 0, len(item.Fields))
		for _, name := range item.Fields {
			field, err := getField(strings.TrimSpace(name), "")
			if err != nil {
				return nil, err
			}
			fieldIDs = append(fieldIDs, field.ID)
		}

		err = w.Figures.SetFigureFields(ctx, figure.ID, fieldIDs)
		if err != nil {
			return nil, helper.NewError("set fields of "+item.Name, err)
		}

		figures[item.Name] = figure
		figures[figure.Slug] = figure
		report.Figures++
		logger.Debug("Loaded figure", "name", figure.Name, "slug", figure.Slug)
	}
	report.Fields = len(fields)

	for _, item := range dataset.Events {
		event := &model.TimelineEvent{
			Title:       strings.TrimSpace(item.Title),
			Year:        item.Year,
			Category:    strings.TrimSpace(item.Category),
			Description: item.Description,
		}
		err := w.Events.GetOrCreateTimelineEvent(ctx, event)
		if err != nil {
			return nil, helper.NewError("get or create event "+item.Title, err)
		}
		report.Events++
	}

	for _, item := range dataset.Influences {
		influencer, ok := figures[item.Influencer]
		if !ok {
			return nil, helper.NewValidationError("influences", "unknown figure %q", item.Influencer)
		}
		influenced, ok := figures[item.Influenced]
		if !ok {
			return nil, helper.NewValidationError("influences", "unknown figure %q", item.Influenced)
		}

		_, err := w.Influences.GetOrCreateInfluence(ctx, influencer.ID, influenced.ID)
		if err != nil {
			return nil, helper.NewError("get or create influence "+item.Influencer+" -> "+item.Influenced, err)
		}
		report.Influences++
	}

	logger.Info("Loaded dataset",
		"fields", report.Fields,
		"figures", report.Figures,
		"events", report.Events,
		"influences", report.Influences,
	)

	return report, nil
}

func clearAll(ctx context.Context, w Writers) error {
	if _, err := w.Influences.DeleteAllInfluences(ctx); err != nil {
		return helper.NewError("clear influences", err)
	}
	if _, err := w.Events.DeleteAllTimelineEvents(ctx); err != nil {
		return helper.NewError("clear events", err)
	}
	if _, err := w.Figures.DeleteAllFigures(ctx); err != nil {
		return helper.NewError("clear figures", err)
	}
	if _, err := w.Fields.DeleteAllFields(ctx); err != nil {
		return helper.NewError("clear fields", err)
	}
	return nil
}

func (f FigureSpec) figure() *model.Figure {
	figure := &model.Figure{
		Name:                strings.TrimSpace(f.Name),
		Slug:                f.FigureSlug(),
		Summary:             f.Summary,
		NormalizedBirthYear: f.Birth,
		NormalizedDeathYear: f.Death,
		InstanceOfIDs:       f.InstanceOf,
	}
	if f.ExternalID != "" {
		externalID := f.ExternalID
		figure.ExternalID = &externalID
	}
	if figure.InstanceOfIDs == nil {
		figure.InstanceOfIDs = []string{}
	}
	return figure
}
