package chronosatlas

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/core/graph"
	"github.com/siherrmann/chronosatlas/core/loader"
	"github.com/siherrmann/chronosatlas/database"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
	loadSql "github.com/siherrmann/chronosatlas/sql"
)

// Options configures NewAtlas
type Options struct {
	SecretKey string       // Signs pagination cursors, required
	Logger    *slog.Logger // Defaults to a PrettyHandler on stdout
	Migrate   bool         // Apply pending migrations before loading the SQL functions
	ForceSQL  bool         // Reload the SQL functions even if they already exist
}

// Atlas provides a unified interface to all database handlers
type Atlas struct {
	DB         *helper.Database
	Figures    *database.FiguresDBHandler
	Fields     *database.FieldsDBHandler
	Events     *database.EventsDBHandler
	Influences *database.InfluencesDBHandler
	cursors    *model.CursorCodec
	// Logging
	log *slog.Logger
}

// NewAtlas connects to the database and creates all handlers
func NewAtlas(config *helper.DatabaseConfiguration, opts Options) (*Atlas, error) {
	if opts.SecretKey == "" {
		return nil, helper.NewError("atlas options validation", fmt.Errorf("secret key is empty"))
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}))
	}

	db, err := helper.NewDatabase("chronosatlas", config, logger)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}

	atlas, err := newAtlas(db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}

	return atlas, nil
}

func newAtlas(db *helper.Database, opts Options) (*Atlas, error) {
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	if opts.Migrate {
		applied, err := loadSql.MigrateUp(context.Background(), db.Instance, 0)
		if err != nil {
			return nil, helper.NewError("migrate database", err)
		}
		for _, migration := range applied {
			db.Logger.Info("Applied migration", slog.Int("version", migration.Version), slog.String("name", migration.Name))
		}
	}

	// The SQL functions reference the tables, so they load after migrating
	fields, err := database.NewFieldsDBHandler(db, opts.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create fields handler", err)
	}

	figures, err := database.NewFiguresDBHandler(db, opts.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create figures handler", err)
	}

	events, err := database.NewEventsDBHandler(db, opts.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create events handler", err)
	}

	influences, err := database.NewInfluencesDBHandler(db, opts.ForceSQL)
	if err != nil {
		return nil, helper.NewError("create influences handler", err)
	}

	return &Atlas{
		DB:         db,
		Figures:    figures,
		Fields:     fields,
		Events:     events,
		Influences: influences,
		cursors:    model.NewCursorCodec(opts.SecretKey),
		log:        db.Logger,
	}, nil
}

// Close closes the database connection
func (a *Atlas) Close() error {
	return a.DB.Close()
}

// Ping checks that the database is reachable
func (a *Atlas) Ping(ctx context.Context) error {
	return a.DB.Instance.PingContext(ctx)
}

// ListFigures returns one page of figures matching filter
func (a *Atlas) ListFigures(ctx context.Context, filter *model.FigureFilter, page model.PageRequest) (*model.Page[*model.Figure], error) {
	if filter == nil {
		filter = &model.FigureFilter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	limit, err := page.Limit()
	if err != nil {
		return nil, err
	}

	ordering := filter.Ordering()
	after, err := a.cursors.Decode(page.After, ordering)
	if err != nil {
		return nil, err
	}

	figures, hasMore, err := a.Figures.SelectFigures(ctx, filter, limit, after)
	if err != nil {
		return nil, err
	}

	return buildPage(a.cursors, figures, hasMore, func(f *model.Figure) model.Cursor {
		return model.FigureCursor(ordering, f)
	})
}

// GetFigure looks a figure up by id or slug. It returns nil when nothing matches.
func (a *Atlas) GetFigure(ctx context.Context, idOrSlug string) (*model.Figure, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return a.Figures.SelectFigure(ctx, id)
	}
	if !helper.IsSlug(idOrSlug) {
		return nil, nil
	}
	return a.Figures.SelectFigureBySlug(ctx, idOrSlug)
}

// CreateFigure inserts a figure and its field associations in one transaction
func (a *Atlas) CreateFigure(ctx context.Context, input *model.FigureInput) (*model.Figure, error) {
	figure, err := input.Figure()
	if err != nil {
		return nil, err
	}

	err = a.DB.WithTransaction(ctx, func(tx *sql.Tx) error {
		figures := a.Figures.WithTx(tx)

		err := figures.InsertFigure(ctx, figure)
		if err != nil {
			return err
		}

		if len(input.FieldIDs) > 0 {
			err = figures.SetFigureFields(ctx, figure.ID, input.FieldIDs)
			if err != nil {
				return err
			}
		}

		figure, err = figures.SelectFigure(ctx, figure.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	a.log.Info("Created figure", slog.String("id", figure.ID.String()), slog.String("slug", figure.Slug))

	return figure, nil
}

// UpdateFigure applies patch to the figure with id. FieldIDs, when set,
// replace the figure's field set.
func (a *Atlas) UpdateFigure(ctx context.Context, id uuid.UUID, patch *model.FigurePatch) (*model.Figure, error) {
	var figure *model.Figure
	err := a.DB.WithTransaction(ctx, func(tx *sql.Tx) error {
		figures := a.Figures.WithTx(tx)

		existing, err := figures.SelectFigure(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return helper.ErrNotFound
		}

		err = patch.Apply(existing)
		if err != nil {
			return err
		}

		err = figures.UpdateFigure(ctx, existing)
		if err != nil {
			return err
		}

		if patch.FieldIDs != nil {
			err = figures.SetFigureFields(ctx, id, *patch.FieldIDs)
			if err != nil {
				return err
			}
		}

		figure, err = figures.SelectFigure(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return figure, nil
}

// DeleteFigure deletes a figure together with its influences and field associations
func (a *Atlas) DeleteFigure(ctx context.Context, id uuid.UUID) error {
	return a.Figures.DeleteFigure(ctx, id)
}

// FigureLineage walks influence edges from the figure with id or slug
func (a *Atlas) FigureLineage(ctx context.Context, idOrSlug string, direction model.LineageDirection, depth int) ([]*model.LineageEntry, error) {
	figure, err := a.GetFigure(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if figure == nil {
		return nil, helper.ErrNotFound
	}

	return graph.Lineage(ctx, &influenceGraph{atlas: a}, figure.ID, depth, direction)
}

// FiguresOverlapping returns every figure alive at some point in [minYear, maxYear]
func (a *Atlas) FiguresOverlapping(ctx context.Context, minYear int, maxYear int) ([]*model.Figure, error) {
	return a.Figures.SelectFiguresOverlapping(ctx, minYear, maxYear)
}

// ListFields returns all fields ordered by name
func (a *Atlas) ListFields(ctx context.Context) ([]*model.Field, error) {
	return a.Fields.SelectAllFields(ctx)
}

// GetField looks a field up by id or slug. It returns nil when nothing matches.
func (a *Atlas) GetField(ctx context.Context, idOrSlug string) (*model.Field, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return a.Fields.SelectField(ctx, id)
	}
	if !helper.IsSlug(idOrSlug) {
		return nil, nil
	}
	return a.Fields.SelectFieldBySlug(ctx, idOrSlug)
}

// CreateField inserts a field, deriving the slug from the name when missing
func (a *Atlas) CreateField(ctx context.Context, input *model.FieldInput) (*model.Field, error) {
	field, err := input.Field()
	if err != nil {
		return nil, err
	}

	err = a.Fields.InsertField(ctx, field)
	if err != nil {
		return nil, err
	}

	return field, nil
}

// ListTimelineEvents returns one page of timeline events matching filter
func (a *Atlas) ListTimelineEvents(ctx context.Context, filter *model.TimelineEventFilter, page model.PageRequest) (*model.Page[*model.TimelineEvent], error) {
	if filter == nil {
		filter = &model.TimelineEventFilter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	limit, err := page.Limit()
	if err != nil {
		return nil, err
	}

	ordering := filter.Ordering()
	after, err := a.cursors.Decode(page.After, ordering)
	if err != nil {
		return nil, err
	}

	events, hasMore, err := a.Events.SelectTimelineEvents(ctx, filter, limit, after)
	if err != nil {
		return nil, err
	}

	return buildPage(a.cursors, events, hasMore, func(e *model.TimelineEvent) model.Cursor {
		return model.TimelineEventCursor(ordering, e)
	})
}

// GetTimelineEvent returns the event with id, nil when it does not exist
func (a *Atlas) GetTimelineEvent(ctx context.Context, id uuid.UUID) (*model.TimelineEvent, error) {
	return a.Events.SelectTimelineEvent(ctx, id)
}

// CreateTimelineEvent inserts an event. Duplicates are allowed.
func (a *Atlas) CreateTimelineEvent(ctx context.Context, input *model.TimelineEventInput) (*model.TimelineEvent, error) {
	event, err := input.TimelineEvent()
	if err != nil {
		return nil, err
	}

	err = a.Events.InsertTimelineEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	return event, nil
}

// UpdateTimelineEvent applies patch to the event with id
func (a *Atlas) UpdateTimelineEvent(ctx context.Context, id uuid.UUID, patch *model.TimelineEventPatch) (*model.TimelineEvent, error) {
	var event *model.TimelineEvent
	err := a.DB.WithTransaction(ctx, func(tx *sql.Tx) error {
		events := a.Events.WithTx(tx)

		var err error
		event, err = events.SelectTimelineEvent(ctx, id)
		if err != nil {
			return err
		}
		if event == nil {
			return helper.ErrNotFound
		}

		err = patch.Apply(event)
		if err != nil {
			return err
		}

		return events.UpdateTimelineEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

// DeleteTimelineEvent deletes the event with id
func (a *Atlas) DeleteTimelineEvent(ctx context.Context, id uuid.UUID) error {
	return a.Events.DeleteTimelineEvent(ctx, id)
}

// ListInfluences returns one page of influences in creation order
func (a *Atlas) ListInfluences(ctx context.Context, filter *model.InfluenceFilter, page model.PageRequest) (*model.Page[*model.Influence], error) {
	if filter == nil {
		filter = &model.InfluenceFilter{}
	}

	limit, err := page.Limit()
	if err != nil {
		return nil, err
	}

	after, err := a.cursors.Decode(page.After, filter.Ordering())
	if err != nil {
		return nil, err
	}

	influences, hasMore, err := a.Influences.SelectInfluences(ctx, filter, limit, after)
	if err != nil {
		return nil, err
	}

	return buildPage(a.cursors, influences, hasMore, model.InfluenceCursor)
}

// GetInfluence returns the influence with id, nil when it does not exist
func (a *Atlas) GetInfluence(ctx context.Context, id uuid.UUID) (*model.Influence, error) {
	return a.Influences.SelectInfluence(ctx, id)
}

// CreateInfluence records that one figure influenced another
func (a *Atlas) CreateInfluence(ctx context.Context, input *model.InfluenceInput) (*model.Influence, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	influence := &model.Influence{
		InfluencerID: input.InfluencerID,
		InfluencedID: input.InfluencedID,
	}
	err := a.Influences.InsertInfluence(ctx, influence)
	if err != nil {
		return nil, err
	}

	return influence, nil
}

// UpdateInfluence replaces both endpoints of the influence with id
func (a *Atlas) UpdateInfluence(ctx context.Context, id uuid.UUID, input *model.InfluenceInput) (*model.Influence, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	influence := &model.Influence{
		ID:           id,
		InfluencerID: input.InfluencerID,
		InfluencedID: input.InfluencedID,
	}
	err := a.Influences.UpdateInfluence(ctx, influence)
	if err != nil {
		return nil, err
	}

	return influence, nil
}

// DeleteInfluence deletes the influence with id
func (a *Atlas) DeleteInfluence(ctx context.Context, id uuid.UUID) error {
	return a.Influences.DeleteInfluence(ctx, id)
}

// Seed loads dataset in one transaction, the built-in dataset when nil
func (a *Atlas) Seed(ctx context.Context, dataset *loader.Dataset, clear bool) (*model.SeedReport, error) {
	if dataset == nil {
		dataset = loader.DefaultDataset()
	}

	var report *model.SeedReport
	err := a.DB.WithTransaction(ctx, func(tx *sql.Tx) error {
		writers := loader.Writers{
			Fields:     a.Fields.WithTx(tx),
			Figures:    a.Figures.WithTx(tx),
			Events:     a.Events.WithTx(tx),
			Influences: a.Influences.WithTx(tx),
		}

		var err error
		report, err = loader.Run(ctx, writers, dataset, loader.Options{Clear: clear, Logger: a.log})
		return err
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// ImportCSV parses r completely and then inserts its figures in one
// transaction, skipping slugs that already exist.
func (a *Atlas) ImportCSV(ctx context.Context, r io.Reader) (*model.ImportReport, error) {
	figures, err := loader.ParseCSV(r)
	if err != nil {
		return nil, helper.NewError("parse csv", err)
	}

	var report *model.ImportReport
	err = a.DB.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		report, err = loader.ImportCSV(ctx, a.Figures.WithTx(tx), figures)
		return err
	})
	if err != nil {
		return nil, err
	}

	a.log.Info("Imported figures", slog.Int("rows", report.Rows), slog.Int("inserted", report.Inserted), slog.Int("skipped", report.Skipped))

	return report, nil
}

// VerifyLifespanIndex reports whether the lifespan overlap query uses the GiST index
func (a *Atlas) VerifyLifespanIndex(ctx context.Context, forceIndex bool) (*model.IndexReport, error) {
	return a.Figures.VerifyLifespanIndex(ctx, forceIndex)
}

// influenceGraph adapts the handlers to graph.InfluenceGraph
type influenceGraph struct {
	atlas *Atlas
}

func (g *influenceGraph) GetFigure(ctx context.Context, id uuid.UUID) (*model.Figure, error) {
	return g.atlas.Figures.SelectFigure(ctx, id)
}

func (g *influenceGraph) GetNeighbors(ctx context.Context, id uuid.UUID, direction model.LineageDirection) ([]*model.Figure, error) {
	return g.atlas.Influences.SelectInfluenceNeighbors(ctx, id, direction)
}

func buildPage[T any](codec *model.CursorCodec, items []T, hasMore bool, cursor func(T) model.Cursor) (*model.Page[T], error) {
	page := &model.Page[T]{
		Items:   items,
		HasMore: hasMore,
	}

	if len(items) > 0 {
		token, err := codec.Encode(cursor(items[len(items)-1]))
		if err != nil {
			return nil, err
		}
		page.EndCursor = token
	}

	return page, nil
}
