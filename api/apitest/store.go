// Package apitest provides an in-memory api.Store for handler tests.
package apitest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

// Store keeps everything in memory. Cursors are plain offsets.
// Setting Err makes every call fail with it.
type Store struct {
	mu         sync.Mutex
	figures    []*model.Figure
	fields     []*model.Field
	events     []*model.TimelineEvent
	influences []*model.Influence
	Err        error
}

func NewStore() *Store {
	return &Store{}
}

// AddFigure stores f as is and returns it
func (s *Store) AddFigure(f *model.Figure) *model.Figure {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	s.figures = append(s.figures, f)
	return f
}

// AddField stores f as is and returns it
func (s *Store) AddField(f *model.Field) *model.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	s.fields = append(s.fields, f)
	return f
}

// AddInfluence stores an influence between two figures
func (s *Store) AddInfluence(influencer *model.Figure, influenced *model.Figure) *model.Influence {
	s.mu.Lock()
	defer s.mu.Unlock()
	influence := &model.Influence{
		ID:           uuid.New(),
		InfluencerID: influencer.ID,
		InfluencedID: influenced.ID,
		CreatedAt:    time.Now(),
	}
	s.influences = append(s.influences, influence)
	return influence
}

func paginate[T any](items []T, page model.PageRequest) (*model.Page[T], error) {
	limit, err := page.Limit()
	if err != nil {
		return nil, err
	}

	offset := 0
	if page.After != "" {
		offset, err = strconv.Atoi(page.After)
		if err != nil || offset < 0 || offset > len(items) {
			return nil, helper.NewValidationError("after", "malformed cursor")
		}
	}

	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	result := &model.Page[T]{Items: items[offset:end], HasMore: end < len(items)}
	if end > offset {
		result.EndCursor = strconv.Itoa(end)
	}
	return result, nil
}

func (s *Store) ListFigures(ctx context.Context, filter *model.FigureFilter, page model.PageRequest) (*model.Page[*model.Figure], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if filter == nil {
		filter = &model.FigureFilter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	figures := []*model.Figure{}
	for _, f := range s.figures {
		if filter.Slug != nil && f.Slug != *filter.Slug {
			continue
		}
		if filter.Name != nil && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(*filter.Name)) {
			continue
		}
		if filter.HasLifespanRange() && !f.Lifespan().Overlaps(*filter.MinYear, *filter.MaxYear) {
			continue
		}
		if filter.MinBirthYear != nil && f.NormalizedBirthYear < *filter.MinBirthYear {
			continue
		}
		if filter.MaxBirthYear != nil && f.NormalizedBirthYear > *filter.MaxBirthYear {
			continue
		}
		figures = append(figures, f)
	}

	sort.SliceStable(figures, func(i, j int) bool {
		switch filter.Ordering() {
		case model.OrderName:
			return figures[i].Name < figures[j].Name
		case model.OrderNameDesc:
			return figures[i].Name > figures[j].Name
		case model.OrderBirthYearDesc:
			return figures[i].NormalizedBirthYear > figures[j].NormalizedBirthYear
		default:
			return figures[i].NormalizedBirthYear < figures[j].NormalizedBirthYear
		}
	})

	return paginate(figures, page)
}

func (s *Store) GetFigure(ctx context.Context, idOrSlug string) (*model.Figure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.findFigure(idOrSlug), nil
}

func (s *Store) findFigure(idOrSlug string) *model.Figure {
	for _, f := range s.figures {
		if f.ID.String() == idOrSlug || f.Slug == idOrSlug {
			return f
		}
	}
	return nil
}

func (s *Store) CreateFigure(ctx context.Context, input *model.FigureInput) (*model.Figure, error) {
	figure, err := input.Figure()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	for _, f := range s.figures {
		if f.Slug == figure.Slug {
			return nil, &helper.ConflictError{Field: "slug", Constraint: "figures_slug_key"}
		}
		if f.ExternalID != nil && *f.ExternalID == *figure.ExternalID {
			return nil, &helper.ConflictError{Field: "externalId", Constraint: "figures_external_id_key"}
		}
	}

	figure.Fields = []*model.Field{}
	for _, id := range input.FieldIDs {
		field := s.findField(id.String())
		if field == nil {
			return nil, helper.NewValidationError("fieldIds", "referenced record does not exist")
		}
		figure.Fields = append(figure.Fields, field)
	}

	figure.ID = uuid.New()
	figure.CreatedAt = time.Now()
	figure.UpdatedAt = figure.CreatedAt
	s.figures = append(s.figures, figure)
	return figure, nil
}

func (s *Store) UpdateFigure(ctx context.Context, id uuid.UUID, patch *model.FigurePatch) (*model.Figure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	figure := s.findFigure(id.String())
	if figure == nil {
		return nil, helper.ErrNotFound
	}

	updated := *figure
	if err := patch.Apply(&updated); err != nil {
		return nil, err
	}
	*figure = updated
	return figure, nil
}

func (s *Store) DeleteFigure(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	for i, f := range s.figures {
		if f.ID == id {
			s.figures = append(s.figures[:i], s.figures[i+1:]...)
			return nil
		}
	}
	return helper.ErrNotFound
}

// FigureLineage returns the direct neighbors only
func (s *Store) FigureLineage(ctx context.Context, idOrSlug string, direction model.LineageDirection, depth int) ([]*model.LineageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if direction != model.LineageInfluencers && direction != model.LineageInfluenced {
		return nil, helper.NewValidationError("direction", "unknown direction %q", direction)
	}
	if depth < 1 || depth > model.MaxLineageDepth {
		return nil, helper.NewValidationError("depth", "must be between 1 and %d (got %d)", model.MaxLineageDepth, depth)
	}

	source := s.findFigure(idOrSlug)
	if source == nil {
		return nil, helper.ErrNotFound
	}

	entries := []*model.LineageEntry{}
	for _, influence := range s.influences {
		var neighbor uuid.UUID
		switch {
		case direction == model.LineageInfluenced && influence.InfluencerID == source.ID:
			neighbor = influence.InfluencedID
		case direction == model.LineageInfluencers && influence.InfluencedID == source.ID:
			neighbor = influence.InfluencerID
		default:
			continue
		}
		entries = append(entries, &model.LineageEntry{
			Figure:   s.findFigure(neighbor.String()),
			Distance: 1,
			Path:     []uuid.UUID{source.ID, neighbor},
		})
	}
	return entries, nil
}

func (s *Store) ListFields(ctx context.Context) ([]*model.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	fields := append([]*model.Field{}, s.fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

func (s *Store) GetField(ctx context.Context, idOrSlug string) (*model.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.findField(idOrSlug), nil
}

func (s *Store) findField(idOrSlug string) *model.Field {
	for _, f := range s.fields {
		if f.ID.String() == idOrSlug || f.Slug == idOrSlug {
			return f
		}
	}
	return nil
}

func (s *Store) CreateField(ctx context.Context, input *model.FieldInput) (*model.Field, error) {
	field, err := input.Field()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	for _, f := range s.fields {
		if f.Name == field.Name {
			return nil, &helper.ConflictError{Field: "name", Constraint: "fields_name_key"}
		}
		if f.Slug == field.Slug {
			return nil, &helper.ConflictError{Field: "slug", Constraint: "fields_slug_key"}
		}
	}

	field.ID = uuid.New()
	s.fields = append(s.fields, field)
	return field, nil
}

func (s *Store) ListTimelineEvents(ctx context.Context, filter *model.TimelineEventFilter, page model.PageRequest) (*model.Page[*model.TimelineEvent], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if filter == nil {
		filter = &model.TimelineEventFilter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	events := []*model.TimelineEvent{}
	for _, e := range s.events {
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		if filter.Year != nil && e.Year != *filter.Year {
			continue
		}
		if filter.Title != nil && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(*filter.Title)) {
			continue
		}
		if filter.MinYear != nil && e.Year < *filter.MinYear {
			continue
		}
		if filter.MaxYear != nil && e.Year > *filter.MaxYear {
			continue
		}
		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Year < events[j].Year })
	return paginate(events, page)
}

func (s *Store) GetTimelineEvent(ctx context.Context, id uuid.UUID) (*model.TimelineEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.findEvent(id), nil
}

func (s *Store) findEvent(id uuid.UUID) *model.TimelineEvent {
	for _, e := range s.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (s *Store) CreateTimelineEvent(ctx context.Context, input *model.TimelineEventInput) (*model.TimelineEvent, error) {
	event, err := input.TimelineEvent()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	s.events = append(s.events, event)
	return event, nil
}

func (s *Store) UpdateTimelineEvent(ctx context.Context, id uuid.UUID, patch *model.TimelineEventPatch) (*model.TimelineEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	event := s.findEvent(id)
	if event == nil {
		return nil, helper.ErrNotFound
	}

	updated := *event
	if err := patch.Apply(&updated); err != nil {
		return nil, err
	}
	*event = updated
	return event, nil
}

func (s *Store) DeleteTimelineEvent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return helper.ErrNotFound
}

func (s *Store) ListInfluences(ctx context.Context, filter *model.InfluenceFilter, page model.PageRequest) (*model.Page[*model.Influence], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if filter == nil {
		filter = &model.InfluenceFilter{}
	}

	influences := []*model.Influence{}
	for _, i := range s.influences {
		if filter.InfluencerID != nil && i.InfluencerID != *filter.InfluencerID {
			continue
		}
		if filter.InfluencedID != nil && i.InfluencedID != *filter.InfluencedID {
			continue
		}
		influences = append(influences, i)
	}
	return paginate(influences, page)
}

func (s *Store) GetInfluence(ctx context.Context, id uuid.UUID) (*model.Influence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.findInfluence(id), nil
}

func (s *Store) findInfluence(id uuid.UUID) *model.Influence {
	for _, i := range s.influences {
		if i.ID == id {
			return i
		}
	}
	return nil
}

func (s *Store) checkInfluence(id uuid.UUID, input *model.InfluenceInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if s.findFigure(input.InfluencerID.String()) == nil {
		return helper.NewValidationError("influencer", "referenced record does not exist")
	}
	if s.findFigure(input.InfluencedID.String()) == nil {
		return helper.NewValidationError("influenced", "referenced record does not exist")
	}
	for _, i := range s.influences {
		if i.ID != id && i.InfluencerID == input.InfluencerID && i.InfluencedID == input.InfluencedID {
			return &helper.ConflictError{Field: "influenced", Constraint: "influences_pair_key"}
		}
	}
	return nil
}

func (s *Store) CreateInfluence(ctx context.Context, input *model.InfluenceInput) (*model.Influence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if err := s.checkInfluence(uuid.Nil, input); err != nil {
		return nil, err
	}

	influence := &model.Influence{
		ID:           uuid.New(),
		InfluencerID: input.InfluencerID,
		InfluencedID: input.InfluencedID,
		CreatedAt:    time.Now(),
	}
	s.influences = append(s.influences, influence)
	return influence, nil
}

func (s *Store) UpdateInfluence(ctx context.Context, id uuid.UUID, input *model.InfluenceInput) (*model.Influence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	influence := s.findInfluence(id)
	if influence == nil {
		return nil, helper.ErrNotFound
	}
	if err := s.checkInfluence(id, input); err != nil {
		return nil, err
	}

	influence.InfluencerID = input.InfluencerID
	influence.InfluencedID = input.InfluencedID
	return influence, nil
}

func (s *Store) DeleteInfluence(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	for i, influence := range s.influences {
		if influence.ID == id {
			s.influences = append(s.influences[:i], s.influences[i+1:]...)
			return nil
		}
	}
	return helper.ErrNotFound
}
