package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore implements all writer interfaces with the same uniqueness
// rules as the database.
type memoryStore struct {
	fields       map[string]*model.Field  // by name
	figures      map[string]*model.Figure // by slug
	figureFields map[uuid.UUID][]uuid.UUID
	events       []*model.TimelineEvent
	influences   map[[2]uuid.UUID]*model.Influence
	failUpsert   bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		fields:       map[string]*model.Field{},
		figures:      map[string]*model.Figure{},
		figureFields: map[uuid.UUID][]uuid.UUID{},
		influences:   map[[2]uuid.UUID]*model.Influence{},
	}
}

func (m *memoryStore) writers() Writers {
	return Writers{Fields: m, Figures: m, Events: m, Influences: m}
}

func (m *memoryStore) GetOrCreateField(ctx context.Context, name string, slug string) (*model.Field, error) {
	if field, ok := m.fields[name]; ok {
		return field, nil
	}
	for _, field := range m.fields {
		if field.Slug == slug {
			return nil, &helper.ConflictError{Field: "slug", Constraint: "fields_slug_key"}
		}
	}
	field := &model.Field{ID: uuid.New(), Name: name, Slug: slug}
	m.fields[name] = field
	return field, nil
}

func (m *memoryStore) DeleteAllFields(ctx context.Context) (int, error) {
	n := len(m.fields)
	m.fields = map[string]*model.Field{}
	return n, nil
}

func (m *memoryStore) UpsertFigureBySlug(ctx context.Context, figure *model.Figure) error {
	if m.failUpsert {
		return assert.AnError
	}
	if existing, ok := m.figures[figure.Slug]; ok {
		figure.ID = existing.ID
	} else {
		figure.ID = uuid.New()
	}
	m.figures[figure.Slug] = figure
	return nil
}

func (m *memoryStore) InsertFigureIgnoreConflict(ctx context.Context, figure *model.Figure) (bool, error) {
	if _, ok := m.figures[figure.Slug]; ok {
		return false, nil
	}
	figure.ID = uuid.New()
	m.figures[figure.Slug] = figure
	return true, nil
}

func (m *memoryStore) SetFigureFields(ctx context.Context, figureID uuid.UUID, fieldIDs []uuid.UUID) error {
	m.figureFields[figureID] = fieldIDs
	return nil
}

func (m *memoryStore) DeleteAllFigures(ctx context.Context) (int, error) {
	n := len(m.figures)
	m.figures = map[string]*model.Figure{}
	m.figureFields = map[uuid.UUID][]uuid.UUID{}
	return n, nil
}

func (m *memoryStore) GetOrCreateTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	for _, existing := range m.events {
		if existing.Title == event.Title && existing.Year == event.Year && existing.Category == event.Category {
			*event = *existing
			return nil
		}
	}
	event.ID = uuid.New()
	stored := *event
	m.events = append(m.events, &stored)
	return nil
}

func (m *memoryStore) DeleteAllTimelineEvents(ctx context.Context) (int, error) {
	n := len(m.events)
	m.events = nil
	return n, nil
}

func (m *memoryStore) GetOrCreateInfluence(ctx context.Context, influencerID uuid.UUID, influencedID uuid.UUID) (*model.Influence, error) {
	key := [2]uuid.UUID{influencerID, influencedID}
	if influence, ok := m.influences[key]; ok {
		return influence, nil
	}
	influence := &model.Influence{ID: uuid.New(), InfluencerID: influencerID, InfluencedID: influencedID}
	m.influences[key] = influence
	return influence, nil
}

func (m *memoryStore) DeleteAllInfluences(ctx context.Context) (int, error) {
	n := len(m.influences)
	m.influences = map[[2]uuid.UUID]*model.Influence{}
	return n, nil
}

func TestRunDefaultDataset(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	t.Run("First run creates everything", func(t *testing.T) {
		report, err := Run(ctx, store.writers(), DefaultDataset(), Options{})
		require.NoError(t, err, "Expected Run to not return an error")
		assert.Equal(t, 8, report.Fields, "Expected Linguistics to be created on the fly")
		assert.Equal(t, 8, report.Figures)
		assert.Equal(t, 7, report.Events)
		assert.Equal(t, 8, report.Influences)

		assert.Len(t, store.fields, 8)
		assert.Len(t, store.figures, 8)
		assert.Len(t, store.events, 7)
		assert.Len(t, store.influences, 8)
	})

	t.Run("Second run is idempotent", func(t *testing.T) {
		platoID := store.figures["plato"].ID

		_, err := Run(ctx, store.writers(), DefaultDataset(), Options{})
		require.NoError(t, err)
		assert.Len(t, store.fields, 8)
		assert.Len(t, store.figures, 8)
		assert.Len(t, store.events, 7)
		assert.Len(t, store.influences, 8)
		assert.Equal(t, platoID, store.figures["plato"].ID, "Expected figures to keep their ids")
	})

	t.Run("Figures get their fields and slugs", func(t *testing.T) {
		leonardo := store.figures["leonardo-da-vinci"]
		require.NotNil(t, leonardo)
		assert.Equal(t, "Q762", *leonardo.ExternalID)
		assert.Len(t, store.figureFields[leonardo.ID], 3)

		chomsky := store.figures["noam-chomsky"]
		require.NotNil(t, chomsky)
		assert.Nil(t, chomsky.NormalizedDeathYear, "Expected Chomsky to be living")
		assert.Contains(t, store.figureFields[chomsky.ID], store.fields["Linguistics"].ID)
	})

	t.Run("Clear removes rows that are not in the dataset", func(t *testing.T) {
		store.figures["extra"] = &model.Figure{ID: uuid.New(), Name: "Extra", Slug: "extra"}

		report, err := Run(ctx, store.writers(), DefaultDataset(), Options{Clear: true})
		require.NoError(t, err)
		assert.True(t, report.Cleared)
		assert.Len(t, store.figures, 8)
		assert.NotContains(t, store.figures, "extra")
	})
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Influence naming an unknown figure", func(t *testing.T) {
		dataset := DefaultDataset()
		dataset.Influences = append(dataset.Influences, InfluenceSpec{Influencer: "Plato", Influenced: "Socrates"})

		store := newMemoryStore()
		_, err := Run(ctx, store.writers(), dataset, Options{})

		var validation *helper.ValidationError
		require.True(t, errors.As(err, &validation), "Expected a validation error, got %v", err)
		assert.Contains(t, validation.Message, "Socrates")
		assert.Empty(t, store.figures, "Expected nothing to be written")
	})

	t.Run("Figure dying before birth", func(t *testing.T) {
		dataset := &Dataset{Figures: []FigureSpec{{Name: "Broken", Birth: 10, Death: yearPtr(5)}}}
		_, err := Run(ctx, newMemoryStore().writers(), dataset, Options{})
		assert.Error(t, err)
	})

	t.Run("Writer failure aborts", func(t *testing.T) {
		store := newMemoryStore()
		store.failUpsert = true
		_, err := Run(ctx, store.writers(), DefaultDataset(), Options{})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("Field slug taken by another name", func(t *testing.T) {
		dataset := &Dataset{Fields: []FieldSpec{{Name: "Art"}, {Name: "ART"}}}
		_, err := Run(ctx, newMemoryStore().writers(), dataset, Options{})

		var conflict *helper.ConflictError
		assert.True(t, errors.As(err, &conflict), "Expected a conflict error, got %v", err)
	})
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()

	t.Run("Valid fixture", func(t *testing.T) {
		path := filepath.Join(dir, "valid.yaml")
		content := `
fields:
  - name: Physics
figures:
  - name: Isaac Newton
    external_id: Q935
    birth: 1643
    death: 1727
    fields: [Physics, Mathematics]
  - name: Living Physicist
    birth: 1950
events:
  - title: Principia published
    year: 1687
    category: Science
influences:
  - influencer: Isaac Newton
    influenced: living-physicist
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		dataset, err := LoadFixture(path)
		require.NoError(t, err, "Expected LoadFixture to not return an error")
		require.Len(t, dataset.Figures, 2)
		assert.Equal(t, "isaac-newton", dataset.Figures[0].FigureSlug())
		require.NotNil(t, dataset.Figures[0].Death)
		assert.Equal(t, 1727, *dataset.Figures[0].Death)
		assert.Nil(t, dataset.Figures[1].Death)
		assert.Equal(t, []string{"Physics", "Mathematics"}, dataset.Figures[0].Fields)
		require.Len(t, dataset.Events, 1)
		assert.Equal(t, 1687, dataset.Events[0].Year)

		store := newMemoryStore()
		report, err := Run(context.Background(), store.writers(), dataset, Options{})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Fields)
		assert.Equal(t, 1, report.Influences)
	})

	t.Run("Fixture with unknown influence", func(t *testing.T) {
		path := filepath.Join(dir, "unknown.yaml")
		content := `
figures:
  - name: Alone
    birth: 1
influences:
  - influencer: Alone
    influenced: Nobody
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		_, err := LoadFixture(path)
		assert.Error(t, err)
	})

	t.Run("Malformed fixture", func(t *testing.T) {
		path := filepath.Join(dir, "malformed.yaml")
		require.NoError(t, os.WriteFile(path, []byte("figures: [name: x"), 0600))

		_, err := LoadFixture(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing fixture file")
	})

	t.Run("Missing fixture", func(t *testing.T) {
		_, err := LoadFixture(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading fixture file")
	})
}

func TestDefaultDatasetIsValid(t *testing.T) {
	dataset := DefaultDataset()
	assert.NoError(t, dataset.Validate())
	assert.Len(t, dataset.Figures, 8)
	assert.Len(t, dataset.Events, 7)
	assert.Len(t, dataset.Influences, 8)
}
