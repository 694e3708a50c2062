package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockInfluenceGraph is an in-memory InfluenceGraph for testing
type MockInfluenceGraph struct {
	figures    map[uuid.UUID]*model.Figure
	influenced map[uuid.UUID][]uuid.UUID
	failOn     uuid.UUID
}

func NewMockInfluenceGraph() *MockInfluenceGraph {
	return &MockInfluenceGraph{
		figures:    make(map[uuid.UUID]*model.Figure),
		influenced: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *MockInfluenceGraph) addFigure(name string) *model.Figure {
	figure := &model.Figure{ID: uuid.New(), Name: name}
	m.figures[figure.ID] = figure
	return figure
}

func (m *MockInfluenceGraph) addInfluence(influencer *model.Figure, influenced *model.Figure) {
	m.influenced[influencer.ID] = append(m.influenced[influencer.ID], influenced.ID)
}

func (m *MockInfluenceGraph) GetFigure(ctx context.Context, id uuid.UUID) (*model.Figure, error) {
	return m.figures[id], nil
}

func (m *MockInfluenceGraph) GetNeighbors(ctx context.Context, id uuid.UUID, direction model.LineageDirection) ([]*model.Figure, error) {
	if id == m.failOn {
		return nil, assert.AnError
	}

	neighbors := []*model.Figure{}
	if direction == model.LineageInfluencers {
		for influencer, targets := range m.influenced {
			for _, target := range targets {
				if target == id {
					neighbors = append(neighbors, m.figures[influencer])
				}
			}
		}
		return neighbors, nil
	}

	for _, target := range m.influenced[id] {
		neighbors = append(neighbors, m.figures[target])
	}
	return neighbors, nil
}

// newTestGraph builds Plato -> Aristotle -> Leonardo -> Curie -> Einstein
// and Plato -> Einstein.
func newTestGraph() (*MockInfluenceGraph, map[string]*model.Figure) {
	g := NewMockInfluenceGraph()
	figures := map[string]*model.Figure{}
	for _, name := range []string{"Plato", "Aristotle", "Leonardo", "Curie", "Einstein"} {
		figures[name] = g.addFigure(name)
	}
	g.addInfluence(figures["Plato"], figures["Aristotle"])
	g.addInfluence(figures["Aristotle"], figures["Leonardo"])
	g.addInfluence(figures["Leonardo"], figures["Curie"])
	g.addInfluence(figures["Curie"], figures["Einstein"])
	g.addInfluence(figures["Plato"], figures["Einstein"])
	return g, figures
}

func distances(entries []*model.LineageEntry) map[string]int {
	result := map[string]int{}
	for _, entry := range entries {
		result[entry.Figure.Name] = entry.Distance
	}
	return result
}

func TestBFS(t *testing.T) {
	g, figures := newTestGraph()
	ctx := context.Background()

	t.Run("BFS from source with max hops 1", func(t *testing.T) {
		results, err := BFS(ctx, g, figures["Plato"].ID, 1, model.LineageInfluenced)
		require.NoError(t, err, "Expected BFS to not return an error")
		require.Len(t, results, 3)
		assert.Equal(t, figures["Plato"].ID, results[0].Figure.ID, "Expected first result to be source")
		assert.Equal(t, 0, results[0].Distance, "Expected source distance to be 0")
		assert.Equal(t, map[string]int{"Plato": 0, "Aristotle": 1, "Einstein": 1}, distances(results))
	})

	t.Run("BFS keeps the shortest distance", func(t *testing.T) {
		results, err := BFS(ctx, g, figures["Plato"].ID, 10, model.LineageInfluenced)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"Plato": 0, "Aristotle": 1, "Einstein": 1, "Leonardo": 2, "Curie": 3}, distances(results))

		for _, result := range results {
			assert.Len(t, result.Path, result.Distance+1, "Expected path to hold one id per hop plus the source")
			assert.Equal(t, figures["Plato"].ID, result.Path[0])
			assert.Equal(t, result.Figure.ID, result.Path[len(result.Path)-1])
		}
	})

	t.Run("BFS upstream", func(t *testing.T) {
		results, err := BFS(ctx, g, figures["Einstein"].ID, 2, model.LineageInfluencers)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"Einstein": 0, "Curie": 1, "Plato": 1, "Leonardo": 2}, distances(results))
	})

	t.Run("BFS with max hops 0", func(t *testing.T) {
		results, err := BFS(ctx, g, figures["Plato"].ID, 0, model.LineageInfluenced)
		require.NoError(t, err)
		require.Len(t, results, 1, "Expected only source node for max hops 0")
	})

	t.Run("BFS from isolated figure", func(t *testing.T) {
		isolated := g.addFigure("Isolated")
		results, err := BFS(ctx, g, isolated.ID, 3, model.LineageInfluenced)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, isolated.ID, results[0].Figure.ID)
	})

	t.Run("BFS from missing figure", func(t *testing.T) {
		_, err := BFS(ctx, g, uuid.New(), 3, model.LineageInfluenced)
		assert.ErrorIs(t, err, helper.ErrNotFound)
	})

	t.Run("BFS propagates neighbor errors", func(t *testing.T) {
		failing, failingFigures := newTestGraph()
		failing.failOn = failingFigures["Aristotle"].ID

		_, err := BFS(ctx, failing, failingFigures["Plato"].ID, 3, model.LineageInfluenced)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestLineage(t *testing.T) {
	g, figures := newTestGraph()
	ctx := context.Background()

	t.Run("Lineage excludes the source", func(t *testing.T) {
		entries, err := Lineage(ctx, g, figures["Plato"].ID, model.DefaultLineageDepth, model.LineageInfluenced)
		require.NoError(t, err)
		require.Len(t, entries, 4)
		for _, entry := range entries {
			assert.NotEqual(t, figures["Plato"].ID, entry.Figure.ID)
			assert.GreaterOrEqual(t, entry.Distance, 1)
		}
	})

	t.Run("Lineage of figure without influencers", func(t *testing.T) {
		entries, err := Lineage(ctx, g, figures["Plato"].ID, 3, model.LineageInfluencers)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Invalid depth", func(t *testing.T) {
		for _, depth := range []int{0, -1, model.MaxLineageDepth + 1} {
			_, err := Lineage(ctx, g, figures["Plato"].ID, depth, model.LineageInfluenced)

			var validation *helper.ValidationError
			require.True(t, errors.As(err, &validation), "Expected a validation error for depth %d", depth)
			assert.Equal(t, "depth", validation.Field)
		}
	})

	t.Run("Invalid direction", func(t *testing.T) {
		_, err := Lineage(ctx, g, figures["Plato"].ID, 2, model.LineageDirection("sideways"))

		var validation *helper.ValidationError
		require.True(t, errors.As(err, &validation), "Expected a validation error")
		assert.Equal(t, "direction", validation.Field)
	})
}
