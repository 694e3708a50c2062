package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

// InfluenceGraph defines the lookups the traversals need
type InfluenceGraph interface {
	GetFigure(ctx context.Context, id uuid.UUID) (*model.Figure, error)
	GetNeighbors(ctx context.Context, id uuid.UUID, direction model.LineageDirection) ([]*model.Figure, error)
}

// BFS performs breadth-first search from a source figure. The source is the
// first entry with distance 0. Every figure appears once, at its shortest
// distance.
func BFS(ctx context.Context, g InfluenceGraph, sourceID uuid.UUID, maxHops int, direction model.LineageDirection) ([]*model.LineageEntry, error) {
	source, err := g.GetFigure(ctx, sourceID)
	if err != nil {
		return nil, helper.NewError("get source figure", err)
	}
	if source == nil {
		return nil, helper.ErrNotFound
	}

	visited := map[uuid.UUID]bool{sourceID: true}
	queue := []*model.LineageEntry{{
		Figure:   source,
		Distance: 0,
		Path:     []uuid.UUID{sourceID},
	}}

	var results []*model.LineageEntry
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, current)

		if current.Distance >= maxHops {
			continue
		}

		neighbors, err := g.GetNeighbors(ctx, current.Figure.ID, direction)
		if err != nil {
			return nil, helper.NewError("get neighbors", err)
		}

		for _, neighbor := range neighbors {
			if visited[neighbor.ID] {
				continue
			}
			visited[neighbor.ID] = true

			queue = append(queue, &model.LineageEntry{
				Figure:   neighbor,
				Distance: current.Distance + 1,
				Path:     extendPath(current.Path, neighbor.ID),
			})
		}
	}

	return results, nil
}

// Lineage returns the figures within maxHops of the source in BFS order,
// without the source itself. maxHops must lie in [1, model.MaxLineageDepth].
func Lineage(ctx context.Context, g InfluenceGraph, sourceID uuid.UUID, maxHops int, direction model.LineageDirection) ([]*model.LineageEntry, error) {
	if direction != model.LineageInfluencers && direction != model.LineageInfluenced {
		return nil, helper.NewValidationError("direction", "unknown direction %q, expected %s or %s", direction, model.LineageInfluencers, model.LineageInfluenced)
	}
	if maxHops < 1 || maxHops > model.MaxLineageDepth {
		return nil, helper.NewValidationError("depth", "must be between 1 and %d (got %d)", model.MaxLineageDepth, maxHops)
	}

	results, err := BFS(ctx, g, sourceID, maxHops, direction)
	if err != nil {
		return nil, err
	}

	return results[1:], nil
}

func extendPath(path []uuid.UUID, id uuid.UUID) []uuid.UUID {
	newPath := make([]uuid.UUID, len(path), len(path)+1)
	copy(newPath, path)
	return append(newPath, id)
}
