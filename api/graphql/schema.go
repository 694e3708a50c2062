package graphql

import (
	"time"

	"github.com/google/uuid"
	gql "github.com/graphql-go/graphql"
	"github.com/siherrmann/chronosatlas/model"
)

// Connection fields shared by every paginated list
func connectionType(name string, item *gql.Object) *gql.Object {
	return gql.NewObject(gql.ObjectConfig{
		Name: name,
		Fields: gql.Fields{
			"items":     &gql.Field{Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(item)))},
			"hasMore":   &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
			"endCursor": &gql.Field{Type: gql.String},
		},
	})
}

func connection[T any](page *model.Page[T]) map[string]interface{} {
	result := map[string]interface{}{
		"items":   page.Items,
		"hasMore": page.HasMore,
	}
	if page.EndCursor != "" {
		result["endCursor"] = page.EndCursor
	}
	return result
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatDate(d *model.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func formatYear(year *int) interface{} {
	if year == nil {
		return nil
	}
	return *year
}

func (s *Server) buildSchema() (gql.Schema, error) {
	fieldType := gql.NewObject(gql.ObjectConfig{
		Name:        "Field",
		Description: "A field of endeavor such as Philosophy or Science",
		Fields: gql.Fields{
			"id":          resolveField(gql.NewNonNull(gql.ID), func(f *model.Field) interface{} { return f.ID.String() }),
			"name":        resolveField(gql.NewNonNull(gql.String), func(f *model.Field) interface{} { return f.Name }),
			"slug":        resolveField(gql.NewNonNull(gql.String), func(f *model.Field) interface{} { return f.Slug }),
			"description": resolveField(gql.NewNonNull(gql.String), func(f *model.Field) interface{} { return f.Description }),
		},
	})

	figureType := gql.NewObject(gql.ObjectConfig{
		Name:        "Figure",
		Description: "A historical person. Negative years are BCE.",
		Fields: gql.Fields{
			"id":                  resolveField(gql.NewNonNull(gql.ID), func(f *model.Figure) interface{} { return f.ID.String() }),
			"name":                resolveField(gql.NewNonNull(gql.String), func(f *model.Figure) interface{} { return f.Name }),
			"slug":                resolveField(gql.NewNonNull(gql.String), func(f *model.Figure) interface{} { return f.Slug }),
			"externalId":          resolveField(gql.String, func(f *model.Figure) interface{} { return nullableString(f.ExternalID) }),
			"summary":             resolveField(gql.NewNonNull(gql.String), func(f *model.Figure) interface{} { return f.Summary }),
			"birthDate":           resolveField(gql.String, func(f *model.Figure) interface{} { return formatDate(f.BirthDate) }),
			"deathDate":           resolveField(gql.String, func(f *model.Figure) interface{} { return formatDate(f.DeathDate) }),
			"normalizedBirthYear": resolveField(gql.NewNonNull(gql.Int), func(f *model.Figure) interface{} { return f.NormalizedBirthYear }),
			"normalizedDeathYear": resolveField(gql.Int, func(f *model.Figure) interface{} { return formatYear(f.NormalizedDeathYear) }),
			"isLiving":            resolveField(gql.NewNonNull(gql.Boolean), func(f *model.Figure) interface{} { return f.IsLiving() }),
			"instanceOfIds":       resolveField(gql.NewNonNull(gql.NewList(gql.NewNonNull(gql.String))), func(f *model.Figure) interface{} { return nonNilStrings(f.InstanceOfIDs) }),
			"fields":              resolveField(gql.NewNonNull(gql.NewList(gql.NewNonNull(fieldType))), func(f *model.Figure) interface{} { return nonNilFields(f.Fields) }),
			"createdAt":           resolveField(gql.NewNonNull(gql.String), func(f *model.Figure) interface{} { return formatTime(f.CreatedAt) }),
			"updatedAt":           resolveField(gql.NewNonNull(gql.String), func(f *model.Figure) interface{} { return formatTime(f.UpdatedAt) }),
		},
	})

	timelineEventType := gql.NewObject(gql.ObjectConfig{
		Name:        "TimelineEvent",
		Description: "A dated occurrence, not linked to any figure",
		Fields: gql.Fields{
			"id":          resolveField(gql.NewNonNull(gql.ID), func(e *model.TimelineEvent) interface{} { return e.ID.String() }),
			"title":       resolveField(gql.NewNonNull(gql.String), func(e *model.TimelineEvent) interface{} { return e.Title }),
			"year":        resolveField(gql.NewNonNull(gql.Int), func(e *model.TimelineEvent) interface{} { return e.Year }),
			"category":    resolveField(gql.NewNonNull(gql.String), func(e *model.TimelineEvent) interface{} { return e.Category }),
			"description": resolveField(gql.NewNonNull(gql.String), func(e *model.TimelineEvent) interface{} { return e.Description }),
			"createdAt":   resolveField(gql.NewNonNull(gql.String), func(e *model.TimelineEvent) interface{} { return formatTime(e.CreatedAt) }),
		},
	})

	influenceType := gql.NewObject(gql.ObjectConfig{
		Name:        "Influence",
		Description: "The influencer shaped the influenced figure",
		Fields: gql.Fields{
			"id":           resolveField(gql.NewNonNull(gql.ID), func(i *model.Influence) interface{} { return i.ID.String() }),
			"influencerId": resolveField(gql.NewNonNull(gql.ID), func(i *model.Influence) interface{} { return i.InfluencerID.String() }),
			"influencedId": resolveField(gql.NewNonNull(gql.ID), func(i *model.Influence) interface{} { return i.InfluencedID.String() }),
			"influencer": &gql.Field{
				Type:    figureType,
				Resolve: s.resolveInfluenceFigure(func(i *model.Influence) uuid.UUID { return i.InfluencerID }),
			},
			"influenced": &gql.Field{
				Type:    figureType,
				Resolve: s.resolveInfluenceFigure(func(i *model.Influence) uuid.UUID { return i.InfluencedID }),
			},
			"createdAt": resolveField(gql.NewNonNull(gql.String), func(i *model.Influence) interface{} { return formatTime(i.CreatedAt) }),
		},
	})

	lineageEntryType := gql.NewObject(gql.ObjectConfig{
		Name: "LineageEntry",
		Fields: gql.Fields{
			"figure":   resolveField(gql.NewNonNull(figureType), func(e *model.LineageEntry) interface{} { return e.Figure }),
			"distance": resolveField(gql.NewNonNull(gql.Int), func(e *model.LineageEntry) interface{} { return e.Distance }),
			"path": resolveField(gql.NewNonNull(gql.NewList(gql.NewNonNull(gql.ID))), func(e *model.LineageEntry) interface{} {
				path := make([]string, 0, len(e.Path))
				for _, id := range e.Path {
					path = append(path, id.String())
				}
				return path
			}),
		},
	})

	pageArgs := gql.FieldConfigArgument{
		"first": &gql.ArgumentConfig{Type: gql.Int, Description: "Page size, 20 by default and at most 100"},
		"after": &gql.ArgumentConfig{Type: gql.String, Description: "endCursor of the previous page"},
	}

	figureArgs := withArgs(pageArgs, gql.FieldConfigArgument{
		"slug":         &gql.ArgumentConfig{Type: gql.String},
		"externalId":   &gql.ArgumentConfig{Type: gql.String},
		"name":         &gql.ArgumentConfig{Type: gql.String, Description: "Case-insensitive substring"},
		"minYear":      &gql.ArgumentConfig{Type: gql.Int, Description: "Lifespan overlap, applies together with maxYear"},
		"maxYear":      &gql.ArgumentConfig{Type: gql.Int, Description: "Lifespan overlap, applies together with minYear"},
		"minBirthYear": &gql.ArgumentConfig{Type: gql.Int},
		"maxBirthYear": &gql.ArgumentConfig{Type: gql.Int},
		"field":        &gql.ArgumentConfig{Type: gql.String, Description: "Field slug"},
		"orderBy":      &gql.ArgumentConfig{Type: gql.String, Description: "birthYear, -birthYear, name or -name"},
	})

	timelineEventArgs := withArgs(pageArgs, gql.FieldConfigArgument{
		"category": &gql.ArgumentConfig{Type: gql.String},
		"year":     &gql.ArgumentConfig{Type: gql.Int},
		"title":    &gql.ArgumentConfig{Type: gql.String, Description: "Case-insensitive substring"},
		"minYear":  &gql.ArgumentConfig{Type: gql.Int},
		"maxYear":  &gql.ArgumentConfig{Type: gql.Int},
		"orderBy":  &gql.ArgumentConfig{Type: gql.String, Description: "year, -year, title or -title"},
	})

	influenceArgs := withArgs(pageArgs, gql.FieldConfigArgument{
		"influencerId": &gql.ArgumentConfig{Type: gql.ID},
		"influencedId": &gql.ArgumentConfig{Type: gql.ID},
	})

	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"figures": &gql.Field{
				Type:    gql.NewNonNull(connectionType("FigureConnection", figureType)),
				Args:    figureArgs,
				Resolve: s.resolveFigures,
			},
			"figure": &gql.Field{
				Type: figureType,
				Args: gql.FieldConfigArgument{
					"id":   &gql.ArgumentConfig{Type: gql.ID},
					"slug": &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: s.resolveFigure,
			},
			"lineage": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(lineageEntryType))),
				Args: gql.FieldConfigArgument{
					"figure":    &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String), Description: "Figure id or slug"},
					"direction": &gql.ArgumentConfig{Type: gql.String, DefaultValue: string(model.LineageInfluenced)},
					"depth":     &gql.ArgumentConfig{Type: gql.Int, DefaultValue: model.DefaultLineageDepth},
				},
				Resolve: s.resolveLineage,
			},
			"fields": &gql.Field{
				Type:    gql.NewNonNull(gql.NewList(gql.NewNonNull(fieldType))),
				Resolve: s.resolveFields,
			},
			"timelineEvents": &gql.Field{
				Type:    gql.NewNonNull(connectionType("TimelineEventConnection", timelineEventType)),
				Args:    timelineEventArgs,
				Resolve: s.resolveTimelineEvents,
			},
			"influences": &gql.Field{
				Type:    gql.NewNonNull(connectionType("InfluenceConnection", influenceType)),
				Args:    influenceArgs,
				Resolve: s.resolveInfluences,
			},
		},
	})

	createFigureInput := gql.NewInputObject(gql.InputObjectConfig{
		Name: "CreateFigureInput",
		Fields: gql.InputObjectConfigFieldMap{
			"name":                &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
			"slug":                &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
			"externalId":          &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
			"summary":             &gql.InputObjectFieldConfig{Type: gql.String},
			"birthDate":           &gql.InputObjectFieldConfig{Type: gql.String, Description: "YYYY-MM-DD"},
			"deathDate":           &gql.InputObjectFieldConfig{Type: gql.String, Description: "YYYY-MM-DD"},
			"normalizedBirthYear": &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.Int)},
			"normalizedDeathYear": &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.Int)},
			"instanceOfIds":       &gql.InputObjectFieldConfig{Type: gql.NewList(gql.NewNonNull(gql.String))},
			"fieldIds":            &gql.InputObjectFieldConfig{Type: gql.NewList(gql.NewNonNull(gql.ID))},
		},
	})

	createTimelineEventInput := gql.NewInputObject(gql.InputObjectConfig{
		Name: "CreateTimelineEventInput",
		Fields: gql.InputObjectConfigFieldMap{
			"title":       &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
			"year":        &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.Int)},
			"category":    &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
			"description": &gql.InputObjectFieldConfig{Type: gql.String},
		},
	})

	mutation := gql.NewObject(gql.ObjectConfig{
		Name: "Mutation",
		Fields: gql.Fields{
			"createFigure": &gql.Field{
				Type: figureType,
				Args: gql.FieldConfigArgument{
					"input": &gql.ArgumentConfig{Type: gql.NewNonNull(createFigureInput)},
				},
				Resolve: s.resolveCreateFigure,
			},
			"createTimelineEvent": &gql.Field{
				Type: timelineEventType,
				Args: gql.FieldConfigArgument{
					"input": &gql.ArgumentConfig{Type: gql.NewNonNull(createTimelineEventInput)},
				},
				Resolve: s.resolveCreateTimelineEvent,
			},
		},
	})

	return gql.NewSchema(gql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

// resolveField builds a field whose value is read from the typed source
func resolveField[T any](fieldType gql.Output, get func(T) interface{}) *gql.Field {
	return &gql.Field{
		Type: fieldType,
		Resolve: func(p gql.ResolveParams) (interface{}, error) {
			source, ok := p.Source.(T)
			if !ok {
				return nil, nil
			}
			return get(source), nil
		},
	}
}

func withArgs(base gql.FieldConfigArgument, extra gql.FieldConfigArgument) gql.FieldConfigArgument {
	args := gql.FieldConfigArgument{}
	for name, arg := range base {
		args[name] = arg
	}
	for name, arg := range extra {
		args[name] = arg
	}
	return args
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilFields(fields []*model.Field) []*model.Field {
	if fields == nil {
		return []*model.Field{}
	}
	return fields
}
