package graphql

import (
	"github.com/google/uuid"
	gql "github.com/graphql-go/graphql"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

func stringArg(args map[string]interface{}, name string) *string {
	value, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &value
}

func intArg(args map[string]interface{}, name string) *int {
	value, ok := args[name].(int)
	if !ok {
		return nil
	}
	return &value
}

func uuidArg(args map[string]interface{}, name string) (*uuid.UUID, error) {
	value := stringArg(args, name)
	if value == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, helper.NewValidationError(name, "%q is not a valid id", *value)
	}
	return &id, nil
}

func dateArg(args map[string]interface{}, name string) (*model.Date, error) {
	value := stringArg(args, name)
	if value == nil {
		return nil, nil
	}
	date, err := model.ParseDate(*value)
	if err != nil {
		return nil, helper.NewValidationError(name, "%q is not a YYYY-MM-DD date", *value)
	}
	return &date, nil
}

func stringListArg(args map[string]interface{}, name string) []string {
	values, ok := args[name].([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		if s, ok := value.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func pageArgs(args map[string]interface{}) model.PageRequest {
	page := model.PageRequest{First: intArg(args, "first")}
	if after := stringArg(args, "after"); after != nil {
		page.After = *after
	}
	return page
}

func (s *Server) resolveFigures(p gql.ResolveParams) (interface{}, error) {
	filter := &model.FigureFilter{
		Slug:         stringArg(p.Args, "slug"),
		ExternalID:   stringArg(p.Args, "externalId"),
		Name:         stringArg(p.Args, "name"),
		MinYear:      intArg(p.Args, "minYear"),
		MaxYear:      intArg(p.Args, "maxYear"),
		MinBirthYear: intArg(p.Args, "minBirthYear"),
		MaxBirthYear: intArg(p.Args, "maxBirthYear"),
		Field:        stringArg(p.Args, "field"),
	}
	if orderBy := stringArg(p.Args, "orderBy"); orderBy != nil {
		filter.OrderBy = *orderBy
	}

	page, err := s.store.ListFigures(p.Context, filter, pageArgs(p.Args))
	if err != nil {
		return nil, s.wrap(err)
	}
	return connection(page), nil
}

func (s *Server) resolveFigure(p gql.ResolveParams) (interface{}, error) {
	key := stringArg(p.Args, "id")
	if key == nil {
		key = stringArg(p.Args, "slug")
	}
	if key == nil {
		return nil, s.wrap(helper.NewValidationError("id", "either id or slug is required"))
	}

	figure, err := s.store.GetFigure(p.Context, *key)
	if err != nil {
		return nil, s.wrap(err)
	}
	if figure == nil {
		return nil, nil
	}
	return figure, nil
}

func (s *Server) resolveLineage(p gql.ResolveParams) (interface{}, error) {
	direction := model.LineageInfluenced
	if value := stringArg(p.Args, "direction"); value != nil {
		direction = model.LineageDirection(*value)
	}
	depth := model.DefaultLineageDepth
	if value := intArg(p.Args, "depth"); value != nil {
		depth = *value
	}

	entries, err := s.store.FigureLineage(p.Context, *stringArg(p.Args, "figure"), direction, depth)
	if err != nil {
		return nil, s.wrap(err)
	}
	return entries, nil
}

func (s *Server) resolveFields(p gql.ResolveParams) (interface{}, error) {
	fields, err := s.store.ListFields(p.Context)
	if err != nil {
		return nil, s.wrap(err)
	}
	return fields, nil
}

func (s *Server) resolveTimelineEvents(p gql.ResolveParams) (interface{}, error) {
	filter := &model.TimelineEventFilter{
		Category: stringArg(p.Args, "category"),
		Year:     intArg(p.Args, "year"),
		Title:    stringArg(p.Args, "title"),
		MinYear:  intArg(p.Args, "minYear"),
		MaxYear:  intArg(p.Args, "maxYear"),
	}
	if orderBy := stringArg(p.Args, "orderBy"); orderBy != nil {
		filter.OrderBy = *orderBy
	}

	page, err := s.store.ListTimelineEvents(p.Context, filter, pageArgs(p.Args))
	if err != nil {
		return nil, s.wrap(err)
	}
	return connection(page), nil
}

func (s *Server) resolveInfluences(p gql.ResolveParams) (interface{}, error) {
	influencer, err := uuidArg(p.Args, "influencerId")
	if err != nil {
		return nil, s.wrap(err)
	}
	influenced, err := uuidArg(p.Args, "influencedId")
	if err != nil {
		return nil, s.wrap(err)
	}

	filter := &model.InfluenceFilter{InfluencerID: influencer, InfluencedID: influenced}
	page, err := s.store.ListInfluences(p.Context, filter, pageArgs(p.Args))
	if err != nil {
		return nil, s.wrap(err)
	}
	return connection(page), nil
}

func (s *Server) resolveInfluenceFigure(endpoint func(*model.Influence) uuid.UUID) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (interface{}, error) {
		influence, ok := p.Source.(*model.Influence)
		if !ok {
			return nil, nil
		}

		figure, err := s.store.GetFigure(p.Context, endpoint(influence).String())
		if err != nil {
			return nil, s.wrap(err)
		}
		if figure == nil {
			return nil, nil
		}
		return figure, nil
	}
}

func (s *Server) resolveCreateFigure(p gql.ResolveParams) (interface{}, error) {
	args, _ := p.Args["input"].(map[string]interface{})

	input := &model.FigureInput{
		Name:                derefString(stringArg(args, "name")),
		Slug:                derefString(stringArg(args, "slug")),
		ExternalID:          derefString(stringArg(args, "externalId")),
		Summary:             derefString(stringArg(args, "summary")),
		NormalizedBirthYear: intArg(args, "normalizedBirthYear"),
		NormalizedDeathYear: intArg(args, "normalizedDeathYear"),
		InstanceOfIDs:       stringListArg(args, "instanceOfIds"),
	}

	var err error
	input.BirthDate, err = dateArg(args, "birthDate")
	if err != nil {
		return nil, s.wrap(err)
	}
	input.DeathDate, err = dateArg(args, "deathDate")
	if err != nil {
		return nil, s.wrap(err)
	}

	for _, value := range stringListArg(args, "fieldIds") {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, s.wrap(helper.NewValidationError("fieldIds", "%q is not a valid id", value))
		}
		input.FieldIDs = append(input.FieldIDs, id)
	}

	figure, err := s.store.CreateFigure(p.Context, input)
	if err != nil {
		return nil, s.wrap(err)
	}
	return figure, nil
}

func (s *Server) resolveCreateTimelineEvent(p gql.ResolveParams) (interface{}, error) {
	args, _ := p.Args["input"].(map[string]interface{})

	input := &model.TimelineEventInput{
		Title:       derefString(stringArg(args, "title")),
		Year:        intArg(args, "year"),
		Category:    derefString(stringArg(args, "category")),
		Description: derefString(stringArg(args, "description")),
	}

	event, err := s.store.CreateTimelineEvent(p.Context, input)
	if err != nil {
		return nil, s.wrap(err)
	}
	return event, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
