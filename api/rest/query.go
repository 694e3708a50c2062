package rest

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

func queryString(c *gin.Context, name string) *string {
	value, ok := c.GetQuery(name)
	if !ok || value == "" {
		return nil
	}
	return &value
}

func queryInt(c *gin.Context, name string) (*int, error) {
	value := queryString(c, name)
	if value == nil {
		return nil, nil
	}
	parsed, err := strconv.Atoi(*value)
	if err != nil {
		return nil, helper.NewValidationError(name, "%q is not an integer", *value)
	}
	return &parsed, nil
}

type intParam struct {
	name   string
	target **int
}

func queryInts(c *gin.Context, params []intParam) error {
	for _, param := range params {
		value, err := queryInt(c, param.name)
		if err != nil {
			return err
		}
		*param.target = value
	}
	return nil
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	value := queryString(c, name)
	if value == nil {
		return nil, nil
	}
	parsed, err := uuid.Parse(*value)
	if err != nil {
		return nil, helper.NewValidationError(name, "%q is not a valid id", *value)
	}
	return &parsed, nil
}

func pageRequest(c *gin.Context) (model.PageRequest, error) {
	first, err := queryInt(c, "first")
	if err != nil {
		return model.PageRequest{}, err
	}
	return model.PageRequest{First: first, After: c.Query("after")}, nil
}

func pathUUID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, helper.ErrNotFound
	}
	return id, nil
}

func bindJSON(c *gin.Context, target interface{}) error {
	if err := c.ShouldBindJSON(target); err != nil {
		return helper.NewValidationError("body", "%v", err)
	}
	return nil
}

func figureFilter(c *gin.Context) (*model.FigureFilter, error) {
	filter := &model.FigureFilter{
		Slug:       queryString(c, "slug"),
		ExternalID: queryString(c, "externalId"),
		Name:       queryString(c, "name"),
		Field:      queryString(c, "field"),
		OrderBy:    c.Query("orderBy"),
	}

	err := queryInts(c, []intParam{
		{"minYear", &filter.MinYear},
		{"maxYear", &filter.MaxYear},
		{"minBirthYear", &filter.MinBirthYear},
		{"maxBirthYear", &filter.MaxBirthYear},
	})
	if err != nil {
		return nil, err
	}

	return filter, nil
}

func timelineEventFilter(c *gin.Context) (*model.TimelineEventFilter, error) {
	filter := &model.TimelineEventFilter{
		Category: queryString(c, "category"),
		Title:    queryString(c, "title"),
		OrderBy:  c.Query("orderBy"),
	}

	err := queryInts(c, []intParam{
		{"year", &filter.Year},
		{"minYear", &filter.MinYear},
		{"maxYear", &filter.MaxYear},
	})
	if err != nil {
		return nil, err
	}

	return filter, nil
}

func influenceFilter(c *gin.Context) (*model.InfluenceFilter, error) {
	influencer, err := queryUUID(c, "influencerId")
	if err != nil {
		return nil, err
	}
	influenced, err := queryUUID(c, "influencedId")
	if err != nil {
		return nil, err
	}
	return &model.InfluenceFilter{InfluencerID: influencer, InfluencedID: influenced}, nil
}
