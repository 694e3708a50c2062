package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
)

// Field represents a field of endeavor such as Philosophy or Science
type Field struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
}

// FieldInput holds the attributes of a new field. The slug is derived from
// the name when empty.
type FieldInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Field validates the input and converts it into a Field.
func (in *FieldInput) Field() (*Field, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, helper.NewValidationError("name", "must not be empty")
	}

	slug := in.Slug
	if slug == "" {
		slug = helper.Slugify(name)
	}
	if !helper.IsSlug(slug) {
		return nil, helper.NewValidationError("slug", "%q is not a valid slug", slug)
	}

	return &Field{
		Name:        name,
		Slug:        slug,
		Description: in.Description,
	}, nil
}
