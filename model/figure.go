package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
)

// Figure represents a historical person
type Figure struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	ExternalID          *string   `json:"external_id"`
	Summary             string    `json:"summary"`
	BirthDate           *Date     `json:"birth_date"`
	DeathDate           *Date     `json:"death_date"`
	NormalizedBirthYear int       `json:"normalized_birth_year"`
	NormalizedDeathYear *int      `json:"normalized_death_year"`
	InstanceOfIDs       []string  `json:"instance_of_ids"`
	Fields              []*Field  `json:"fields"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Lifespan returns the normalized [birth, death] interval.
func (f *Figure) Lifespan() Lifespan {
	return Lifespan{Birth: f.NormalizedBirthYear, Death: f.NormalizedDeathYear}
}

// IsLiving reports whether the figure has no recorded death year.
func (f *Figure) IsLiving() bool {
	return f.NormalizedDeathYear == nil
}

// Validate checks the invariants shared by every write path.
func (f *Figure) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return helper.NewValidationError("name", "must not be empty")
	}
	if !helper.IsSlug(f.Slug) {
		return helper.NewValidationError("slug", "%q is not a valid slug", f.Slug)
	}
	if f.ExternalID != nil && strings.TrimSpace(*f.ExternalID) == "" {
		return helper.NewValidationError("externalId", "must not be blank")
	}
	if err := f.Lifespan().Validate(); err != nil {
		return err
	}
	if err := validateDate("birthDate", f.BirthDate); err != nil {
		return err
	}
	if err := validateDate("deathDate", f.DeathDate); err != nil {
		return err
	}
	if f.BirthDate != nil && f.DeathDate != nil && f.DeathDate.Before(f.BirthDate.Time) {
		return helper.NewValidationError("deathDate", "must not be before birthDate")
	}
	for _, id := range f.InstanceOfIDs {
		if strings.TrimSpace(id) == "" {
			return helper.NewValidationError("instanceOfIds", "must not contain blank ids")
		}
	}
	return nil
}

func validateDate(field string, d *Date) error {
	if d != nil && d.Year() < 1 {
		return helper.NewValidationError(field, "only Common Era dates are supported, use the normalized year instead")
	}
	return nil
}

// FigureInput holds the attributes of a new figure.
type FigureInput struct {
	Name                string      `json:"name"`
	Slug                string      `json:"slug"`
	ExternalID          string      `json:"external_id"`
	Summary             string      `json:"summary"`
	BirthDate           *Date       `json:"birth_date"`
	DeathDate           *Date       `json:"death_date"`
	NormalizedBirthYear *int        `json:"normalized_birth_year"`
	NormalizedDeathYear *int        `json:"normalized_death_year"`
	InstanceOfIDs       []string    `json:"instance_of_ids"`
	FieldIDs            []uuid.UUID `json:"field_ids"`
}

// Figure validates the input and converts it into a Figure.
// Name, slug, external id and both normalized years are required.
func (in *FigureInput) Figure() (*Figure, error) {
	if strings.TrimSpace(in.ExternalID) == "" {
		return nil, helper.NewValidationError("externalId", "is required")
	}
	if in.NormalizedBirthYear == nil {
		return nil, helper.NewValidationError("normalizedBirthYear", "is required")
	}
	if in.NormalizedDeathYear == nil {
		return nil, helper.NewValidationError("normalizedDeathYear", "is required")
	}

	externalID := strings.TrimSpace(in.ExternalID)
	deathYear := *in.NormalizedDeathYear
	figure := &Figure{
		Name:                strings.TrimSpace(in.Name),
		Slug:                in.Slug,
		ExternalID:          &externalID,
		Summary:             in.Summary,
		BirthDate:           in.BirthDate,
		DeathDate:           in.DeathDate,
		NormalizedBirthYear: *in.NormalizedBirthYear,
		NormalizedDeathYear: &deathYear,
		InstanceOfIDs:       in.InstanceOfIDs,
	}
	if figure.InstanceOfIDs == nil {
		figure.InstanceOfIDs = []string{}
	}

	if err := figure.Validate(); err != nil {
		return nil, err
	}
	return figure, nil
}

// FigurePatch holds a partial update. Nil fields are left unchanged.
// A nil pointer cannot reset an optional attribute, so the Clear flags set
// the normalized death year (making the figure living) or a date back to null.
type FigurePatch struct {
	Name                     *string      `json:"name"`
	Slug                     *string      `json:"slug"`
	ExternalID               *string      `json:"external_id"`
	Summary                  *string      `json:"summary"`
	BirthDate                *Date        `json:"birth_date"`
	DeathDate                *Date        `json:"death_date"`
	NormalizedBirthYear      *int         `json:"normalized_birth_year"`
	NormalizedDeathYear      *int         `json:"normalized_death_year"`
	InstanceOfIDs            *[]string    `json:"instance_of_ids"`
	FieldIDs                 *[]uuid.UUID `json:"field_ids"`
	ClearBirthDate           bool         `json:"clear_birth_date"`
	ClearDeathDate           bool         `json:"clear_death_date"`
	ClearNormalizedDeathYear bool         `json:"clear_normalized_death_year"`
}

func (p *FigurePatch) validateClears() error {
	if p.ClearBirthDate && p.BirthDate != nil {
		return helper.NewValidationError("birthDate", "cannot be set and cleared at once")
	}
	if p.ClearDeathDate && p.DeathDate != nil {
		return helper.NewValidationError("deathDate", "cannot be set and cleared at once")
	}
	if p.ClearNormalizedDeathYear && p.NormalizedDeathYear != nil {
		return helper.NewValidationError("normalizedDeathYear", "cannot be set and cleared at once")
	}
	return nil
}

// Apply copies the set fields onto f and validates the result.
func (p *FigurePatch) Apply(f *Figure) error {
	if err := p.validateClears(); err != nil {
		return err
	}

	if p.Name != nil {
		f.Name = strings.TrimSpace(*p.Name)
	}
	if p.Slug != nil {
		f.Slug = *p.Slug
	}
	if p.ExternalID != nil {
		externalID := strings.TrimSpace(*p.ExternalID)
		f.ExternalID = &externalID
	}
	if p.Summary != nil {
		f.Summary = *p.Summary
	}
	if p.BirthDate != nil {
		f.BirthDate = p.BirthDate
	}
	if p.DeathDate != nil {
		f.DeathDate = p.DeathDate
	}
	if p.NormalizedBirthYear != nil {
		f.NormalizedBirthYear = *p.NormalizedBirthYear
	}
	if p.NormalizedDeathYear != nil {
		deathYear := *p.NormalizedDeathYear
		f.NormalizedDeathYear = &deathYear
	}
	if p.InstanceOfIDs != nil {
		f.InstanceOfIDs = *p.InstanceOfIDs
	}
	if p.ClearBirthDate {
		f.BirthDate = nil
	}
	if p.ClearDeathDate {
		f.DeathDate = nil
	}
	if p.ClearNormalizedDeathYear {
		f.NormalizedDeathYear = nil
	}
	return f.Validate()
}
