package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFigureInput() *FigureInput {
	return &FigureInput{
		Name:                "Albert Einstein",
		Slug:                "albert-einstein",
		ExternalID:          "Q937",
		NormalizedBirthYear: intPtr(1879),
		NormalizedDeathYear: intPtr(1955),
	}
}

func TestFigureInput(t *testing.T) {
	t.Run("Valid input converts to a figure", func(t *testing.T) {
		figure, err := validFigureInput().Figure()
		require.NoError(t, err)
		assert.Equal(t, "Albert Einstein", figure.Name)
		require.NotNil(t, figure.ExternalID)
		assert.Equal(t, "Q937", *figure.ExternalID)
		assert.Equal(t, 1879, figure.NormalizedBirthYear)
		assert.Equal(t, 1955, *figure.NormalizedDeathYear)
		assert.NotNil(t, figure.InstanceOfIDs, "Expected instance ids to default to an empty list")
	})

	invalid := []struct {
		name   string
		mutate func(in *FigureInput)
		field  string
	}{
		{"Missing name", func(in *FigureInput) { in.Name = "  " }, "name"},
		{"Bad slug", func(in *FigureInput) { in.Slug = "Albert Einstein" }, "slug"},
		{"Missing external id", func(in *FigureInput) { in.ExternalID = "" }, "externalId"},
		{"Missing birth year", func(in *FigureInput) { in.NormalizedBirthYear = nil }, "normalizedBirthYear"},
		{"Missing death year", func(in *FigureInput) { in.NormalizedDeathYear = nil }, "normalizedDeathYear"},
		{"Birth after death", func(in *FigureInput) { in.NormalizedDeathYear = intPtr(1800) }, "normalizedDeathYear"},
		{"Blank instance id", func(in *FigureInput) { in.InstanceOfIDs = []string{"Q5", " "} }, "instanceOfIds"},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			in := validFigureInput()
			tc.mutate(in)

			_, err := in.Figure()
			var validation *helper.ValidationError
			require.True(t, errors.As(err, &validation), "Expected a ValidationError")
			assert.Equal(t, tc.field, validation.Field)
		})
	}
}

func TestFigurePatch(t *testing.T) {
	figure, err := validFigureInput().Figure()
	require.NoError(t, err)

	t.Run("Unset fields are left unchanged", func(t *testing.T) {
		summary := "Physicist"
		err := (&FigurePatch{Summary: &summary}).Apply(figure)
		require.NoError(t, err)
		assert.Equal(t, "Physicist", figure.Summary)
		assert.Equal(t, "Albert Einstein", figure.Name)
	})

	t.Run("Patch producing birth after death is rejected", func(t *testing.T) {
		err := (&FigurePatch{NormalizedBirthYear: intPtr(2000)}).Apply(figure)
		assert.Error(t, err)
	})

	t.Run("Clear flags reset optional attributes", func(t *testing.T) {
		dated, err := validFigureInput().Figure()
		require.NoError(t, err)
		birth := NewDate(1879, time.March, 14)
		death := NewDate(1955, time.April, 18)
		dated.BirthDate = &birth
		dated.DeathDate = &death

		err = (&FigurePatch{ClearBirthDate: true, ClearDeathDate: true, ClearNormalizedDeathYear: true}).Apply(dated)
		require.NoError(t, err)
		assert.Nil(t, dated.BirthDate)
		assert.Nil(t, dated.DeathDate)
		assert.Nil(t, dated.NormalizedDeathYear)
		assert.True(t, dated.IsLiving(), "Expected the figure to be living after clearing its death year")
		assert.Equal(t, 1879, dated.NormalizedBirthYear)
	})

	t.Run("Clear flags decode from JSON", func(t *testing.T) {
		patch := FigurePatch{}
		require.NoError(t, json.Unmarshal([]byte(`{"clear_normalized_death_year":true,"clear_birth_date":true}`), &patch))
		assert.True(t, patch.ClearNormalizedDeathYear)
		assert.True(t, patch.ClearBirthDate)
		assert.False(t, patch.ClearDeathDate)
	})

	t.Run("Setting and clearing the same attribute is rejected", func(t *testing.T) {
		target, err := validFigureInput().Figure()
		require.NoError(t, err)

		err = (&FigurePatch{NormalizedDeathYear: intPtr(1960), ClearNormalizedDeathYear: true}).Apply(target)
		var validation *helper.ValidationError
		require.True(t, errors.As(err, &validation), "Expected a validation error, got %v", err)
		assert.Equal(t, "normalizedDeathYear", validation.Field)
		require.NotNil(t, target.NormalizedDeathYear, "Expected a rejected patch to leave the figure unchanged")
		assert.Equal(t, 1955, *target.NormalizedDeathYear)
	})
}

func TestFigureJSON(t *testing.T) {
	birth := NewDate(1879, time.March, 14)
	figure := &Figure{
		ID:                  uuid.New(),
		Name:                "Albert Einstein",
		Slug:                "albert-einstein",
		BirthDate:           &birth,
		NormalizedBirthYear: 1879,
	}

	b, err := json.Marshal(figure)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"birth_date":"1879-03-14"`)
	assert.Contains(t, string(b), `"normalized_death_year":null`)

	var decoded Figure
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.NotNil(t, decoded.BirthDate)
	assert.Equal(t, "1879-03-14", decoded.BirthDate.String())
	assert.True(t, decoded.IsLiving())
}

func TestDate(t *testing.T) {
	t.Run("Scan a database time", func(t *testing.T) {
		var d Date
		err := d.Scan(time.Date(1867, time.November, 7, 0, 0, 0, 0, time.FixedZone("x", 3600)))
		require.NoError(t, err)
		assert.Equal(t, "1867-11-07", d.String())
	})

	t.Run("Scan a string", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan("1934-07-04"))
		assert.Equal(t, 1934, d.Year())
	})

	t.Run("Scan an unsupported type", func(t *testing.T) {
		var d Date
		assert.Error(t, d.Scan(42))
	})

	t.Run("Value is an ISO date", func(t *testing.T) {
		v, err := NewDate(1815, time.December, 10).Value()
		require.NoError(t, err)
		assert.Equal(t, "1815-12-10", v)
	})

	t.Run("Invalid JSON date", func(t *testing.T) {
		var d Date
		assert.Error(t, json.Unmarshal([]byte(`"10/12/1815"`), &d))
	})
}

func TestFieldInput(t *testing.T) {
	field, err := (&FieldInput{Name: " Political Science "}).Field()
	require.NoError(t, err)
	assert.Equal(t, "Political Science", field.Name)
	assert.Equal(t, "political-science", field.Slug)

	_, err = (&FieldInput{Name: ""}).Field()
	assert.Error(t, err)

	_, err = (&FieldInput{Name: "Art", Slug: "Bad Slug"}).Field()
	assert.Error(t, err)
}

func TestTimelineEventInput(t *testing.T) {
	event, err := (&TimelineEventInput{Title: "Gutenberg Bible printed", Year: intPtr(1455), Category: "Technology"}).TimelineEvent()
	require.NoError(t, err)
	assert.Equal(t, 1455, event.Year)

	_, err = (&TimelineEventInput{Title: "No year", Category: "Art"}).TimelineEvent()
	assert.Error(t, err)

	_, err = (&TimelineEventInput{Title: "", Year: intPtr(1), Category: "Art"}).TimelineEvent()
	assert.Error(t, err)

	_, err = (&TimelineEventInput{Title: "No category", Year: intPtr(1)}).TimelineEvent()
	assert.Error(t, err)
}

func TestInfluenceInputValidate(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.NoError(t, (&InfluenceInput{InfluencerID: a, InfluencedID: b}).Validate())
	assert.Error(t, (&InfluenceInput{InfluencerID: a, InfluencedID: a}).Validate(), "Expected self-influence to be rejected")
	assert.Error(t, (&InfluenceInput{InfluencedID: b}).Validate())
	assert.Error(t, (&InfluenceInput{InfluencerID: a}).Validate())
}
