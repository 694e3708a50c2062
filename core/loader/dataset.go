package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/siherrmann/chronosatlas/helper"
	"gopkg.in/yaml.v3"
)

// Dataset is a complete set of fields, figures, events and influences that
// can be loaded in one run.
type Dataset struct {
	Fields     []FieldSpec     `yaml:"fields"`
	Figures    []FigureSpec    `yaml:"figures"`
	Events     []EventSpec     `yaml:"events"`
	Influences []InfluenceSpec `yaml:"influences"`
}

// FieldSpec describes a field. The slug is derived from the name when empty.
type FieldSpec struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug,omitempty"`
}

// FigureSpec describes a figure. Fields are referenced by name and created
// when missing. A nil Death marks a living figure.
type FigureSpec struct {
	Name       string   `yaml:"name"`
	Slug       string   `yaml:"slug,omitempty"`
	ExternalID string   `yaml:"external_id,omitempty"`
	Summary    string   `yaml:"summary,omitempty"`
	Birth      int      `yaml:"birth"`
	Death      *int     `yaml:"death,omitempty"`
	Fields     []string `yaml:"fields,omitempty"`
	InstanceOf []string `yaml:"instance_of,omitempty"`
}

// EventSpec describes a timeline event.
type EventSpec struct {
	Title       string `yaml:"title"`
	Year        int    `yaml:"year"`
	Category    string `yaml:"category"`
	Description string `yaml:"description,omitempty"`
}

// InfluenceSpec links two figures of the dataset by name or slug.
type InfluenceSpec struct {
	Influencer string `yaml:"influencer"`
	Influenced string `yaml:"influenced"`
}

// FigureSlug returns the configured slug or the one derived from the name.
func (f FigureSpec) FigureSlug() string {
	if f.Slug != "" {
		return f.Slug
	}
	return helper.Slugify(f.Name)
}

// FieldSlug returns the configured slug or the one derived from the name.
func (f FieldSpec) FieldSlug() string {
	if f.Slug != "" {
		return f.Slug
	}
	return helper.Slugify(f.Name)
}

// Validate checks the dataset without touching storage. Influences must name
// figures of the same dataset.
func (d *Dataset) Validate() error {
	known := map[string]bool{}
	for i, figure := range d.Figures {
		if strings.TrimSpace(figure.Name) == "" {
			return helper.NewValidationError("figures", "figure %d has no name", i+1)
		}
		if !helper.IsSlug(figure.FigureSlug()) {
			return helper.NewValidationError("figures", "figure %q has invalid slug %q", figure.Name, figure.FigureSlug())
		}
		if figure.Death != nil && figure.Birth > *figure.Death {
			return helper.NewValidationError("figures", "figure %q dies (%d) before birth (%d)", figure.Name, *figure.Death, figure.Birth)
		}
		known[figure.Name] = true
		known[figure.FigureSlug()] = true
	}

	for i, field := range d.Fields {
		if strings.TrimSpace(field.Name) == "" {
			return helper.NewValidationError("fields", "field %d has no name", i+1)
		}
	}

	for i, event := range d.Events {
		if strings.TrimSpace(event.Title) == "" || strings.TrimSpace(event.Category) == "" {
			return helper.NewValidationError("events", "event %d needs a title and a category", i+1)
		}
	}

	for _, influence := range d.Influences {
		for _, name := range []string{influence.Influencer, influence.Influenced} {
			if !known[name] {
				return helper.NewValidationError("influences", "unknown figure %q", name)
			}
		}
		if influence.Influencer == influence.Influenced {
			return helper.NewValidationError("influences", "figure %q cannot influence itself", influence.Influencer)
		}
	}

	return nil
}

// LoadFixture reads a YAML dataset from path.
func LoadFixture(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}

	var dataset Dataset
	if err := yaml.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("parsing fixture file: %w", err)
	}

	if err := dataset.Validate(); err != nil {
		return nil, err
	}

	return &dataset, nil
}

func yearPtr(year int) *int {
	return &year
}

// DefaultDataset returns the built-in demonstration dataset.
func DefaultDataset() *Dataset {
	return &Dataset{
		Fields: []FieldSpec{
			{Name: "Philosophy"},
			{Name: "Science"},
			{Name: "Art"},
			{Name: "Literature"},
			{Name: "Politics"},
			{Name: "Mathematics"},
			{Name: "Medicine"},
		},
		Figures: []FigureSpec{
			{
				Name:       "Plato",
				ExternalID: "Q859",
				Summary:    "Classical Greek philosopher.",
				Birth:      -428,
				Death:      yearPtr(-348),
				Fields:     []string{"Philosophy", "Mathematics"},
			},
			{
				Name:       "Aristotle",
				ExternalID: "Q868",
				Summary:    "Polymath and student of Plato.",
				Birth:      -384,
				Death:      yearPtr(-322),
				Fields:     []string{"Philosophy", "Science", "Politics", "Medicine"},
			},
			{
				Name:       "Leonardo da Vinci",
				ExternalID: "Q762",
				Summary:    "Renaissance polymath, painter, sculptor, architect, musician, scientist.",
				Birth:      1452,
				Death:      yearPtr(1519),
				Fields:     []string{"Art", "Science", "Mathematics"},
			},
			{
				Name:       "William Shakespeare",
				ExternalID: "Q692",
				Summary:    "English poet, playwright, and actor.",
				Birth:      1564,
				Death:      yearPtr(1616),
				Fields:     []string{"Literature", "Art"},
			},
			{
				Name:       "Marie Curie",
				ExternalID: "Q7186",
				Summary:    "Pioneering physicist and chemist, first woman to win a Nobel Prize.",
				Birth:      1867,
				Death:      yearPtr(1934),
				Fields:     []string{"Science", "Medicine"},
			},
			{
				Name:       "Albert Einstein",
				ExternalID: "Q937",
				Summary:    "Theoretical physicist who developed the theory of relativity.",
				Birth:      1879,
				Death:      yearPtr(1955),
				Fields:     []string{"Science", "Mathematics", "Philosophy"},
			},
			{
				Name:       "Ada Lovelace",
				ExternalID: "Q7259",
				Summary:    "English mathematician and writer, often regarded as the first computer programmer.",
				Birth:      1815,
				Death:      yearPtr(1852),
				Fields:     []string{"Mathematics", "Science"},
			},
			{
				Name:       "Noam Chomsky",
				ExternalID: "Q9049",
				Summary:    "American linguist, philosopher, and political activist.",
				Birth:      1928,
				Fields:     []string{"Linguistics", "Philosophy", "Politics"},
			},
		},
		Events: []EventSpec{
			{
				Title:       "Plato's Academy founded",
				Year:        -387,
				Category:    "Education",
				Description: "The founding of Plato's Academy marked a critical moment for Western philosophy.",
			},
			{
				Title:       "Aristotle teaches Alexander the Great",
				Year:        -343,
				Category:    "Politics",
				Description: "Aristotle mentored the future conqueror, influencing his views on governance and science.",
			},
			{
				Title:       "Gutenberg Bible printed",
				Year:        1455,
				Category:    "Technology",
				Description: "The start of the printing revolution, rapidly spreading knowledge across Europe.",
			},
			{
				Title:       "Da Vinci paints Mona Lisa",
				Year:        1503,
				Category:    "Art",
				Description: "One of the world's most recognizable artworks is completed.",
			},
			{
				Title:       "Shakespeare's First Folio published",
				Year:        1623,
				Category:    "Literature",
				Description: "Collection of 36 of Shakespeare's plays, saving many from obscurity.",
			},
			{
				Title:       "Curie wins first Nobel Prize",
				Year:        1903,
				Category:    "Science",
				Description: "Marie Curie and her husband Pierre win the Nobel Prize in Physics for their work on radioactivity.",
			},
			{
				Title:       "Einstein publishes General Relativity",
				Year:        1915,
				Category:    "Science",
				Description: "Albert Einstein publishes his groundbreaking theory of General Relativity.",
			},
		},
		Influences: []InfluenceSpec{
			{Influencer: "Plato", Influenced: "Aristotle"},
			{Influencer: "Aristotle", Influenced: "Leonardo da Vinci"},
			{Influencer: "Leonardo da Vinci", Influenced: "Marie Curie"},
			{Influencer: "Plato", Influenced: "Albert Einstein"},
			{Influencer: "Marie Curie", Influenced: "Albert Einstein"},
			{Influencer: "Aristotle", Influenced: "William Shakespeare"},
			{Influencer: "Ada Lovelace", Influenced: "Albert Einstein"},
			{Influencer: "Plato", Influenced: "Noam Chomsky"},
		},
	}
}
