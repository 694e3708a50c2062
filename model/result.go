package model

import "github.com/google/uuid"

// LineageDirection selects which way influence edges are followed
type LineageDirection string

const (
	LineageInfluencers LineageDirection = "influencers" // upstream: who shaped the figure
	LineageInfluenced  LineageDirection = "influenced"  // downstream: whom the figure shaped
)

const (
	DefaultLineageDepth = 3
	MaxLineageDepth     = 10
)

// LineageEntry is a figure reached while walking influence edges
type LineageEntry struct {
	Figure   *Figure     `json:"figure"`
	Distance int         `json:"distance"` // Number of influence edges from the source
	Path     []uuid.UUID `json:"path"`     // Figure ids from the source to this figure
}

// IndexReport is the outcome of checking a query plan for the lifespan index
type IndexReport struct {
	Index     string `json:"index"`
	Query     string `json:"query"`
	Plan      string `json:"plan"`
	UsesIndex bool   `json:"uses_index"`
}

// ImportReport summarizes a CSV import
type ImportReport struct {
	Rows     int `json:"rows"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"` // Rows whose slug was already taken
}

// SeedReport summarizes a dataset load
type SeedReport struct {
	Cleared    bool `json:"cleared"`
	Fields     int  `json:"fields"`
	Figures    int  `json:"figures"`
	Events     int  `json:"events"`
	Influences int  `json:"influences"`
}
