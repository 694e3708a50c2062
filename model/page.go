package model

import "github.com/siherrmann/chronosatlas/helper"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest asks for First rows after the opaque cursor After.
type PageRequest struct {
	First *int
	After string
}

// Limit returns the page size, DefaultPageSize when First is unset.
func (p PageRequest) Limit() (int, error) {
	if p.First == nil {
		return DefaultPageSize, nil
	}
	if *p.First <= 0 || *p.First > MaxPageSize {
		return 0, helper.NewValidationError("first", "must be between 1 and %d (got %d)", MaxPageSize, *p.First)
	}
	return *p.First, nil
}

// Page is one slice of a keyset-paginated result.
type Page[T any] struct {
	Items     []T    `json:"items"`
	HasMore   bool   `json:"has_more"`
	EndCursor string `json:"end_cursor,omitempty"`
}
