package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
)

// TimelineEvent is a dated occurrence. It is not linked to any figure.
type TimelineEvent struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks that title and category are present.
func (e *TimelineEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return helper.NewValidationError("title", "must not be empty")
	}
	if strings.TrimSpace(e.Category) == "" {
		return helper.NewValidationError("category", "must not be empty")
	}
	return ValidateYear("year", &e.Year)
}

// TimelineEventInput holds the attributes of a new event.
type TimelineEventInput struct {
	Title       string `json:"title"`
	Year        *int   `json:"year"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// TimelineEvent validates the input and converts it into a TimelineEvent.
func (in *TimelineEventInput) TimelineEvent() (*TimelineEvent, error) {
	if in.Year == nil {
		return nil, helper.NewValidationError("year", "is required")
	}

	event := &TimelineEvent{
		Title:       strings.TrimSpace(in.Title),
		Year:        *in.Year,
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// TimelineEventPatch holds a partial update. Nil fields are left unchanged.
type TimelineEventPatch struct {
	Title       *string `json:"title"`
	Year        *int    `json:"year"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
}

// Apply copies the set fields onto e and validates the result.
func (p *TimelineEventPatch) Apply(e *TimelineEvent) error {
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Year != nil {
		e.Year = *p.Year
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	return e.Validate()
}
