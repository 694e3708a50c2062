package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
)

// Influence is a directed edge: the influencer shaped the influenced figure.
type Influence struct {
	ID           uuid.UUID `json:"id"`
	InfluencerID uuid.UUID `json:"influencer_id"`
	InfluencedID uuid.UUID `json:"influenced_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// InfluenceInput holds both endpoints of an influence.
type InfluenceInput struct {
	InfluencerID uuid.UUID `json:"influencer_id"`
	InfluencedID uuid.UUID `json:"influenced_id"`
}

// Validate rejects missing endpoints and self-influence.
func (in *InfluenceInput) Validate() error {
	if in.InfluencerID == uuid.Nil {
		return helper.NewValidationError("influencer", "is required")
	}
	if in.InfluencedID == uuid.Nil {
		return helper.NewValidationError("influenced", "is required")
	}
	if in.InfluencerID == in.InfluencedID {
		return helper.NewValidationError("influenced", "a figure cannot influence itself")
	}
	return nil
}
