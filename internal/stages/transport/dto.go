package transport

import (
	"time"

	"github.com/google/uuid"
)

// StageOption is one entry of the ordered active-stage listing.
type StageOption struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// CreateStageRequest is the request body for creating a stage.
type CreateStageRequest struct {
	Key          string  `json:"key" validate:"required,min=1,max=50,lowercase"`
	Name         string  `json:"name" validate:"required,min=1,max=100"`
	DisplayOrder int     `json:"displayOrder" validate:"min=0"`
	NextStageKey *string `json:"nextStageKey,omitempty" validate:"omitempty,min=1,max=50"`
}

// UpdateStageRequest is the request body for a partial stage update.
// An empty NextStageKey clears the progression pointer.
type UpdateStageRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	DisplayOrder *int    `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
	NextStageKey *string `json:"nextStageKey,omitempty" validate:"omitempty,max=50"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// StageResponse is the response body for a stage.
type StageResponse struct {
	ID           uuid.UUID `json:"id"`
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"displayOrder"`
	NextStageKey *string   `json:"nextStageKey,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProgressionResponse maps each stage key to its successor key.
type ProgressionResponse struct {
	Progression map[string]string `json:"progression"`
}
