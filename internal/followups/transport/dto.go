// Package transport holds the request and response shapes of the follow-ups
// HTTP surface.
package transport

import (
	"time"

	"karpet_crm_backend/internal/followups/repository"

	"github.com/google/uuid"
)

// CreateFollowUpRequest creates a manually scheduled follow-up. The owning
// user comes from the authenticated caller, never from the payload.
type CreateFollowUpRequest struct {
	LeadID        uuid.UUID  `json:"lead_id" validate:"required"`
	StageKey      string     `json:"stage_key" validate:"required"`
	AttemptNumber *int       `json:"attempt_number,omitempty"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
}

// CompleteFollowUpRequest records the outcome of one contact attempt.
// AutoNext defaults to true; sending false suppresses any successor or
// escalation for this completion only.
type CompleteFollowUpRequest struct {
	HasResponse         bool    `json:"ada_respon"`
	ProgressToNextStage bool    `json:"progress_to_next_stage"`
	NextStageKey        *string `json:"next_stage_key,omitempty"`
	Notes               *string `json:"notes,omitempty"`
	Outcome             *string `json:"outcome,omitempty"`
	AutoNext            *bool   `json:"auto_next,omitempty"`
}

// AutoScheduleNext reports whether this completion may chain a successor.
func (r CompleteFollowUpRequest) AutoScheduleNext() bool {
	return r.AutoNext == nil || *r.AutoNext
}

// RescheduleRequest moves a scheduled follow-up to a new time.
type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// CompletionResult is what a completion returns: the finalized record, the
// auto-chained successor if one was created, and whether the lead went cold.
type CompletionResult struct {
	Record         repository.FollowUp
	Successor      *repository.FollowUp
	LeadMarkedCold bool
}

// AttemptResponse is one attempt slot on the wire.
type AttemptResponse struct {
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// FollowUpResponse is a follow-up record on the wire.
type FollowUpResponse struct {
	ID            uuid.UUID         `json:"id"`
	LeadID        uuid.UUID         `json:"lead_id"`
	UserID        uuid.UUID         `json:"user_id"`
	StageKey      string            `json:"stage_key"`
	AttemptCount  int               `json:"attempt_count"`
	Attempts      []AttemptResponse `json:"attempts"`
	ScheduledAt   time.Time         `json:"scheduled_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
	Outcome       *string           `json:"outcome,omitempty"`
	AdaRespon     bool              `json:"ada_respon"`
	AutoScheduled bool              `json:"auto_scheduled"`
	Status        string            `json:"status"`
	Version       int               `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ToFollowUpResponse maps a storage record to its wire shape.
func ToFollowUpResponse(f repository.FollowUp) FollowUpResponse {
	attempts := make([]AttemptResponse, 0, repository.MaxAttempts)
	for _, a := range f.Attempts {
		attempts = append(attempts, AttemptResponse{Completed: a.Completed, CompletedAt: a.CompletedAt})
	}
	return FollowUpResponse{
		ID:            f.ID,
		LeadID:        f.LeadID,
		UserID:        f.UserID,
		StageKey:      f.StageKey,
		AttemptCount:  f.AttemptCount,
		Attempts:      attempts,
		ScheduledAt:   f.ScheduledAt,
		CompletedAt:   f.CompletedAt,
		Notes:         f.Notes,
		Outcome:       f.Outcome,
		AdaRespon:     f.AdaRespon,
		AutoScheduled: f.AutoScheduled,
		Status:        string(f.Status),
		Version:       f.Version,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ToFollowUpResponses maps a slice of records.
func ToFollowUpResponses(items []repository.FollowUp) []FollowUpResponse {
	out := make([]FollowUpResponse, 0, len(items))
	for _, f := range items {
		out = append(out, ToFollowUpResponse(f))
	}
	return out
}

// CompletionResponse is the completion result on the wire.
type CompletionResponse struct {
	FollowUp       FollowUpResponse  `json:"follow_up"`
	Next           *FollowUpResponse `json:"next,omitempty"`
	LeadMarkedCold bool              `json:"lead_marked_cold"`
}

// StatisticsResponse is the aggregate report on the wire.
type StatisticsResponse struct {
	Total        int     `json:"total"`
	Completed    int     `json:"completed"`
	NoResponse   int     `json:"no_response"`
	Scheduled    int     `json:"scheduled"`
	Responded    int     `json:"responded"`
	ResponseRate float64 `json:"response_rate"`
}
