package api

import (
	"encoding/json"
	"time"

	"purchase-verdict/internal/engine"
	"purchase-verdict/internal/store"
)

// EvaluateRequest is the candidate purchase submitted for a verdict.
type EvaluateRequest struct {
	UserID        uint     `json:"user_id" binding:"required"`
	Title         string   `json:"title" binding:"required"`
	Price         *float64 `json:"price" binding:"omitempty,gte=0"`
	Category      string   `json:"category"`
	Vendor        string   `json:"vendor"`
	Justification string   `json:"justification"`
	IsImportant   bool     `json:"is_important"`
}

// PurchaseInput converts the request into the immutable evaluation input.
func (r EvaluateRequest) PurchaseInput() engine.PurchaseInput {
	return engine.PurchaseInput{
		Title:         r.Title,
		Price:         r.Price,
		Category:      r.Category,
		Vendor:        r.Vendor,
		Justification: r.Justification,
		IsImportant:   r.IsImportant,
	}
}

// UserRequest creates or updates a user profile keyed by email.
type UserRequest struct {
	Email        string                   `json:"email" binding:"required,email"`
	DisplayName  string                   `json:"display_name"`
	WeeklyBudget *float64                 `json:"weekly_budget" binding:"omitempty,gte=0"`
	CoreValues   []string                 `json:"core_values"`
	Onboarding   []store.OnboardingAnswer `json:"onboarding"`
}

// FeedbackRequest records a regret signal for a past purchase.
type FeedbackRequest struct {
	UserID     uint   `json:"user_id" binding:"required"`
	PurchaseID uint   `json:"purchase_id" binding:"required"`
	Label      string `json:"label" binding:"required,oneof=regret unsure satisfied"`
	Checkpoint string `json:"checkpoint"`
}

// VerdictDTO is the API representation of a persisted verdict.
type VerdictDTO struct {
	ID            string           `json:"id"`
	UserID        uint             `json:"user_id"`
	Title         string           `json:"title"`
	Price         *float64         `json:"price,omitempty"`
	Category      string           `json:"category,omitempty"`
	Vendor        string           `json:"vendor,omitempty"`
	Justification string           `json:"justification,omitempty"`
	IsImportant   bool             `json:"is_important"`
	Outcome       string           `json:"outcome"`
	Confidence    float64          `json:"confidence"`
	Algorithm     string           `json:"algorithm"`
	Reasoning     engine.Reasoning `json:"reasoning"`
	HoldReleaseAt *time.Time       `json:"hold_release_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// VerdictsResponse is the paginated listing payload.
type VerdictsResponse struct {
	Items []VerdictDTO `json:"items"`
	Total int64        `json:"total"`
}

// FromModel converts a store.Verdict into the DTO representation.
func FromModel(v store.Verdict) VerdictDTO {
	var reasoning engine.Reasoning
	_ = json.Unmarshal([]byte(v.ReasoningJSON), &reasoning)
	return VerdictDTO{
		ID:            v.PublicID,
		UserID:        v.UserID,
		Title:         v.Title,
		Price:         v.Price,
		Category:      v.Category,
		Vendor:        v.Vendor,
		Justification: v.Justification,
		IsImportant:   v.IsImportant,
		Outcome:       v.Outcome,
		Confidence:    round2(v.Confidence),
		Algorithm:     v.Algorithm,
		Reasoning:     reasoning,
		HoldReleaseAt: v.HoldReleaseAt,
		CreatedAt:     v.CreatedAt,
	}
}

func round2(value float64) float64 {
	return float64(int(value*100+0.5)) / 100
}
