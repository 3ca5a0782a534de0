package domain

import "time"

// VariantStatus is the lifecycle state of a generated variant.
type VariantStatus string

// Variant lifecycle states. Completed and failed are terminal.
const (
	VariantInProgress VariantStatus = "in_progress"
	VariantCompleted  VariantStatus = "completed"
	VariantFailed     VariantStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s VariantStatus) Terminal() bool {
	return s == VariantCompleted || s == VariantFailed
}

// AuditRecord is one tracked modification stamped with its audit context.
type AuditRecord struct {
	Timestamp time.Time          `json:"timestamp"`
	SessionID string             `json:"session_id"`
	VariantID string             `json:"variant_id"`
	Result    ModificationResult `json:"result"`
}

// Session is one mutation campaign over a single base model.
type Session struct {
	ID           string        `json:"id"`
	BuildingID   string        `json:"building_id,omitempty"`
	BaseModelRef string        `json:"base_model_ref,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	Records      []AuditRecord `json:"records"`
}

// Ended reports whether the session has been archived.
func (s Session) Ended() bool { return s.EndedAt != nil }

// Variant is one generated alternative of the base model.
type Variant struct {
	ID                 string        `json:"id"`
	SessionID          string        `json:"session_id"`
	Status             VariantStatus `json:"status"`
	StartedAt          time.Time     `json:"started_at"`
	EndedAt            *time.Time    `json:"ended_at,omitempty"`
	Records            []AuditRecord `json:"records"`
	OutputRef          string        `json:"output_ref,omitempty"`
	Error              string        `json:"error,omitempty"`
	TotalModifications int           `json:"total_modifications"`
	Successful         int           `json:"successful_modifications"`
}

// Results returns the variant's modification results in recorded order.
func (v Variant) Results() []ModificationResult {
	out := make([]ModificationResult, len(v.Records))
	for i, rec := range v.Records {
		out[i] = rec.Result
	}
	return out
}

// SessionSnapshot is the persisted form of a session and its variants.
type SessionSnapshot struct {
	Session  Session   `json:"session"`
	Variants []Variant `json:"variants"`
}
