package domain

import (
	"context"
	"time"
)

// ModificationFilter narrows an audit-log query. Zero fields match everything.
type ModificationFilter struct {
	SessionID string
	VariantID string
	Category  Category
	Status    ValidationStatus
	Since     time.Time
}

// Match reports whether the record satisfies the filter.
func (f ModificationFilter) Match(rec AuditRecord) bool {
	if f.SessionID != "" && rec.SessionID != f.SessionID {
		return false
	}
	if f.VariantID != "" && rec.VariantID != f.VariantID {
		return false
	}
	if f.Category != "" && rec.Result.Category != f.Category {
		return false
	}
	if f.Status != "" && rec.Result.ValidationStatus != f.Status {
		return false
	}
	if !f.Since.IsZero() && rec.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// AuditStore durably persists session histories.
type AuditStore interface {
	// SaveSession upserts the snapshot, replacing any earlier copy of the session.
	SaveSession(ctx context.Context, snapshot SessionSnapshot) error
	// LoadSession returns ErrSessionNotFound when the id is unknown.
	LoadSession(ctx context.Context, sessionID string) (SessionSnapshot, error)
	// ListSessions returns stored sessions ordered by start time.
	ListSessions(ctx context.Context) ([]Session, error)
	// Modifications returns matching audit records ordered by timestamp then variant id.
	Modifications(ctx context.Context, filter ModificationFilter) ([]AuditRecord, error)
	Close() error
}
