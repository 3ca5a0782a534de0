package tracker

import (
	"context"
	"fmt"

	"variantcore/pkg/domain"
)

// Persist saves the active session and its variants to store.
func (t *Tracker) Persist(ctx context.Context, store domain.AuditStore) error {
	if t.session == nil {
		return domain.ErrNoActiveSession
	}
	if err := store.SaveSession(ctx, t.snapshot()); err != nil {
		return fmt.Errorf("persist session %s: %w", t.session.ID, err)
	}
	t.log.Debug("session persisted", "session", t.session.ID, "records", len(t.session.Records))
	return nil
}

// Restore makes a stored snapshot the active session, archiving the current
// one. Further variants may be added to the restored session. The restored
// records count toward ModificationCount.
func (t *Tracker) Restore(snap domain.SessionSnapshot) error {
	if snap.Session.ID == "" {
		return fmt.Errorf("restore: session id required")
	}
	if t.session != nil {
		t.archiveActive()
	}
	s := copySession(snap.Session)
	s.EndedAt = nil
	t.session = &s
	t.total += len(s.Records)
	t.variants = make(map[string]*domain.Variant, len(snap.Variants))
	t.order = nil
	for _, v := range snap.Variants {
		cp := copyVariant(v)
		t.variants[v.ID] = &cp
		t.order = append(t.order, v.ID)
	}
	return nil
}
