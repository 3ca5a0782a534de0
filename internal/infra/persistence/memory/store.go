// Package memory provides a process-local audit store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"variantcore/pkg/domain"
)

var _ domain.AuditStore = (*Store)(nil)

// Store keeps deep copies of saved snapshots. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string][]byte)}
}

// SaveSession stores an encoded copy so later caller mutations do not leak in.
func (s *Store) SaveSession(_ context.Context, snap domain.SessionSnapshot) error {
	if snap.Session.ID == "" {
		return fmt.Errorf("session id required")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", snap.Session.ID, err)
	}
	s.mu.Lock()
	s.sessions[snap.Session.ID] = payload
	s.mu.Unlock()
	return nil
}

func (s *Store) decode(id string) (domain.SessionSnapshot, bool, error) {
	s.mu.RLock()
	payload, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domain.SessionSnapshot{}, false, nil
	}
	var snap domain.SessionSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.SessionSnapshot{}, true, fmt.Errorf("decode session %s: %w", id, err)
	}
	return snap, true, nil
}

// LoadSession returns the stored snapshot.
func (s *Store) LoadSession(_ context.Context, sessionID string) (domain.SessionSnapshot, error) {
	snap, ok, err := s.decode(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if !ok {
		return domain.SessionSnapshot{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return snap, nil
}

func (s *Store) ids() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ListSessions returns sessions ordered by start time then id, without records.
func (s *Store) ListSessions(_ context.Context) ([]domain.Session, error) {
	var out []domain.Session
	for _, id := range s.ids() {
		snap, ok, err := s.decode(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		snap.Session.Records = nil
		out = append(out, snap.Session)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// Modifications scans every stored session.
func (s *Store) Modifications(_ context.Context, filter domain.ModificationFilter) ([]domain.AuditRecord, error) {
	var out []domain.AuditRecord
	for _, id := range s.ids() {
		if filter.SessionID != "" && id != filter.SessionID {
			continue
		}
		snap, ok, err := s.decode(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, rec := range snap.Session.Records {
			if filter.Match(rec) {
				out = append(out, rec)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].VariantID < out[j].VariantID
	})
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
