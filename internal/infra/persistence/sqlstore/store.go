// Package sqlstore implements domain.AuditStore on database/sql. The sqlite
// and postgres drivers supply a Dialect; the table layout is shared.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"variantcore/pkg/domain"
)

var _ domain.AuditStore = (*Store)(nil)

// Dialect captures the SQL differences between drivers.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Schema holds the statements creating the sessions and modifications tables.
	Schema []string
}

// Store keeps one row per session holding the JSON snapshot, plus one row per
// audit record with the queryable columns broken out.
type Store struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex
}

// New applies the dialect schema and returns a store.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%s: apply schema: %w", dialect.Name, err)
		}
	}
	return &Store{db: db, dialect: dialect}, nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ph(n int) string { return s.dialect.Placeholder(n) }

// SaveSession replaces the stored copy of the session and its audit rows in
// one transaction.
func (s *Store) SaveSession(ctx context.Context, snap domain.SessionSnapshot) (retErr error) {
	if snap.Session.ID == "" {
		return fmt.Errorf("session id required")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", snap.Session.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	upsert := fmt.Sprintf(`INSERT INTO sessions(id, building_id, started_at, payload) VALUES(%s,%s,%s,%s) ON CONFLICT(id) DO UPDATE SET building_id=excluded.building_id, started_at=excluded.started_at, payload=excluded.payload`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4))
	if _, err := tx.ExecContext(ctx, upsert, snap.Session.ID, snap.Session.BuildingID, snap.Session.StartedAt.UnixNano(), payload); err != nil {
		return fmt.Errorf("upsert session %s: %w", snap.Session.ID, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM modifications WHERE session_id = %s`, s.ph(1)), snap.Session.ID); err != nil {
		return fmt.Errorf("clear modifications for %s: %w", snap.Session.ID, err)
	}
	insert := fmt.Sprintf(`INSERT INTO modifications(session_id, seq, variant_id, recorded_at, category, status, payload) VALUES(%s,%s,%s,%s,%s,%s,%s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7))
	for seq, rec := range snap.Session.Records {
		body, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode audit record %d: %w", seq, err)
		}
		if _, err := tx.ExecContext(ctx, insert,
			snap.Session.ID, int64(seq), rec.VariantID, rec.Timestamp.UnixNano(),
			string(rec.Result.Category), string(rec.Result.ValidationStatus), body); err != nil {
			return fmt.Errorf("insert audit record %d: %w", seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadSession decodes the stored snapshot.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (domain.SessionSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, payload FROM sessions WHERE id = %s`, s.ph(1)), sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("select session: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return domain.SessionSnapshot{}, fmt.Errorf("scan session: %w", err)
		}
		if id != sessionID {
			continue
		}
		var snap domain.SessionSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return domain.SessionSnapshot{}, fmt.Errorf("decode session %s: %w", id, err)
		}
		return snap, nil
	}
	if err := rows.Err(); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("iterate sessions: %w", err)
	}
	return domain.SessionSnapshot{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
}

// ListSessions returns stored sessions ordered by start time then id. Records
// are omitted; use Modifications to query them.
func (s *Store) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM sessions ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Session
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var snap domain.SessionSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		snap.Session.Records = nil
		out = append(out, snap.Session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Modifications queries audit rows. The filter is applied in SQL and again on
// the decoded records so results never depend on driver collation.
func (s *Store) Modifications(ctx context.Context, filter domain.ModificationFilter) ([]domain.AuditRecord, error) {
	var where []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = %s", column, s.ph(len(args))))
	}
	if filter.SessionID != "" {
		add("session_id", filter.SessionID)
	}
	if filter.VariantID != "" {
		add("variant_id", filter.VariantID)
	}
	if filter.Category != "" {
		add("category", string(filter.Category))
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UnixNano())
		where = append(where, fmt.Sprintf("recorded_at >= %s", s.ph(len(args))))
	}
	query := `SELECT payload FROM modifications`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY recorded_at, variant_id, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select modifications: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.AuditRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan modification: %w", err)
		}
		var rec domain.AuditRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode modification: %w", err)
		}
		if filter.Match(rec) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modifications: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].VariantID < out[j].VariantID
	})
	return out, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}
