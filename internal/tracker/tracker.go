// Package tracker records every attempted modification of a variant
// generation session and derives summaries, exports and reports from the
// resulting audit log.
package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"variantcore/pkg/domain"
)

// Logger is the structured logging contract. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives counters for recorded modifications and finished variants.
// Implementations must be safe for concurrent use; forked trackers share them.
type Metrics interface {
	RecordModification(category domain.Category, status domain.ValidationStatus)
	RecordVariant(status domain.VariantStatus, duration time.Duration)
}

// IDGenerator produces unique identifiers.
type IDGenerator func() string

// UUIDv7 generates time-sortable RFC 9562 identifiers.
func UUIDv7() IDGenerator {
	return func() string { return uuid.Must(uuid.NewV7()).String() }
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(t *Tracker) {
		if m != nil {
			t.metrics = m
		}
	}
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(gen IDGenerator) Option {
	return func(t *Tracker) {
		if gen != nil {
			t.ids = gen
		}
	}
}

const sessionIDPrefix = "sess_"

// Tracker is the audit log of one active session plus the archive of earlier
// sessions. It is not safe for concurrent writers; parallel workers use Fork
// and are combined with Merge.
type Tracker struct {
	now     func() time.Time
	ids     IDGenerator
	log     Logger
	metrics Metrics

	session  *domain.Session
	variants map[string]*domain.Variant
	order    []string
	archive  []domain.SessionSnapshot
	total    int
}

// New constructs an empty tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		now:      func() time.Time { return time.Now().UTC() },
		ids:      UUIDv7(),
		log:      noopLogger{},
		metrics:  noopMetrics{},
		variants: make(map[string]*domain.Variant),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSession opens a session, archiving the active one. An empty id is
// replaced by a generated one. The session id is returned.
func (t *Tracker) StartSession(id, buildingID, baseModelRef string) string {
	if t.session != nil {
		t.archiveActive()
	}
	if id == "" {
		id = sessionIDPrefix + t.ids()
	}
	t.session = &domain.Session{
		ID:           id,
		BuildingID:   buildingID,
		BaseModelRef: baseModelRef,
		StartedAt:    t.now(),
	}
	t.variants = make(map[string]*domain.Variant)
	t.order = nil
	t.log.Info("session started", "session", id, "building", buildingID)
	return id
}

// EndSession archives the active session and returns its snapshot.
func (t *Tracker) EndSession() (domain.SessionSnapshot, error) {
	if t.session == nil {
		return domain.SessionSnapshot{}, domain.ErrNoActiveSession
	}
	snap := t.archiveActive()
	t.session = nil
	t.variants = make(map[string]*domain.Variant)
	t.order = nil
	return snap, nil
}

func (t *Tracker) archiveActive() domain.SessionSnapshot {
	ended := t.now()
	t.session.EndedAt = &ended
	snap := t.snapshot()
	t.archive = append(t.archive, snap)
	t.log.Info("session archived", "session", t.session.ID, "modifications", len(t.session.Records))
	return snap
}

// StartVariant registers a new in-progress variant in the active session.
func (t *Tracker) StartVariant(id string) error {
	if t.session == nil {
		return domain.ErrNoActiveSession
	}
	if id == "" {
		return fmt.Errorf("variant id required")
	}
	if _, exists := t.variants[id]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateVariant, id)
	}
	t.variants[id] = &domain.Variant{
		ID:        id,
		SessionID: t.session.ID,
		Status:    domain.VariantInProgress,
		StartedAt: t.now(),
	}
	t.order = append(t.order, id)
	return nil
}

func (t *Tracker) activeVariant(id string) (*domain.Variant, error) {
	if t.session == nil {
		return nil, domain.ErrNoActiveSession
	}
	v, ok := t.variants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownVariant, id)
	}
	if v.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrVariantTerminal, id, v.Status)
	}
	return v, nil
}

// AddModification appends one result to the variant's history and the
// session audit log.
func (t *Tracker) AddModification(variantID string, result domain.ModificationResult) error {
	v, err := t.activeVariant(variantID)
	if err != nil {
		return err
	}
	t.record(v, result)
	return nil
}

func (t *Tracker) record(v *domain.Variant, result domain.ModificationResult) {
	rec := domain.AuditRecord{
		Timestamp: t.now(),
		SessionID: t.session.ID,
		VariantID: v.ID,
		Result:    result,
	}
	v.Records = append(v.Records, rec)
	v.TotalModifications++
	if result.Succeeded() {
		v.Successful++
	}
	t.session.Records = append(t.session.Records, rec)
	t.total++
	t.metrics.RecordModification(result.Category, result.ValidationStatus)
}

// CompleteVariant records any trailing results and marks the variant completed.
func (t *Tracker) CompleteVariant(id, outputRef string, mods ...domain.ModificationResult) error {
	v, err := t.activeVariant(id)
	if err != nil {
		return err
	}
	for _, m := range mods {
		t.record(v, m)
	}
	v.OutputRef = outputRef
	t.finish(v, domain.VariantCompleted)
	return nil
}

// FailVariant marks the variant failed. Recorded history is kept.
func (t *Tracker) FailVariant(id, message string) error {
	v, err := t.activeVariant(id)
	if err != nil {
		return err
	}
	v.Error = message
	t.finish(v, domain.VariantFailed)
	t.log.Warn("variant failed", "session", t.session.ID, "variant", id, "error", message)
	return nil
}

func (t *Tracker) finish(v *domain.Variant, status domain.VariantStatus) {
	ended := t.now()
	v.Status = status
	v.EndedAt = &ended
	t.metrics.RecordVariant(status, ended.Sub(v.StartedAt))
}

// Session returns a copy of the active session.
func (t *Tracker) Session() (domain.Session, bool) {
	if t.session == nil {
		return domain.Session{}, false
	}
	return copySession(*t.session), true
}

// Sessions returns archived snapshots followed by the active session, if any.
func (t *Tracker) Sessions() []domain.SessionSnapshot {
	out := make([]domain.SessionSnapshot, 0, len(t.archive)+1)
	out = append(out, t.archive...)
	if t.session != nil {
		out = append(out, t.snapshot())
	}
	return out
}

// Variant returns a copy of the variant.
func (t *Tracker) Variant(id string) (domain.Variant, bool) {
	v, ok := t.variants[id]
	if !ok {
		return domain.Variant{}, false
	}
	return copyVariant(*v), true
}

// Variants returns the active session's variants in start order.
func (t *Tracker) Variants() []domain.Variant {
	out := make([]domain.Variant, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, copyVariant(*t.variants[id]))
	}
	return out
}

// Records returns the active session's audit log in recorded order.
func (t *Tracker) Records() []domain.AuditRecord {
	if t.session == nil {
		return nil
	}
	return append([]domain.AuditRecord(nil), t.session.Records...)
}

// ModificationCount is the number of results recorded since construction,
// across every session.
func (t *Tracker) ModificationCount() int { return t.total }

// Fork returns an empty tracker for one worker. It shares the clock, logger,
// metrics and id generator and carries the active session's identity.
func (t *Tracker) Fork() (*Tracker, error) {
	if t.session == nil {
		return nil, domain.ErrNoActiveSession
	}
	fork := &Tracker{
		now:      t.now,
		ids:      t.ids,
		log:      t.log,
		metrics:  t.metrics,
		variants: make(map[string]*domain.Variant),
	}
	s := *t.session
	s.Records = nil
	fork.session = &s
	return fork, nil
}

func (t *Tracker) snapshot() domain.SessionSnapshot {
	return domain.SessionSnapshot{Session: copySession(*t.session), Variants: t.Variants()}
}

func copySession(s domain.Session) domain.Session {
	s.Records = append([]domain.AuditRecord(nil), s.Records...)
	if s.EndedAt != nil {
		ended := *s.EndedAt
		s.EndedAt = &ended
	}
	return s
}

func copyVariant(v domain.Variant) domain.Variant {
	v.Records = append([]domain.AuditRecord(nil), v.Records...)
	if v.EndedAt != nil {
		ended := *v.EndedAt
		v.EndedAt = &ended
	}
	return v
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) RecordModification(domain.Category, domain.ValidationStatus) {}
func (noopMetrics) RecordVariant(domain.VariantStatus, time.Duration)           {}
