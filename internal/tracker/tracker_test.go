package tracker

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"variantcore/pkg/domain"
)

// stepClock advances one second per reading.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestTracker(opts ...Option) *Tracker {
	seq := 0
	base := []Option{
		WithClock(stepClock(epoch)),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("%02d", seq)
		}),
	}
	return New(append(base, opts...)...)
}

func result(category domain.Category, parameter string, status domain.ValidationStatus) domain.ModificationResult {
	return domain.ModificationResult{
		Success:          status == domain.StatusValid,
		Category:         category,
		ObjectType:       "LIGHTS",
		ObjectName:       "office",
		Parameter:        parameter,
		OriginalValue:    domain.Number(10),
		NewValue:         domain.Number(8),
		Method:           domain.MethodMultiplier,
		ValidationStatus: status,
	}
}

type countingMetrics struct {
	mu            sync.Mutex
	modifications map[domain.ValidationStatus]int
	variants      map[domain.VariantStatus]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		modifications: make(map[domain.ValidationStatus]int),
		variants:      make(map[domain.VariantStatus]int),
	}
}

func (m *countingMetrics) RecordModification(_ domain.Category, status domain.ValidationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modifications[status]++
}

func (m *countingMetrics) RecordVariant(status domain.VariantStatus, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[status]++
}

func TestTrackerCountsModifications(t *testing.T) {
	metrics := newCountingMetrics()
	tr := newTestTracker(WithMetrics(metrics))
	id := tr.StartSession("", "bldg-1", "models/base.json")
	if id != "sess_01" {
		t.Fatalf("expected generated id sess_01, got %s", id)
	}
	if err := tr.StartVariant("v1"); err != nil {
		t.Fatalf("start variant: %v", err)
	}
	for _, r := range []domain.ModificationResult{
		result(domain.CategoryLighting, "watts_per_area", domain.StatusValid),
		result(domain.CategoryLighting, "fraction_radiant", domain.StatusValid),
		result(domain.CategoryGeometry, "ceiling_height", domain.StatusValid),
	} {
		if err := tr.AddModification("v1", r); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	failed := result(domain.CategoryGeometry, "window_multiplier", domain.StatusInvalid)
	failed.Rule = "window_multiplier_minimum"
	if err := tr.CompleteVariant("v1", "variants/v1.json", failed); err != nil {
		t.Fatalf("complete: %v", err)
	}

	s := tr.Summary()
	if s.TotalModifications != 4 || s.Successful != 3 || s.AllTimeModifications != 4 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.ByCategory[domain.CategoryLighting] != 2 || s.ByCategory[domain.CategoryGeometry] != 2 {
		t.Fatalf("unexpected category counts %v", s.ByCategory)
	}
	if s.ByStatus[domain.StatusInvalid] != 1 || s.Variants[domain.VariantCompleted] != 1 {
		t.Fatalf("unexpected status counts %+v", s)
	}
	v, _ := tr.Variant("v1")
	if v.TotalModifications != 4 || v.Successful != 3 || v.OutputRef != "variants/v1.json" || v.EndedAt == nil {
		t.Fatalf("unexpected variant %+v", v)
	}
	if len(v.Results()) != 4 {
		t.Fatalf("expected 4 results, got %d", len(v.Results()))
	}
	if metrics.modifications[domain.StatusValid] != 3 || metrics.variants[domain.VariantCompleted] != 1 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
}

func TestTrackerRejectsWritesToFinishedVariants(t *testing.T) {
	tr := newTestTracker()
	tr.StartSession("sess", "", "")
	if err := tr.StartVariant("done"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tr.CompleteVariant("done", ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	ok := result(domain.CategoryLighting, "watts_per_area", domain.StatusValid)
	if err := tr.AddModification("done", ok); !errors.Is(err, domain.ErrVariantTerminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if err := tr.FailVariant("done", "late"); !errors.Is(err, domain.ErrVariantTerminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if err := tr.StartVariant("done"); !errors.Is(err, domain.ErrDuplicateVariant) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := tr.AddModification("ghost", ok); !errors.Is(err, domain.ErrUnknownVariant) {
		t.Fatalf("expected unknown variant, got %v", err)
	}
	if err := tr.StartVariant(""); err == nil {
		t.Fatalf("expected error for empty variant id")
	}

	if err := tr.StartVariant("broken"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tr.AddModification("broken", ok); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tr.FailVariant("broken", "simulation diverged"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	v, _ := tr.Variant("broken")
	if v.Status != domain.VariantFailed || v.Error != "simulation diverged" || len(v.Records) != 1 {
		t.Fatalf("failed variant must keep history, got %+v", v)
	}
}

func TestTrackerRequiresActiveSession(t *testing.T) {
	tr := newTestTracker()
	checks := map[string]error{
		"start variant": tr.StartVariant("v"),
		"add":           tr.AddModification("v", domain.ModificationResult{}),
		"complete":      tr.CompleteVariant("v", ""),
		"fail":          tr.FailVariant("v", "x"),
	}
	_, endErr := tr.EndSession()
	checks["end"] = endErr
	_, forkErr := tr.Fork()
	checks["fork"] = forkErr
	for name, err := range checks {
		if !errors.Is(err, domain.ErrNoActiveSession) {
			t.Fatalf("%s: expected no active session, got %v", name, err)
		}
	}
	if tr.Records() != nil {
		t.Fatalf("expected no records without a session")
	}
	if _, ok := tr.Session(); ok {
		t.Fatalf("expected no session")
	}
}

func TestSessionsArchiveAndSummaryAcrossSessions(t *testing.T) {
	tr := newTestTracker()
	tr.StartSession("first", "bldg-b", "")
	_ = tr.StartVariant("v1")
	_ = tr.AddModification("v1", result(domain.CategoryHVAC, "gross_rated_cop", domain.StatusValid))
	_ = tr.AddModification("v1", result(domain.CategoryHVAC, "fan_efficiency", domain.StatusValid))

	tr.StartSession("second", "bldg-a", "")
	_ = tr.StartVariant("v1")
	_ = tr.AddModification("v1", result(domain.CategoryDHW, "tank_volume", domain.StatusError))

	s := tr.Summary()
	if s.SessionID != "second" || s.TotalModifications != 1 || s.AllTimeModifications != 3 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if len(s.Buildings) != 2 || s.Buildings[0] != "bldg-a" || s.Buildings[1] != "bldg-b" {
		t.Fatalf("unexpected buildings %v", s.Buildings)
	}
	sessions := tr.Sessions()
	if len(sessions) != 2 || sessions[0].Session.ID != "first" || !sessions[0].Session.Ended() || sessions[1].Session.Ended() {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
	if len(sessions[0].Session.Records) != 2 || len(sessions[0].Variants) != 1 {
		t.Fatalf("archived session lost history: %+v", sessions[0])
	}

	snap, err := tr.EndSession()
	if err != nil || snap.Session.ID != "second" || snap.Session.EndedAt == nil {
		t.Fatalf("end session: %+v %v", snap, err)
	}
	if _, ok := tr.Session(); ok {
		t.Fatalf("session should be closed")
	}
	if got := tr.Summary(); got.AllTimeModifications != 3 || got.TotalModifications != 0 {
		t.Fatalf("unexpected summary after end %+v", got)
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	tr := newTestTracker()
	tr.StartSession("s", "", "")
	_ = tr.StartVariant("v")
	_ = tr.AddModification("v", result(domain.CategoryLighting, "watts_per_area", domain.StatusValid))

	records := tr.Records()
	records[0].VariantID = "tampered"
	v, _ := tr.Variant("v")
	v.Records[0].VariantID = "tampered"
	if tr.Records()[0].VariantID != "v" {
		t.Fatalf("Records leaked internal state")
	}
	if again, _ := tr.Variant("v"); again.Records[0].VariantID != "v" {
		t.Fatalf("Variant leaked internal state")
	}
}
