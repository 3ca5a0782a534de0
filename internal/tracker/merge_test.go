package tracker

import (
	"errors"
	"testing"

	"variantcore/pkg/domain"
)

func TestMergeOrdersByTimestampThenVariant(t *testing.T) {
	tr := newTestTracker()
	tr.StartSession("batch", "bldg", "")

	a, err := tr.Fork()
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	b, _ := tr.Fork()
	// Shared clock: readings interleave across forks.
	_ = b.StartVariant("variant_001")
	_ = a.StartVariant("variant_000")
	_ = b.AddModification("variant_001", result(domain.CategoryLighting, "watts_per_area", domain.StatusValid))
	_ = a.AddModification("variant_000", result(domain.CategoryLighting, "watts_per_area", domain.StatusValid))
	_ = a.AddModification("variant_000", result(domain.CategoryGeometry, "ceiling_height", domain.StatusInvalid))
	_ = a.CompleteVariant("variant_000", "")
	_ = b.FailVariant("variant_001", "boom")

	if err := Merge(tr, a, nil, b); err != nil {
		t.Fatalf("merge: %v", err)
	}
	records := tr.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.Before(records[i-1].Timestamp) {
			t.Fatalf("records out of order at %d", i)
		}
	}
	if records[0].VariantID != "variant_001" {
		t.Fatalf("expected earliest record from variant_001, got %s", records[0].VariantID)
	}
	for _, rec := range records {
		if rec.SessionID != "batch" {
			t.Fatalf("merged record carries session %s", rec.SessionID)
		}
	}
	variants := tr.Variants()
	if len(variants) != 2 || variants[0].ID != "variant_000" || variants[1].ID != "variant_001" {
		t.Fatalf("variants must follow worker order, got %+v", variants)
	}
	if variants[1].Status != domain.VariantFailed {
		t.Fatalf("expected failed status preserved, got %s", variants[1].Status)
	}
	if tr.ModificationCount() != 3 {
		t.Fatalf("expected all-time count 3, got %d", tr.ModificationCount())
	}
}

func TestMergeRejectsDuplicateVariants(t *testing.T) {
	tr := newTestTracker()
	tr.StartSession("batch", "", "")
	_ = tr.StartVariant("variant_000")

	a, _ := tr.Fork()
	_ = a.StartVariant("variant_000")
	if err := Merge(tr, a); !errors.Is(err, domain.ErrDuplicateVariant) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	b, _ := tr.Fork()
	c, _ := tr.Fork()
	_ = b.StartVariant("variant_009")
	_ = b.AddModification("variant_009", result(domain.CategoryHVAC, "fan_efficiency", domain.StatusValid))
	_ = c.StartVariant("variant_009")
	if err := Merge(tr, b, c); !errors.Is(err, domain.ErrDuplicateVariant) {
		t.Fatalf("expected duplicate error across workers, got %v", err)
	}
	if len(tr.Variants()) != 1 || len(tr.Records()) != 0 {
		t.Fatalf("failed merge must leave destination untouched")
	}

	if err := Merge(New(), b); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no active session, got %v", err)
	}
}
