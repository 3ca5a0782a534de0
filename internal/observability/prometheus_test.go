package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"variantcore/internal/core"
	"variantcore/internal/tracker"
	"variantcore/pkg/domain"
)

var (
	_ core.MetricsRecorder = (*PrometheusRecorder)(nil)
	_ tracker.Metrics      = (*PrometheusRecorder)(nil)
	_ core.MetricsRecorder = (*ExpvarRecorder)(nil)
	_ tracker.Metrics      = (*ExpvarRecorder)(nil)
	_ core.Tracer          = (*JSONTracer)(nil)
)

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg, "")
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "generate_variants", true, 20*time.Millisecond)
	rec.Observe(ctx, "generate_variants", false, 5*time.Millisecond)
	rec.Observe(ctx, "apply_category", true, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)
	rec.RecordModification(domain.CategoryHVAC, domain.StatusValid)
	rec.RecordModification(domain.CategoryHVAC, domain.StatusValid)
	rec.RecordModification(domain.CategoryEnvelope, domain.StatusInvalid)
	rec.RecordVariant(domain.VariantCompleted, 40*time.Millisecond)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"generate success", testutil.ToFloat64(rec.operations.WithLabelValues("generate_variants", "success")), 1},
		{"generate error", testutil.ToFloat64(rec.operations.WithLabelValues("generate_variants", "error")), 1},
		{"apply success", testutil.ToFloat64(rec.operations.WithLabelValues("apply_category", "success")), 1},
		{"hvac valid", testutil.ToFloat64(rec.modifications.WithLabelValues(string(domain.CategoryHVAC), string(domain.StatusValid))), 2},
		{"envelope invalid", testutil.ToFloat64(rec.modifications.WithLabelValues(string(domain.CategoryEnvelope), string(domain.StatusInvalid))), 1},
		{"completed variants", testutil.ToFloat64(rec.variants.WithLabelValues(string(domain.VariantCompleted))), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
	if n := testutil.CollectAndCount(rec.operations); n != 3 {
		t.Fatalf("empty operation must be ignored, got %d series", n)
	}
	if n := testutil.CollectAndCount(reg, "variantcore_variant_duration_seconds"); n != 1 {
		t.Fatalf("expected variant duration histogram, got %d", n)
	}
}

func TestPrometheusRecorderNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg, "bem")
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.RecordVariant(domain.VariantFailed, time.Second)
	if n := testutil.CollectAndCount(reg, "bem_variants_total"); n != 1 {
		t.Fatalf("expected namespaced counter, got %d", n)
	}
}

func TestPrometheusRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusRecorder(reg, ""); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusRecorder(reg, ""); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
