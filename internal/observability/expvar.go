// Package observability provides metrics and tracing backends for the
// variant engine and the modification tracker.
package observability

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"variantcore/pkg/domain"
)

var expvarSeq uint64

// ExpvarRecorder publishes process-local counters via expvar. It satisfies
// core.MetricsRecorder and tracker.Metrics.
type ExpvarRecorder struct {
	name          string
	mu            sync.Mutex
	durations     map[string]float64
	results       map[string]map[string]int64
	modifications map[string]map[string]int64
	variants      map[string]int64
}

// ExpvarSnapshot is a read-only copy of the recorded counters.
type ExpvarSnapshot struct {
	DurationsMS   map[string]float64          `json:"durations_ms_total"`
	Results       map[string]map[string]int64 `json:"results_total"`
	Modifications map[string]map[string]int64 `json:"modifications_total"`
	Variants      map[string]int64            `json:"variants_total"`
	RecordedAt    time.Time                   `json:"recorded_at"`
}

// NewExpvarRecorder publishes a recorder under name. An empty name gets a
// unique generated one; expvar panics on duplicate names.
func NewExpvarRecorder(name string) *ExpvarRecorder {
	if name == "" {
		name = fmt.Sprintf("variantcore_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarRecorder{
		name:          name,
		durations:     make(map[string]float64),
		results:       make(map[string]map[string]int64),
		modifications: make(map[string]map[string]int64),
		variants:      make(map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name is the expvar export name.
func (r *ExpvarRecorder) Name() string { return r.name }

// Snapshot copies the aggregated counters.
func (r *ExpvarRecorder) Snapshot() ExpvarSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	durations := make(map[string]float64, len(r.durations))
	for op, total := range r.durations {
		durations[op] = total
	}
	variants := make(map[string]int64, len(r.variants))
	for status, n := range r.variants {
		variants[status] = n
	}
	return ExpvarSnapshot{
		DurationsMS:   durations,
		Results:       copyNested(r.results),
		Modifications: copyNested(r.modifications),
		Variants:      variants,
		RecordedAt:    time.Now().UTC(),
	}
}

// Observe records a service operation outcome.
func (r *ExpvarRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.mu.Lock()
	r.durations[operation] += float64(duration) / float64(time.Millisecond)
	bump(r.results, operation, status)
	r.mu.Unlock()
}

// RecordModification counts one tracked result.
func (r *ExpvarRecorder) RecordModification(category domain.Category, status domain.ValidationStatus) {
	r.mu.Lock()
	bump(r.modifications, string(category), string(status))
	r.mu.Unlock()
}

// RecordVariant counts one finished variant.
func (r *ExpvarRecorder) RecordVariant(status domain.VariantStatus, _ time.Duration) {
	r.mu.Lock()
	r.variants[string(status)]++
	r.mu.Unlock()
}

func bump(m map[string]map[string]int64, outer, inner string) {
	if _, ok := m[outer]; !ok {
		m[outer] = make(map[string]int64, 3)
	}
	m[outer][inner]++
}

func copyNested(in map[string]map[string]int64) map[string]map[string]int64 {
	out := make(map[string]map[string]int64, len(in))
	for k, counts := range in {
		cpy := make(map[string]int64, len(counts))
		for status, n := range counts {
			cpy[status] = n
		}
		out[k] = cpy
	}
	return out
}
