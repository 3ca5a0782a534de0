package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"variantcore/pkg/domain"
)

const defaultNamespace = "variantcore"

// PrometheusRecorder exports engine and tracker counters as Prometheus
// collectors. It satisfies core.MetricsRecorder and tracker.Metrics.
type PrometheusRecorder struct {
	operations    *prometheus.CounterVec
	opDuration    *prometheus.HistogramVec
	modifications *prometheus.CounterVec
	variants      *prometheus.CounterVec
	variantTime   prometheus.Histogram
}

// NewPrometheusRecorder creates the collectors and registers them on reg. A
// nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer, namespace string) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		modifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modifications_total",
			Help:      "Tracked modification results by category and validation status.",
		}, []string{"category", "status"}),
		variants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variants_total",
			Help:      "Finished variants by terminal status.",
		}, []string{"status"}),
		variantTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "variant_duration_seconds",
			Help:      "Time from variant start to completion or failure.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.opDuration, r.modifications, r.variants, r.variantTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records a service operation outcome.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	outcome := "error"
	if success {
		outcome = "success"
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
	r.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordModification counts one tracked result.
func (r *PrometheusRecorder) RecordModification(category domain.Category, status domain.ValidationStatus) {
	r.modifications.WithLabelValues(string(category), string(status)).Inc()
}

// RecordVariant counts one finished variant and its duration.
func (r *PrometheusRecorder) RecordVariant(status domain.VariantStatus, duration time.Duration) {
	r.variants.WithLabelValues(string(status)).Inc()
	r.variantTime.Observe(duration.Seconds())
}
