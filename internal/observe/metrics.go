// Package observe provides the observability primitives of scribeclean:
// OpenTelemetry metrics for the post-processing passes, tracing helpers, a
// trace-aware slog logger and HTTP middleware tying them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed in
// Prometheus format by [InitProvider]. Tests should build a [Metrics] with
// [NewMetrics] over their own [metric.MeterProvider] instead of using
// [DefaultMetrics].
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/MrWong99/scribeclean"

// Metrics holds the metric instruments of the application. All fields are
// safe for concurrent use.
type Metrics struct {
	// CorrectionDuration tracks vocabulary correction latency per call.
	CorrectionDuration metric.Float64Histogram

	// FilterDuration tracks disfluency filtering latency per call.
	FilterDuration metric.Float64Histogram

	// WordsCorrected counts tokens replaced by a vocabulary entry.
	WordsCorrected metric.Int64Counter

	// FillersRemoved counts filler words deleted by the filter.
	FillersRemoved metric.Int64Counter

	// StuttersCollapsed counts tokens dropped while collapsing stutter runs.
	StuttersCollapsed metric.Int64Counter

	// Requests counts API calls. Use with attributes:
	//   attribute.String("endpoint", ...), attribute.String("status", ...)
	Requests metric.Int64Counter

	// DictionaryWords tracks the number of words in the active dictionary.
	DictionaryWords metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// passBuckets are histogram boundaries (in seconds) for in-process text passes,
// which finish in microseconds to a few milliseconds.
var passBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1,
}

// NewMetrics creates all instruments on the given [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CorrectionDuration, err = m.Float64Histogram("scribeclean.correction.duration",
		metric.WithDescription("Latency of custom vocabulary correction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(passBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FilterDuration, err = m.Float64Histogram("scribeclean.filter.duration",
		metric.WithDescription("Latency of filler and stutter filtering."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(passBuckets...),
	); err != nil {
		return nil, err
	}

	if met.WordsCorrected, err = m.Int64Counter("scribeclean.words.corrected",
		metric.WithDescription("Total tokens replaced by a custom vocabulary entry."),
	); err != nil {
		return nil, err
	}
	if met.FillersRemoved, err = m.Int64Counter("scribeclean.fillers.removed",
		metric.WithDescription("Total filler words removed."),
	); err != nil {
		return nil, err
	}
	if met.StuttersCollapsed, err = m.Int64Counter("scribeclean.stutters.collapsed",
		metric.WithDescription("Total stutter tokens dropped."),
	); err != nil {
		return nil, err
	}
	if met.Requests, err = m.Int64Counter("scribeclean.requests",
		metric.WithDescription("Total API requests by endpoint and status."),
	); err != nil {
		return nil, err
	}

	if met.DictionaryWords, err = m.Int64UpDownCounter("scribeclean.dictionary.words",
		metric.WithDescription("Number of words in the custom dictionary."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("scribeclean.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, created on
// first call from [otel.GetMeterProvider]. Panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordCorrection records one vocabulary pass that took d and replaced n tokens.
func (m *Metrics) RecordCorrection(ctx context.Context, d time.Duration, n int) {
	m.CorrectionDuration.Record(ctx, d.Seconds())
	if n > 0 {
		m.WordsCorrected.Add(ctx, int64(n))
	}
}

// RecordFilter records one filter pass that took d.
func (m *Metrics) RecordFilter(ctx context.Context, d time.Duration, fillers, stutters int) {
	m.FilterDuration.Record(ctx, d.Seconds())
	if fillers > 0 {
		m.FillersRemoved.Add(ctx, int64(fillers))
	}
	if stutters > 0 {
		m.StuttersCollapsed.Add(ctx, int64(stutters))
	}
}

// RecordRequest increments the request counter for endpoint with status.
func (m *Metrics) RecordRequest(ctx context.Context, endpoint, status string) {
	m.Requests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", status),
		),
	)
}
