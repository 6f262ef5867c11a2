// Package observe provides the observability primitives shared by the
// dialog engine and the HTTP adapter: OpenTelemetry metrics, tracing helpers,
// a trace-aware slog logger and HTTP middleware.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed to
// Prometheus through the exporter bridge set up by [InitProvider]. A
// package-level [DefaultMetrics] instance is available; tests should build
// their own with [NewMetrics] and a ManualReader.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope of every flightdesk instrument.
const meterName = "github.com/MrWong99/flightdesk"

// Metrics holds the OpenTelemetry instruments of the service. All fields are
// safe for concurrent use; the underlying OTel types handle their own
// synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// TurnDuration is the wall time of one dialog turn.
	TurnDuration metric.Float64Histogram

	// ClassifierDuration is the latency of a remote intent classification,
	// retries included.
	ClassifierDuration metric.Float64Histogram

	// --- Counters ---

	// Turns counts completed turns. Use with attribute:
	//   attribute.String("state", ...) // state after the turn
	Turns metric.Int64Counter

	// Intents counts recognized intents. Use with attributes:
	//   attribute.String("intent", ...), attribute.String("source", ...)
	Intents metric.Int64Counter

	// ClassifierFallbacks counts classifications answered by the rules
	// because the remote classifier failed.
	ClassifierFallbacks metric.Int64Counter

	// --- Error counters ---

	// ValidationFailures counts rejected slot values. Use with attribute:
	//   attribute.String("slot", ...)
	ValidationFailures metric.Int64Counter

	// ContentViolations counts utterances stopped by the content filter.
	// Use with attribute:
	//   attribute.String("category", ...)
	ContentViolations metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions is the number of live dialog sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration is the HTTP handler latency. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries in seconds. Turns are dominated by
// the LLM call, which may retry for several seconds.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] on mp. Returns an error if
// any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("flightdesk.turn.duration",
		metric.WithDescription("Latency of one dialog turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ClassifierDuration, err = m.Float64Histogram("flightdesk.classifier.duration",
		metric.WithDescription("Latency of remote intent classification including retries."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Turns, err = m.Int64Counter("flightdesk.turns",
		metric.WithDescription("Completed dialog turns by resulting state."),
	); err != nil {
		return nil, err
	}
	if met.Intents, err = m.Int64Counter("flightdesk.intents",
		metric.WithDescription("Recognized intents by intent and classifier source."),
	); err != nil {
		return nil, err
	}
	if met.ClassifierFallbacks, err = m.Int64Counter("flightdesk.classifier.fallbacks",
		metric.WithDescription("Classifications served by the rule-based fallback."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ValidationFailures, err = m.Int64Counter("flightdesk.validation.failures",
		metric.WithDescription("Rejected slot values by slot."),
	); err != nil {
		return nil, err
	}
	if met.ContentViolations, err = m.Int64Counter("flightdesk.content.violations",
		metric.WithDescription("Utterances rejected by the content filter by category."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("flightdesk.active_sessions",
		metric.WithDescription("Number of live dialog sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("flightdesk.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails, which the global provider
// never does.
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

// Attr is shorthand for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordIntent counts one recognized intent. source is the classifier that
// produced it: "llm", "rules" or "content_filter".
func (m *Metrics) RecordIntent(ctx context.Context, intent, source string) {
	m.Intents.Add(ctx, 1, metric.WithAttributes(Attr("intent", intent), Attr("source", source)))
}

// RecordTurn records both the latency histogram and the per-state counter for
// one completed turn.
func (m *Metrics) RecordTurn(ctx context.Context, state string, seconds float64) {
	m.TurnDuration.Record(ctx, seconds)
	m.Turns.Add(ctx, 1, metric.WithAttributes(Attr("state", state)))
}

// RecordValidationFailure counts one rejected value for slot.
func (m *Metrics) RecordValidationFailure(ctx context.Context, slot string) {
	m.ValidationFailures.Add(ctx, 1, metric.WithAttributes(Attr("slot", slot)))
}

// RecordContentViolation counts one filtered utterance.
func (m *Metrics) RecordContentViolation(ctx context.Context, category string) {
	m.ContentViolations.Add(ctx, 1, metric.WithAttributes(Attr("category", category)))
}
